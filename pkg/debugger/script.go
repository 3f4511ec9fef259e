// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package debugger

import (
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/machine"
	lua "github.com/yuin/gopher-lua"
)

// RunScript executes Lua source with the machine state exposed through the
// globals below. Scripts run on the caller's goroutine and must not be used
// while the machine is executing.
//
//	peek(addr)         memory byte
//	poke(addr, value)
//	reg(n)             Vn
//	setreg(n, value)
//	pc()  setpc(addr)
//	i()   seti(addr)
//	dt()  st()
//	label(name)        address of a label, or nil
func (dbg *Debugger) RunScript(mc *machine.Machine, source string) error {
	L := lua.NewState()
	defer L.Close()

	dbg.exportMachine(L, mc)

	if err := L.DoString(source); err != nil {
		return fmt.Errorf("lua: %w", err)
	}

	return nil
}

func (dbg *Debugger) RunScriptFile(mc *machine.Machine, path string) error {
	L := lua.NewState()
	defer L.Close()

	dbg.exportMachine(L, mc)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("lua: %w", err)
	}

	return nil
}

func checkAddr(L *lua.LState, n int) int {
	addr := L.CheckInt(n)

	if addr < 0 || addr >= machine.MEMORY_SIZE {
		L.ArgError(n, "address out of range")
	}

	return addr
}

func checkByte(L *lua.LState, n int) byte {
	value := L.CheckInt(n)

	if value < 0 || value > 0xFF {
		L.ArgError(n, "value out of range")
	}

	return byte(value)
}

func checkRegister(L *lua.LState, n int) int {
	reg := L.CheckInt(n)

	if reg < 0 || reg >= machine.REGISTER_COUNT {
		L.ArgError(n, "register out of range")
	}

	return reg
}

func (dbg *Debugger) exportMachine(L *lua.LState, mc *machine.Machine) {
	st := &mc.State

	functions := map[string]lua.LGFunction{
		"peek": func(L *lua.LState) int {
			L.Push(lua.LNumber(st.Memory[checkAddr(L, 1)]))
			return 1
		},
		"poke": func(L *lua.LState) int {
			addr := checkAddr(L, 1)
			st.Memory[addr] = checkByte(L, 2)
			return 0
		},
		"reg": func(L *lua.LState) int {
			L.Push(lua.LNumber(st.V[checkRegister(L, 1)]))
			return 1
		},
		"setreg": func(L *lua.LState) int {
			reg := checkRegister(L, 1)
			st.V[reg] = checkByte(L, 2)
			return 0
		},
		"pc": func(L *lua.LState) int {
			L.Push(lua.LNumber(st.Program))
			return 1
		},
		"setpc": func(L *lua.LState) int {
			st.Program = uint16(checkAddr(L, 1))
			return 0
		},
		"i": func(L *lua.LState) int {
			L.Push(lua.LNumber(st.I))
			return 1
		},
		"seti": func(L *lua.LState) int {
			st.I = uint16(checkAddr(L, 1))
			return 0
		},
		"dt": func(L *lua.LState) int {
			L.Push(lua.LNumber(st.Delay))
			return 1
		},
		"st": func(L *lua.LState) int {
			L.Push(lua.LNumber(st.Sound))
			return 1
		},
		"label": func(L *lua.LState) int {
			if addr, ok := dbg.LookupLabel(L.CheckString(1)); ok {
				L.Push(lua.LNumber(addr))
			} else {
				L.Push(lua.LNil)
			}
			return 1
		},
		"print": func(L *lua.LState) int {
			parts := make([]string, 0, L.GetTop())
			for n := 1; n <= L.GetTop(); n++ {
				parts = append(parts, L.ToStringMeta(L.Get(n)).String())
			}
			fmt.Fprintln(dbg.out(), strings.Join(parts, "\t"))
			return 0
		},
	}

	for name, fn := range functions {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}
