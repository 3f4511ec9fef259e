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
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}
	return dbg.Out
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// ToggleBreakpoint adds a breakpoint at addr, or removes the existing one.
// It reports whether a breakpoint is set afterwards.
func (dbg *Debugger) ToggleBreakpoint(addr uint16) bool {
	for i, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			dbg.Breakpoints = append(dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...)
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

// ToggleWatchpoint behaves like ToggleBreakpoint. Setting a watchpoint on an
// address that already has one replaces its type.
func (dbg *Debugger) ToggleWatchpoint(addr uint16, kind WatchpointType) bool {
	for i, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr {
			if watchpoint.Type == kind {
				dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
				return false
			}

			dbg.Watchpoints[i].Type = kind
			return true
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, kind})
	return true
}

// Label returns the label assembled at addr, if any.
func (dbg *Debugger) Label(addr uint16) (string, bool) {
	if dbg.SymTable == nil {
		return "", false
	}

	label, ok := dbg.SymTable.Labels[addr]
	return label, ok
}

// LookupLabel is the reverse of Label.
func (dbg *Debugger) LookupLabel(name string) (uint16, bool) {
	if dbg.SymTable == nil {
		return 0, false
	}

	for addr, label := range dbg.SymTable.Labels {
		if label == name {
			return addr, true
		}
	}

	return 0, false
}

func (dbg *Debugger) PrintLabels() {
	w := dbg.out()

	if dbg.SymTable == nil || len(dbg.SymTable.Labels) == 0 {
		fmt.Fprintln(w, "No labels loaded")
		return
	}

	addrs := make([]int, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		addrs = append(addrs, int(addr))
	}
	sort.Ints(addrs)

	for _, addr := range addrs {
		fmt.Fprintf(w, "\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[uint16(addr)])
	}
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	w := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(w, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(w, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(w, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(w, err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		foundaddr := false
		for lineaddr, linebyte := range dbg.SymTable.Symbols {
			if linebyte == offset {
				fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", lineaddr)
				foundaddr = true
				break
			}
		}

		if !foundaddr {
			fmt.Fprint(w, "\033[1;30m~~~~~~~\033[0m ")
		}

		fmt.Fprintln(w, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(w, err)
	}
}

func (dbg *Debugger) PrintMem(st *machine.MachineState, addr, count uint16) {
	w := dbg.out()

	for i := int(addr); i < int(addr)+int(count) && i < machine.MEMORY_SIZE; i++ {
		if i == int(addr) {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		} else if (i-int(addr))%8 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		}

		result := st.Memory[i]

		if result == 0 {
			fmt.Fprintf(w, "\033[1;30m%02x\033[0m ", result)
		} else {
			fmt.Fprintf(w, "%02x ", result)
		}
	}

	fmt.Fprintln(w)
}

// PrintDisasm lists count instructions from addr, marking the current PC.
func (dbg *Debugger) PrintDisasm(st *machine.MachineState, addr, count uint16) {
	w := dbg.out()

	start := int(addr)
	stop := start + int(count)*machine.INSTRUCTION_LEN
	if stop > machine.MEMORY_SIZE {
		stop = machine.MEMORY_SIZE
	}

	for _, line := range disasm.Program(st.Memory[start:stop], addr) {
		if label, ok := dbg.Label(line.Address); ok {
			fmt.Fprintf(w, "%s:\n", label)
		}

		marker := "  "
		if line.Address == st.Program {
			marker = "=>"
		}

		if line.Known {
			fmt.Fprintf(w, "%s \033[1m[%#04x]\033[0m %04x  %s\n", marker, line.Address, line.Word, line.Text)
		} else {
			fmt.Fprintf(w, "%s \033[1m[%#04x]\033[0m %04x  \033[1;30m%s\033[0m\n", marker, line.Address, line.Word, line.Text)
		}
	}
}

func (dbg *Debugger) PrintRegisters(st *machine.MachineState) {
	w := dbg.out()

	for i, value := range st.V {
		fmt.Fprintf(w, "\033[1mV%X:\033[0m %02x ", i, value)

		if i%8 == 7 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(
		w,
		"\033[1mI:\033[0m %#04x \033[1mPC:\033[0m %#04x \033[1mSP:\033[0m %d "+
			"\033[1mDT:\033[0m %d \033[1mST:\033[0m %d\n",
		st.I,
		st.Program,
		st.Registers.Stack,
		st.Delay,
		st.Sound,
	)

	if st.Registers.Stack > 0 {
		fmt.Fprint(w, "\033[1mStack:\033[0m")

		for i := 1; i <= int(st.Registers.Stack) && i < machine.STACK_DEPTH; i++ {
			fmt.Fprintf(w, " %#04x", st.Stack[i])
		}

		fmt.Fprintln(w)
	}
}
