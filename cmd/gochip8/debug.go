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

package main

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
	"golang.design/x/clipboard"
)

var lastcmd []string

var stdin = bufio.NewScanner(os.Stdin)

var clipboardOnce sync.Once
var clipboardErr error

// session is the emulator the REPL handlers act on.
var session *emulator

// quit cancels the emulation from inside the REPL.
var quit context.CancelFunc

func newDebugger(emu *emulator, path string, cancel context.CancelFunc) *debugger.Debugger {
	session = emu
	quit = cancel

	var dbg debugger.Debugger
	dbg.HandleBreak = handleBreak
	dbg.HandleRead = handleRead
	dbg.HandleWrite = handleWrite

	filename := filepath.Join(
		filepath.Dir(path),
		strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".c8db",
	)

	if file, err := os.Open(filename); err == nil {
		var symtable assembler.SymTable

		if err := gob.NewDecoder(file).Decode(&symtable); err == nil {
			dbg.SymTable = &symtable
		} else {
			emu.logger.Warn("Loading symbol table failed",
				log.String("file", filename), log.Err(err))
		}

		file.Close()
	} else {
		emu.logger.Debug("No symbol table", log.String("file", filename))
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		// Left open for the life of the process
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
		} else {
			emu.logger.Warn("Loading source file failed",
				log.String("file", dbg.SymTable.Source), log.Err(err))
		}
	}

	return &dbg
}

// watchInterrupt breaks into the debugger on SIGINT.
func (emu *emulator) watchInterrupt(ctx context.Context, dbg *debugger.Debugger) func() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		for range c {
			fmt.Println()
			_ = emu.runner.Do(ctx, func(*machine.Machine) {
				dbg.Break = true
			})
		}
	}()

	return func() {
		signal.Stop(c)
		close(c)
	}
}

func parseAddr(dbg *debugger.Debugger, s string) (uint16, error) {
	if addr, ok := dbg.LookupLabel(s); ok {
		return addr, nil
	}

	value, err := encoding.DecodeHex(s)

	if err != nil {
		return 0, err
	}

	if value >= machine.MEMORY_SIZE {
		return 0, fmt.Errorf("address %#04x out of range", value)
	}

	return value, nil
}

func parseByte(s string) (byte, error) {
	value, err := encoding.DecodeNumber(s)

	if err != nil {
		return 0, err
	}

	if value < 0 || value > math.MaxUint8 {
		return 0, fmt.Errorf("value %d out of range", value)
	}

	return byte(value), nil
}

func parseCount(s string) (uint16, error) {
	value, err := strconv.ParseUint(s, 10, 16)
	return uint16(value), err
}

// parseRange reads the "[0x###|label] [#]" arguments shared by the listing
// commands. A lone decimal argument is a count from the default address.
func parseRange(dbg *debugger.Debugger, args []string, addr, count uint16) (uint16, uint16, error) {
	var err error

	if len(args) > 0 {
		if a, aerr := parseAddr(dbg, args[0]); aerr == nil {
			addr = a
		} else if count, err = parseCount(args[0]); err != nil {
			return 0, 0, aerr
		}
	}

	if len(args) > 1 {
		if count, err = parseCount(args[1]); err != nil {
			return 0, 0, err
		}
	}

	return addr, count, nil
}

func watchTypeName(wtype debugger.WatchpointType) string {
	switch wtype {
	case debugger.ReadWatch:
		return "read"
	case debugger.WriteWatch:
		return "write"
	default:
		return "rwrite"
	}
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x###|label]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		addr, err := parseAddr(dbg, args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == addr {
				return
			}
		}

		dbg.ToggleBreakpoint(addr)
		fmt.Printf("Breakpoint added [%#04x]\n", addr)

	case "l", "ls", "list":
		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Breakpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#04x %%s\n", int64(digits)+1)
		}

		for i, breakpoint := range dbg.Breakpoints {
			label, _ := dbg.Label(breakpoint.Addr)
			fmt.Printf(fmtstring, i, breakpoint.Addr, label)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			fmt.Println("Invalid breakpoint number")
			return
		}

		dbg.ToggleBreakpoint(dbg.Breakpoints[i].Addr)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		fmt.Printf("break: '%s' is not a valid command\n%s\n", cmd, usage)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x###|label] [read|write|readwrite]"

		if len(args) != 2 {
			fmt.Println(usage)
			return
		}

		addr, err := parseAddr(dbg, args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			fmt.Println(usage)
			return
		}

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				return
			}
		}

		dbg.ToggleWatchpoint(addr, wtype)
		fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, watchTypeName(wtype))

	case "l", "ls", "list":
		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Watchpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#04x %%s\n", int64(digits)+1)
		}

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchTypeName(watchpoint.Type))
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			fmt.Println("Invalid watchpoint number")
			return
		}

		watchpoint := dbg.Watchpoints[i]
		dbg.ToggleWatchpoint(watchpoint.Addr, watchpoint.Type)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		fmt.Printf("watch: '%s' is not a valid command\n%s\n", cmd, usage)
	}
}

func debugReg(dbg *debugger.Debugger, st *machine.MachineState, args []string) {
	const usage = "register [V#|I|PC|DT|ST] [value]"

	if len(args) == 0 {
		dbg.PrintRegisters(st)
		return
	}

	if len(args) != 2 {
		fmt.Println(usage)
		return
	}

	name := strings.ToUpper(args[0])

	switch name {
	case "I", "PC":
		addr, err := parseAddr(dbg, args[1])

		if err != nil {
			fmt.Println(err)
			return
		}

		if name == "I" {
			st.I = addr
		} else {
			st.Program = addr
		}

		fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, addr)
		return
	}

	value, err := parseByte(args[1])

	if err != nil {
		fmt.Println(err)
		return
	}

	switch {
	case name == "DT":
		st.Delay = value
	case name == "ST":
		st.Sound = value
	case len(name) == 2 && name[0] == 'V':
		reg, err := strconv.ParseUint(name[1:], 16, 8)

		if err != nil || reg >= machine.REGISTER_COUNT {
			fmt.Println("Invalid register")
			return
		}

		st.V[reg] = value
	default:
		fmt.Println("Invalid register")
		return
	}

	fmt.Printf("\033[1m%s:\033[0m %02x\n", name, value)
}

func debugSource(dbg *debugger.Debugger, st *machine.MachineState, args []string) {
	const usage = "source [0x###|label] [#]"

	if len(args) > 2 {
		fmt.Println(usage)
		return
	}

	addr, count, err := parseRange(dbg, args, st.Program, 3)

	if err != nil {
		fmt.Println(err)
		return
	}

	dbg.PrintSource(addr, count)
}

func debugDisasm(dbg *debugger.Debugger, st *machine.MachineState, args []string) {
	const usage = "disasm [0x###|label] [#]"

	if len(args) > 2 {
		fmt.Println(usage)
		return
	}

	addr, count, err := parseRange(dbg, args, st.Program, 8)

	if err != nil {
		fmt.Println(err)
		return
	}

	dbg.PrintDisasm(st, addr, count)
}

func debugMemory(dbg *debugger.Debugger, st *machine.MachineState, args []string) {
	const usage = "memory [0x###|label|#] [#]"

	if len(args) > 2 {
		fmt.Println(usage)
		return
	}

	addr, count, err := parseRange(dbg, args, st.I, 1)

	if err != nil {
		fmt.Println(err)
		return
	}

	dbg.PrintMem(st, addr, count)
}

func debugJump(dbg *debugger.Debugger, st *machine.MachineState, args []string) {
	const usage = "jump [0x###|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, err := parseAddr(dbg, args[0])

	if err != nil {
		fmt.Println(err)
		return
	}

	st.Program = addr

	if label, ok := dbg.Label(addr); ok {
		fmt.Printf("\033[1mPC:\033[0m %#04x \033[1;30m(%s)\033[0m\n", addr, label)
	} else {
		fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
	}
}

func debugSet(dbg *debugger.Debugger, st *machine.MachineState, args []string) {
	const usage = "set [0x###|label] [value...]"

	if len(args) < 2 {
		fmt.Println(usage)
		return
	}

	addr, err := parseAddr(dbg, args[0])

	if err != nil {
		fmt.Println(err)
		return
	}

	values := make([]byte, 0, len(args)-1)

	for _, arg := range args[1:] {
		value, err := parseByte(arg)

		if err != nil {
			fmt.Println(err)
			return
		}

		values = append(values, value)
	}

	if int(addr)+len(values) > machine.MEMORY_SIZE {
		fmt.Println("Write past the end of memory")
		return
	}

	copy(st.Memory[addr:], values)
	dbg.PrintMem(st, addr, uint16(len(values)))
}

func debugLua(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "lua [code...]"

	if len(args) == 0 {
		fmt.Println(usage)
		return
	}

	if err := dbg.RunScript(mc, strings.Join(args, " ")); err != nil {
		fmt.Println(err)
	}
}

func debugScript(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "script [file]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	if err := dbg.RunScriptFile(mc, args[0]); err != nil {
		fmt.Println(err)
	}
}

// debugYank copies the register file to the system clipboard.
func debugYank(st *machine.MachineState) {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})

	if clipboardErr != nil {
		fmt.Println(clipboardErr)
		return
	}

	var sb strings.Builder

	for i, value := range st.V {
		fmt.Fprintf(&sb, "V%X=%02X ", i, value)
	}

	fmt.Fprintf(
		&sb, "I=%03X PC=%03X SP=%d DT=%d ST=%d\n",
		st.I, st.Program, st.Registers.Stack, st.Delay, st.Sound,
	)

	clipboard.Write(clipboard.FmtText, []byte(sb.String()))
	fmt.Println("Registers copied")
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !stdin.Scan() {
			fmt.Println()
			quit()
			return
		}

		args := strings.Fields(stdin.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, &mc.State, args)

		case "s", "src", "source":
			debugSource(dbg, &mc.State, args)

		case "d", "dis", "disasm":
			debugDisasm(dbg, &mc.State, args)

		case "l", "label", "labels":
			dbg.PrintLabels()

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "lua":
			debugLua(dbg, mc, args)

		case "script":
			debugScript(dbg, mc, args)

		case "y", "yank":
			debugYank(&mc.State)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			quit()
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			if err := session.reset(); err != nil {
				fmt.Println(err)
			} else {
				fmt.Println("Program reloaded")
			}

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if dbg.Break {
		dbg.PrintDisasm(&mc.State, mc.State.Program, 1)
	} else {
		fmt.Println()
		fmt.Println("Program stopped")

		if dbg.Source != nil {
			dbg.PrintSource(mc.State.Program, 8)
		} else {
			dbg.PrintDisasm(&mc.State, mc.State.Program, 8)
		}
	}

	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped on read")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped on write")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}
