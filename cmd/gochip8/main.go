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
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/host"
	"github.com/lassandro/gochip8/pkg/keyboard"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

var helpvar bool
var versionvar bool
var debugvar bool
var termvar bool
var mutevar bool
var verbosevar bool
var quietvar bool
var clockvar int
var timervar int
var seedvar int64
var quirksvar string
var keymapvar string
var scriptvar string

const usage = "gochip8 [options] filename"

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&versionvar, "version", false, "Displays the version")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&termvar, "terminal", false,
		"Renders to the terminal instead of opening a window",
	)
	flag.BoolVar(&mutevar, "mute", false, "Disables the beeper")
	flag.BoolVar(&verbosevar, "v", false, "Enables debug logging")
	flag.BoolVar(&quietvar, "q", false, "Only logs errors")
	flag.IntVar(
		&clockvar, "clock", host.DEFAULT_CLOCK_HZ,
		"Instructions executed per second",
	)
	flag.IntVar(
		&timervar, "timer", host.DEFAULT_TIMER_HZ,
		"Delay and sound timer rate in Hz",
	)
	flag.Int64Var(
		&seedvar, "seed", 0,
		"Seeds the random number generator. Zero seeds from the clock",
	)
	flag.StringVar(
		&quirksvar, "quirks", "",
		"Comma separated quirks to enable: subn, bcd, reseed or legacy for "+
			"all of them",
	)
	flag.StringVar(
		&keymapvar, "keymap", keyboard.DEFAULT_MAP,
		"Host keys for keypad keys 0 through F, in order",
	)
	flag.StringVar(
		&scriptvar, "script", "",
		"Lua file run against the machine after the program is loaded",
	)
}

func createLogger() *log.Logger {
	cfg := log.DefaultConfig()
	if verbosevar {
		cfg.Level = log.DebugLevel
	} else if quietvar {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

type emulator struct {
	name string
	rom  []byte

	machine *machine.Machine
	screen  *display.Screen
	keypad  *keyboard.Keypad
	runner  *host.Runner
	logger  *log.Logger

	sounding atomic.Bool
}

func newEmulator(path string, rom []byte, logger *log.Logger) (*emulator, error) {
	quirks, err := parseQuirks(quirksvar)

	if err != nil {
		return nil, err
	}

	emu := &emulator{
		name:   filepath.Base(path),
		rom:    rom,
		screen: display.New(),
		keypad: keyboard.New(),
		logger: logger,
	}

	if err := emu.keypad.SetMap(keymapvar); err != nil {
		return nil, fmt.Errorf("keymap %q: %w", keymapvar, err)
	}

	emu.machine = &machine.Machine{
		Devices: &machine.DeviceHandler{
			Display:  emu.screen,
			Keyboard: emu.keypad,
		},
		Quirks: quirks,
		Logger: logger,
	}

	if seedvar != 0 {
		emu.machine.Random = rand.New(rand.NewSource(seedvar))
	}

	if err := emu.reset(); err != nil {
		return nil, err
	}

	emu.runner = host.New(emu.machine, host.Config{
		ClockHz: clockvar,
		TimerHz: timervar,
	})
	emu.runner.Screen = emu.screen
	emu.runner.Logger = logger

	return emu, nil
}

// reset reloads the program. Callers must be on the runner goroutine once it
// has started.
func (emu *emulator) reset() error {
	emu.screen.Clear()
	emu.keypad.ReleaseAll()
	return emu.machine.LoadBin(bytes.NewReader(emu.rom))
}

func gochip8() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	if versionvar {
		fmt.Printf("gochip8 %s\n", buildinfo.Version(version, commit, date))
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}

	logger := createLogger()

	if debugvar && termvar {
		logger.Error("The debugger reads stdin and cannot share it with the terminal frontend")
		return 1
	}

	rom, err := os.ReadFile(args[0])

	if err != nil {
		logger.Error("Loading program failed", log.Err(err))
		return 1
	}

	emu, err := newEmulator(args[0], rom, logger)

	if err != nil {
		logger.Error("Loading program failed", log.Err(err))
		return 1
	}

	logger.Debug("Program loaded",
		log.String("name", emu.name),
		log.Int("size", len(rom)),
		log.Hex("entry", machine.MEMSPACE_PROGRAM))

	var parent context.Context
	if debugvar {
		// SIGINT breaks into the debugger instead of quitting
		parent = context.Background()
	} else {
		parent = app.Context()
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	if scriptvar != "" {
		var dbg debugger.Debugger
		if err := dbg.RunScriptFile(emu.machine, scriptvar); err != nil {
			logger.Error("Script failed", log.String("file", scriptvar), log.Err(err))
			return 1
		}
	}

	if !mutevar {
		if beep, err := newBeeper(); err == nil {
			defer beep.Close()
			emu.runner.OnSound = func(on bool) {
				emu.sounding.Store(on)
				beep.Set(on)
			}
		} else {
			logger.Warn("Audio unavailable, continuing muted", log.Err(err))
		}
	}

	if emu.runner.OnSound == nil {
		emu.runner.OnSound = emu.sounding.Store
	}

	if debugvar {
		dbg := newDebugger(emu, args[0], cancel)
		emu.machine.Debugger = dbg

		stop := emu.watchInterrupt(ctx, dbg)
		defer stop()

		// Nothing runs the machine yet, so the first session is ours
		debugREPL(dbg, emu.machine)
	}

	if termvar {
		emu.runner.OnFrame = emu.drawTerminal
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return emu.runner.Run(gctx)
	})

	if termvar {
		g.Go(func() error {
			defer cancel()
			return runTerminal(gctx, emu)
		})
	} else {
		if err := runWindow(gctx, emu); err != nil {
			logger.Error("Window failed", log.Err(err))
		}
		cancel()
	}

	if err := g.Wait(); err != nil {
		var fault *host.FaultError
		if errors.As(err, &fault) {
			logger.Error("Program faulted",
				log.Hex("pc", fault.PC),
				log.Err(fault.Fault))
		} else {
			logger.Error("Emulation stopped", log.Err(err))
		}
		return 1
	}

	return 0
}

func main() {
	flag.Parse()
	os.Exit(gochip8())
}
