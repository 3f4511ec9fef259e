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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/lassandro/gochip8/pkg/display"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

// Terminals report key presses but never releases, so a key stays down for
// KEY_HOLD after the last byte that named it. Auto-repeat keeps it held.
const KEY_HOLD = 150 * time.Millisecond

const keyEscape = 0x1B

var errNotTerminal = errors.New("stdin is not a terminal")

func runTerminal(ctx context.Context, emu *emulator) error {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return errNotTerminal
	}

	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if width < display.WIDTH || height < display.HEIGHT/2+1 {
			emu.logger.Warn("Terminal is smaller than the display",
				log.Int("columns", width),
				log.Int("rows", height))
		}
	}

	if err := enterRawTerm(); err != nil {
		return err
	}

	defer exitRawTerm()

	fmt.Print("\033[?25l\033[H\033[2J")
	defer fmt.Print("\033[?25h\n")

	holds := make(map[rune]*time.Timer)
	defer func() {
		for _, timer := range holds {
			timer.Stop()
		}
	}()

	buf := make([]byte, 16)

	for ctx.Err() == nil {
		n, err := os.Stdin.Read(buf)

		// A timed out read reports EOF
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		// A lone escape quits; longer sequences are cursor keys
		if n == 1 && buf[0] == keyEscape {
			return nil
		}

		for _, b := range buf[:n] {
			r := unicode.ToLower(rune(b))

			if !emu.keypad.Press(r) {
				continue
			}

			if timer, ok := holds[r]; ok {
				timer.Reset(KEY_HOLD)
			} else {
				holds[r] = time.AfterFunc(KEY_HOLD, func() {
					emu.keypad.Release(r)
				})
			}
		}
	}

	return nil
}

// drawTerminal redraws the whole display from the home position.
func (emu *emulator) drawTerminal() {
	var sb strings.Builder

	sb.WriteString("\033[H")
	sb.WriteString(emu.screen.String())

	status := emu.name
	if emu.sounding.Load() {
		status += "  BEEP"
	}
	sb.WriteString("\033[2K")
	sb.WriteString(status)
	sb.WriteString("  (esc to quit)")

	os.Stdout.WriteString(sb.String())
}
