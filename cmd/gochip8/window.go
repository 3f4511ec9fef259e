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
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/lassandro/gochip8/pkg/display"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/font/basicfont"
)

const (
	WINDOW_SCALE  = 10
	STATUS_HEIGHT = 18
)

var (
	colorOn     = color.RGBA{0xE8, 0xE8, 0xE8, 0xFF}
	colorOff    = color.RGBA{0x14, 0x14, 0x14, 0xFF}
	colorStatus = color.RGBA{0x80, 0x80, 0x80, 0xFF}
)

// Host keys the window can forward to the keypad, named by the rune a key
// map uses for them.
var hostKeys = []struct {
	r   rune
	key ebiten.Key
}{
	{'0', ebiten.Key0}, {'1', ebiten.Key1}, {'2', ebiten.Key2},
	{'3', ebiten.Key3}, {'4', ebiten.Key4}, {'5', ebiten.Key5},
	{'6', ebiten.Key6}, {'7', ebiten.Key7}, {'8', ebiten.Key8},
	{'9', ebiten.Key9},
	{'a', ebiten.KeyA}, {'b', ebiten.KeyB}, {'c', ebiten.KeyC},
	{'d', ebiten.KeyD}, {'e', ebiten.KeyE}, {'f', ebiten.KeyF},
	{'g', ebiten.KeyG}, {'h', ebiten.KeyH}, {'i', ebiten.KeyI},
	{'j', ebiten.KeyJ}, {'k', ebiten.KeyK}, {'l', ebiten.KeyL},
	{'m', ebiten.KeyM}, {'n', ebiten.KeyN}, {'o', ebiten.KeyO},
	{'p', ebiten.KeyP}, {'q', ebiten.KeyQ}, {'r', ebiten.KeyR},
	{'s', ebiten.KeyS}, {'t', ebiten.KeyT}, {'u', ebiten.KeyU},
	{'v', ebiten.KeyV}, {'w', ebiten.KeyW}, {'x', ebiten.KeyX},
	{'y', ebiten.KeyY}, {'z', ebiten.KeyZ},
}

type window struct {
	ctx   context.Context
	emu   *emulator
	frame *ebiten.Image
}

// runWindow blocks on the main goroutine until the window closes or ctx is
// done.
func runWindow(ctx context.Context, emu *emulator) error {
	width, height := windowSize()

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("gochip8 - " + emu.name)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	return ebiten.RunGame(&window{ctx: ctx, emu: emu})
}

func windowSize() (int, int) {
	return display.WIDTH * WINDOW_SCALE, display.HEIGHT*WINDOW_SCALE + STATUS_HEIGHT
}

func (w *window) Update() error {
	if ebiten.IsWindowBeingClosed() || w.ctx.Err() != nil {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for _, hk := range hostKeys {
		if inpututil.IsKeyJustPressed(hk.key) {
			w.emu.keypad.Press(hk.r)
		} else if inpututil.IsKeyJustReleased(hk.key) {
			w.emu.keypad.Release(hk.r)
		}
	}

	runner := w.emu.runner

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if runner.Paused() {
			runner.Resume()
		} else {
			runner.Pause()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF6) {
		runner.StepOnce()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF7) {
		// Do blocks until the next runner iteration
		go func() {
			err := runner.Do(w.ctx, func(*machine.Machine) {
				if err := w.emu.reset(); err != nil {
					w.emu.logger.Error("Reset failed", log.Err(err))
				}
			})
			if err != nil {
				w.emu.logger.Debug("Reset skipped", log.Err(err))
			}
		}()
	}

	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	if w.frame == nil {
		w.frame = ebiten.NewImage(display.WIDTH, display.HEIGHT)
	}

	w.frame.WritePixels(w.emu.screen.RGBA(colorOn, colorOff).Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(WINDOW_SCALE, WINDOW_SCALE)
	screen.DrawImage(w.frame, op)

	text.Draw(
		screen,
		w.status(),
		basicfont.Face7x13,
		4,
		display.HEIGHT*WINDOW_SCALE+13,
		colorStatus,
	)
}

func (w *window) status() string {
	parts := []string{w.emu.name}

	if w.emu.runner.Paused() {
		parts = append(parts, "PAUSED")
	}

	if w.emu.sounding.Load() {
		parts = append(parts, "BEEP")
	}

	parts = append(parts, "F5 pause  F6 step  F7 reset  Esc quit")

	return strings.Join(parts, "  |  ")
}

func (w *window) Layout(_, _ int) (int, int) {
	return windowSize()
}
