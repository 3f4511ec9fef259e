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

package machine

import (
	"context"
	"math/rand"

	"github.com/retroenv/retrogolib/log"
)

// Display receives sprite blits and owns the framebuffer.
type Display interface {
	Clear()

	// DrawSprite XORs sprite rows onto the framebuffer at (x, y), wrapping at
	// the screen edges. It reports whether any set pixel was cleared.
	DrawSprite(x, y byte, sprite []byte) bool
}

// Keyboard exposes the 16-key hexadecimal keypad.
type Keyboard interface {
	IsDown(key byte) bool

	// AwaitKey blocks until a key is pressed or ctx is done.
	AwaitKey(ctx context.Context) (byte, error)
}

type DeviceHandler struct {
	Display  Display
	Keyboard Keyboard
}

type Registers struct {
	V       [REGISTER_COUNT]byte
	I       uint16
	Delay   byte
	Sound   byte
	Program uint16
	Stack   byte
}

type MachineState struct {
	Registers
	Stack  [STACK_DEPTH]uint16
	Memory Memory
}

// Quirks re-enable behaviour of the interpreter this engine replaces. The
// zero value selects the corrected semantics.
type Quirks struct {
	// 8xy7 writes the borrow flag into Vx and subtracts that flag from Vy.
	LegacySubn bool

	// Fx33 continues into the Fx55 register dump after storing BCD digits.
	BCDFallthrough bool

	// Cxkk reseeds a generator from the wall clock on every call.
	ReseedRandom bool
}

// LegacyQuirks reproduces the original interpreter bit for bit.
var LegacyQuirks = Quirks{
	LegacySubn:     true,
	BCDFallthrough: true,
	ReseedRandom:   true,
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger
	Quirks   Quirks

	// Random backs Cxkk. Reset seeds one from the clock when nil.
	Random *rand.Rand

	Logger *log.Logger
}
