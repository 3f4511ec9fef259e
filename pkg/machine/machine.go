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
	"fmt"
	"io"
	"math/rand"
	"time"
)

func (st *MachineState) Reset() {
	*st = MachineState{}

	// Glyphs live in the interpreter area so Fx29 can address them directly
	copy(st.Memory[MEMSPACE_GLYPHS:], GLYPHS[:])
}

// DecrementTimers applies one 60 Hz tick to the delay and sound timers.
func (st *MachineState) DecrementTimers() {
	if st.Registers.Delay > 0 {
		st.Registers.Delay--
	}

	if st.Registers.Sound > 0 {
		st.Registers.Sound--
	}
}

func (mc *Machine) Reset() {
	mc.State.Reset()

	if mc.Random == nil {
		mc.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// LoadBin resets the machine and copies a program image to MEMSPACE_PROGRAM.
func (mc *Machine) LoadBin(reader io.Reader) error {
	const capacity = MEMORY_SIZE - int(MEMSPACE_PROGRAM)

	program, err := io.ReadAll(io.LimitReader(reader, int64(capacity)+1))

	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}

	if len(program) > capacity {
		return fmt.Errorf("%w: limit is %d bytes", ErrProgramTooLarge, capacity)
	}

	mc.Reset()
	copy(mc.State.Memory[MEMSPACE_PROGRAM:], program)
	mc.State.Program = MEMSPACE_PROGRAM

	return nil
}

// Step fetches the word at PC, advances PC past it and executes it. If the
// instruction is interrupted PC is rewound so the next Step retries it.
func (mc *Machine) Step(ctx context.Context) error {
	program := mc.State.Program
	instruction := mc.State.Memory.GetWord(int(program))

	mc.State.Program += INSTRUCTION_LEN

	if err := mc.Execute(ctx, instruction); err != nil {
		mc.State.Program = program
		return err
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}
