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
	"errors"
	"fmt"
)

var (
	ErrProgramTooLarge = errors.New("program does not fit in memory")
	ErrNoKeyboard      = errors.New("no keyboard attached")
)

// Fault is raised with panic when the instruction stream breaks a memory or
// stack invariant. Out-of-range accesses are never clamped.
type Fault interface {
	error
	fault()
}

type MemoryFault struct {
	Addr int
}

func (f *MemoryFault) fault() {}

func (f *MemoryFault) Error() string {
	return fmt.Sprintf("memory access out of range: %#04x", f.Addr)
}

type StackFault struct {
	Pointer  byte
	Overflow bool
}

func (f *StackFault) fault() {}

func (f *StackFault) Error() string {
	if f.Overflow {
		return fmt.Sprintf("stack overflow: sp=%d", f.Pointer)
	}
	return fmt.Sprintf("stack underflow: sp=%d", f.Pointer)
}

// AsFault converts a value recovered from a panic into a Fault. Any other
// panic value is reported as not being a fault.
func AsFault(recovered any) (Fault, bool) {
	err, ok := recovered.(error)
	if !ok {
		return nil, false
	}

	var fault Fault
	if errors.As(err, &fault) {
		return fault, true
	}

	return nil, false
}
