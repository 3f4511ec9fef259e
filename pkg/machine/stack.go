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

// Push increments the stack pointer and then stores value. The pointer starts
// at zero, so slot 0 is never written and at most STACK_DEPTH-1 return
// addresses fit.
func (st *MachineState) Push(value uint16) {
	if int(st.Registers.Stack)+1 >= STACK_DEPTH {
		panic(&StackFault{Pointer: st.Registers.Stack, Overflow: true})
	}

	st.Registers.Stack++
	st.Stack[st.Registers.Stack] = value
}

// Pop reads the top of the stack and then decrements the stack pointer.
func (st *MachineState) Pop() uint16 {
	if st.Registers.Stack == 0 || int(st.Registers.Stack) >= STACK_DEPTH {
		panic(&StackFault{Pointer: st.Registers.Stack})
	}

	value := st.Stack[st.Registers.Stack]
	st.Registers.Stack--
	return value
}
