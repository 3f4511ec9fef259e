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
	"github.com/lassandro/gochip8/pkg/encoding"
)

// Memory is the 4KB address space. All accessors panic with *MemoryFault on
// an out-of-range index.
type Memory [MEMORY_SIZE]byte

func checkAddr(index int) {
	if index < 0 || index >= MEMORY_SIZE {
		panic(&MemoryFault{Addr: index})
	}
}

func (m *Memory) Get(index int) byte {
	checkAddr(index)
	return m[index]
}

func (m *Memory) Set(index int, value byte) {
	checkAddr(index)
	m[index] = value
}

// GetWord reads the big-endian word at index and index+1.
func (m *Memory) GetWord(index int) uint16 {
	hi := m.Get(index)
	lo := m.Get(index + 1)
	return encoding.Word(hi, lo)
}

func (mc *Machine) read(addr int) byte {
	value := mc.State.Memory.Get(addr)

	if mc.Debugger != nil {
		mc.Debugger.Read(uint16(addr), mc)
	}

	return value
}

func (mc *Machine) write(addr int, value byte) {
	mc.State.Memory.Set(addr, value)

	if mc.Debugger != nil {
		mc.Debugger.Write(uint16(addr), mc)
	}
}
