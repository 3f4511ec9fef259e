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

package machine_test

import (
	"context"
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

func expectFault(t *testing.T, fn func()) (fault machine.Fault) {
	t.Helper()

	defer func() {
		recovered := recover()
		assert.NotNil(t, recovered)

		var ok bool
		fault, ok = machine.AsFault(recovered)
		assert.True(t, ok)
	}()

	fn()
	return nil
}

func TestMemoryRoundTrip(t *testing.T) {
	var mem machine.Memory

	for _, addr := range []int{0, 0x200, 0xFFF} {
		mem.Set(addr, 0xAB)
		assert.Equal(t, byte(0xAB), mem.Get(addr))
	}

	mem.Set(0x300, 0x12)
	mem.Set(0x301, 0x34)
	assert.Equal(t, uint16(0x1234), mem.GetWord(0x300))
}

func TestMemoryOutOfRange(t *testing.T) {
	var mem machine.Memory

	for _, addr := range []int{-1, machine.MEMORY_SIZE, 0x2000} {
		fault := expectFault(t, func() { mem.Get(addr) })
		memFault, ok := fault.(*machine.MemoryFault)
		assert.True(t, ok)
		assert.Equal(t, addr, memFault.Addr)
	}

	expectFault(t, func() { mem.Set(machine.MEMORY_SIZE, 1) })

	// Second byte of the word falls off the end
	expectFault(t, func() { mem.GetWord(0xFFF) })
}

func TestGlyphTable(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	zero := []byte{0xF0, 0x90, 0x90, 0x90, 0xF0}
	for i, want := range zero {
		assert.Equal(t, want, mc.State.Memory[int(machine.MEMSPACE_GLYPHS)+i])
	}

	for i := range machine.GLYPHS {
		assert.Equal(t, machine.GLYPHS[i], mc.State.Memory[i])
	}

	assert.Equal(t, byte(0), mc.State.Memory[len(machine.GLYPHS)])
}

func TestResetClearsState(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	mc.State.V[3] = 9
	mc.State.I = 0x300
	mc.State.Delay = 4
	mc.State.Memory[0x400] = 0x77
	mc.State.Push(0x202)

	mc.Reset()

	assert.Equal(t, byte(0), mc.State.V[3])
	assert.Equal(t, uint16(0), mc.State.I)
	assert.Equal(t, byte(0), mc.State.Delay)
	assert.Equal(t, byte(0), mc.State.Registers.Stack)
	assert.Equal(t, byte(0), mc.State.Memory[0x400])
	assert.Equal(t, machine.GLYPHS[0], mc.State.Memory[0])
}

func TestStackPushPop(t *testing.T) {
	var st machine.MachineState

	st.Push(0x202)
	st.Push(0x304)

	assert.Equal(t, byte(2), st.Registers.Stack)
	assert.Equal(t, uint16(0), st.Stack[0])
	assert.Equal(t, uint16(0x304), st.Pop())
	assert.Equal(t, uint16(0x202), st.Pop())
	assert.Equal(t, byte(0), st.Registers.Stack)
}

func TestStackOverflow(t *testing.T) {
	var st machine.MachineState

	for i := 0; i < machine.STACK_DEPTH-1; i++ {
		st.Push(uint16(0x200 + i*2))
	}

	assert.Equal(t, byte(machine.STACK_DEPTH-1), st.Registers.Stack)

	fault := expectFault(t, func() { st.Push(0x400) })
	stackFault, ok := fault.(*machine.StackFault)
	assert.True(t, ok)
	assert.True(t, stackFault.Overflow)

	// The failed push leaves the stack untouched
	assert.Equal(t, byte(machine.STACK_DEPTH-1), st.Registers.Stack)
}

func TestStackUnderflow(t *testing.T) {
	var st machine.MachineState

	fault := expectFault(t, func() { st.Pop() })
	stackFault, ok := fault.(*machine.StackFault)
	assert.True(t, ok)
	assert.False(t, stackFault.Overflow)
}

func TestCallOverflow(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	for i := 0; i < machine.STACK_DEPTH-1; i++ {
		assert.NoError(t, mc.Execute(context.Background(), 0x2300))
	}

	expectFault(t, func() { _ = mc.Execute(context.Background(), 0x2300) })
}

func TestReturnUnderflow(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	expectFault(t, func() { _ = mc.Execute(context.Background(), 0x00EE) })
}

func TestStoreOutOfRange(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	mc.State.I = 0xFFE

	fault := expectFault(t, func() { _ = mc.Execute(context.Background(), 0xF255) })
	memFault, ok := fault.(*machine.MemoryFault)
	assert.True(t, ok)
	assert.Equal(t, 0x1000, memFault.Addr)
}

func TestFetchOutOfRange(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	mc.State.Program = 0xFFF
	expectFault(t, func() { _ = mc.Step(context.Background()) })
}

func TestAsFault(t *testing.T) {
	_, ok := machine.AsFault("not a fault")
	assert.False(t, ok)

	_, ok = machine.AsFault(nil)
	assert.False(t, ok)

	fault, ok := machine.AsFault(&machine.StackFault{Pointer: 15, Overflow: true})
	assert.True(t, ok)
	assert.Equal(t, "stack overflow: sp=15", fault.Error())
}

func TestDecode(t *testing.T) {
	in := machine.Decode(0xD12F)

	assert.Equal(t, uint16(0xD), in.Family())
	assert.Equal(t, uint16(0x12F), in.NNN)
	assert.Equal(t, byte(0x1), in.X)
	assert.Equal(t, byte(0x2), in.Y)
	assert.Equal(t, byte(0xF), in.N)
	assert.Equal(t, byte(0x2F), in.KK)
}

type testDebugger struct {
	Steps  int
	Reads  []uint16
	Writes []uint16
}

func (d *testDebugger) Step(mc *machine.Machine) {
	d.Steps++
}

func (d *testDebugger) Read(addr uint16, mc *machine.Machine) {
	d.Reads = append(d.Reads, addr)
}

func (d *testDebugger) Write(addr uint16, mc *machine.Machine) {
	d.Writes = append(d.Writes, addr)
}

func TestDebuggerHooks(t *testing.T) {
	var mc machine.Machine
	var dbg testDebugger

	mc.Debugger = &dbg
	mc.Reset()

	mc.State.Program = 0x200
	mc.State.I = 0x300
	copy(mc.State.Memory[0x200:], []byte{0xF1, 0x55, 0xF0, 0x65})

	assert.NoError(t, mc.Step(context.Background()))
	assert.NoError(t, mc.Step(context.Background()))

	assert.Equal(t, 2, dbg.Steps)
	assert.Equal(t, []uint16{0x300, 0x301}, dbg.Writes)

	// Fetches are not reported as reads
	assert.Equal(t, []uint16{0x300}, dbg.Reads)
}
