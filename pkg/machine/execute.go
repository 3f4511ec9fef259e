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
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

type handler func(mc *Machine, ctx context.Context, in Instruction) error

// Top nibble dispatch. Every family has an entry; families with a second
// level look the low nibble or low byte up in their own table.
var families = [16]handler{
	OP_SYS:  (*Machine).execSys,
	OP_JP:   (*Machine).execJump,
	OP_CALL: (*Machine).execCall,
	OP_SE:   (*Machine).execSkipEqualByte,
	OP_SNE:  (*Machine).execSkipNotEqualByte,
	OP_SER:  (*Machine).execSkipEqualReg,
	OP_LD:   (*Machine).execLoadByte,
	OP_ADD:  (*Machine).execAddByte,
	OP_ALU:  (*Machine).execALU,
	OP_SNER: (*Machine).execSkipNotEqualReg,
	OP_LDI:  (*Machine).execLoadI,
	OP_JPV0: (*Machine).execJumpV0,
	OP_RND:  (*Machine).execRandom,
	OP_DRW:  (*Machine).execDraw,
	OP_KEY:  (*Machine).execKey,
	OP_MISC: (*Machine).execMisc,
}

var aluOps = map[byte]func(mc *Machine, in Instruction){
	ALU_LD:   (*Machine).aluLoad,
	ALU_OR:   (*Machine).aluOr,
	ALU_AND:  (*Machine).aluAnd,
	ALU_XOR:  (*Machine).aluXor,
	ALU_ADD:  (*Machine).aluAdd,
	ALU_SUB:  (*Machine).aluSub,
	ALU_SHR:  (*Machine).aluShiftRight,
	ALU_SUBN: (*Machine).aluSubN,
	ALU_SHL:  (*Machine).aluShiftLeft,
}

var keyOps = map[byte]func(mc *Machine, in Instruction){
	KEY_SKP:  (*Machine).keySkipPressed,
	KEY_SKNP: (*Machine).keySkipNotPressed,
}

var miscOps = map[byte]handler{
	MISC_LD_VX_DT: (*Machine).miscLoadDelay,
	MISC_LD_VX_K:  (*Machine).miscAwaitKey,
	MISC_LD_DT_VX: (*Machine).miscSetDelay,
	MISC_LD_ST_VX: (*Machine).miscSetSound,
	MISC_ADD_I_VX: (*Machine).miscAddI,
	MISC_LD_F_VX:  (*Machine).miscGlyph,
	MISC_LD_B_VX:  (*Machine).miscBCD,
	MISC_LD_I_VX:  (*Machine).miscStoreRegisters,
	MISC_LD_VX_I:  (*Machine).miscLoadRegisters,
}

// Execute applies one instruction word to the machine state. PC must already
// point past the instruction. Unrecognized words are ignored.
//
// The returned error is only ever set by Fx0A, when the key wait is cancelled
// or no keyboard is attached. Memory and stack violations panic with a Fault.
func (mc *Machine) Execute(ctx context.Context, instruction uint16) error {
	in := Decode(instruction)
	return families[in.Family()](mc, ctx, in)
}

// Recognized reports whether Execute gives word any effect.
func Recognized(word uint16) bool {
	in := Decode(word)

	switch in.Family() {
	case OP_SYS:
		return word == SYS_CLS || word == SYS_RET
	case OP_ALU:
		_, ok := aluOps[in.N]
		return ok
	case OP_KEY:
		_, ok := keyOps[in.KK]
		return ok
	case OP_MISC:
		_, ok := miscOps[in.KK]
		return ok
	}

	return true
}

func (mc *Machine) ignore(in Instruction) {
	if mc.Logger != nil {
		mc.Logger.Debug("Ignoring unrecognized instruction",
			log.Hex("opcode", in.Word),
			log.Hex("address", mc.State.Program-INSTRUCTION_LEN))
	}
}

func (mc *Machine) skipIf(cond bool) {
	if cond {
		mc.State.Program += INSTRUCTION_LEN
	}
}

func flag(cond bool) byte {
	if cond {
		return 1
	}
	return 0
}

// CLS  |0000    |0000   |1110   |0000   | Clear display
// RET  |0000    |0000   |1110   |1110   | Return from subroutine
// SYS  |0000    |nnn                    | Ignored
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execSys(_ context.Context, in Instruction) error {
	switch in.Word {
	case SYS_CLS:
		if mc.Devices != nil && mc.Devices.Display != nil {
			mc.Devices.Display.Clear()
		}

	case SYS_RET:
		mc.State.Program = mc.State.Pop()

	default:
		mc.ignore(in)
	}

	return nil
}

// JP   |0001    |nnn                    | Jump
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execJump(_ context.Context, in Instruction) error {
	mc.State.Program = in.NNN
	return nil
}

// CALL |0010    |nnn                    | Call subroutine
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execCall(_ context.Context, in Instruction) error {
	mc.State.Push(mc.State.Program)
	mc.State.Program = in.NNN
	return nil
}

// SE   |0011    |x      |kk             | Skip if Vx == kk
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execSkipEqualByte(_ context.Context, in Instruction) error {
	mc.skipIf(mc.State.V[in.X] == in.KK)
	return nil
}

// SNE  |0100    |x      |kk             | Skip if Vx != kk
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execSkipNotEqualByte(_ context.Context, in Instruction) error {
	mc.skipIf(mc.State.V[in.X] != in.KK)
	return nil
}

// SE   |0101    |x      |y      |0000   | Skip if Vx == Vy
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execSkipEqualReg(_ context.Context, in Instruction) error {
	mc.skipIf(mc.State.V[in.X] == mc.State.V[in.Y])
	return nil
}

// LD   |0110    |x      |kk             | Vx = kk
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execLoadByte(_ context.Context, in Instruction) error {
	mc.State.V[in.X] = in.KK
	return nil
}

// ADD  |0111    |x      |kk             | Vx += kk, no carry
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execAddByte(_ context.Context, in Instruction) error {
	mc.State.V[in.X] += in.KK
	return nil
}

// ALU  |1000    |x      |y      |op     | Register arithmetic
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execALU(_ context.Context, in Instruction) error {
	if op, ok := aluOps[in.N]; ok {
		op(mc, in)
	} else {
		mc.ignore(in)
	}
	return nil
}

func (mc *Machine) aluLoad(in Instruction) {
	mc.State.V[in.X] = mc.State.V[in.Y]
}

func (mc *Machine) aluOr(in Instruction) {
	mc.State.V[in.X] |= mc.State.V[in.Y]
}

func (mc *Machine) aluAnd(in Instruction) {
	mc.State.V[in.X] &= mc.State.V[in.Y]
}

func (mc *Machine) aluXor(in Instruction) {
	mc.State.V[in.X] ^= mc.State.V[in.Y]
}

func (mc *Machine) aluAdd(in Instruction) {
	sum := uint16(mc.State.V[in.X]) + uint16(mc.State.V[in.Y])
	mc.State.V[REG_VF] = flag(sum > 0xFF)
	mc.State.V[in.X] = byte(sum)
}

// VF is set before the subtraction, so SUB VF, Vy subtracts from the flag
func (mc *Machine) aluSub(in Instruction) {
	mc.State.V[REG_VF] = flag(mc.State.V[in.X] > mc.State.V[in.Y])
	mc.State.V[in.X] -= mc.State.V[in.Y]
}

// VF receives bit 0 of Vx
func (mc *Machine) aluShiftRight(in Instruction) {
	mc.State.V[REG_VF] = mc.State.V[in.X] & 0x01
	mc.State.V[in.X] /= 2
}

func (mc *Machine) aluSubN(in Instruction) {
	if mc.Quirks.LegacySubn {
		mc.State.V[in.X] = flag(mc.State.V[in.Y] > mc.State.V[in.X])
		mc.State.V[in.X] = mc.State.V[in.Y] - mc.State.V[in.X]
		return
	}

	borrow := flag(mc.State.V[in.Y] > mc.State.V[in.X])
	result := mc.State.V[in.Y] - mc.State.V[in.X]
	mc.State.V[REG_VF] = borrow
	mc.State.V[in.X] = result
}

// VF receives bit 7 of Vx in place, 0x00 or 0x80
func (mc *Machine) aluShiftLeft(in Instruction) {
	mc.State.V[REG_VF] = mc.State.V[in.X] & 0x80
	mc.State.V[in.X] *= 2
}

// SNE  |1001    |x      |y      |0000   | Skip if Vx != Vy
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execSkipNotEqualReg(_ context.Context, in Instruction) error {
	mc.skipIf(mc.State.V[in.X] != mc.State.V[in.Y])
	return nil
}

// LD   |1010    |nnn                    | I = nnn
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execLoadI(_ context.Context, in Instruction) error {
	mc.State.I = in.NNN
	return nil
}

// JP   |1011    |nnn                    | Jump to nnn + V0
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execJumpV0(_ context.Context, in Instruction) error {
	mc.State.Program = in.NNN + uint16(mc.State.V[0x0])
	return nil
}

// RND  |1100    |x      |kk             | Vx = random & kk
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execRandom(_ context.Context, in Instruction) error {
	mc.State.V[in.X] = mc.random() & in.KK
	return nil
}

// random returns a value in 0..254
func (mc *Machine) random() byte {
	if mc.Quirks.ReseedRandom {
		return byte(rand.New(rand.NewSource(time.Now().UnixNano())).Intn(0xFF))
	}

	if mc.Random == nil {
		mc.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return byte(mc.Random.Intn(0xFF))
}

// DRW  |1101    |x      |y      |n      | Draw n rows from I at (Vx, Vy)
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execDraw(_ context.Context, in Instruction) error {
	var buf [0xF]byte
	sprite := buf[:in.N]

	for row := range sprite {
		sprite[row] = mc.read(int(mc.State.I) + row)
	}

	collision := false
	if mc.Devices != nil && mc.Devices.Display != nil {
		collision = mc.Devices.Display.DrawSprite(
			mc.State.V[in.X], mc.State.V[in.Y], sprite,
		)
	}

	mc.State.V[REG_VF] = flag(collision)
	return nil
}

// SKP  |1110    |x      |1001 1110      | Skip if key Vx is down
// SKNP |1110    |x      |1010 0001      | Skip if key Vx is up
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execKey(_ context.Context, in Instruction) error {
	if op, ok := keyOps[in.KK]; ok {
		op(mc, in)
	} else {
		mc.ignore(in)
	}
	return nil
}

func (mc *Machine) keyDown(key byte) bool {
	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return false
	}
	return mc.Devices.Keyboard.IsDown(key)
}

func (mc *Machine) keySkipPressed(in Instruction) {
	mc.skipIf(mc.keyDown(mc.State.V[in.X]))
}

func (mc *Machine) keySkipNotPressed(in Instruction) {
	mc.skipIf(!mc.keyDown(mc.State.V[in.X]))
}

// MISC |1111    |x      |op             | Timers, keys, I and memory
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) execMisc(ctx context.Context, in Instruction) error {
	if op, ok := miscOps[in.KK]; ok {
		return op(mc, ctx, in)
	}

	mc.ignore(in)
	return nil
}

func (mc *Machine) miscLoadDelay(_ context.Context, in Instruction) error {
	mc.State.V[in.X] = mc.State.Delay
	return nil
}

// The only instruction that blocks
func (mc *Machine) miscAwaitKey(ctx context.Context, in Instruction) error {
	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return ErrNoKeyboard
	}

	key, err := mc.Devices.Keyboard.AwaitKey(ctx)

	if err != nil {
		return fmt.Errorf("waiting for key press: %w", err)
	}

	mc.State.V[in.X] = key
	return nil
}

func (mc *Machine) miscSetDelay(_ context.Context, in Instruction) error {
	mc.State.Delay = mc.State.V[in.X]
	return nil
}

func (mc *Machine) miscSetSound(_ context.Context, in Instruction) error {
	mc.State.Sound = mc.State.V[in.X]
	return nil
}

func (mc *Machine) miscAddI(_ context.Context, in Instruction) error {
	mc.State.I += uint16(mc.State.V[in.X])
	return nil
}

func (mc *Machine) miscGlyph(_ context.Context, in Instruction) error {
	mc.State.I = MEMSPACE_GLYPHS + uint16(mc.State.V[in.X])*GLYPH_HEIGHT
	return nil
}

func (mc *Machine) miscBCD(ctx context.Context, in Instruction) error {
	value := mc.State.V[in.X]
	addr := int(mc.State.I)

	mc.write(addr, value/100)
	mc.write(addr+1, value/10%10)
	mc.write(addr+2, value%10)

	if mc.Quirks.BCDFallthrough {
		return mc.miscStoreRegisters(ctx, in)
	}

	return nil
}

func (mc *Machine) miscStoreRegisters(_ context.Context, in Instruction) error {
	for i := 0; i <= int(in.X); i++ {
		mc.write(int(mc.State.I)+i, mc.State.V[i])
	}
	return nil
}

func (mc *Machine) miscLoadRegisters(_ context.Context, in Instruction) error {
	for i := 0; i <= int(in.X); i++ {
		mc.State.V[i] = mc.read(int(mc.State.I) + i)
	}
	return nil
}
