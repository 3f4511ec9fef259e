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

// Package disasm renders instruction words in the syntax accepted by the
// assembler.
package disasm

import (
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

type Line struct {
	Address uint16
	Word    uint16
	Text    string
	Known   bool
}

// lookup finds the table entry whose mask matches word.
func lookup(word uint16) *chip8.Instruction {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Info.Mask&word == op.Info.Value {
			return op.Instruction
		}
	}
	return nil
}

// Disassemble returns the mnemonic form of word. Words the machine ignores,
// or that only execute through a non-canonical encoding, come back as a
// .WORD directive and false.
func Disassemble(word uint16) (string, bool) {
	ins := lookup(word)

	if ins == nil || !machine.Recognized(word) {
		return fmt.Sprintf(".WORD $%04X", word), false
	}

	name := strings.ToUpper(ins.Name)
	operands := formatOperands(machine.Decode(word))

	if operands == "" {
		return name, true
	}

	return name + " " + operands, true
}

func formatOperands(in machine.Instruction) string {
	switch in.Family() {
	case machine.OP_SYS:
		return ""

	case machine.OP_JP, machine.OP_CALL:
		return fmt.Sprintf("$%03X", in.NNN)

	case machine.OP_SE, machine.OP_SNE, machine.OP_LD, machine.OP_ADD, machine.OP_RND:
		return fmt.Sprintf("V%X, $%02X", in.X, in.KK)

	case machine.OP_SER, machine.OP_SNER:
		return fmt.Sprintf("V%X, V%X", in.X, in.Y)

	case machine.OP_ALU:
		if in.N == machine.ALU_SHR || in.N == machine.ALU_SHL {
			if in.Y == 0 {
				return fmt.Sprintf("V%X", in.X)
			}
		}
		return fmt.Sprintf("V%X, V%X", in.X, in.Y)

	case machine.OP_LDI:
		return fmt.Sprintf("I, $%03X", in.NNN)

	case machine.OP_JPV0:
		return fmt.Sprintf("V0, $%03X", in.NNN)

	case machine.OP_DRW:
		return fmt.Sprintf("V%X, V%X, %d", in.X, in.Y, in.N)

	case machine.OP_KEY:
		return fmt.Sprintf("V%X", in.X)

	case machine.OP_MISC:
		return formatMisc(in)
	}

	return ""
}

func formatMisc(in machine.Instruction) string {
	switch in.KK {
	case machine.MISC_LD_VX_DT:
		return fmt.Sprintf("V%X, DT", in.X)
	case machine.MISC_LD_VX_K:
		return fmt.Sprintf("V%X, K", in.X)
	case machine.MISC_LD_DT_VX:
		return fmt.Sprintf("DT, V%X", in.X)
	case machine.MISC_LD_ST_VX:
		return fmt.Sprintf("ST, V%X", in.X)
	case machine.MISC_ADD_I_VX:
		return fmt.Sprintf("I, V%X", in.X)
	case machine.MISC_LD_F_VX:
		return fmt.Sprintf("F, V%X", in.X)
	case machine.MISC_LD_B_VX:
		return fmt.Sprintf("B, V%X", in.X)
	case machine.MISC_LD_I_VX:
		return fmt.Sprintf("[I], V%X", in.X)
	case machine.MISC_LD_VX_I:
		return fmt.Sprintf("V%X, [I]", in.X)
	}
	return ""
}

// Program disassembles mem word by word, labelling addresses from origin.
// A trailing odd byte is emitted as a .BYTE directive.
func Program(mem []byte, origin uint16) []Line {
	lines := make([]Line, 0, len(mem)/2+1)

	for i := 0; i < len(mem); i += machine.INSTRUCTION_LEN {
		addr := origin + uint16(i)

		if i+1 >= len(mem) {
			lines = append(lines, Line{
				Address: addr,
				Word:    uint16(mem[i]),
				Text:    fmt.Sprintf(".BYTE $%02X", mem[i]),
			})
			break
		}

		word := encoding.Word(mem[i], mem[i+1])
		text, known := Disassemble(word)

		lines = append(lines, Line{
			Address: addr,
			Word:    word,
			Text:    text,
			Known:   known,
		})
	}

	return lines
}

func (l Line) String() string {
	return fmt.Sprintf("%#04x  %04X  %s", l.Address, l.Word, l.Text)
}
