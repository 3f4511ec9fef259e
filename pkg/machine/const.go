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

const (
	MEMORY_SIZE     = 4096
	REGISTER_COUNT  = 16
	STACK_DEPTH     = 16
	KEY_COUNT       = 16
	GLYPH_HEIGHT    = 5
	INSTRUCTION_LEN = 2
)

// VF is written by the carry, borrow, shift and collision instructions
const REG_VF = 0xF

const (
	MEMSPACE_GLYPHS   uint16 = 0x000
	MEMSPACE_RESERVED uint16 = 0x050
	MEMSPACE_PROGRAM  uint16 = 0x200
	MEMSPACE_END      uint16 = 0xFFF
)

// Opcode families, selected by the top nibble of an instruction word
const (
	OP_SYS  uint16 = 0x0
	OP_JP   uint16 = 0x1
	OP_CALL uint16 = 0x2
	OP_SE   uint16 = 0x3
	OP_SNE  uint16 = 0x4
	OP_SER  uint16 = 0x5
	OP_LD   uint16 = 0x6
	OP_ADD  uint16 = 0x7
	OP_ALU  uint16 = 0x8
	OP_SNER uint16 = 0x9
	OP_LDI  uint16 = 0xA
	OP_JPV0 uint16 = 0xB
	OP_RND  uint16 = 0xC
	OP_DRW  uint16 = 0xD
	OP_KEY  uint16 = 0xE
	OP_MISC uint16 = 0xF
)

// Exact words in the 0x0 family
const (
	SYS_CLS uint16 = 0x00E0
	SYS_RET uint16 = 0x00EE
)

// Low nibble of the 0x8 family
const (
	ALU_LD   byte = 0x0
	ALU_OR   byte = 0x1
	ALU_AND  byte = 0x2
	ALU_XOR  byte = 0x3
	ALU_ADD  byte = 0x4
	ALU_SUB  byte = 0x5
	ALU_SHR  byte = 0x6
	ALU_SUBN byte = 0x7
	ALU_SHL  byte = 0xE
)

// Low byte of the 0xE family
const (
	KEY_SKP  byte = 0x9E
	KEY_SKNP byte = 0xA1
)

// Low byte of the 0xF family
const (
	MISC_LD_VX_DT byte = 0x07
	MISC_LD_VX_K  byte = 0x0A
	MISC_LD_DT_VX byte = 0x15
	MISC_LD_ST_VX byte = 0x18
	MISC_ADD_I_VX byte = 0x1E
	MISC_LD_F_VX  byte = 0x29
	MISC_LD_B_VX  byte = 0x33
	MISC_LD_I_VX  byte = 0x55
	MISC_LD_VX_I  byte = 0x65
)

// Hexadecimal digit sprites 0-F, 8x5 pixels, MSB first
var GLYPHS = [16 * GLYPH_HEIGHT]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}
