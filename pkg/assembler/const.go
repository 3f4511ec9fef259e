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

package assembler

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_LABEL
	TOKEN_DIRECTIVE
	TOKEN_STRING
	TOKEN_LITERAL
)

const (
	LITERAL_NIBBLE  LiteralType = 4
	LITERAL_BYTE                = 8
	LITERAL_ADDRESS             = 12
	LITERAL_WORD                = 16
)

const (
	OPERAND_INVALID OperandType = iota
	OPERAND_REGISTER
	OPERAND_ADDRESS // literal or label
	OPERAND_LITERAL
	OPERAND_I
	OPERAND_INDIRECT // [I]
	OPERAND_DT
	OPERAND_ST
	OPERAND_K
	OPERAND_F
	OPERAND_B
)

// Operand placement within the instruction word
const (
	FIELD_NONE Field = iota
	FIELD_X
	FIELD_Y
	FIELD_V0
	FIELD_KK
	FIELD_N
	FIELD_NNN
)

const (
	INSTRUCTION_INVALID InstructionType = iota
	INSTRUCTION_CLS
	INSTRUCTION_RET
	INSTRUCTION_SYS
	INSTRUCTION_JP
	INSTRUCTION_CALL
	INSTRUCTION_SE
	INSTRUCTION_SNE
	INSTRUCTION_LD
	INSTRUCTION_ADD
	INSTRUCTION_OR
	INSTRUCTION_AND
	INSTRUCTION_XOR
	INSTRUCTION_SUB
	INSTRUCTION_SHR
	INSTRUCTION_SUBN
	INSTRUCTION_SHL
	INSTRUCTION_RND
	INSTRUCTION_DRW
	INSTRUCTION_SKP
	INSTRUCTION_SKNP
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_ORG
	DIRECTIVE_BYTE
	DIRECTIVE_WORD
	DIRECTIVE_TEXT
	DIRECTIVE_END
)

var instructionNames = map[string]InstructionType{
	"CLS":  INSTRUCTION_CLS,
	"RET":  INSTRUCTION_RET,
	"SYS":  INSTRUCTION_SYS,
	"JP":   INSTRUCTION_JP,
	"CALL": INSTRUCTION_CALL,
	"SE":   INSTRUCTION_SE,
	"SNE":  INSTRUCTION_SNE,
	"LD":   INSTRUCTION_LD,
	"ADD":  INSTRUCTION_ADD,
	"OR":   INSTRUCTION_OR,
	"AND":  INSTRUCTION_AND,
	"XOR":  INSTRUCTION_XOR,
	"SUB":  INSTRUCTION_SUB,
	"SHR":  INSTRUCTION_SHR,
	"SUBN": INSTRUCTION_SUBN,
	"SHL":  INSTRUCTION_SHL,
	"RND":  INSTRUCTION_RND,
	"DRW":  INSTRUCTION_DRW,
	"SKP":  INSTRUCTION_SKP,
	"SKNP": INSTRUCTION_SKNP,
}

var directiveNames = map[string]DirectiveType{
	".ORG":  DIRECTIVE_ORG,
	".BYTE": DIRECTIVE_BYTE,
	".WORD": DIRECTIVE_WORD,
	".TEXT": DIRECTIVE_TEXT,
	".END":  DIRECTIVE_END,
}

type operand struct {
	Type  OperandType
	Field Field
}

// Accepted operand shapes per mnemonic, tried in order.
var forms = map[InstructionType][]form{
	// CLS  |0000    |0000   |1110   |0000   |
	// RET  |0000    |0000   |1110   |1110   |
	// SYS  |0000    |nnn                    |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_CLS: {{0x00E0, nil}},
	INSTRUCTION_RET: {{0x00EE, nil}},
	INSTRUCTION_SYS: {{0x0000, []operand{{OPERAND_ADDRESS, FIELD_NNN}}}},

	// JP   |0001    |nnn                    |
	// JP   |1011    |nnn                    | V0, nnn
	// CALL |0010    |nnn                    |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_JP: {
		{0x1000, []operand{{OPERAND_ADDRESS, FIELD_NNN}}},
		{0xB000, []operand{{OPERAND_REGISTER, FIELD_V0}, {OPERAND_ADDRESS, FIELD_NNN}}},
	},
	INSTRUCTION_CALL: {{0x2000, []operand{{OPERAND_ADDRESS, FIELD_NNN}}}},

	// SE   |0011    |x      |kk             |
	// SE   |0101    |x      |y      |0000   |
	// SNE  |0100    |x      |kk             |
	// SNE  |1001    |x      |y      |0000   |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_SE: {
		{0x3000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_LITERAL, FIELD_KK}}},
		{0x5000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_REGISTER, FIELD_Y}}},
	},
	INSTRUCTION_SNE: {
		{0x4000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_LITERAL, FIELD_KK}}},
		{0x9000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_REGISTER, FIELD_Y}}},
	},

	// LD   |0110    |x      |kk             | Vx, kk
	// LD   |1000    |x      |y      |0000   | Vx, Vy
	// LD   |1010    |nnn                    | I, nnn
	// LD   |1111    |x      |op             | Timers, keys, glyphs and [I]
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_LD: {
		{0x6000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_LITERAL, FIELD_KK}}},
		{0x8000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_REGISTER, FIELD_Y}}},
		{0xA000, []operand{{OPERAND_I, FIELD_NONE}, {OPERAND_ADDRESS, FIELD_NNN}}},
		{0xF007, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_DT, FIELD_NONE}}},
		{0xF00A, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_K, FIELD_NONE}}},
		{0xF015, []operand{{OPERAND_DT, FIELD_NONE}, {OPERAND_REGISTER, FIELD_X}}},
		{0xF018, []operand{{OPERAND_ST, FIELD_NONE}, {OPERAND_REGISTER, FIELD_X}}},
		{0xF029, []operand{{OPERAND_F, FIELD_NONE}, {OPERAND_REGISTER, FIELD_X}}},
		{0xF033, []operand{{OPERAND_B, FIELD_NONE}, {OPERAND_REGISTER, FIELD_X}}},
		{0xF055, []operand{{OPERAND_INDIRECT, FIELD_NONE}, {OPERAND_REGISTER, FIELD_X}}},
		{0xF065, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_INDIRECT, FIELD_NONE}}},
	},

	// ADD  |0111    |x      |kk             |
	// ADD  |1000    |x      |y      |0100   |
	// ADD  |1111    |x      |0001 1110      | I, Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_ADD: {
		{0x7000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_LITERAL, FIELD_KK}}},
		{0x8004, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_REGISTER, FIELD_Y}}},
		{0xF01E, []operand{{OPERAND_I, FIELD_NONE}, {OPERAND_REGISTER, FIELD_X}}},
	},

	// ALU  |1000    |x      |y      |op     |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_OR:   {registerPair(0x8001)},
	INSTRUCTION_AND:  {registerPair(0x8002)},
	INSTRUCTION_XOR:  {registerPair(0x8003)},
	INSTRUCTION_SUB:  {registerPair(0x8005)},
	INSTRUCTION_SUBN: {registerPair(0x8007)},
	INSTRUCTION_SHR:  {singleRegister(0x8006), registerPair(0x8006)},
	INSTRUCTION_SHL:  {singleRegister(0x800E), registerPair(0x800E)},

	// RND  |1100    |x      |kk             |
	// DRW  |1101    |x      |y      |n      |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_RND: {
		{0xC000, []operand{{OPERAND_REGISTER, FIELD_X}, {OPERAND_LITERAL, FIELD_KK}}},
	},
	INSTRUCTION_DRW: {
		{0xD000, []operand{
			{OPERAND_REGISTER, FIELD_X},
			{OPERAND_REGISTER, FIELD_Y},
			{OPERAND_LITERAL, FIELD_N},
		}},
	},

	// SKP  |1110    |x      |1001 1110      |
	// SKNP |1110    |x      |1010 0001      |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_SKP:  {singleRegister(0xE09E)},
	INSTRUCTION_SKNP: {singleRegister(0xE0A1)},
}

func registerPair(base uint16) form {
	return form{base, []operand{
		{OPERAND_REGISTER, FIELD_X},
		{OPERAND_REGISTER, FIELD_Y},
	}}
}

func singleRegister(base uint16) form {
	return form{base, []operand{{OPERAND_REGISTER, FIELD_X}}}
}
