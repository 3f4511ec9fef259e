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

package disasm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		name     string
		word     uint16
		expected string
	}{
		{"CLS", 0x00E0, "CLS"},
		{"RET", 0x00EE, "RET"},
		{"JP addr", 0x1234, "JP $234"},
		{"CALL addr", 0x2300, "CALL $300"},
		{"SE Vx, byte", 0x3234, "SE V2, $34"},
		{"SNE Vx, byte", 0x4234, "SNE V2, $34"},
		{"SE Vx, Vy", 0x5230, "SE V2, V3"},
		{"LD Vx, byte", 0x6A5C, "LD VA, $5C"},
		{"ADD Vx, byte", 0x7003, "ADD V0, $03"},
		{"LD Vx, Vy", 0x8230, "LD V2, V3"},
		{"OR Vx, Vy", 0x8231, "OR V2, V3"},
		{"AND Vx, Vy", 0x8232, "AND V2, V3"},
		{"XOR Vx, Vy", 0x8233, "XOR V2, V3"},
		{"ADD Vx, Vy", 0x8234, "ADD V2, V3"},
		{"SUB Vx, Vy", 0x8235, "SUB V2, V3"},
		{"SHR Vx", 0x8206, "SHR V2"},
		{"SHR Vx, Vy", 0x8236, "SHR V2, V3"},
		{"SUBN Vx, Vy", 0x8237, "SUBN V2, V3"},
		{"SHL Vx", 0x820E, "SHL V2"},
		{"SNE Vx, Vy", 0x9230, "SNE V2, V3"},
		{"LD I, addr", 0xA2F0, "LD I, $2F0"},
		{"JP V0, addr", 0xB300, "JP V0, $300"},
		{"RND Vx, byte", 0xC30F, "RND V3, $0F"},
		{"DRW Vx, Vy, n", 0xD125, "DRW V1, V2, 5"},
		{"SKP Vx", 0xE29E, "SKP V2"},
		{"SKNP Vx", 0xE2A1, "SKNP V2"},
		{"LD Vx, DT", 0xF307, "LD V3, DT"},
		{"LD Vx, K", 0xF30A, "LD V3, K"},
		{"LD DT, Vx", 0xF315, "LD DT, V3"},
		{"LD ST, Vx", 0xF318, "LD ST, V3"},
		{"ADD I, Vx", 0xF31E, "ADD I, V3"},
		{"LD F, Vx", 0xF329, "LD F, V3"},
		{"LD B, Vx", 0xF333, "LD B, V3"},
		{"LD [I], Vx", 0xF355, "LD [I], V3"},
		{"LD Vx, [I]", 0xF365, "LD V3, [I]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := Disassemble(tt.word)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestDisassembleUnknown(t *testing.T) {
	tests := []struct {
		word     uint16
		expected string
	}{
		{0x0000, ".WORD $0000"},
		{0x0123, ".WORD $0123"},
		{0x8008, ".WORD $8008"},
		{0xE000, ".WORD $E000"},
		{0xF0FF, ".WORD $F0FF"},
	}

	for _, tt := range tests {
		text, ok := Disassemble(tt.word)
		assert.False(t, ok)
		assert.Equal(t, tt.expected, text)
	}
}

func TestProgram(t *testing.T) {
	lines := Program([]byte{0x60, 0x05, 0x70, 0x03, 0x00, 0x00, 0xAB}, 0x200)

	assert.Equal(t, 4, len(lines))

	assert.Equal(t, uint16(0x200), lines[0].Address)
	assert.Equal(t, "LD V0, $05", lines[0].Text)
	assert.True(t, lines[0].Known)

	assert.Equal(t, uint16(0x202), lines[1].Address)
	assert.Equal(t, "ADD V0, $03", lines[1].Text)

	assert.Equal(t, ".WORD $0000", lines[2].Text)
	assert.False(t, lines[2].Known)

	assert.Equal(t, uint16(0x206), lines[3].Address)
	assert.Equal(t, ".BYTE $AB", lines[3].Text)

	assert.Equal(t, "0x0200  6005  LD V0, $05", lines[0].String())
}
