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

package assembler_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/encoding"
)

const ORIGIN = 0x200

type testCase struct {
	Name     string
	Input    string
	Output   map[uint16]uint16
	Bytes    map[uint16]byte
	Size     int
	SymTable *assembler.SymTable
}

type failCase struct {
	Name  string
	Input string
	Error error
}

func testAssemblerSuccess(t *testing.T, test *testCase) {
	var symtarget *assembler.SymTable = nil

	if test.SymTable != nil {
		symtarget = assembler.NewSymTable("")
	}

	result, errs := assembler.AssembleSource(
		strings.NewReader(test.Input), symtarget,
	)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if test.Size != 0 && len(result) != test.Size {
		t.Fatalf(
			"Invalid image length\n"+
				"want:%d\n"+
				"have:%d",
			test.Size,
			len(result),
		)
	}

	expected := make(map[uint16]byte)

	for addr, word := range test.Output {
		expected[addr], expected[addr+1] = encoding.SplitWord(word)
	}

	for addr, value := range test.Bytes {
		expected[addr] = value
	}

	for i, have := range result {
		addr := uint16(ORIGIN + i)
		want, exists := expected[addr]

		if exists && have != want {
			t.Fatalf(
				"Instruction encoding mismatch\n"+
					"want:%#02x (test.Output[%#04x])\n"+
					"have:%#02x",
				want,
				addr,
				have,
			)
		} else if !exists && have != 0 {
			t.Fatalf(
				"Unexpected byte\n"+
					"want:0x00\n"+
					"have:%#02x (result [%#04x])",
				have,
				addr,
			)
		}
	}

	for addr := range expected {
		if int(addr)-ORIGIN >= len(result) {
			t.Fatalf("Missing output at %#04x (image ends at %#04x)", addr, ORIGIN+len(result))
		}
	}

	if test.SymTable != nil {
		if !reflect.DeepEqual(test.SymTable.Symbols, symtarget.Symbols) {
			t.Fatalf(
				"Symtable symbols mismatch\n"+
					"want:%v (test.SymTable.Symbols)\n"+
					"have:%v",
				test.SymTable.Symbols,
				symtarget.Symbols,
			)
		}

		if !reflect.DeepEqual(test.SymTable.Labels, symtarget.Labels) {
			t.Fatalf(
				"Symtable labels mismatch\n"+
					"want:%v (test.SymTable.Labels)\n"+
					"have:%v",
				test.SymTable.Labels,
				symtarget.Labels,
			)
		}
	}
}

func testAssemblerFail(t *testing.T, test *failCase) {
	file := strings.NewReader(test.Input)

	_, errs := assembler.AssembleSource(file, nil)

	if test.Error == nil {
		panic("Fail case missing error value")
	}

	if len(errs) == 0 {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:<nil>",
			t.Name(),
			test.Error,
		)
	}

	if len(errs) > 1 {
		errTypes := make([]reflect.Type, 0, len(errs))
		for _, err := range errs {
			errTypes = append(errTypes, reflect.TypeOf(err))
		}

		t.Fatalf(
			"%s produced multiple errors:\n\twant:%T (test.Error)\n\thave:%v",
			t.Name(),
			test.Error,
			errTypes,
		)
	}

	if reflect.TypeOf(errs[0]) != reflect.TypeOf(test.Error) {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:%T (%v)",
			t.Name(),
			test.Error,
			errs[0],
			errs[0],
		)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerSuccess(t, &test)
			})
		}
	})
}

func testFail(t *testing.T, tests []failCase) {
	t.Run("Fail", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerFail(t, &test)
			})
		}
	})
}

// CLS  |0000    |0000   |1110   |0000   |
// RET  |0000    |0000   |1110   |1110   |
// SYS  |0000    |nnn                    |
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestSys(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "CLS",
			Input:  `CLS`,
			Output: map[uint16]uint16{0x200: 0x00E0},
		},
		{
			Name:   "RET",
			Input:  `ret`,
			Output: map[uint16]uint16{0x200: 0x00EE},
		},
		{
			Name:   "SYS",
			Input:  `SYS 0x123`,
			Output: map[uint16]uint16{0x200: 0x0123},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "CLS Operands",
			Input: `CLS V0`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "SYS Register",
			Input: `SYS V0`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

// JP   |0001    |nnn                    |
// JP   |1011    |nnn                    |
// CALL |0010    |nnn                    |
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "JP addr",
			Input:  `JP 0x2A0`,
			Output: map[uint16]uint16{0x200: 0x12A0},
		},
		{
			Name:   "JP V0, addr",
			Input:  `JP V0, $300`,
			Output: map[uint16]uint16{0x200: 0xB300},
		},
		{
			Name:   "CALL addr",
			Input:  `CALL #768`,
			Output: map[uint16]uint16{0x200: 0x2300},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "JP V1, addr",
			Input: `JP V1, 0x300`,
			Error: &assembler.InvalidRegisterError{},
		},
		{
			Name:  "JP Oversized",
			Input: `JP 0x1000`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "CALL Missing Operand",
			Input: `CALL`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

func TestSkip(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "SE Vx, byte",
			Input:  `SE V3, 0x42`,
			Output: map[uint16]uint16{0x200: 0x3342},
		},
		{
			Name:   "SE Vx, Vy",
			Input:  `SE V3, VA`,
			Output: map[uint16]uint16{0x200: 0x53A0},
		},
		{
			Name:   "SNE Vx, byte",
			Input:  `SNE vf, x42`,
			Output: map[uint16]uint16{0x200: 0x4F42},
		},
		{
			Name:   "SNE Vx, Vy",
			Input:  `SNE V3, V4`,
			Output: map[uint16]uint16{0x200: 0x9340},
		},
		{
			Name:   "SKP Vx",
			Input:  `SKP V5`,
			Output: map[uint16]uint16{0x200: 0xE59E},
		},
		{
			Name:   "SKNP Vx",
			Input:  `SKNP V5`,
			Output: map[uint16]uint16{0x200: 0xE5A1},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "SE Oversized Byte",
			Input: `SE V0, 256`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "SE Literal First",
			Input: `SE 1, V0`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "SKP Literal",
			Input: `SKP 5`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestLoad(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "LD Vx, byte",
			Input:  `LD VA, 0x5C`,
			Output: map[uint16]uint16{0x200: 0x6A5C},
		},
		{
			Name:   "LD Vx, byte (Negative)",
			Input:  `LD V0, -1`,
			Output: map[uint16]uint16{0x200: 0x60FF},
		},
		{
			Name:   "LD Vx, Vy",
			Input:  `LD V1, V2`,
			Output: map[uint16]uint16{0x200: 0x8120},
		},
		{
			Name:   "LD I, addr",
			Input:  `LD I, 0x2F0`,
			Output: map[uint16]uint16{0x200: 0xA2F0},
		},
		{
			Name: "LD Timers",
			Input: `
				LD V3, DT
				LD DT, V3
				LD ST, V3
			`,
			Output: map[uint16]uint16{
				0x200: 0xF307,
				0x202: 0xF315,
				0x204: 0xF318,
			},
		},
		{
			Name:   "LD Vx, K",
			Input:  `LD V7, K`,
			Output: map[uint16]uint16{0x200: 0xF70A},
		},
		{
			Name: "LD Memory",
			Input: `
				LD F, V3
				LD B, V3
				LD [I], V3
				LD V3, [i]
			`,
			Output: map[uint16]uint16{
				0x200: 0xF329,
				0x202: 0xF333,
				0x204: 0xF355,
				0x206: 0xF365,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "LD Invalid Register",
			Input: `LD VG, 1`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "LD DT, byte",
			Input: `LD DT, 5`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "LD Too Many",
			Input: `LD V0, V1, V2`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "LD Invalid Literal",
			Input: `LD V0, 0xZZ`,
			Error: &assembler.InvalidLiteralError{},
		},
	})
}

func TestArithmetic(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ALU",
			Input: `
				ADD V1, 3
				ADD V1, V2
				ADD I, V2
				OR V1, V2
				AND V1, V2
				XOR V1, V2
				SUB V1, V2
				SUBN V1, V2
				SHR V1
				SHR V1, V2
				SHL V1
				SHL V1, V2
			`,
			Output: map[uint16]uint16{
				0x200: 0x7103,
				0x202: 0x8124,
				0x204: 0xF21E,
				0x206: 0x8121,
				0x208: 0x8122,
				0x20A: 0x8123,
				0x20C: 0x8125,
				0x20E: 0x8127,
				0x210: 0x8106,
				0x212: 0x8126,
				0x214: 0x810E,
				0x216: 0x812E,
			},
		},
		{
			Name:   "RND",
			Input:  `RND V3, 0x0F`,
			Output: map[uint16]uint16{0x200: 0xC30F},
		},
		{
			Name:   "DRW",
			Input:  `DRW V1, V2, 5`,
			Output: map[uint16]uint16{0x200: 0xD125},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "OR Literal",
			Input: `OR V1, 1`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "DRW Oversized Nibble",
			Input: `DRW V1, V2, 16`,
			Error: &assembler.OversizedLiteralError{},
		},
	})
}

func TestOrg(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ORG",
			Input: `
				.ORG 0x204
				CLS
			`,
			Output: map[uint16]uint16{0x204: 0x00E0},
			Size:   6,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "ORG Reserved",
			Input: `.ORG 0x100`,
			Error: &assembler.InvalidOriginError{},
		},
		{
			Name:  "ORG Label",
			Input: `.ORG START`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestData(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "BYTE",
			Input: `.BYTE 0xF0, $90, #144, 0x90, 240`,
			Bytes: map[uint16]byte{
				0x200: 0xF0, 0x201: 0x90, 0x202: 0x90, 0x203: 0x90, 0x204: 0xF0,
			},
			Size: 5,
		},
		{
			Name:   "WORD",
			Input:  `.WORD 0x1234, $ABCD`,
			Output: map[uint16]uint16{0x200: 0x1234, 0x202: 0xABCD},
		},
		{
			Name: "WORD Label",
			Input: `
				.WORD data
				data: .BYTE 1
			`,
			Output: map[uint16]uint16{0x200: 0x0202},
			Bytes:  map[uint16]byte{0x202: 1},
		},
		{
			Name:  "TEXT",
			Input: `.TEXT "Hi; there"`,
			Bytes: map[uint16]byte{
				0x200: 'H', 0x201: 'i', 0x202: ';', 0x203: ' ',
				0x204: 't', 0x205: 'h', 0x206: 'e', 0x207: 'r', 0x208: 'e',
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "BYTE Oversized",
			Input: `.BYTE 0x100`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "BYTE Empty",
			Input: `.BYTE`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "TEXT Unterminated",
			Input: `.TEXT "abc`,
			Error: &assembler.InvalidStringError{},
		},
		{
			Name:  "TEXT Non-ASCII",
			Input: `.TEXT "café"`,
			Error: &assembler.OversizedCharacterError{},
		},
		{
			Name:  "Unknown Directive",
			Input: `.FILL 1`,
			Error: &assembler.UnknownIdentifierError{},
		},
	})
}

func TestEnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "END",
			Input: `
				CLS
				.END
				RET
			`,
			Output: map[uint16]uint16{0x200: 0x00E0},
			Size:   2,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "END Operands",
			Input: `.END 1`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

func TestComment(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Comments",
			Input: `
				; Header comment
				CLS ; Trailing comment
				;RET
			`,
			Output: map[uint16]uint16{0x200: 0x00E0},
			Size:   2,
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Trailing Comma",
			Input: `LD V0,`,
			Error: &assembler.UnexpectedCharacterError{},
		},
		{
			Name:  "Unexpected Character",
			Input: `LD V0, 1 @`,
			Error: &assembler.UnexpectedCharacterError{},
		},
	})
}

func TestLabel(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Backwards Label",
			Input: `
			loop:
				ADD V0, 1
				JP loop
			`,
			Output: map[uint16]uint16{
				0x200: 0x7001,
				0x202: 0x1200,
			},
		},
		{
			Name: "Forwards Label",
			Input: `
				CALL sprite
				LD I, sprite
			sprite
				.BYTE 0xFF
			`,
			Output: map[uint16]uint16{
				0x200: 0x2204,
				0x202: 0xA204,
			},
			Bytes: map[uint16]byte{0x204: 0xFF},
		},
		{
			Name: "Label Same Line",
			Input: `
				JP V0, table
				table: JP 0x200
			`,
			Output: map[uint16]uint16{
				0x200: 0xB202,
				0x202: 0x1200,
			},
		},
		{
			Name: "Label On ORG",
			Input: `
				JP far
				far: .ORG 0x300
				CLS
			`,
			Output: map[uint16]uint16{
				0x200: 0x1300,
				0x300: 0x00E0,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Unknown Label",
			Input: `CALL nowhere`,
			Error: &assembler.UnknownLabelError{},
		},
		{
			Name: "Redeclared Label",
			Input: `
				here: CLS
				here: RET
			`,
			Error: &assembler.RedeclaredLabelError{},
		},
		{
			Name:  "Unknown Identifier",
			Input: `JPP 0x200`,
			Error: &assembler.UnknownIdentifierError{},
		},
		{
			Name:  "Label Address In Byte Slot",
			Input: `here: LD V0, here`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestProgramSize(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Fill Memory",
			Input: `
				.ORG 0xFFE
				CLS
			`,
			Output: map[uint16]uint16{0xFFE: 0x00E0},
			Size:   0xE00,
		},
	})

	testFail(t, []failCase{
		{
			Name: "Oversized Binary",
			Input: `
				.ORG 0xFFF
				CLS
			`,
			Error: &assembler.OversizedBinaryError{},
		},
	})
}

func TestSymtable(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Symtable",
			/*
				+  6	start:
				+  4	CLS
				+  7	data:
				+ 10	.BYTE 1, 2
				+  4	RET
				----
				= 31
			*/
			Input: ("start:\n" +
				"CLS\n" +
				"data:\n" +
				".BYTE 1, 2\n" +
				"RET"),
			Output: map[uint16]uint16{
				0x200: 0x00E0,
				0x202: 0x0102,
				0x204: 0x00EE,
			},
			SymTable: &assembler.SymTable{
				Symbols: map[uint16]int64{
					0x200: 7,  // CLS
					0x202: 17, // .BYTE
					0x204: 28, // RET
				},
				Labels: map[uint16]string{
					0x200: "start",
					0x202: "data",
				},
			},
		},
	})
}

func TestDisassemblyRoundTrip(t *testing.T) {
	words := []uint16{
		0x00E0, 0x00EE, 0x1234, 0x2300, 0x3342, 0x4F00, 0x5120, 0x6A5C,
		0x7003, 0x8120, 0x8121, 0x8122, 0x8123, 0x8124, 0x8125, 0x8106,
		0x8126, 0x8127, 0x810E, 0x9120, 0xA2F0, 0xB300, 0xC30F, 0xD125,
		0xE59E, 0xE5A1, 0xF307, 0xF30A, 0xF315, 0xF318, 0xF31E, 0xF329,
		0xF333, 0xF355, 0xF365, 0x0000, 0xFFFF,
	}

	var source strings.Builder

	for _, word := range words {
		text, _ := disasm.Disassemble(word)
		fmt.Fprintln(&source, text)
	}

	result, errs := assembler.AssembleSource(strings.NewReader(source.String()), nil)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if len(result) != len(words)*2 {
		t.Fatalf("Invalid image length\nwant:%d\nhave:%d", len(words)*2, len(result))
	}

	for i, want := range words {
		have := encoding.Word(result[i*2], result[i*2+1])

		if have != want {
			t.Errorf(
				"Round trip mismatch\nwant:%#04x\nhave:%#04x",
				want,
				have,
			)
		}
	}
}
