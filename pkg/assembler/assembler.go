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

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

func parseDirective(ident string) DirectiveType {
	return directiveNames[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructionNames[strings.ToUpper(ident)]
}

// parseLiteral accepts anything encoding.DecodeNumber does. Negative values
// down to half the range are stored in two's complement.
func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	result, err := encoding.DecodeNumber(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	limit := 1 << bits

	if result >= limit || result < -(limit/2) {
		return 0, &OversizedLiteralError{token.Position, limit - 1, result}
	}

	return uint16(result & (limit - 1)), nil
}

// parseRegister accepts V0 through VF.
func parseRegister(token *Token) (uint16, bool) {
	ident := token.Value

	if len(ident) != 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false
	}

	reg, err := strconv.ParseUint(ident[1:], 16, 4)

	if err != nil {
		return 0, false
	}

	return uint16(reg), true
}

func parseOperand(token *Token) OperandType {
	switch token.Type {
	case TOKEN_LITERAL:
		return OPERAND_LITERAL
	case TOKEN_IDENT:
	default:
		return OPERAND_INVALID
	}

	if _, ok := parseRegister(token); ok {
		return OPERAND_REGISTER
	}

	switch strings.ToUpper(token.Value) {
	case "I":
		return OPERAND_I
	case "[I]":
		return OPERAND_INDIRECT
	case "DT":
		return OPERAND_DT
	case "ST":
		return OPERAND_ST
	case "K":
		return OPERAND_K
	case "F":
		return OPERAND_F
	case "B":
		return OPERAND_B
	}

	return OPERAND_ADDRESS
}

func accepts(required OperandType, received OperandType) bool {
	return required == received ||
		(required == OPERAND_ADDRESS && received == OPERAND_LITERAL)
}

func isHexLiteral(value string) bool {
	if len(value) < 2 || (value[0] != 'x' && value[0] != 'X') {
		return false
	}

	for _, char := range value[1:] {
		if !unicode.Is(unicode.ASCII_Hex_Digit, char) {
			return false
		}
	}

	return true
}

// tokenType classifies a finished token.
func tokenType(value string) TokenType {
	switch {
	case value[0] == '.':
		return TOKEN_DIRECTIVE
	case value[0] == '#', value[0] == '$', value[0] == '-':
		return TOKEN_LITERAL
	case unicode.IsDigit(rune(value[0])):
		return TOKEN_LITERAL
	case isHexLiteral(value):
		return TOKEN_LITERAL
	}

	return TOKEN_IDENT
}

// tokenize splits one source line into tokens.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int
	var inString bool

	tokens = make([]Token, 0, 4)

	flush := func(kind TokenType) {
		if builder.Len() == 0 {
			return
		}

		value := builder.String()
		builder.Reset()

		if kind == TOKEN_NONE {
			kind = tokenType(value)
		}

		tokens = append(tokens, Token{
			Type:  kind,
			Value: value,
			Position: Cursor{
				Line:     cursor.Line,
				Column:   tokenStart,
				Byte:     cursor.Byte + int64(tokenStart-1),
				Size:     int64(len(value)),
				LineByte: cursor.LineByte,
			},
		})
	}

	for column, char := range line {
		cursor.Column = column + 1

		if builder.Len() == 0 {
			tokenStart = cursor.Column
		}

		if char > unicode.MaxASCII {
			errs = append(errs, &OversizedCharacterError{cursor})
			continue
		}

		// String Literal
		if inString {
			builder.WriteRune(char)

			if char == '"' {
				inString = false
				flush(TOKEN_STRING)
			}

			continue
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			flush(TOKEN_NONE)

		// Comments
		case char == ';':
			flush(TOKEN_NONE)
			return tokens, errs

		// Operand Separator
		case char == ',':
			flush(TOKEN_NONE)

			if strings.TrimSpace(line[column+1:]) == "" {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Label Declaration (i.e. loop:)
		case char == ':':
			if builder.Len() == 0 || tokenType(builder.String()) != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				builder.Reset()
				break
			}

			flush(TOKEN_LABEL)

		case char == '"':
			if builder.Len() != 0 {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				break
			}

			inString = true
			builder.WriteRune(char)

		// Directives, literal prefixes, identifiers and [I]
		case unicode.IsLetter(char),
			unicode.IsDigit(char),
			char == '_',
			char == '.',
			char == '#',
			char == '$',
			char == '-',
			char == '[',
			char == ']':
			builder.WriteRune(char)

		default:
			errs = append(errs, &UnexpectedCharacterError{cursor, char})
		}
	}

	if inString {
		cursor.Column = len(line)
		errs = append(errs, &InvalidStringError{cursor})
		return tokens, errs
	}

	flush(TOKEN_NONE)
	return tokens, errs
}

// assembleInstruction encodes one instruction. When the address operand is a
// label, it is returned for later resolution and the nnn field is left zero.
func assembleInstruction(
	instruction InstructionType,
	keyword *Token,
	operands []Token,
) (word uint16, label *Token, err error) {
	candidates := forms[instruction]
	received := make([]OperandType, len(operands))

	for i := range operands {
		received[i] = parseOperand(&operands[i])
	}

	var sized []form

	for _, f := range candidates {
		if len(f.Operands) == len(operands) {
			sized = append(sized, f)
		}
	}

	if len(sized) == 0 {
		return 0, nil, &InvalidNumArgumentsError{
			keyword.Position, len(candidates[0].Operands), len(operands),
		}
	}

	// Narrow the candidates operand by operand so the error points at the
	// first operand no form accepts
	for i := range operands {
		var required []OperandType
		var remaining []form

		for _, f := range sized {
			required = append(required, f.Operands[i].Type)

			if accepts(f.Operands[i].Type, received[i]) {
				remaining = append(remaining, f)
			}
		}

		if len(remaining) == 0 {
			return 0, nil, &InvalidOperandError{
				operands[i].Position, uniqueOperands(required), received[i],
			}
		}

		sized = remaining
	}

	chosen := sized[0]
	word = chosen.Base

	for i, op := range chosen.Operands {
		token := &operands[i]

		switch op.Field {
		case FIELD_X:
			reg, _ := parseRegister(token)
			word |= reg << 8

		case FIELD_Y:
			reg, _ := parseRegister(token)
			word |= reg << 4

		case FIELD_V0:
			if reg, _ := parseRegister(token); reg != 0 {
				return 0, nil, &InvalidRegisterError{token.Position}
			}

		case FIELD_KK:
			literal, err := parseLiteral(token, LITERAL_BYTE)

			if err != nil {
				return 0, nil, err
			}

			word |= literal

		case FIELD_N:
			literal, err := parseLiteral(token, LITERAL_NIBBLE)

			if err != nil {
				return 0, nil, err
			}

			word |= literal

		case FIELD_NNN:
			if token.Type == TOKEN_IDENT {
				label = token
				break
			}

			literal, err := parseLiteral(token, LITERAL_ADDRESS)

			if err != nil {
				return 0, nil, err
			}

			word |= literal
		}
	}

	return word, label, nil
}

func uniqueOperands(operands []OperandType) []OperandType {
	result := make([]OperandType, 0, len(operands))

	for _, op := range operands {
		found := false

		for _, existing := range result {
			if existing == op {
				found = true
				break
			}
		}

		if !found {
			result = append(result, op)
		}
	}

	return result
}

// AssembleSource assembles a program and returns its image as loaded at
// machine.MEMSPACE_PROGRAM. Labels are resolved after the whole source has
// been read, so forward references are allowed.
func AssembleSource(input io.Reader, symtable *SymTable) (result []byte, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Word     bool
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef

	var image [machine.MEMORY_SIZE]byte
	var program = int(machine.MEMSPACE_PROGRAM)
	var end = program

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	errs = make([]error, 0)

	emit := func(value byte, position Cursor) bool {
		if program > int(machine.MEMSPACE_END) {
			errs = append(errs, &OversizedBinaryError{position})
			return false
		}

		image[program] = value
		program++

		if program > end {
			end = program
		}

		return true
	}

	emitWord := func(value uint16, position Cursor) bool {
		hi, lo := encoding.SplitWord(value)
		return emit(hi, position) && emit(lo, position)
	}

	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)

		// Skip assembly of lines that failed to parse
		if len(lineErrs) > 0 || len(tokens) == 0 {
			errs = append(errs, lineErrs...)

			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		var label *Token = nil

		if tokens[0].Type == TOKEN_LABEL {
			label = &tokens[0]
			tokens = tokens[1:]
		} else if tokens[0].Type == TOKEN_IDENT &&
			parseInstruction(tokens[0].Value) == INSTRUCTION_INVALID {
			label = &tokens[0]
			tokens = tokens[1:]

			// A bare label must be followed by a keyword, if anything
			if len(tokens) > 0 &&
				tokens[0].Type != TOKEN_DIRECTIVE &&
				parseInstruction(tokens[0].Value) == INSTRUCTION_INVALID {
				errs = append(
					errs, &UnknownIdentifierError{label.Position, label.Value},
				)

				cursor.Line++
				cursor.Byte += int64(len(line) + 1)
				cursor.LineByte += int64(len(line) + 1)
				continue
			}
		}

		if label != nil {
			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}
		}

		if len(tokens) == 0 {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		keyword := &tokens[0]
		operands := tokens[1:]
		start := program
		stop := false

		switch keyword.Type {
		case TOKEN_DIRECTIVE:
			switch parseDirective(keyword.Value) {
			// .END
			case DIRECTIVE_END:
				if count := len(operands); count != 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
					)
				}

				stop = true

			// .ORG addr
			case DIRECTIVE_ORG:
				if count := len(operands); count != 1 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
					)

					break
				}

				if operands[0].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[0].Position,
							[]OperandType{OPERAND_LITERAL},
							parseOperand(&operands[0]),
						},
					)

					break
				}

				literal, err := parseLiteral(&operands[0], LITERAL_WORD)

				if err != nil {
					errs = append(errs, err)
					break
				}

				if literal < machine.MEMSPACE_PROGRAM || literal > machine.MEMSPACE_END {
					errs = append(
						errs, &InvalidOriginError{operands[0].Position, int(literal)},
					)

					break
				}

				program = int(literal)
				start = program

				// A label on the .ORG line names the new origin
				if label != nil {
					labels[label.Value] = literal
				}

			// .BYTE value[, value...]
			case DIRECTIVE_BYTE:
				if len(operands) == 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
					)

					break
				}

				for i := range operands {
					if operands[i].Type != TOKEN_LITERAL {
						errs = append(
							errs,
							&InvalidOperandError{
								operands[i].Position,
								[]OperandType{OPERAND_LITERAL},
								parseOperand(&operands[i]),
							},
						)

						break
					}

					literal, err := parseLiteral(&operands[i], LITERAL_BYTE)

					if err != nil {
						errs = append(errs, err)
						break
					}

					if !emit(byte(literal), operands[i].Position) {
						break
					}
				}

			// .WORD value|label[, ...]
			case DIRECTIVE_WORD:
				if len(operands) == 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
					)

					break
				}

				for i := range operands {
					var literal uint16

					switch parseOperand(&operands[i]) {
					case OPERAND_LITERAL:
						var err error
						literal, err = parseLiteral(&operands[i], LITERAL_WORD)

						if err != nil {
							errs = append(errs, err)
							continue
						}

					case OPERAND_ADDRESS:
						labelRefs = append(labelRefs, LabelRef{
							operands[i].Value,
							uint16(program),
							true,
							operands[i].Position,
						})

					default:
						errs = append(
							errs,
							&InvalidOperandError{
								operands[i].Position,
								[]OperandType{OPERAND_LITERAL, OPERAND_ADDRESS},
								parseOperand(&operands[i]),
							},
						)

						continue
					}

					if !emitWord(literal, operands[i].Position) {
						break
					}
				}

			// .TEXT "..."
			case DIRECTIVE_TEXT:
				if count := len(operands); count != 1 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
					)

					break
				}

				if operands[0].Type != TOKEN_STRING {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[0].Position,
							[]OperandType{OPERAND_LITERAL},
							parseOperand(&operands[0]),
						},
					)

					break
				}

				s, err := strconv.Unquote(operands[0].Value)

				if err != nil {
					errs = append(errs, &InvalidStringError{operands[0].Position})
					break
				}

				for i := 0; i < len(s); i++ {
					if !emit(s[i], operands[0].Position) {
						break
					}
				}

			default:
				errs = append(
					errs, &UnknownIdentifierError{keyword.Position, keyword.Value},
				)
			}

		case TOKEN_IDENT:
			instruction := parseInstruction(keyword.Value)

			if instruction == INSTRUCTION_INVALID {
				errs = append(
					errs, &UnknownIdentifierError{keyword.Position, keyword.Value},
				)

				break
			}

			word, ref, err := assembleInstruction(instruction, keyword, operands)

			if err != nil {
				errs = append(errs, err)
				break
			}

			if ref != nil {
				labelRefs = append(labelRefs, LabelRef{
					ref.Value, uint16(program), false, ref.Position,
				})
			}

			emitWord(word, keyword.Position)

		default:
			errs = append(
				errs, &UnknownIdentifierError{keyword.Position, keyword.Value},
			)
		}

		if symtable != nil && program > start {
			symtable.Symbols[uint16(start)] = cursor.LineByte
		}

		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)

		if stop {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		if ref.Word {
			image[ref.Addr], image[ref.Addr+1] = encoding.SplitWord(addr)
			continue
		}

		image[ref.Addr] |= byte(addr>>8) & 0x0F
		image[ref.Addr+1] = byte(addr & 0xFF)
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	result = make([]byte, end-int(machine.MEMSPACE_PROGRAM))
	copy(result, image[machine.MEMSPACE_PROGRAM:end])

	return
}
