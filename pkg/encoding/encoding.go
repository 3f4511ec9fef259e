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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidHex = errors.New("Invalid hex string")

// DecodeHex accepts 0x2A, x2A and $2A.
func DecodeHex(s string) (uint16, error) {
	switch {
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		s = s[1:]
	default:
		return 0, ErrInvalidHex
	}

	if len(s) == 0 {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 16, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// DecodeInt accepts 42 and #42.
func DecodeInt(s string) (int, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int(result), nil
}

// DecodeNumber tries hex first and falls back to decimal.
func DecodeNumber(s string) (int, error) {
	if value, err := DecodeHex(s); err == nil {
		return int(value), nil
	} else if err != ErrInvalidHex {
		return 0, err
	}

	return DecodeInt(s)
}

func Word(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

func SplitWord(value uint16) (hi, lo byte) {
	return byte(value >> 8), byte(value & 0xFF)
}
