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

// Instruction is an instruction word split into its operand fields.
//
// |family |x      |y      |n      |
// [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
//         |nnn                    |
//                 |kk             |
type Instruction struct {
	Word uint16
	NNN  uint16
	N    byte
	X    byte
	Y    byte
	KK   byte
}

func Decode(word uint16) Instruction {
	return Instruction{
		Word: word,
		NNN:  word & 0x0FFF,
		N:    byte(word & 0x000F),
		X:    byte((word >> 8) & 0x000F),
		Y:    byte((word >> 4) & 0x000F),
		KK:   byte(word & 0x00FF),
	}
}

func (in Instruction) Family() uint16 {
	return in.Word >> 12
}
