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

package main

import (
	"testing"

	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseQuirks(t *testing.T) {
	tests := []struct {
		input  string
		output machine.Quirks
	}{
		{"", machine.Quirks{}},
		{"legacy", machine.LegacyQuirks},
		{"subn", machine.Quirks{LegacySubn: true}},
		{"bcd, reseed", machine.Quirks{BCDFallthrough: true, ReseedRandom: true}},
		{"SUBN,", machine.Quirks{LegacySubn: true}},
	}

	for _, tt := range tests {
		quirks, err := parseQuirks(tt.input)
		assert.NoError(t, err)
		assert.Equal(t, tt.output, quirks)
	}

	_, err := parseQuirks("vip")
	assert.ErrorContains(t, err, "unknown quirk 'vip'")
}
