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
	"fmt"
	"strings"

	"github.com/lassandro/gochip8/pkg/machine"
)

func parseQuirks(value string) (machine.Quirks, error) {
	var quirks machine.Quirks

	for _, name := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "legacy":
			quirks = machine.LegacyQuirks
		case "subn":
			quirks.LegacySubn = true
		case "bcd":
			quirks.BCDFallthrough = true
		case "reseed":
			quirks.ReseedRandom = true
		default:
			return quirks, fmt.Errorf("unknown quirk '%s'", name)
		}
	}

	return quirks, nil
}
