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
	"bufio"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

var helpvar bool
var versionvar bool
var debugvar bool
var disasmvar bool
var verbosevar bool
var outvar string

const usage = "gochip8-asm [-debug] [-d] [-out outfile] filename"

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&versionvar, "version", false, "Displays the version")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.c8db'",
	)
	flag.BoolVar(
		&disasmvar, "d", false,
		"Disassembles a program image instead of assembling source",
	)
	flag.BoolVar(&verbosevar, "v", false, "Enables debug logging")
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
}

func createLogger() *log.Logger {
	cfg := log.DefaultConfig()
	if verbosevar {
		cfg.Level = log.DebugLevel
	}
	return log.NewWithConfig(cfg)
}

// reportErrors prints each assembler error with the offending line
// underlined. Errors without a position are printed alone.
func reportErrors(prefix string, input io.ReadSeeker, errs []error) {
	for _, err := range errs {
		var tokenErr assembler.TokenError

		if input == nil || !errors.As(err, &tokenErr) {
			fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
			continue
		}

		cursor := tokenErr.GetPosition()

		if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
			continue
		}

		line, _ := bufio.NewReader(input).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		size := int(cursor.Size)
		if size < 1 {
			size = 1
		}

		underline := strings.Repeat(" ", int(cursor.Byte-cursor.LineByte)) +
			"^" + strings.Repeat("~", size-1)

		fmt.Fprintf(
			os.Stderr,
			"%s %v\n%s\n\033[31m%s\033[0m\n",
			prefix,
			err,
			line,
			underline,
		)
	}
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func disassemble(logger *log.Logger, input io.Reader, output io.Writer) int {
	program, err := io.ReadAll(input)

	if err != nil {
		logger.Error("Reading program failed", log.Err(err))
		return 1
	}

	capacity := machine.MEMORY_SIZE - int(machine.MEMSPACE_PROGRAM)

	if len(program) > capacity {
		logger.Error("Program does not fit in memory",
			log.Int("size", len(program)),
			log.Int("limit", capacity))
		return 1
	}

	writer := bufio.NewWriter(output)

	for _, line := range disasm.Program(program, machine.MEMSPACE_PROGRAM) {
		fmt.Fprintln(writer, line)
	}

	if err := writer.Flush(); err != nil {
		logger.Error("Writing listing failed", log.Err(err))
		return 1
	}

	return 0
}

func gochip8_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	if versionvar {
		fmt.Printf("gochip8-asm %s\n", buildinfo.Version(version, commit, date))
		return 0
	}

	logger := createLogger()
	args := flag.Args()

	var infile string
	var input io.ReadSeeker
	prefix := "\033[1m<stdin>:\033[0m"

	// With no arguments, piped source is read from stdin
	if stat, _ := os.Stdin.Stat(); len(args) > 0 || stat.Mode()&os.ModeCharDevice != 0 {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			logger.Error("Opening input failed", log.Err(err))
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			logger.Error("Opening input failed", log.Err(err))
			return 1
		} else if stat.IsDir() {
			logger.Error("Input is a directory", log.String("file", filename))
			return 1
		}

		input = file
		infile = file.Name()
		prefix = fmt.Sprintf("\033[1m%s:\033[0m", filename)
	}

	var reader io.Reader = os.Stdin
	if input != nil {
		reader = input
	}

	if disasmvar {
		if outvar == "" {
			return disassemble(logger, reader, os.Stdout)
		}

		file, err := os.Create(outvar)

		if err != nil {
			logger.Error("Creating listing failed", log.Err(err))
			return 1
		}

		defer file.Close()
		return disassemble(logger, reader, file)
	}

	if outvar == "" {
		if infile == "" {
			outvar = "out.ch8"
		} else {
			outvar = replaceExt(filepath.Base(infile), ".ch8")
		}
	}

	var symtable *assembler.SymTable

	if debugvar {
		source := ""

		if infile != "" {
			var err error
			if source, err = filepath.Abs(infile); err != nil {
				logger.Warn("Resolving source path failed", log.Err(err))
				source = ""
			}
		}

		symtable = assembler.NewSymTable(source)
	}

	result, errs := assembler.AssembleSource(reader, symtable)

	if len(errs) > 0 {
		reportErrors(prefix, input, errs)
		return 1
	}

	if err := os.WriteFile(outvar, result, 0666); err != nil {
		logger.Error("Writing output file failed", log.Err(err))
		return 1
	}

	logger.Debug("Program assembled",
		log.String("file", outvar),
		log.Int("size", len(result)))

	if debugvar {
		filename := replaceExt(outvar, ".c8db")

		file, err := os.Create(filename)

		if err != nil {
			logger.Error("Creating symbol table failed", log.Err(err))
			return 1
		}

		defer file.Close()

		if err := gob.NewEncoder(file).Encode(symtable); err != nil {
			logger.Error("Writing symbol table failed", log.Err(err))
			return 1
		}
	}

	return 0
}

func main() {
	flag.Parse()
	os.Exit(gochip8_asm())
}
