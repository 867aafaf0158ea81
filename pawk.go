// Pawk is a POSIX-compatible implementation of the AWK language.
//
// Usage:
//
//	pawk [-F fs] [-v var=value] [-f progfile | -e prog | 'prog'] [file ...]
//
// The program comes from the first operand, or from one or more -f
// and -e options joined together. Remaining operands are input
// filenames or var=value assignments; with none, standard input is
// read.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"

	"github.com/posixtools/pawk/internal/parseutil"
	"github.com/posixtools/pawk/internal/term"
	"github.com/posixtools/pawk/interp"
	"github.com/posixtools/pawk/lexer"
	"github.com/posixtools/pawk/parser"
)

const version = "1.2.0"

func main() {
	os.Exit(runMain(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// runMain is the testable body of main: it parses the command line,
// assembles and parses the program source, and runs it, returning the
// process exit status.
func runMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := getopt.New()
	opts.SetProgram("pawk")
	opts.SetParameters("[prog] [file ...]")
	fieldSep := opts.String('F', "", "field separator (a single character or a regex)", "fs")
	progFiles := opts.List('f', "read program source from progfile (may be repeated)", "progfile")
	exprs := opts.List('e', "add program source text (may be repeated)", "prog")
	assigns := opts.List('v', "assign var before the program begins (may be repeated)", "var=value")
	debug := opts.Bool('d', "print the parsed program to stdout before running")
	showVersion := opts.BoolLong("version", 0, "print version and exit")
	help := opts.BoolLong("help", 'h', "show this help and exit")

	err := opts.Getopt(args, nil)
	if err != nil {
		errorf(stderr, "%s", err)
		opts.PrintUsage(stderr)
		return 2
	}
	if *help {
		opts.PrintUsage(stdout)
		return 0
	}
	if *showVersion {
		fmt.Fprintln(stdout, "pawk "+version)
		return 0
	}

	operands := opts.Args()

	// Assemble the program source: from -f and -e options if any were
	// given, otherwise from the first operand.
	fr := &parseutil.FileReader{}
	if len(*progFiles) > 0 || len(*exprs) > 0 {
		for _, path := range *progFiles {
			if path == "-" {
				if f, ok := stdin.(*os.File); ok && term.IsTerminal(f.Fd()) {
					fmt.Fprintln(stderr, "pawk: reading program from terminal (end with ctrl-D)")
				}
				err = fr.AddFile("<stdin>", stdin)
			} else {
				f, openErr := os.Open(path)
				if openErr != nil {
					errorf(stderr, "%s", openErr)
					return 2
				}
				err = fr.AddFile(path, f)
				f.Close()
			}
			if err != nil {
				errorf(stderr, "%s", err)
				return 2
			}
		}
		for _, src := range *exprs {
			fr.AddFile("<cmdline>", strings.NewReader(src))
		}
	} else {
		if len(operands) == 0 {
			opts.PrintUsage(stderr)
			return 2
		}
		fr.AddFile("<cmdline>", strings.NewReader(operands[0]))
		operands = operands[1:]
	}

	var parserConfig *parser.ParserConfig
	if *debug {
		parserConfig = &parser.ParserConfig{DebugWriter: stdout}
	}
	prog, err := parser.ParseProgram(fr.Source(), parserConfig)
	if err != nil {
		if parseErr, ok := err.(*parser.ParseError); ok {
			path, line := fr.FileLine(parseErr.Position.Line)
			if path == "" {
				path, line = "<cmdline>", parseErr.Position.Line
			}
			errorf(stderr, "%s:%d:%d: %s", path, line, parseErr.Position.Column, parseErr.Message)
		} else {
			errorf(stderr, "%s", err)
		}
		return 2
	}

	var vars []string
	if *fieldSep != "" {
		vars = append(vars, "FS", lexer.Unescape(*fieldSep))
	}
	for _, v := range *assigns {
		eq := strings.IndexByte(v, '=')
		if eq < 0 {
			errorf(stderr, "invalid variable assignment %q", v)
			return 2
		}
		vars = append(vars, v[:eq], lexer.Unescape(v[eq+1:]))
	}

	config := &interp.Config{
		Stdin:  stdin,
		Output: stdout,
		Error:  stderr,
		Args:   operands,
		Vars:   vars,
	}
	status, err := interp.ExecProgram(prog, config)
	if err != nil {
		errorf(stderr, "%s", err)
		return 2
	}
	return status
}

// errorf prints an error message to stderr, in red when stderr is a
// terminal.
func errorf(w io.Writer, format string, args ...interface{}) {
	msg := "pawk: " + fmt.Sprintf(format, args...)
	if f, ok := w.(*os.File); ok && term.IsTerminal(f.Fd()) {
		color.New(color.FgRed).Fprintln(w, msg)
		return
	}
	fmt.Fprintln(w, msg)
}
