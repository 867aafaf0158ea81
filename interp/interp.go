// Package interp is the pawk interpreter, a simple tree-walker over
// the AST produced by the parser package.
//
// Use the top-level Exec function for basic usage. For more control
// (custom variables, restricted I/O, and so on), parse the program
// yourself and call ExecProgram with a Config.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coregx/coregex"

	. "github.com/posixtools/pawk/lexer"
	. "github.com/posixtools/pawk/parser"
)

var (
	errExit     = fmt.Errorf("exit")
	errBreak    = fmt.Errorf("break")
	errContinue = fmt.Errorf("continue")
	errNext     = fmt.Errorf("next")
	errNextfile = fmt.Errorf("nextfile")

	crlfNewline = runtime.GOOS == "windows"
	varRegex    = coregex.MustCompile(`^([_a-zA-Z][_a-zA-Z0-9]*)=(.*)`)

	defaultShellCommand = []string{"sh", "-c"}
)

const (
	maxCachedRegexes = 100
	maxCachedFormats = 100
	outputBufSize    = 64 * 1024
	inputBufSize     = 64 * 1024
)

// Error (actually *Error) is returned by Exec and ExecProgram on
// interpreter error, for example a negative field index.
type Error struct {
	message string
}

func (e *Error) Error() string {
	return e.message
}

func newError(format string, args ...interface{}) error {
	return &Error{fmt.Sprintf(format, args...)}
}

// returnValue is a sentinel error used to unwind out of a user
// function body when a return statement executes.
type returnValue struct {
	Value value
}

func (r returnValue) Error() string {
	return "<return " + r.Value.str("%.6g") + ">"
}

// Config defines the interpretation environment: input, output,
// command-line variables and arguments, and the sandbox switches.
type Config struct {
	// Standard input reader (defaults to os.Stdin).
	Stdin io.Reader

	// Writer for print and printf output (defaults to a buffered
	// os.Stdout).
	Output io.Writer

	// Writer for non-fatal error messages (defaults to os.Stderr).
	Error io.Writer

	// The program's command-line arguments: ARGV[1] onwards. ARGV[0]
	// is always "awk".
	Args []string

	// List of name, value pairs assigned before BEGIN runs (as if by
	// the -v option; escape processing is the caller's job). Length
	// must be a multiple of 2.
	Vars []string

	// List of name, value pairs for the ENVIRON array. If nil,
	// os.Environ() is used.
	Environ []string

	// Disable system(), pipe redirection, and "cmd" | getline.
	NoExec bool

	// Disable print redirection to files.
	NoFileWrites bool

	// Disable getline redirection from files.
	NoFileReads bool

	// Treat var=value command-line arguments as filenames instead of
	// assignments.
	NoArgVars bool

	// Shell used for pipes and system() (defaults to {"sh", "-c"};
	// the command line is appended as the last argument).
	ShellCommand []string
}

// ExecProgram executes a parsed program with the given config and
// returns the exit status of the program (the value of any exit
// statement, otherwise zero).
func ExecProgram(program *Program, config *Config) (int, error) {
	if config == nil {
		config = &Config{}
	}
	if len(config.Vars)%2 != 0 {
		return 0, newError("length of config.Vars must be a multiple of 2, not %d", len(config.Vars))
	}
	if len(config.Environ)%2 != 0 {
		return 0, newError("length of config.Environ must be a multiple of 2, not %d", len(config.Environ))
	}

	p := newInterp(program)

	p.stdin = config.Stdin
	if p.stdin == nil {
		p.stdin = os.Stdin
	}
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	p.output = bufio.NewWriterSize(output, outputBufSize)
	errOutput := config.Error
	if errOutput == nil {
		errOutput = os.Stderr
	}
	p.errorOutput = bufio.NewWriterSize(errOutput, 4096)

	p.noExec = config.NoExec
	p.noFileWrites = config.NoFileWrites
	p.noFileReads = config.NoFileReads
	p.noArgVars = config.NoArgVars
	p.shellCommand = config.ShellCommand
	if p.shellCommand == nil {
		p.shellCommand = defaultShellCommand
	}

	environ := config.Environ
	env := make(map[string]value)
	if environ != nil {
		for i := 0; i < len(environ); i += 2 {
			env[environ[i]] = numStr(environ[i+1])
		}
	} else {
		for _, kv := range os.Environ() {
			eq := strings.IndexByte(kv, '=')
			if eq >= 0 {
				env[kv[:eq]] = numStr(kv[eq+1:])
			}
		}
	}
	p.arrays["ENVIRON"] = env

	p.setArray("ARGV", "0", str("awk"))
	p.argc = len(config.Args) + 1
	for i, arg := range config.Args {
		p.setArray("ARGV", strconv.Itoa(i+1), numStr(arg))
	}

	for i := 0; i < len(config.Vars); i += 2 {
		err := p.setVarError(config.Vars[i], numStr(config.Vars[i+1]))
		if err != nil {
			return 0, err
		}
	}

	defer p.closeAll()
	err := p.run()
	if err != nil {
		return 0, err
	}
	return p.exitStatus, nil
}

// Exec provides a simple way to parse and execute an AWK program: src
// is the program source, fieldSep the field separator (use " " for
// the default), input the program's standard input, and output the
// writer for print output (nil means os.Stdout).
func Exec(src, fieldSep string, input io.Reader, output io.Writer) error {
	prog, err := ParseProgram([]byte(src), nil)
	if err != nil {
		return err
	}
	config := &Config{
		Stdin:  input,
		Output: output,
		Error:  io.Discard,
		Vars:   []string{"FS", fieldSep},
	}
	_, err = ExecProgram(prog, config)
	return err
}

// interp holds the execution state: globals, the local-scope stack,
// special variables, the current record and its fields, and the
// redirection tables.
type interp struct {
	program   *Program
	functions map[string]*Function

	output      *bufio.Writer
	errorOutput *bufio.Writer

	vars          map[string]value
	arrays        map[string]map[string]value
	locals        []map[string]value
	localArrays   []map[string]string
	nilLocalArray int

	random     *rand.Rand
	randSeed   float64
	exitStatus int

	regexCache  map[string]*coregex.Regexp
	formatCache map[string]cachedFormat

	// main input state
	stdin         io.Reader
	input         io.Reader
	scanner       *bufio.Scanner
	inputBuffer   []byte
	filenameIndex int
	hadFiles      bool

	// getline and print redirection
	scanners      map[string]*bufio.Scanner
	inputStreams  map[string]inputStream
	outputStreams map[string]outputStream

	// sandbox switches
	noExec       bool
	noFileWrites bool
	noFileReads  bool
	noArgVars    bool
	shellCommand []string

	// current record ($0) and its fields, split lazily
	line            string
	lineIsTrueStr   bool
	fields          []string
	fieldsIsTrueStr []bool
	numFields       int
	haveFields      bool

	// special variables not kept in vars
	argc            int
	convertFormat   string
	outputFormat    string
	fieldSep        string
	fieldSepRegex   *coregex.Regexp
	recordSep       string
	recordSepRegex  *coregex.Regexp
	outputFieldSep  string
	outputRecordSep string
	subscriptSep    string
	matchLength     int
	matchStart      int
	filename        value
	fileLineNum     int
	lineNum         int
}

func newInterp(program *Program) *interp {
	p := &interp{
		program:       program,
		functions:     make(map[string]*Function, len(program.Functions)),
		vars:          make(map[string]value),
		arrays:        make(map[string]map[string]value),
		regexCache:    make(map[string]*coregex.Regexp, 10),
		formatCache:   make(map[string]cachedFormat, 10),
		scanners:      make(map[string]*bufio.Scanner),
		inputStreams:  make(map[string]inputStream),
		outputStreams: make(map[string]outputStream),
		random:        rand.New(rand.NewSource(0)),
		filenameIndex: 1, // ARGV[0] is the program name, not an input file

		convertFormat:   "%.6g",
		outputFormat:    "%.6g",
		fieldSep:        " ",
		recordSep:       "\n",
		outputFieldSep:  " ",
		outputRecordSep: "\n",
		subscriptSep:    "\x1c",
		filename:        str(""),
	}
	for _, f := range program.Functions {
		p.functions[f.Name] = f
	}
	return p
}

// run executes the BEGIN blocks, the main pattern-action loop, and
// the END blocks. An exit statement in BEGIN or the main loop still
// runs END; input is only read if there are actions or END blocks.
func (p *interp) run() error {
	err := p.execBegin(p.program.Begin)
	if err != nil && err != errExit {
		return err
	}
	if len(p.program.Actions) == 0 && len(p.program.End) == 0 {
		return nil
	}
	if err != errExit {
		err = p.execActions(p.program.Actions)
		if err != nil && err != errExit {
			return err
		}
	}
	err = p.execEnd(p.program.End)
	if err != nil && err != errExit {
		return err
	}
	return nil
}

func (p *interp) execBegin(begin []Stmts) error {
	for _, statements := range begin {
		err := p.executes(statements)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *interp) execActions(actions []*Action) error {
	inRange := make([]bool, len(actions))
lineLoop:
	for {
		line, err := p.nextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		p.setLine(line, false)

		for i, action := range actions {
			matched := false
			var err error
			switch len(action.Pattern) {
			case 0:
				// No pattern matches every line
				matched = true
			case 1:
				var v value
				v, err = p.evalSafe(action.Pattern[0])
				matched = v.boolean()
			case 2:
				// Range pattern, e.g. /start/,/stop/
				if !inRange[i] {
					var v value
					v, err = p.evalSafe(action.Pattern[0])
					inRange[i] = v.boolean()
				}
				matched = inRange[i]
				if err == nil && inRange[i] {
					var v value
					v, err = p.evalSafe(action.Pattern[1])
					if v.boolean() {
						inRange[i] = false
					}
				}
			}
			// A pattern expression can call a function that does next
			// or nextfile
			if err == errNext {
				continue lineLoop
			}
			if err == errNextfile {
				p.nextfile()
				continue lineLoop
			}
			if err != nil {
				return err
			}
			if !matched {
				continue
			}

			if action.Stmts == nil {
				// No action means the default: print the line
				writeOutput(p.output, p.line)
				writeOutput(p.output, p.outputRecordSep)
				continue
			}
			err = p.executes(action.Stmts)
			if err == errNext {
				continue lineLoop
			}
			if err == errNextfile {
				p.nextfile()
				continue lineLoop
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *interp) execEnd(end []Stmts) error {
	for _, statements := range end {
		err := p.executes(statements)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *interp) executes(stmts Stmts) error {
	for _, s := range stmts {
		err := p.execute(s)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *interp) execute(stmt Stmt) (execErr error) {
	defer func() {
		if r := recover(); r != nil {
			execErr = recoveredError(r)
		}
	}()

	switch s := stmt.(type) {
	case *PrintStmt:
		var line string
		if len(s.Args) > 0 {
			strs := make([]string, len(s.Args))
			for i, a := range s.Args {
				v := p.eval(a)
				strs[i] = v.str(p.outputFormat)
			}
			line = strings.Join(strs, p.outputFieldSep)
		} else {
			// "print" with no arguments prints the raw value of $0
			line = p.line
		}
		output := p.getOutputStream(s.Redirect, s.Dest)
		writeOutput(output, line)
		writeOutput(output, p.outputRecordSep)

	case *PrintfStmt:
		format := p.toString(p.eval(s.Args[0]))
		args := make([]value, len(s.Args)-1)
		for i, a := range s.Args[1:] {
			args[i] = p.eval(a)
		}
		output := p.getOutputStream(s.Redirect, s.Dest)
		writeOutput(output, p.sprintf(format, args))

	case *ExprStmt:
		p.eval(s.Expr)

	case *IfStmt:
		if p.eval(s.Cond).boolean() {
			return p.executes(s.Body)
		}
		return p.executes(s.Else)

	case *ForStmt:
		if s.Pre != nil {
			err := p.execute(s.Pre)
			if err != nil {
				return err
			}
		}
		for s.Cond == nil || p.eval(s.Cond).boolean() {
			err := p.executes(s.Body)
			if err == errBreak {
				break
			}
			if err != nil && err != errContinue {
				return err
			}
			if s.Post != nil {
				err := p.execute(s.Post)
				if err != nil {
					return err
				}
			}
		}

	case *ForInStmt:
		for index := range p.arrays[p.arrayName(s.Array)] {
			p.setVar(s.Var, str(index))
			err := p.executes(s.Body)
			if err == errBreak {
				break
			}
			if err == errContinue {
				continue
			}
			if err != nil {
				return err
			}
		}

	case *WhileStmt:
		for p.eval(s.Cond).boolean() {
			err := p.executes(s.Body)
			if err == errBreak {
				break
			}
			if err == errContinue {
				continue
			}
			if err != nil {
				return err
			}
		}

	case *DoWhileStmt:
		for {
			err := p.executes(s.Body)
			if err == errBreak {
				break
			}
			if err != nil && err != errContinue {
				return err
			}
			if !p.eval(s.Cond).boolean() {
				break
			}
		}

	case *BreakStmt:
		return errBreak
	case *ContinueStmt:
		return errContinue
	case *NextStmt:
		return errNext
	case *NextfileStmt:
		return errNextfile

	case *ExitStmt:
		if s.Status != nil {
			p.exitStatus = int(p.eval(s.Status).num())
		}
		return errExit

	case *ReturnStmt:
		var v value
		if s.Value != nil {
			v = p.eval(s.Value)
		}
		return returnValue{v}

	case *DeleteStmt:
		if len(s.Index) == 0 {
			// "delete a" clears the whole array
			name := p.arrayName(s.Array)
			for k := range p.arrays[name] {
				delete(p.arrays[name], k)
			}
		} else {
			index := p.evalIndex(s.Index)
			delete(p.arrays[p.arrayName(s.Array)], index)
		}

	case *BlockStmt:
		return p.executes(s.Body)

	default:
		panic(fmt.Sprintf("unexpected stmt type: %T", stmt))
	}
	return nil
}

// evalSafe evaluates an expression, converting a runtime panic into
// an error return (used where eval is called outside execute's
// recover, for example when evaluating patterns).
func (p *interp) evalSafe(expr Expr) (v value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return p.eval(expr), nil
}

// recoveredError converts a recovered panic value back into an error
// return: interpreter Errors and the control flow sentinels (which a
// user function call raises as panics) pass through; anything else is
// a genuine bug and re-panics.
func recoveredError(r interface{}) error {
	switch r := r.(type) {
	case *Error:
		return r
	case error:
		if r == errExit || r == errNext || r == errNextfile {
			return r
		}
	}
	panic(r)
}

func (p *interp) eval(expr Expr) value {
	switch e := expr.(type) {
	case *NumExpr:
		return num(e.Value)

	case *StrExpr:
		return str(e.Value)

	case *RegExpr:
		// Stand-alone /regex/ is equivalent to: $0 ~ /regex/
		re := p.mustCompile(e.Regex)
		return boolean(re.MatchString(p.line))

	case *UnaryExpr:
		v := p.eval(e.Value)
		return unaryFuncs[e.Op](p, v)

	case *BinaryExpr:
		left := p.eval(e.Left)
		switch e.Op {
		case AND:
			if !left.boolean() {
				return num(0)
			}
			return boolean(p.eval(e.Right).boolean())
		case OR:
			if left.boolean() {
				return num(1)
			}
			return boolean(p.eval(e.Right).boolean())
		default:
			right := p.eval(e.Right)
			return binaryFuncs[e.Op](p, left, right)
		}

	case *InExpr:
		// "in" tests membership without creating the element
		index := p.evalIndex(e.Index)
		_, ok := p.arrays[p.arrayName(e.Array)][index]
		return boolean(ok)

	case *CondExpr:
		if p.eval(e.Cond).boolean() {
			return p.eval(e.True)
		}
		return p.eval(e.False)

	case *FieldExpr:
		index := p.eval(e.Index)
		indexNum, err := index.numChecked()
		if err != nil {
			panic(newError("field index not a number: %q", p.toString(index)))
		}
		return p.getField(int(indexNum))

	case *VarExpr:
		return p.getVar(e.Name)

	case *IndexExpr:
		index := p.evalIndex(e.Index)
		return p.getArrayValue(e.Array, index)

	case *AssignExpr:
		right := p.eval(e.Right)
		p.assign(e.Left, right)
		return right

	case *AugAssignExpr:
		right := p.eval(e.Right)
		left := p.eval(e.Left)
		v := binaryFuncs[e.Op](p, left, right)
		p.assign(e.Left, v)
		return v

	case *IncrExpr:
		left := p.eval(e.Expr).num()
		var right float64
		switch e.Op {
		case INCR:
			right = left + 1
		case DECR:
			right = left - 1
		}
		rightValue := num(right)
		p.assign(e.Expr, rightValue)
		if e.Pre {
			return rightValue
		}
		return num(left)

	case *CallExpr:
		switch e.Func {
		case F_SPLIT:
			s := p.toString(p.eval(e.Args[0]))
			fieldSep := p.fieldSep
			if len(e.Args) == 3 {
				fieldSep = p.toString(p.eval(e.Args[2]))
			}
			array := e.Args[1].(*VarExpr).Name
			return num(float64(p.split(s, array, fieldSep)))
		case F_SUB, F_GSUB:
			regex := p.toString(p.eval(e.Args[0]))
			repl := p.toString(p.eval(e.Args[1]))
			var in string
			if len(e.Args) == 3 {
				in = p.toString(p.eval(e.Args[2]))
			} else {
				in = p.line
			}
			out, n := p.sub(regex, repl, in, e.Func == F_GSUB)
			if n > 0 {
				if len(e.Args) == 3 {
					p.assign(e.Args[2], str(out))
				} else {
					p.setLine(out, true)
				}
			}
			return num(float64(n))
		default:
			args := make([]value, len(e.Args))
			for i, a := range e.Args {
				args[i] = p.eval(a)
			}
			return p.call(e.Func, args)
		}

	case *UserCallExpr:
		return p.userCall(e.Name, e.Args)

	case *GetlineExpr:
		v, _ := p.evalGetline(e)
		return v

	case *GroupingExpr:
		return p.eval(e.Expr)

	case *MultiExpr:
		// The parser rejects these in expression position; if one
		// slips through it's a bug
		panic(newError("unexpected comma-separated expression: %s", expr))

	default:
		panic(fmt.Sprintf("unexpected expr type: %T", expr))
	}
}

// evalGetline performs one of the getline forms and returns 1 on
// success, 0 at end of input, and -1 on error, together with the
// stream name read from (so chained reads like
// "cmd" | getline a | getline b fetch successive records from the
// same command).
//
// The forms update different variables: plain getline sets $0, NF,
// NR, and FNR; getline var sets var, NR, and FNR; getline <file sets
// $0 and NF; getline var <file sets only var; cmd|getline sets $0,
// NF, and NR; cmd|getline var sets var and NR.
func (p *interp) evalGetline(e *GetlineExpr) (value, string) {
	var line string
	switch {
	case e.Command != nil:
		var name string
		if inner, ok := e.Command.(*GetlineExpr); ok && inner.Command != nil {
			_, name = p.evalGetline(inner)
		} else {
			name = p.toString(p.eval(e.Command))
		}
		scanner, err := p.getInputScannerPipe(name)
		if err != nil {
			panic(err)
		}
		if !scanner.Scan() {
			if scanner.Err() != nil {
				return num(-1), name
			}
			return num(0), name
		}
		line = scanner.Text()
		p.lineNum++
		if e.Target != nil {
			p.assign(e.Target, numStr(line))
		} else {
			p.setLine(line, false)
		}
		return num(1), name

	case e.File != nil:
		name := p.toString(p.eval(e.File))
		scanner, err := p.getInputScannerFile(name)
		if err != nil {
			if _, ok := err.(*Error); ok {
				panic(err)
			}
			// Can't open the file: getline returns -1 instead of
			// erroring out
			return num(-1), name
		}
		if !scanner.Scan() {
			if scanner.Err() != nil {
				return num(-1), name
			}
			return num(0), name
		}
		line = scanner.Text()
		if e.Target != nil {
			p.assign(e.Target, numStr(line))
		} else {
			p.setLine(line, false)
		}
		return num(1), name

	default:
		line, err := p.nextLine()
		if err == io.EOF {
			return num(0), ""
		}
		if err != nil {
			return num(-1), ""
		}
		if e.Target != nil {
			p.assign(e.Target, numStr(line))
		} else {
			p.setLine(line, false)
		}
		return num(1), ""
	}
}

func (p *interp) getVar(name string) value {
	if len(p.locals) > 0 {
		v, ok := p.locals[len(p.locals)-1][name]
		if ok {
			return v
		}
	}
	switch name {
	case "ARGC":
		return num(float64(p.argc))
	case "CONVFMT":
		return str(p.convertFormat)
	case "FILENAME":
		return p.filename
	case "FNR":
		return num(float64(p.fileLineNum))
	case "FS":
		return str(p.fieldSep)
	case "NF":
		p.ensureFields()
		return num(float64(p.numFields))
	case "NR":
		return num(float64(p.lineNum))
	case "OFMT":
		return str(p.outputFormat)
	case "OFS":
		return str(p.outputFieldSep)
	case "ORS":
		return str(p.outputRecordSep)
	case "RLENGTH":
		return num(float64(p.matchLength))
	case "RS":
		return str(p.recordSep)
	case "RSTART":
		return num(float64(p.matchStart))
	case "SUBSEP":
		return str(p.subscriptSep)
	default:
		return p.vars[name]
	}
}

func (p *interp) setVarError(name string, v value) error {
	if len(p.locals) > 0 {
		_, ok := p.locals[len(p.locals)-1][name]
		if ok {
			p.locals[len(p.locals)-1][name] = v
			return nil
		}
	}
	switch name {
	case "ARGC":
		p.argc = int(v.num())
	case "CONVFMT":
		p.convertFormat = p.toString(v)
	case "FILENAME":
		p.filename = v
	case "FNR":
		p.fileLineNum = int(v.num())
	case "FS":
		p.fieldSep = p.toString(v)
		if p.fieldSep != " " && utf8.RuneCountInString(p.fieldSep) > 1 {
			re, err := coregex.Compile(p.fieldSep)
			if err != nil {
				return newError("invalid regex %q: %s", p.fieldSep, err)
			}
			p.fieldSepRegex = re
		}
	case "NF":
		numFields := int(v.num())
		if numFields < 0 {
			return newError("NF set to negative value: %d", numFields)
		}
		p.setNumFields(numFields)
	case "NR":
		p.lineNum = int(v.num())
	case "OFMT":
		p.outputFormat = p.toString(v)
	case "OFS":
		p.outputFieldSep = p.toString(v)
	case "ORS":
		p.outputRecordSep = p.toString(v)
	case "RLENGTH":
		p.matchLength = int(v.num())
	case "RS":
		p.recordSep = p.toString(v)
		if len(p.recordSep) > 1 {
			re, err := coregex.Compile(p.recordSep)
			if err != nil {
				return newError("invalid regex %q: %s", p.recordSep, err)
			}
			p.recordSepRegex = re
		} else {
			p.recordSepRegex = nil
		}
	case "RSTART":
		p.matchStart = int(v.num())
	case "SUBSEP":
		p.subscriptSep = p.toString(v)
	default:
		p.vars[name] = v
	}
	return nil
}

func (p *interp) setVar(name string, v value) {
	err := p.setVarError(name, v)
	if err != nil {
		panic(err)
	}
}

// arrayName returns the actual array name to use: in a function,
// array parameters map back to the caller's array.
func (p *interp) arrayName(name string) string {
	if len(p.localArrays) > 0 {
		n, ok := p.localArrays[len(p.localArrays)-1][name]
		if ok {
			return n
		}
	}
	return name
}

// getArrayValue returns an array element. Referencing an element
// creates it (and the array), so "if (a[k]) ..." adds k to a.
func (p *interp) getArrayValue(name, index string) value {
	name = p.arrayName(name)
	array, ok := p.arrays[name]
	if !ok {
		array = make(map[string]value)
		p.arrays[name] = array
	}
	v, ok := array[index]
	if !ok {
		array[index] = value{}
	}
	return v
}

func (p *interp) setArray(name, index string, v value) {
	name = p.arrayName(name)
	array, ok := p.arrays[name]
	if !ok {
		array = make(map[string]value)
		p.arrays[name] = array
	}
	array[index] = v
}

func (p *interp) toString(v value) string {
	return v.str(p.convertFormat)
}

func (p *interp) mustCompile(regex string) *coregex.Regexp {
	if re, ok := p.regexCache[regex]; ok {
		return re
	}
	re, err := coregex.Compile(regex)
	if err != nil {
		panic(newError("invalid regex %q: %s", regex, err))
	}
	// Dumb, non-LRU cache: just cache the first N regexes
	if len(p.regexCache) < maxCachedRegexes {
		p.regexCache[regex] = re
	}
	return re
}

type binaryFunc func(p *interp, l, r value) value

var binaryFuncs = map[Token]binaryFunc{
	EQUALS: (*interp).equal,
	NOT_EQUALS: func(p *interp, l, r value) value {
		return p.not(p.equal(l, r))
	},
	LESS: (*interp).lessThan,
	LTE: func(p *interp, l, r value) value {
		return p.not(p.lessThan(r, l))
	},
	GREATER: func(p *interp, l, r value) value {
		return p.lessThan(r, l)
	},
	GTE: func(p *interp, l, r value) value {
		return p.not(p.lessThan(l, r))
	},
	ADD: func(p *interp, l, r value) value {
		return num(l.num() + r.num())
	},
	SUB: func(p *interp, l, r value) value {
		return num(l.num() - r.num())
	},
	MUL: func(p *interp, l, r value) value {
		return num(l.num() * r.num())
	},
	POW: func(p *interp, l, r value) value {
		return num(math.Pow(l.num(), r.num()))
	},
	DIV: func(p *interp, l, r value) value {
		rf := r.num()
		if rf == 0.0 {
			panic(newError("division by zero"))
		}
		return num(l.num() / rf)
	},
	MOD: func(p *interp, l, r value) value {
		rf := r.num()
		if rf == 0.0 {
			panic(newError("division by zero in mod"))
		}
		return num(math.Mod(l.num(), rf))
	},
	CONCAT: func(p *interp, l, r value) value {
		return str(p.toString(l) + p.toString(r))
	},
	MATCH: (*interp).regexMatch,
	NOT_MATCH: func(p *interp, l, r value) value {
		return p.not(p.regexMatch(l, r))
	},
}

// equal compares two values: as numbers unless either side is a true
// string, in which case both convert to strings.
func (p *interp) equal(l, r value) value {
	if l.isTrueStr() || r.isTrueStr() {
		return boolean(p.toString(l) == p.toString(r))
	}
	return boolean(l.num() == r.num())
}

func (p *interp) lessThan(l, r value) value {
	if l.isTrueStr() || r.isTrueStr() {
		return boolean(p.toString(l) < p.toString(r))
	}
	return boolean(l.num() < r.num())
}

func (p *interp) regexMatch(l, r value) value {
	re := p.mustCompile(p.toString(r))
	return boolean(re.MatchString(p.toString(l)))
}

type unaryFunc func(p *interp, v value) value

var unaryFuncs = map[Token]unaryFunc{
	NOT: (*interp).not,
	ADD: func(p *interp, v value) value {
		return num(v.num())
	},
	SUB: func(p *interp, v value) value {
		return num(-v.num())
	},
}

func (p *interp) not(v value) value {
	return boolean(!v.boolean())
}

// userCall calls a user-defined function: scalar arguments pass by
// value, array arguments by reference (via the localArrays name map).
// Missing arguments become uninitialized locals, with fresh arrays
// for array parameters.
func (p *interp) userCall(name string, args []Expr) value {
	f, ok := p.functions[name]
	if !ok {
		panic(newError("undefined function %q", name))
	}
	if len(args) > len(f.Params) {
		panic(newError("%q called with more arguments than declared", name))
	}

	locals := make(map[string]value, len(f.Params))
	arrays := make(map[string]string)
	for i, arg := range args {
		if f.Arrays[i] {
			a, ok := arg.(*VarExpr)
			if !ok {
				panic(newError("%s() argument %q must be an array", name, f.Params[i]))
			}
			arrays[f.Params[i]] = p.arrayName(a.Name)
		} else {
			locals[f.Params[i]] = p.eval(arg)
		}
	}
	for i := len(args); i < len(f.Params); i++ {
		if f.Arrays[i] {
			arrays[f.Params[i]] = "__nla" + strconv.Itoa(p.nilLocalArray)
			p.nilLocalArray++
		} else {
			locals[f.Params[i]] = value{}
		}
	}
	p.locals = append(p.locals, locals)
	p.localArrays = append(p.localArrays, arrays)

	err := p.executes(f.Body)

	p.locals = p.locals[:len(p.locals)-1]
	for i := len(args); i < len(f.Params); i++ {
		if f.Arrays[i] {
			p.nilLocalArray--
			delete(p.arrays, "__nla"+strconv.Itoa(p.nilLocalArray))
		}
	}
	p.localArrays = p.localArrays[:len(p.localArrays)-1]

	if r, ok := err.(returnValue); ok {
		return r.Value
	}
	if err != nil {
		// Runtime errors and the control flow sentinels (exit, next,
		// nextfile) unwind as panics; execute's recover in the calling
		// frame turns them back into error returns
		panic(err)
	}
	return value{}
}

func (p *interp) assign(left Expr, right value) {
	switch left := left.(type) {
	case *VarExpr:
		p.setVar(left.Name, right)
	case *IndexExpr:
		index := p.evalIndex(left.Index)
		p.setArray(left.Array, index, right)
	case *FieldExpr:
		index := p.eval(left.Index)
		indexNum, err := index.numChecked()
		if err != nil {
			panic(newError("field index not a number: %q", p.toString(index)))
		}
		p.setField(int(indexNum), p.toString(right))
	default:
		panic(fmt.Sprintf("unexpected lvalue type: %T", left))
	}
}

// evalIndex joins multiple subscripts with SUBSEP, so a[1, 2] is the
// element a["1" SUBSEP "2"].
func (p *interp) evalIndex(indexExprs []Expr) string {
	if len(indexExprs) == 1 {
		return p.toString(p.eval(indexExprs[0]))
	}
	indices := make([]string, len(indexExprs))
	for i, expr := range indexExprs {
		indices[i] = p.toString(p.eval(expr))
	}
	return strings.Join(indices, p.subscriptSep)
}

// srand seeds the random number generator and returns the previous
// seed (time-based when called without an argument).
func (p *interp) srand(args []value) float64 {
	prevSeed := p.randSeed
	if len(args) == 0 {
		p.random.Seed(time.Now().UnixNano())
	} else {
		p.randSeed = args[0].num()
		p.random.Seed(int64(math.Float64bits(p.randSeed)))
	}
	return prevSeed
}
