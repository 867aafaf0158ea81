// Input/output handling: the main input loop over ARGV, record
// scanning for the RS modes, lazy field splitting, and the redirection
// tables used by print, printf, and getline.

package interp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/coregx/coregex"

	. "github.com/posixtools/pawk/lexer"
	. "github.com/posixtools/pawk/parser"
)

// Records longer than this cause a scan error.
const maxRecordLength = 10 * 1024 * 1024

func (p *interp) setFile(filename string) {
	p.filename = numStr(filename)
	p.fileLineNum = 0
}

// setLine sets the current record ($0). Fields are split lazily on
// first access. isTrueStr distinguishes a directly-assigned $0 (a
// true string) from one read from input (a numeric string).
func (p *interp) setLine(line string, isTrueStr bool) {
	p.line = line
	p.lineIsTrueStr = isTrueStr
	p.haveFields = false
}

// ensureFields splits the current record into fields. FS " " (the
// default) splits on runs of whitespace; a single-character FS splits
// literally; anything longer is a regex.
func (p *interp) ensureFields() {
	if p.haveFields {
		return
	}
	p.haveFields = true

	switch {
	case p.fieldSep == " ":
		p.fields = strings.Fields(p.line)
	case p.line == "":
		p.fields = nil
	case utf8.RuneCountInString(p.fieldSep) <= 1:
		p.fields = strings.Split(p.line, p.fieldSep)
	default:
		p.fields = p.fieldSepRegex.Split(p.line, -1)
	}

	// In paragraph mode (RS == "") with a simple FS, newline always
	// separates fields as well
	if p.recordSep == "" && utf8.RuneCountInString(p.fieldSep) <= 1 {
		fields := make([]string, 0, len(p.fields))
		for _, field := range p.fields {
			for _, line := range strings.Split(field, "\n") {
				fields = append(fields, strings.TrimSuffix(line, "\r"))
			}
		}
		p.fields = fields
	}

	p.fieldsIsTrueStr = p.fieldsIsTrueStr[:0]
	for range p.fields {
		p.fieldsIsTrueStr = append(p.fieldsIsTrueStr, false)
	}
	p.numFields = len(p.fields)
}

// getField returns $index: $0 is the raw record, fields read from
// input are numeric strings, assigned fields are true strings.
func (p *interp) getField(index int) value {
	if index < 0 {
		panic(newError("field index negative: %d", index))
	}
	if index == 0 {
		if p.lineIsTrueStr {
			return str(p.line)
		}
		return numStr(p.line)
	}
	p.ensureFields()
	if index > len(p.fields) {
		return str("")
	}
	if p.fieldsIsTrueStr[index-1] {
		return str(p.fields[index-1])
	}
	return numStr(p.fields[index-1])
}

// setField sets $index, growing the fields with empty strings if
// needed, and rebuilds $0 joined on OFS. Setting $0 re-splits instead.
func (p *interp) setField(index int, value string) {
	if index < 0 {
		panic(newError("field index negative: %d", index))
	}
	if index == 0 {
		p.setLine(value, true)
		return
	}
	p.ensureFields()
	for i := len(p.fields); i < index; i++ {
		p.fields = append(p.fields, "")
		p.fieldsIsTrueStr = append(p.fieldsIsTrueStr, true)
	}
	p.fields[index-1] = value
	p.fieldsIsTrueStr[index-1] = true
	p.numFields = len(p.fields)
	p.rebuildLine()
}

// setNumFields handles assignment to NF: shrinking drops fields,
// growing adds empty ones, and $0 is rebuilt either way.
func (p *interp) setNumFields(numFields int) {
	p.ensureFields()
	if numFields == len(p.fields) {
		return
	}
	if numFields < len(p.fields) {
		p.fields = p.fields[:numFields]
		p.fieldsIsTrueStr = p.fieldsIsTrueStr[:numFields]
	}
	for i := len(p.fields); i < numFields; i++ {
		p.fields = append(p.fields, "")
		p.fieldsIsTrueStr = append(p.fieldsIsTrueStr, true)
	}
	p.numFields = numFields
	p.rebuildLine()
}

func (p *interp) rebuildLine() {
	p.line = strings.Join(p.fields, p.outputFieldSep)
	p.lineIsTrueStr = true
}

// nextLine reads the next record of main input, working through the
// ARGV filenames: "-" means stdin, an empty element is skipped, and
// var=value elements are variable assignments (with the same escape
// processing as string literals). With no filename arguments at all,
// stdin is read. Returns io.EOF when input is exhausted.
func (p *interp) nextLine() (string, error) {
	for {
		if p.scanner == nil {
			if prevInput, ok := p.input.(io.Closer); ok && p.input != p.stdin {
				prevInput.Close()
			}
			if p.filenameIndex >= p.argc && !p.hadFiles {
				p.input = p.stdin
				p.setFile("")
				p.hadFiles = true
			} else {
				if p.filenameIndex >= p.argc {
					return "", io.EOF
				}
				index := strconv.Itoa(p.filenameIndex)
				filename := p.toString(p.arrays["ARGV"][index])
				p.filenameIndex++

				matches := varRegex.FindStringSubmatch(filename)
				if len(matches) >= 3 && !p.noArgVars {
					err := p.setVarError(matches[1], numStr(Unescape(matches[2])))
					if err != nil {
						return "", err
					}
					continue
				} else if filename == "" {
					p.input = nil
					continue
				} else if filename == "-" {
					p.input = p.stdin
					p.setFile("")
					p.hadFiles = true
				} else {
					if p.noFileReads {
						return "", newError("can't read from file due to NoFileReads")
					}
					input, err := os.Open(filename)
					if err != nil {
						return "", err
					}
					p.input = input
					p.setFile(filename)
					p.hadFiles = true
				}
			}
			p.scanner = p.newScanner(p.input)
			if p.inputBuffer == nil {
				// Reuse the buffer between files
				p.inputBuffer = make([]byte, inputBufSize)
			}
			p.scanner.Buffer(p.inputBuffer, maxRecordLength)
		}
		if p.scanner.Scan() {
			break
		}
		err := p.scanner.Err()
		p.scanner = nil
		if err != nil {
			return "", fmt.Errorf("error reading from input: %s", err)
		}
	}
	p.lineNum++
	p.fileLineNum++
	return p.scanner.Text(), nil
}

// nextfile abandons the rest of the current input file; the next
// nextLine call moves on to the next ARGV element.
func (p *interp) nextfile() {
	p.scanner = nil
}

// newScanner creates a record scanner for the current RS mode:
// newline (default), paragraph mode for "", a literal byte for a
// single character, or a regex for anything longer.
func (p *interp) newScanner(input io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(input)
	switch {
	case p.recordSep == "\n":
		// Scanner default is to split on newlines
	case p.recordSep == "":
		scanner.Split(scanBlankLines)
	case len(p.recordSep) == 1:
		splitter := byteSplitter{p.recordSep[0]}
		scanner.Split(splitter.scan)
	default:
		splitter := regexSplitter{p.recordSepRegex}
		scanner.Split(splitter.scan)
	}
	return scanner
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}
	return data
}

// scanBlankLines is a split function for paragraph mode: records are
// separated by one or more blank lines, and leading blank lines are
// skipped.
func scanBlankLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	// Skip newlines at start of record
	i := 0
	for i < len(data) && (data[i] == '\n' || data[i] == '\r') {
		i++
	}
	for j := i; j < len(data); j++ {
		if data[j] != '\n' {
			continue
		}
		end := j
		switch {
		case j+1 < len(data) && data[j+1] == '\n':
			j += 2
		case j+2 < len(data) && data[j+1] == '\r' && data[j+2] == '\n':
			j += 3
		default:
			continue
		}
		// Consume blank lines after the record; any that spill into
		// the next chunk are skipped at the start of the next scan
		for j < len(data) && (data[j] == '\n' || data[j] == '\r') {
			j++
		}
		return j, dropCR(data[i:end]), nil
	}
	if atEOF {
		if i == len(data) {
			return len(data), nil, bufio.ErrFinalToken
		}
		token = bytes.TrimRight(data[i:], "\r\n")
		return len(data), token, nil
	}
	// Request more data
	return 0, nil, nil
}

// byteSplitter is a split function for a single-byte record separator.
type byteSplitter struct {
	sep byte
}

func (s byteSplitter) scan(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, s.sep); i >= 0 {
		// We have a full sep-terminated record
		return i + 1, data[:i], nil
	}
	// If at EOF, we have a final, non-terminated record; return it
	if atEOF {
		return len(data), data, nil
	}
	// Request more data
	return 0, nil, nil
}

// regexSplitter is a split function for a regex record separator
// (RS longer than one character).
type regexSplitter struct {
	re *coregex.Regexp
}

func (s regexSplitter) scan(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	loc := s.re.FindIndex(data)
	// Note: for a regex such as "()", loc[0]==loc[1]; fall back to
	// treating the rest of the input as one record.
	if loc != nil && loc[0] != loc[1] {
		if !atEOF && loc[1] == len(data) {
			// The separator match may extend with more input
			return 0, nil, nil
		}
		return loc[1], data[:loc[0]], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	// Request more data
	return 0, nil, nil
}

// getOutputStream returns the destination of a print or printf:
// the main output for no redirection, otherwise the file or command
// stream for the destination expression, opening or starting it on
// first use.
func (p *interp) getOutputStream(redirect Token, dest Expr) io.Writer {
	if redirect == ILLEGAL {
		return p.output
	}
	name := p.toString(p.eval(dest))
	if redirect != PIPE {
		switch name {
		case "-", "/dev/stdout":
			return p.output
		case "/dev/stderr":
			return p.errorOutput
		}
	}
	if s, ok := p.outputStreams[name]; ok {
		return s
	}
	if _, ok := p.inputStreams[name]; ok {
		panic(newError("can't write to reader stream"))
	}

	switch redirect {
	case GREATER, APPEND:
		if p.noFileWrites {
			panic(newError("can't write to file due to NoFileWrites"))
		}
		flags := os.O_CREATE | os.O_WRONLY
		if redirect == GREATER {
			flags |= os.O_TRUNC
		} else {
			flags |= os.O_APPEND
		}
		f, err := os.OpenFile(name, flags, 0644)
		if err != nil {
			panic(newError("output redirection error: %s", err))
		}
		stream := newOutputFile(f, name)
		p.outputStreams[name] = stream
		return stream

	case PIPE:
		if p.noExec {
			panic(newError("can't write to pipe due to NoExec"))
		}
		cmd := p.execShell(name)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			panic(newError("error connecting to stdin pipe: %v", err))
		}
		// The stream captures the command's own output while it runs
		// and forwards it to the main outputs on close
		stream := newOutputCmd(cmd, stdin, name, p.output, p.errorOutput)
		p.flushOutputAndError()
		err = cmd.Start()
		if err != nil {
			p.printErrorf("%s\n", err)
			return outputNull{}
		}
		p.outputStreams[name] = stream
		return stream

	default:
		panic(fmt.Sprintf("unexpected redirect type %s", redirect))
	}
}

// getInputScannerFile returns the scanner for "getline <file",
// opening the file on first use. An open error is returned (not
// panicked) so getline can yield -1.
func (p *interp) getInputScannerFile(name string) (*bufio.Scanner, error) {
	if _, ok := p.outputStreams[name]; ok {
		return nil, newError("can't read from writer stream")
	}
	if _, ok := p.inputStreams[name]; ok {
		return p.scanners[name], nil
	}
	if name == "-" || name == "/dev/stdin" {
		if scanner, ok := p.scanners["-"]; ok {
			return scanner, nil
		}
		scanner := p.newScanner(p.stdin)
		scanner.Buffer(make([]byte, inputBufSize), maxRecordLength)
		p.scanners["-"] = scanner
		p.inputStreams["-"] = newInputReader(p.stdin, "-")
		return scanner, nil
	}
	if p.noFileReads {
		return nil, newError("can't read from file due to NoFileReads")
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	scanner := p.newScanner(f)
	scanner.Buffer(make([]byte, inputBufSize), maxRecordLength)
	p.scanners[name] = scanner
	p.inputStreams[name] = newInputFile(f, name)
	return scanner, nil
}

// getInputScannerPipe returns the scanner for `"cmd" | getline`,
// starting the command on first use.
func (p *interp) getInputScannerPipe(name string) (*bufio.Scanner, error) {
	if _, ok := p.outputStreams[name]; ok {
		return nil, newError("can't read from writer stream")
	}
	if _, ok := p.inputStreams[name]; ok {
		return p.scanners[name], nil
	}
	if p.noExec {
		return nil, newError("can't read from pipe due to NoExec")
	}
	cmd := p.execShell(name)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, newError("error connecting to stdout pipe: %v", err)
	}
	cmd.Stdin = p.stdin
	// The stream captures the command's stderr while it runs and
	// forwards it to the main error output on close
	stream := newInputCmd(cmd, stdout, name, p.errorOutput)
	p.flushOutputAndError()
	err = cmd.Start()
	if err != nil {
		p.printErrorf("%s\n", err)
		return bufio.NewScanner(strings.NewReader("")), nil
	}
	scanner := p.newScanner(stdout)
	scanner.Buffer(make([]byte, inputBufSize), maxRecordLength)
	p.scanners[name] = scanner
	p.inputStreams[name] = stream
	return scanner, nil
}

// execShell builds (but doesn't start) a shell command, normally
// equivalent to: sh -c "command".
func (p *interp) execShell(command string) *exec.Cmd {
	executable := p.shellCommand[0]
	args := make([]string, 0, len(p.shellCommand))
	args = append(args, p.shellCommand[1:]...)
	args = append(args, command)
	return exec.Command(executable, args...)
}

// writeOutput writes a string, converting newlines to \r\n on
// Windows. Write errors on the main output surface when it's flushed.
func writeOutput(w io.Writer, s string) {
	if crlfNewline {
		// First normalize to \n, then convert all newlines to \r\n
		s = strings.Replace(s, "\r\n", "\n", -1)
		s = strings.Replace(s, "\n", "\r\n", -1)
	}
	io.WriteString(w, s)
}

func (p *interp) printErrorf(format string, args ...interface{}) {
	fmt.Fprintf(p.errorOutput, format, args...)
}

// flushOutputAndError flushes the buffered main outputs, used before
// starting a subprocess so output ordering is preserved.
func (p *interp) flushOutputAndError() {
	p.output.Flush()
	p.errorOutput.Flush()
}

func (p *interp) flushWriter(name string, w *bufio.Writer) bool {
	err := w.Flush()
	if err != nil {
		p.printErrorf("error flushing %q: %v\n", name, err)
		return false
	}
	return true
}

// flushAll flushes the main outputs and every open output stream;
// used by fflush() with no argument.
func (p *interp) flushAll() bool {
	ok := p.flushWriter("stdout", p.output)
	if !p.flushWriter("stderr", p.errorOutput) {
		ok = false
	}
	for name, s := range p.outputStreams {
		err := s.Flush()
		if err != nil {
			p.printErrorf("error flushing %q: %v\n", name, err)
			ok = false
		}
	}
	return ok
}

// flushStream flushes a single named output stream, for
// fflush("name"). Flushing a name that isn't open returns false.
func (p *interp) flushStream(name string) bool {
	if s, ok := p.outputStreams[name]; ok {
		err := s.Flush()
		if err != nil {
			p.printErrorf("error flushing %q: %v\n", name, err)
			return false
		}
		return true
	}
	switch name {
	case "-", "/dev/stdout":
		return p.flushWriter("stdout", p.output)
	case "/dev/stderr":
		return p.flushWriter("stderr", p.errorOutput)
	}
	return false
}

// closeAll closes every open stream at the end of the run, reporting
// (but not failing on) close errors, and flushes the main outputs.
func (p *interp) closeAll() {
	if prevInput, ok := p.input.(io.Closer); ok && p.input != p.stdin {
		prevInput.Close()
	}
	p.output.Flush()
	for name, s := range p.inputStreams {
		err := s.Close()
		if err != nil {
			p.printErrorf("error closing input stream %q: %v\n", name, err)
		}
	}
	for name, s := range p.outputStreams {
		err := s.Close()
		if err != nil {
			p.printErrorf("error closing output stream %q: %v\n", name, err)
		}
	}
	p.output.Flush()
	p.errorOutput.Flush()
}
