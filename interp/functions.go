// Built-in function implementations, plus the split, sub/gsub, and
// sprintf guts used by the evaluator.

package interp

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	. "github.com/posixtools/pawk/lexer"
)

// call implements the built-in functions that take plain values
// (split, sub, and gsub are handled in eval because they modify their
// arguments).
func (p *interp) call(op Token, args []value) value {
	switch op {
	case F_ATAN2:
		return num(math.Atan2(args[0].num(), args[1].num()))
	case F_COS:
		return num(math.Cos(args[0].num()))
	case F_EXP:
		return num(math.Exp(args[0].num()))
	case F_LOG:
		return num(math.Log(args[0].num()))
	case F_SIN:
		return num(math.Sin(args[0].num()))
	case F_SQRT:
		return num(math.Sqrt(args[0].num()))

	case F_INT:
		return num(math.Trunc(args[0].num()))

	case F_RAND:
		return num(p.random.Float64())
	case F_SRAND:
		return num(p.srand(args))

	case F_INDEX:
		s := p.toString(args[0])
		substr := p.toString(args[1])
		return num(float64(strings.Index(s, substr) + 1))

	case F_LENGTH:
		switch len(args) {
		case 0:
			return num(float64(len(p.line)))
		default:
			return num(float64(len(p.toString(args[0]))))
		}

	case F_MATCH:
		re := p.mustCompile(p.toString(args[1]))
		loc := re.FindStringIndex(p.toString(args[0]))
		if loc == nil {
			p.matchStart = 0
			p.matchLength = -1
			return num(0)
		}
		p.matchStart = loc[0] + 1
		p.matchLength = loc[1] - loc[0]
		return num(float64(p.matchStart))

	case F_SPRINTF:
		return str(p.sprintf(p.toString(args[0]), args[1:]))

	case F_SUBSTR:
		s := p.toString(args[0])
		pos := int(args[1].num())
		if pos > len(s) {
			pos = len(s) + 1
		}
		if pos < 1 {
			pos = 1
		}
		maxLength := len(s) - pos + 1
		length := maxLength
		if len(args) == 3 {
			length = int(args[2].num())
			if length < 0 {
				length = 0
			}
			if length > maxLength {
				length = maxLength
			}
		}
		return str(s[pos-1 : pos-1+length])

	case F_TOLOWER:
		return str(strings.ToLower(p.toString(args[0])))
	case F_TOUPPER:
		return str(strings.ToUpper(p.toString(args[0])))

	case F_CLOSE:
		name := p.toString(args[0])
		if s, ok := p.inputStreams[name]; ok {
			err := s.Close()
			delete(p.inputStreams, name)
			delete(p.scanners, name)
			if err != nil {
				return num(-1)
			}
			return num(float64(s.ExitCode()))
		}
		if s, ok := p.outputStreams[name]; ok {
			err := s.Close()
			delete(p.outputStreams, name)
			if err != nil {
				return num(-1)
			}
			return num(float64(s.ExitCode()))
		}
		// Closing a stream that was never opened
		return num(-1)

	case F_FFLUSH:
		var ok bool
		if len(args) == 0 {
			ok = p.flushAll()
		} else {
			ok = p.flushStream(p.toString(args[0]))
		}
		if !ok {
			return num(-1)
		}
		return num(0)

	case F_SYSTEM:
		if p.noExec {
			panic(newError("can't call system() due to NoExec"))
		}
		cmdline := p.toString(args[0])
		cmd := p.execShell(cmdline)
		cmd.Stdin = p.stdin
		cmd.Stdout = p.output
		cmd.Stderr = p.errorOutput
		p.flushOutputAndError()
		err := cmd.Start()
		if err != nil {
			p.printErrorf("%s\n", err)
			return num(-1)
		}
		return num(float64(waitExitCode(cmd.Wait())))

	default:
		panic(fmt.Sprintf("unexpected function: %s", op))
	}
}

// split splits s into the named array on fs, replacing the array's
// previous contents. The elements are numeric strings, keyed "1"
// through "n".
func (p *interp) split(s, arrayName, fs string) int {
	var parts []string
	if fs == " " {
		parts = strings.Fields(s)
	} else if s == "" {
		// Leave parts 0 length on empty string
	} else if utf8.RuneCountInString(fs) <= 1 {
		parts = strings.Split(s, fs)
	} else {
		re := p.mustCompile(fs)
		parts = re.Split(s, -1)
	}
	array := make(map[string]value, len(parts))
	for i, part := range parts {
		array[strconv.Itoa(i+1)] = numStr(part)
	}
	p.arrays[p.arrayName(arrayName)] = array
	return len(array)
}

// sub substitutes the replacement for matches of regex in the input
// string (the first match, or all matches if global is true) and
// returns the result and the number of substitutions. In the
// replacement, "&" stands for the matched text and `\&` for a
// literal ampersand.
func (p *interp) sub(regex, repl, in string, global bool) (out string, n int) {
	re := p.mustCompile(regex)
	count := 0
	out = re.ReplaceAllStringFunc(in, func(s string) string {
		// Only do the first replacement for sub(), or all for gsub()
		if !global && count > 0 {
			return s
		}
		count++
		r := make([]byte, 0, 64)
		for i := 0; i < len(repl); i++ {
			switch repl[i] {
			case '&':
				r = append(r, s...)
			case '\\':
				i++
				if i < len(repl) {
					switch repl[i] {
					case '&': // \& means literal &
						r = append(r, '&')
					case '\\': // \\ means literal \
						r = append(r, '\\')
					default:
						r = append(r, '\\', repl[i])
					}
				} else {
					r = append(r, '\\')
				}
			default:
				r = append(r, repl[i])
			}
		}
		return string(r)
	})
	return out, count
}

type cachedFormat struct {
	format string
	types  []byte
}

// parseFmtTypes parses an AWK printf format string and returns a Go
// format string along with the argument types it requires. AWK's %c
// and %u don't exist in Go, so they're rewritten (to %s and %d) and
// the arguments converted to match.
func parseFmtTypes(s string) (format string, types []byte, err error) {
	out := []byte(s)
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		i++
		if i >= len(s) {
			return "", nil, errors.New("expected type specifier after %")
		}
		if s[i] == '%' {
			continue
		}
		for i < len(s) && bytes.IndexByte([]byte(" .-+*#0123456789"), s[i]) >= 0 {
			if s[i] == '*' {
				types = append(types, 'd')
			}
			i++
		}
		if i >= len(s) {
			return "", nil, errors.New("expected type specifier after %")
		}
		var t byte
		switch s[i] {
		case 'd', 'i', 'o', 'x', 'X':
			t = 'd'
		case 'u':
			t = 'u'
			out[i] = 'd'
		case 'c':
			t = 'c'
			out[i] = 's'
		case 'f', 'e', 'E', 'g', 'G':
			t = 'f'
		case 's':
			t = 's'
		default:
			return "", nil, fmt.Errorf("invalid format type %q", s[i])
		}
		types = append(types, t)
	}
	return string(out), types, nil
}

// sprintf implements printf-style formatting for printf and the
// sprintf function.
func (p *interp) sprintf(format string, args []value) string {
	convFormat, types, err := p.parseFmtTypesCached(format)
	if err != nil {
		panic(newError("format error: %s", err))
	}
	if len(types) > len(args) {
		panic(newError("format error: got %d args, expected %d", len(args), len(types)))
	}
	converted := make([]interface{}, len(types))
	for i, t := range types {
		a := args[i]
		var v interface{}
		switch t {
		case 'd':
			v = int(a.num())
		case 'u':
			v = uint32(a.num())
		case 'c':
			// %c prints the first byte of a string argument, or a
			// number as a character
			var c []byte
			if a.isTrueStr() {
				s := p.toString(a)
				if len(s) > 0 {
					c = []byte{s[0]}
				} else {
					c = []byte{0}
				}
			} else {
				c = []byte(string(rune(a.num())))
			}
			v = c
		case 'f':
			v = a.num()
		case 's':
			v = p.toString(a)
		}
		converted[i] = v
	}
	return fmt.Sprintf(convFormat, converted...)
}

func (p *interp) parseFmtTypesCached(s string) (string, []byte, error) {
	if cached, ok := p.formatCache[s]; ok {
		return cached.format, cached.types, nil
	}
	format, types, err := parseFmtTypes(s)
	if err != nil {
		return "", nil, err
	}
	if len(p.formatCache) < maxCachedFormats {
		p.formatCache[s] = cachedFormat{format, types}
	}
	return format, types, nil
}
