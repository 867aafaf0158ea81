// The dual string/number scalar value used everywhere in the
// interpreter.

package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type valueType uint8

const (
	typeNull valueType = iota
	typeStr
	typeNum
	typeNumStr
)

// value is an AWK scalar. AWK values carry both a string and a number
// side: which one an operation uses depends on how the value was made
// and what the operation is. A "numeric string" (typeNumStr) is a
// value that came from input (a field, getline, FILENAME, or a
// command-line assignment) and looks like a number; it compares
// numerically even though it's stored as a string.
type value struct {
	typ   valueType
	isNum bool // for typeNumStr: whether s is fully numeric
	s     string
	n     float64
}

// num creates a value from a number.
func num(n float64) value {
	return value{typ: typeNum, n: n}
}

// str creates a value from a string (a "true string": it always
// compares as a string, even if it looks numeric).
func str(s string) value {
	return value{typ: typeStr, s: s}
}

// numStr creates a value from input: if the string is numeric (with
// optional surrounding whitespace) it behaves like a number in
// comparisons, otherwise like a string.
func numStr(s string) value {
	n, isNum := parseNum(s)
	return value{typ: typeNumStr, isNum: isNum, s: s, n: n}
}

// boolean creates a 0 or 1 value from a bool.
func boolean(b bool) value {
	if b {
		return num(1)
	}
	return num(0)
}

// parseNum reports whether s is entirely a number (per the POSIX
// "looks numeric" rules: optional surrounding whitespace, sign,
// digits, fraction, exponent) and returns its value.
func parseNum(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	// Reject things ParseFloat allows but AWK doesn't treat as
	// numeric input, like "Inf", "NaN", and hex floats.
	c := t[0]
	if c != '+' && c != '-' && c != '.' && (c < '0' || c > '9') {
		return 0, false
	}
	if strings.ContainsAny(t, "xX") {
		return 0, false
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isTrueStr reports whether the value compares as a string: a string
// literal or concatenation result, or input that doesn't look numeric.
func (v value) isTrueStr() bool {
	switch v.typ {
	case typeStr:
		return true
	case typeNumStr:
		return !v.isNum
	default:
		return false
	}
}

// boolean returns the truth of the value: true strings are true if
// non-empty, everything else if non-zero.
func (v value) boolean() bool {
	if v.isTrueStr() {
		return v.s != ""
	}
	return v.num() != 0
}

// num returns the numeric side of the value. Strings convert like
// strtod: the longest numeric prefix counts, so "3x" is 3 and "x" 0.
func (v value) num() float64 {
	switch v.typ {
	case typeNum:
		return v.n
	case typeNumStr:
		if v.isNum {
			return v.n
		}
		return parseFloatPrefix(v.s)
	case typeStr:
		return parseFloatPrefix(v.s)
	default:
		return 0
	}
}

// numChecked is like num but fails on a string with no numeric prefix
// at all (used for field indexes, where $"x" is an error).
func (v value) numChecked() (float64, error) {
	if v.typ == typeStr || (v.typ == typeNumStr && !v.isNum) {
		t := strings.TrimSpace(v.s)
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, err
		}
		return n, nil
	}
	return v.num(), nil
}

// str returns the string side of the value. Numbers with integral
// values print as integers; other numbers use floatFormat (CONVFMT or
// OFMT).
func (v value) str(floatFormat string) string {
	switch v.typ {
	case typeNum:
		switch {
		case math.IsNaN(v.n):
			return "nan"
		case math.IsInf(v.n, 1):
			return "inf"
		case math.IsInf(v.n, -1):
			return "-inf"
		case v.n == float64(int64(v.n)) && v.n > -1e15 && v.n < 1e15:
			return strconv.FormatInt(int64(v.n), 10)
		default:
			return fmt.Sprintf(floatFormat, v.n)
		}
	case typeStr, typeNumStr:
		return v.s
	default:
		return ""
	}
}

// parseFloatPrefix parses the longest numeric prefix of s, like the C
// strtod function. It returns 0 if there's no numeric prefix.
func parseFloatPrefix(s string) float64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	gotDigit := false
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		gotDigit = true
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			gotDigit = true
		}
	}
	if !gotDigit {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := false
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			expDigits = true
		}
		if expDigits {
			i = j
		}
	}
	n, _ := strconv.ParseFloat(s[start:i], 64)
	return n
}
