package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNum(t *testing.T) {
	tests := []struct {
		input string
		n     float64
		isNum bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"0", 0, true},
		{"42", 42, true},
		{"-5", -5, true},
		{"+3", 3, true},
		{".5", 0.5, true},
		{"3.", 3, true},
		{"1e3", 1000, true},
		{"1E-2", 0.01, true},
		{"  42  ", 42, true},
		{"\t-1.5\n", -1.5, true},
		{"3x", 0, false},
		{"x3", 0, false},
		{"0x1A", 0, false},
		{"Inf", 0, false},
		{"NaN", 0, false},
		{"- 5", 0, false},
		{"1 2", 0, false},
	}
	for _, test := range tests {
		n, isNum := parseNum(test.input)
		assert.Equal(t, test.isNum, isNum, "parseNum(%q) isNum", test.input)
		assert.Equal(t, test.n, n, "parseNum(%q) value", test.input)
	}
}

func TestParseFloatPrefix(t *testing.T) {
	tests := []struct {
		input string
		n     float64
	}{
		{"", 0},
		{"x", 0},
		{"3", 3},
		{"3x", 3},
		{"-2.5abc", -2.5},
		{"  7 ", 7},
		{"+", 0},
		{".", 0},
		{".5e2", 50},
		{"1e", 1},
		{"1e+", 1},
		{"1e2x", 100},
		{"0x10", 0},
	}
	for _, test := range tests {
		assert.Equal(t, test.n, parseFloatPrefix(test.input), "parseFloatPrefix(%q)", test.input)
	}
}

func TestValueNumStr(t *testing.T) {
	// Input that looks numeric compares as a number
	v := numStr("42")
	assert.False(t, v.isTrueStr())
	assert.Equal(t, 42.0, v.num())
	assert.Equal(t, "42", v.str("%.6g"))

	// Input that doesn't look numeric is a string (with a strtod-style
	// numeric prefix)
	v = numStr("42abc")
	assert.True(t, v.isTrueStr())
	assert.Equal(t, 42.0, v.num())

	// A string literal is always a true string, numeric-looking or not
	v = str("42")
	assert.True(t, v.isTrueStr())
	assert.Equal(t, 42.0, v.num())

	assert.False(t, num(3.5).isTrueStr())
}

func TestValueBoolean(t *testing.T) {
	assert.False(t, num(0).boolean())
	assert.True(t, num(0.5).boolean())
	assert.False(t, str("").boolean())
	assert.True(t, str("0").boolean()) // non-empty true string
	assert.False(t, numStr("0").boolean())
	assert.False(t, numStr(" 0 ").boolean())
	assert.True(t, numStr("0a").boolean())
	assert.False(t, value{}.boolean())
}

func TestValueStr(t *testing.T) {
	assert.Equal(t, "42", num(42).str("%.6g"))
	assert.Equal(t, "-42", num(-42).str("%.6g"))
	assert.Equal(t, "0", num(0).str("%.6g"))
	assert.Equal(t, "3.5", num(3.5).str("%.6g"))
	assert.Equal(t, "0.333333", num(1.0/3.0).str("%.6g"))
	assert.Equal(t, "1e+15", num(1e15).str("%.6g"))
	assert.Equal(t, "999999999999999", num(999999999999999).str("%.6g"))
	assert.Equal(t, "nan", num(math.NaN()).str("%.6g"))
	assert.Equal(t, "inf", num(math.Inf(1)).str("%.6g"))
	assert.Equal(t, "-inf", num(math.Inf(-1)).str("%.6g"))
	assert.Equal(t, "foo", str("foo").str("%.6g"))
	assert.Equal(t, "", value{}.str("%.6g"))
}

func TestValueNumChecked(t *testing.T) {
	n, err := num(3).numChecked()
	assert.NoError(t, err)
	assert.Equal(t, 3.0, n)

	n, err = numStr(" 12 ").numChecked()
	assert.NoError(t, err)
	assert.Equal(t, 12.0, n)

	n, err = str("12").numChecked()
	assert.NoError(t, err)
	assert.Equal(t, 12.0, n)

	_, err = str("x").numChecked()
	assert.Error(t, err)

	_, err = numStr("3abc").numChecked()
	assert.Error(t, err)
}
