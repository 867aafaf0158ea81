// Test pawk lexer

package lexer_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	. "github.com/posixtools/pawk/lexer"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"0", "1:1 number 0"},
		{"9", "1:1 number 9"},
		{" 0 ", "1:2 number 0"},
		{"\n  1", "1:1 <newline> , 2:3 number 1"},
		{"1234", "1:1 number 1234"},
		{".5", "1:1 number .5"},
		{".5e1", "1:1 number .5e1"},
		{"5e+1", "1:1 number 5e+1"},
		{"5e-1", "1:1 number 5e-1"},
		{"0.", "1:1 number 0."},
		{"42e", "1:1 number 42e"},
		{"4.2e", "1:1 number 4.2e"},
		{"1.e3", "1:1 number 1.e3"},
		{"1e3foo", "1:1 number 1e3, 1:4 name foo"},
		{"1e3+", "1:1 number 1e3, 1:4 + "},
		{"1e3.4", "1:1 number 1e3, 1:4 number .4"},
		{"1 \\\n 2", "1:1 number 1, 2:2 number 2"}, // continuation, no newline token
		{"42@", "1:1 number 42, 1:3 <illegal> unexpected '@'"},
		{"0..", "1:1 number 0., 1:4 <illegal> expected digits"},
		{".", "1:2 <illegal> expected digits"},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			l := NewLexer([]byte(test.input))
			strs := []string{}
			for {
				pos, tok, val := l.Scan()
				if tok == EOF {
					break
				}
				if tok == NUMBER {
					// Ensure ParseFloat() works after trimming a
					// dangling exponent char, as the parser does
					trimmed := strings.TrimRight(val, "eE")
					_, err := strconv.ParseFloat(trimmed, 64)
					if err != nil {
						t.Fatalf("couldn't parse float: %q", val)
					}
				}
				strs = append(strs, fmt.Sprintf("%d:%d %s %s", pos.Line, pos.Column, tok, val))
			}
			output := strings.Join(strs, ", ")
			if output != test.output {
				t.Errorf("expected %q, got %q", test.output, output)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{`"foo"`, `1:1 string foo`},
		{`""`, `1:1 string `},
		{`"a\tb"`, "1:1 string a\tb"},
		{`"a\nb"`, "1:1 string a\nb"},
		{`"a\"b"`, `1:1 string a"b`},
		{`"a\\b"`, `1:1 string a\b`},
		{`"a\/b"`, `1:1 string a/b`},
		{`"a\zb"`, `1:1 string a\zb`},
		{`"\101\60\7"`, "1:1 string A0\a"},
		{`"unterminated`, `1:1 <illegal> didn't find end quote in string`},
		{"\"newline\n\"", `1:1 <illegal> can't have newline in string`},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			l := NewLexer([]byte(test.input))
			pos, tok, val := l.Scan()
			output := fmt.Sprintf("%d:%d %s %s", pos.Line, pos.Column, tok, val)
			if output != test.output {
				t.Errorf("expected %q, got %q", test.output, output)
			}
		})
	}
}

func TestAllTokens(t *testing.T) {
	input := "# comment line\n" +
		"+ += && = : , -- /\n/= $ == >= > >> ++ { [ < ( #\n" +
		"<= ~ % %= * *= !~ ! != | || ^ ^= ** **= ? } ] ) ; - -= " +
		"BEGIN break continue delete do else END exit " +
		"for function getline if in next nextfile print printf return while " +
		"atan2 close cos exp fflush gsub index int length log match rand " +
		"sin split sprintf sqrt srand sub substr system tolower toupper " +
		"x \"str\\n\" 1234\n" +
		"@"

	strs := make([]string, 0, LAST+1)
	seen := make([]bool, LAST+1)
	l := NewLexer([]byte(input))
	for {
		_, tok, _ := l.Scan()
		strs = append(strs, tok.String())
		seen[int(tok)] = true
		if tok == EOF {
			break
		}
	}
	output := strings.Join(strs, " ")

	expected := "<newline> " +
		"+ += && = : , -- / <newline> /= $ == >= > >> ++ { [ < ( <newline> " +
		"<= ~ % %= * *= !~ ! != | || ^ ^= ^ ^= ? } ] ) ; - -= " +
		"BEGIN break continue delete do else END exit " +
		"for function getline if in next nextfile print printf return while " +
		"atan2 close cos exp fflush gsub index int length log match rand " +
		"sin split sprintf sqrt srand sub substr system tolower toupper " +
		"name string number <newline> " +
		"<illegal> EOF"
	if output != expected {
		t.Errorf("expected %q, got %q", expected, output)
	}

	for i, s := range seen {
		if !s && Token(i) != CONCAT && Token(i) != REGEX {
			t.Errorf("token %s (%d) not seen", Token(i), i)
		}
	}
}

func TestScanRegex(t *testing.T) {
	l := NewLexer([]byte(`/foo/`))
	_, tok1, _ := l.Scan()
	_, tok2, val := l.ScanRegex()
	if tok1 != DIV || tok2 != REGEX || val != "foo" {
		t.Errorf(`expected / regex "foo", got %s %s %q`, tok1, tok2, val)
	}

	l = NewLexer([]byte(`/=foo/`))
	_, tok1, _ = l.Scan()
	_, tok2, val = l.ScanRegex()
	if tok1 != DIV_ASSIGN || tok2 != REGEX || val != "=foo" {
		t.Errorf(`expected /= regex "=foo", got %s %s %q`, tok1, tok2, val)
	}

	l = NewLexer([]byte(`/a\/b\.c/`))
	_, tok1, _ = l.Scan()
	_, tok2, val = l.ScanRegex()
	if tok1 != DIV || tok2 != REGEX || val != `a/b\.c` {
		t.Errorf(`expected regex "a/b\.c", got %s %s %q`, tok1, tok2, val)
	}
}

func TestHadSpace(t *testing.T) {
	tests := []struct {
		input string
		tok   Token
		space []bool
	}{
		{`foo(x)`, NAME, []bool{false, false, false, false}},
		{`foo (x)`, NAME, []bool{false, true, false, false}},
		{"foo\t(x)", NAME, []bool{false, true, false, false}},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			l := NewLexer([]byte(test.input))
			for i, want := range test.space {
				_, tok, _ := l.Scan()
				if tok == EOF {
					t.Fatalf("unexpected EOF at token %d", i)
				}
				if l.HadSpace() != want {
					t.Errorf("token %d (%s): expected HadSpace %v, got %v", i, tok, want, l.HadSpace())
				}
			}
		})
	}
}

func TestPeekByte(t *testing.T) {
	l := NewLexer([]byte(`foo(x)`))
	b := l.PeekByte()
	if b != 'f' {
		t.Errorf("expected 'f', got %q", b)
	}
	_, tok, _ := l.Scan()
	if tok != NAME {
		t.Errorf("expected name, got %s", tok)
	}
	b = l.PeekByte()
	if b != '(' {
		t.Errorf("expected '(', got %q", b)
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{``, ``},
		{`foo`, `foo`},
		{`\t`, "\t"},
		{`\n`, "\n"},
		{`\r`, "\r"},
		{`a\tb`, "a\tb"},
		{`\a\b\f\v`, "\a\b\f\v"},
		{`\"`, `"`},
		{`\/`, `/`},
		{`\\`, `\`},
		{`\101\60\7`, "A0\a"},
		{`\0101`, "\0101"}, // octal escapes are at most 3 digits
		{`\z`, `\z`},
		{`trailing\`, `trailing\`},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got := Unescape(test.input)
			if got != test.output {
				t.Errorf("expected %q, got %q", test.output, got)
			}
		})
	}
}
