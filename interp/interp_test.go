// Test the interpreter by running programs against expected output

package interp_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/posixtools/pawk/interp"
	"github.com/posixtools/pawk/parser"
)

type interpTest struct {
	src string
	in  string
	out string
	err string // if non-empty, the error from ExecProgram must match this
}

var interpTests = []interpTest{
	// BEGIN, END, and the main loop
	{`BEGIN { print "b" } { print "m" } END { print "e" }`, "line\n", "b\nm\ne\n", ""},
	{`BEGIN { print "b"; exit; print "x" } END { print "e" }`, "", "b\ne\n", ""},
	{`END { print NR }`, "a\nb\nc\n", "3\n", ""},
	{`BEGIN { print "only" }`, "unread\n", "only\n", ""},

	// Patterns
	{`/foo/`, "a foo b\nbar\nfood\n", "a foo b\nfood\n", ""},
	{`$1 > 2`, "1\n3\n2.5\n", "3\n2.5\n", ""},
	{`NR == 2, NR == 3 { print NR }`, "a\nb\nc\nd\ne\n", "2\n3\n", ""},
	{`/B/, /C/`, "A\nB\nC\nD\n", "B\nC\n", ""},
	{`/X/, /X/`, "A\nX\nB\n", "X\n", ""},
	{`{ print /o/ ? "y" : "n" }`, "foo\nbar\n", "y\nn\n", ""},

	// print and printf
	{`{ print $2, $1 }`, "a b\n", "b a\n", ""},
	{`BEGIN { OFS = "-"; print 1, 2 }`, "", "1-2\n", ""},
	{`BEGIN { ORS = "|" } { print $0 }`, "a\nb\n", "a|b|", ""},
	{`BEGIN { print 1e15, 123456789012345 }`, "", "1e+15 123456789012345\n", ""},
	{`BEGIN { OFMT = "%.2f"; print 3.14159 }`, "", "3.14\n", ""},
	{`BEGIN { printf "%05d|%.2f|%s|%c|%c\n", 42, 3.14159, "str", 65, "hi" }`, "", "00042|3.14|str|A|h\n", ""},
	{`BEGIN { printf "%d %u %x", "3x", 42, 255 }`, "", "3 42 ff", ""},
	{`BEGIN { printf "%d" }`, "", "", "format error: got 0 args, expected 1"},
	{`BEGIN { printf "%z", 1 }`, "", "", "format error: invalid format type 'z'"},

	// Errors
	{`BEGIN { print 1 / 0 }`, "", "", "division by zero"},
	{`BEGIN { print 1 % 0 }`, "", "", "division by zero in mod"},
	{`BEGIN { x = 1; x /= 0 }`, "", "", "division by zero"},
	{`{ print $-1 }`, "x\n", "", "field index negative: -1"},
	{`BEGIN { $0 = "a"; print $"x" }`, "", "", `field index not a number: "x"`},
	{`{ NF = -1 }`, "x\n", "", "NF set to negative value: -1"},

	// Number/string comparisons
	{`{ print ($1 == 0.0) }`, "0.0\n", "1\n", ""},
	{`{ print ($1 == "0.0") }`, "0\n", "0\n", ""},
	{`BEGIN { print ("10" < "9") }`, "", "1\n", ""},
	{`{ print ($1 < $2) }`, "10 9\n", "0\n", ""},
	{`{ print ($1 < $2) }`, "abc abd\n", "1\n", ""},
	{`BEGIN { print (1 == 1.0), ("a" == "b"), (1 != 2), (2 <= 2), (3 >= 4) }`, "", "1 0 1 1 0\n", ""},

	// Concatenation and arithmetic
	{`BEGIN { print 1 - 1 " " 2 }`, "", "0 2\n", ""},
	{`BEGIN { x = "a"; y = "b"; print x y }`, "", "ab\n", ""},
	{`BEGIN { print "a" "b" "c" }`, "", "abc\n", ""},
	{`BEGIN { print 2 ^ 10, 7 % 3, 2 * 3 + 1 }`, "", "1024 1 7\n", ""},
	{`BEGIN { print -"3x", +"4", !0, !"", !"x" }`, "", "-3 4 1 1 0\n", ""},
	{`BEGIN { x = 5; print x++, x, ++x, x }`, "", "5 6 7 7\n", ""},
	{`BEGIN { x = 10; x -= 3; x *= 2; print x }`, "", "14\n", ""},
	{`BEGIN { print x, x + 0, x "" }`, "", " 0 \n", ""},
	{`BEGIN { print (1 && 2), (0 || ""), ("" || "x") }`, "", "1 0 1\n", ""},

	// Fields and NF
	{`{ $2 = "x"; print $0; print NF }`, "a b c\n", "a x c\n3\n", ""},
	{`{ $5 = "e"; print $0, NF }`, "a b\n", "a b   e 5\n", ""},
	{`{ NF = 2; print $0 }`, "a b c\n", "a b\n", ""},
	{`{ $0 = "x y z"; print $2, NF }`, "ignored\n", "y 3\n", ""},
	{`{ print $1, $2 }`, "  a\t\tb  \n", "a b\n", ""},
	{`{ print $99 "." }`, "a\n", ".\n", ""},
	{`BEGIN { $0 = "a b"; print $2, NF }`, "", "b 2\n", ""},
	{`BEGIN { FS = "," } { print $2 }`, "a,b,c\n", "b\n", ""},
	{`BEGIN { FS = "[,;]+" } { print $2 }`, "a,;b;c\n", "b\n", ""},

	// RS modes
	{`BEGIN { RS = ";" } { print $0 }`, "a;b;c", "a\nb\nc\n", ""},
	{`BEGIN { RS = "" } { print NF, $1, $3 }`, "a b\nc\n\nd e\n", "3 a c\n2 d \n", ""},
	{`BEGIN { RS = "x+" } { print $0 }`, "axxbxxxc", "a\nb\nc\n", ""},

	// getline
	{`{ getline; print "got", $0, NR }`, "a\nb\n", "got b 2\n", ""},
	{`{ getline x; print x, $0, NR }`, "a\nb\n", "b a 2\n", ""},
	{`{ getline; print NF }`, "a\nb c\n", "2\n", ""},
	{`BEGIN { while (("echo foo; echo bar" | getline line) > 0) print "got", line }`, "", "got foo\ngot bar\n", ""},
	{`BEGIN { "echo a b" | getline; print $2, NR }`, "", "b 1\n", ""},
	{`BEGIN { r = ("echo one; echo two" | getline a | getline b); print r, a, b }`, "", "1 one two\n", ""},
	{`BEGIN { print "pre"; r = ("echo one" | getline z); print "post", r, z }`, "", "pre\npost 1 one\n", ""},
	{`BEGIN { getline line <"-"; print line; print close("-") }`, "first\nsecond\n", "first\n0\n", ""},

	// Arrays
	{`BEGIN { a["x"] = 1; print ("x" in a), ("y" in a) }`, "", "1 0\n", ""},
	{`BEGIN { if (a["x"]) print "yes"; n = 0; for (k in a) n++; print n }`, "", "1\n", ""},
	{`BEGIN { if ("x" in a) print "yes"; n = 0; for (k in a) n++; print n }`, "", "0\n", ""},
	{`BEGIN { a[1] = 1; a[2] = 2; delete a[1]; n = 0; for (k in a) n++; print n }`, "", "1\n", ""},
	{`BEGIN { a[1] = 1; a[2] = 2; delete a; n = 0; for (k in a) n++; print n }`, "", "0\n", ""},
	{`BEGIN { SUBSEP = ":"; a[1, 2] = 3; for (k in a) print k; print a["1:2"] }`, "", "1:2\n3\n", ""},
	{`BEGIN { a[1, 2] = 3; if ((1, 2) in a) print "yes" }`, "", "yes\n", ""},

	// split
	{`BEGIN { n = split("a:b:c", parts, ":"); print n, parts[2] }`, "", "3 b\n", ""},
	{`BEGIN { n = split("", parts, ":"); print n }`, "", "0\n", ""},
	{`BEGIN { n = split("a b  c", parts); print n }`, "", "3\n", ""},
	{`BEGIN { split("a1b22c", parts, "[0-9]+"); print parts[3] }`, "", "c\n", ""},
	{`BEGIN { split("5 10", parts); print (parts[1] < parts[2]) }`, "", "1\n", ""},

	// sub and gsub
	{`{ sub(/o+/, "0"); print }`, "foo boo\n", "f0 boo\n", ""},
	{`{ n = gsub(/o+/, "(&)"); print n, $0 }`, "foo boo\n", "2 f(oo) b(oo)\n", ""},
	{`BEGIN { s = "aaa"; n = gsub(/a/, "\\&", s); print n, s }`, "", "3 &&&\n", ""},
	{`{ gsub(/a/, "b", $1); print $0 }`, "aa aa\n", "bb aa\n", ""},
	{`{ sub(/b/, "x"); print $2 }`, "a b c\n", "x\n", ""},
	{`BEGIN { s = "abc"; n = sub(/z/, "y", s); print n, s }`, "", "0 abc\n", ""},

	// match and the other string functions
	{`BEGIN { print match("foobar", "o+"), RSTART, RLENGTH }`, "", "2 2 2\n", ""},
	{`BEGIN { print match("foo", "z"), RSTART, RLENGTH }`, "", "0 0 -1\n", ""},
	{`BEGIN { print substr("hello", 2, 3), substr("hello", 4), substr("hello", 2, -1) "." }`, "", "ell lo .\n", ""},
	{`BEGIN { print index("banana", "an"), index("banana", "x") }`, "", "2 0\n", ""},
	{`{ print length, length($2) }`, "abc de\n", "6 2\n", ""},
	{`BEGIN { print toupper("FooBar"), tolower("FooBar") }`, "", "FOOBAR foobar\n", ""},
	{`BEGIN { print sprintf("%03d-%s", 7, "x") }`, "", "007-x\n", ""},

	// Math functions
	{`BEGIN { print int(3.9), int(-3.9) }`, "", "3 -3\n", ""},
	{`BEGIN { print atan2(0, -1) }`, "", "3.14159\n", ""},
	{`BEGIN { print sqrt(16), exp(0), log(1) }`, "", "4 1 0\n", ""},
	{`BEGIN { print sin(0), cos(0) }`, "", "0 1\n", ""},
	{`BEGIN { srand(1); x = rand(); srand(1); y = rand(); print (x == y) }`, "", "1\n", ""},
	{`BEGIN { srand(5); print srand(3); print srand(1) }`, "", "5\n3\n", ""},

	// Control flow
	{`BEGIN { for (i = 0; i < 3; i++) printf "%d", i }`, "", "012", ""},
	{`BEGIN { i = 0; do { i++ } while (i < 3); print i }`, "", "3\n", ""},
	{`BEGIN { i = 0; while (i < 5) { i++; if (i == 2) continue; if (i == 4) break; printf "%d", i } print "" }`, "", "13\n", ""},
	{`{ if ($1 == "skip") next; print }`, "a\nskip\nb\n", "a\nb\n", ""},
	{`BEGIN { x = 3; print (x > 2 ? "big" : "small") }`, "", "big\n", ""},

	// User-defined functions
	{`function fib(n) { return n < 2 ? n : fib(n-1) + fib(n-2) }  BEGIN { print fib(10) }`, "", "55\n", ""},
	{`function fill(a) { a["x"] = 42 }  BEGIN { fill(arr); print arr["x"] }`, "", "42\n", ""},
	{`function f(a, b) { b = 7; return a + b }  BEGIN { b = 1; print f(2), b }`, "", "9 1\n", ""},
	{`function f(x) { x = 99 }  BEGIN { y = 1; f(y); print y }`, "", "1\n", ""},
	{`function f() { return }  BEGIN { x = f(); print "[" x "]" }`, "", "[]\n", ""},
	{`function f() { exit }  BEGIN { f(); print "not reached" } END { print "end" }`, "", "end\n", ""},
	{`function skip() { next }  { if ($1 == "b") skip(); print }`, "a\nb\nc\n", "a\nc\n", ""},
	{`function odd() { if (NR % 2 == 0) next; return 1 }  odd() { print }`, "a\nb\nc\n", "a\nc\n", ""},

	// Special variables
	{`{ print NR, FNR }`, "a\nb\n", "1 1\n2 2\n", ""},
	{`BEGIN { CONVFMT = "%.2g"; x = 3.14159; print x "" }`, "", "3.1\n", ""},
	{`BEGIN { print ARGC, ARGV[0] }`, "", "1 awk\n", ""},
	{`BEGIN { print _var }`, "", "42\n", ""},
	{`{ print FILENAME "." }`, "x\n", ".\n", ""},

	// system and command pipes
	{`BEGIN { system("echo sys"); print "after" }`, "", "sys\nafter\n", ""},
	{`BEGIN { print system("exit 3") }`, "", "3\n", ""},
	{`BEGIN { print "b\na" | "sort"; close("sort") }`, "", "a\nb\n", ""},
	{`BEGIN { print close("never opened") }`, "", "-1\n", ""},
	{`BEGIN { print fflush(), fflush("-"), fflush("no such stream") }`, "", "0 0 -1\n", ""},
}

func TestInterp(t *testing.T) {
	for _, test := range interpTests {
		testName := test.src
		if len(testName) > 70 {
			testName = testName[:70]
		}
		t.Run(testName, func(t *testing.T) {
			testPawk(t, test.src, test.in, test.out, test.err)
		})
	}
}

// testPawk parses and runs a program with the given stdin, asserting
// on the combined output (or the returned error).
func testPawk(t *testing.T, src, in, out, errStr string) {
	t.Helper()
	prog, err := parser.ParseProgram([]byte(src), nil)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	outBuf := &bytes.Buffer{}
	config := &interp.Config{
		Stdin:  strings.NewReader(in),
		Output: outBuf,
		Error:  outBuf,
		Vars:   []string{"_var", "42"},
	}
	_, err = interp.ExecProgram(prog, config)
	if errStr != "" {
		if err == nil || err.Error() != errStr {
			t.Fatalf("expected error %q, got %v", errStr, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if outBuf.String() != out {
		t.Fatalf("expected %q, got %q", out, outBuf.String())
	}
}

// runPawk is like testPawk but takes a full config (Output and Error
// are still pointed at the returned buffer) and returns the status.
func runPawk(t *testing.T, src string, config *interp.Config) (int, string, error) {
	t.Helper()
	prog, err := parser.ParseProgram([]byte(src), nil)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	outBuf := &bytes.Buffer{}
	config.Output = outBuf
	config.Error = outBuf
	if config.Stdin == nil {
		config.Stdin = strings.NewReader("")
	}
	status, err := interp.ExecProgram(prog, config)
	return status, outBuf.String(), err
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		src    string
		in     string
		out    string
		status int
	}{
		{`BEGIN { exit 3 }`, "", "", 3},
		{`BEGIN { exit }`, "", "", 0},
		{`{ exit 2 } END { print "end" }`, "x\n", "end\n", 2},
		{`END { exit 1 + 1 }`, "", "", 2},
		{`function f() { exit 3 }  BEGIN { f() } END { print "end" }`, "", "end\n", 3},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			status, out, err := runPawk(t, test.src, &interp.Config{Stdin: strings.NewReader(test.in)})
			if err != nil {
				t.Fatalf("execute error: %v", err)
			}
			if status != test.status {
				t.Fatalf("expected status %d, got %d", test.status, status)
			}
			if out != test.out {
				t.Fatalf("expected %q, got %q", test.out, out)
			}
		})
	}
}

func TestSandboxModes(t *testing.T) {
	tests := []struct {
		src    string
		config interp.Config
		err    string
	}{
		{`BEGIN { system("echo x") }`, interp.Config{NoExec: true}, "can't call system() due to NoExec"},
		{`BEGIN { print "x" | "cat" }`, interp.Config{NoExec: true}, "can't write to pipe due to NoExec"},
		{`BEGIN { "echo x" | getline }`, interp.Config{NoExec: true}, "can't read from pipe due to NoExec"},
		{`BEGIN { print "x" >"f" }`, interp.Config{NoFileWrites: true}, "can't write to file due to NoFileWrites"},
		{`BEGIN { getline <"f" }`, interp.Config{NoFileReads: true}, "can't read from file due to NoFileReads"},
	}
	for _, test := range tests {
		t.Run(test.err, func(t *testing.T) {
			config := test.config
			_, _, err := runPawk(t, test.src, &config)
			if err == nil || err.Error() != test.err {
				t.Fatalf("expected error %q, got %v", test.err, err)
			}
		})
	}
}

func TestConfigVarsError(t *testing.T) {
	prog, err := parser.ParseProgram([]byte(`BEGIN { }`), nil)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = interp.ExecProgram(prog, &interp.Config{Vars: []string{"FS"}})
	if err == nil || err.Error() != "length of config.Vars must be a multiple of 2, not 1" {
		t.Fatalf("expected Vars length error, got %v", err)
	}
	_, err = interp.ExecProgram(prog, &interp.Config{Environ: []string{"HOME"}})
	if err == nil || err.Error() != "length of config.Environ must be a multiple of 2, not 1" {
		t.Fatalf("expected Environ length error, got %v", err)
	}
}

func TestEnviron(t *testing.T) {
	status, out, err := runPawk(t, `BEGIN { print ENVIRON["FOO"] }`,
		&interp.Config{Environ: []string{"FOO", "bar"}})
	if err != nil || status != 0 {
		t.Fatalf("execute error: %v (status %d)", err, status)
	}
	if out != "bar\n" {
		t.Fatalf("expected %q, got %q", "bar\n", out)
	}
}

func TestMainInputFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := filepath.Join(dir, "one.txt")
	file2 := filepath.Join(dir, "two.txt")
	if err := os.WriteFile(file1, []byte("a1\na2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file2, []byte("b1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := `{ print FILENAME, NR, FNR, n, $0 }`
	_, out, err := runPawk(t, src, &interp.Config{Args: []string{file1, "n=5", file2}})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	expected := fmt.Sprintf("%s 1 1  a1\n%s 2 2  a2\n%s 3 1 5 b1\n", file1, file1, file2)
	if out != expected {
		t.Fatalf("expected %q, got %q", expected, out)
	}

	// With NoArgVars, "n=5" is opened as a filename instead
	_, _, err = runPawk(t, src, &interp.Config{Args: []string{"n=5"}, NoArgVars: true})
	if err == nil {
		t.Fatal("expected file open error with NoArgVars")
	}
}

func TestNextfile(t *testing.T) {
	dir := t.TempDir()
	file1 := filepath.Join(dir, "one.txt")
	file2 := filepath.Join(dir, "two.txt")
	if err := os.WriteFile(file1, []byte("a1\na2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file2, []byte("b1\nb2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, out, err := runPawk(t, `{ print $0; nextfile }`,
		&interp.Config{Args: []string{file1, file2}})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if out != "a1\nb1\n" {
		t.Fatalf("expected %q, got %q", "a1\nb1\n", out)
	}
}

func TestGetlineFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(file, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// getline var <file sets only var, not NR or $0
	src := fmt.Sprintf(`BEGIN {
    while ((getline line <%q) > 0)
        print "got", line, NR
    close(%q)
    print "missing:", (getline <"%s")
}`, file, file, filepath.Join(dir, "nope.txt"))
	_, out, err := runPawk(t, src, &interp.Config{})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	expected := "got one 0\ngot two 0\nmissing: -1\n"
	if out != expected {
		t.Fatalf("expected %q, got %q", expected, out)
	}
}

func TestRedirectFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.txt")

	src := fmt.Sprintf(`BEGIN {
    print "hello" >%q
    print "world" >>%q
    close(%q)
    while ((getline line <%q) > 0)
        print "read", line
}`, file, file, file, file)
	_, out, err := runPawk(t, src, &interp.Config{})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	expected := "read hello\nread world\n"
	if out != expected {
		t.Fatalf("expected %q, got %q", expected, out)
	}
}

// A parenthesized list before a redirection is the whole argument list:
// print (1, 2) > "x" prints two fields to the file.
func TestPrintParenListRedirect(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.txt")

	src := fmt.Sprintf(`BEGIN {
    print (1, 2) >%q
    close(%q)
    getline line <%q
    print "line:", line
}`, file, file, file)
	_, out, err := runPawk(t, src, &interp.Config{})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if out != "line: 1 2\n" {
		t.Fatalf("expected %q, got %q", "line: 1 2\n", out)
	}
}

func TestLongLine(t *testing.T) {
	line := strings.Repeat("x", 100000)
	testPawk(t, `{ print length($0) }`, line+"\n", "100000\n", "")
}

func TestExec(t *testing.T) {
	outBuf := &bytes.Buffer{}
	err := interp.Exec(`{ print $2 }`, ",", strings.NewReader("a,b\n"), outBuf)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if outBuf.String() != "b\n" {
		t.Fatalf("expected %q, got %q", "b\n", outBuf.String())
	}
}
