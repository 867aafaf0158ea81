package parseutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/posixtools/pawk/internal/parseutil"
)

func TestAddFile(t *testing.T) {
	fr := &parseutil.FileReader{}
	err := fr.AddFile("one.awk", strings.NewReader("BEGIN { x = 1 }"))
	assert.NoError(t, err)
	err = fr.AddFile("two.awk", strings.NewReader("END { print x }\n"))
	assert.NoError(t, err)

	// A missing trailing newline is added so fragments don't join
	assert.Equal(t, "BEGIN { x = 1 }\nEND { print x }\n", string(fr.Source()))
}

func TestFileLine(t *testing.T) {
	fr := &parseutil.FileReader{}
	fr.AddFile("one.awk", strings.NewReader("line 1\nline 2\n"))
	fr.AddFile("<cmdline>", strings.NewReader("line 3"))
	fr.AddFile("three.awk", strings.NewReader("line 4\nline 5\n"))

	tests := []struct {
		line     int
		path     string
		fileLine int
	}{
		{1, "one.awk", 1},
		{2, "one.awk", 2},
		{3, "<cmdline>", 1},
		{4, "three.awk", 1},
		{5, "three.awk", 2},
		{0, "", 0},
		{-1, "", 0},
		{6, "", 0},
	}
	for _, test := range tests {
		path, fileLine := fr.FileLine(test.line)
		assert.Equal(t, test.path, path, "line %d path", test.line)
		assert.Equal(t, test.fileLine, fileLine, "line %d fileLine", test.line)
	}
}

func TestEmptyReader(t *testing.T) {
	fr := &parseutil.FileReader{}
	assert.Equal(t, "", string(fr.Source()))
	path, line := fr.FileLine(1)
	assert.Equal(t, "", path)
	assert.Equal(t, 0, line)
}
