// Package parseutil helps assemble AWK source from multiple places:
// repeated -f and -e options concatenate into one program, and parse
// errors have to be reported against the file they came from.
package parseutil

import (
	"bytes"
	"io"
)

// FileReader joins source fragments into a single program, remembering
// how many lines each fragment contributed so a line number in the
// joined source can be traced back to its origin.
type FileReader struct {
	fragments []fragment
	source    bytes.Buffer
}

type fragment struct {
	path  string
	lines int
}

// AddFile reads a source fragment and appends it to the joined
// program. The path is only used for reporting (for -e fragments it's
// something like "<cmdline>"). A missing trailing newline is added so
// fragments never run together.
func (fr *FileReader) AddFile(path string, source io.Reader) error {
	offset := fr.source.Len()
	_, err := fr.source.ReadFrom(source)
	if err != nil {
		return err
	}
	if !bytes.HasSuffix(fr.source.Bytes(), []byte("\n")) {
		fr.source.WriteByte('\n')
	}
	added := fr.source.Bytes()[offset:]
	fr.fragments = append(fr.fragments, fragment{path, bytes.Count(added, []byte("\n"))})
	return nil
}

// FileLine maps a 1-based line number in the joined source to the path
// and local line number of the fragment it came from. It returns
// ("", 0) if the line is out of range.
func (fr *FileReader) FileLine(line int) (path string, fileLine int) {
	if line < 1 {
		return "", 0
	}
	for _, f := range fr.fragments {
		if line <= f.lines {
			return f.path, line
		}
		line -= f.lines
	}
	return "", 0
}

// Source returns the joined source of all fragments added so far.
func (fr *FileReader) Source() []byte {
	return fr.source.Bytes()
}
