// Stream wrappers behind getline and print redirection: files and
// shell commands with a common close/flush interface that reports the
// exit code, for close() and system().

package interp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// notClosedExitCode is what ExitCode() reports before a stream is
// closed (and always, for files).
const notClosedExitCode = 0

// waitExitCode turns the error from exec.Cmd.Wait into an AWK-style
// exit code: the process's exit status, 256+signal if it was killed
// by a signal, or 512+signal if it also dumped core, mirroring how
// the one-true-awk reports these.
func waitExitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		if !ok {
			return exitErr.ExitCode()
		}
		switch {
		case status.Signaled() && status.CoreDump():
			return 512 + int(status.Signal())
		case status.Signaled():
			return 256 + int(status.Signal())
		default:
			return status.ExitStatus()
		}
	}
	return -1
}

type doubleCloseError struct {
	name string
}

func (e *doubleCloseError) Error() string {
	return fmt.Sprintf("%q already closed", e.name)
}

// outputStream is the destination of a print redirection: a file, an
// append file, a shell command's stdin, or a null sink.
type outputStream interface {
	io.Writer
	Flush() error
	Close() error
	// ExitCode returns the stream's exit status after Close (always 0
	// for files).
	ExitCode() int
}

type outputFile struct {
	f      *os.File
	w      *bufio.Writer
	name   string
	closed bool
}

func newOutputFile(f *os.File, name string) *outputFile {
	return &outputFile{f: f, w: bufio.NewWriterSize(f, 4096), name: name}
}

func (s *outputFile) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *outputFile) Flush() error {
	return s.w.Flush()
}

func (s *outputFile) Close() error {
	if s.closed {
		return &doubleCloseError{s.name}
	}
	s.closed = true
	return firstError(s.w.Flush(), s.f.Close())
}

func (s *outputFile) ExitCode() int {
	return notClosedExitCode
}

// outputCmd is a shell command being written to via print | "cmd".
// The command's own stdout and stderr are captured in private buffers
// while it runs (the copier goroutines exec starts must not touch the
// interpreter's writers concurrently) and handed to dest and errDest
// on Close, after Wait has stopped the copiers.
type outputCmd struct {
	stdin    io.WriteCloser
	w        *bufio.Writer
	cmd      *exec.Cmd
	name     string
	dest     io.Writer
	errDest  io.Writer
	outBuf   bytes.Buffer
	errBuf   bytes.Buffer
	closed   bool
	exitCode int
}

func newOutputCmd(cmd *exec.Cmd, stdin io.WriteCloser, name string, dest, errDest io.Writer) *outputCmd {
	s := &outputCmd{stdin: stdin, w: bufio.NewWriterSize(stdin, 4096), cmd: cmd, name: name,
		dest: dest, errDest: errDest}
	cmd.Stdout = &s.outBuf
	cmd.Stderr = &s.errBuf
	return s
}

func (s *outputCmd) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *outputCmd) Flush() error {
	return s.w.Flush()
}

// Close flushes and closes the command's stdin, waits for it to
// finish, and writes its captured output; the exit code is available
// from ExitCode afterwards.
func (s *outputCmd) Close() error {
	if s.closed {
		return &doubleCloseError{s.name}
	}
	s.closed = true
	flushErr := s.w.Flush()
	closeErr := s.stdin.Close()
	s.exitCode = waitExitCode(s.cmd.Wait())
	s.outBuf.WriteTo(s.dest)
	s.errBuf.WriteTo(s.errDest)
	return firstError(flushErr, closeErr)
}

func (s *outputCmd) ExitCode() int {
	return s.exitCode
}

// outputNull discards writes; used when a command fails to start.
type outputNull struct{}

func (outputNull) Write(p []byte) (int, error) { return len(p), nil }
func (outputNull) Flush() error                { return nil }
func (outputNull) Close() error                { return nil }
func (outputNull) ExitCode() int               { return notClosedExitCode }

// inputStream is the source of a getline redirection: a file or a
// shell command's stdout.
type inputStream interface {
	io.Reader
	io.Closer
	ExitCode() int
}

type inputFile struct {
	*os.File
	name   string
	closed bool
}

func newInputFile(f *os.File, name string) *inputFile {
	return &inputFile{File: f, name: name}
}

func (s *inputFile) Close() error {
	if s.closed {
		return &doubleCloseError{s.name}
	}
	s.closed = true
	return s.File.Close()
}

func (s *inputFile) ExitCode() int {
	return notClosedExitCode
}

// inputReader wraps the interpreter's stdin for getline <"-": Close
// only marks the stream closed, leaving the underlying reader usable
// for main input.
type inputReader struct {
	io.Reader
	name   string
	closed bool
}

func newInputReader(r io.Reader, name string) *inputReader {
	return &inputReader{Reader: r, name: name}
}

func (s *inputReader) Close() error {
	if s.closed {
		return &doubleCloseError{s.name}
	}
	s.closed = true
	return nil
}

func (s *inputReader) ExitCode() int {
	return notClosedExitCode
}

// inputCmd is a shell command being read via "cmd" | getline. As with
// outputCmd, the command's stderr is captured privately while it runs
// and written to errDest on Close.
type inputCmd struct {
	stdout   io.ReadCloser
	cmd      *exec.Cmd
	name     string
	errDest  io.Writer
	errBuf   bytes.Buffer
	closed   bool
	exitCode int
}

func newInputCmd(cmd *exec.Cmd, stdout io.ReadCloser, name string, errDest io.Writer) *inputCmd {
	s := &inputCmd{stdout: stdout, cmd: cmd, name: name, errDest: errDest}
	cmd.Stderr = &s.errBuf
	return s
}

func (s *inputCmd) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *inputCmd) Close() error {
	if s.closed {
		return &doubleCloseError{s.name}
	}
	s.closed = true
	err := s.stdout.Close()
	s.exitCode = waitExitCode(s.cmd.Wait())
	s.errBuf.WriteTo(s.errDest)
	return err
}

func (s *inputCmd) ExitCode() int {
	return s.exitCode
}

// firstError returns the first non-nil error of its arguments.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
