// Package term reports whether a file descriptor is attached to a
// terminal, which the CLI uses to decide whether to colorize errors
// and whether to warn about reading a program from an interactive
// stdin.
package term

// IsTerminal reports whether the given file descriptor is a terminal.
func IsTerminal(fd uintptr) bool {
	return isTerminal(fd)
}
