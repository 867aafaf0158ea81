//go:build !linux && !aix && !zos && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !solaris

package term

// No terminal detection on this platform; colorized output and the
// interactive-stdin warning are simply disabled.
func isTerminal(fd uintptr) bool {
	return false
}
