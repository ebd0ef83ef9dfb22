//go:build !unix

package sys

// Tcsetpgrp is a no-op on systems without terminal process groups.
func Tcsetpgrp(fd int, pgid int) error { return nil }
