//go:build unix

package sys

import "golang.org/x/sys/unix"

// Tcsetpgrp sets the foreground process group of the terminal referenced by
// fd.
func Tcsetpgrp(fd int, pgid int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid)
}
