//go:build unix

package shell

import (
	"os"
	"syscall"

	"src.kelp.sh/pkg/sys"
)

// putSelfInFg makes the shell's process group the foreground process group
// of its terminal again, after a command in another group had it.
func putSelfInFg(tty *os.File) {
	err := sys.Tcsetpgrp(int(tty.Fd()), syscall.Getpgrp())
	if err != nil {
		logger.Println("failed to put self in foreground:", err)
	}
}
