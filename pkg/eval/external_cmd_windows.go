//go:build windows

package eval

import (
	"os"
	"syscall"
)

// Windows has no signals in the POSIX sense; a process ended by anything
// other than its own exit still reports an exit code.

func isSIGPIPE(syscall.Signal) bool { return false }

func terminationSignal(*os.ProcessState) (syscall.Signal, bool) { return 0, false }
