//go:build unix

package eval

import (
	"os"
	"syscall"
)

func isSIGPIPE(s syscall.Signal) bool {
	return s == syscall.SIGPIPE
}

// terminationSignal reports the signal that ended the process, if one did.
func terminationSignal(ps *os.ProcessState) (syscall.Signal, bool) {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return ws.Signal(), true
}
