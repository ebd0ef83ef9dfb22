//go:build unix

package shell

import (
	"fmt"
	"os"
	"syscall"

	"src.kelp.sh/pkg/sys"
)

func ignoreSignal(sig os.Signal) bool {
	// SIGURG is used internally by the Go runtime and occurs with great
	// frequency.
	return sig == syscall.SIGURG
}

func handleSignal(sig os.Signal, stderr *os.File) {
	switch sig {
	case syscall.SIGHUP:
		syscall.Kill(0, syscall.SIGHUP)
		os.Exit(0)
	case syscall.SIGUSR1:
		fmt.Fprint(stderr, sys.DumpStack())
	}
}
