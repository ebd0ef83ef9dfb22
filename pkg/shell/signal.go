package shell

import (
	"os"
	"os/signal"
	"syscall"

	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/sys"
)

// relaySignals makes process signals drive the interpreter: an interrupt or
// quit signal raises the session's interrupt flag, and other signals get
// platform-specific handling. The returned function stops the relay.
func relaySignals(intr *engine.Interrupt, stderr *os.File) func() {
	sigCh := sys.NotifySignals()
	go func() {
		for sig := range sigCh {
			if ignoreSignal(sig) {
				continue
			}
			logger.Println("signal", sig)
			switch sig {
			case os.Interrupt, syscall.SIGQUIT:
				intr.Trigger()
			default:
				handleSignal(sig, stderr)
			}
		}
	}()
	return func() { signal.Stop(sigCh) }
}
