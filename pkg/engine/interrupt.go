package engine

import (
	"sync/atomic"

	"src.kelp.sh/pkg/errs"
)

// Interrupt is the cancellation flag of one interpreter. The signal relay
// raises it when the user interrupts; evaluation polls it at suspension
// points: stream reads, loop bodies, subprocess waits and parallel
// dispatch. Within one top-level evaluation the flag only ever goes up;
// the REPL resets it between inputs.
//
// Methods are safe for concurrent use. A nil *Interrupt never reports an
// interrupt.
type Interrupt struct {
	set atomic.Bool
}

// Trigger raises the flag.
func (in *Interrupt) Trigger() { in.set.Store(true) }

// Reset lowers the flag.
func (in *Interrupt) Reset() { in.set.Store(false) }

// Triggered reports whether the flag is up.
func (in *Interrupt) Triggered() bool { return in != nil && in.set.Load() }

// Check returns errs.Interrupted if the flag is up.
func (in *Interrupt) Check() error {
	if in.Triggered() {
		return errs.Interrupted{}
	}
	return nil
}
