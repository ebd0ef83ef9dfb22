package engine

import (
	"sync"

	"src.kelp.sh/pkg/diag"
)

// Deprecations records the deprecated call sites that have already been
// reported, so each site warns at most once. Like Interrupt it is shared
// by every snapshot of one interpreter and is safe for concurrent use.
type Deprecations struct {
	mu   sync.Mutex
	seen map[diag.Ranging]bool
}

// Register records a call site and reports whether it was new.
func (d *Deprecations) Register(r diag.Ranging) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[r] {
		return false
	}
	if d.seen == nil {
		d.seen = make(map[diag.Ranging]bool)
	}
	d.seen[r] = true
	return true
}
