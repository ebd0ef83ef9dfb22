// Package mods collects the builtin command sets.
package mods

import (
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/mods/core"
	"src.kelp.sh/pkg/mods/fmts"
	"src.kelp.sh/pkg/mods/math"
	"src.kelp.sh/pkg/mods/stream"
)

// InstallAll adds every builtin command set that needs no extra state to the
// working set. The history commands are installed separately since they need
// an open store.
func InstallAll(ws *engine.WorkingSet) {
	core.Install(ws)
	stream.Install(ws)
	math.Install(ws)
	fmts.Install(ws)
}
