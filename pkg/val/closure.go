package val

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
)

// Closure is a block reference bundled with a snapshot of the outer
// variables the block references, taken at definition time. Later mutations
// of the definition-site variables do not show through the snapshot.
//
// Closures compare by identity.
type Closure struct {
	Block    ast.BlockID
	Captures map[ast.VarID]Value
}

// Custom is the interface implemented by opaque values defined outside the
// core value model. Custom values are excluded from the wire round-trip
// guarantee; crossing a process boundary they degrade to their base value.
type Custom interface {
	// TypeName returns the name of the value's type.
	TypeName() string
	// Base converts the value to a value of one of the core kinds, for
	// display and serialization.
	Base(r diag.Ranging) (Value, error)
	// Equal compares the receiver to another value.
	Equal(other any) bool
}
