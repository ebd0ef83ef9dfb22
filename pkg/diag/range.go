package diag

// Ranger wraps the Range method.
type Ranger interface {
	// Range returns the range associated with the value.
	Range() Ranging
}

// Ranging represents a range [From, To) of byte offsets. Offsets are global:
// every source unit registered with the engine is assigned a disjoint offset
// range, so rangings remain unique and comparable across files. Structs can
// embed Ranging to satisfy the [Ranger] interface.
//
// Ideally, this type would be called Range. However, doing that means structs
// embedding this type will have Range as a field instead of a method, thus not
// implementing the [Ranger] interface.
type Ranging struct {
	From int
	To   int
}

// Unknown is the sentinel range carried by synthetic values that have no
// corresponding source text. Rangings are never fabricated; code that creates
// a value out of thin air must use Unknown explicitly.
var Unknown = Ranging{-1, -1}

// Range returns the Ranging itself.
func (r Ranging) Range() Ranging { return r }

// IsUnknown reports whether the Ranging is the Unknown sentinel.
func (r Ranging) IsUnknown() bool { return r.From == -1 }

// PointRanging returns a zero-width Ranging at the given point.
func PointRanging(p int) Ranging {
	return Ranging{p, p}
}

// MixedRanging returns a Ranging from the start position of a to the end
// position of b.
func MixedRanging(a, b Ranger) Ranging {
	return Ranging{a.Range().From, b.Range().To}
}
