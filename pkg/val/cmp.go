package val

import (
	"cmp"
	"math"
	"time"
)

// Ordering is the relationship between two values.
type Ordering uint8

// Possible Ordering values.
const (
	CmpLess Ordering = iota
	CmpEqual
	CmpMore
	CmpUncomparable
)

// Cmp compares two values and returns the ordering relationship between
// them. Ints and floats compare numerically across the two kinds; bools,
// strings, dates, durations and filesizes compare within their kind; lists
// compare lexicographically. Cmp(a, b) returns CmpEqual iff Equal(a, b) is
// true or both a and b are NaNs.
func Cmp(a, b Value) Ordering {
	// Keep the branches in the same order as [Equal].
	switch ad := a.data.(type) {
	case bool:
		if bd, ok := b.data.(bool); ok {
			switch {
			case ad == bd:
				return CmpEqual
			case !ad:
				return CmpLess
			default:
				return CmpMore
			}
		}
	case int64:
		switch bd := b.data.(type) {
		case int64:
			return compareBuiltin(ad, bd)
		case float64:
			return compareFloat(float64(ad), bd)
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			return compareFloat(ad, float64(bd))
		case float64:
			return compareFloat(ad, bd)
		}
	case string:
		if bd, ok := b.data.(string); ok {
			return compareBuiltin(ad, bd)
		}
	case time.Time:
		if bd, ok := b.data.(time.Time); ok {
			return compareBuiltin(ad.Compare(bd), 0)
		}
	case time.Duration:
		if bd, ok := b.data.(time.Duration); ok {
			return compareBuiltin(ad, bd)
		}
	case filesize:
		if bd, ok := b.data.(filesize); ok {
			return compareBuiltin(ad, bd)
		}
	case List:
		if a.Kind() == KindList && b.Kind() == KindList {
			return compareList(ad, b.data.(List))
		}
	}
	if Equal(a, b) {
		return CmpEqual
	}
	return CmpUncomparable
}

func compareBuiltin[T cmp.Ordered](a, b T) Ordering {
	switch {
	case a < b:
		return CmpLess
	case a > b:
		return CmpMore
	default:
		return CmpEqual
	}
}

func compareFloat(a, b float64) Ordering {
	switch {
	case a < b:
		return CmpLess
	case a > b:
		return CmpMore
	case a == b:
		return CmpEqual
	case math.IsNaN(a) && math.IsNaN(b):
		return CmpEqual
	default:
		return CmpUncomparable
	}
}

func compareList(a, b List) Ordering {
	aIt := a.Iterator()
	bIt := b.Iterator()
	for aIt.HasElem() && bIt.HasElem() {
		o := Cmp(aIt.Elem().(Value), bIt.Elem().(Value))
		if o != CmpEqual {
			return o
		}
		aIt.Next()
		bIt.Next()
	}
	switch {
	case aIt.HasElem():
		return CmpMore
	case bIt.HasElem():
		return CmpLess
	default:
		return CmpEqual
	}
}
