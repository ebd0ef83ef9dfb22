package val

import (
	"bytes"
	"reflect"
	"time"

	"src.kelp.sh/pkg/ast"
)

// Equal returns whether two values are equal. Source ranges do not take
// part: equal payloads from different places are equal. Ints and floats
// compare numerically across the two kinds; every other kind only equals
// itself. Closures compare by identity.
func Equal(x, y Value) bool {
	switch xd := x.data.(type) {
	case nil:
		return y.data == nil
	case bool:
		yd, ok := y.data.(bool)
		return ok && xd == yd
	case int64:
		switch yd := y.data.(type) {
		case int64:
			return xd == yd
		case float64:
			return float64(xd) == yd
		}
		return false
	case float64:
		switch yd := y.data.(type) {
		case int64:
			return xd == float64(yd)
		case float64:
			return xd == yd
		}
		return false
	case string:
		yd, ok := y.data.(string)
		return ok && xd == yd
	case []byte:
		yd, ok := y.data.([]byte)
		return ok && bytes.Equal(xd, yd)
	case time.Time:
		yd, ok := y.data.(time.Time)
		return ok && xd.Equal(yd)
	case time.Duration:
		yd, ok := y.data.(time.Duration)
		return ok && xd == yd
	case filesize:
		yd, ok := y.data.(filesize)
		return ok && xd == yd
	case *Range:
		yd, ok := y.data.(*Range)
		return ok && equalRange(xd, yd)
	case Record:
		yd, ok := y.data.(Record)
		return ok && equalRecord(xd, yd)
	case *Closure:
		return x.data == y.data
	case ast.BlockID:
		yd, ok := y.data.(ast.BlockID)
		return ok && xd == yd
	case Custom:
		return xd.Equal(y.data)
	case error:
		if y.Kind() != KindError {
			return false
		}
		return reflect.DeepEqual(x.data, y.data)
	case List:
		if y.Kind() != KindList {
			return false
		}
		return equalList(xd, y.data.(List))
	default:
		return false
	}
}

func equalRange(x, y *Range) bool {
	return x.Exclusive == y.Exclusive &&
		Equal(x.From, y.From) && Equal(x.Next, y.Next) && Equal(x.To, y.To)
}

// Record equality is order-sensitive: the same fields in a different order
// make a different record.
func equalRecord(x, y Record) bool {
	if x.Len() != y.Len() {
		return false
	}
	for i := 0; i < x.Len(); i++ {
		xk, xv := x.Get(i)
		yk, yv := y.Get(i)
		if xk != yk || !Equal(xv, yv) {
			return false
		}
	}
	return true
}

func equalList(x, y List) bool {
	if x.Len() != y.Len() {
		return false
	}
	ix := x.Iterator()
	iy := y.Iterator()
	for ix.HasElem() && iy.HasElem() {
		if !Equal(ix.Elem().(Value), iy.Elem().(Value)) {
			return false
		}
		ix.Next()
		iy.Next()
	}
	return true
}
