package val

import (
	"src.kelp.sh/pkg/errs"
)

// CanIterate returns whether the value can be iterated. If CanIterate(v) is
// true, calling Iterate(v, f) will not result in an error.
func CanIterate(v Value) bool {
	switch v.Kind() {
	case KindList, KindRange:
		return true
	}
	return false
}

// Iterate iterates the supplied value, calling f on each of its elements.
// The function can return false to break the iteration. It is implemented
// for lists and ranges; iterating an unbounded range only stops when f
// breaks. Other kinds return an error.
func Iterate(v Value, f func(Value) bool) error {
	switch v.Kind() {
	case KindList:
		l, _ := v.AsList()
		for it := l.Iterator(); it.HasElem(); it.Next() {
			if !f(it.Elem().(Value)) {
				break
			}
		}
	case KindRange:
		rg, _ := v.AsRange()
		it := rg.Iter(v.Range())
		for {
			elem, ok := it.Next()
			if !ok || !f(elem) {
				break
			}
		}
	default:
		return errs.NotIterable{Kind: v.Kind().String()}
	}
	return nil
}

// Len returns the length of the value: elements of a list, fields of a
// record, bytes of a string or binary value. It returns -1 for kinds
// without a length.
func Len(v Value) int {
	switch d := v.data.(type) {
	case string:
		return len(d)
	case []byte:
		return len(d)
	case Record:
		return d.Len()
	}
	if v.Kind() == KindList {
		return v.data.(List).Len()
	}
	return -1
}
