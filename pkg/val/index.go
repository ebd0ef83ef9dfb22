package val

import (
	"strconv"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/strutil"
)

// IndexKey resolves the key member of a cell path against v: the field of a
// record, or the column of a list of records, projected element-wise. With
// optional set, missing fields resolve to nothing instead of failing. The
// given range is attached to values the lookup synthesizes.
func IndexKey(v Value, key string, optional bool, r diag.Ranging) (Value, error) {
	switch v.Kind() {
	case KindRecord:
		rec, _ := v.AsRecord()
		if f, ok := rec.Index(key); ok {
			return f, nil
		}
		if optional {
			return Nothing(r), nil
		}
		sugg, _ := strutil.Nearest(key, rec.Keys())
		return Value{}, errs.ColumnNotFound{Name: key, Suggestion: sugg}
	case KindList:
		l, _ := v.AsList()
		out := EmptyList
		for it := l.Iterator(); it.HasElem(); it.Next() {
			f, err := IndexKey(it.Elem().(Value), key, optional, r)
			if err != nil {
				return Value{}, err
			}
			out = out.Conj(f)
		}
		return NewList(out, v.Range()), nil
	case KindNothing:
		if optional {
			return Nothing(r), nil
		}
		return Value{}, errs.ColumnNotFound{Name: key}
	default:
		return Value{}, errs.BadValue{
			What: "value to access column of", Valid: "record or table",
			Actual: v.Kind().String()}
	}
}

// IndexInt resolves the index member of a cell path against v: the i-th
// element of a list, or the i-th byte of binary data as an int. With
// optional set, an out-of-range index resolves to nothing instead of
// failing.
func IndexInt(v Value, i int64, optional bool, r diag.Ranging) (Value, error) {
	switch v.Kind() {
	case KindList:
		l, _ := v.AsList()
		if i < 0 || i >= int64(l.Len()) {
			if optional {
				return Nothing(r), nil
			}
			return Value{}, indexOutOfRange(i, l.Len())
		}
		elem, _ := l.Index(int(i))
		return elem.(Value), nil
	case KindBinary:
		b, _ := v.AsBinary()
		if i < 0 || i >= int64(len(b)) {
			if optional {
				return Nothing(r), nil
			}
			return Value{}, indexOutOfRange(i, len(b))
		}
		return Int(int64(b[i]), r), nil
	case KindNothing:
		if optional {
			return Nothing(r), nil
		}
		return Value{}, indexOutOfRange(i, 0)
	default:
		return Value{}, errs.BadValue{
			What: "value to index into", Valid: "list or binary",
			Actual: v.Kind().String()}
	}
}

func indexOutOfRange(i int64, n int) error {
	return errs.OutOfRange{
		What: "index", ValidLow: "0", ValidHigh: strconv.Itoa(n - 1),
		Actual: strconv.FormatInt(i, 10)}
}
