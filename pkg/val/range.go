package val

import (
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
)

// Range is a numeric range. From is the first element. Next, when not
// nothing, is the second element and fixes the stride. To, when not nothing,
// bounds the range; a range without To never ends on its own. A range whose
// components are all ints yields ints, any float component makes it yield
// floats.
type Range struct {
	From      Value
	Next      Value
	To        Value
	Exclusive bool
}

// NewRange validates the components and returns a range value. From must be
// numeric, Next and To numeric or nothing, and the stride implied by Next
// must not be zero.
func NewRange(from, next, to Value, exclusive bool, r diag.Ranging) (Value, error) {
	if !isNum(from) {
		return Value{}, errs.BadValue{
			What: "range start", Valid: "int or float", Actual: from.Kind().String()}
	}
	if !next.IsNothing() && !isNum(next) {
		return Value{}, errs.BadValue{
			What: "range stride", Valid: "int or float", Actual: next.Kind().String()}
	}
	if !to.IsNothing() && !isNum(to) {
		return Value{}, errs.BadValue{
			What: "range end", Valid: "int or float", Actual: to.Kind().String()}
	}
	rg := &Range{From: from, Next: next, To: to, Exclusive: exclusive}
	if !next.IsNothing() && numAsFloat(rg.Step()) == 0 {
		return Value{}, errs.BadValue{
			What: "range stride", Valid: "non-zero", Actual: "0"}
	}
	return Value{rg, r}, nil
}

func isNum(v Value) bool {
	k := v.Kind()
	return k == KindInt || k == KindFloat
}

func numAsFloat(v Value) float64 {
	switch d := v.data.(type) {
	case int64:
		return float64(d)
	case float64:
		return d
	}
	panic("numAsFloat called on non-numeric value")
}

// IsInt returns whether the range yields ints.
func (rg *Range) IsInt() bool {
	return rg.From.Kind() == KindInt &&
		(rg.Next.IsNothing() || rg.Next.Kind() == KindInt) &&
		(rg.To.IsNothing() || rg.To.Kind() == KindInt)
}

// IsUnbounded returns whether the range has no end.
func (rg *Range) IsUnbounded() bool { return rg.To.IsNothing() }

// Step returns the stride of the range. Without an explicit Next the stride
// is 1, or -1 when To lies below From.
func (rg *Range) Step() Value {
	if !rg.Next.IsNothing() {
		if rg.IsInt() {
			return Int(rg.Next.data.(int64)-rg.From.data.(int64), diag.Unknown)
		}
		return Float(numAsFloat(rg.Next)-numAsFloat(rg.From), diag.Unknown)
	}
	desc := !rg.To.IsNothing() && numAsFloat(rg.To) < numAsFloat(rg.From)
	step := int64(1)
	if desc {
		step = -1
	}
	if rg.IsInt() {
		return Int(step, diag.Unknown)
	}
	return Float(float64(step), diag.Unknown)
}

// Contains reports whether x lies between the bounds of the range. It does
// not check stride alignment.
func (rg *Range) Contains(x Value) bool {
	if !isNum(x) {
		return false
	}
	v, from := numAsFloat(x), numAsFloat(rg.From)
	if numAsFloat(rg.Step()) > 0 {
		if v < from {
			return false
		}
		if rg.To.IsNothing() {
			return true
		}
		if rg.Exclusive {
			return v < numAsFloat(rg.To)
		}
		return v <= numAsFloat(rg.To)
	}
	if v > from {
		return false
	}
	if rg.To.IsNothing() {
		return true
	}
	if rg.Exclusive {
		return v > numAsFloat(rg.To)
	}
	return v >= numAsFloat(rg.To)
}

// RangeIter iterates over the elements of a range.
type RangeIter struct {
	span      diag.Ranging
	ints      bool
	bounded   bool
	exclusive bool
	done      bool

	icur, istep, ito int64
	fcur, fstep, fto float64
}

// Iter returns an iterator over the elements of the range. Produced values
// carry the given range as their source range.
func (rg *Range) Iter(r diag.Ranging) *RangeIter {
	it := &RangeIter{span: r, bounded: !rg.To.IsNothing(), exclusive: rg.Exclusive}
	if rg.IsInt() {
		it.ints = true
		it.icur = rg.From.data.(int64)
		it.istep = rg.Step().data.(int64)
		if it.bounded {
			it.ito = rg.To.data.(int64)
		}
	} else {
		it.fcur = numAsFloat(rg.From)
		it.fstep = numAsFloat(rg.Step())
		if it.bounded {
			it.fto = numAsFloat(rg.To)
		}
	}
	return it
}

// Next returns the next element of the range, if any. The second return
// value indicates whether it exists.
func (it *RangeIter) Next() (Value, bool) {
	if it.done {
		return Value{}, false
	}
	if it.ints {
		cur := it.icur
		if it.bounded && intPastEnd(cur, it.istep, it.ito, it.exclusive) {
			it.done = true
			return Value{}, false
		}
		next := cur + it.istep
		if (it.istep > 0 && next < cur) || (it.istep < 0 && next > cur) {
			// Overflow; cur is the last element.
			it.done = true
			return Int(cur, it.span), true
		}
		it.icur = next
		return Int(cur, it.span), true
	}
	cur := it.fcur
	if it.bounded && floatPastEnd(cur, it.fstep, it.fto, it.exclusive) {
		it.done = true
		return Value{}, false
	}
	it.fcur = cur + it.fstep
	return Float(cur, it.span), true
}

func intPastEnd(cur, step, to int64, exclusive bool) bool {
	if step > 0 {
		return cur > to || (exclusive && cur == to)
	}
	return cur < to || (exclusive && cur == to)
}

func floatPastEnd(cur, step, to float64, exclusive bool) bool {
	if step > 0 {
		return cur > to || (exclusive && cur == to)
	}
	return cur < to || (exclusive && cur == to)
}
