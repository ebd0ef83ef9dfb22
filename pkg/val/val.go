// Package val defines the runtime value model: a tagged union over the
// kinds a pipeline can carry. Every value records the source range of the
// expression that produced it; values synthesized out of thin air use
// diag.Unknown.
//
// Values are immutable. Compound kinds are built on persistent data
// structures, so derived values share structure with their originals and
// captured snapshots stay stable.
package val

import (
	"fmt"
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/persistent/vector"
)

// Value is a runtime value together with its source range.
type Value struct {
	data any
	diag.Ranging
}

// List is a persistent list of values.
type List = vector.Vector

// EmptyList is an empty list.
var EmptyList = vector.Empty

// Kind identifies the type of a value.
type Kind int

// Possible Kind values.
const (
	KindNothing Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindDate
	KindDuration
	KindFilesize
	KindRange
	KindRecord
	KindList
	KindClosure
	KindBlock
	KindError
	KindCustom
)

var kindNames = [...]string{
	"nothing", "bool", "int", "float", "string", "binary", "date",
	"duration", "filesize", "range", "record", "list", "closure", "block",
	"error", "custom",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("bad kind %d", int(k))
	}
	return kindNames[k]
}

// filesize is the payload of filesize values. It is distinct from both int64
// and time.Duration so that the three kinds never get conflated.
type filesize int64

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	switch v.data.(type) {
	case nil:
		return KindNothing
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case []byte:
		return KindBinary
	case time.Time:
		return KindDate
	case time.Duration:
		return KindDuration
	case filesize:
		return KindFilesize
	case *Range:
		return KindRange
	case Record:
		return KindRecord
	case *Closure:
		return KindClosure
	case ast.BlockID:
		return KindBlock
	case Custom:
		return KindCustom
	case error:
		return KindError
	case List:
		return KindList
	default:
		panic(fmt.Sprintf("bad value payload %T", v.data))
	}
}

// IsNothing returns whether the value is of the nothing kind.
func (v Value) IsNothing() bool { return v.data == nil }

// WithRange returns the same value carrying a different source range.
func (v Value) WithRange(r diag.Ranging) Value { return Value{v.data, r} }

// Bool returns a bool value.
func Bool(b bool, r diag.Ranging) Value { return Value{b, r} }

// Int returns an int value.
func Int(i int64, r diag.Ranging) Value { return Value{i, r} }

// Float returns a float value.
func Float(f float64, r diag.Ranging) Value { return Value{f, r} }

// String returns a string value.
func String(s string, r diag.Ranging) Value { return Value{s, r} }

// Binary returns a binary value. The caller must not modify b afterwards.
func Binary(b []byte, r diag.Ranging) Value { return Value{b, r} }

// Date returns a date value.
func Date(t time.Time, r diag.Ranging) Value { return Value{t, r} }

// Duration returns a duration value.
func Duration(d time.Duration, r diag.Ranging) Value { return Value{d, r} }

// Filesize returns a filesize value of n bytes.
func Filesize(n int64, r diag.Ranging) Value { return Value{filesize(n), r} }

// Nothing returns a nothing value.
func Nothing(r diag.Ranging) Value { return Value{nil, r} }

// Error returns an error value. The argument must not be nil.
func Error(err error, r diag.Ranging) Value {
	if err == nil {
		panic("Error called with nil error")
	}
	return Value{err, r}
}

// Block returns a block value referencing a registered block.
func Block(id ast.BlockID, r diag.Ranging) Value { return Value{id, r} }

// NewList returns a list value wrapping l.
func NewList(l List, r diag.Ranging) Value { return Value{l, r} }

// MakeList returns a list value with the given elements.
func MakeList(r diag.Ranging, elems ...Value) Value {
	l := EmptyList
	for _, e := range elems {
		l = l.Conj(e)
	}
	return Value{l, r}
}

// NewRecord returns a record value wrapping rec.
func NewRecord(rec Record, r diag.Ranging) Value { return Value{rec, r} }

// MakeRecord returns a record value from alternating keys and values. It
// panics if the number of arguments is odd or a key is not a string; it is
// meant for building records whose shape is known statically.
func MakeRecord(r diag.Ranging, pairs ...any) Value {
	if len(pairs)%2 == 1 {
		panic("MakeRecord called with odd number of arguments")
	}
	rec := Record{}
	for i := 0; i < len(pairs); i += 2 {
		rec = rec.Assoc(pairs[i].(string), pairs[i+1].(Value))
	}
	return Value{rec, r}
}

// NewClosure returns a closure value.
func NewClosure(c *Closure, r diag.Ranging) Value { return Value{c, r} }

// NewCustom returns a custom value wrapping c.
func NewCustom(c Custom, r diag.Ranging) Value { return Value{c, r} }
