package val

import (
	"testing"
	"time"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/tt"
)

func TestEqual(t *testing.T) {
	c1 := &Closure{Block: 1}
	c2 := &Closure{Block: 1}
	utc := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	plusOne := utc.In(time.FixedZone("", 3600))

	tt.Test(t, Equal,
		Args(Nothing(unk), Nothing(unk)).Rets(true),
		Args(Nothing(unk), i(0)).Rets(false),
		Args(b(true), b(true)).Rets(true),
		Args(b(true), i(1)).Rets(false),
		Args(i(1), i(1)).Rets(true),
		Args(i(1), i(2)).Rets(false),
		// Ints and floats compare numerically.
		Args(i(1), f(1.0)).Rets(true),
		Args(f(1.0), i(1)).Rets(true),
		Args(f(1.5), f(1.5)).Rets(true),
		Args(s("a"), s("a")).Rets(true),
		Args(s("1"), i(1)).Rets(false),
		Args(Binary([]byte{1, 2}, unk), Binary([]byte{1, 2}, unk)).Rets(true),
		Args(Binary([]byte{1, 2}, unk), Binary([]byte{1}, unk)).Rets(false),
		// Dates compare as instants, not representations.
		Args(Date(utc, unk), Date(plusOne, unk)).Rets(true),
		Args(dur(time.Second), dur(time.Second)).Rets(true),
		// A duration is not its nanosecond count, nor a filesize its bytes.
		Args(dur(time.Second), i(int64(time.Second))).Rets(false),
		Args(size(1), i(1)).Rets(false),
		Args(size(1), size(1)).Rets(true),
		Args(size(1), dur(1)).Rets(false),
		Args(list(i(1), i(2)), list(i(1), f(2.0))).Rets(true),
		Args(list(i(1)), list(i(1), i(2))).Rets(false),
		Args(rec("a", i(1), "b", i(2)), rec("a", i(1), "b", i(2))).Rets(true),
		// Records are ordered.
		Args(rec("a", i(1), "b", i(2)), rec("b", i(2), "a", i(1))).Rets(false),
		Args(rec("a", i(1)), rec("a", i(2))).Rets(false),
		Args(mkRange(i(1), Nothing(unk), i(3), false), mkRange(i(1), Nothing(unk), i(3), false)).Rets(true),
		Args(mkRange(i(1), Nothing(unk), i(3), false), mkRange(i(1), Nothing(unk), i(3), true)).Rets(false),
		// Closures compare by identity.
		Args(NewClosure(c1, unk), NewClosure(c1, unk)).Rets(true),
		Args(NewClosure(c1, unk), NewClosure(c2, unk)).Rets(false),
		Args(Block(1, unk), Block(1, unk)).Rets(true),
		Args(Block(1, unk), Block(2, unk)).Rets(false),
		Args(Error(errFake{}, unk), Error(errFake{}, unk)).Rets(true),
		// Source ranges take no part in equality.
		Args(Int(1, diag.Ranging{From: 0, To: 1}), Int(1, diag.Ranging{From: 7, To: 8})).Rets(true),
	)
}
