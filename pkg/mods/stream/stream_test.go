package stream_test

import (
	"testing"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	. "src.kelp.sh/pkg/eval/evaltest"
	"src.kelp.sh/pkg/val"
)

func TestFirst(t *testing.T) {
	Test(t,
		That("[1 2 3] | first").Puts(1),
		That("[1 2 3] | first 2").Puts(1, 2),
		That("[1 2] | first 5").Puts(1, 2),
		That("[] | first").DoesNothing(),
		// first pulls only what it outputs, so endless input finishes.
		That("1..10000000000 | first 3").Puts(1, 2, 3),
		That("0.. | first 4").Puts(0, 1, 2, 3),
		That("[1 2] | first -1").Throws(errs.OutOfRange{
			What: "count", ValidLow: "0", ValidHigh: "+inf", Actual: "-1"}),
	)
}

func TestLength(t *testing.T) {
	Test(t,
		That("[1 2 3] | length").Puts(3),
		That("[] | length").Puts(0),
		That("echo x | length").Puts(1),
		That("1..100 | length").Puts(100),
		That("0.. | length").Throws(errs.InfiniteRange{What: "'length'"}),
	)
}

func TestCollect(t *testing.T) {
	unk := diag.Unknown
	Test(t,
		That("1..3 | collect").Puts(val.MakeList(unk,
			val.Int(1, unk), val.Int(2, unk), val.Int(3, unk))),
		That("[] | collect").Puts(val.MakeList(unk)),
		That("0.. | collect").Throws(errs.InfiniteRange{What: "'collect'"}),
	)
}

func TestCount_Deprecated(t *testing.T) {
	Test(t,
		That("[1 2] | count").Puts(2).
			PrintsStderrWith("'count' is deprecated; use 'length' instead"),
	)
}
