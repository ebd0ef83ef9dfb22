package val

import (
	"testing"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/tt"
)

func TestIndexKey(t *testing.T) {
	stored := Int(1, diag.Ranging{From: 10, To: 11})
	tbl := list(rec("name", i(1)), rec("name", i(2)))
	tt.Test(t, IndexKey,
		// A record field keeps the range it was stored with.
		Args(rec("name", stored), "name", false, unk).Rets(stored, nil),
		Args(rec("name", i(1)), "nmae", false, unk).Rets(Value{},
			errs.ColumnNotFound{Name: "nmae", Suggestion: "name"}),
		Args(rec("a", i(1)), "xyz", false, unk).
			Rets(Value{}, errs.ColumnNotFound{Name: "xyz"}),
		Args(rec("a", i(1)), "b", true, unk).Rets(Nothing(unk), nil),

		// Column access projects element-wise over a list of records.
		Args(tbl, "name", false, unk).Rets(list(i(1), i(2)), nil),
		Args(list(rec("name", i(1)), rec("other", i(2))), "name", false, unk).
			Rets(Value{}, errs.ColumnNotFound{Name: "name"}),
		Args(list(rec("name", i(1)), i(2)), "name", false, unk).
			Rets(Value{}, errs.BadValue{
				What: "value to access column of", Valid: "record or table",
				Actual: "int"}),

		Args(Nothing(unk), "a", false, unk).
			Rets(Value{}, errs.ColumnNotFound{Name: "a"}),
		Args(Nothing(unk), "a", true, unk).Rets(Nothing(unk), nil),
		Args(i(1), "a", false, unk).Rets(Value{}, errs.BadValue{
			What: "value to access column of", Valid: "record or table",
			Actual: "int"}),
	)
}

func TestIndexKey_ProjectionRange(t *testing.T) {
	tbl := MakeList(diag.Ranging{From: 3, To: 7}, rec("a", i(1)))
	got, err := IndexKey(tbl, "a", false, unk)
	if err != nil {
		t.Fatal(err)
	}
	if got.Range() != (diag.Ranging{From: 3, To: 7}) {
		t.Errorf("projected column has range %v, want {3 7}", got.Range())
	}
}

func TestIndexInt(t *testing.T) {
	l := list(s("a"), s("b"), s("c"))
	bin := Binary([]byte{0x1f, 0x8b}, unk)
	tt.Test(t, IndexInt,
		Args(l, int64(0), false, unk).Rets(s("a"), nil),
		Args(l, int64(2), false, unk).Rets(s("c"), nil),
		Args(l, int64(3), false, unk).Rets(Value{}, errs.OutOfRange{
			What: "index", ValidLow: "0", ValidHigh: "2", Actual: "3"}),
		Args(l, int64(-1), false, unk).Rets(Value{}, errs.OutOfRange{
			What: "index", ValidLow: "0", ValidHigh: "2", Actual: "-1"}),
		Args(l, int64(3), true, unk).Rets(Nothing(unk), nil),

		Args(bin, int64(1), false, unk).Rets(i(0x8b), nil),
		Args(bin, int64(2), false, unk).Rets(Value{}, errs.OutOfRange{
			What: "index", ValidLow: "0", ValidHigh: "1", Actual: "2"}),

		Args(Nothing(unk), int64(0), true, unk).Rets(Nothing(unk), nil),
		Args(Nothing(unk), int64(0), false, unk).Rets(Value{}, errs.OutOfRange{
			What: "index", ValidLow: "0", ValidHigh: "-1", Actual: "0"}),
		Args(s("abc"), int64(0), false, unk).Rets(Value{}, errs.BadValue{
			What: "value to index into", Valid: "list or binary",
			Actual: "string"}),
	)
}
