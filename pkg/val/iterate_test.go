package val

import (
	"testing"
	"time"

	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/tt"
)

func TestCanIterate(t *testing.T) {
	tt.Test(t, CanIterate,
		Args(list(i(1))).Rets(true),
		Args(mkRange(i(1), Nothing(unk), i(3), false)).Rets(true),
		Args(s("abc")).Rets(false),
		Args(rec("a", i(1))).Rets(false),
		Args(Binary([]byte{1}, unk)).Rets(false),
		Args(Nothing(unk)).Rets(false),
	)
}

func collect(v Value) ([]Value, error) {
	out := []Value{}
	err := Iterate(v, func(elem Value) bool {
		out = append(out, elem)
		return true
	})
	return out, err
}

func TestIterate(t *testing.T) {
	tt.Test(t, collect,
		Args(list(i(1), i(2))).Rets([]Value{i(1), i(2)}, nil),
		Args(mkRange(i(1), Nothing(unk), i(3), false)).
			Rets([]Value{i(1), i(2), i(3)}, nil),
		Args(s("abc")).Rets([]Value{}, errs.NotIterable{Kind: "string"}),
		Args(rec("a", i(1))).Rets([]Value{}, errs.NotIterable{Kind: "record"}),
	)
}

func TestIterate_Break(t *testing.T) {
	// An unbounded range iterates until the callback breaks.
	rg := mkRange(i(1), Nothing(unk), Nothing(unk), false)
	var got []Value
	err := Iterate(rg, func(elem Value) bool {
		got = append(got, elem)
		return len(got) < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || !Equal(got[2], i(3)) {
		t.Errorf("got %v elements, want 1 2 3", got)
	}
}

func TestLen(t *testing.T) {
	tt.Test(t, Len,
		Args(s("abc")).Rets(3),
		Args(Binary([]byte{1, 2}, unk)).Rets(2),
		Args(rec("a", i(1), "b", i(2))).Rets(2),
		Args(list(i(1), i(2), i(3))).Rets(3),
		Args(list()).Rets(0),
		Args(i(1)).Rets(-1),
		Args(dur(time.Second)).Rets(-1),
		Args(Nothing(unk)).Rets(-1),
	)
}
