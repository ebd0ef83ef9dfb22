package ast

import (
	"testing"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/tt"
)

var Args = tt.Args

func TestOpString(t *testing.T) {
	tt.Test(t, Op.String,
		Args(Add).Rets("+"),
		Args(FloorDiv).Rets("//"),
		Args(NotIn).Rets("not-in"),
		Args(ConcatAssign).Rets("++="),
		Args(Op(-1)).Rets("bad op -1"),
	)
}

func TestOpCategories(t *testing.T) {
	tt.Test(t, Op.IsComparison,
		Args(Eq).Rets(true),
		Args(EndsWith).Rets(true),
		Args(Add).Rets(false),
		Args(And).Rets(false),
	)
	tt.Test(t, Op.IsBoolean,
		Args(And).Rets(true),
		Args(Xor).Rets(true),
		Args(Eq).Rets(false),
	)
	tt.Test(t, Op.IsAssignment,
		Args(Assign).Rets(true),
		Args(ConcatAssign).Rets(true),
		Args(Eq).Rets(false),
	)
}

func TestUnit(t *testing.T) {
	tt.Test(t, Unit.Multiplier,
		Args(B).Rets(int64(1)),
		Args(KB).Rets(int64(1000)),
		Args(KIB).Rets(int64(1024)),
		Args(MS).Rets(int64(1000*1000)),
		Args(Second).Rets(int64(1000*1000*1000)),
	)
	tt.Test(t, Unit.IsDuration,
		Args(PIB).Rets(false),
		Args(NS).Rets(true),
		Args(Week).Rets(true),
	)
}

func TestUnitByName(t *testing.T) {
	tt.Test(t, UnitByName,
		Args("kb").Rets(KB, true),
		Args("wk").Rets(Week, true),
		Args("lightyear").Rets(Unit(0), false),
	)
}

func TestSignatureBuilder(t *testing.T) {
	sig := NewSignature("first").
		WithDescription("Return only the first several rows of the input.").
		AddOptional("rows", ShapeInt, "starting from the front, the number of rows to return").
		AddSwitch("strict", 's', "fail if the input has fewer rows")

	if sig.Name != "first" {
		t.Errorf("Name = %q", sig.Name)
	}
	if n := sig.RequiredCount(); n != 0 {
		t.Errorf("RequiredCount = %d, want 0", n)
	}
	if flag := sig.FindLong("strict"); flag == nil || !flag.Switch {
		t.Errorf("FindLong(strict) = %v, want switch flag", flag)
	}
	if flag := sig.FindShort('s'); flag == nil || flag.Long != "strict" {
		t.Errorf("FindShort(s) = %v, want strict", flag)
	}
	if flag := sig.FindLong("missing"); flag != nil {
		t.Errorf("FindLong(missing) = %v, want nil", flag)
	}
}

func TestSignatureRequiredCount(t *testing.T) {
	sig := NewSignature("def").
		AddRequired("name", ShapeString, "command name").
		AddRequired("params", ShapeSignature, "parameters").
		AddRequired("body", ShapeClosure, "body of the command").
		AddRest("rest", ShapeAny, "")
	if n := sig.RequiredCount(); n != 3 {
		t.Errorf("RequiredCount = %d, want 3", n)
	}
}

func TestNodesCarryRanges(t *testing.T) {
	exprs := []Expr{
		&IntLit{Value: 3, Ranging: diag.Ranging{From: 0, To: 1}},
		&Garbage{Ranging: diag.Ranging{From: 4, To: 9}},
		&NothingLit{Ranging: diag.Unknown},
	}
	wants := []diag.Ranging{{From: 0, To: 1}, {From: 4, To: 9}, diag.Unknown}
	for i, expr := range exprs {
		if expr.Range() != wants[i] {
			t.Errorf("Range() = %v, want %v", expr.Range(), wants[i])
		}
	}
}
