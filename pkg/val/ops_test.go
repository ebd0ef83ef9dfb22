package val

import (
	"math"
	"testing"
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/tt"
)

func operate(op ast.Op, a, b Value) (Value, error) {
	return Operate(op, a, b, unk)
}

func TestOperate_Arithmetic(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	tt.Test(t, operate,
		Args(ast.Add, i(1), i(2)).Rets(i(3), nil),
		Args(ast.Add, i(1), f(2.5)).Rets(f(3.5), nil),
		Args(ast.Add, f(1.5), i(2)).Rets(f(3.5), nil),
		Args(ast.Add, f(1.5), f(2.25)).Rets(f(3.75), nil),
		Args(ast.Add, s("foo"), s("bar")).Rets(s("foobar"), nil),
		Args(ast.Add, dur(time.Second), dur(500*time.Millisecond)).
			Rets(dur(1500*time.Millisecond), nil),
		Args(ast.Add, size(1024), size(512)).Rets(size(1536), nil),
		Args(ast.Add, Date(t0, unk), dur(time.Hour)).Rets(Date(t1, unk), nil),
		Args(ast.Add, dur(time.Hour), Date(t0, unk)).Rets(Date(t1, unk), nil),
		Args(ast.Add, i(math.MaxInt64), i(1)).
			Rets(Value{}, errs.OperatorOverflow{Op: "+"}),
		Args(ast.Add, i(1), s("x")).
			Rets(Value{}, errs.OpMismatch{Op: "+", LHS: "int", RHS: "string"}),

		Args(ast.Sub, i(5), i(3)).Rets(i(2), nil),
		Args(ast.Sub, i(1), f(0.5)).Rets(f(0.5), nil),
		Args(ast.Sub, dur(2*time.Second), dur(500*time.Millisecond)).
			Rets(dur(1500*time.Millisecond), nil),
		Args(ast.Sub, size(1536), size(512)).Rets(size(1024), nil),
		Args(ast.Sub, Date(t1, unk), dur(time.Hour)).Rets(Date(t0, unk), nil),
		Args(ast.Sub, Date(t1, unk), Date(t0, unk)).Rets(dur(time.Hour), nil),
		Args(ast.Sub, i(math.MinInt64), i(1)).
			Rets(Value{}, errs.OperatorOverflow{Op: "-"}),

		Args(ast.Mul, i(6), i(7)).Rets(i(42), nil),
		Args(ast.Mul, i(2), f(1.5)).Rets(f(3.0), nil),
		Args(ast.Mul, i(2), dur(time.Second)).Rets(dur(2*time.Second), nil),
		Args(ast.Mul, dur(time.Second), f(1.5)).
			Rets(dur(1500*time.Millisecond), nil),
		Args(ast.Mul, f(1.5), size(1024)).Rets(size(1536), nil),
		Args(ast.Mul, i(math.MaxInt64), i(2)).
			Rets(Value{}, errs.OperatorOverflow{Op: "*"}),
		Args(ast.Mul, b(true), i(1)).
			Rets(Value{}, errs.OpMismatch{Op: "*", LHS: "bool", RHS: "int"}),
	)
}

func TestOperate_Division(t *testing.T) {
	tt.Test(t, operate,
		// An exact int division stays an int.
		Args(ast.Div, i(6), i(3)).Rets(i(2), nil),
		Args(ast.Div, i(7), i(2)).Rets(f(3.5), nil),
		Args(ast.Div, f(1.0), i(4)).Rets(f(0.25), nil),
		Args(ast.Div, i(1), i(0)).Rets(Value{}, errs.DivisionByZero{}),
		Args(ast.Div, f(1.0), f(0.0)).Rets(Value{}, errs.DivisionByZero{}),
		Args(ast.Div, i(math.MinInt64), i(-1)).
			Rets(Value{}, errs.OperatorOverflow{Op: "/"}),
		Args(ast.Div, dur(2*time.Second), i(2)).Rets(dur(time.Second), nil),
		Args(ast.Div, dur(3*time.Second), dur(2*time.Second)).Rets(f(1.5), nil),
		Args(ast.Div, size(1536), size(1024)).Rets(f(1.5), nil),

		Args(ast.FloorDiv, i(7), i(2)).Rets(i(3), nil),
		Args(ast.FloorDiv, i(-7), i(2)).Rets(i(-4), nil),
		Args(ast.FloorDiv, f(7.0), i(2)).Rets(f(3.0), nil),
		Args(ast.FloorDiv, i(7), i(0)).Rets(Value{}, errs.DivisionByZero{}),

		Args(ast.Mod, i(7), i(3)).Rets(i(1), nil),
		// Mod truncates towards zero, so the result keeps the sign of the
		// dividend.
		Args(ast.Mod, i(-7), i(3)).Rets(i(-1), nil),
		Args(ast.Mod, f(7.5), i(2)).Rets(f(1.5), nil),
		Args(ast.Mod, i(1), i(0)).Rets(Value{}, errs.DivisionByZero{}),

		Args(ast.Pow, i(2), i(10)).Rets(i(1024), nil),
		Args(ast.Pow, i(2), i(-1)).Rets(f(0.5), nil),
		Args(ast.Pow, i(9), f(0.5)).Rets(f(3.0), nil),
		Args(ast.Pow, i(2), i(63)).
			Rets(Value{}, errs.OperatorOverflow{Op: "**"}),
		Args(ast.Pow, s("x"), i(2)).
			Rets(Value{}, errs.OpMismatch{Op: "**", LHS: "string", RHS: "int"}),
	)
}

func TestOperate_Concat(t *testing.T) {
	tt.Test(t, operate,
		Args(ast.Concat, s("ab"), s("cd")).Rets(s("abcd"), nil),
		Args(ast.Concat, Binary([]byte{1}, unk), Binary([]byte{2, 3}, unk)).
			Rets(Binary([]byte{1, 2, 3}, unk), nil),
		Args(ast.Concat, list(i(1)), list(i(2), i(3))).
			Rets(list(i(1), i(2), i(3)), nil),
		Args(ast.Concat, s("a"), list()).
			Rets(Value{}, errs.OpMismatch{Op: "++", LHS: "string", RHS: "list"}),
		Args(ast.Concat, i(1), i(2)).
			Rets(Value{}, errs.OpMismatch{Op: "++", LHS: "int", RHS: "int"}),
	)
}

func TestOperate_Comparison(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tt.Test(t, operate,
		Args(ast.Eq, i(1), f(1.0)).Rets(b(true), nil),
		// Equality never errors across kinds.
		Args(ast.Eq, s("a"), i(1)).Rets(b(false), nil),
		Args(ast.NotEq, i(1), i(2)).Rets(b(true), nil),

		Args(ast.Lt, i(1), i(2)).Rets(b(true), nil),
		Args(ast.Lt, s("a"), s("b")).Rets(b(true), nil),
		Args(ast.Lt, Date(t0, unk), Date(t0.Add(time.Hour), unk)).
			Rets(b(true), nil),
		Args(ast.Lt, list(i(1), i(2)), list(i(1), i(3))).Rets(b(true), nil),
		Args(ast.Lt, i(1), s("a")).
			Rets(Value{}, errs.OpMismatch{Op: "<", LHS: "int", RHS: "string"}),
		Args(ast.Gt, f(2.5), i(2)).Rets(b(true), nil),
		Args(ast.LtEq, i(2), i(2)).Rets(b(true), nil),
		Args(ast.GtEq, dur(2*time.Second), dur(time.Second)).Rets(b(true), nil),

		Args(ast.RegexMatch, s("hello"), s("^h")).Rets(b(true), nil),
		Args(ast.RegexMatch, s("hello"), s("^x")).Rets(b(false), nil),
		Args(ast.NotRegexMatch, s("hello"), s("^x")).Rets(b(true), nil),
		Args(ast.RegexMatch, s("x"), s("(")).Rets(Value{}, errs.BadValue{
			What:  "right operand of '=~'",
			Valid: "valid regular expression", Actual: "("}),
		Args(ast.RegexMatch, i(1), s("x")).
			Rets(Value{}, errs.OpMismatch{Op: "=~", LHS: "int", RHS: "string"}),
	)
}

func TestOperate_Membership(t *testing.T) {
	r10 := mkRange(i(1), Nothing(unk), i(10), false)
	tt.Test(t, operate,
		Args(ast.In, i(2), list(i(1), i(2), i(3))).Rets(b(true), nil),
		Args(ast.In, i(5), list(i(1), i(2), i(3))).Rets(b(false), nil),
		Args(ast.NotIn, i(5), list(i(1), i(2), i(3))).Rets(b(true), nil),
		Args(ast.In, s("a"), rec("a", i(1))).Rets(b(true), nil),
		Args(ast.In, s("b"), s("abc")).Rets(b(true), nil),
		Args(ast.In, i(5), r10).Rets(b(true), nil),
		// Range membership only checks the bounds, not stride alignment.
		Args(ast.In, f(5.5), r10).Rets(b(true), nil),
		Args(ast.In, i(11), r10).Rets(b(false), nil),
		Args(ast.In, i(1), s("abc")).
			Rets(Value{}, errs.OpMismatch{Op: "in", LHS: "int", RHS: "string"}),
		Args(ast.In, i(1), i(2)).
			Rets(Value{}, errs.OpMismatch{Op: "in", LHS: "int", RHS: "int"}),

		Args(ast.StartsWith, s("foobar"), s("foo")).Rets(b(true), nil),
		Args(ast.StartsWith, s("foobar"), s("bar")).Rets(b(false), nil),
		Args(ast.EndsWith, s("foobar"), s("bar")).Rets(b(true), nil),
		Args(ast.StartsWith, i(1), s("1")).Rets(Value{},
			errs.OpMismatch{Op: "starts-with", LHS: "int", RHS: "string"}),
	)
}

func TestOperate_Boolean(t *testing.T) {
	tt.Test(t, operate,
		Args(ast.And, b(true), b(false)).Rets(b(false), nil),
		Args(ast.And, b(true), b(true)).Rets(b(true), nil),
		Args(ast.Or, b(false), b(true)).Rets(b(true), nil),
		Args(ast.Xor, b(true), b(true)).Rets(b(false), nil),
		Args(ast.Xor, b(true), b(false)).Rets(b(true), nil),
		Args(ast.And, b(true), i(1)).
			Rets(Value{}, errs.OpMismatch{Op: "and", LHS: "bool", RHS: "int"}),
	)
}

func TestNot(t *testing.T) {
	tt.Test(t, Not,
		Args(b(true), unk).Rets(b(false), nil),
		Args(b(false), unk).Rets(b(true), nil),
		Args(i(1), unk).Rets(Value{}, errs.BadValue{
			What: "operand of 'not'", Valid: "bool", Actual: "int"}),
	)
}
