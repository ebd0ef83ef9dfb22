package eval_test

import (
	"testing"
	"time"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	. "src.kelp.sh/pkg/eval/evaltest"
	"src.kelp.sh/pkg/val"
)

func TestAssign(t *testing.T) {
	Test(t,
		That("mut x = 1; $x = 2; $x").Puts(2),
		// A variable is not tied to the kind of its first value.
		That("mut x = 1; $x = [5 6]; $x.1").Puts(6),
		// The right side is a full pipeline.
		That("mut x = 0; $x = [1 2 3] | length; $x").Puts(3),
		That("let n = [1 2 3] | length; $n").Puts(3),
		// Assignment in an inner block writes the enclosing variable.
		That("mut x = 1; if true { $x = 2 }; $x").Puts(2),
	)
}

func TestCompoundAssign(t *testing.T) {
	unk := diag.Unknown
	Test(t,
		That("mut x = 2; $x *= 3; $x").Puts(6),
		That("mut n = 10; $n -= 4; $n").Puts(6),
		That("mut n = 1; $n += 2; $n += 3; $n").Puts(6),
		That("mut x = 6; $x /= 4; $x").Puts(1.5),
		That("mut s = 'a'; $s ++= 'b'; $s ++= 'c'; $s").Puts("abc"),
		That("mut d = 10ms; $d += 5ms; $d").Puts(val.Duration(15*time.Millisecond, unk)),
		That("mut l = [1]; $l ++= [2 3]; $l").Puts(val.MakeList(unk,
			val.Int(1, unk), val.Int(2, unk), val.Int(3, unk))),

		That("mut x = 1; $x ++= 2").Throws(
			errs.OpMismatch{Op: "++", LHS: "int", RHS: "int"}),
	)
}

func TestCellPathAssign(t *testing.T) {
	unk := diag.Unknown
	Test(t,
		That("mut r = {a: 1, b: 2}; $r.a = 10; $r").Puts(val.MakeRecord(unk,
			"a", val.Int(10, unk), "b", val.Int(2, unk))),
		// Plain assignment to a missing key adds a column.
		That("mut r = {a: 1}; $r.b = 2; $r").Puts(val.MakeRecord(unk,
			"a", val.Int(1, unk), "b", val.Int(2, unk))),
		That("mut r = {a: {b: 1}}; $r.a.b = 5; $r.a.b").Puts(5),
		That("mut r = {a: 1}; $r.a += 5; $r").Puts(val.MakeRecord(unk,
			"a", val.Int(6, unk))),
		That("mut r = {}; $r.\"two words\" = 3; $r.\"two words\"").Puts(3),

		That("mut l = [1 2 3]; $l.1 = 20; $l").Puts(val.MakeList(unk,
			val.Int(1, unk), val.Int(20, unk), val.Int(3, unk))),
		That("mut l = [1 2]; $l.0 += 9; $l").Puts(val.MakeList(unk,
			val.Int(10, unk), val.Int(2, unk))),
		That("mut t = [[x]; [1] [2]]; $t.1.x = 20; $t.1.x").Puts(20),
	)
}

func TestCellPathAssignErrors(t *testing.T) {
	Test(t,
		// A key missing anywhere but the last step is an error.
		That("mut r = {a: {b: 1}}; $r.x.y = 1").Throws(
			errs.ColumnNotFound{Name: "x", Suggestion: "a"}),
		That("mut x = 5; $x.a = 1").Throws(errs.BadValue{
			What: "value to assign a column of", Valid: "record", Actual: "int"}),
		That("mut r = {a: 1}; $r.0 = 5").Throws(errs.BadValue{
			What: "value to assign an element of", Valid: "list", Actual: "record"}),
		That("mut l = [1]; $l.5 = 2").Throws(errs.OutOfRange{
			What: "index", ValidLow: "0", ValidHigh: "0", Actual: "5"}),
		// A compound operator needs an old value to combine with.
		That("mut r = {a: 1}; $r.b += 1").Throws(
			errs.OpMismatch{Op: "+", LHS: "nothing", RHS: "int"}),
	)
}

func TestEnvAssign(t *testing.T) {
	Test(t,
		That("$env.KELP_TEST = 'hello'; $env.KELP_TEST").Puts("hello"),
		// Environments hold strings only.
		That("$env.KELP_NUM = 42; $env.KELP_NUM").Puts("42"),
		That("$env.KELP_A = 'ab'; $env.KELP_A ++= 'cd'; $env.KELP_A").Puts("abcd"),

		That("$env.A.B = 1").Throws(errs.BadValue{
			What: "assignment under $env", Valid: "a single name, like $env.PATH",
			Actual: "a longer path"}),
		That("$env.KELP_L = [1 2]").Throws(
			errs.CantConvert{From: "list", To: "string"}),
		That("$env.KELP_UNSET_KZQ ++= 'x'").Throws(
			errs.OpMismatch{Op: "++", LHS: "nothing", RHS: "string"}),
	)
}

func TestAssignParseErrors(t *testing.T) {
	Test(t,
		That("let x = 1; $x = 2").DoesNotCompile(
			"cannot assign to immutable variable; declare it with mut"),
		That("let r = {a: 1}; $r.a = 2").DoesNotCompile(
			"cannot assign to immutable variable; declare it with mut"),
		That("$in = 1").DoesNotCompile("$in is read-only"),
		That("$env = 1").DoesNotCompile(
			"cannot assign to $env as a whole; assign to $env.NAME instead"),
		That("$\"hi\" = 1").DoesNotCompile("cannot assign to this expression"),
		That("mut x = 1; $x 2 = 3").DoesNotCompile(
			"only one variable or cell path may appear left of ="),
		That("mut x = 1; $x =").DoesNotCompile("missing value after ="),
	)
}
