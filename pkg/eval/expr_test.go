package eval_test

import (
	"testing"
	"time"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	. "src.kelp.sh/pkg/eval/evaltest"
	"src.kelp.sh/pkg/val"
)

func TestArithmetic(t *testing.T) {
	Test(t,
		That("1 + 2").Puts(3),
		That("1 + 2 * 3").Puts(7),
		That("2 ** 10").Puts(1024),
		That("2 ** -1").Puts(0.5),
		That("7 mod 3").Puts(1),
		That("1 + 2.5").Puts(3.5),
		// An exact division stays an int; otherwise the quotient is a float.
		That("6 / 3").Puts(2),
		That("7 / 2").Puts(3.5),
		That("7 // 2").Puts(3),
		That("-7 // 2").Puts(-4),

		That("1 / 0").Throws(errs.DivisionByZero{}),
		That("1.5 / 0").Throws(errs.DivisionByZero{}),
		That("7 // 0").Throws(errs.DivisionByZero{}),
		That("7 mod 0").Throws(errs.DivisionByZero{}),
		That("9223372036854775807 + 1").Throws(errs.OperatorOverflow{Op: "+"}),
		That("1 + true").Throws(errs.OpMismatch{Op: "+", LHS: "int", RHS: "bool"}),
	)
}

func TestUnitArithmetic(t *testing.T) {
	unk := diag.Unknown
	Test(t,
		That("echo 1kib").Puts(val.Filesize(1024, unk)),
		That("1kb + 500b").Puts(val.Filesize(1500, unk)),
		That("10ms - 1ms").Puts(val.Duration(9*time.Millisecond, unk)),
		That("2 * 10ms").Puts(val.Duration(20*time.Millisecond, unk)),
		That("1sec / 4").Puts(val.Duration(250*time.Millisecond, unk)),
		// A ratio of two quantities of the same unit is a bare number.
		That("100ms / 10ms").Puts(10.0),
		That("3kb / 1kb").Puts(3.0),

		That("1kb + 10ms").Throws(
			errs.OpMismatch{Op: "+", LHS: "filesize", RHS: "duration"}),
	)
}

func TestStringOps(t *testing.T) {
	Test(t,
		That("'a' ++ 'b'").Puts("ab"),
		That("'hello' starts-with 'he'").Puts(true),
		That("'hello' ends-with 'lo'").Puts(true),
		That("'ell' in 'hello'").Puts(true),
		That("'hello' =~ 'l+o'").Puts(true),
		That("'x' !~ 'y'").Puts(true),
		That("'x' =~ '('").Throws(errs.BadValue{
			What: "right operand of '=~'", Valid: "valid regular expression",
			Actual: "("}),
	)
}

func TestComparisons(t *testing.T) {
	Test(t,
		That("1 < 2").Puts(true),
		That("2.5 >= 2").Puts(true),
		That("'a' < 'b'").Puts(true),
		That("1 == 1.0").Puts(true),
		That("1 != 2").Puts(true),
		That("[1 2] == [1 2]").Puts(true),
		That("{a: 1} == {a: 1}").Puts(true),
		// Field order is part of a record's identity.
		That("{a: 1, b: 2} == {b: 2, a: 1}").Puts(false),
		That("1 + 2 == 3").Puts(true),
		That("1 < 'a'").Throws(errs.OpMismatch{Op: "<", LHS: "int", RHS: "string"}),
	)
}

func TestMembership(t *testing.T) {
	Test(t,
		That("2 in [1 2]").Puts(true),
		That("5 not-in [1 2]").Puts(true),
		That("'a' in {a: 1}").Puts(true),
		That("5 in 1..10").Puts(true),
		That("11 not-in 1..10").Puts(true),
		That("1 in 5").Throws(errs.OpMismatch{Op: "in", LHS: "int", RHS: "int"}),
	)
}

func TestBoolOps(t *testing.T) {
	Test(t,
		That("true and false").Puts(false),
		That("true or false").Puts(true),
		That("true xor true").Puts(false),
		That("not true").Puts(false),
		// and and or short-circuit on the left operand.
		That("false and (1 / 0)").Puts(false),
		That("true or (1 / 0)").Puts(true),
		That("not 1").Throws(errs.BadValue{
			What: "operand of 'not'", Valid: "bool", Actual: "int"}),
		That("1 and true").Throws(errs.CantConvert{From: "int", To: "bool"}),
	)
}

func TestInterp(t *testing.T) {
	Test(t,
		That("let name = 'world'; echo $\"hi ($name)\"").Puts("hi world"),
		That("echo $\"sum is (1 + 2)\"").Puts("sum is 3"),
		That("echo $'raw (1 + 1) text'").Puts("raw 2 text"),
		That("echo $\"([1 2])\"").Throws(
			errs.CantConvert{From: "list", To: "string"}),
	)
}

func TestPaths(t *testing.T) {
	Test(t,
		That("let m = {a: [10 20]}; echo $m.a.1").Puts(20),
		That("let r = {'k x': 5}; echo $r.\"k x\"").Puts(5),
		That("let m = {a: 1}; echo $m.b?").Puts(nil),
		That("let m = {a: 1}; echo $m.b?.c?").Puts(nil),
		That("let m = {a: 1}; echo $m.b").Throws(
			errs.ColumnNotFound{Name: "b", Suggestion: "a"}),
		That("let l = [5]; echo $l.3").Throws(errs.OutOfRange{
			What: "index", ValidLow: "0", ValidHigh: "0", Actual: "3"}),
	)
}

func TestTableLiteral(t *testing.T) {
	unk := diag.Unknown
	Test(t,
		That("[[a b]; [1 2] [3 4]]").Puts(val.MakeList(unk,
			val.MakeRecord(unk, "a", val.Int(1, unk), "b", val.Int(2, unk)),
			val.MakeRecord(unk, "a", val.Int(3, unk), "b", val.Int(4, unk)))),
	)
}

func TestClosures(t *testing.T) {
	Test(t,
		That("let add = {|a, b| $a + $b }; do $add 2 3").Puts(5),
		// A closure captures values, not variables.
		That("mut x = 1; let f = {|| $x }; $x = 2; do $f").Puts(1),
		That("let n = 3; let f = {|x| $x * $n }; do $f 5").Puts(15),
	)
}
