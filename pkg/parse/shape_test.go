package parse

import (
	"strings"
	"testing"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
)

func TestParse_IntLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"5", 5},
		{"-42", -42},
		{"+7", 7},
		{"0x1f", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"1_000_000", 1000000},
	}
	for _, test := range tests {
		lit, ok := exprOf(t, test.src).(*ast.IntLit)
		if !ok || lit.Value != test.want {
			t.Errorf("parse %q = %v, want int %d", test.src, lit, test.want)
		}
	}
}

func TestParse_FloatLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1.5", 1.5},
		{"-0.25", -0.25},
		{"1e3", 1000},
	}
	for _, test := range tests {
		lit, ok := exprOf(t, test.src).(*ast.FloatLit)
		if !ok || lit.Value != test.want {
			t.Errorf("parse %q = %v, want float %g", test.src, lit, test.want)
		}
	}
}

func TestParse_UnitLiterals(t *testing.T) {
	tests := []struct {
		src        string
		wantAmount int64
		wantUnit   ast.Unit
	}{
		{"10kb", 10, ast.KB},
		{"3sec", 3, ast.Second},
		{"100ms", 100, ast.MS},
		// Fractional amounts normalize to the base unit.
		{"1.5kib", 1536, ast.B},
		{"1.5min", 90_000_000_000, ast.NS},
	}
	for _, test := range tests {
		lit, ok := exprOf(t, test.src).(*ast.UnitLit)
		if !ok || lit.Amount != test.wantAmount || lit.Unit != test.wantUnit {
			t.Errorf("parse %q = %+v, want %d %v",
				test.src, lit, test.wantAmount, test.wantUnit)
		}
	}
}

func TestParse_UnitLiteralOutOfRange(t *testing.T) {
	wantErr(t, "99999999999.0pb", "out of range")
}

func TestParse_BoolAndNullLiterals(t *testing.T) {
	if lit, ok := exprOf(t, "true").(*ast.BoolLit); !ok || !lit.Value {
		t.Errorf("true parses to %v", lit)
	}
	if lit, ok := exprOf(t, "false").(*ast.BoolLit); !ok || lit.Value {
		t.Errorf("false parses to %v", lit)
	}
	if _, ok := exprOf(t, "null").(*ast.NothingLit); !ok {
		t.Errorf("null does not parse to a null literal")
	}
}

func TestParse_StringLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`'a b'`, "a b"},
		{"`a 'b' c`", "a 'b' c"},
		{`"a\tb\n"`, "a\tb\n"},
		{`"esc \\ \" \u{48}"`, `esc \ " H`},
		{`r#'a 'b' c'#`, "a 'b' c"},
		{`r##'ends with '#'##`, "ends with '#"},
	}
	for _, test := range tests {
		ws := testWorkingSet()
		block, errs := parseIn(t, ws, "print "+test.src)
		if len(errs) > 0 {
			t.Errorf("parse %q: %v", test.src, errMsgs(errs))
			continue
		}
		call := onlyExpr(t, block).(*ast.Call)
		lit, ok := call.Positional[0].(*ast.StringLit)
		if !ok || lit.Value != test.want {
			t.Errorf("parse %q = %v, want %q", test.src, call.Positional[0], test.want)
		}
	}
}

func TestParse_BadEscapes(t *testing.T) {
	wantErr(t, `print "\q"`, `unsupported escape sequence '\q'`)
	wantErr(t, `print "\u48"`, `bad unicode escape`)
}

func TestParse_SegmentedWord(t *testing.T) {
	call := onlyExpr(t, parseGood(t, `print a'b c'd"e\tf"`)).(*ast.Call)
	lit, ok := call.Positional[0].(*ast.StringLit)
	if !ok || lit.Value != "ab cde\tf" {
		t.Errorf("segmented word = %v, want %q", call.Positional[0], "ab cde\tf")
	}
}

func TestParse_BarewordsStayStringsUnderStringShape(t *testing.T) {
	// sort's --key declares a string; a numeric-looking value stays a string.
	call := onlyExpr(t, parseGood(t, "sort --key 5")).(*ast.Call)
	if len(call.Named) != 1 {
		t.Fatalf("want 1 named argument, got %+v", call.Named)
	}
	lit, ok := call.Named[0].Value.(*ast.StringLit)
	if !ok || lit.Value != "5" {
		t.Errorf("string-shaped 5 = %v, want the string \"5\"", call.Named[0].Value)
	}
}

func TestParse_InterpStrings(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, `print $"x\t(1 + 2)y"`)
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	call := onlyExpr(t, block).(*ast.Call)
	interp, ok := call.Positional[0].(*ast.Interp)
	if !ok || len(interp.Parts) != 3 {
		t.Fatalf("interp = %+v, want 3 parts", call.Positional[0])
	}
	if lit := interp.Parts[0].(*ast.StringLit); lit.Value != "x\t" {
		t.Errorf("first part = %q, want %q", lit.Value, "x\t")
	}
	sub, ok := interp.Parts[1].(*ast.SubExpr)
	if !ok {
		t.Fatalf("middle part = %T, want a subexpression", interp.Parts[1])
	}
	inner := onlyExpr(t, ws.Block(sub.ID))
	if op, ok := inner.(*ast.BinaryOp); !ok || op.Op != ast.Add {
		t.Errorf("subexpression = %v, want an addition", inner)
	}
	if lit := interp.Parts[2].(*ast.StringLit); lit.Value != "y" {
		t.Errorf("last part = %q, want %q", lit.Value, "y")
	}
}

func TestParse_InterpEscapedParen(t *testing.T) {
	call := onlyExpr(t, parseGood(t, `print $"a\(b"`)).(*ast.Call)
	interp := call.Positional[0].(*ast.Interp)
	if len(interp.Parts) != 1 {
		t.Fatalf("want 1 literal part, got %+v", interp.Parts)
	}
	if lit := interp.Parts[0].(*ast.StringLit); lit.Value != "a(b" {
		t.Errorf("part = %q, want %q", lit.Value, "a(b")
	}
}

func TestParse_SingleQuoteInterpHasNoEscapes(t *testing.T) {
	call := onlyExpr(t, parseGood(t, `print $'a\t(1)'`)).(*ast.Call)
	interp := call.Positional[0].(*ast.Interp)
	if len(interp.Parts) != 2 {
		t.Fatalf("want 2 parts, got %+v", interp.Parts)
	}
	if lit := interp.Parts[0].(*ast.StringLit); lit.Value != `a\t` {
		t.Errorf("literal part = %q, want backslash kept", lit.Value)
	}
}

func TestParse_UnclosedInterpGroup(t *testing.T) {
	wantErr(t, `print $"a(1"`, "unclosed '(' in string interpolation")
}

func TestParse_Variables(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, "let n = 1; print $n")
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	id, ok := ws.FindVar("n")
	if !ok {
		t.Fatalf("let did not bind n")
	}
	call := block.Pipelines[1].Elements[0].Expr.(*ast.Call)
	v, ok := call.Positional[0].(*ast.Var)
	if !ok || v.ID != id {
		t.Errorf("$n = %+v, want variable %d", call.Positional[0], id)
	}
}

func TestParse_UnknownVariableDidYouMean(t *testing.T) {
	wantErr(t, "let total = 1; print $totl", "did you mean '$total'?")
}

func TestParse_VarPaths(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, `print $env.HOME."my key".0.user?`)
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	call := onlyExpr(t, block).(*ast.Call)
	path, ok := call.Positional[0].(*ast.Path)
	if !ok {
		t.Fatalf("argument = %T, want a path", call.Positional[0])
	}
	if v, ok := path.Head.(*ast.Var); !ok || v.ID != engine.EnvVarID {
		t.Errorf("path head = %+v, want $env", path.Head)
	}
	want := []ast.PathMember{
		{Kind: ast.KeyMember, Key: "HOME"},
		{Kind: ast.KeyMember, Key: "my key"},
		{Kind: ast.IndexMember, Index: 0},
		{Kind: ast.KeyMember, Key: "user", Optional: true},
	}
	if len(path.Members) != len(want) {
		t.Fatalf("got %d members, want %d", len(path.Members), len(want))
	}
	for i, w := range want {
		m := path.Members[i]
		if m.Kind != w.Kind || m.Key != w.Key || m.Index != w.Index || m.Optional != w.Optional {
			t.Errorf("member %d = %+v, want %+v", i, m, w)
		}
	}
}

func TestParse_BareCellPath(t *testing.T) {
	call := onlyExpr(t, parseGood(t, "get a.b.0")).(*ast.Call)
	path, ok := call.Positional[0].(*ast.Path)
	if !ok {
		t.Fatalf("argument = %T, want a path", call.Positional[0])
	}
	if path.Head != nil {
		t.Errorf("bare path head = %v, want nil", path.Head)
	}
	if len(path.Members) != 3 || path.Members[2].Kind != ast.IndexMember {
		t.Errorf("members = %+v", path.Members)
	}
}

func TestParse_Ranges(t *testing.T) {
	intVal := func(e ast.Expr) (int64, bool) {
		lit, ok := e.(*ast.IntLit)
		if !ok {
			return 0, false
		}
		return lit.Value, true
	}
	r := exprOf(t, "1..5").(*ast.Range)
	if v, _ := intVal(r.From); v != 1 {
		t.Errorf("from = %v", r.From)
	}
	if v, _ := intVal(r.To); v != 5 {
		t.Errorf("to = %v", r.To)
	}
	if r.Next != nil || r.Exclusive {
		t.Errorf("plain range = %+v", r)
	}

	r = exprOf(t, "1..<5").(*ast.Range)
	if !r.Exclusive {
		t.Errorf("..< is not exclusive")
	}

	r = exprOf(t, "0..2..10").(*ast.Range)
	if v, _ := intVal(r.Next); v != 2 {
		t.Errorf("next = %v", r.Next)
	}

	r = exprOf(t, "5..").(*ast.Range)
	if r.To != nil {
		t.Errorf("unbounded range has to = %v", r.To)
	}

	r = exprOf(t, "..5").(*ast.Range)
	if r.From != nil {
		t.Errorf("from-less range has from = %v", r.From)
	}

	r = exprOf(t, "1.5..3.5").(*ast.Range)
	if lit, ok := r.From.(*ast.FloatLit); !ok || lit.Value != 1.5 {
		t.Errorf("float range from = %v", r.From)
	}
}

func TestParse_RangeErrors(t *testing.T) {
	wantErr(t, "1..2..3..4", "too many '..' in a range")
	wantErr(t, "1....3", "missing step between '..'")
}

func TestParse_Lists(t *testing.T) {
	list := exprOf(t, "[1 2 3]").(*ast.List)
	if len(list.Items) != 3 {
		t.Fatalf("want 3 items, got %+v", list.Items)
	}
	if lit := list.Items[1].(*ast.IntLit); lit.Value != 2 {
		t.Errorf("item 1 = %v", list.Items[1])
	}

	// Commas separate just like spaces.
	list = exprOf(t, "[1, 2, 3]").(*ast.List)
	if len(list.Items) != 3 {
		t.Errorf("comma list has %d items", len(list.Items))
	}

	list = exprOf(t, "[[1 2] [3]]").(*ast.List)
	if len(list.Items) != 2 {
		t.Fatalf("nested list has %d items", len(list.Items))
	}
	if inner := list.Items[0].(*ast.List); len(inner.Items) != 2 {
		t.Errorf("inner list = %+v", inner)
	}
}

func TestParse_Tables(t *testing.T) {
	table := exprOf(t, "[[name age]; [ada 36] [bob 25]]").(*ast.Table)
	if len(table.Headers) != 2 {
		t.Fatalf("want 2 headers, got %+v", table.Headers)
	}
	if h := table.Headers[0].(*ast.StringLit); h.Value != "name" {
		t.Errorf("header 0 = %v", table.Headers[0])
	}
	if len(table.Rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(table.Rows))
	}
	if age := table.Rows[1][1].(*ast.IntLit); age.Value != 25 {
		t.Errorf("row 1 age = %v", table.Rows[1][1])
	}
}

func TestParse_TableRowWidthMismatch(t *testing.T) {
	wantErr(t, "[[a]; [1 2]]", "table row has 2 values for 1 headers")
}

func TestParse_Records(t *testing.T) {
	rec := exprOf(t, "{a: 1, b: 'x y'}").(*ast.Record)
	if len(rec.Items) != 2 {
		t.Fatalf("want 2 items, got %+v", rec.Items)
	}
	if k := rec.Items[0].Key.(*ast.StringLit); k.Value != "a" {
		t.Errorf("key 0 = %v", rec.Items[0].Key)
	}
	if v := rec.Items[0].Value.(*ast.IntLit); v.Value != 1 {
		t.Errorf("value 0 = %v", rec.Items[0].Value)
	}
	if v := rec.Items[1].Value.(*ast.StringLit); v.Value != "x y" {
		t.Errorf("value 1 = %v", rec.Items[1].Value)
	}
}

func TestParse_DuplicateRecordKey(t *testing.T) {
	wantErr(t, "{a: 1, a: 2}", "duplicate record key 'a'")
}

func TestParse_BraceDisambiguation(t *testing.T) {
	if _, ok := exprOf(t, "{}").(*ast.Record); !ok {
		t.Errorf("{} should read as an empty record")
	}
	if _, ok := exprOf(t, "{a: 1}").(*ast.Record); !ok {
		t.Errorf("{a: 1} should read as a record")
	}
	if _, ok := exprOf(t, "{ print 1 }").(*ast.ClosureExpr); !ok {
		t.Errorf("{ print 1 } should read as a closure")
	}
	if _, ok := exprOf(t, "{|| print 1}").(*ast.ClosureExpr); !ok {
		t.Errorf("{|| print 1} should read as a closure")
	}
}

func TestParse_ClosureParams(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, "each {|acc, x| print $acc $x}")
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	call := onlyExpr(t, block).(*ast.Call)
	closure := call.Positional[0].(*ast.ClosureExpr)
	sig := ws.Block(closure.ID).Signature
	if len(sig.Positional) != 2 || sig.Positional[0].Name != "acc" || sig.Positional[1].Name != "x" {
		t.Errorf("closure params = %+v", sig.Positional)
	}
}

func TestParse_ClosureCaptures(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, "let a = 1; let b = 2; each {|x| print $b $a $b}")
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	aID, _ := ws.FindVar("a")
	bID, _ := ws.FindVar("b")
	call := block.Pipelines[2].Elements[0].Expr.(*ast.Call)
	closure := call.Positional[0].(*ast.ClosureExpr)
	captures := ws.Block(closure.ID).Captures
	// First-reference order, each variable once; the parameter is not
	// captured.
	if len(captures) != 2 || captures[0] != bID || captures[1] != aID {
		t.Errorf("captures = %v, want [%d %d]", captures, bID, aID)
	}
}

func TestParse_NestedClosureCaptures(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, "let c = 3; each {|x| each {|y| print $c}}")
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	cID, _ := ws.FindVar("c")
	outerCall := block.Pipelines[1].Elements[0].Expr.(*ast.Call)
	outer := outerCall.Positional[0].(*ast.ClosureExpr)
	outerBlock := ws.Block(outer.ID)
	if len(outerBlock.Captures) != 1 || outerBlock.Captures[0] != cID {
		t.Errorf("outer captures = %v, want [%d]", outerBlock.Captures, cID)
	}
	innerCall := outerBlock.Pipelines[0].Elements[0].Expr.(*ast.Call)
	inner := innerCall.Positional[0].(*ast.ClosureExpr)
	if caps := ws.Block(inner.ID).Captures; len(caps) != 1 || caps[0] != cID {
		t.Errorf("inner captures = %v, want [%d]", caps, cID)
	}
}

func TestParse_ReservedVarsNotCaptured(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, "each {|x| print $env.HOME $in}")
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	call := onlyExpr(t, block).(*ast.Call)
	closure := call.Positional[0].(*ast.ClosureExpr)
	if caps := ws.Block(closure.ID).Captures; len(caps) != 0 {
		t.Errorf("captures = %v, want none", caps)
	}
}

func TestParse_SubExpr(t *testing.T) {
	ws := testWorkingSet()
	block, errs := parseIn(t, ws, "print (print 1 | length)")
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errMsgs(errs))
	}
	call := onlyExpr(t, block).(*ast.Call)
	sub, ok := call.Positional[0].(*ast.SubExpr)
	if !ok {
		t.Fatalf("argument = %T, want a subexpression", call.Positional[0])
	}
	inner := ws.Block(sub.ID)
	if len(inner.Pipelines) != 1 || len(inner.Pipelines[0].Elements) != 2 {
		t.Errorf("inner block = %+v, want one two-element pipeline", inner.Pipelines)
	}
}

func TestParse_SubExprScopeIsLocal(t *testing.T) {
	_, errs := parseOne(t, "print (let y = 5; print $y)\nprint $y")
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "unknown variable '$y'") {
		t.Errorf("want exactly one unknown variable error, got %v", errMsgs(errs))
	}
}

func TestParse_ParenRange(t *testing.T) {
	r, ok := exprOf(t, "(1 + 2)..(7 - 1)").(*ast.Range)
	if !ok {
		t.Fatalf("parenthesized range did not parse as a range")
	}
	if _, ok := r.From.(*ast.SubExpr); !ok {
		t.Errorf("range from = %T, want a subexpression", r.From)
	}
	if _, ok := r.To.(*ast.SubExpr); !ok {
		t.Errorf("range to = %T, want a subexpression", r.To)
	}
}
