package parse

import (
	"strings"
	"testing"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
)

type nopCmd struct{ sig *ast.Signature }

func (c nopCmd) Signature() *ast.Signature { return c.sig }

func (c nopCmd) Run(es *engine.EngineState, st *engine.Stack, call *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	return input, nil
}

// testWorkingSet returns a working set with the declarations the parser
// resolves against: the statement builtins and a spread of commands
// covering every signature feature.
func testWorkingSet() *engine.WorkingSet {
	ws := engine.NewWorkingSet(engine.NewEngineState())
	sigs := []*ast.Signature{
		ast.NewSignature("let").AddRequired("name", ast.ShapeAny, "").AddRequired("value", ast.ShapeAny, ""),
		ast.NewSignature("mut").AddRequired("name", ast.ShapeAny, "").AddRequired("value", ast.ShapeAny, ""),
		ast.NewSignature("def").AddRequired("name", ast.ShapeString, ""),
		ast.NewSignature("alias").AddRequired("name", ast.ShapeString, ""),
		ast.NewSignature("use").AddRequired("module", ast.ShapeString, ""),
		ast.NewSignature("module").AddRequired("name", ast.ShapeString, ""),
		ast.NewSignature("source").AddRequired("file", ast.ShapeBlock, ""),
		ast.NewSignature("for").
			AddRequired("name", ast.ShapeAny, "").
			AddRequired("iterable", ast.ShapeAny, "").
			AddRequired("body", ast.ShapeBlock, ""),

		ast.NewSignature("print").AddRest("values", ast.ShapeAny, ""),
		ast.NewSignature("length"),
		ast.NewSignature("if").
			AddRequired("condition", ast.ShapeMathExpr, "").
			AddRequired("then", ast.ShapeBlock, "").
			AddKeyword("else", "else", ast.ShapeBlock, ""),
		ast.NewSignature("each").AddRequired("action", ast.ShapeClosure, ""),
		ast.NewSignature("first").AddOptional("count", ast.ShapeInt, ""),
		ast.NewSignature("get").AddRequired("path", ast.ShapeCellPath, ""),
		ast.NewSignature("sleep").AddRequired("duration", ast.ShapeDuration, ""),
		ast.NewSignature("sort").
			AddSwitch("reverse", 'r', "").
			AddFlag("key", 'k', ast.ShapeString, ""),
		ast.NewSignature("str join").AddOptional("separator", ast.ShapeString, ""),
		ast.NewSignature("from json"),
	}
	for _, sig := range sigs {
		ws.AddBuiltin(nopCmd{sig})
	}
	return ws
}

func parseIn(t *testing.T, ws *engine.WorkingSet, src string) (*ast.Block, []*Error) {
	t.Helper()
	block, err := Parse(ws, "[test]", src, false)
	return block, UnpackErrors(err)
}

func parseOne(t *testing.T, src string) (*ast.Block, []*Error) {
	t.Helper()
	return parseIn(t, testWorkingSet(), src)
}

func parseGood(t *testing.T, src string) *ast.Block {
	t.Helper()
	block, errs := parseOne(t, src)
	if len(errs) > 0 {
		t.Fatalf("parse %q: unexpected errors: %v", src, errMsgs(errs))
	}
	return block
}

func errMsgs(errs []*Error) []string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return msgs
}

func onlyExpr(t *testing.T, block *ast.Block) ast.Expr {
	t.Helper()
	if len(block.Pipelines) != 1 || len(block.Pipelines[0].Elements) != 1 {
		t.Fatalf("want a single pipeline element, got %+v", block.Pipelines)
	}
	return block.Pipelines[0].Elements[0].Expr
}

// exprOf parses a single-element statement and returns its expression.
func exprOf(t *testing.T, src string) ast.Expr {
	t.Helper()
	return onlyExpr(t, parseGood(t, src))
}

// wantErr asserts that parsing src produces an error containing substr.
func wantErr(t *testing.T, src, substr string) {
	t.Helper()
	_, errs := parseOne(t, src)
	for _, e := range errs {
		if strings.Contains(e.Message, substr) {
			return
		}
	}
	t.Errorf("parse %q: no error containing %q; got %v", src, substr, errMsgs(errs))
}

func TestParse_EmptySource(t *testing.T) {
	for _, src := range []string{"", "\n", "  \n\n", "# comment\n", ";;"} {
		block, errs := parseOne(t, src)
		if len(errs) > 0 {
			t.Errorf("parse %q: unexpected errors %v", src, errMsgs(errs))
		}
		if len(block.Pipelines) != 0 {
			t.Errorf("parse %q: want no pipelines, got %d", src, len(block.Pipelines))
		}
	}
}

func TestParse_StatementSplitting(t *testing.T) {
	block := parseGood(t, "print 1; print 2\nprint 3")
	if len(block.Pipelines) != 3 {
		t.Fatalf("want 3 statements, got %d", len(block.Pipelines))
	}
}

func TestParse_PipeKinds(t *testing.T) {
	block := parseGood(t, "print 1 | length e>| length o+e>| length")
	elems := block.Pipelines[0].Elements
	if len(elems) != 4 {
		t.Fatalf("want 4 elements, got %d", len(elems))
	}
	wantInputs := []ast.PipeKind{ast.PipeOut, ast.PipeOut, ast.PipeErr, ast.PipeOutErr}
	for i, want := range wantInputs {
		if elems[i].Input != want {
			t.Errorf("element %d has input %v, want %v", i, elems[i].Input, want)
		}
	}
}

func TestParse_PipeContinuesOverNewline(t *testing.T) {
	block := parseGood(t, "print 1 |\n  length")
	if len(block.Pipelines) != 1 {
		t.Fatalf("want 1 statement, got %d", len(block.Pipelines))
	}
	if len(block.Pipelines[0].Elements) != 2 {
		t.Fatalf("want 2 elements, got %d", len(block.Pipelines[0].Elements))
	}
}

func TestParse_Redirections(t *testing.T) {
	block := parseGood(t, "print 1 o> out.log e>> err.log")
	elem := block.Pipelines[0].Elements[0]
	if len(elem.Redirections) != 2 {
		t.Fatalf("want 2 redirections, got %d", len(elem.Redirections))
	}
	r0, r1 := elem.Redirections[0], elem.Redirections[1]
	if r0.Source != ast.RedirOut || r0.Append {
		t.Errorf("first redirection = %+v, want out, no append", r0)
	}
	if s, ok := r0.Target.(*ast.StringLit); !ok || s.Value != "out.log" {
		t.Errorf("first target = %v, want string out.log", r0.Target)
	}
	if r1.Source != ast.RedirErr || !r1.Append {
		t.Errorf("second redirection = %+v, want err, append", r1)
	}
	if call, ok := elem.Expr.(*ast.Call); !ok || len(call.Positional) != 1 {
		t.Errorf("redirections leaked into the call: %+v", elem.Expr)
	}
}

func TestParse_RedirectionTargetMayBeDynamic(t *testing.T) {
	block := parseGood(t, "let f = 'x.log'; print 1 o> $f")
	elem := block.Pipelines[1].Elements[0]
	if len(elem.Redirections) != 1 {
		t.Fatalf("want 1 redirection, got %d", len(elem.Redirections))
	}
	if _, ok := elem.Redirections[0].Target.(*ast.Var); !ok {
		t.Errorf("target = %T, want variable", elem.Redirections[0].Target)
	}
}

func TestParse_MissingRedirectionTarget(t *testing.T) {
	_, errs := parseOne(t, "print 1 o>")
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "missing redirection target") {
		t.Fatalf("want a missing target error, got %v", errMsgs(errs))
	}
	if !errs[0].Partial {
		t.Errorf("error at source end should be partial")
	}
}

func TestParse_BareGtHintsRedirect(t *testing.T) {
	wantErr(t, "print >", "use 'o> file'")
}

func TestParse_EmptyPipeSegment(t *testing.T) {
	wantErr(t, "| print 1", "missing pipeline element")
	wantErr(t, "print 1 | | print 2", "missing pipeline element")
}

func TestParse_TrailingPipeIsPartial(t *testing.T) {
	for _, src := range []string{"print 1 |", "print 1 |\n", "print 1 e>|  "} {
		_, err := Parse(testWorkingSet(), "[test]", src, false)
		if !IsUnexpectedEof(err) {
			t.Errorf("parse %q: want unexpected EOF, got %v", src, err)
		}
	}
}

func TestParse_UnterminatedInputIsPartial(t *testing.T) {
	srcs := []string{
		"print 'abc",
		"print (1 + 2",
		"def f [] {",
		"print [1 2",
		`print "x`,
	}
	for _, src := range srcs {
		_, err := Parse(testWorkingSet(), "[test]", src, false)
		if !IsUnexpectedEof(err) {
			t.Errorf("parse %q: want unexpected EOF, got %v", src, err)
		}
	}
}

func TestParse_HardErrorIsNotPartial(t *testing.T) {
	// A genuine error alongside a trailing pipe must not read as a
	// continuation.
	_, err := Parse(testWorkingSet(), "[test]", "print $nope |", false)
	if err == nil || IsUnexpectedEof(err) {
		t.Errorf("want a hard error, got %v", err)
	}
}

func TestParse_ErrorsAccumulate(t *testing.T) {
	_, errs := parseOne(t, "print $nope $also")
	if len(errs) != 2 {
		t.Fatalf("want 2 errors, got %v", errMsgs(errs))
	}
	for _, e := range errs {
		if !strings.Contains(e.Message, "unknown variable") {
			t.Errorf("unexpected message %q", e.Message)
		}
	}
}

func TestParse_GarbageKeepsCallStructure(t *testing.T) {
	block, errs := parseOne(t, "print $nope 2")
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %v", errMsgs(errs))
	}
	call := onlyExpr(t, block).(*ast.Call)
	if len(call.Positional) != 2 {
		t.Fatalf("want 2 arguments despite the error, got %d", len(call.Positional))
	}
	if _, ok := call.Positional[0].(*ast.Garbage); !ok {
		t.Errorf("first argument = %T, want garbage", call.Positional[0])
	}
	if lit, ok := call.Positional[1].(*ast.IntLit); !ok || lit.Value != 2 {
		t.Errorf("second argument = %v, want 2", call.Positional[1])
	}
}

func TestParse_SecondUnitContinuesSpans(t *testing.T) {
	ws := testWorkingSet()
	src1 := "let x = 1\n"
	if _, errs := parseIn(t, ws, src1); len(errs) > 0 {
		t.Fatalf("first unit: %v", errMsgs(errs))
	}
	block, err := Parse(ws, "[test2]", "  $nope", false)
	if block.From != len(src1) {
		t.Errorf("second unit starts at %d, want %d", block.From, len(src1))
	}
	errs := UnpackErrors(err)
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %v", errMsgs(errs))
	}
	ctx := errs[0].Context
	if ctx.Name != "[test2]" {
		t.Errorf("error context name = %q, want [test2]", ctx.Name)
	}
	if ctx.Ranging.From != 2 {
		t.Errorf("error range local to its unit = %v, want From 2", ctx.Ranging)
	}
}

func TestParse_ScopedUnitBindingsStayLocal(t *testing.T) {
	ws := testWorkingSet()
	if _, err := Parse(ws, "[a]", "let x = 1", true); err != nil {
		t.Fatalf("scoped unit: %v", err)
	}
	if _, ok := ws.FindVar("x"); ok {
		t.Fatalf("scoped binding leaked out of its unit")
	}

	ws2 := testWorkingSet()
	if _, err := Parse(ws2, "[a]", "let x = 1", false); err != nil {
		t.Fatalf("unscoped unit: %v", err)
	}
	if _, ok := ws2.FindVar("x"); !ok {
		t.Fatalf("unscoped binding should persist for later units")
	}
}

func TestParse_SameInputSameResult(t *testing.T) {
	src := "module m { export def a [] { print 1 }\n export def b [] { print 2 } }; use m; m a | m b; print $nope"
	var first []string
	for i := 0; i < 3; i++ {
		_, errs := parseOne(t, src)
		msgs := errMsgs(errs)
		if i == 0 {
			first = msgs
			continue
		}
		if strings.Join(msgs, "\x00") != strings.Join(first, "\x00") {
			t.Fatalf("run %d produced different errors: %v vs %v", i, msgs, first)
		}
	}
}

func TestParse_KeywordOnlyStartsStatement(t *testing.T) {
	wantErr(t, "print 1 | let x = 2", "can only start a statement")
}

func TestParse_StatementRangesCoverSource(t *testing.T) {
	src := "print 1 | length"
	block := parseGood(t, src)
	if block.From != 0 || block.To != len(src) {
		t.Errorf("block range = %v, want {0 %d}", block.Ranging, len(src))
	}
	pl := block.Pipelines[0]
	if pl.From != 0 || pl.To != len(src) {
		t.Errorf("pipeline range = %v, want {0 %d}", pl.Ranging, len(src))
	}
	second := pl.Elements[1]
	if src[second.From:second.To] != "length" {
		t.Errorf("second element spans %q", src[second.From:second.To])
	}
}
