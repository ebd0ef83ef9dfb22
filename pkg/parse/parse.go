// Package parse turns Kelp source text into the typed syntax tree defined in
// package ast, resolving names against a working set as it goes.
//
// Parsing is signature-driven: the arguments of a call are consumed according
// to the declared signature of the resolved command, so arity errors and
// literal shape mismatches surface before anything runs. Errors accumulate
// instead of stopping the parse; the returned block is always structurally
// complete, with Garbage nodes standing in for unparsable text.
package parse

import (
	"errors"
	"fmt"
	"strings"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/lex"
)

// Error is the type of parse errors.
type Error = diag.Error[ErrorTag]

// ErrorTag is the tag for [Error].
type ErrorTag struct{}

// ErrorTag returns the error category.
func (ErrorTag) ErrorTag() string { return "parse error" }

// UnpackErrors returns the individual errors packed inside an error returned
// by Parse. It returns nil if err is not built of parse errors.
func UnpackErrors(err error) []*Error {
	return diag.UnpackErrors[ErrorTag](err)
}

// IsUnexpectedEof reports whether every error inside err is caused by the
// source ending prematurely, the signal used by interactive frontends to
// read a continuation line instead of reporting failure.
func IsUnexpectedEof(err error) bool {
	errs := UnpackErrors(err)
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if !e.Partial {
			return false
		}
	}
	return true
}

// Parse parses one source unit against a working set. The unit is registered
// as a new file in the working set and assigned the next zone of the global
// span space; every node of the returned block carries global offsets into
// that zone.
//
// New declarations land in the working set's delta and become permanent only
// when the caller merges the rendered delta. When scoped is true the unit is
// parsed in a scope of its own, so its bindings stay invisible to later
// units even after a merge.
//
// The returned error is either nil or a pack of [Error] values. Parsing
// keeps going after an error, so the block is usable for analysis even when
// the error is non-nil; it must not be evaluated in that case.
func Parse(ws *engine.WorkingSet, name, src string, scoped bool) (*ast.Block, error) {
	_, file := ws.AddFile(name, src)
	p := &parser{
		ws:        ws,
		file:      file,
		expanding: make(map[ast.DeclID]bool),
	}
	toks := p.lexAt(file.Code, file.From, lex.Config{SkipComments: true})
	block := p.block(toks, ast.NewSignature(""), scoped, file.Ranging)
	return block, diag.PackErrors(p.errs)
}

type parser struct {
	ws   *engine.WorkingSet
	file *engine.SourceFile
	errs []*Error

	// Enclosing closure contexts, innermost last. A variable resolved
	// through a scope outside a context's base is recorded as a capture of
	// that closure.
	closures []*closureCtx
	// Scope depths of enclosing def bodies, innermost last. Def bodies run
	// behind a call barrier, so variables declared below the innermost
	// depth must not resolve; the stack will not have them at run time.
	funcBases []int
	// Export tables of enclosing module bodies, innermost last.
	moduleExports []map[string]ast.DeclID
	// Names declared by def and alias per enclosing block, innermost last.
	declared []map[string]bool
	// Absolute paths of files being read by use and source, for cycle
	// detection.
	reading map[string]bool
	// Aliases being expanded, for cycle detection.
	expanding map[ast.DeclID]bool
}

type closureCtx struct {
	base     int
	captured map[ast.VarID]bool
	captures []ast.VarID
}

func (cc *closureCtx) capture(id ast.VarID) {
	if !cc.captured[id] {
		cc.captured[id] = true
		cc.captures = append(cc.captures, id)
	}
}

// lexAt scans a fragment of source text sitting at the given global offset.
// Lexical errors become parse errors; the tokens are usable regardless.
func (p *parser) lexAt(src string, offset int, cfg lex.Config) []lex.Token {
	toks, err := lex.Lex(src, offset, cfg)
	var lexErr *lex.Error
	if errors.As(err, &lexErr) {
		r := lexErr.Context.Ranging
		p.errAt(diag.Ranging{From: offset + r.From, To: offset + r.To},
			lexErr.Partial, "%s", lexErr.Message)
	}
	return toks
}

// errorf records a parse error spanning r.
func (p *parser) errorf(r diag.Ranger, format string, args ...any) {
	p.errAt(r.Range(), false, format, args...)
}

// errorfEof records a parse error, marked partial when it sits at the very
// end of the source unit, where a continuation line could still complete
// the input.
func (p *parser) errorfEof(r diag.Ranger, format string, args ...any) {
	rr := r.Range()
	p.errAt(rr, p.atSrcEnd(rr.To), format, args...)
}

func (p *parser) errAt(r diag.Ranging, partial bool, format string, args ...any) {
	local := diag.Ranging{From: r.From - p.file.From, To: r.To - p.file.From}
	if r.IsUnknown() {
		local = diag.PointRanging(len(p.file.Code))
	}
	p.errs = append(p.errs, &Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(p.file.Name, p.file.Code, local),
		Partial: partial,
	})
}

// atSrcEnd reports whether a global offset sits at the end of the current
// source unit. Trailing whitespace does not count: an input ending in a
// pipe still ends in the pipe after the final newline.
func (p *parser) atSrcEnd(offset int) bool {
	end := len(strings.TrimRight(p.file.Code, " \t\r\n"))
	return offset-p.file.From >= end
}

// block parses statements into a block carrying the given signature. The
// caller binds any parameters beforehand; when scoped is true the block gets
// a scope of its own.
func (p *parser) block(toks []lex.Token, sig *ast.Signature, scoped bool, r diag.Ranging) *ast.Block {
	if scoped {
		p.ws.PushScope()
		defer p.ws.PopScope()
	}
	p.declared = append(p.declared, make(map[string]bool))
	defer func() { p.declared = p.declared[:len(p.declared)-1] }()

	var pipelines []*ast.Pipeline
	for _, stmt := range splitStatements(toks) {
		pipelines = append(pipelines, p.statement(stmt))
	}
	return &ast.Block{Signature: sig, Pipelines: pipelines, Ranging: r}
}

// splitStatements cuts a token sequence at newlines and semicolons. A
// newline directly following a pipe continues the current statement, so a
// pipeline can spread over several lines.
func splitStatements(toks []lex.Token) [][]lex.Token {
	var stmts [][]lex.Token
	var cur []lex.Token
	for _, t := range toks {
		switch t.Kind {
		case lex.Eol:
			if len(cur) > 0 && isPipeKind(cur[len(cur)-1].Kind) {
				continue
			}
			if len(cur) > 0 {
				stmts = append(stmts, cur)
				cur = nil
			}
		case lex.Semicolon:
			if len(cur) > 0 {
				stmts = append(stmts, cur)
				cur = nil
			}
		default:
			cur = append(cur, t)
		}
	}
	if len(cur) > 0 {
		stmts = append(stmts, cur)
	}
	return stmts
}

func isPipeKind(k lex.Kind) bool {
	return k == lex.Pipe || k == lex.ErrPipe || k == lex.OutErrPipe
}

// statement parses one statement. Statement forms that bind names at parse
// time are dispatched by their leading keyword before any pipe splitting,
// since their right-hand sides may contain pipes of their own.
func (p *parser) statement(toks []lex.Token) *ast.Pipeline {
	r := tokensRange(toks)
	if head := statementHead(toks); head != "" {
		if fn := keywordStatements[head]; fn != nil && p.keywordRegistered(head) {
			expr := fn(p, toks)
			return &ast.Pipeline{
				Elements: []*ast.PipelineElement{{Expr: expr, Ranging: r}},
				Ranging:  r,
			}
		}
	}
	if isAssignStatement(toks) {
		expr := p.assignStatement(toks)
		return &ast.Pipeline{
			Elements: []*ast.PipelineElement{{Expr: expr, Ranging: r}},
			Ranging:  r,
		}
	}
	return p.pipeline(toks)
}

func statementHead(toks []lex.Token) string {
	if len(toks) == 0 || toks[0].Kind != lex.Item {
		return ""
	}
	return toks[0].Text
}

// keywordRegistered reports whether the builtin backing a keyword statement
// is declared. Without it the keyword parses like any other command name.
func (p *parser) keywordRegistered(head string) bool {
	if head == "export" {
		head = "def"
	}
	_, ok := p.ws.FindDecl(head)
	return ok
}

// pipeline splits a statement at pipes and parses each element.
func (p *parser) pipeline(toks []lex.Token) *ast.Pipeline {
	r := tokensRange(toks)
	if len(toks) == 0 {
		return &ast.Pipeline{Ranging: r}
	}
	var elems []*ast.PipelineElement
	input := ast.PipeOut
	start := 0
	for i := 0; i <= len(toks); i++ {
		var next ast.PipeKind
		if i < len(toks) {
			switch toks[i].Kind {
			case lex.Pipe:
				next = ast.PipeOut
			case lex.ErrPipe:
				next = ast.PipeErr
			case lex.OutErrPipe:
				next = ast.PipeOutErr
			default:
				continue
			}
		}
		seg := toks[start:i]
		if len(seg) == 0 {
			if i < len(toks) {
				p.errorf(toks[i], "missing pipeline element before %v", toks[i].Kind)
			} else {
				last := toks[len(toks)-1]
				p.errorfEof(last, "pipeline ends with %v", last.Kind)
			}
		} else {
			elems = append(elems, p.element(seg, input))
		}
		if i < len(toks) {
			input = next
			start = i + 1
		}
	}
	return &ast.Pipeline{Elements: elems, Ranging: r}
}

// pipelineExpr parses tokens as a pipeline and wraps it in a subexpression,
// so the right side of let and of assignments can be a full pipeline whose
// output becomes the assigned value.
func (p *parser) pipelineExpr(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	pl := p.pipeline(toks)
	id := p.ws.AddBlock(&ast.Block{
		Signature: ast.NewSignature(""),
		Pipelines: []*ast.Pipeline{pl},
		Ranging:   r,
	})
	return &ast.SubExpr{ID: id, Ranging: r}
}

// element parses one pipeline element: redirections are split off, and the
// rest is parsed as a command call or an operator expression.
func (p *parser) element(toks []lex.Token, input ast.PipeKind) *ast.PipelineElement {
	r := tokensRange(toks)
	rest, redirs := p.redirections(toks)
	c := &cursor{toks: rest}
	var expr ast.Expr
	if !c.more() {
		p.errorf(r, "element has only redirections")
		expr = &ast.Garbage{Ranging: r}
	} else {
		expr = p.elementExpr(c)
		if c.more() {
			p.errorf(tokensRange(c.rest()), "unexpected %s after expression", describe(c.peek()))
		}
	}
	return &ast.PipelineElement{Input: input, Expr: expr, Redirections: redirs, Ranging: r}
}

// redirections splits redirection operators and their targets out of an
// element's tokens.
func (p *parser) redirections(toks []lex.Token) ([]lex.Token, []*ast.Redirection) {
	var rest []lex.Token
	var redirs []*ast.Redirection
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		source, appendTo, ok := redirKind(t.Kind)
		if !ok {
			rest = append(rest, t)
			continue
		}
		if i+1 >= len(toks) {
			p.errorfEof(t, "missing redirection target after %v", t.Kind)
			continue
		}
		target := p.shapeItem(toks[i+1], ast.ShapeString)
		redirs = append(redirs, &ast.Redirection{
			Source:  source,
			Append:  appendTo,
			Target:  target,
			Ranging: diag.MixedRanging(t, toks[i+1]),
		})
		i++
	}
	return rest, redirs
}

func redirKind(k lex.Kind) (ast.RedirSource, bool, bool) {
	switch k {
	case lex.OutRedirect:
		return ast.RedirOut, false, true
	case lex.OutAppendRedirect:
		return ast.RedirOut, true, true
	case lex.ErrRedirect:
		return ast.RedirErr, false, true
	case lex.ErrAppendRedirect:
		return ast.RedirErr, true, true
	case lex.OutErrRedirect:
		return ast.RedirOutErr, false, true
	case lex.OutErrAppendRedirect:
		return ast.RedirOutErr, true, true
	}
	return 0, false, false
}

// elementExpr parses the body of one pipeline element. A leading bareword
// resolves to a command call or an external command; anything else is an
// operator expression.
func (p *parser) elementExpr(c *cursor) ast.Expr {
	tok := c.peek()
	if tok.Kind != lex.Item {
		p.errorf(tok, "unexpected %v", tok.Kind)
		c.i = len(c.toks)
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	text := tok.Text
	switch {
	case strings.HasPrefix(text, "^"):
		c.next()
		return p.externalCall(c, tok, strings.TrimPrefix(text, "^"))
	case looksLikePath(text):
		c.next()
		return p.externalCall(c, tok, text)
	case isCommandHead(text):
		return p.call(c)
	default:
		return p.mathExpr(c, 1)
	}
}

// looksLikePath reports whether a head word names a program by path rather
// than by name.
func looksLikePath(text string) bool {
	return strings.HasPrefix(text, "./") || strings.HasPrefix(text, "../") ||
		strings.HasPrefix(text, "/") || strings.HasPrefix(text, "~/") ||
		strings.ContainsRune(text, '/')
}

// isCommandHead reports whether an item in head position starts a command
// call rather than an operator expression. Barewords do, unless they read
// as a literal or an operator.
func isCommandHead(text string) bool {
	if text == "" {
		return false
	}
	switch text[0] {
	case '$', '(', '[', '{', '\'', '"', '`', '-', '+', '.':
		return false
	}
	if text[0] >= '0' && text[0] <= '9' {
		return false
	}
	if isRawStringText(text) {
		return false
	}
	switch text {
	case "true", "false", "null", "not":
		return false
	}
	if _, ok := binOps[text]; ok {
		return false
	}
	return true
}

// cursor walks the tokens of one pipeline element.
type cursor struct {
	toks []lex.Token
	i    int
}

func (c *cursor) more() bool        { return c.i < len(c.toks) }
func (c *cursor) peek() lex.Token   { return c.toks[c.i] }
func (c *cursor) rest() []lex.Token { return c.toks[c.i:] }

func (c *cursor) next() lex.Token {
	t := c.toks[c.i]
	c.i++
	return t
}

// tokensRange returns the overall range of a token sequence.
func tokensRange(toks []lex.Token) diag.Ranging {
	if len(toks) == 0 {
		return diag.Unknown
	}
	return diag.MixedRanging(toks[0], toks[len(toks)-1])
}

// describe renders a token for an error message.
func describe(t lex.Token) string {
	if t.Kind == lex.Item {
		return fmt.Sprintf("'%s'", t.Text)
	}
	return t.Kind.String()
}
