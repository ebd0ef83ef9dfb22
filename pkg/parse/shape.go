package parse

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/lex"
	"src.kelp.sh/pkg/strutil"
)

// shapeItem parses a single item as an expression of the given shape. Shape
// mismatches in literals are reported right away; variables and
// subexpressions always pass, with their values checked at run time.
func (p *parser) shapeItem(tok lex.Token, shape ast.SyntaxShape) ast.Expr {
	if tok.Kind != lex.Item {
		p.errorf(tok, "unexpected %v", tok.Kind)
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	expr := p.atom(tok, shape)
	p.checkShape(expr, shape)
	return expr
}

// atom parses the text of one item. The declared shape steers ambiguous
// text: braces read as records, blocks or closures depending on it, and a
// string shape keeps numeric-looking words literal.
func (p *parser) atom(tok lex.Token, shape ast.SyntaxShape) ast.Expr {
	text := tok.Text
	r := tok.Ranging
	if text == "" {
		p.errorf(r, "missing value")
		return &ast.Garbage{Ranging: r}
	}
	switch text[0] {
	case '$':
		return p.dollar(tok)
	case '(':
		return p.subExprOrRange(tok)
	case '[':
		return p.listOrTable(tok)
	case '{':
		return p.brace(tok, shape)
	case '\'', '"', '`':
		return p.stringAtom(tok)
	}
	if isRawStringText(text) {
		return p.rawString(tok)
	}
	switch text {
	case ">", ">>":
		p.errorf(r, "unexpected '%s'; use 'o%s file' to redirect output", text, text)
		return &ast.Garbage{Ranging: r}
	}
	if _, ok := binOps[text]; ok || text == "not" {
		p.errorf(r, "unexpected operator '%s'", text)
		return &ast.Garbage{Ranging: r}
	}
	if shape == ast.ShapeCellPath {
		return p.cellPath(tok)
	}
	if shape != ast.ShapeString {
		if topLevelRangeDots(text) >= 0 {
			return p.rangeAtom(tok)
		}
		switch text {
		case "true":
			return &ast.BoolLit{Value: true, Ranging: r}
		case "false":
			return &ast.BoolLit{Value: false, Ranging: r}
		case "null":
			return &ast.NothingLit{Ranging: r}
		}
		if expr, ok := p.numberAtom(tok); ok {
			return expr
		}
	}
	if strings.ContainsAny(text, `'"`) {
		return p.segmented(tok)
	}
	return &ast.StringLit{Value: text, Ranging: r}
}

// dollar parses $name, cell paths like $x.a.0.b, and interpolated strings.
func (p *parser) dollar(tok lex.Token) ast.Expr {
	text := tok.Text
	if strings.HasPrefix(text, `$"`) || strings.HasPrefix(text, "$'") {
		return p.interp(tok)
	}
	i := 1
	for i < len(text) && isVarNameByte(text[i]) {
		i++
	}
	name := text[1:i]
	nameR := diag.Ranging{From: tok.From, To: tok.From + i}
	if name == "" {
		p.errorf(nameR, "'$' must be followed by a variable name")
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	head := p.variable(name, nameR)
	if i == len(text) {
		return head
	}
	members, ok := p.pathMembers(text[i:], tok.From+i)
	if !ok {
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	return &ast.Path{Head: head, Members: members, Ranging: tok.Ranging}
}

// variable resolves a variable reference, recording captures for enclosing
// closures.
func (p *parser) variable(name string, r diag.Ranging) ast.Expr {
	id, scope, ok := p.ws.FindVarScope(name)
	if !ok {
		msg := "unknown variable '$" + name + "'"
		if near, found := strutil.Nearest(name, p.ws.VarNames()); found {
			msg += "; did you mean '$" + near + "'?"
		}
		p.errorf(r, "%s", msg)
		return &ast.Garbage{Ranging: r}
	}
	if !reservedVar(id) {
		if scope < p.varFloor() {
			p.errorf(r, "'$%s' is declared outside the command and cannot be used in its body", name)
			return &ast.Garbage{Ranging: r}
		}
		for _, cc := range p.closures {
			if scope < cc.base {
				cc.capture(id)
			}
		}
	}
	return &ast.Var{ID: id, Ranging: r}
}

// varFloor is the scope depth below which variables are invisible, set by
// the innermost enclosing def body.
func (p *parser) varFloor() int {
	if len(p.funcBases) == 0 {
		return -1
	}
	return p.funcBases[len(p.funcBases)-1]
}

// reservedVar reports the variables bound in every scope and rebound per
// frame. They are never captured and cross call barriers freely.
func reservedVar(id ast.VarID) bool {
	return id == engine.InVarID || id == engine.EnvVarID
}

// pathMembers parses the .member chain of a cell path. The offset is the
// global position of rest's first byte, which must be a '.'.
func (p *parser) pathMembers(rest string, offset int) ([]ast.PathMember, bool) {
	var members []ast.PathMember
	i := 0
	for i < len(rest) {
		if rest[i] != '.' {
			p.errorf(diag.PointRanging(offset+i), "unexpected '%c' in a cell path", rest[i])
			return nil, false
		}
		i++
		start := i
		var m ast.PathMember
		if i < len(rest) && (rest[i] == '"' || rest[i] == '\'') {
			end := skipQuoted(rest, i)
			if end > len(rest) || end < i+2 || rest[end-1] != rest[i] {
				p.errorf(diag.Ranging{From: offset + i, To: offset + len(rest)}, "unterminated string in a cell path")
				return nil, false
			}
			body := rest[i+1 : end-1]
			if rest[i] == '"' {
				body = p.unescape(body, offset+i+1)
			}
			m = ast.PathMember{Kind: ast.KeyMember, Key: body}
			i = end
		} else {
			for i < len(rest) && isMemberByte(rest[i]) {
				i++
			}
			if i == start {
				p.errorf(diag.PointRanging(offset+start), "missing member name after '.'")
				return nil, false
			}
			word := rest[start:i]
			if idx, err := strconv.ParseInt(word, 10, 64); err == nil {
				m = ast.PathMember{Kind: ast.IndexMember, Index: idx}
			} else {
				m = ast.PathMember{Kind: ast.KeyMember, Key: word}
			}
		}
		if i < len(rest) && rest[i] == '?' {
			m.Optional = true
			i++
		}
		m.Ranging = diag.Ranging{From: offset + start, To: offset + i}
		members = append(members, m)
	}
	return members, true
}

// cellPath parses a bare cell path like "a.b.0", rooted at the pipeline
// input rather than at a variable.
func (p *parser) cellPath(tok lex.Token) ast.Expr {
	members, ok := p.pathMembers("."+tok.Text, tok.From-1)
	if !ok {
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	return &ast.Path{Members: members, Ranging: tok.Ranging}
}

func isVarNameByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || isDigit(b)
}

func isMemberByte(b byte) bool {
	return isVarNameByte(b) || b == '-'
}

// validVarName reports whether name can name a variable: a letter or an
// underscore followed by letters, digits and underscores.
func validVarName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		b := name[i]
		if !isVarNameByte(b) || (i == 0 && isDigit(b)) {
			return false
		}
	}
	return true
}

// interp parses an interpolated string, $"..." or $'...'. Literal runs and
// parenthesized subexpressions alternate; escapes are processed only inside
// the double-quoted form.
func (p *parser) interp(tok lex.Token) ast.Expr {
	text := tok.Text
	q := text[1]
	if len(text) < 3 || text[len(text)-1] != q {
		// The lexer has already reported the unterminated string.
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	body := text[2 : len(text)-1]
	base := tok.From + 2
	var parts []ast.Expr
	litStart := 0
	flushLit := func(end int) {
		if end == litStart {
			return
		}
		raw := body[litStart:end]
		r := diag.Ranging{From: base + litStart, To: base + end}
		if q == '"' {
			raw = p.unescape(raw, base+litStart)
		}
		parts = append(parts, &ast.StringLit{Value: raw, Ranging: r})
	}
	for i := 0; i < len(body); {
		switch {
		case body[i] == '\\' && q == '"':
			i += 2
		case body[i] == '(':
			flushLit(i)
			end := matchBracket(body, i)
			if end == -1 {
				p.errorf(diag.Ranging{From: base + i, To: tok.To},
					"unclosed '(' in string interpolation")
				return &ast.Garbage{Ranging: tok.Ranging}
			}
			parts = append(parts, p.subExprText(body[i:end+1], base+i))
			i = end + 1
			litStart = i
		default:
			i++
		}
	}
	flushLit(len(body))
	return &ast.Interp{Parts: parts, Ranging: tok.Ranging}
}

// stringAtom parses a quoted string item.
func (p *parser) stringAtom(tok lex.Token) ast.Expr {
	text := tok.Text
	q := text[0]
	end := skipQuoted(text, 0)
	if end < 2 || text[end-1] != q {
		// Unterminated; the lexer has already reported it.
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	if end != len(text) {
		p.errorf(diag.Ranging{From: tok.From + end, To: tok.To},
			"unexpected text after the closing quote")
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	body := text[1 : end-1]
	if q == '"' {
		body = p.unescape(body, tok.From+1)
	}
	return &ast.StringLit{Value: body, Ranging: tok.Ranging}
}

// unescape processes backslash escapes in the body of a double-quoted
// string. The offset is the global position of the body, for error spans.
func (p *parser) unescape(body string, offset int) string {
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var sb strings.Builder
	for i := 0; i < len(body); {
		b := body[i]
		if b != '\\' {
			sb.WriteByte(b)
			i++
			continue
		}
		if i+1 >= len(body) {
			p.errorf(diag.PointRanging(offset+i), "incomplete escape sequence")
			break
		}
		e := body[i+1]
		i += 2
		switch e {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '"', '\'', '/', '(':
			sb.WriteByte(e)
		case 'e':
			sb.WriteByte(0x1b)
		case 'a':
			sb.WriteByte(0x07)
		case 'b':
			sb.WriteByte(0x08)
		case 'f':
			sb.WriteByte(0x0c)
		case '0':
			sb.WriteByte(0)
		case 'u':
			if i < len(body) && body[i] == '{' {
				if j := strings.IndexByte(body[i:], '}'); j != -1 {
					if v, err := strconv.ParseUint(body[i+1:i+j], 16, 32); err == nil && utf8.ValidRune(rune(v)) {
						sb.WriteRune(rune(v))
						i += j + 1
						continue
					}
				}
			}
			p.errorf(diag.Ranging{From: offset + i - 2, To: offset + i},
				`bad unicode escape; write \u{hex}`)
		default:
			p.errorf(diag.Ranging{From: offset + i - 2, To: offset + i},
				`unsupported escape sequence '\%c'`, e)
		}
	}
	return sb.String()
}

// rawString parses r#'...'#, with any number of hashes.
func (p *parser) rawString(tok lex.Token) ast.Expr {
	text := tok.Text
	hashes := 0
	for text[1+hashes] == '#' {
		hashes++
	}
	open := 1 + hashes + 1
	closer := "'" + strings.Repeat("#", hashes)
	idx := strings.Index(text[open:], closer)
	if idx == -1 {
		// Unterminated; the lexer has already reported it.
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	end := open + idx + len(closer)
	if end != len(text) {
		p.errorf(diag.Ranging{From: tok.From + end, To: tok.To},
			"unexpected text after the raw string")
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	return &ast.StringLit{Value: text[open : open+idx], Ranging: tok.Ranging}
}

// isRawStringText reports whether an item is a raw string literal.
func isRawStringText(text string) bool {
	if len(text) < 2 || text[0] != 'r' {
		return false
	}
	i := 1
	for i < len(text) && text[i] == '#' {
		i++
	}
	return i > 1 && i < len(text) && text[i] == '\''
}

// segmented joins the literal and quoted parts of a word like --opt='v'.
func (p *parser) segmented(tok lex.Token) ast.Expr {
	text := tok.Text
	var sb strings.Builder
	for i := 0; i < len(text); {
		b := text[i]
		if b != '\'' && b != '"' && b != '`' {
			sb.WriteByte(b)
			i++
			continue
		}
		end := skipQuoted(text, i)
		if end < i+2 || end > len(text) || text[end-1] != b {
			// Unterminated; the lexer has already reported it.
			sb.WriteString(text[i:])
			break
		}
		body := text[i+1 : end-1]
		if b == '"' {
			body = p.unescape(body, tok.From+i+1)
		}
		sb.WriteString(body)
		i = end
	}
	return &ast.StringLit{Value: sb.String(), Ranging: tok.Ranging}
}

// subExprOrRange parses an item opening with '('. The parenthesized group
// may be the whole item, or the start of a range like (a)..(b).
func (p *parser) subExprOrRange(tok lex.Token) ast.Expr {
	if topLevelRangeDots(tok.Text) >= 0 {
		return p.rangeAtom(tok)
	}
	return p.subExpr(tok)
}

// subExpr parses a parenthesized group into a subexpression holding a full
// block, so (ls | length) nests arbitrary pipelines.
func (p *parser) subExpr(tok lex.Token) ast.Expr {
	body, from, ok := p.interior(tok)
	if !ok {
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	return p.subExprText("("+body+")", from-1)
}

// subExprText parses the text of a parenthesized group, brackets included,
// sitting at the given global offset.
func (p *parser) subExprText(text string, from int) ast.Expr {
	r := diag.Ranging{From: from, To: from + len(text)}
	toks := p.lexAt(text[1:len(text)-1], from+1, lex.Config{SkipComments: true})
	block := p.block(toks, ast.NewSignature(""), true, r)
	id := p.ws.AddBlock(block)
	return &ast.SubExpr{ID: id, Ranging: r}
}

// interior returns the text inside a bracketed item together with its
// global offset, after checking that the closing bracket is the final byte.
func (p *parser) interior(tok lex.Token) (string, int, bool) {
	text := tok.Text
	end := matchBracket(text, 0)
	if end == -1 {
		// Unclosed; the lexer has already reported it.
		return "", 0, false
	}
	if end != len(text)-1 {
		p.errorf(diag.Ranging{From: tok.From + end + 1, To: tok.To},
			"unexpected text after '%c'", text[end])
		return "", 0, false
	}
	return text[1:end], tok.From + 1, true
}

// listOrTable parses a bracket literal. A semicolon splits a table into its
// header row and value rows; without one the literal is a list.
func (p *parser) listOrTable(tok lex.Token) ast.Expr {
	body, from, ok := p.interior(tok)
	if !ok {
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	toks := dropEols(p.lexAt(body, from, lex.Config{Separators: ",", SkipComments: true}))

	var groups [][]lex.Token
	cur := []lex.Token{}
	sawSemi := false
	for _, t := range toks {
		if t.Kind == lex.Semicolon {
			groups = append(groups, cur)
			cur = []lex.Token{}
			sawSemi = true
			continue
		}
		cur = append(cur, t)
	}
	groups = append(groups, cur)

	if !sawSemi {
		items := make([]ast.Expr, 0, len(groups[0]))
		for _, t := range groups[0] {
			items = append(items, p.shapeItem(t, ast.ShapeAny))
		}
		return &ast.List{Items: items, Ranging: tok.Ranging}
	}
	return p.table(tok, groups)
}

// table parses the groups of a table literal: [[h1 h2]; [v1 v2] [v3 v4]].
func (p *parser) table(tok lex.Token, groups [][]lex.Token) ast.Expr {
	if len(groups[0]) != 1 || !opensWith(groups[0], '[') {
		p.errorf(tok, "a table literal looks like [[h1 h2]; [v1 v2] ...]")
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	headers, ok := p.tableRow(groups[0][0], -1)
	if !ok {
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	var rows [][]ast.Expr
	for _, g := range groups[1:] {
		for _, rowTok := range g {
			if rowTok.Kind != lex.Item || !strings.HasPrefix(rowTok.Text, "[") {
				p.errorf(rowTok, "expected a table row in brackets")
				continue
			}
			row, ok := p.tableRow(rowTok, len(headers))
			if ok {
				rows = append(rows, row)
			}
		}
	}
	return &ast.Table{Headers: headers, Rows: rows, Ranging: tok.Ranging}
}

func opensWith(g []lex.Token, b byte) bool {
	return g[0].Kind == lex.Item && g[0].Text[0] == b
}

// tableRow parses one bracketed row. A non-negative want checks the column
// count against the header count.
func (p *parser) tableRow(tok lex.Token, want int) ([]ast.Expr, bool) {
	body, from, ok := p.interior(tok)
	if !ok {
		return nil, false
	}
	toks := dropEols(p.lexAt(body, from, lex.Config{Separators: ",", SkipComments: true}))
	row := make([]ast.Expr, 0, len(toks))
	for _, t := range toks {
		row = append(row, p.shapeItem(t, ast.ShapeAny))
	}
	if want >= 0 && len(row) != want {
		p.errorf(tok, "table row has %d values for %d headers", len(row), want)
		return nil, false
	}
	return row, true
}

// brace parses a brace literal: a record, a closure, or a block, picked by
// the declared shape and, for any-shaped arguments, by lookahead.
func (p *parser) brace(tok lex.Token, shape ast.SyntaxShape) ast.Expr {
	switch shape {
	case ast.ShapeBlock:
		return p.blockExpr(tok)
	case ast.ShapeClosure:
		return p.closure(tok)
	case ast.ShapeRecord:
		return p.record(tok)
	}
	if braceIsRecord(tok.Text) {
		return p.record(tok)
	}
	return p.closure(tok)
}

// braceIsRecord decides between a record and a closure by lookahead: an
// empty body or one whose first word is followed by ':' reads as a record,
// and a body starting with '|' as a closure.
func braceIsRecord(text string) bool {
	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		return true
	}
	if body[0] == '|' {
		return false
	}
	i := 0
	for i < len(body) && !strings.ContainsRune(" \t\r\n:|", rune(body[i])) {
		if body[i] == '"' || body[i] == '\'' {
			i = skipQuoted(body, i)
			continue
		}
		i++
	}
	return i < len(body) && body[i] == ':'
}

// record parses {key: value, ...}. Keys are barewords, quoted strings, or
// variables for dynamic keys; values are single items.
func (p *parser) record(tok lex.Token) ast.Expr {
	body, from, ok := p.interior(tok)
	if !ok {
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	toks := dropEols(p.lexAt(body, from, lex.Config{Separators: ",", Delimiters: ":", SkipComments: true}))
	var items []ast.RecordItem
	seen := make(map[string]bool)
	for i := 0; i < len(toks); {
		keyTok := toks[i]
		if keyTok.Kind != lex.Item || keyTok.Text == ":" {
			p.errorf(keyTok, "expected a record key")
			i++
			continue
		}
		if i+1 >= len(toks) || toks[i+1].Kind != lex.Item || toks[i+1].Text != ":" {
			p.errorf(keyTok, "expected ':' after the record key")
			break
		}
		if i+2 >= len(toks) {
			p.errorfEof(toks[i+1], "missing value after ':'")
			break
		}
		key := p.shapeItem(keyTok, ast.ShapeAny)
		if s, isLit := key.(*ast.StringLit); isLit {
			if seen[s.Value] {
				p.errorf(keyTok, "duplicate record key '%s'", s.Value)
			}
			seen[s.Value] = true
		}
		val := p.shapeItem(toks[i+2], ast.ShapeAny)
		items = append(items, ast.RecordItem{Key: key, Value: val})
		i += 3
	}
	return &ast.Record{Items: items, Ranging: tok.Ranging}
}

// closure parses {|params| body} or { body }. The parameters bind fresh
// variables in the body's scope; variables resolved through outer scopes
// are recorded as the block's captures, in first-reference order.
func (p *parser) closure(tok lex.Token) ast.Expr {
	body, from, ok := p.interior(tok)
	if !ok {
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	toks := p.lexAt(body, from, lex.Config{SkipComments: true})
	sig := ast.NewSignature("")
	rest := toks
	if len(toks) > 0 && toks[0].Kind == lex.Pipe {
		closeIdx := -1
		for i := 1; i < len(toks); i++ {
			if toks[i].Kind == lex.Pipe {
				closeIdx = i
				break
			}
		}
		if closeIdx == -1 {
			p.errorf(toks[0], "unclosed parameter list")
			rest = toks[1:]
		} else {
			p.closureParams(toks[1:closeIdx], sig)
			rest = toks[closeIdx+1:]
		}
	}

	cc := &closureCtx{base: p.ws.NumScopes(), captured: make(map[ast.VarID]bool)}
	p.closures = append(p.closures, cc)
	p.ws.PushScope()
	p.bindParams(sig)
	block := p.block(rest, sig, false, tok.Ranging)
	p.ws.PopScope()
	p.closures = p.closures[:len(p.closures)-1]
	block.Captures = cc.captures

	id := p.ws.AddBlock(block)
	return &ast.ClosureExpr{ID: id, Ranging: tok.Ranging}
}

// closureParams parses the parameter names of a closure. Commas between
// names are optional.
func (p *parser) closureParams(toks []lex.Token, sig *ast.Signature) {
	for _, t := range dropEols(toks) {
		if t.Kind != lex.Item {
			p.errorf(t, "unexpected %v in a parameter list", t.Kind)
			continue
		}
		for _, name := range strings.FieldsFunc(t.Text, func(r rune) bool { return r == ',' }) {
			if !validVarName(name) {
				p.errorf(t, "invalid parameter name '%s'", name)
				continue
			}
			sig.AddRequired(name, ast.ShapeAny, "")
		}
	}
}

// blockExpr parses a brace item as a block running in the caller's frame,
// the way bodies of control flow commands do.
func (p *parser) blockExpr(tok lex.Token) ast.Expr {
	block := p.braceBlock(tok, ast.NewSignature(""), true)
	id := p.ws.AddBlock(block)
	return &ast.BlockExpr{ID: id, Ranging: tok.Ranging}
}

// braceBlock parses the interior of a brace item as a block of statements.
func (p *parser) braceBlock(tok lex.Token, sig *ast.Signature, scoped bool) *ast.Block {
	body, from, ok := p.interior(tok)
	if !ok {
		return &ast.Block{Signature: sig, Ranging: tok.Ranging}
	}
	toks := p.lexAt(body, from, lex.Config{SkipComments: true})
	return p.block(toks, sig, scoped, tok.Ranging)
}

// rangeAtom parses range literals: a..b, a..<b, a..s..b, a.., ..b.
func (p *parser) rangeAtom(tok lex.Token) ast.Expr {
	text := tok.Text
	var segs []string
	var offs []int
	exclusive := false
	rest, base := text, 0
	for {
		idx := topLevelRangeDots(rest)
		if idx == -1 {
			segs = append(segs, rest)
			offs = append(offs, base)
			break
		}
		segs = append(segs, rest[:idx])
		offs = append(offs, base)
		n := 2
		if idx+2 < len(rest) && rest[idx+2] == '<' {
			exclusive = true
			n = 3
		} else {
			exclusive = false
		}
		rest = rest[idx+n:]
		base += idx + n
	}
	if len(segs) > 3 {
		p.errorf(tok, "too many '..' in a range")
		return &ast.Garbage{Ranging: tok.Ranging}
	}

	seg := func(i int) ast.Expr {
		if segs[i] == "" {
			return nil
		}
		st := lex.Token{
			Kind: lex.Item,
			Text: segs[i],
			Ranging: diag.Ranging{
				From: tok.From + offs[i],
				To:   tok.From + offs[i] + len(segs[i]),
			},
		}
		return p.atom(st, ast.ShapeAny)
	}
	rng := &ast.Range{Exclusive: exclusive, Ranging: tok.Ranging}
	switch len(segs) {
	case 2:
		rng.From, rng.To = seg(0), seg(1)
	case 3:
		rng.From, rng.Next, rng.To = seg(0), seg(1), seg(2)
		if rng.Next == nil {
			p.errorf(tok, "missing step between '..'")
		}
	}
	return rng
}

// topLevelRangeDots returns the index of the first ".." outside brackets
// and quotes, or -1.
func topLevelRangeDots(text string) int {
	depth := 0
	for i := 0; i < len(text); {
		switch text[i] {
		case '\'', '"', '`':
			i = skipQuoted(text, i)
			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '.':
			if depth == 0 && i+1 < len(text) && text[i+1] == '.' {
				return i
			}
		}
		i++
	}
	return -1
}

// numberAtom parses int, float and unit literals. It stays silent on text
// that is not numeric, so barewords like 2fast fall through to strings.
func (p *parser) numberAtom(tok lex.Token) (ast.Expr, bool) {
	text := tok.Text
	if !startsNumeric(text) {
		return nil, false
	}
	r := tok.Ranging
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return &ast.IntLit{Value: v, Ranging: r}, true
	}
	if num, unit, ok := splitUnit(text); ok {
		return p.unitLit(num, unit, tok)
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return &ast.FloatLit{Value: v, Ranging: r}, true
	}
	return nil, false
}

func startsNumeric(text string) bool {
	if isDigit(text[0]) {
		return true
	}
	return (text[0] == '+' || text[0] == '-' || text[0] == '.') &&
		len(text) > 1 && isDigit(text[1])
}

// splitUnit splits a unit literal like 10kb into its numeric part and unit.
func splitUnit(text string) (string, ast.Unit, bool) {
	i := len(text)
	for i > 0 && isAlpha(text[i-1]) {
		i--
	}
	if i == 0 || i == len(text) {
		return "", 0, false
	}
	unit, ok := ast.UnitByName(strings.ToLower(text[i:]))
	if !ok {
		return "", 0, false
	}
	return text[:i], unit, true
}

func isAlpha(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// unitLit builds a unit literal. Fractional amounts are normalized to the
// base unit, so 1.5kib carries 1536 bytes.
func (p *parser) unitLit(num string, unit ast.Unit, tok lex.Token) (ast.Expr, bool) {
	r := tok.Ranging
	if v, err := strconv.ParseInt(num, 0, 64); err == nil {
		return &ast.UnitLit{Amount: v, Unit: unit, Ranging: r}, true
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil, false
	}
	total := f * float64(unit.Multiplier())
	if math.IsNaN(total) || math.Abs(total) >= float64(math.MaxInt64) {
		p.errorf(r, "'%s' is out of range", tok.Text)
		return &ast.Garbage{Ranging: r}, true
	}
	base := ast.B
	if unit.IsDuration() {
		base = ast.NS
	}
	return &ast.UnitLit{Amount: int64(math.Round(total)), Unit: base, Ranging: r}, true
}

// matchBracket returns the index of the bracket matching the opener at
// start, skipping quoted parts, or -1 if unmatched within text.
func matchBracket(text string, start int) int {
	depth := 0
	for i := start; i < len(text); {
		switch text[i] {
		case '\'', '"', '`':
			i = skipQuoted(text, i)
			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// skipQuoted returns the index after the quoted part opening at i, or
// len(text) if the quote never closes. Backslash escapes count only inside
// double quotes.
func skipQuoted(text string, i int) int {
	q := text[i]
	i++
	for i < len(text) {
		switch {
		case text[i] == q:
			return i + 1
		case q == '"' && text[i] == '\\':
			i += 2
		default:
			i++
		}
	}
	return i
}

func dropEols(toks []lex.Token) []lex.Token {
	var out []lex.Token
	for _, t := range toks {
		if t.Kind != lex.Eol {
			out = append(out, t)
		}
	}
	return out
}

// checkShape reports literal arguments whose kind contradicts the declared
// shape. Dynamic expressions pass; their values are checked at run time.
func (p *parser) checkShape(expr ast.Expr, shape ast.SyntaxShape) {
	switch shape {
	case ast.ShapeAny, ast.ShapeMathExpr, ast.ShapeCellPath, ast.ShapeSignature:
		return
	}
	found := literalShape(expr)
	if found == ast.ShapeAny {
		return
	}
	ok := found == shape
	switch shape {
	case ast.ShapeNumber:
		ok = found == ast.ShapeInt || found == ast.ShapeFloat
	case ast.ShapeList:
		ok = found == ast.ShapeList || found == ast.ShapeTable || found == ast.ShapeRange
	case ast.ShapeTable:
		ok = found == ast.ShapeTable || found == ast.ShapeList
	}
	if !ok {
		p.errorf(expr, "expected %v, found %v", shape, found)
	}
}

// literalShape classifies a literal expression, or returns ShapeAny for
// dynamic expressions.
func literalShape(expr ast.Expr) ast.SyntaxShape {
	switch e := expr.(type) {
	case *ast.BoolLit:
		return ast.ShapeBool
	case *ast.IntLit:
		return ast.ShapeInt
	case *ast.FloatLit:
		return ast.ShapeFloat
	case *ast.StringLit, *ast.Interp:
		return ast.ShapeString
	case *ast.UnitLit:
		if e.Unit.IsDuration() {
			return ast.ShapeDuration
		}
		return ast.ShapeFilesize
	case *ast.Range:
		return ast.ShapeRange
	case *ast.List:
		return ast.ShapeList
	case *ast.Record:
		return ast.ShapeRecord
	case *ast.Table:
		return ast.ShapeTable
	case *ast.BlockExpr:
		return ast.ShapeBlock
	case *ast.ClosureExpr:
		return ast.ShapeClosure
	}
	return ast.ShapeAny
}
