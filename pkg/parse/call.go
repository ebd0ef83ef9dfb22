package parse

import (
	"fmt"
	"strings"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/lex"
	"src.kelp.sh/pkg/strutil"
)

// Longest candidate length for multi-word command names like "str join".
const maxHeadWords = 3

// call parses a command call. The longest bareword prefix naming a known
// command becomes the head, and the remaining tokens are consumed according
// to the command's signature. An unresolved head falls back to an external
// command, looked up on the search path only at run time.
func (p *parser) call(c *cursor) ast.Expr {
	words := headWords(c)
	for n := len(words); n >= 1; n-- {
		name := headName(words[:n])
		id, ok := p.ws.FindDecl(name)
		if !ok {
			continue
		}
		headR := diag.MixedRanging(words[0], words[n-1])
		if _, isKeyword := keywordStatements[name]; isKeyword {
			p.errorf(headR, "'%s' can only start a statement", name)
			c.i = len(c.toks)
			return &ast.Garbage{Ranging: headR}
		}
		if a, isAlias := p.ws.Decl(id).(*engine.Alias); isAlias {
			return p.expandAlias(c, id, a, n)
		}
		c.i += n
		return p.internalCall(c, id, headR)
	}
	// A first word naming a module reads as a mistyped internal command,
	// not as an external one.
	if len(words) >= 2 {
		if _, ok := p.ws.FindModule(words[0].Text); ok {
			headR := diag.MixedRanging(words[0], words[1])
			p.unknownCommand(headName(words[:2]), headR)
			c.i = len(c.toks)
			return &ast.Garbage{Ranging: headR}
		}
	}
	head := c.next()
	if !isBarewordText(head.Text) {
		p.unknownCommand(head.Text, head.Ranging)
		c.i = len(c.toks)
		return &ast.Garbage{Ranging: head.Ranging}
	}
	return p.externalCall(c, head, head.Text)
}

func (p *parser) unknownCommand(name string, r diag.Ranging) {
	msg := fmt.Sprintf("unknown command '%s'", name)
	if near, ok := strutil.Nearest(name, p.ws.CmdNames()); ok {
		msg += fmt.Sprintf("; did you mean '%s'?", near)
	}
	p.errorf(r, "%s", msg)
}

func headWords(c *cursor) []lex.Token {
	var words []lex.Token
	for i := c.i; i < len(c.toks) && len(words) < maxHeadWords; i++ {
		t := c.toks[i]
		if t.Kind != lex.Item || !isBarewordText(t.Text) {
			break
		}
		words = append(words, t)
	}
	return words
}

func headName(words []lex.Token) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// isBarewordText reports whether an item reads as a plain word, with no
// quoting, bracketing or interpolation.
func isBarewordText(text string) bool {
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '$', '(', ')', '[', ']', '{', '}', '\'', '"', '`', '^':
			return false
		}
	}
	return true
}

// expandAlias splices the replacement tokens of an alias in place of its
// name and restarts element parsing. Expansion is cycle-checked; the
// replacement is lexed at its definition site, so diagnostics inside it
// point at the alias declaration.
func (p *parser) expandAlias(c *cursor, id ast.DeclID, a *engine.Alias, consumed int) ast.Expr {
	headR := diag.MixedRanging(c.toks[c.i], c.toks[c.i+consumed-1])
	if p.expanding[id] {
		p.errorf(headR, "circular alias expansion of '%s'", a.Sig.Name)
		c.i = len(c.toks)
		return &ast.Garbage{Ranging: headR}
	}
	defToks, err := lex.Lex(a.Def, a.DefRange.From, lex.Config{SkipComments: true})
	if err != nil {
		p.errorf(headR, "cannot expand alias '%s': %v", a.Sig.Name, err)
		c.i = len(c.toks)
		return &ast.Garbage{Ranging: headR}
	}
	c.toks = append(append([]lex.Token{}, defToks...), c.toks[c.i+consumed:]...)
	c.i = 0
	p.expanding[id] = true
	defer delete(p.expanding, id)
	return p.elementExpr(c)
}

// internalCall consumes the arguments of a resolved command according to
// its signature.
func (p *parser) internalCall(c *cursor, declID ast.DeclID, head diag.Ranging) ast.Expr {
	sig := p.ws.Decl(declID).Signature()
	call := &ast.Call{Decl: declID, Head: head, Ranging: head}
	entry := c.i
	pos := 0
	for c.more() {
		tok := c.peek()
		if tok.Kind != lex.Item {
			p.errorf(tok, "unexpected %v in a call", tok.Kind)
			c.next()
			continue
		}
		text := tok.Text
		switch {
		case strings.HasPrefix(text, "--"):
			p.longFlag(c, sig, call)
		case strings.HasPrefix(text, "-") && len(text) >= 2 && !isNumericStart(text):
			p.shortFlag(c, sig, call)
		default:
			pos = p.positionalArg(c, sig, call, pos)
		}
	}
	p.checkArity(sig, pos, head)
	if c.i > entry {
		call.Ranging = diag.MixedRanging(head, c.toks[c.i-1])
	}
	return call
}

// A "-" followed by a digit or a dot reads as a negative number, not as a
// flag.
func isNumericStart(text string) bool {
	return len(text) >= 2 && (isDigit(text[1]) || text[1] == '.')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// positionalArg consumes argument tokens for the positional parameter at
// index pos, honoring keyword introducers, and returns the next index.
func (p *parser) positionalArg(c *cursor, sig *ast.Signature, call *ast.Call, pos int) int {
	tok := c.peek()
	// Keyword parameters whose introducing word does not match are
	// skipped; they are optional by construction.
	for pos < len(sig.Positional) {
		param := &sig.Positional[pos]
		if param.Keyword == "" || param.Keyword == tok.Text {
			break
		}
		pos++
	}
	if pos >= len(sig.Positional) {
		if sig.Rest != nil {
			call.Positional = append(call.Positional, p.shapeArg(c, sig.Rest.Shape))
			return pos
		}
		p.errorf(tok, "too many arguments to '%s'", sig.Name)
		c.next()
		return pos
	}
	param := &sig.Positional[pos]
	if param.Keyword != "" {
		kwTok := c.next()
		var arg ast.Expr
		if !c.more() {
			p.errorfEof(kwTok, "missing argument after '%s'", param.Keyword)
			arg = &ast.Garbage{Ranging: diag.PointRanging(kwTok.To)}
		} else {
			arg = p.keywordArg(c, param)
		}
		call.Positional = append(call.Positional, &ast.Keyword{
			Name:    param.Keyword,
			Expr:    arg,
			Ranging: diag.MixedRanging(kwTok, arg),
		})
		return pos + 1
	}
	call.Positional = append(call.Positional, p.shapeArg(c, param.Shape))
	return pos + 1
}

// keywordArg parses the argument after a keyword introducer. A bareword
// continues as a nested call, which is what chains "else if"; anything else
// takes the parameter's declared shape.
func (p *parser) keywordArg(c *cursor, param *ast.Param) ast.Expr {
	tok := c.peek()
	if tok.Kind == lex.Item && isCommandHead(tok.Text) {
		return p.call(c)
	}
	return p.shapeArg(c, param.Shape)
}

// checkArity reports required parameters that were never bound, naming the
// parameter and its declared position.
func (p *parser) checkArity(sig *ast.Signature, pos int, head diag.Ranging) {
	for i := pos; i < len(sig.Positional); i++ {
		param := &sig.Positional[i]
		if !param.Optional {
			p.errorf(head, "missing required parameter '%s' (position %d) of '%s'",
				param.Name, i+1, sig.Name)
		}
	}
}

func (p *parser) longFlag(c *cursor, sig *ast.Signature, call *ast.Call) {
	tok := c.next()
	name, val, hasVal := strings.Cut(tok.Text[2:], "=")
	fl := sig.FindLong(name)
	if fl == nil {
		msg := fmt.Sprintf("unknown flag --%s of '%s'", name, sig.Name)
		if near, ok := strutil.Nearest(name, longNames(sig)); ok {
			msg += fmt.Sprintf("; did you mean --%s?", near)
		}
		p.errorf(tok, "%s", msg)
		// Without a signature entry there is no telling whether the flag
		// takes a value; leave any following token to positional parsing.
		return
	}
	var inline ast.Expr
	if hasVal {
		vr := diag.Ranging{From: tok.To - len(val), To: tok.To}
		inline = p.shapeItem(lex.Token{Kind: lex.Item, Text: val, Ranging: vr}, fl.Shape)
	}
	p.bindFlag(c, call, fl, tok, inline)
}

func (p *parser) shortFlag(c *cursor, sig *ast.Signature, call *ast.Call) {
	tok := c.next()
	if len(tok.Text) != 2 {
		p.errorf(tok, "short flags cannot be combined")
		return
	}
	fl := sig.FindShort(tok.Text[1])
	if fl == nil {
		p.errorf(tok, "unknown flag %s of '%s'", tok.Text, sig.Name)
		return
	}
	p.bindFlag(c, call, fl, tok, nil)
}

// bindFlag records one flag of a call. A non-nil inline value comes from
// the --flag=value form.
func (p *parser) bindFlag(c *cursor, call *ast.Call, fl *ast.Flag, tok lex.Token, inline ast.Expr) {
	for _, na := range call.Named {
		if na.Name == fl.Long {
			p.errorf(tok, "flag --%s may appear only once", fl.Long)
			break
		}
	}
	if fl.Switch {
		if inline != nil {
			p.errorf(tok, "switch --%s takes no value", fl.Long)
		}
		call.Named = append(call.Named, ast.NamedArg{Name: fl.Long, Ranging: tok.Ranging})
		return
	}
	arg := inline
	if arg == nil {
		if !c.more() {
			p.errorfEof(tok, "flag --%s needs a value", fl.Long)
			arg = &ast.Garbage{Ranging: diag.PointRanging(tok.To)}
		} else {
			arg = p.shapeArg(c, fl.Shape)
		}
	}
	call.Named = append(call.Named, ast.NamedArg{
		Name:    fl.Long,
		Value:   arg,
		Ranging: diag.MixedRanging(tok, arg),
	})
}

func longNames(sig *ast.Signature) []string {
	names := make([]string, len(sig.Named))
	for i, fl := range sig.Named {
		names[i] = fl.Long
	}
	return names
}

// shapeArg consumes the tokens of one argument according to its declared
// shape. Most shapes take a single item; a math shape takes a whole
// operator expression.
func (p *parser) shapeArg(c *cursor, shape ast.SyntaxShape) ast.Expr {
	if shape == ast.ShapeMathExpr {
		return p.mathExpr(c, 1)
	}
	return p.shapeItem(c.next(), shape)
}

// externalCall parses the arguments of an external command. Program
// resolution happens at run time; arguments are shaped loosely, with
// variables, subexpressions and quoted strings keeping their meaning and
// everything else staying literal text.
func (p *parser) externalCall(c *cursor, headTok lex.Token, name string) ast.Expr {
	head := p.externalHead(headTok, name)
	var args []ast.Expr
	last := headTok.Ranging
	for c.more() {
		t := c.next()
		args = append(args, p.externalArg(t))
		last = t.Ranging
	}
	return &ast.ExternalCall{
		Head:    head,
		Args:    args,
		Ranging: diag.MixedRanging(headTok, last),
	}
}

func (p *parser) externalHead(headTok lex.Token, name string) ast.Expr {
	if isBarewordText(name) {
		r := headTok.Ranging
		if name != headTok.Text {
			r = diag.Ranging{From: headTok.From + 1, To: headTok.To}
		}
		return &ast.StringLit{Value: name, Ranging: r}
	}
	tok := headTok
	if name != headTok.Text {
		tok = lex.Token{
			Kind:    lex.Item,
			Text:    name,
			Ranging: diag.Ranging{From: headTok.From + 1, To: headTok.To},
		}
	}
	return p.externalArg(tok)
}

// externalArg shapes one argument of an external command.
func (p *parser) externalArg(tok lex.Token) ast.Expr {
	if tok.Kind != lex.Item {
		p.errorf(tok, "unexpected %v", tok.Kind)
		return &ast.Garbage{Ranging: tok.Ranging}
	}
	text := tok.Text
	switch {
	case text == "":
		return &ast.StringLit{Ranging: tok.Ranging}
	case text[0] == '$':
		return p.dollar(tok)
	case text[0] == '(':
		return p.subExpr(tok)
	case text[0] == '\'' || text[0] == '"' || text[0] == '`':
		return p.stringAtom(tok)
	case isRawStringText(text):
		return p.rawString(tok)
	case strings.ContainsAny(text, `'"`):
		return p.segmented(tok)
	}
	return &ast.StringLit{Value: text, Ranging: tok.Ranging}
}
