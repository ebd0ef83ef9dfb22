package parse

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/lex"
)

// Statement forms that bind names at parse time. They are recognized by
// their first word before pipeline splitting; each consumes the whole
// statement. Filled in init: use and source parse whole files through
// block, which dispatches back through this table.
var keywordStatements map[string]func(*parser, []lex.Token) ast.Expr

func init() {
	keywordStatements = map[string]func(*parser, []lex.Token) ast.Expr{
		"let":    (*parser).letStatement,
		"mut":    (*parser).letStatement,
		"def":    (*parser).defStatement,
		"export": (*parser).exportStatement,
		"alias":  (*parser).aliasStatement,
		"use":    (*parser).useStatement,
		"module": (*parser).moduleStatement,
		"source": (*parser).sourceStatement,
		"for":    (*parser).forStatement,
	}
}

// letStatement parses let and mut. The variable is bound only after the
// right side is parsed, so the right side still sees any older variable of
// the same name.
func (p *parser) letStatement(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	c := &cursor{toks: toks}
	head := c.next()
	declID, _ := p.ws.FindDecl(head.Text)

	name, nameR, ok := p.varNameTok(c, head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	eq, ok := p.expectWord(c, "=", head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	var rhs ast.Expr
	if rhsToks := c.rest(); len(rhsToks) == 0 {
		p.errorfEof(eq, "missing value after '='")
		rhs = &ast.Garbage{Ranging: diag.PointRanging(eq.To)}
	} else {
		rhs = p.pipelineExpr(rhsToks)
	}
	id := p.ws.AddVariable(engine.Variable{
		Shape:   ast.ShapeAny,
		Mutable: head.Text == "mut",
		Ranging: nameR,
	})
	p.ws.BindVar(name, id)
	return &ast.Call{
		Decl:       declID,
		Head:       head.Ranging,
		Positional: []ast.Expr{&ast.VarDecl{ID: id, Ranging: nameR}, rhs},
		Ranging:    r,
	}
}

// isAssignStatement reports whether a statement assigns to a variable: it
// starts with a variable reference and an assignment operator appears among
// its items.
func isAssignStatement(toks []lex.Token) bool {
	if len(toks) == 0 || toks[0].Kind != lex.Item || !strings.HasPrefix(toks[0].Text, "$") {
		return false
	}
	for _, t := range toks[1:] {
		if t.Kind == lex.Item {
			if _, ok := assignOps[t.Text]; ok {
				return true
			}
		}
	}
	return false
}

// assignStatement parses an assignment: a mutable variable or a cell path
// rooted at one on the left, an assignment operator, and a pipeline on the
// right.
func (p *parser) assignStatement(toks []lex.Token) ast.Expr {
	opIdx := -1
	var op ast.Op
	for i, t := range toks {
		if t.Kind == lex.Item {
			if o, ok := assignOps[t.Text]; ok {
				opIdx, op = i, o
				break
			}
		}
	}
	c := &cursor{toks: toks[:opIdx]}
	lhs := p.shapeItem(c.next(), ast.ShapeAny)
	if c.more() {
		p.errorf(tokensRange(c.rest()), "only one variable or cell path may appear left of %v", op)
	}
	p.checkAssignable(lhs)

	opTok := toks[opIdx]
	var rhs ast.Expr
	if rhsToks := toks[opIdx+1:]; len(rhsToks) == 0 {
		p.errorfEof(opTok, "missing value after %v", op)
		rhs = &ast.Garbage{Ranging: diag.PointRanging(opTok.To)}
	} else {
		rhs = p.pipelineExpr(rhsToks)
	}
	return &ast.BinaryOp{Left: lhs, Op: op, Right: rhs, Ranging: tokensRange(toks)}
}

func (p *parser) checkAssignable(lhs ast.Expr) {
	switch lhs := lhs.(type) {
	case *ast.Var:
		p.checkAssignableVar(lhs.ID, lhs.Ranging, false)
	case *ast.Path:
		if v, ok := lhs.Head.(*ast.Var); ok {
			p.checkAssignableVar(v.ID, v.Ranging, true)
			return
		}
		p.errorf(lhs, "cannot assign to this expression")
	case *ast.Garbage:
	default:
		p.errorf(lhs, "cannot assign to this expression")
	}
}

func (p *parser) checkAssignableVar(id ast.VarID, r diag.Ranging, path bool) {
	switch id {
	case engine.InVarID:
		p.errorf(r, "$in is read-only")
	case engine.EnvVarID:
		if !path {
			p.errorf(r, "cannot assign to $env as a whole; assign to $env.NAME instead")
		}
	default:
		if !p.ws.Variable(id).Mutable {
			p.errorf(r, "cannot assign to immutable variable; declare it with mut")
		}
	}
}

// defStatement parses def. The command is bound before its body is parsed,
// so the body can call it recursively.
func (p *parser) defStatement(toks []lex.Token) ast.Expr {
	c := &cursor{toks: toks}
	head := c.next()
	return p.parseDef(c, head, false)
}

// exportStatement parses "export def" inside a module body, recording the
// command in the module's export table.
func (p *parser) exportStatement(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	c := &cursor{toks: toks}
	head := c.next()
	word, ok := p.expectWord(c, "def", head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	exported := true
	if len(p.moduleExports) == 0 {
		p.errorf(head, "export is only allowed inside a module")
		exported = false
	}
	return p.parseDef(c, word, exported)
}

func (p *parser) parseDef(c *cursor, head lex.Token, exported bool) ast.Expr {
	garbage := func() ast.Expr { return &ast.Garbage{Ranging: tokensRange(c.toks)} }
	declID, _ := p.ws.FindDecl("def")

	nameTok, ok := p.anyWord(c, "a command name", head)
	if !ok {
		return garbage()
	}
	name, ok := p.nameOf(nameTok)
	if !ok {
		return garbage()
	}
	name = strings.Join(strings.Fields(name), " ")
	p.checkRedeclared(name, nameTok)

	sigTok, ok := p.expectGroup(c, '[', "a parameter list in brackets", nameTok)
	if !ok {
		return garbage()
	}
	sig := p.signature(sigTok)
	sig.Name = name

	bodyTok, ok := p.expectGroup(c, '{', "a body in braces", sigTok)
	if !ok {
		return garbage()
	}
	if c.more() {
		p.errorf(tokensRange(c.rest()), "unexpected %s after the body", describe(c.peek()))
	}

	uc := &engine.UserCommand{Sig: sig}
	id := p.ws.AddDecl(uc)
	p.ws.BindCmd(name, id)
	if exported {
		exports := p.moduleExports[len(p.moduleExports)-1]
		if _, dup := exports[name]; dup {
			p.errorf(nameTok, "'%s' is exported twice", name)
		}
		exports[name] = id
	}
	uc.Body = p.funcBody(bodyTok, sig)

	return &ast.Call{
		Decl:       declID,
		Head:       head.Ranging,
		Positional: []ast.Expr{&ast.StringLit{Value: name, Ranging: nameTok.Ranging}},
		Ranging:    diag.MixedRanging(head, bodyTok),
	}
}

// funcBody parses the body of a def. The body runs behind a call barrier at
// run time, so variables from outer scopes do not resolve inside it; the
// parameters are bound as fresh variables in the body's own scope.
func (p *parser) funcBody(bodyTok lex.Token, sig *ast.Signature) ast.BlockID {
	p.funcBases = append(p.funcBases, p.ws.NumScopes())
	p.ws.PushScope()
	p.bindParams(sig)
	block := p.braceBlock(bodyTok, sig, false)
	p.ws.PopScope()
	p.funcBases = p.funcBases[:len(p.funcBases)-1]
	return p.ws.AddBlock(block)
}

// bindParams allocates a variable for every parameter of a signature and
// binds them in the current scope.
func (p *parser) bindParams(sig *ast.Signature) {
	for i := range sig.Positional {
		param := &sig.Positional[i]
		if param.Name != "" {
			param.ID = p.declVar(param.Name, param.Shape)
		}
	}
	if sig.Rest != nil {
		sig.Rest.ID = p.declVar(sig.Rest.Name, ast.ShapeList)
	}
	for i := range sig.Named {
		fl := &sig.Named[i]
		fl.ID = p.declVar(flagVarName(fl.Long), fl.Shape)
	}
}

func (p *parser) declVar(name string, shape ast.SyntaxShape) ast.VarID {
	id := p.ws.AddVariable(engine.Variable{Shape: shape, Ranging: diag.Unknown})
	p.ws.BindVar(name, id)
	return id
}

// flagVarName maps a flag name to the variable holding its value inside the
// command body, so --dry-run is read as $dry_run.
func flagVarName(long string) string {
	return strings.ReplaceAll(long, "-", "_")
}

// aliasStatement parses alias. The replacement text is recorded verbatim
// together with its span and expanded wherever the alias is called, so
// diagnostics in expanded text point at the definition site.
func (p *parser) aliasStatement(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	c := &cursor{toks: toks}
	head := c.next()
	declID, _ := p.ws.FindDecl(head.Text)

	nameTok, ok := p.anyWord(c, "an alias name", head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	name, ok := p.nameOf(nameTok)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	eq, ok := p.expectWord(c, "=", nameTok)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	defToks := c.rest()
	if len(defToks) == 0 {
		p.errorfEof(eq, "missing replacement after '='")
		return &ast.Garbage{Ranging: r}
	}
	for _, t := range defToks {
		if t.Kind != lex.Item {
			p.errorf(t, "an alias must expand to a single pipeline element; %v is not allowed", t.Kind)
			return &ast.Garbage{Ranging: r}
		}
	}
	p.checkRedeclared(name, nameTok)

	defR := tokensRange(defToks)
	def := p.file.Code[defR.From-p.file.From : defR.To-p.file.From]
	id := p.ws.AddDecl(&engine.Alias{
		Sig:      ast.NewSignature(name),
		Def:      def,
		DefRange: defR,
	})
	p.ws.BindCmd(name, id)

	return &ast.Call{
		Decl:       declID,
		Head:       head.Ranging,
		Positional: []ast.Expr{&ast.StringLit{Value: name, Ranging: nameTok.Ranging}},
		Ranging:    r,
	}
}

// useStatement parses use. A plain name resolves against declared modules;
// a name with a path separator or a .kelp suffix reads and parses a module
// file. Either way the module's exports are bound in the current scope as
// "module export" two-word commands.
func (p *parser) useStatement(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	c := &cursor{toks: toks}
	head := c.next()
	declID, _ := p.ws.FindDecl(head.Text)

	specTok, ok := p.anyWord(c, "a module name or path", head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	spec, ok := p.nameOf(specTok)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	if c.more() {
		p.errorf(tokensRange(c.rest()), "unexpected %s after the module name", describe(c.peek()))
	}

	var modID ast.ModuleID
	var found bool
	if strings.ContainsRune(spec, '/') || strings.HasSuffix(spec, ".kelp") {
		modID, found = p.moduleFile(spec, specTok)
	} else {
		modID, found = p.ws.FindModule(spec)
		if !found {
			p.errorf(specTok, "unknown module '%s'", spec)
		}
	}
	if found {
		mod := p.ws.Module(modID)
		p.ws.BindModule(mod.Name, modID)
		for _, export := range sortedExports(mod) {
			p.ws.BindCmd(mod.Name+" "+export, mod.Exports[export])
		}
	}
	return &ast.Call{
		Decl:       declID,
		Head:       head.Ranging,
		Positional: []ast.Expr{&ast.StringLit{Value: spec, Ranging: specTok.Ranging}},
		Ranging:    r,
	}
}

func sortedExports(mod *engine.Module) []string {
	names := make([]string, 0, len(mod.Exports))
	for name := range mod.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// moduleFile reads a module file and parses it as a module body. The
// module's name is the file's base name without the extension.
func (p *parser) moduleFile(path string, at lex.Token) (ast.ModuleID, bool) {
	if !p.markReading(path, at) {
		return 0, false
	}
	defer p.unmarkReading(path)
	code, err := os.ReadFile(path)
	if err != nil {
		p.errorf(at, "cannot read module: %v", err)
		return 0, false
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	_, file := p.ws.AddFile(path, string(code))
	saved := p.file
	p.file = file
	toks := p.lexAt(file.Code, file.From, lex.Config{SkipComments: true})
	id := p.moduleBody(name, toks)
	p.file = saved
	return id, true
}

// markReading guards against use and source cycles.
func (p *parser) markReading(path string, at lex.Token) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if p.reading[abs] {
		p.errorf(at, "'%s' is already being read; circular use or source", path)
		return false
	}
	if p.reading == nil {
		p.reading = make(map[string]bool)
	}
	p.reading[abs] = true
	return true
}

func (p *parser) unmarkReading(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	delete(p.reading, abs)
}

// moduleStatement parses "module name { decls }". The module is declared
// and its exports recorded; binding the exports as commands is left to use.
func (p *parser) moduleStatement(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	c := &cursor{toks: toks}
	head := c.next()
	declID, _ := p.ws.FindDecl(head.Text)

	nameTok, ok := p.anyWord(c, "a module name", head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	name, ok := p.nameOf(nameTok)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	bodyTok, ok := p.expectGroup(c, '{', "a body in braces", nameTok)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	if c.more() {
		p.errorf(tokensRange(c.rest()), "unexpected %s after the body", describe(c.peek()))
	}

	body, from, ok := p.interior(bodyTok)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	modID := p.moduleBody(name, p.lexAt(body, from, lex.Config{SkipComments: true}))
	p.ws.BindModule(name, modID)

	return &ast.Call{
		Decl:       declID,
		Head:       head.Ranging,
		Positional: []ast.Expr{&ast.StringLit{Value: name, Ranging: nameTok.Ranging}},
		Ranging:    r,
	}
}

// moduleBody parses declaration statements into a module. The module's
// scope is popped afterwards, so only exported names survive, reachable
// through the module's export table.
func (p *parser) moduleBody(name string, toks []lex.Token) ast.ModuleID {
	exports := make(map[string]ast.DeclID)
	p.moduleExports = append(p.moduleExports, exports)
	p.declared = append(p.declared, make(map[string]bool))
	p.ws.PushScope()
	for _, stmt := range splitStatements(toks) {
		if !isDeclStatement(stmt) {
			p.errorf(tokensRange(stmt), "only declarations are allowed inside a module")
			continue
		}
		p.statement(stmt)
	}
	p.ws.PopScope()
	p.declared = p.declared[:len(p.declared)-1]
	p.moduleExports = p.moduleExports[:len(p.moduleExports)-1]
	return p.ws.AddModule(&engine.Module{Name: name, Exports: exports})
}

func isDeclStatement(toks []lex.Token) bool {
	if len(toks) == 0 || toks[0].Kind != lex.Item {
		return false
	}
	switch toks[0].Text {
	case "def", "export", "alias", "module", "use":
		return true
	}
	return false
}

// sourceStatement parses source. The file is read at parse time and its
// statements are parsed into the current scope, so its declarations remain
// visible afterwards; the resulting block runs in the caller's frame.
func (p *parser) sourceStatement(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	c := &cursor{toks: toks}
	head := c.next()
	declID, _ := p.ws.FindDecl(head.Text)

	pathTok, ok := p.anyWord(c, "a file path", head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	path, ok := p.nameOf(pathTok)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	if c.more() {
		p.errorf(tokensRange(c.rest()), "unexpected %s after the file path", describe(c.peek()))
	}
	if !p.markReading(path, pathTok) {
		return &ast.Garbage{Ranging: r}
	}
	defer p.unmarkReading(path)
	code, err := os.ReadFile(path)
	if err != nil {
		p.errorf(pathTok, "cannot read sourced file: %v", err)
		return &ast.Garbage{Ranging: r}
	}

	_, file := p.ws.AddFile(path, string(code))
	saved := p.file
	p.file = file
	fileToks := p.lexAt(file.Code, file.From, lex.Config{SkipComments: true})
	block := p.block(fileToks, ast.NewSignature(""), false, file.Ranging)
	p.file = saved

	id := p.ws.AddBlock(block)
	return &ast.Call{
		Decl:       declID,
		Head:       head.Ranging,
		Positional: []ast.Expr{&ast.BlockExpr{ID: id, Ranging: pathTok.Ranging}},
		Ranging:    r,
	}
}

// forStatement parses "for name in iterable { body }". The loop variable is
// visible only inside the body.
func (p *parser) forStatement(toks []lex.Token) ast.Expr {
	r := tokensRange(toks)
	c := &cursor{toks: toks}
	head := c.next()
	declID, _ := p.ws.FindDecl(head.Text)

	name, nameR, ok := p.varNameTok(c, head)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	if _, ok := p.expectWord(c, "in", head); !ok {
		return &ast.Garbage{Ranging: r}
	}
	if !c.more() {
		p.errorfEof(r, "missing iterable after 'in'")
		return &ast.Garbage{Ranging: r}
	}
	iterable := p.mathExpr(c, 1)
	bodyTok, ok := p.expectGroup(c, '{', "a body in braces", iterable)
	if !ok {
		return &ast.Garbage{Ranging: r}
	}
	if c.more() {
		p.errorf(tokensRange(c.rest()), "unexpected %s after the body", describe(c.peek()))
	}

	p.ws.PushScope()
	id := p.ws.AddVariable(engine.Variable{Shape: ast.ShapeAny, Ranging: nameR})
	p.ws.BindVar(name, id)
	block := p.braceBlock(bodyTok, ast.NewSignature(""), false)
	p.ws.PopScope()
	blockID := p.ws.AddBlock(block)

	return &ast.Call{
		Decl: declID,
		Head: head.Ranging,
		Positional: []ast.Expr{
			&ast.VarDecl{ID: id, Ranging: nameR},
			iterable,
			&ast.BlockExpr{ID: blockID, Ranging: bodyTok.Ranging},
		},
		Ranging: r,
	}
}

// checkRedeclared reports a name declared twice by def or alias in the same
// block.
func (p *parser) checkRedeclared(name string, at diag.Ranger) {
	set := p.declared[len(p.declared)-1]
	if set[name] {
		p.errorf(at, "'%s' is declared twice in the same block", name)
		return
	}
	set[name] = true
}

// varNameTok consumes a variable name in a declaration. A leading '$' is
// tolerated and stripped.
func (p *parser) varNameTok(c *cursor, after diag.Ranger) (string, diag.Ranging, bool) {
	tok, ok := p.anyWord(c, "a variable name", after)
	if !ok {
		return "", diag.Unknown, false
	}
	name := tok.Text
	if strings.HasPrefix(name, "$") {
		p.errorf(tok, "declare the variable without '$'")
		name = name[1:]
	}
	if !validVarName(name) {
		p.errorf(tok, "invalid variable name '%s'", name)
		return "", diag.Unknown, false
	}
	return name, tok.Ranging, true
}

// expectWord consumes the next token when it is an item with the given
// text.
func (p *parser) expectWord(c *cursor, word string, after diag.Ranger) (lex.Token, bool) {
	if !c.more() {
		p.errorfEof(after, "missing '%s'", word)
		return lex.Token{}, false
	}
	tok := c.peek()
	if tok.Kind != lex.Item || tok.Text != word {
		p.errorf(tok, "expected '%s', found %s", word, describe(tok))
		return lex.Token{}, false
	}
	return c.next(), true
}

// expectGroup consumes the next token when it is an item opening with the
// given bracket.
func (p *parser) expectGroup(c *cursor, open byte, what string, after diag.Ranger) (lex.Token, bool) {
	if !c.more() {
		p.errorfEof(after, "missing %s", what)
		return lex.Token{}, false
	}
	tok := c.peek()
	if tok.Kind != lex.Item || tok.Text[0] != open {
		p.errorf(tok, "expected %s, found %s", what, describe(tok))
		return lex.Token{}, false
	}
	return c.next(), true
}

// anyWord consumes the next token when it is an item.
func (p *parser) anyWord(c *cursor, what string, after diag.Ranger) (lex.Token, bool) {
	if !c.more() {
		p.errorfEof(after, "missing %s", what)
		return lex.Token{}, false
	}
	tok := c.peek()
	if tok.Kind != lex.Item {
		p.errorf(tok, "expected %s, found %s", what, describe(tok))
		return lex.Token{}, false
	}
	return c.next(), true
}

// nameOf extracts the name in a declaration head: a bareword, or a quoted
// string, which permits multi-word names like "str join".
func (p *parser) nameOf(tok lex.Token) (string, bool) {
	text := tok.Text
	if text[0] == '\'' || text[0] == '"' || text[0] == '`' {
		if s, ok := p.stringAtom(tok).(*ast.StringLit); ok {
			return s.Value, true
		}
		return "", false
	}
	if isBarewordText(text) {
		return text, true
	}
	p.errorf(tok, "invalid name '%s'", text)
	return "", false
}
