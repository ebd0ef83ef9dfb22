package parse

import (
	"strings"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/lex"
	"src.kelp.sh/pkg/strutil"
)

var shapesByName = map[string]ast.SyntaxShape{
	"any":       ast.ShapeAny,
	"bool":      ast.ShapeBool,
	"int":       ast.ShapeInt,
	"float":     ast.ShapeFloat,
	"number":    ast.ShapeNumber,
	"string":    ast.ShapeString,
	"duration":  ast.ShapeDuration,
	"filesize":  ast.ShapeFilesize,
	"range":     ast.ShapeRange,
	"list":      ast.ShapeList,
	"record":    ast.ShapeRecord,
	"table":     ast.ShapeTable,
	"block":     ast.ShapeBlock,
	"closure":   ast.ShapeClosure,
	"cell-path": ast.ShapeCellPath,
}

var shapeNames = []string{
	"any", "block", "bool", "cell-path", "closure", "duration", "filesize",
	"float", "int", "list", "number", "range", "record", "string", "table",
}

// signature parses a bracketed parameter list: positionals with optional
// types and defaults, one ...rest parameter, and --flags.
//
//	[name, count: int, limit = 10, ...rest: list, --verbose(-v), --depth: int]
func (p *parser) signature(tok lex.Token) *ast.Signature {
	sig := ast.NewSignature("")
	body, from, ok := p.interior(tok)
	if !ok {
		return sig
	}
	toks := dropEols(p.lexAt(body, from, lex.Config{Separators: ",", Delimiters: ":", SkipComments: true}))
	for i := 0; i < len(toks); {
		t := toks[i]
		if t.Kind != lex.Item {
			p.errorf(t, "unexpected %v in a signature", t.Kind)
			i++
			continue
		}
		switch {
		case strings.HasPrefix(t.Text, "--"):
			i = p.sigFlag(sig, toks, i)
		case strings.HasPrefix(t.Text, "..."):
			i = p.sigRest(sig, toks, i)
		default:
			i = p.sigPositional(sig, toks, i)
		}
	}
	return sig
}

// sigPositional parses one positional parameter: a name, "?" for optional,
// an optional ": type", and an optional "= default".
func (p *parser) sigPositional(sig *ast.Signature, toks []lex.Token, i int) int {
	t := toks[i]
	name := t.Text
	optional := strings.HasSuffix(name, "?")
	name = strings.TrimSuffix(name, "?")
	if !validVarName(name) {
		p.errorf(t, "invalid parameter name '%s'", name)
	}
	i++
	shape := ast.ShapeAny
	shape, i = p.sigShape(toks, i, shape)
	var def ast.Expr
	if i < len(toks) && toks[i].Kind == lex.Item && toks[i].Text == "=" {
		if i+1 < len(toks) {
			def = p.shapeItem(toks[i+1], shape)
			i += 2
		} else {
			p.errorfEof(toks[i], "missing default value after '='")
			i++
		}
	}
	sig.Positional = append(sig.Positional, ast.Param{
		Name:     name,
		Shape:    shape,
		Optional: optional || def != nil,
		Default:  def,
	})
	return i
}

// sigRest parses the ...rest parameter.
func (p *parser) sigRest(sig *ast.Signature, toks []lex.Token, i int) int {
	t := toks[i]
	name := strings.TrimPrefix(t.Text, "...")
	if sig.Rest != nil {
		p.errorf(t, "only one rest parameter is allowed")
	}
	if !validVarName(name) {
		p.errorf(t, "invalid parameter name '%s'", name)
	}
	i++
	shape := ast.ShapeList
	shape, i = p.sigShape(toks, i, shape)
	sig.Rest = &ast.Param{Name: name, Shape: shape}
	return i
}

// sigFlag parses --long or --long(-s), with an optional ": type" making the
// flag take a value instead of being a switch.
func (p *parser) sigFlag(sig *ast.Signature, toks []lex.Token, i int) int {
	t := toks[i]
	text := t.Text[2:]
	var short byte
	if j := strings.IndexByte(text, '('); j != -1 {
		spec := text[j:]
		if len(spec) == 4 && spec[1] == '-' && spec[3] == ')' {
			short = spec[2]
		} else {
			p.errorf(t, "bad short flag; write --long(-l)")
		}
		text = text[:j]
	}
	if !validFlagName(text) {
		p.errorf(t, "invalid flag name '--%s'", text)
	}
	if sig.FindLong(text) != nil {
		p.errorf(t, "duplicate flag --%s", text)
	}
	if short != 0 && sig.FindShort(short) != nil {
		p.errorf(t, "duplicate short flag -%c", short)
	}
	i++
	if i < len(toks) && toks[i].Kind == lex.Item && toks[i].Text == ":" {
		shape, ni := p.sigShape(toks, i, ast.ShapeAny)
		sig.AddFlag(text, short, shape, "")
		return ni
	}
	sig.AddSwitch(text, short, "")
	return i
}

// sigShape consumes ": type" if present, mapping the type name to a shape.
func (p *parser) sigShape(toks []lex.Token, i int, fallback ast.SyntaxShape) (ast.SyntaxShape, int) {
	if i >= len(toks) || toks[i].Kind != lex.Item || toks[i].Text != ":" {
		return fallback, i
	}
	if i+1 >= len(toks) {
		p.errorfEof(toks[i], "missing type after ':'")
		return fallback, i + 1
	}
	return p.shapeName(toks[i+1]), i + 2
}

// shapeName maps a type name in a signature to a syntax shape. Generic
// arguments like list<int> are accepted and checked only at the outer
// level.
func (p *parser) shapeName(t lex.Token) ast.SyntaxShape {
	name := t.Text
	if i := strings.IndexByte(name, '<'); i != -1 {
		name = name[:i]
	}
	if shape, ok := shapesByName[name]; ok {
		return shape
	}
	msg := "unknown type '" + name + "'"
	if near, ok := strutil.Nearest(name, shapeNames); ok {
		msg += "; did you mean '" + near + "'?"
	}
	p.errorf(t, "%s", msg)
	return ast.ShapeAny
}

// validFlagName reports whether name can name a flag: letters, digits,
// dashes and underscores, not starting with a dash or a digit.
func validFlagName(name string) bool {
	if name == "" || name[0] == '-' || isDigit(name[0]) {
		return false
	}
	for i := 0; i < len(name); i++ {
		b := name[i]
		if !isVarNameByte(b) && b != '-' {
			return false
		}
	}
	return true
}
