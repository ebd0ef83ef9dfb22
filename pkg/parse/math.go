package parse

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/lex"
)

// Binary operators by their written form. Assignment operators are absent;
// assignments are whole statements and never nest inside expressions.
var binOps = map[string]ast.Op{
	"+":           ast.Add,
	"-":           ast.Sub,
	"*":           ast.Mul,
	"/":           ast.Div,
	"//":          ast.FloorDiv,
	"mod":         ast.Mod,
	"**":          ast.Pow,
	"++":          ast.Concat,
	"==":          ast.Eq,
	"!=":          ast.NotEq,
	"<":           ast.Lt,
	">":           ast.Gt,
	"<=":          ast.LtEq,
	">=":          ast.GtEq,
	"=~":          ast.RegexMatch,
	"!~":          ast.NotRegexMatch,
	"in":          ast.In,
	"not-in":      ast.NotIn,
	"starts-with": ast.StartsWith,
	"ends-with":   ast.EndsWith,
	"and":         ast.And,
	"or":          ast.Or,
	"xor":         ast.Xor,
}

var assignOps = map[string]ast.Op{
	"=":   ast.Assign,
	"+=":  ast.AddAssign,
	"-=":  ast.SubAssign,
	"*=":  ast.MulAssign,
	"/=":  ast.DivAssign,
	"++=": ast.ConcatAssign,
}

// Operator precedence. Higher binds tighter; ** is right associative.
var opPrec = map[ast.Op]int{
	ast.Pow:           9,
	ast.Mul:           8,
	ast.Div:           8,
	ast.FloorDiv:      8,
	ast.Mod:           8,
	ast.Add:           7,
	ast.Sub:           7,
	ast.Concat:        6,
	ast.In:            5,
	ast.NotIn:         5,
	ast.StartsWith:    5,
	ast.EndsWith:      5,
	ast.RegexMatch:    5,
	ast.NotRegexMatch: 5,
	ast.Eq:            4,
	ast.NotEq:         4,
	ast.Lt:            4,
	ast.Gt:            4,
	ast.LtEq:          4,
	ast.GtEq:          4,
	ast.And:           3,
	ast.Xor:           2,
	ast.Or:            1,
}

// mathExpr parses an operator expression by precedence climbing. It stops
// at the first token that is not a binary operator, leaving it for the
// caller, which is how "if $x > 5 { ... }" keeps its body out of the
// condition.
func (p *parser) mathExpr(c *cursor, minPrec int) ast.Expr {
	lhs := p.unary(c)
	for c.more() {
		tok := c.peek()
		if tok.Kind != lex.Item {
			break
		}
		op, ok := binOps[tok.Text]
		if !ok {
			break
		}
		prec := opPrec[op]
		if prec < minPrec {
			break
		}
		c.next()
		if !c.more() {
			p.errorfEof(tok, "missing operand after '%v'", op)
			return &ast.BinaryOp{
				Left:    lhs,
				Op:      op,
				Right:   &ast.Garbage{Ranging: diag.PointRanging(tok.To)},
				Ranging: diag.MixedRanging(lhs, tok),
			}
		}
		next := prec + 1
		if op == ast.Pow {
			next = prec
		}
		rhs := p.mathExpr(c, next)
		lhs = &ast.BinaryOp{
			Left:    lhs,
			Op:      op,
			Right:   rhs,
			Ranging: diag.MixedRanging(lhs, rhs),
		}
	}
	return lhs
}

// unary parses a prefix operator or a single atom.
func (p *parser) unary(c *cursor) ast.Expr {
	if !c.more() {
		return &ast.Garbage{Ranging: diag.Unknown}
	}
	tok := c.peek()
	if tok.Kind == lex.Item && tok.Text == "not" {
		c.next()
		if !c.more() {
			p.errorfEof(tok, "missing operand after 'not'")
			return &ast.Garbage{Ranging: tok.Ranging}
		}
		operand := p.unary(c)
		return &ast.UnaryNot{Expr: operand, Ranging: diag.MixedRanging(tok, operand)}
	}
	return p.shapeItem(c.next(), ast.ShapeAny)
}
