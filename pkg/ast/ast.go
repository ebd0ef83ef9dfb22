// Package ast defines the typed syntax tree for Kelp code, along with the
// integer ID spaces used to reference entities stored in the engine state's
// arenas.
//
// The tree is fully resolved: variable references and command calls carry IDs
// instead of names, assigned at parse time against a working set. Blocks are
// likewise referenced by ID rather than by pointer, so a block can reference
// itself (recursive functions) without creating a cyclic structure.
package ast

import (
	"src.kelp.sh/pkg/diag"
)

// IDs into the arenas of the engine state. They are append-only indices:
// merging a parse delta never renumbers an ID that has been handed out.
type (
	// DeclID identifies a declared command.
	DeclID int
	// VarID identifies a declared variable.
	VarID int
	// BlockID identifies a block.
	BlockID int
	// ModuleID identifies a module.
	ModuleID int
	// FileID identifies a registered source unit.
	FileID int
)

// Node is implemented by all syntax tree nodes. Every node carries a global
// span; nodes synthesized without any corresponding source text carry
// diag.Unknown.
type Node interface {
	diag.Ranger
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	expr()
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
	diag.Ranging
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	diag.Ranging
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
	diag.Ranging
}

// StringLit is a string literal. Value holds the string after quote removal
// and escape processing.
type StringLit struct {
	Value string
	diag.Ranging
}

// NothingLit is the null literal.
type NothingLit struct {
	diag.Ranging
}

// UnitLit is an integer literal with a filesize or duration unit, like 10kb
// or 3sec.
type UnitLit struct {
	Amount int64
	Unit   Unit
	diag.Ranging
}

// Interp is an interpolated string: a sequence of literal and evaluated
// parts.
type Interp struct {
	Parts []Expr
	diag.Ranging
}

// List is a list literal.
type List struct {
	Items []Expr
	diag.Ranging
}

// RecordItem is one key-value entry of a record literal.
type RecordItem struct {
	Key   Expr
	Value Expr
}

// Record is a record literal. Items preserve source order.
type Record struct {
	Items []RecordItem
	diag.Ranging
}

// Table is a table literal: a header row followed by value rows, each row
// having exactly len(Headers) columns.
type Table struct {
	Headers []Expr
	Rows    [][]Expr
	diag.Ranging
}

// Range is a range expression. From, Next and To may each be nil: an absent
// From starts at 0, an absent Next steps by 1, and an absent To makes the
// range unbounded.
type Range struct {
	From      Expr
	Next      Expr
	To        Expr
	Exclusive bool
	diag.Ranging
}

// Var is a resolved variable reference.
type Var struct {
	ID VarID
	diag.Ranging
}

// VarDecl introduces a new variable; it appears as an argument of
// declaration forms like "let" and "mut".
type VarDecl struct {
	ID VarID
	diag.Ranging
}

// PathMemberKind distinguishes the two kinds of cell path members.
type PathMemberKind int

// Possible values for PathMemberKind.
const (
	KeyMember PathMemberKind = iota
	IndexMember
)

// PathMember is one step of a cell path: a record key or a list index. An
// optional member yields nothing instead of an error when the data is
// missing.
type PathMember struct {
	Kind     PathMemberKind
	Key      string
	Index    int64
	Optional bool
	diag.Ranging
}

// Path is a cell path access rooted at a head expression, like $x.foo.0.
type Path struct {
	Head    Expr
	Members []PathMember
	diag.Ranging
}

// NamedArg is a named or flag argument of a call. Value is nil for switches.
type NamedArg struct {
	Name  string
	Value Expr
	diag.Ranging
}

// Call is a resolved command invocation. Decl identifies the command; the
// name it was called by is only retained as the Head span.
type Call struct {
	Decl       DeclID
	Head       diag.Ranging
	Positional []Expr
	Named      []NamedArg
	diag.Ranging
}

// ExternalCall invokes an external command. The head and the arguments are
// evaluated to strings at run time; resolution against PATH also happens at
// run time.
type ExternalCall struct {
	Head Expr
	Args []Expr
	diag.Ranging
}

// BinaryOp applies a binary operator.
type BinaryOp struct {
	Left  Expr
	Op    Op
	Right Expr
	diag.Ranging
}

// UnaryNot is boolean negation.
type UnaryNot struct {
	Expr Expr
	diag.Ranging
}

// SubExpr is a parenthesized subexpression, evaluated eagerly to a value.
type SubExpr struct {
	ID BlockID
	diag.Ranging
}

// BlockExpr is a block literal without parameters, as used for the bodies of
// control-flow commands.
type BlockExpr struct {
	ID BlockID
	diag.Ranging
}

// ClosureExpr is a closure literal. The parameters are part of the referenced
// block's signature; evaluating the literal captures the variables listed in
// the block's capture list.
type ClosureExpr struct {
	ID BlockID
	diag.Ranging
}

// Keyword wraps an argument introduced by a keyword, like the else branch of
// an if call.
type Keyword struct {
	Name string
	Expr Expr
	diag.Ranging
}

// Garbage is a placeholder for source text that failed to parse. It carries
// the span of the offending text so that downstream consumers degrade
// gracefully instead of aborting.
type Garbage struct {
	diag.Ranging
}

func (*BoolLit) expr()      {}
func (*IntLit) expr()       {}
func (*FloatLit) expr()     {}
func (*StringLit) expr()    {}
func (*NothingLit) expr()   {}
func (*UnitLit) expr()      {}
func (*Interp) expr()       {}
func (*List) expr()         {}
func (*Record) expr()       {}
func (*Table) expr()        {}
func (*Range) expr()        {}
func (*Var) expr()          {}
func (*VarDecl) expr()      {}
func (*Path) expr()         {}
func (*Call) expr()         {}
func (*ExternalCall) expr() {}
func (*BinaryOp) expr()     {}
func (*UnaryNot) expr()     {}
func (*SubExpr) expr()      {}
func (*BlockExpr) expr()    {}
func (*ClosureExpr) expr()  {}
func (*Keyword) expr()      {}
func (*Garbage) expr()      {}
