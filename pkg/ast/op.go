package ast

import "fmt"

// Op enumerates binary operators.
type Op int

// Possible values for Op, grouped by category.
const (
	// Arithmetic operators.
	Add Op = iota
	Sub
	Mul
	Div
	FloorDiv
	Mod
	Pow
	Concat
	// Comparison operators.
	Eq
	NotEq
	Lt
	Gt
	LtEq
	GtEq
	RegexMatch
	NotRegexMatch
	In
	NotIn
	StartsWith
	EndsWith
	// Boolean operators.
	And
	Or
	Xor
	// Assignment operators.
	Assign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ConcatAssign
)

var opStrings = [...]string{
	Add:           "+",
	Sub:           "-",
	Mul:           "*",
	Div:           "/",
	FloorDiv:      "//",
	Mod:           "mod",
	Pow:           "**",
	Concat:        "++",
	Eq:            "==",
	NotEq:         "!=",
	Lt:            "<",
	Gt:            ">",
	LtEq:          "<=",
	GtEq:          ">=",
	RegexMatch:    "=~",
	NotRegexMatch: "!~",
	In:            "in",
	NotIn:         "not-in",
	StartsWith:    "starts-with",
	EndsWith:      "ends-with",
	And:           "and",
	Or:            "or",
	Xor:           "xor",
	Assign:        "=",
	AddAssign:     "+=",
	SubAssign:     "-=",
	MulAssign:     "*=",
	DivAssign:     "/=",
	ConcatAssign:  "++=",
}

// String returns the source form of the operator.
func (op Op) String() string {
	if op < 0 || int(op) >= len(opStrings) {
		return fmt.Sprintf("bad op %d", int(op))
	}
	return opStrings[op]
}

// IsComparison reports whether the operator is a comparison operator. All
// comparison operators evaluate to a Bool.
func (op Op) IsComparison() bool {
	return op >= Eq && op <= EndsWith
}

// IsBoolean reports whether the operator is a boolean operator. Boolean
// operators take Bool operands; And and Or short-circuit.
func (op Op) IsBoolean() bool {
	return op >= And && op <= Xor
}

// IsAssignment reports whether the operator is an assignment operator.
// Assignment operators require a mutable variable or cell path on the left.
func (op Op) IsAssignment() bool {
	return op >= Assign && op <= ConcatAssign
}
