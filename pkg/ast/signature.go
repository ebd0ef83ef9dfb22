package ast

import "fmt"

// SyntaxShape is the declared expected form of an argument, used by the
// parser to decide how to parse it and by signature checking to report
// mismatches.
type SyntaxShape int

// Possible values for SyntaxShape.
const (
	ShapeAny SyntaxShape = iota
	ShapeBool
	ShapeInt
	ShapeFloat
	ShapeNumber
	ShapeString
	ShapeDuration
	ShapeFilesize
	ShapeRange
	ShapeList
	ShapeRecord
	ShapeTable
	ShapeBlock
	ShapeClosure
	ShapeCellPath
	// ShapeMathExpr parses a full operator expression, like the condition of
	// an if call.
	ShapeMathExpr
	// ShapeSignature parses a bracketed parameter list, like the second
	// argument of def.
	ShapeSignature
)

var shapeStrings = [...]string{
	ShapeAny:       "any",
	ShapeBool:      "bool",
	ShapeInt:       "int",
	ShapeFloat:     "float",
	ShapeNumber:    "number",
	ShapeString:    "string",
	ShapeDuration:  "duration",
	ShapeFilesize:  "filesize",
	ShapeRange:     "range",
	ShapeList:      "list",
	ShapeRecord:    "record",
	ShapeTable:     "table",
	ShapeBlock:     "block",
	ShapeClosure:   "closure",
	ShapeCellPath:  "cell path",
	ShapeMathExpr:  "math expression",
	ShapeSignature: "signature",
}

// String returns a readable name of the shape, usable in error messages.
func (s SyntaxShape) String() string {
	if s < 0 || int(s) >= len(shapeStrings) {
		return fmt.Sprintf("bad shape %d", int(s))
	}
	return shapeStrings[s]
}

// Param describes a positional parameter.
type Param struct {
	Name  string
	Shape SyntaxShape
	Desc  string
	// Optional parameters may be left unbound; Default, if non-nil, is
	// evaluated in that case.
	Optional bool
	Default  Expr
	// Keyword, if non-empty, requires the argument to be introduced by this
	// literal word, like the else branch of if.
	Keyword string
	// ID is the variable the argument is bound to, for parameters of
	// user-defined commands and closures.
	ID VarID
}

// Flag describes a named parameter.
type Flag struct {
	Long string
	// Short is a single-byte alias, or 0 for none.
	Short byte
	// Switch flags take no value and bind a Bool.
	Switch bool
	Shape  SyntaxShape
	Desc   string
	// ID is the variable the flag value is bound to, for flags of
	// user-defined commands.
	ID VarID
}

// Signature describes how a command is called: its name and the parameters
// it accepts. The parser consumes arguments at a call site according to the
// signature of the resolved command.
type Signature struct {
	Name        string
	Description string
	Positional  []Param
	// Rest, if non-nil, greedily binds all remaining positional arguments.
	Rest  *Param
	Named []Flag
}

// NewSignature returns a Signature with the given command name and no
// parameters.
func NewSignature(name string) *Signature {
	return &Signature{Name: name}
}

// WithDescription sets the description and returns the receiver.
func (s *Signature) WithDescription(desc string) *Signature {
	s.Description = desc
	return s
}

// AddRequired appends a required positional parameter and returns the
// receiver.
func (s *Signature) AddRequired(name string, shape SyntaxShape, desc string) *Signature {
	s.Positional = append(s.Positional, Param{Name: name, Shape: shape, Desc: desc})
	return s
}

// AddOptional appends an optional positional parameter and returns the
// receiver.
func (s *Signature) AddOptional(name string, shape SyntaxShape, desc string) *Signature {
	s.Positional = append(s.Positional,
		Param{Name: name, Shape: shape, Desc: desc, Optional: true})
	return s
}

// AddKeyword appends an optional positional parameter introduced by a
// keyword and returns the receiver.
func (s *Signature) AddKeyword(keyword, name string, shape SyntaxShape, desc string) *Signature {
	s.Positional = append(s.Positional,
		Param{Name: name, Shape: shape, Desc: desc, Optional: true, Keyword: keyword})
	return s
}

// AddRest sets the rest parameter and returns the receiver.
func (s *Signature) AddRest(name string, shape SyntaxShape, desc string) *Signature {
	s.Rest = &Param{Name: name, Shape: shape, Desc: desc}
	return s
}

// AddFlag appends a named parameter taking a value and returns the receiver.
func (s *Signature) AddFlag(long string, short byte, shape SyntaxShape, desc string) *Signature {
	s.Named = append(s.Named, Flag{Long: long, Short: short, Shape: shape, Desc: desc})
	return s
}

// AddSwitch appends a boolean switch and returns the receiver.
func (s *Signature) AddSwitch(long string, short byte, desc string) *Signature {
	s.Named = append(s.Named, Flag{Long: long, Short: short, Switch: true, Desc: desc})
	return s
}

// RequiredCount returns the number of required positional parameters.
func (s *Signature) RequiredCount() int {
	n := 0
	for _, p := range s.Positional {
		if !p.Optional {
			n++
		}
	}
	return n
}

// FindLong returns the flag with the given long name, or nil.
func (s *Signature) FindLong(name string) *Flag {
	for i := range s.Named {
		if s.Named[i].Long == name {
			return &s.Named[i]
		}
	}
	return nil
}

// FindShort returns the flag with the given short alias, or nil.
func (s *Signature) FindShort(short byte) *Flag {
	for i := range s.Named {
		if s.Named[i].Short == short {
			return &s.Named[i]
		}
	}
	return nil
}
