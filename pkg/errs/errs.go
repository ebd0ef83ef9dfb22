// Package errs declares error types used as runtime error causes. The
// evaluator wraps them with the source context of the responsible
// expression when it propagates them.
package errs

import (
	"fmt"
)

// OutOfRange encodes an error where a value is out of its valid range.
type OutOfRange struct {
	What      string
	ValidLow  string
	ValidHigh string
	Actual    string
}

// Error implements the error interface.
func (e OutOfRange) Error() string {
	if e.ValidHigh < e.ValidLow {
		return fmt.Sprintf(
			"out of range: %s has no valid value, but is %s", e.What, e.Actual)
	}
	return fmt.Sprintf("out of range: %s must be from %s to %s, but is %s",
		e.What, e.ValidLow, e.ValidHigh, e.Actual)
}

// ArityMismatch encodes an error where the actual number of values differs
// from what is valid. ValidHigh == -1 means that the valid number has no
// upper bound.
type ArityMismatch struct {
	What      string
	ValidLow  int
	ValidHigh int
	Actual    int
}

// Error implements the error interface.
func (e ArityMismatch) Error() string {
	switch {
	case e.ValidHigh == e.ValidLow:
		return fmt.Sprintf("arity mismatch: %s must be %s, but is %s",
			e.What, nValues(e.ValidLow), nValues(e.Actual))
	case e.ValidHigh == -1:
		return fmt.Sprintf("arity mismatch: %s must be %d or more values, but is %s",
			e.What, e.ValidLow, nValues(e.Actual))
	default:
		return fmt.Sprintf("arity mismatch: %s must be %d to %d values, but is %s",
			e.What, e.ValidLow, e.ValidHigh, nValues(e.Actual))
	}
}

func nValues(n int) string {
	if n == 1 {
		return "1 value"
	}
	return fmt.Sprintf("%d values", n)
}

// BadValue encodes an error where the value does not fit the expected form.
type BadValue struct {
	What   string
	Valid  string
	Actual string
}

// Error implements the error interface.
func (e BadValue) Error() string {
	return fmt.Sprintf(
		"bad value: %s must be %s, but is %s", e.What, e.Valid, e.Actual)
}

// CantConvert encodes a failed conversion between two value types.
type CantConvert struct {
	From string
	To   string
}

// Error implements the error interface.
func (e CantConvert) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// DivisionByZero is returned when the divisor of a division or modulo
// operation is zero.
type DivisionByZero struct{}

// Error implements the error interface.
func (DivisionByZero) Error() string { return "division by zero" }

// OperatorOverflow is returned when integer arithmetic overflows.
type OperatorOverflow struct {
	Op string
}

// Error implements the error interface.
func (e OperatorOverflow) Error() string {
	return fmt.Sprintf("operator overflow: %s", e.Op)
}

// OpMismatch encodes a binary operation applied to operand types that do
// not support it.
type OpMismatch struct {
	Op  string
	LHS string
	RHS string
}

// Error implements the error interface.
func (e OpMismatch) Error() string {
	return fmt.Sprintf("'%s' is not supported between %s and %s",
		e.Op, e.LHS, e.RHS)
}

// ColumnNotFound is returned when a cell path names a column that does not
// exist in a record. Suggestion may carry the name of a column close to the
// requested one.
type ColumnNotFound struct {
	Name       string
	Suggestion string
}

// Error implements the error interface.
func (e ColumnNotFound) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf(
			"cannot find column '%s', did you mean '%s'?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("cannot find column '%s'", e.Name)
}

// NotIterable is returned when iterating a value of a type that does not
// support iteration.
type NotIterable struct {
	Kind string
}

// Error implements the error interface.
func (e NotIterable) Error() string { return "cannot iterate " + e.Kind }

// InfiniteRange is returned by operations that must consume their whole
// input when fed a range with no upper bound.
type InfiniteRange struct {
	What string
}

// Error implements the error interface.
func (e InfiniteRange) Error() string {
	return fmt.Sprintf("%s cannot consume an infinite range", e.What)
}

// Interrupted is returned when evaluation is stopped by an interrupt.
type Interrupted struct{}

// Error implements the error interface.
func (Interrupted) Error() string { return "interrupted" }

// Deprecated encodes the use of a deprecated command or feature.
type Deprecated struct {
	What    string
	Instead string
}

// Error implements the error interface.
func (e Deprecated) Error() string {
	if e.Instead == "" {
		return fmt.Sprintf("%s is deprecated", e.What)
	}
	return fmt.Sprintf("%s is deprecated; use %s instead", e.What, e.Instead)
}

// ReaderGone is returned by operations writing to a pipe whose reading end
// has been closed.
type ReaderGone struct{}

// Error implements the error interface.
func (ReaderGone) Error() string { return "reader gone" }

// SetReadOnlyVar is returned when assigning to a read-only variable.
type SetReadOnlyVar struct {
	VarName string
}

// Error implements the error interface.
func (e SetReadOnlyVar) Error() string {
	if e.VarName == "" {
		return "cannot set read-only variable"
	}
	return fmt.Sprintf("cannot set read-only variable $%s", e.VarName)
}
