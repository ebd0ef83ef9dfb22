package diag

import (
	"strings"

	"src.kelp.sh/pkg/strutil"
)

// Error is an error with a source context, tagged by a type parameter so that
// different categories of errors (lex errors, parse errors, ...) are distinct
// Go types while sharing one implementation.
type Error[T ErrorTag] struct {
	Message string
	Context Context

	// Partial is true if the error was caused by the source ending too early,
	// rather than by malformed content. Interactive frontends use this to
	// decide whether to request continuation instead of reporting failure.
	Partial bool
}

// ErrorTag is the constraint for the type parameter of [Error]. The tag's
// only job is naming the error category.
type ErrorTag interface {
	ErrorTag() string
}

// Error returns a plain text representation of the error.
func (e *Error[T]) Error() string {
	var tag T
	return tag.ErrorTag() + ": " + e.errorNoType()
}

func (e *Error[T]) errorNoType() string {
	return e.Context.describePosition() + ": " + e.Message
}

// Range returns the range of the error.
func (e *Error[T]) Range() Ranging {
	return e.Context.Range()
}

// Variables controlling the style of the message. Can be changed for testing.
var (
	messageStart = "\033[31;1m"
	messageEnd   = "\033[m"
)

// Show shows the error with its source context.
func (e *Error[T]) Show(indent string) string {
	var tag T
	header := strutil.Title(tag.ErrorTag()) + ": " + messageStart + e.Message + messageEnd + "\n"
	return header + indent + "  " + e.Context.ShowCompact(indent+"  ")
}

// PackErrors packs multiple instances of [Error] with the same tag into one
// error:
//
//   - If called with no errors, it returns nil.
//
//   - If called with one error, it returns that error itself.
//
//   - If called with more than one error, it returns an error that combines
//     all of them. The returned error also implements [Shower], and its Show
//     method shows all the constituent errors.
func PackErrors[T ErrorTag](errs []*Error[T]) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &multiError[T]{errs}
	}
}

// UnpackErrors returns the constituent [Error] instances in an error if it is
// built from [PackErrors]. Otherwise it returns nil.
func UnpackErrors[T ErrorTag](err error) []*Error[T] {
	switch err := err.(type) {
	case *Error[T]:
		return []*Error[T]{err}
	case *multiError[T]:
		return err.errors
	default:
		return nil
	}
}

type multiError[T ErrorTag] struct {
	errors []*Error[T]
}

func (err *multiError[T]) Error() string {
	var sb strings.Builder
	var tag T
	sb.WriteString("multiple " + tag.ErrorTag() + "s: ")
	for i, e := range err.errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.errorNoType())
	}
	return sb.String()
}

func (err *multiError[T]) Show(indent string) string {
	var sb strings.Builder
	var tag T
	sb.WriteString("Multiple " + tag.ErrorTag() + "s:")
	for _, e := range err.errors {
		sb.WriteString("\n" + indent + "  ")
		sb.WriteString(e.Show(indent + "  "))
	}
	return sb.String()
}
