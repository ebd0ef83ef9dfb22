package evaltest

import (
	"fmt"
	"reflect"
	"strings"

	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/parse"
)

type errorMatcher interface{ matchError(error) bool }

// matchErr matches an error against a wanted error, which may be a plain
// error compared by deep equality against the failure's reason, or one of
// the matcher values in this file.
func matchErr(want, got error) bool {
	if want == nil {
		return got == nil
	}
	if m, ok := want.(errorMatcher); ok {
		return m.matchError(got)
	}
	return got != nil && reflect.DeepEqual(want, eval.Reason(got))
}

// An errorMatcher for parse errors, used by Case.DoesNotCompile.
type parseErrorMatcher struct {
	msgs []string
}

func (m parseErrorMatcher) Error() string {
	if len(m.msgs) == 0 {
		return "any parse error"
	}
	return "parse errors with messages: " + strings.Join(m.msgs, "; ")
}

func (m parseErrorMatcher) matchError(got error) bool {
	errs := parse.UnpackErrors(got)
	if len(errs) == 0 {
		return false
	}
	if len(m.msgs) == 0 {
		return true
	}
	if len(errs) != len(m.msgs) {
		return false
	}
	for i, msg := range m.msgs {
		if errs[i].Message != msg {
			return false
		}
	}
	return true
}

// An errorMatcher for runtime failures, used by Case.Throws.
type excMatcher struct {
	reason    error
	traceback []string
}

func (m excMatcher) Error() string {
	if len(m.traceback) == 0 {
		return fmt.Sprintf("error with reason %v", m.reason)
	}
	return fmt.Sprintf("error with reason %v and traceback %v", m.reason, m.traceback)
}

func (m excMatcher) matchError(got error) bool {
	if got == nil {
		return false
	}
	if !matchErr(m.reason, eval.Reason(got)) {
		return false
	}
	if len(m.traceback) == 0 {
		return true
	}
	exc, ok := got.(*eval.Exception)
	return ok && reflect.DeepEqual(m.traceback, tracebackTexts(exc.Traceback))
}

// tracebackTexts extracts the source fragment under each frame of the
// traceback, innermost first.
func tracebackTexts(tb *engine.Traceback) []string {
	texts := []string{}
	for ; tb != nil; tb = tb.Next {
		ctx := tb.Head
		texts = append(texts, ctx.Source[ctx.From:ctx.To])
	}
	return texts
}

// AnyError matches any non-nil error. Pass it to Case.Throws when only the
// fact of failure matters.
var AnyError error = anyError{}

type anyError struct{}

func (anyError) Error() string             { return "any error" }
func (anyError) matchError(got error) bool { return got != nil }

// ErrorWithType returns an error to pass to Case.Throws that matches any
// error with the same type as the argument.
func ErrorWithType(v error) error { return errWithType{v} }

type errWithType struct{ v error }

func (e errWithType) Error() string { return fmt.Sprintf("error with type %T", e.v) }

func (e errWithType) matchError(got error) bool {
	return reflect.TypeOf(e.v) == reflect.TypeOf(got)
}

// ErrorWithMessage returns an error to pass to Case.Throws that matches any
// error with the given message.
func ErrorWithMessage(msg string) error { return errWithMessage{msg} }

type errWithMessage struct{ msg string }

func (e errWithMessage) Error() string { return "error with message " + e.msg }

func (e errWithMessage) matchError(got error) bool {
	return got != nil && e.msg == got.Error()
}

// OneOfErrors returns an error to pass to Case.Throws that matches if any
// of the given errors matches.
func OneOfErrors(errs ...error) error { return errOneOf{errs} }

type errOneOf struct{ errs []error }

func (e errOneOf) Error() string { return fmt.Sprint("one of ", e.errs) }

func (e errOneOf) matchError(got error) bool {
	for _, want := range e.errs {
		if matchErr(want, got) {
			return true
		}
	}
	return false
}
