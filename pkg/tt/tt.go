// Package tt supports table-driven tests with little boilerplate.
//
// See the test case for this package for example usage.
package tt

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Case represents a test case. It is created by the Args function, and offers
// setters that augment and return itself; those calls can be chained like
// Args(...).Rets(...).
type Case struct {
	desc         string
	args         []any
	retsMatchers [][]any
}

// Args returns a new Case with the given arguments.
func Args(args ...any) *Case {
	return &Case{args: args}
}

// It returns a new Case with the given text description. Give the case
// arguments by calling Args on the return value.
func It(desc string) *Case {
	return &Case{desc: desc}
}

// Args sets the arguments of the Case. It returns the receiver.
func (c *Case) Args(args ...any) *Case {
	c.args = args
	return c
}

// Rets modifies the test case so that it requires the return values to match
// the given values. It returns the receiver. The arguments may implement the
// Matcher interface, in which case its Match method is called with the actual
// return value. Otherwise, reflect.DeepEqual is used to determine matches.
//
// If Rets is called multiple times, the return values need to match any one of
// the given sets of values.
func (c *Case) Rets(matchers ...any) *Case {
	c.retsMatchers = append(c.retsMatchers, matchers)
	return c
}

// FnDescriptor describes a function to test.
type FnDescriptor struct {
	name    string
	body    any
	argsFmt string
}

// Fn creates a FnDescriptor with the given function body, deducing the
// function's name with the runtime. The name can be overridden with Named.
func Fn(body any) *FnDescriptor {
	name := runtime.FuncForPC(reflect.ValueOf(body).Pointer()).Name()
	// The deduced name is fully qualified, and bound methods have an
	// additional "-fm" suffix.
	name = name[strings.LastIndexByte(name, '.')+1:]
	name = strings.TrimSuffix(name, "-fm")
	return &FnDescriptor{name: name, body: body}
}

// Named returns an altered FnDescriptor with the given name. It is useful for
// anonymous functions, whose deduced names are unhelpful.
func (fn *FnDescriptor) Named(name string) *FnDescriptor {
	fn2 := *fn
	fn2.name = name
	return &fn2
}

// ArgsFmt returns an altered FnDescriptor with the given format for printing
// arguments in test failure messages.
func (fn *FnDescriptor) ArgsFmt(s string) *FnDescriptor {
	fn2 := *fn
	fn2.argsFmt = s
	return &fn2
}

// Test tests a function against the given Case instances. The fn argument may
// be the function itself, or a FnDescriptor created with Fn.
func Test(t *testing.T, fn any, tests ...*Case) {
	t.Helper()
	d, ok := fn.(*FnDescriptor)
	if !ok {
		d = Fn(fn)
	}
	for _, test := range tests {
		name := test.desc
		if name == "" {
			name = fmt.Sprintf("%s(%s)", d.name, d.sprintArgs(test.args))
		}
		t.Run(name, func(t *testing.T) {
			rets := call(d.body, test.args)
			for _, retsMatcher := range test.retsMatchers {
				if match(retsMatcher, rets) {
					return
				}
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "%s(%s) returns (-Wanted +Actual):\n",
				d.name, d.sprintArgs(test.args))
			for _, retsMatcher := range test.retsMatchers {
				sb.WriteString(cmp.Diff(retsMatcher, rets, CommonCmpOpt))
			}
			t.Error(sb.String())
		})
	}
}

// CommonCmpOpt is a cmp option that compares values of all types by looking
// at their unexported fields, like reflect.DeepEqual does. It makes cmp.Diff
// usable for producing readable diffs of arbitrary values.
var CommonCmpOpt = cmp.Exporter(func(reflect.Type) bool { return true })

// RetValue is an empty interface used in the Matcher interface.
type RetValue any

// Matcher wraps the Match method.
type Matcher interface {
	// Match reports whether a return value is considered a match. The argument
	// is of type RetValue so that it cannot be implemented accidentally.
	Match(RetValue) bool
}

// Any is a Matcher that matches any value.
var Any Matcher = anyMatcher{}

type anyMatcher struct{}

func (anyMatcher) Match(RetValue) bool { return true }

func match(matchers, actual []any) bool {
	if len(matchers) != len(actual) {
		return false
	}
	for i, matcher := range matchers {
		if !matchOne(matcher, actual[i]) {
			return false
		}
	}
	return true
}

func matchOne(m, a any) bool {
	if m, ok := m.(Matcher); ok {
		return m.Match(a)
	}
	return reflect.DeepEqual(m, a)
}

func (fn *FnDescriptor) sprintArgs(args []any) string {
	if fn.argsFmt == "" {
		return sprintCommaDelimited(args...)
	}
	return fmt.Sprintf(fn.argsFmt, args...)
}

func sprintCommaDelimited(args ...any) string {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprint(&sb, arg)
	}
	return sb.String()
}

func call(fn any, args []any) []any {
	argsReflect := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			// reflect.ValueOf(nil) returns a zero Value, but this is not what
			// we want. Work around this by taking the ValueOf a pointer to nil
			// and then get the Elem.
			var v any
			argsReflect[i] = reflect.ValueOf(&v).Elem()
		} else {
			argsReflect[i] = reflect.ValueOf(arg)
		}
	}
	retsReflect := reflect.ValueOf(fn).Call(argsReflect)
	rets := make([]any, len(retsReflect))
	for i, retReflect := range retsReflect {
		rets[i] = retReflect.Interface()
	}
	return rets
}
