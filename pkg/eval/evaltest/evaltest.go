// Package evaltest provides a framework for testing Kelp code.
//
// The entry point for the framework is the Test function, which accepts a
// *testing.T and any number of test cases.
//
// Test cases are constructed using the That function, followed by method
// calls that add additional information to it.
//
// Example:
//
//	Test(t,
//		That("echo x").Puts("x"),
//		That("print x").Prints("x"))
//
// If some setup is needed, use the TestWithSetup function instead.
package evaltest

import (
	"bytes"
	"strings"
	"testing"

	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/mods"
	"src.kelp.sh/pkg/parse"
	"src.kelp.sh/pkg/val"
)

// Case is a test case that can be used in Test.
type Case struct {
	codes []string
	setup func(*eval.Session)
	want  want
}

// want holds the expectations of a case. Values are kept as the arguments
// given to Puts, since matchers are only applied when comparing.
type want struct {
	valueOut  []any
	bytesOut  []byte
	stderrOut []byte

	parseError error
	exception  error
}

// result holds what actually happened when evaluating a case.
type result struct {
	valueOut  []val.Value
	bytesOut  []byte
	stderrOut []byte

	parseError error
	exception  error
}

// That returns a new Case with the specified source code. Multiple arguments
// are joined with newlines. To specify multiple pieces of code that are
// evaluated separately, use the Then method to append code pieces.
func That(lines ...string) Case {
	return Case{codes: []string{strings.Join(lines, "\n")}}
}

// Then returns an altered Case that evaluates the given code in addition.
// Multiple arguments are joined with newlines.
func (c Case) Then(lines ...string) Case {
	c.codes = append(c.codes, strings.Join(lines, "\n"))
	return c
}

// WithSetup returns an altered Case with the given setup function run on
// the session before the code is evaluated.
func (c Case) WithSetup(f func(*eval.Session)) Case {
	c.setup = f
	return c
}

// DoesNothing returns c unchanged. It marks tests whose entire point is the
// absence of output and errors:
//
//	That("if false { print x }").DoesNothing()
func (c Case) DoesNothing() Case {
	return c
}

// Puts returns an altered Case that requires the code to output the given
// values from its final pipeline. Arguments are either [val.Value], a Go
// value convertible to one (bool, int, float64, string), or a
// [ValueMatcher].
func (c Case) Puts(vs ...any) Case {
	c.want.valueOut = vs
	return c
}

// Prints returns an altered Case that requires the code to produce the
// given byte output.
func (c Case) Prints(s string) Case {
	c.want.bytesOut = []byte(s)
	return c
}

// PrintsStderrWith returns an altered Case that requires the error output
// to contain the given text.
func (c Case) PrintsStderrWith(s string) Case {
	c.want.stderrOut = []byte(s)
	return c
}

// Throws returns an altered Case that requires the code to fail with the
// given reason. The reason supports special matcher values constructed by
// functions like ErrorWithMessage.
//
// If at least one traceback string is given, the failure must also carry a
// traceback whose frames caption the given source fragments, innermost
// first. With no traceback strings the traceback is not checked.
func (c Case) Throws(reason error, traceback ...string) Case {
	c.want.exception = excMatcher{reason, traceback}
	return c
}

// DoesNotCompile returns an altered Case that requires the code to fail
// parsing with exactly the given error messages.
func (c Case) DoesNotCompile(msgs ...string) Case {
	c.want.parseError = parseErrorMatcher{msgs}
	return c
}

// Test runs test cases. Each case gets a fresh session with all the builtin
// command sets installed.
func Test(t *testing.T, tests ...Case) {
	t.Helper()
	TestWithSetup(t, func(*eval.Session) {}, tests...)
}

// TestWithSetup runs test cases. Each case gets a fresh session with all
// the builtin command sets installed and the setup function applied.
func TestWithSetup(t *testing.T, setup func(*eval.Session), tests ...Case) {
	t.Helper()
	for _, tc := range tests {
		t.Run(strings.Join(tc.codes, "\n"), func(t *testing.T) {
			t.Helper()
			var out, errOut bytes.Buffer
			s := eval.NewSession(&out, &errOut)
			s.Extend(mods.InstallAll)
			setup(s)
			if tc.setup != nil {
				tc.setup(s)
			}

			r := evalAndCollect(s, tc.codes)
			r.bytesOut = out.Bytes()
			r.stderrOut = errOut.Bytes()

			if !matchValues(tc.want.valueOut, r.valueOut) {
				t.Errorf("got values %s, want %s",
					reprValues(r.valueOut), reprWants(tc.want.valueOut))
			}
			if !bytes.Equal(tc.want.bytesOut, r.bytesOut) {
				t.Errorf("got bytes out %q, want %q", r.bytesOut, tc.want.bytesOut)
			}
			if tc.want.stderrOut == nil {
				if len(r.stderrOut) > 0 {
					t.Errorf("got stderr out %q, want empty", r.stderrOut)
				}
			} else if !bytes.Contains(r.stderrOut, tc.want.stderrOut) {
				t.Errorf("got stderr out %q, want output containing %q",
					r.stderrOut, tc.want.stderrOut)
			}
			if !matchErr(tc.want.parseError, r.parseError) {
				t.Errorf("got parse error %v, want %v",
					r.parseError, tc.want.parseError)
			}
			if !matchErr(tc.want.exception, r.exception) {
				t.Errorf("got error %T: %v", r.exception, r.exception)
				if exc, ok := r.exception.(*eval.Exception); ok {
					t.Logf("reason: %T: %v", exc.Reason, exc.Reason)
					t.Logf("traceback: %v", tracebackTexts(exc.Traceback))
				}
				t.Errorf("want: %v", tc.want.exception)
			}
		})
	}
}

// evalAndCollect evaluates the code pieces in order and collects the values
// of their final pipelines. If several pieces fail, only the last parse
// error and the last runtime error are kept.
func evalAndCollect(s *eval.Session, texts []string) result {
	var r result
	for _, text := range texts {
		data, err := s.Eval("[test]", text)
		if err != nil {
			if parse.UnpackErrors(err) != nil {
				r.parseError = err
			} else {
				r.exception = err
			}
			continue
		}
		vs, err := collect(s, data)
		r.valueOut = append(r.valueOut, vs...)
		if err != nil {
			r.exception = err
		}
	}
	return r
}

// collect consumes pipeline data the way the REPL does: bytes go to the
// session's output, a single value stays single even when it is iterable,
// and a stream is gathered value by value.
func collect(s *eval.Session, data engine.PipelineData) ([]val.Value, error) {
	switch d := data.(type) {
	case nil:
		return nil, nil
	case engine.One:
		return []val.Value{d.Value}, nil
	case *engine.ByteStream:
		return nil, eval.Drain(s.State(), s.Stack(), d)
	}
	var vs []val.Value
	pull := engine.Pull(data)
	for {
		v, ok, err := pull()
		if err != nil {
			return vs, err
		}
		if !ok {
			return vs, nil
		}
		vs = append(vs, v)
	}
}

func matchValues(want []any, got []val.Value) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !matchValue(want[i], got[i]) {
			return false
		}
	}
	return true
}

func reprValues(vs []val.Value) string {
	reprs := make([]string, len(vs))
	for i, v := range vs {
		reprs[i] = val.ReprPlain(v)
	}
	return "(" + strings.Join(reprs, " ") + ")"
}

func reprWants(vs []any) string {
	reprs := make([]string, len(vs))
	for i, v := range vs {
		if vm, ok := v.(ValueMatcher); ok {
			reprs[i] = vm.String()
		} else {
			reprs[i] = val.ReprPlain(toValue(v))
		}
	}
	return "(" + strings.Join(reprs, " ") + ")"
}
