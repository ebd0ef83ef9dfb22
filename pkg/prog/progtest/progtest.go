// Package progtest provides utilities for testing subprograms.
//
// This package intentionally has no test file. It is excluded from test
// coverage.
package progtest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"src.kelp.sh/pkg/prog"
)

// Case is a test case that can be used in Test.
type Case struct {
	args  []string
	stdin string
	want  result
}

type result struct {
	exitCode int
	stdout   output
	stderr   output
}

type output struct {
	content string
	partial bool
}

func (o output) String() string {
	if o.partial {
		return fmt.Sprintf("text containing %q", o.content)
	}
	return fmt.Sprintf("%q", o.content)
}

// ThatKelp returns a new Case with the given arguments for invoking kelp.
func ThatKelp(args ...string) Case {
	return Case{args: append([]string{"kelp"}, args...)}
}

// WithStdin returns an altered Case that has the given stdin.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// DoesNothing returns c itself. It is useful to mark tests that otherwise
// have no expectations, making the test code more readable.
func (c Case) DoesNothing() Case {
	return c
}

// ExitsWith returns an altered Case that requires the invocation to exit with
// the given exit code.
func (c Case) ExitsWith(code int) Case {
	c.want.exitCode = code
	return c
}

// WritesStdout returns an altered Case that requires the invocation to
// produce exactly the given text in stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.stdout = output{content: s}
	return c
}

// WritesStdoutContaining returns an altered Case that requires the invocation
// to produce output containing the given text in stdout.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.stdout = output{content: s, partial: true}
	return c
}

// WritesStderr returns an altered Case that requires the invocation to
// produce exactly the given text in stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.stderr = output{content: s}
	return c
}

// WritesStderrContaining returns an altered Case that requires the invocation
// to produce output containing the given text in stderr.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.stderr = output{content: s, partial: true}
	return c
}

// Test runs test cases against a given program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			t.Helper()
			r := run(p, c.args, c.stdin)
			if r.exitCode != c.want.exitCode {
				t.Errorf("got exit code %v, want %v", r.exitCode, c.want.exitCode)
			}
			if !matchOutput(r.stdout, c.want.stdout) {
				t.Errorf("got stdout %v, want %v", r.stdout, c.want.stdout)
			}
			if !matchOutput(r.stderr, c.want.stderr) {
				t.Errorf("got stderr %v, want %v", r.stderr, c.want.stderr)
			}
		})
	}
}

// Run runs a Program with the given arguments. It returns the Program's exit
// code and what it wrote to stdout and stderr.
func Run(p prog.Program, args ...string) (exit int, stdout, stderr string) {
	r := run(p, args, "")
	return r.exitCode, r.stdout.content, r.stderr.content
}

func matchOutput(got, want output) bool {
	if want.partial {
		return strings.Contains(got.content, want.content)
	}
	return got.content == want.content
}

func run(p prog.Program, args []string, stdin string) result {
	r0, w0 := mustPipe()
	defer r0.Close()
	// Writing stdin synchronously only works for data smaller than the pipe
	// buffer, but test cases don't have stdin nearly that large.
	w0.WriteString(stdin)
	w0.Close()

	r1, w1 := mustPipe()
	stdoutDone := saveOutput(r1)

	r2, w2 := mustPipe()
	stderrDone := saveOutput(r2)

	exitCode := prog.Run([3]*os.File{r0, w1, w2}, args, p)
	w1.Close()
	w2.Close()
	return result{exitCode, output{content: <-stdoutDone}, output{content: <-stderrDone}}
}

func mustPipe() (*os.File, *os.File) {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}
	return r, w
}

// Starts a goroutine that reads from r until EOF, so that the program being
// tested doesn't block on writing when the output exceeds the pipe buffer.
func saveOutput(r *os.File) <-chan string {
	ch := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		r.Close()
		ch <- string(b)
	}()
	return ch
}
