//go:build unix

package eval_test

import (
	"testing"

	. "src.kelp.sh/pkg/eval/evaltest"
)

func TestExternalCall(t *testing.T) {
	Test(t,
		That("sh -c 'printf \"a\\nb\\n\"'").Prints("a\nb\n"),
		That("sh -c 'exit 0'").DoesNothing(),
		// Pipeline values become lines on the command's standard input.
		That("echo hi | cat").Prints("hi\n"),
		That("echo a b | cat").Prints("a\nb\n"),
		// Bytes pass through untouched.
		That("sh -c 'printf \"x\\ny\\n\"' | cat").Prints("x\ny\n"),
		// And come back out as one value per line.
		That("sh -c 'printf \"x\\ny\\n\"' | each {|l| echo $l }").Puts("x", "y"),
	)
}

func TestExternalCall_ExitStatus(t *testing.T) {
	Test(t,
		That("sh -c 'exit 3'").Throws(ErrorWithMessage("'sh' exited with 3")),
		// A captured stream carries the exit status to whoever drains it.
		That("sh -c 'exit 5' | each {|l| echo $l }").Throws(
			ErrorWithMessage("'sh' exited with 5")),
		// Death by signal reports the signal, not an exit code.
		That("sh -c 'kill -TERM $$'").Throws(
			ErrorWithMessage("'sh' signal: terminated")),
	)
}
