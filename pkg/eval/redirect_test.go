//go:build unix

package eval_test

import (
	"testing"

	. "src.kelp.sh/pkg/eval/evaltest"
	"src.kelp.sh/pkg/testutil"
)

func TestRedirect_File(t *testing.T) {
	testutil.InTempDir(t)
	Test(t,
		That("echo hi o> out.txt", "cat out.txt").Prints("hi\n"),
		That("echo hi out> long.txt", "cat long.txt").Prints("hi\n"),
		That("echo one o> f.txt", "echo two o>> f.txt", "cat f.txt").
			Prints("one\ntwo\n"),
		// Values follow bytes into the target, one line each.
		That("echo a b o> vals.txt", "cat vals.txt").Prints("a\nb\n"),
		That("sh -c 'echo oops >&2' e> err.txt", "cat err.txt").Prints("oops\n"),
		That("sh -c 'echo out; echo err >&2' o+e> both.txt", "cat both.txt").
			Prints("out\nerr\n"),
	)
}

func TestRedirect_LazyStageKeepsTargetOpen(t *testing.T) {
	testutil.InTempDir(t)
	Test(t,
		// each writes to its redirection target only while length pulls
		// from it; the file must stay open until the stream is drained.
		That("[1 2] | each {|x| sh -c 'echo oops >&2' } e> lazy.txt | length",
			"cat lazy.txt").Puts(0).Prints("oops\noops\n"),
		That("[1] | each {|x| sh -c 'echo mixed; echo err >&2' } e> both.txt",
			"cat both.txt").Puts("mixed").Prints("err\n"),
	)
}

func TestRedirect_ErrorPipe(t *testing.T) {
	testutil.InTempDir(t)
	Test(t,
		That("sh -c 'echo warn >&2' e>| each {|l| echo $l }").Puts("warn"),
		That("sh -c 'echo a; echo b >&2' o+e>| each {|l| echo $l }").
			Puts("a", "b"),
		// A side already redirected to a file stays out of the pipe.
		That("sh -c 'echo x; echo y >&2' o> split.txt o+e>| each {|l| echo $l }").
			Puts("y"),
		// The error pipe leaves regular output alone.
		That("print hi e>| each {|l| echo $l }").Prints("hi"),
		// Values traverse a combined pipe in their line form.
		That("echo x o+e>| each {|l| echo $l }").Puts("x"),
	)
}
