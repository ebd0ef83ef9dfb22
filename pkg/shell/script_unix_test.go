//go:build unix

package shell

import (
	"testing"

	. "src.kelp.sh/pkg/prog/progtest"
)

func TestScript_ExternalExitStatusPropagates(t *testing.T) {
	Test(t, &Program{},
		ThatKelp("-c", "sh -c 'exit 3'").
			ExitsWith(3).
			WritesStderrContaining("'sh' exited with 3"),
		ThatKelp("-c", "sh -c 'exit 0'").DoesNothing(),
		// External output flows to stdout byte for byte.
		ThatKelp("-c", "sh -c 'printf \"a\\nb\\n\"'").WritesStdout("a\nb\n"),
	)
}
