// Kelp is a shell for working with structured data. Pipelines carry typed
// values rather than text, commands declare signatures that are checked
// before anything runs, and the same engine serves scripts, the interactive
// prompt and the language server.
package main

import (
	"os"

	"src.kelp.sh/pkg/buildinfo"
	"src.kelp.sh/pkg/lsp"
	"src.kelp.sh/pkg/prog"
	"src.kelp.sh/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &lsp.Program{}, &shell.Program{})))
}
