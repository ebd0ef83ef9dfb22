package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"src.kelp.sh/pkg/strutil"
)

// minEditor is a minimal line reader. Kelp has no line editor of its own;
// the terminal's line discipline provides editing within the current line.
type minEditor struct {
	in  *bufio.Reader
	out io.Writer
}

func newMinEditor(in, out *os.File) *minEditor {
	return &minEditor{bufio.NewReader(in), out}
}

const continuationPrompt = "... "

// primaryPrompt returns the prompt for the first line of a unit, built from
// the working directory.
func primaryPrompt() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "?"
	}
	return wd + "> "
}

// ReadLine writes the prompt and reads one line, with the line ending
// chopped.
func (ed *minEditor) ReadLine(prompt string) (string, error) {
	fmt.Fprint(ed.out, prompt)
	line, err := ed.in.ReadString('\n')
	return strutil.ChopLineEnding(line), err
}
