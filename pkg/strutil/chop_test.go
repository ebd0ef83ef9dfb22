package strutil

import (
	"testing"

	"src.kelp.sh/pkg/tt"
)

func TestChopLineEnding(t *testing.T) {
	tt.Test(t, ChopLineEnding,
		Args("").Rets(""),
		Args("text").Rets("text"),
		Args("text\n").Rets("text"),
		Args("text\r\n").Rets("text"),
		// Only chop off one line ending
		Args("text\n\n").Rets("text\n"),
		// Preserve internal line endings
		Args("text\ntext 2\n").Rets("text\ntext 2"),
	)
}

func TestEditDistance(t *testing.T) {
	tt.Test(t, EditDistance,
		Args("", "").Rets(0),
		Args("", "abc").Rets(3),
		Args("abc", "").Rets(3),
		Args("abc", "abc").Rets(0),
		Args("abc", "abd").Rets(1),
		Args("abc", "bac").Rets(2),
		Args("kitten", "sitting").Rets(3),
		Args("each", "each-par").Rets(4),
	)
}

func TestNearest(t *testing.T) {
	tt.Test(t, Nearest,
		Args("nmae", []string{"name", "size", "type"}).Rets("name", true),
		Args("lenght", []string{"length", "lines"}).Rets("length", true),
		Args("x", []string{"name", "size"}).Rets("", false),
		Args("name", []string{}).Rets("", false),
		// A perfect match still counts as near.
		Args("size", []string{"name", "size"}).Rets("size", true),
	)
}
