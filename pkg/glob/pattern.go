// Package glob implements path name expansion against the file system.
//
// A pattern is parsed into segments: literal runs, slashes and wildcards.
// ? matches exactly one rune and * any run of runes within one path
// element; ** also crosses path separators. A backslash escapes the rune
// after it. Wildcards do not match a dot at the start of a path element
// unless the expansion asks for hidden entries.
package glob

import (
	"strings"
	"unicode/utf8"
)

// Pattern is a parsed glob pattern.
type Pattern struct {
	Segments []Segment
}

// Segment is one unit of a pattern.
type Segment interface{ segment() }

// Literal is a run of characters matched exactly.
type Literal struct{ Data string }

// Slash matches a path separator. Consecutive separators in the pattern
// collapse into one.
type Slash struct{}

// Wild is a wildcard.
type Wild struct{ Kind WildKind }

// WildKind enumerates the wildcards.
type WildKind int

const (
	// Question matches exactly one rune.
	Question WildKind = iota
	// Star matches any run of runes within one path element.
	Star
	// StarStar matches any run of runes, crossing path separators.
	StarStar
)

func (Literal) segment() {}
func (Slash) segment()   {}
func (Wild) segment()    {}

func isSlash(seg Segment) bool {
	_, ok := seg.(Slash)
	return ok
}

func isLiteral(seg Segment) bool {
	_, ok := seg.(Literal)
	return ok
}

func isWild(seg Segment, kinds ...WildKind) bool {
	w, ok := seg.(Wild)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if w.Kind == k {
			return true
		}
	}
	return false
}

// Parse parses a pattern. It cannot fail: every character either has a
// meaning or stands for itself. A backslash at the very end of the pattern
// escapes nothing and is dropped.
func Parse(s string) Pattern {
	var segs []Segment
	var lit strings.Builder
	endLit := func() {
		if lit.Len() > 0 {
			segs = append(segs, Literal{lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); {
		r, n := utf8.DecodeRuneInString(s[i:])
		i += n
		switch r {
		case '?':
			endLit()
			segs = append(segs, Wild{Question})
		case '*':
			stars := 1
			for i < len(s) && s[i] == '*' {
				stars++
				i++
			}
			endLit()
			if stars == 1 {
				segs = append(segs, Wild{Star})
			} else {
				segs = append(segs, Wild{StarStar})
			}
		case '/':
			for i < len(s) && s[i] == '/' {
				i++
			}
			endLit()
			segs = append(segs, Slash{})
		case '\\':
			if i < len(s) {
				r, n = utf8.DecodeRuneInString(s[i:])
				i += n
				lit.WriteRune(r)
			}
		default:
			lit.WriteRune(r)
		}
	}
	endLit()
	return Pattern{segs}
}
