// Package wcwidth provides utilities for determining the column width of
// characters and strings.
package wcwidth

import (
	"strings"
	"sync"
	"unicode"
)

// Overriding width of characters. The concurrent map is used instead of
// keeping a lock around all reads because overriding is rare.
var overrides sync.Map

var zeroWidth = []*unicode.RangeTable{unicode.Mn, unicode.Me, unicode.Cf}

// Characters that are two columns wide: East Asian Wide and Fullwidth
// characters, plus the Hangul Jamo initial consonants.
var wide = &unicode.RangeTable{
	R16: []unicode.Range16{
		{0x1100, 0x115f, 1},
		{0x2329, 0x232a, 1},
		{0x2e80, 0x303e, 1},
		{0x3041, 0x33ff, 1},
		{0x3400, 0x4dbf, 1},
		{0x4e00, 0x9fff, 1},
		{0xa000, 0xa4cf, 1},
		{0xac00, 0xd7a3, 1},
		{0xf900, 0xfaff, 1},
		{0xfe10, 0xfe19, 1},
		{0xfe30, 0xfe6f, 1},
		{0xff00, 0xff60, 1},
		{0xffe0, 0xffe6, 1},
	},
	R32: []unicode.Range32{
		{0x20000, 0x2fffd, 1},
		{0x30000, 0x3fffd, 1},
	},
}

// OfRune returns the column width of a rune.
func OfRune(r rune) int {
	if w, ok := overrides.Load(r); ok {
		return w.(int)
	}
	switch {
	case unicode.IsOneOf(zeroWidth, r):
		return 0
	case unicode.Is(wide, r):
		return 2
	default:
		return 1
	}
}

// Override overrides the column width of a rune to be a custom value. Pass a
// negative width to remove the override.
func Override(r rune, w int) {
	if w < 0 {
		overrides.Delete(r)
	} else {
		overrides.Store(r, w)
	}
}

// Unoverride removes the column width override of a rune.
func Unoverride(r rune) {
	overrides.Delete(r)
}

// Of returns the column width of a string, assuming that the string starts at
// the first column of the terminal.
func Of(s string) (w int) {
	for _, r := range s {
		w += OfRune(r)
	}
	return
}

// Trim trims the string s so that it has a column width of at most wmax.
func Trim(s string, wmax int) string {
	w := 0
	for i, r := range s {
		w += OfRune(r)
		if w > wmax {
			return s[:i]
		}
	}
	return s
}

// Force trims the string s so that it has a column width of at most wmax, and
// pads it with spaces so that it has a column width of exactly wmax.
func Force(s string, wmax int) string {
	s = Trim(s, wmax)
	return s + strings.Repeat(" ", wmax-Of(s))
}

// TrimEachLine trims each line of s so that it has a column width of at most
// wmax.
func TrimEachLine(s string, wmax int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = Trim(line, wmax)
	}
	return strings.Join(lines, "\n")
}
