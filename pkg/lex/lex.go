// Package lex implements the lexical scanner for Kelp source code.
//
// The scanner makes a single forward pass over the source and produces a flat
// list of tokens. It tracks quoting and bracket nesting, so that pipes,
// semicolons and newlines inside brackets or quotes do not end up as
// separator tokens; a whole bracketed group becomes part of one Item token,
// and the parser re-lexes its interior with an adjusted offset. This is what
// lets every fragment of a source unit share one global span space.
package lex

import (
	"errors"
	"fmt"
	"strings"

	"src.kelp.sh/pkg/diag"
)

// Kind enumerates the kinds of tokens.
type Kind int

// Possible values for Kind.
const (
	// An undifferentiated word: bareword, number, quoted string or bracketed
	// group. Items are shaped into concrete expressions by the parser.
	Item Kind = iota
	// A comment, from "#" to the end of the line.
	Comment
	// An unbracketed newline.
	Eol
	// ";"
	Semicolon
	// "|"
	Pipe
	// "e>|" or "err>|"
	ErrPipe
	// "o+e>|" or "out+err>|"
	OutErrPipe
	// "o>" or "out>"
	OutRedirect
	// "o>>" or "out>>"
	OutAppendRedirect
	// "e>" or "err>"
	ErrRedirect
	// "e>>" or "err>>"
	ErrAppendRedirect
	// "o+e>" or "out+err>"
	OutErrRedirect
	// "o+e>>" or "out+err>>"
	OutErrAppendRedirect
)

// String returns a readable name of the token kind, usable in error messages.
func (k Kind) String() string {
	switch k {
	case Item:
		return "item"
	case Comment:
		return "comment"
	case Eol:
		return "newline"
	case Semicolon:
		return "';'"
	case Pipe:
		return "'|'"
	case ErrPipe:
		return "'e>|'"
	case OutErrPipe:
		return "'o+e>|'"
	case OutRedirect:
		return "'o>'"
	case OutAppendRedirect:
		return "'o>>'"
	case ErrRedirect:
		return "'e>'"
	case ErrAppendRedirect:
		return "'e>>'"
	case OutErrRedirect:
		return "'o+e>'"
	case OutErrAppendRedirect:
		return "'o+e>>'"
	default:
		return fmt.Sprintf("bad kind %d", int(k))
	}
}

// Token is a lexical unit. Its Ranging is global: the offset passed to Lex is
// already added.
type Token struct {
	Kind Kind
	// Raw text of the token, excluding any separator that ended it.
	Text string
	diag.Ranging
}

// Config alters the treatment of some bytes, for lexing bracketed
// sub-contexts.
type Config struct {
	// Separators are bytes treated like whitespace in addition to space and
	// tab. The parser lexes list interiors with "," here.
	Separators string
	// Delimiters are bytes that end the current item and become single-byte
	// Item tokens of their own. The parser lexes record interiors with ":"
	// here.
	Delimiters string
	// SkipComments drops Comment tokens instead of emitting them.
	SkipComments bool
}

// Error is the type of lexical errors. The Partial flag is set when the error
// is caused by the source ending inside a quote or bracket, the signal used by
// interactive frontends to read a continuation line instead of failing.
//
// The Ranging of an Error is relative to the src given to Lex, not global;
// the lexer does not know the name of the source unit, so the caller is
// expected to integrate the error into its own diagnostics.
type Error = diag.Error[ErrorTag]

// ErrorTag is the tag for [Error].
type ErrorTag struct{}

// ErrorTag returns the error category.
func (ErrorTag) ErrorTag() string { return "lex error" }

// IsUnexpectedEof reports whether err is a lexical error caused by the
// source ending inside a quote or bracket.
func IsUnexpectedEof(err error) bool {
	var lexErr *Error
	return errors.As(err, &lexErr) && lexErr.Partial
}

// Lex scans src into tokens. The offset is added to the range of every token,
// so that fragments of one source unit lexed separately still get disjoint,
// globally comparable spans.
//
// Lexing keeps going after an error; the returned tokens are usable even when
// the error is non-nil. Only the first error is reported.
func Lex(src string, offset int, cfg Config) ([]Token, error) {
	l := &lexer{src: src, offset: offset, cfg: cfg}
	l.run()
	if l.err != nil {
		return l.tokens, l.err
	}
	return l.tokens, nil
}

type lexer struct {
	src    string
	offset int
	cfg    Config

	pos    int
	tokens []Token
	err    *Error
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || l.isSeparator(c):
			l.pos++
		case c == '\n':
			l.emit(Eol, l.pos, l.pos+1)
			l.pos++
		case c == '#':
			l.lexComment()
		case c == ';':
			l.emit(Semicolon, l.pos, l.pos+1)
			l.pos++
		case c == '|':
			l.emit(Pipe, l.pos, l.pos+1)
			l.pos++
		case l.isDelimiter(c):
			l.emit(Item, l.pos, l.pos+1)
			l.pos++
		case c == ')' || c == ']' || c == '}':
			l.errorf(diag.Ranging{From: l.pos, To: l.pos + 1}, false,
				"unmatched '%c'", c)
			l.pos++
		default:
			l.lexItem()
		}
	}
}

func (l *lexer) lexComment() {
	from := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
	if !l.cfg.SkipComments {
		l.emit(Comment, from, l.pos)
	}
}

// Closing brackets, indexed by their opening counterparts.
var closerOf = map[byte]byte{'(': ')', '[': ']', '{': '}'}

func (l *lexer) lexItem() {
	from := l.pos
	// Stack of pending closing brackets.
	var depth []byte
loop:
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\'' || c == '"' || c == '`':
			l.lexQuoted(c)
		case c == 'r' && l.atRawStringOpener():
			l.lexRawString()
		case c == '(' || c == '[' || c == '{':
			depth = append(depth, closerOf[c])
			l.pos++
		case c == ')' || c == ']' || c == '}':
			if len(depth) == 0 {
				// Closes nothing within this item; the main loop deals with
				// it.
				break loop
			}
			if depth[len(depth)-1] != c {
				l.errorf(diag.Ranging{From: l.pos, To: l.pos + 1}, false,
					"unmatched '%c'", c)
			} else {
				depth = depth[:len(depth)-1]
			}
			l.pos++
		case len(depth) == 0 && l.endsItem(c):
			break loop
		default:
			l.pos++
		}
	}
	if len(depth) > 0 {
		l.errorf(diag.PointRanging(len(l.src)), true,
			"unclosed '%c'", openerOf(depth[len(depth)-1]))
	}

	text := l.src[from:l.pos]
	// "e>" and "o+e>" directly followed by a pipe form a single operator that
	// pipes the stderr of the previous stage.
	if l.pos < len(l.src) && l.src[l.pos] == '|' {
		switch text {
		case "e>", "err>":
			l.pos++
			l.emit(ErrPipe, from, l.pos)
			return
		case "o+e>", "out+err>":
			l.pos++
			l.emit(OutErrPipe, from, l.pos)
			return
		}
	}
	l.emit(classify(text), from, l.pos)
}

// lexQuoted scans a quoted part of an item, starting at the opening quote.
// Single-quoted and backquoted parts are literal; double-quoted parts support
// backslash escaping, which the lexer only skips over, leaving the actual
// unescaping to the parser.
func (l *lexer) lexQuoted(q byte) {
	from := l.pos
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == q:
			l.pos++
			return
		case q == '"' && c == '\\':
			l.pos = min(l.pos+2, len(l.src))
		default:
			l.pos++
		}
	}
	l.errorf(diag.Ranging{From: from, To: len(l.src)}, true,
		"unterminated string")
}

// atRawStringOpener reports whether the current position starts a raw string
// opener, "r", one or more "#", and a single quote.
func (l *lexer) atRawStringOpener() bool {
	p := l.pos + 1
	for p < len(l.src) && l.src[p] == '#' {
		p++
	}
	return p > l.pos+1 && p < len(l.src) && l.src[p] == '\''
}

// lexRawString scans a raw string r#'...'#, with matching numbers of "#" on
// both sides and no escaping whatsoever inside.
func (l *lexer) lexRawString() {
	from := l.pos
	l.pos++
	hashes := 0
	for l.src[l.pos] == '#' {
		hashes++
		l.pos++
	}
	// Skip the opening quote.
	l.pos++
	closer := "'" + strings.Repeat("#", hashes)
	if i := strings.Index(l.src[l.pos:], closer); i != -1 {
		l.pos += i + len(closer)
		return
	}
	l.pos = len(l.src)
	l.errorf(diag.Ranging{From: from, To: len(l.src)}, true,
		"unterminated raw string")
}

func (l *lexer) endsItem(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' ||
		c == ';' || c == '|' || c == '#' ||
		l.isSeparator(c) || l.isDelimiter(c)
}

func (l *lexer) isSeparator(c byte) bool {
	return strings.IndexByte(l.cfg.Separators, c) != -1
}

func (l *lexer) isDelimiter(c byte) bool {
	return strings.IndexByte(l.cfg.Delimiters, c) != -1
}

// Redirection operators. They are lexed like any other item and then
// classified, so quoting defeats them like in other shells.
var redirects = map[string]Kind{
	"o>":        OutRedirect,
	"out>":      OutRedirect,
	"o>>":       OutAppendRedirect,
	"out>>":     OutAppendRedirect,
	"e>":        ErrRedirect,
	"err>":      ErrRedirect,
	"e>>":       ErrAppendRedirect,
	"err>>":     ErrAppendRedirect,
	"o+e>":      OutErrRedirect,
	"out+err>":  OutErrRedirect,
	"o+e>>":     OutErrAppendRedirect,
	"out+err>>": OutErrAppendRedirect,
}

func classify(text string) Kind {
	if kind, ok := redirects[text]; ok {
		return kind
	}
	return Item
}

func openerOf(closer byte) byte {
	switch closer {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}

func (l *lexer) emit(kind Kind, from, to int) {
	l.tokens = append(l.tokens, Token{
		kind, l.src[from:to],
		diag.Ranging{From: l.offset + from, To: l.offset + to}})
}

// errorf records the first error encountered. Lexing continues regardless, so
// that the parser still gets the most complete token list possible.
func (l *lexer) errorf(r diag.Ranging, partial bool, format string, args ...any) {
	if l.err != nil {
		return
	}
	l.err = &Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext("", l.src, r),
		Partial: partial,
	}
}
