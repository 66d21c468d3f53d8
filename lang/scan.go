package lang

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// delimiters may never appear in a bare symbol.
const delimiters = `'"$@()[]{}|;#,:<>\`

func isNewline(r rune) bool { return r == '\n' || r == '\r' }

func isHSpace(r rune) bool { return unicode.IsSpace(r) && !isNewline(r) }

// IsSymbolChar reports whether r may appear in a bare symbol.
func IsSymbolChar(r rune) bool {
	return r != utf8.RuneError && !unicode.IsSpace(r) && !unicode.IsControl(r) &&
		!strings.ContainsRune(delimiters, r)
}

// IsNameChar reports whether r may appear in a variable name.
func IsNameChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsNumber reports whether s is a number literal: -?[0-9]+(\.[0-9]+)?
func IsNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}

	return !hasFrac || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// IsBareSymbol reports whether s can be written without quotes and read back
// as the same string.
func IsBareSymbol(s string) bool {
	if s == "" || s == "=" || IsReserved(s) || IsNumber(s) ||
		strings.Contains(s, "->") || strings.HasPrefix(s, "...") && len(s) > 3 {
		return false
	}

	for _, r := range s {
		if !IsSymbolChar(r) {
			return false
		}
	}

	return true
}

// IsName reports whether s is a valid variable name.
func IsName(s string) bool {
	if s == "" || strings.Contains(s, "->") {
		return false
	}

	for _, r := range s {
		if !IsNameChar(r) {
			return false
		}
	}

	return true
}

func describe(r rune, eof bool) string {
	switch {
	case eof:
		return "end of input"
	case isNewline(r):
		return "newline"
	default:
		return strconv.QuoteRune(r)
	}
}

// peek returns the rune at the cursor, or 0 at end of input.
func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(p.input[p.pos:])

	return r
}

// peekAt returns the rune n bytes past the cursor, or 0.
func (p *parser) peekAt(n int) rune {
	if p.pos+n >= len(p.input) {
		return 0
	}

	r, _ := utf8.DecodeRune(p.input[p.pos+n:])

	return r
}

// at reports whether the input at the cursor begins with s.
func (p *parser) at(s string) bool {
	return strings.HasPrefix(string(p.input[p.pos:min(len(p.input), p.pos+len(s))]), s)
}

// atWord reports whether the input at the cursor is the symbol w.
func (p *parser) atWord(w string) bool {
	if !p.at(w) {
		return false
	}

	next := p.peekAt(len(w))

	return next == 0 || !IsSymbolChar(next)
}

func (p *parser) advance() {
	if p.eof() {
		return
	}

	r, size := utf8.DecodeRune(p.input[p.pos:])
	p.pos += size

	switch {
	case r == '\r' && p.peek() == '\n':
		p.pos++

		fallthrough
	case isNewline(r):
		p.line++
		p.col = 1
	default:
		p.col++
	}
}

func (p *parser) advanceN(n int) {
	for range n {
		p.advance()
	}
}

func (p *parser) expect(r rune) bool {
	if !p.eof() && p.peek() == r {
		p.advance()

		return true
	}

	return false
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) position() Position {
	return Position{Offset: p.pos, Line: p.line, Column: p.col}
}

type mark struct{ pos, line, col int }

func (p *parser) save() mark { return mark{p.pos, p.line, p.col} }

func (p *parser) restore(m mark) { p.pos, p.line, p.col = m.pos, m.line, m.col }

// skipComment skips a '#' comment up to, not including, the line break.
func (p *parser) skipComment() bool {
	if p.peek() != '#' {
		return false
	}

	for !p.eof() && !isNewline(p.peek()) {
		p.advance()
	}

	return true
}

// skipContinuation skips a backslash immediately followed by a line break.
func (p *parser) skipContinuation() bool {
	if p.peek() != '\\' || !isNewline(p.peekAt(1)) {
		return false
	}

	p.advance()
	p.advance()

	return true
}

// skipInline skips horizontal whitespace, comments and line continuations.
// Inside parentheses and brackets line breaks are skipped too.
// It reports whether anything was skipped.
func (p *parser) skipInline() bool {
	start := p.pos

	for !p.eof() {
		r := p.peek()

		switch {
		case isHSpace(r), p.multiline > 0 && isNewline(r):
			p.advance()
		case p.skipComment(), p.skipContinuation():
		default:
			return p.pos > start
		}
	}

	return p.pos > start
}

// skipSpace skips all whitespace, including line breaks, and comments.
func (p *parser) skipSpace() {
	for !p.eof() {
		r := p.peek()

		switch {
		case unicode.IsSpace(r):
			p.advance()
		case p.skipComment(), p.skipContinuation():
		default:
			return
		}
	}
}

// skipSeparators skips whitespace, comments and ';'.
func (p *parser) skipSeparators() {
	for {
		p.skipSpace()

		if !p.expect(';') {
			return
		}
	}
}

// scanSymbol consumes a bare symbol, stopping before "->".
func (p *parser) scanSymbol() string {
	start := p.pos

	for !p.eof() && IsSymbolChar(p.peek()) && !p.at("->") {
		p.advance()
	}

	return string(p.input[start:p.pos])
}

// scanName consumes a variable name, stopping before "->".
func (p *parser) scanName() string {
	start := p.pos

	for !p.eof() && IsNameChar(p.peek()) && !p.at("->") {
		p.advance()
	}

	return string(p.input[start:p.pos])
}
