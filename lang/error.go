package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrParse     = NewError("parse error")
	ErrReadInput = NewError("failed to read input")
	ErrMarshal   = NewError("failed to marshal syntax tree")
	ErrFormat    = NewError("failed to format syntax tree")
)

// Error is an error carrying structured logging attributes.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns an Error with message msg.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError returns err as an *Error, wrapping it if necessary.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

// Error renders "msg: wrapped", omitting whichever part is empty.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is matches any Error sharing e's message, so that a sentinel matches copies
// derived from it with [Error.With] and [Error.Wrap].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: merged}
}

// ParseError reports the first point at which source failed to parse.
type ParseError struct {
	Pos      Position
	Expected string
	Found    string
	Source   string
}

// Error renders the location, the expectation and a caret under the
// offending column.
func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString("parse error at line ")
	b.WriteString(strconv.Itoa(e.Pos.Line))
	b.WriteString(", column ")
	b.WriteString(strconv.Itoa(e.Pos.Column))
	b.WriteString(": expected ")
	b.WriteString(e.Expected)

	if e.Found != "" {
		b.WriteString(", found ")
		b.WriteString(e.Found)
	}

	if snippet := e.Snippet(); snippet != "" {
		b.WriteByte('\n')
		b.WriteString(snippet)
	}

	return b.String()
}

// Snippet returns the offending source line with a caret marking the column,
// or the empty string when the source is unavailable.
func (e *ParseError) Snippet() string {
	if e.Source == "" || e.Pos.Line < 1 {
		return ""
	}

	lines := splitLines(e.Source)
	if e.Pos.Line > len(lines) {
		return ""
	}

	num := strconv.Itoa(e.Pos.Line)

	var b strings.Builder

	b.WriteString("  " + num + " | " + lines[e.Pos.Line-1] + "\n")
	b.WriteString(strings.Repeat(" ", len(num)+5))

	if e.Pos.Column > 1 {
		b.WriteString(strings.Repeat(" ", e.Pos.Column-1))
	}

	b.WriteString("^")

	return b.String()
}

// Unwrap allows errors.Is(err, ErrParse).
func (e *ParseError) Unwrap() error { return ErrParse }

// LogValue implements [slog.LogValuer].
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrParse.msg),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
		slog.String("expected", e.Expected),
		slog.String("found", e.Found),
	)
}

// splitLines splits s on LF, CR and CRLF.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.Split(s, "\n")
}
