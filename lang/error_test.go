package lang

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	err := ErrReadInput.Wrap(io.EOF).With(slog.String("source", "x.rip"))

	if got := err.Error(); got != "failed to read input: EOF" {
		t.Errorf("Error() = %q", got)
	}

	if !errors.Is(err, ErrReadInput) {
		t.Error("derived error does not match its sentinel")
	}

	if errors.Is(err, ErrMarshal) {
		t.Error("derived error matches an unrelated sentinel")
	}

	if !errors.Is(err, io.EOF) {
		t.Error("wrapped error is not reachable")
	}

	if WrapError(err) != err {
		t.Error("WrapError rewrapped an *Error")
	}

	if got := WrapError(io.EOF).Error(); got != "EOF" {
		t.Errorf("WrapError(io.EOF) = %q", got)
	}

	group := err.LogValue().Group()
	if len(group) != 3 || group[2].Key != "source" {
		t.Errorf("LogValue() = %v", group)
	}
}

func TestParseError(t *testing.T) {
	_, err := ParseString(t.Context(), "let let = 1")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err is %T", err)
	}

	msg := pe.Error()
	if !strings.HasPrefix(msg, "parse error at line 1, column 5: expected variable name") {
		t.Errorf("Error() = %q", msg)
	}

	want := "  1 | let let = 1\n" + strings.Repeat(" ", 10) + "^"
	if got := pe.Snippet(); got != want {
		t.Errorf("Snippet() =\n%s\nwant\n%s", got, want)
	}

	if !strings.HasSuffix(msg, want) {
		t.Error("Error() does not end with the snippet")
	}

	attrs := pe.LogValue().Group()
	if len(attrs) == 0 || attrs[0].Value.String() != "parse error" {
		t.Errorf("LogValue() = %v", attrs)
	}
}

func TestParseError_SnippetOutOfRange(t *testing.T) {
	pe := &ParseError{Pos: Position{Line: 9, Column: 1}, Expected: "x", Source: "a\nb"}
	if got := pe.Snippet(); got != "" {
		t.Errorf("Snippet() = %q, want empty", got)
	}

	if got := pe.Error(); got != "parse error at line 9, column 1: expected x" {
		t.Errorf("Error() = %q", got)
	}
}
