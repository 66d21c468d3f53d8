package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func preludeNames(t *testing.T, ctx context.Context) []string {
	t.Helper()

	var names []string

	for _, src := range preludesFrom(ctx) {
		names = append(names, filepath.Base(src.Name))

		if c, ok := src.Reader.(io.Closer); ok {
			_ = c.Close()
		}
	}

	return names
}

// TestWithPreludes tests that prelude files are opened in order, once each.
func TestWithPreludes(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.rip", "x = 1")
	b := writeFile(t, dir, "b.rip", "y = 2")

	link := filepath.Join(dir, "link.rip")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"empty", nil, nil},
		{"ordered", []string{b, a}, []string{"b.rip", "a.rip"}},
		{"duplicate", []string{a, a}, []string{"a.rip"}},
		{"relative and absolute", []string{"a.rip", a, b}, []string{"a.rip", "b.rip"}},
		{"symlink", []string{a, link}, []string{"a.rip"}},
		{"missing skipped", []string{filepath.Join(dir, "none.rip"), b}, []string{"b.rip"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithPreludes(t.Context(), tt.paths)

			got := preludeNames(t, ctx)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("preludes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettings(t *testing.T) {
	if s := settingsFrom(t.Context()); s.Grace != 0 || s.Lib != nil {
		t.Errorf("settingsFrom(empty) = %+v", s)
	}

	want := Settings{Grace: time.Second, MaxDepth: 5, Buffer: 3, Lib: []string{"/lib"}}

	ctx := WithSettings(t.Context(), want)
	if got := settingsFrom(ctx); got.Grace != want.Grace || got.MaxDepth != 5 || got.Buffer != 3 {
		t.Errorf("settingsFrom() = %+v, want %+v", got, want)
	}

	if n := len(want.options()); n != 3 {
		t.Errorf("options() = %d options, want 3", n)
	}

	if n := len(Settings{}.options()); n != 0 {
		t.Errorf("zero options() = %d options, want 0", n)
	}
}

func TestRunPreludes(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.rip", "greeting = hello")
	bad := writeFile(t, dir, "bad.rip", "x = [")

	ctx := WithPreludes(t.Context(), []string{a})
	rt := newRuntime(ctx, nil, interp.WithStdout(nil), interp.WithStderr(nil))

	t.Cleanup(func() { _ = rt.Close(context.WithoutCancel(ctx)) })

	if err := runPreludes(ctx, rt); err != nil {
		t.Fatal(err)
	}

	if v, ok := rt.Globals().Lookup("greeting"); !ok || v.String() != "hello" {
		t.Errorf("greeting = %v, %v", v, ok)
	}

	ctx = WithPreludes(t.Context(), []string{bad})

	var parseErr *lang.ParseError
	if err := runPreludes(ctx, rt); !errors.As(err, &parseErr) {
		t.Errorf("runPreludes(bad) error = %v, want a parse error", err)
	}
}

func TestReport(t *testing.T) {
	parseErr := func() error {
		_, err := lang.ParseString(t.Context(), "x = [")

		return err
	}()

	other := errors.New("other")

	tests := []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{"nil", nil, -1, ""},
		{"exit", &interp.ExitError{Code: 4}, 4, ""},
		{"parse", parseErr, 2, "parse error"},
		{"exception", interp.Errorf("boom"), 1, "uncaught exception: boom"},
		{"other", other, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := report(&buf, tt.err)

			var exit *interp.ExitError

			switch {
			case tt.code >= 0:
				if !errors.As(err, &exit) || exit.Code != tt.code {
					t.Errorf("report() = %v, want exit status %d", err, tt.code)
				}
			case !errors.Is(err, tt.err):
				t.Errorf("report() = %v, want %v", err, tt.err)
			}

			if !strings.Contains(buf.String(), tt.output) {
				t.Errorf("output = %q, want %q", buf.String(), tt.output)
			}
		})
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()

	script := writeFile(t, dir, "greet.rip", "println hello ...$args\nprintln $script\n")
	fail := writeFile(t, dir, "fail.rip", "throw oops\n")
	bad := writeFile(t, dir, "bad.rip", "x = [\n")
	quit := writeFile(t, dir, "quit.rip", "exit 7\nprintln unreachable\n")

	tests := []struct {
		name   string
		run    Run
		stdin  string
		stdout string
		stderr string
		code   int
	}{
		{
			name:   "script with args",
			run:    Run{Script: script, Args: []string{"a", "b"}},
			stdout: "hello a b\n" + script + "\n",
		},
		{
			name:   "code",
			run:    Run{Code: "println ...$args", Script: "x", Args: []string{"y"}},
			stdout: "x y\n",
		},
		{
			name:   "stdin program",
			run:    Run{Script: "-"},
			stdin:  "println from stdin\n",
			stdout: "from stdin\n",
		},
		{
			name:   "code reads input",
			run:    Run{Code: "loop { println got (recv) }"},
			stdin:  "one\ntwo\n",
			stdout: "got one\ngot two\n",
		},
		{
			name:   "exception",
			run:    Run{Script: fail},
			stderr: "uncaught exception",
			code:   1,
		},
		{
			name:   "syntax error",
			run:    Run{Script: bad},
			stderr: "parse error",
			code:   2,
		},
		{
			name: "exit",
			run:  Run{Script: quit},
			code: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			r := tt.run
			r.stdin = strings.NewReader(tt.stdin)
			r.stdout = &stdout
			r.stderr = &stderr

			err := r.Run(t.Context())

			var exit *interp.ExitError

			switch {
			case tt.code == 0 && err != nil:
				t.Fatalf("Run() error = %v", err)
			case tt.code != 0 && (!errors.As(err, &exit) || exit.Code != tt.code):
				t.Fatalf("Run() error = %v, want exit status %d", err, tt.code)
			}

			if tt.stdout != "" && stdout.String() != tt.stdout {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.stdout)
			}

			if !strings.Contains(stderr.String(), tt.stderr) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.stderr)
			}
		})
	}
}

func TestRunCommand_Missing(t *testing.T) {
	r := Run{Script: filepath.Join(t.TempDir(), "none.rip")}

	if err := r.Run(t.Context()); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Run() error = %v, want %v", err, ErrNoProgram)
	}
}
