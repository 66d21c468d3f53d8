package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
	"github.com/ardnew/riptide/stdlib"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Settings configures the interpreter built by the commands.
type Settings struct {
	Grace    time.Duration
	MaxDepth int
	Buffer   int
	Lib      []string
}

type settingsKey struct{}

// WithSettings returns a new context.Context carrying s.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

func settingsFrom(ctx context.Context) Settings {
	s, _ := ctx.Value(settingsKey{}).(Settings)

	return s
}

// options returns the interpreter options selected by s. Zero fields keep
// the interpreter defaults.
func (s Settings) options() []interp.Option {
	var opts []interp.Option

	if s.Grace > 0 {
		opts = append(opts, interp.WithGracePeriod(s.Grace))
	}

	if s.MaxDepth > 0 {
		opts = append(opts, interp.WithMaxDepth(s.MaxDepth))
	}

	if s.Buffer > 0 {
		opts = append(opts, interp.WithStreamBuffer(s.Buffer))
	}

	return opts
}

// newRuntime returns an interpreter with the standard library installed,
// configured by the settings in ctx. A nil stdin leaves the root input
// empty.
func newRuntime(ctx context.Context, stdin io.Reader, opts ...interp.Option) *interp.Runtime {
	s := settingsFrom(ctx)

	base := []interp.Option{
		interp.WithLogger(log.Default()),
		interp.WithStdin(stdin),
		interp.WithBuiltins(stdlib.Builtins()),
		interp.WithModuleLoader(stdlib.NewLoader(s.Lib...)),
	}

	base = append(base, s.options()...)

	return interp.New(append(base, opts...)...)
}

// Source is a named program text.
type Source struct {
	Name string
	io.Reader
}

type preludesKey struct{}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks and relative paths.
type fileKey struct {
	dev uint64
	ino uint64
}

// WithPreludes returns a new context.Context containing the scripts at paths,
// which are evaluated in order before the program. A file named more than
// once, through any path, is evaluated once.
func WithPreludes(ctx context.Context, paths []string) context.Context {
	return context.WithValue(ctx, preludesKey{}, openPreludes(ctx, paths))
}

func preludesFrom(ctx context.Context) []Source {
	s, _ := ctx.Value(preludesKey{}).([]Source)

	return s
}

func openPreludes(ctx context.Context, paths []string) []Source {
	var (
		out  []Source
		seen = make(map[fileKey]struct{})
	)

	for _, path := range paths {
		file, err := openUniqueFile(path, seen)
		if err != nil {
			log.WarnContext(ctx, "skipping prelude",
				slog.String("path", path),
				slog.Any("error", err),
			)

			continue
		}

		if file != nil {
			out = append(out, Source{Name: path, Reader: file})
		}
	}

	return out
}

// openUniqueFile opens the file at path unless it is already in seen. It
// returns nil and no error for a duplicate.
func openUniqueFile(path string, seen map[fileKey]struct{}) (*os.File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return nil, nil
		}

		seen[key] = struct{}{}
	}

	return os.Open(resolved)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// runPreludes evaluates the prelude scripts in rt.
func runPreludes(ctx context.Context, rt *interp.Runtime) error {
	for _, src := range preludesFrom(ctx) {
		prog, err := lang.ParseReader(ctx, src, lang.WithName(src.Name), lang.WithLogger(log.Default()))

		if c, ok := src.Reader.(io.Closer); ok {
			_ = c.Close()
		}

		if err != nil {
			return err
		}

		log.DebugContext(ctx, "running prelude", slog.String("path", src.Name))

		if _, err := rt.Execute(ctx, prog); err != nil {
			return err
		}
	}

	return nil
}

// report prints script failures the way a shell does and converts them to
// exit statuses: 2 for syntax errors, 1 for uncaught exceptions. Other
// errors are returned unchanged.
func report(w io.Writer, err error) error {
	var (
		parseErr *lang.ParseError
		exc      *interp.Exception
		exit     *interp.ExitError
	)

	switch {
	case err == nil:
		return nil

	case errors.As(err, &exit):
		return exit

	case errors.As(err, &parseErr):
		fmt.Fprintln(w, parseErr.Error())

		return &interp.ExitError{Code: 2}

	case errors.As(err, &exc):
		fmt.Fprintln(w, exc.Report())

		return &interp.ExitError{Code: 1}
	}

	return err
}
