package stdlib

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/pkg"
)

// Loader resolves import paths to native modules or to script files.
//
// A path naming a native module returns its exports. Any other path is a
// script file, searched for relative to @cwd and then in each search
// directory, with and without the script extension. A script is evaluated
// once per runtime; later imports share its bindings.
type Loader struct {
	search []string

	mu      sync.Mutex
	loaded  map[string]map[string]interp.Value
	loading map[string]bool
}

// NewLoader returns a loader that also searches dirs for script files.
func NewLoader(dirs ...string) *Loader {
	return &Loader{
		search:  dirs,
		loaded:  make(map[string]map[string]interp.Value),
		loading: make(map[string]bool),
	}
}

// Load implements [interp.ModuleLoader].
func (l *Loader) Load(ctx context.Context, f *interp.Fiber, path string) (map[string]interp.Value, error) {
	if m, ok := native(path); ok {
		return m, nil
	}

	file, err := l.find(f, path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()

	if m, ok := l.loaded[file]; ok {
		l.mu.Unlock()

		return maps.Clone(m), nil
	}

	if l.loading[file] {
		l.mu.Unlock()

		return nil, interp.Errorf("import cycle through %s", file)
	}

	l.loading[file] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.loading, file)
		l.mu.Unlock()
	}()

	m, err := l.eval(ctx, f, file)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.loaded[file] = m
	l.mu.Unlock()

	f.Logger().DebugContext(ctx, "module loaded",
		slog.String("module", path),
		slog.String("file", file),
		slog.Int("exports", len(m)),
	)

	return maps.Clone(m), nil
}

func (l *Loader) eval(ctx context.Context, f *interp.Fiber, file string) (map[string]interp.Value, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, interp.Errorf("import %s: %w", file, err)
	}
	defer r.Close()

	prog, err := lang.ParseReader(ctx, r, lang.WithName(file), lang.WithLogger(f.Logger()))
	if err != nil {
		return nil, interp.Errorf("import %s: %w", file, err)
	}

	return f.EvalModule(file, prog)
}

// find returns the absolute file name of the script module path.
func (l *Loader) find(f *interp.Fiber, path string) (string, error) {
	var dirs []string

	if filepath.IsAbs(path) {
		dirs = []string{""}
	} else {
		dirs = append([]string{cwd(f)}, l.search...)
	}

	names := []string{path}
	if !strings.HasSuffix(path, pkg.ScriptExt) {
		names = append(names, path+pkg.ScriptExt)
	}

	for _, dir := range dirs {
		for _, name := range names {
			file := name
			if dir != "" {
				file = filepath.Join(dir, name)
			}

			info, err := os.Stat(file)
			if err == nil && !info.IsDir() {
				return filepath.Abs(file)
			}

			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", interp.Errorf("import %s: %w", path, err)
			}
		}
	}

	return "", interp.Errorf("module not found: %s", path)
}
