package interp

import (
	"context"

	"github.com/ardnew/riptide/lang"
)

// ModuleLoader resolves import statements. Load returns the values exported
// by the module at path.
type ModuleLoader interface {
	Load(ctx context.Context, f *Fiber, path string) (map[string]Value, error)
}

// ModuleLoaderFunc adapts a function to [ModuleLoader].
type ModuleLoaderFunc func(ctx context.Context, f *Fiber, path string) (map[string]Value, error)

// Load implements [ModuleLoader].
func (fn ModuleLoaderFunc) Load(ctx context.Context, f *Fiber, path string) (map[string]Value, error) {
	return fn(ctx, f, path)
}

// EvalModule runs prog in a fresh top-level frame and returns the bindings
// it exports: those named by export when it was called, otherwise every
// top-level binding. Module code sees the builtins but not the importer's
// bindings.
func (f *Fiber) EvalModule(name string, prog *lang.Program) (map[string]Value, error) {
	fr := NewFrame(nil, name)

	saved := f.frame
	f.frame = fr

	defer func() { f.frame = saved }()

	if _, err := f.execStatements(fr, prog.Statements); err != nil {
		if _, ok := isReturn(err); !ok {
			return nil, err
		}
	}

	return fr.Exports(), nil
}
