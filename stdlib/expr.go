package stdlib

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/riptide/interp"
)

// programs caches compiled expressions keyed by source hash.
var programs sync.Map

func compile(src string) (*vm.Program, bool, error) {
	key := xxh3.HashString(src)

	if p, ok := programs.Load(key); ok {
		if prog, ok := p.(*vm.Program); ok {
			return prog, true, nil
		}
	}

	prog, err := expr.Compile(src)
	if err != nil {
		return nil, false, err
	}

	programs.Store(key, prog)

	return prog, false, nil
}

// exprEnv returns the variables visible to an expression: the lexical
// bindings, plus env for @environment and cwd for @cwd.
func exprEnv(f *interp.Fiber) map[string]any {
	env := make(map[string]any)

	if fr := f.Frame(); fr != nil {
		for name, v := range fr.Bindings() {
			switch v.(type) {
			case *interp.Closure, *interp.Builtin:
				continue
			}

			env[name] = interp.Native(v)
		}
	}

	if v, ok := f.Cvar("environment"); ok {
		env["env"] = interp.Native(v)
	}

	env["cwd"] = cwd(f)

	return env
}

// expr source evaluates an expression over the visible bindings, e.g.
// expr 'len(xs) > 2 && name startsWith "a"'.
func builtinExpr(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	src := join(args)
	if src == "" {
		return nil, interp.Errorf("expr: expression required")
	}

	prog, hit, err := compile(src)
	if err != nil {
		return nil, interp.Errorf("expr: %w", err)
	}

	f.Logger().TraceContext(f.Context(), "expr",
		slog.String("source_hash", strconv.FormatUint(xxh3.HashString(src), 16)),
		slog.Bool("cache_hit", hit),
	)

	out, err := expr.Run(prog, exprEnv(f))
	if err != nil {
		return nil, interp.Errorf("expr: %w", err)
	}

	return interp.ValueOf(out), nil
}
