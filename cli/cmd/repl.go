package cmd

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/riptide/cli/cmd/repl"
	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/log"
)

// Repl starts an interactive session.
type Repl struct {
	Args []string `arg:"" help:"Arguments bound to the args variable." optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return ErrTerminal.Wrap(os.ErrInvalid)
	}

	rt := newRuntime(ctx, nil)

	defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

	args := make(interp.List, len(r.Args))
	for i, a := range r.Args {
		args[i] = interp.String(a)
	}

	rt.Globals().Declare("args", args)

	if err := runPreludes(ctx, rt); err != nil {
		return report(os.Stderr, err)
	}

	cacheDir := ""
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, rt, cacheDir, log.Default())
}
