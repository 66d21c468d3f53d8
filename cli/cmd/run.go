package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
)

// interruptExitCode is the status of a script stopped by a signal.
const interruptExitCode = 130

// Run executes a script file, a program given on the command line, or the
// program read from stdin.
type Run struct {
	Code   string   `help:"Program text to run instead of a script file." placeholder:"PROGRAM" short:"c"`
	Script string   `arg:"" help:"Script file or '-' for stdin."        optional:""`
	Args   []string `arg:"" help:"Arguments bound to the args variable." optional:"" passthrough:""`

	stdin  io.Reader `kong:"-"`
	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	name, src, stdin, err := r.source()
	if err != nil {
		return err
	}

	if file, ok := src.(*os.File); ok && file != os.Stdin {
		defer file.Close()
	}

	prog, err := lang.ParseReader(ctx, src, lang.WithName(name), lang.WithLogger(log.Default()))
	if err != nil {
		return report(r.errWriter(), err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(ctx, stdin, interp.WithStdout(r.outWriter()), interp.WithStderr(r.errWriter()))

	defer func() {
		grace := settingsFrom(ctx).Grace
		if grace <= 0 {
			grace = interp.DefaultGracePeriod
		}

		closeCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 2*grace)
		defer done()

		if cerr := rt.Close(closeCtx); cerr != nil {
			log.DebugContext(ctx, "runtime close", slog.Any("error", cerr))
		}
	}()

	args := make(interp.List, len(r.Args))
	for i, a := range r.Args {
		args[i] = interp.String(a)
	}

	rt.Globals().Declare("args", args)
	rt.Globals().Declare("script", interp.String(name))

	if err := runPreludes(ctx, rt); err != nil {
		return report(r.errWriter(), err)
	}

	log.DebugContext(ctx, "running program",
		slog.String("name", name),
		slog.Int("args", len(r.Args)),
	)

	_, err = rt.Execute(ctx, prog)

	if err != nil && ctx.Err() != nil && interp.IsCancelled(err) {
		return &interp.ExitError{Code: interruptExitCode}
	}

	return report(r.errWriter(), err)
}

// source returns the program name, its text and the reader behind the root
// input. A program read from stdin leaves the root input empty.
func (r *Run) source() (name string, src io.Reader, stdin io.Reader, err error) {
	switch {
	case r.Code != "":
		if r.Script != "" {
			r.Args = append([]string{r.Script}, r.Args...)
		}

		return "<command line>", strings.NewReader(r.Code), r.inReader(), nil

	case r.Script == "" || r.Script == "-":
		return "<stdin>", r.inReader(), nil, nil
	}

	file, err := os.Open(r.Script)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, nil, ErrNoProgram.
				With(slog.String("file", r.Script)).
				Wrap(err)
		}

		return "", nil, nil, ErrReadSource.
			With(slog.String("file", r.Script)).
			Wrap(err)
	}

	return r.Script, file, r.inReader(), nil
}

func (r *Run) inReader() io.Reader {
	if r.stdin != nil {
		return r.stdin
	}

	return os.Stdin
}

func (r *Run) outWriter() io.Writer {
	if r.stdout != nil {
		return r.stdout
	}

	return os.Stdout
}

func (r *Run) errWriter() io.Writer {
	if r.stderr != nil {
		return r.stderr
	}

	return os.Stderr
}
