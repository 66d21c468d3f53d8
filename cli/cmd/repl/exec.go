package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
)

// evalCommand implements [tea.ExecCommand] to run a program with the
// terminal released, so that external commands may use it.
type evalCommand struct {
	src     string
	rt      *interp.Runtime
	ctxFunc func() context.Context
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *evalCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *evalCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *evalCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the program and prints its value. Script failures are
// reported and cleared; only a call to exit is returned, as an
// [*interp.ExitError].
func (c *evalCommand) Run() error {
	ctx, stop := signal.NotifyContext(c.ctxFunc(), os.Interrupt)
	defer stop()

	v, err := c.rt.ExecuteString(ctx, c.src)

	c.logger.TraceContext(ctx, "repl eval result",
		slog.String("kind", interp.KindOf(v).String()),
		slog.Bool("error", err != nil),
	)

	return c.print(ctx, v, err)
}

func (c *evalCommand) print(ctx context.Context, v interp.Value, err error) error {
	var (
		parseErr *lang.ParseError
		exc      *interp.Exception
		exit     *interp.ExitError
	)

	switch {
	case errors.As(err, &exit):
		return exit

	case errors.As(err, &parseErr):
		fmt.Fprintln(c.stderr, errorStyle.Render(parseErr.Error()))

	case ctx.Err() != nil && interp.IsCancelled(err):
		fmt.Fprintln(c.stderr, hintStyle.Render("interrupted"))

	case errors.As(err, &exc):
		fmt.Fprintln(c.stderr, errorStyle.Render(exc.Report()))

	case err != nil:
		fmt.Fprintln(c.stderr, errorStyle.Render("error: "+err.Error()))

	default:
		if s, ok := formatResult(v); ok {
			fmt.Fprintln(c.stdout, s)
		}
	}

	return nil
}

// formatResult renders the value of an evaluated line. Nil and successful
// exit codes are not shown.
func formatResult(v interp.Value) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false

	case interp.ExitCode:
		if v == 0 {
			return "", false
		}

		return errorStyle.Render(fmt.Sprintf("exit status %d", int(v))), true
	}

	if interp.IsNil(v) {
		return "", false
	}

	return resultStyle.Render(v.String()), true
}
