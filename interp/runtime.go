package interp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
)

// errClosed is the cancellation cause of a closed runtime.
var errClosed = errors.New("runtime closed")

// Runtime executes programs. The global frame, the context variables and the
// process table persist across calls to [Runtime.Execute].
type Runtime struct {
	config

	sched   *scheduler
	cvars   *cvarStore
	procs   *supervisor
	globals *Frame

	input  *Stream
	output *Stream

	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	exitMu   sync.Mutex
	exiting  bool
	orphan   bool
	exitCode int
}

// New returns a runtime configured by opts.
func New(opts ...Option) *Runtime {
	c := makeConfig(opts...)

	builtins := coreBuiltins()
	maps.Copy(builtins, c.builtins)
	c.builtins = builtins

	rt := &Runtime{
		config:  c,
		sched:   newScheduler(),
		cvars:   newCvarStore(),
		procs:   newSupervisor(),
		globals: NewFrame(nil, "<main>"),
		output:  NewWriterStream(c.stdout),
	}

	if c.stdin != nil {
		rt.input = NewReaderStream(c.stdin, c.buffer)
	} else {
		rt.input = ClosedStream()
	}

	rt.ctx, rt.cancel = context.WithCancelCause(context.Background())

	env := NewTable()

	for _, kv := range c.env {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env.Set(k, String(v))
		}
	}

	rt.cvars.push("environment", env)
	rt.cvars.push("cwd", String(c.dir))

	return rt
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() log.Logger { return rt.logger }

// Globals returns the frame holding top-level bindings.
func (rt *Runtime) Globals() *Frame { return rt.globals }

// Builtins returns the names of the builtins in sorted order.
func (rt *Runtime) Builtins() []string {
	return slices.Sorted(maps.Keys(rt.builtins))
}

// Builtin returns the builtin bound to name.
func (rt *Runtime) Builtin(name string) (Value, bool) {
	v, ok := rt.builtins[name]

	return v, ok
}

// Cvar returns the innermost binding of a context variable.
func (rt *Runtime) Cvar(name string) (Value, bool) { return rt.cvars.lookup(name) }

// SetCvar replaces the innermost binding of a context variable.
func (rt *Runtime) SetCvar(name string, v Value) { rt.cvars.set(name, v) }

// Processes returns a snapshot of the process table.
func (rt *Runtime) Processes() []ProcessInfo { return rt.procs.snapshot() }

// ExecuteString parses and executes src.
func (rt *Runtime) ExecuteString(ctx context.Context, src string) (Value, error) {
	prog, err := lang.ParseString(ctx, src, lang.WithLogger(rt.logger))
	if err != nil {
		return nil, err
	}

	return rt.Execute(ctx, prog)
}

// Execute runs prog in the root fiber and returns the value of its last
// statement. An uncaught exception is returned as an [*Exception]; a call
// to exit is returned as an [*ExitError].
func (rt *Runtime) Execute(ctx context.Context, prog *lang.Program) (Value, error) {
	return rt.root(ctx, func(f *Fiber) (Value, error) {
		return f.execStatements(rt.globals, prog.Statements)
	})
}

// Invoke calls callee with args in the root fiber.
func (rt *Runtime) Invoke(ctx context.Context, callee Value, args ...Value) (Value, error) {
	return rt.root(ctx, func(f *Fiber) (Value, error) {
		return f.invoke(callee, args)
	})
}

func (rt *Runtime) root(ctx context.Context, fn func(f *Fiber) (Value, error)) (Value, error) {
	if code, ok := rt.exited(); ok {
		return nil, &ExitError{Code: code}
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	stop := context.AfterFunc(rt.ctx, func() { cancel(context.Cause(rt.ctx)) })
	defer stop()

	rt.sched.acquire()
	defer rt.sched.release()

	f := &Fiber{rt: rt, ctx: ctx, in: rt.input, out: rt.output, frame: rt.globals}

	v, err := f.run(func() (Value, error) { return fn(f) })
	if err == nil {
		return v, nil
	}

	if ret, ok := isReturn(err); ok {
		return ret.value, nil
	}

	var exit *exitSignal
	if errors.As(err, &exit) {
		return nil, &ExitError{Code: exit.code}
	}

	if code, ok := rt.exited(); ok && IsCancelled(err) {
		return nil, &ExitError{Code: code}
	}

	rt.logger.DebugContext(ctx, "uncaught exception", slog.Any("error", err))

	return nil, err
}

// run calls fn, converting a panic into a [FatalError] passed to the abort
// hook.
func (f *Fiber) run(fn func() (Value, error)) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			fatal := &FatalError{Msg: fmt.Sprint("internal error: ", r)}
			f.rt.abort(fatal)

			v, err = nil, fatal
		}
	}()

	return fn()
}

// requestExit records an exit request and returns the status the runtime
// will exit with. A zero status is replaced by a later nonzero one; a
// nonzero status is final.
func (rt *Runtime) requestExit(code int, orphan bool) int {
	rt.exitMu.Lock()
	defer rt.exitMu.Unlock()

	if !rt.exiting || rt.exitCode == 0 {
		rt.exitCode = code
	}

	rt.exiting = true
	rt.orphan = rt.orphan || orphan

	return rt.exitCode
}

func (rt *Runtime) exited() (int, bool) {
	rt.exitMu.Lock()
	defer rt.exitMu.Unlock()

	return rt.exitCode, rt.exiting
}

func (rt *Runtime) orphaned() bool {
	rt.exitMu.Lock()
	defer rt.exitMu.Unlock()

	return rt.exiting && rt.orphan
}

// Close terminates every tracked process, cancels every fiber and waits for
// spawned fibers to finish or ctx to expire.
func (rt *Runtime) Close(ctx context.Context) error {
	if !rt.orphaned() {
		rt.procs.terminate(ctx, -1, errClosed, rt.grace)
	}

	rt.cancel(errClosed)

	done := make(chan struct{})

	go func() {
		rt.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
