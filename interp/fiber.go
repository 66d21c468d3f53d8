package interp

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/ardnew/riptide/log"
)

// Fiber is a cooperatively scheduled thread of evaluation. Builtins receive
// the fiber that invoked them and use it to reach the fiber's streams,
// context variables and runtime.
type Fiber struct {
	rt    *Runtime
	id    int
	ctx   context.Context
	in    *Stream
	out   *Stream
	frame *Frame
	depth int
	stack []string
}

// fork returns a fiber sharing f's identity and call chain but running under
// ctx with its own streams. Pipeline stages are forks.
func (f *Fiber) fork(ctx context.Context, in, out *Stream) *Fiber {
	return &Fiber{
		rt:    f.rt,
		id:    f.id,
		ctx:   ctx,
		in:    in,
		out:   out,
		frame: f.frame,
		depth: f.depth,
		stack: slices.Clone(f.stack),
	}
}

// ID returns the process identifier of the fiber. The root fiber is 0.
func (f *Fiber) ID() int { return f.id }

// Context returns the context that is cancelled when the fiber is killed.
func (f *Fiber) Context() context.Context { return f.ctx }

// Runtime returns the runtime the fiber belongs to.
func (f *Fiber) Runtime() *Runtime { return f.rt }

// Logger returns the runtime logger.
func (f *Fiber) Logger() log.Logger { return f.rt.logger }

// Input returns the stream the fiber receives from.
func (f *Fiber) Input() *Stream { return f.in }

// Output returns the stream the fiber sends to.
func (f *Fiber) Output() *Stream { return f.out }

// Stdout returns the writer behind the fiber's output when it is a writer
// sink, and the runtime's standard output otherwise.
func (f *Fiber) Stdout() io.Writer {
	if w, ok := f.out.Writer(); ok {
		return w
	}

	return f.rt.stdout
}

// Stderr returns the runtime's standard error.
func (f *Fiber) Stderr() io.Writer { return f.rt.stderr }

// Frame returns the innermost lexical frame of the running block.
func (f *Fiber) Frame() *Frame { return f.frame }

// Backtrace returns the names of the active invocations, innermost first.
func (f *Fiber) Backtrace() []string {
	trace := slices.Clone(f.stack)
	slices.Reverse(trace)

	return trace
}

// Err returns the cancellation the fiber would raise at its next suspension
// point, or nil. Builtins that loop without suspending poll it.
func (f *Fiber) Err() error { return f.interrupted() }

// Send writes v to the fiber's output, suspending while the output is full.
func (f *Fiber) Send(v Value) error {
	if v == nil {
		v = Nil
	}

	if err := f.out.tryPut(v); !errors.Is(err, errWouldBlock) {
		return err
	}

	return f.block(func(ctx context.Context) error { return f.out.put(ctx, v) })
}

// Recv reads the next value from the fiber's input, suspending until one is
// available. A finished input raises end-of-stream.
func (f *Fiber) Recv() (Value, error) {
	v, err := f.in.tryTake()
	if !errors.Is(err, errWouldBlock) {
		return v, err
	}

	err = f.block(func(ctx context.Context) error {
		v, err = f.in.take(ctx)

		return err
	})

	return v, err
}

// Sleep suspends the fiber for d.
func (f *Fiber) Sleep(d time.Duration) error {
	return f.block(func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	})
}

// Suspend runs fn while other fibers proceed. Builtins performing blocking
// work call it so that the work does not stall the scheduler. fn must not
// evaluate code or touch runtime state.
func (f *Fiber) Suspend(fn func(ctx context.Context) error) error {
	return f.block(fn)
}

// Cvar returns the innermost binding of the context variable name.
func (f *Fiber) Cvar(name string) (Value, bool) { return f.rt.cvars.lookup(name) }

// SetCvar replaces the innermost binding of the context variable name.
func (f *Fiber) SetCvar(name string, v Value) { f.rt.cvars.set(name, v) }

// Invoke calls callee with args in the fiber.
func (f *Fiber) Invoke(callee Value, args ...Value) (Value, error) {
	return f.invoke(callee, args)
}

// InvokeWith calls callee with args, reading from in and writing to out.
// A nil stream keeps the fiber's own.
func (f *Fiber) InvokeWith(in, out *Stream, callee Value, args ...Value) (Value, error) {
	savedIn, savedOut := f.in, f.out

	if in != nil {
		f.in = in
	}

	if out != nil {
		f.out = out
	}

	defer func() { f.in, f.out = savedIn, savedOut }()

	return f.invoke(callee, args)
}

// Lookup resolves name as a variable: lexical bindings first, then the
// builtins.
func (f *Fiber) Lookup(name string) (Value, bool) {
	if f.frame != nil {
		if v, ok := f.frame.Lookup(name); ok {
			return v, true
		}
	}

	v, ok := f.rt.builtins[name]

	return v, ok
}
