package interp

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
)

// testBuiltins is a small host library for exercising the evaluator.
var testBuiltins = map[string]Value{
	"println": NewBuiltin("println", func(f *Fiber, args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}

		return Nil, f.Send(String(strings.Join(parts, " ")))
	}),
	"loop": NewBuiltin("loop", func(f *Fiber, args []Value) (Value, error) {
		for {
			if _, err := f.Invoke(arg(args, 0)); err != nil {
				if IsStreamEnd(err) {
					return Nil, nil
				}

				return nil, err
			}

			if err := f.Err(); err != nil {
				return nil, err
			}
		}
	}),
	"count": NewBuiltin("count", func(f *Fiber, _ []Value) (Value, error) {
		n := 0

		for {
			if _, err := f.Recv(); err != nil {
				if IsEndOfStream(err) {
					return Number(n), nil
				}

				return nil, err
			}

			n++
		}
	}),
	"nargs": NewBuiltin("nargs", func(_ *Fiber, args []Value) (Value, error) {
		return Number(len(args)), nil
	}),
}

// syncBuffer is a bytes.Buffer safe for use by external command copiers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

type harness struct {
	rt     *Runtime
	stdout *syncBuffer
	stderr *syncBuffer
	aborts []error
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{stdout: new(syncBuffer), stderr: new(syncBuffer)}

	base := []Option{
		WithLogger(log.Discard()),
		WithStdout(h.stdout),
		WithStderr(h.stderr),
		WithEnviron([]string{"PATH=/usr/bin:/bin", "HOME=/tmp"}),
		WithDir(t.TempDir()),
		WithGracePeriod(200 * time.Millisecond),
		WithAbort(func(err error) { h.aborts = append(h.aborts, err) }),
		WithBuiltins(testBuiltins),
	}

	h.rt = New(append(base, opts...)...)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = h.rt.Close(ctx)
	})

	return h
}

func (h *harness) run(t *testing.T, src string) (Value, error) {
	t.Helper()

	prog, err := lang.ParseString(t.Context(), src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	return h.rt.Execute(t.Context(), prog)
}

func (h *harness) mustRun(t *testing.T, src string) Value {
	t.Helper()

	v, err := h.run(t, src)
	if err != nil {
		t.Fatalf("execute %q: %v", src, err)
	}

	return v
}

func (h *harness) global(t *testing.T, name string) Value {
	t.Helper()

	v, ok := h.rt.Globals().Lookup(name)
	if !ok {
		t.Fatalf("%s is not bound", name)
	}

	return v
}
