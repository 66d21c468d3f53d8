package interp

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ardnew/riptide/lang"
)

// runPipeline evaluates pl reading from in and writing to out. A single call
// runs in f itself. Longer pipelines run one forked fiber per call, joined by
// bounded streams, and f suspends until every stage has finished.
func (f *Fiber) runPipeline(fr *Frame, pl *lang.Pipeline, in, out *Stream) (Value, error) {
	if len(pl.Calls) == 1 {
		savedIn, savedOut := f.in, f.out
		f.in, f.out = in, out

		defer func() { f.in, f.out = savedIn, savedOut }()

		return f.evalCall(fr, pl.Calls[0])
	}

	n := len(pl.Calls)

	ctx, cancel := context.WithCancelCause(f.ctx)
	defer cancel(nil)

	pipes := make([]*Stream, n-1)
	for i := range pipes {
		pipes[i] = NewStream(f.rt.buffer)
	}

	var (
		wg    sync.WaitGroup
		first error
		last  Value = Nil
	)

	for i, call := range pl.Calls {
		stageIn, stageOut := in, out

		if i > 0 {
			stageIn = pipes[i-1]
		}

		if i < n-1 {
			stageOut = pipes[i]
		}

		stage := f.fork(ctx, stageIn, stageOut)

		wg.Add(1)

		go func() {
			defer wg.Done()

			f.rt.sched.acquire()
			defer f.rt.sched.release()

			f.rt.logger.TraceContext(ctx, "stage start",
				slog.Int("fiber", f.id),
				slog.Int("stage", i),
			)

			v, err := stage.run(func() (Value, error) { return stage.runStage(fr, call) })

			if i > 0 {
				pipes[i-1].Close()
			}

			if i < n-1 {
				pipes[i].Close()
			}

			f.rt.logger.TraceContext(ctx, "stage finish",
				slog.Int("fiber", f.id),
				slog.Int("stage", i),
				slog.Bool("failed", err != nil),
			)

			if err != nil {
				if first == nil {
					first = err
					cancel(err)
				}

				return
			}

			if i == n-1 {
				last = v
			}
		}()
	}

	err := f.block(func(context.Context) error {
		wg.Wait()

		return nil
	})

	if first != nil {
		return nil, first
	}

	if err != nil {
		return nil, err
	}

	return last, nil
}

// runStage evaluates one pipeline stage. Running out of input or losing the
// downstream reader ends a stage normally, and a return ends it with the
// returned value.
func (f *Fiber) runStage(fr *Frame, call lang.Call) (Value, error) {
	v, err := f.evalCall(fr, call)
	if err == nil {
		return v, nil
	}

	var ret *returnSignal

	switch {
	case errors.As(err, &ret):
		return ret.value, nil
	case IsStreamEnd(err):
		return Nil, nil
	}

	return nil, err
}

// capture evaluates pl with its output collected. One value yields that
// value, several yield a list, and none yield the pipeline's own value.
func (f *Fiber) capture(fr *Frame, pl *lang.Pipeline) (Value, error) {
	sink := NewCaptureStream()

	v, err := f.runPipeline(fr, pl, f.in, sink)
	if err != nil {
		return nil, err
	}

	switch items := sink.Captured(); len(items) {
	case 0:
		return v, nil
	case 1:
		return items[0], nil
	default:
		return List(items), nil
	}
}
