package interp

import (
	"context"
	"errors"
)

// scheduler serializes fibers. A fiber evaluates only while it holds the
// baton and gives it up at suspension points, so fibers interleave only
// where a fiber would block.
type scheduler struct {
	baton chan struct{}
}

func newScheduler() *scheduler {
	return &scheduler{baton: make(chan struct{}, 1)}
}

func (s *scheduler) acquire() { s.baton <- struct{}{} }

func (s *scheduler) release() { <-s.baton }

// block runs fn without the baton. This is the only way a fiber suspends.
// After fn returns the baton is reacquired, and a cancelled fiber raises its
// cancellation in place of fn's result.
func (f *Fiber) block(fn func(ctx context.Context) error) error {
	f.rt.sched.release()
	err := fn(f.ctx)
	f.rt.sched.acquire()

	if cause := f.interrupted(); cause != nil {
		return cause
	}

	return err
}

// interrupted returns the error a cancelled fiber raises, or nil.
func (f *Fiber) interrupted() error {
	if f.ctx.Err() == nil {
		return nil
	}

	cause := context.Cause(f.ctx)

	var exit *exitSignal
	if errors.As(cause, &exit) {
		return exit
	}

	return cancelled(cause)
}
