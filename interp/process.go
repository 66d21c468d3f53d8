package interp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ProcessKind distinguishes spawned fibers from operating system processes.
type ProcessKind int

const (
	ProcessFiber ProcessKind = iota
	ProcessExternal
)

func (k ProcessKind) String() string {
	if k == ProcessExternal {
		return "external"
	}

	return "fiber"
}

// ProcessStatus is the state of a tracked process.
type ProcessStatus int

const (
	StatusRunning ProcessStatus = iota
	StatusExited
	StatusSignaled
)

func (s ProcessStatus) String() string {
	switch s {
	case StatusExited:
		return "exited"
	case StatusSignaled:
		return "signaled"
	default:
		return "running"
	}
}

// ProcessInfo is a snapshot of a process table entry.
type ProcessInfo struct {
	ID     int
	Kind   ProcessKind
	Status ProcessStatus
	Code   int
	Signal unix.Signal
	Parent int
	Name   string
	PID    int
}

// Table returns the snapshot as a table value.
func (p ProcessInfo) Table() *Table {
	t := TableOf(map[string]Value{
		"id":     Number(p.ID),
		"kind":   String(p.Kind.String()),
		"status": String(p.Status.String()),
		"code":   Number(p.Code),
		"parent": Number(p.Parent),
		"name":   String(p.Name),
	})

	if p.PID != 0 {
		t.Set("pid", Number(p.PID))
	}

	if p.Signal != 0 {
		t.Set("signal", String(unix.SignalName(p.Signal)))
	}

	return t
}

// Process is an entry of the process table.
type Process struct {
	mu   sync.Mutex
	info ProcessInfo

	done  chan struct{}
	value Value
	err   error

	// cancel is set before the entry is registered and never changes.
	cancel context.CancelCauseFunc
}

// Info returns a snapshot of the entry.
func (p *Process) Info() ProcessInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.info
}

func (p *Process) finish(status ProcessStatus, code int, sig unix.Signal, v Value, err error) {
	p.mu.Lock()
	p.info.Status = status
	p.info.Code = code
	p.info.Signal = sig
	p.value = v
	p.err = err
	p.mu.Unlock()

	close(p.done)
}

func (p *Process) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// killed is the cancellation cause of a fiber stopped by kill.
type killed struct{ signal unix.Signal }

func (k *killed) Error() string { return "killed by " + unix.SignalName(k.signal) }

// supervisor owns the process table.
type supervisor struct {
	mu    sync.Mutex
	next  int
	procs map[int]*Process
}

func newSupervisor() *supervisor {
	return &supervisor{procs: make(map[int]*Process)}
}

func (s *supervisor) register(kind ProcessKind, name string, parent int, cancel context.CancelCauseFunc) *Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++

	p := &Process{
		info:   ProcessInfo{ID: s.next, Kind: kind, Name: name, Parent: parent},
		done:   make(chan struct{}),
		cancel: cancel,
	}

	s.procs[p.info.ID] = p

	return p
}

func (s *supervisor) lookup(id int) (*Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.procs[id]

	return p, ok
}

func (s *supervisor) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.procs, id)
}

// list returns the entries ordered by id.
func (s *supervisor) list() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(s.procs))
	out := make([]*Process, len(ids))

	for i, id := range ids {
		out[i] = s.procs[id]
	}

	return out
}

func (s *supervisor) snapshot() []ProcessInfo {
	procs := s.list()
	out := make([]ProcessInfo, len(procs))

	for i, p := range procs {
		out[i] = p.Info()
	}

	return out
}

// terminate stops every running process except the one with id self.
// Fibers are cancelled with cause and operating system processes receive
// SIGTERM. Processes still running after grace receive SIGKILL.
func (s *supervisor) terminate(ctx context.Context, self int, cause error, grace time.Duration) {
	var waiting []*Process

	for _, p := range s.list() {
		if p.finished() || p.info.ID == self {
			continue
		}

		switch info := p.Info(); info.Kind {
		case ProcessFiber:
			if p.cancel != nil {
				p.cancel(cause)
			}

		case ProcessExternal:
			if info.PID > 0 {
				_ = unix.Kill(-info.PID, unix.SIGTERM)
			}
		}

		waiting = append(waiting, p)
	}

	if len(waiting) == 0 {
		return
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

wait:
	for _, p := range waiting {
		select {
		case <-p.done:
		case <-timer.C:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	for _, p := range waiting {
		if info := p.Info(); !p.finished() && info.Kind == ProcessExternal && info.PID > 0 {
			_ = unix.Kill(-info.PID, unix.SIGKILL)
		}
	}
}

// Spawn starts callee with args in a new fiber and returns its process
// entry. The new fiber runs once the calling fiber next suspends.
func (f *Fiber) Spawn(callee Value, args []Value) (*Process, error) {
	var name string

	switch c := callee.(type) {
	case *Closure:
		name = c.displayName()
	case *Builtin:
		name = c.Name
	default:
		return nil, Errorf("cannot spawn a %s value", KindOf(callee))
	}

	rt := f.rt
	ctx, cancel := context.WithCancelCause(rt.ctx)
	p := rt.procs.register(ProcessFiber, name, f.id, cancel)

	child := &Fiber{
		rt:    rt,
		id:    p.info.ID,
		ctx:   ctx,
		in:    ClosedStream(),
		out:   rt.output,
		frame: f.frame,
	}

	rt.logger.TraceContext(f.ctx, "fiber spawn",
		slog.Int("fiber", child.id),
		slog.Int("parent", f.id),
		slog.String("name", name),
	)

	rt.wg.Add(1)

	go func() {
		defer rt.wg.Done()
		defer cancel(nil)

		rt.sched.acquire()
		defer rt.sched.release()

		v, err := child.run(func() (Value, error) { return child.invoke(callee, args) })

		var (
			exit *exitSignal
			kill *killed
		)

		switch {
		case err == nil:
			p.finish(StatusExited, 0, 0, v, nil)

		case errors.As(err, &exit):
			p.finish(StatusExited, exit.code, 0, Nil, err)

		case IsCancelled(err) && errors.As(err, &kill):
			p.finish(StatusSignaled, 128+int(kill.signal), kill.signal, Nil, err)

		case IsStreamEnd(err):
			// A spawned fiber reading past its closed input ends normally.
			p.finish(StatusExited, 0, 0, Nil, nil)

		default:
			if !IsCancelled(err) {
				fmt.Fprintln(rt.stderr, Wrap(err).Report())
			}

			rt.logger.DebugContext(ctx, "fiber failed",
				slog.Int("fiber", child.id),
				slog.Any("error", err),
			)

			p.finish(StatusExited, 1, 0, Nil, err)
		}

		rt.logger.TraceContext(ctx, "fiber exit", slog.Int("fiber", child.id))
	}()

	return p, nil
}

// Wait suspends until the process id finishes, removes it from the process
// table and returns its result: a fiber's value, or the exit code of an
// operating system process or failed fiber.
func (f *Fiber) Wait(id int) (Value, error) {
	p, ok := f.rt.procs.lookup(id)
	if !ok {
		return nil, Errorf("no such process: %d", id)
	}

	if p.info.ID == f.id {
		return nil, Errorf("process %d cannot wait for itself", id)
	}

	if !p.finished() {
		err := f.block(func(ctx context.Context) error {
			select {
			case <-p.done:
				return nil
			case <-ctx.Done():
				return context.Cause(ctx)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	f.rt.procs.remove(id)

	info := p.Info()

	if info.Kind == ProcessFiber && info.Status == StatusExited && info.Code == 0 {
		return p.value, nil
	}

	return ExitCode(info.Code), nil
}

// Kill delivers sig to the process id. Fibers are cancelled at their next
// suspension point; operating system processes receive the signal.
func (f *Fiber) Kill(id int, sig unix.Signal) error {
	p, ok := f.rt.procs.lookup(id)
	if !ok {
		return Errorf("no such process: %d", id)
	}

	if p.finished() {
		return nil
	}

	info := p.Info()

	f.rt.logger.TraceContext(f.ctx, "kill",
		slog.Int("process", id),
		slog.String("signal", unix.SignalName(sig)),
	)

	if info.Kind == ProcessFiber {
		p.cancel(&killed{signal: sig})

		return nil
	}

	if err := unix.Kill(-info.PID, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return Errorf("kill %d: %w", id, err)
	}

	return nil
}

// Exit requests that the runtime exit with code. Unless orphan is set every
// other process is terminated first. The returned error unwinds the calling
// fiber; every other fiber is cancelled.
func (f *Fiber) Exit(code int, orphan bool) error {
	code = f.rt.requestExit(code, orphan)
	signal := &exitSignal{code: code}

	if !orphan {
		f.shutdown(signal)
	}

	f.rt.cancel(signal)

	return signal
}

// shutdown terminates every process but the calling fiber, giving up the
// baton while they finish.
func (f *Fiber) shutdown(cause error) {
	rt := f.rt

	rt.logger.DebugContext(f.ctx, "shutdown",
		slog.Int("fiber", f.id),
		slog.Duration("grace", rt.grace),
	)

	rt.sched.release()
	rt.procs.terminate(context.WithoutCancel(f.ctx), f.id, cause, rt.grace)
	rt.sched.acquire()
}

// parseSignal accepts a signal number or a name with or without the SIG
// prefix.
func parseSignal(v Value) (unix.Signal, error) {
	if n, ok := ToInt(v); ok {
		if n <= 0 {
			return 0, Errorf("invalid signal: %s", v)
		}

		return unix.Signal(n), nil
	}

	name := v.String()
	if sig := unix.SignalNum(name); sig != 0 {
		return sig, nil
	}

	if sig := unix.SignalNum("SIG" + name); sig != 0 {
		return sig, nil
	}

	return 0, Errorf("unknown signal: %s", name)
}
