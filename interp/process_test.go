package interp

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func requireShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestSpawn_Wait(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "let p = (spawn { <a, b> return \"${a}-${b}\" } x y)\nlet v = (wait $p)")

	if got := h.global(t, "v"); !Equal(got, String("x-y")) {
		t.Errorf("wait = %v, want x-y", got)
	}

	if procs := h.rt.Processes(); len(procs) != 0 {
		t.Errorf("process table not reaped: %v", procs)
	}
}

func TestSpawn_UncaughtException(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "let p = (spawn { throw boom })\nlet code = (wait $p)")

	if got := h.global(t, "code"); !Equal(got, ExitCode(1)) {
		t.Errorf("wait = %v, want exit code 1", got)
	}

	if got := h.stderr.String(); !strings.Contains(got, "uncaught exception: boom") {
		t.Errorf("stderr = %q", got)
	}
}

func TestSpawn_ProcessTable(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "let p = (spawn { sleep 10 })\nlet procs = (processes)")

	procs, ok := h.global(t, "procs").(List)
	if !ok || len(procs) != 1 {
		t.Fatalf("processes = %v", h.global(t, "procs"))
	}

	entry := procs[0].(*Table)

	for key, want := range map[string]Value{
		"id":     h.global(t, "p"),
		"kind":   String("fiber"),
		"status": String("running"),
		"parent": Number(0),
	} {
		if got := entry.Get(key); !Equal(got, want) {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}

func TestKill_Fiber(t *testing.T) {
	h := newHarness(t)

	start := time.Now()

	h.mustRun(t, "let p = (spawn { sleep 10; println unreachable })\nsleep 0.01\nkill $p\nlet code = (wait $p)")

	if time.Since(start) > 5*time.Second {
		t.Errorf("kill did not interrupt sleep")
	}

	if got := h.global(t, "code"); !Equal(got, ExitCode(128+int(unix.SIGTERM))) {
		t.Errorf("wait = %v", got)
	}

	if strings.Contains(h.stdout.String(), "unreachable") {
		t.Errorf("killed fiber kept running")
	}
}

func TestKill_NotCatchable(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, `let p = (spawn { try { sleep 10 } { <e> println caught } })
kill $p INT
let code = (wait $p)`)

	if got := h.global(t, "code"); !Equal(got, ExitCode(128+int(unix.SIGINT))) {
		t.Errorf("wait = %v", got)
	}

	if h.stdout.String() != "" {
		t.Errorf("cancellation was caught: %q", h.stdout.String())
	}
}

func TestExit(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "println before\nlet p = (spawn { sleep 10 })\ntry { exit 3 } { <e> println caught }\nprintln after")

	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 3 {
		t.Fatalf("error = %v, want exit status 3", err)
	}

	if got := h.stdout.String(); got != "before\n" {
		t.Errorf("output = %q", got)
	}

	for _, p := range h.rt.Processes() {
		if p.Status == StatusRunning {
			t.Errorf("process %d still running after exit", p.ID)
		}
	}

	if _, err := h.run(t, "println again"); !errors.As(err, &exit) {
		t.Errorf("execute after exit = %v", err)
	}
}

func TestExit_FromSpawnedFiber(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "spawn { exit 4 }\nsleep 10\nprintln after")

	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 4 {
		t.Fatalf("error = %v, want exit status 4", err)
	}
}

func TestRequestExit(t *testing.T) {
	h := newHarness(t)

	for _, tt := range []struct{ code, want int }{{0, 0}, {2, 2}, {5, 2}, {0, 2}} {
		if got := h.rt.requestExit(tt.code, false); got != tt.want {
			t.Errorf("requestExit(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestExec(t *testing.T) {
	requireShell(t)

	var got []string

	h := newHarness(t, WithExec(func(path string, argv, _ []string) error {
		got = append([]string{path}, argv...)

		return nil
	}))

	h.mustRun(t, "exec sh -c 'exit 0'")

	if len(got) != 4 || !strings.HasSuffix(got[0], "/sh") || got[1] != "sh" || got[3] != "exit 0" {
		t.Errorf("exec argv = %q", got)
	}
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		in   Value
		want unix.Signal
		ok   bool
	}{
		{in: Number(9), want: unix.SIGKILL, ok: true},
		{in: String("TERM"), want: unix.SIGTERM, ok: true},
		{in: String("SIGINT"), want: unix.SIGINT, ok: true},
		{in: String("HUP"), want: unix.SIGHUP, ok: true},
		{in: String("bogus")},
		{in: Number(0)},
	}

	for _, tt := range tests {
		got, err := parseSignal(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseSignal(%v) = %v, %v", tt.in, got, err)
		}
	}
}

func TestCommand_ExitCode(t *testing.T) {
	requireShell(t)

	h := newHarness(t)

	h.mustRun(t, "let ok = (sh -c 'exit 0')\nlet bad = (sh -c 'exit 3')\nlet sig = (sh -c 'kill -9 $$')")

	for name, want := range map[string]Value{
		"ok":  Number(0),
		"bad": Number(3),
		"sig": Number(128 + 9),
	} {
		if got := h.global(t, name); !Equal(got, want) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}

	if procs := h.rt.Processes(); len(procs) != 0 {
		t.Errorf("process table not reaped: %v", procs)
	}
}

func TestCommand_Streams(t *testing.T) {
	requireShell(t)

	h := newHarness(t)

	h.mustRun(t, `sh -c 'echo direct'
let lines = $(sh -c 'echo one; echo two')
send a b c | sh -c 'wc -l | tr -d " "'
let n = (sh -c 'printf "x\ny\nz\n"' | count)
let @cwd = / { sh -c pwd }
@environment->GREETING = hi
sh -c 'echo $GREETING'`)

	if got, want := h.stdout.String(), "direct\n3\n/\nhi\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if got, want := h.global(t, "lines"), (List{String("one"), String("two")}); !Equal(got, want) {
		t.Errorf("lines = %v, want %v", got, want)
	}

	if got := h.global(t, "n"); !Equal(got, Number(3)) {
		t.Errorf("n = %v, want 3", got)
	}
}

func TestCommand_PipelineFailure(t *testing.T) {
	requireShell(t)

	h := newHarness(t)

	start := time.Now()

	_, err := h.run(t, "sh -c 'sleep 10' | { throw stop }")
	if err == nil || !strings.Contains(err.Error(), "stop") {
		t.Fatalf("error = %v", err)
	}

	if time.Since(start) > 5*time.Second {
		t.Errorf("failing stage did not cancel the command")
	}
}

func TestLookPath(t *testing.T) {
	requireShell(t)

	h := newHarness(t, WithEnviron([]string{"PATH="}))

	if _, err := h.run(t, "sh -c true"); err == nil {
		t.Errorf("command found with an empty PATH")
	}

	h.mustRun(t, "@environment->PATH = /usr/bin:/bin\nsh -c true")
}

// runWithin executes src and fails the test if it does not finish within d.
func runWithin(t *testing.T, h *harness, src string, d time.Duration) (Value, error) {
	t.Helper()

	type result struct {
		v   Value
		err error
	}

	done := make(chan result, 1)

	go func() {
		v, err := h.run(t, src)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-time.After(d):
		t.Fatalf("execute %q did not finish within %s", src, d)

		return nil, nil
	}
}

func TestCommand_ClosedReader(t *testing.T) {
	for _, name := range []string{"yes", "head"} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available", name)
		}
	}

	h := newHarness(t)

	if _, err := runWithin(t, h, "yes | head -n 1", 5*time.Second); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if got := h.stdout.String(); got != "y\n" {
		t.Errorf("output = %q, want %q", got, "y\n")
	}

	if procs := h.rt.Processes(); len(procs) != 0 {
		t.Errorf("process table not reaped: %v", procs)
	}
}

func TestCommand_LongLine(t *testing.T) {
	if _, err := exec.LookPath("head"); err != nil {
		t.Skip("head not available")
	}

	const size = 2000000

	h := newHarness(t)

	if _, err := runWithin(t, h, "let x = $(head -c 2000000 /dev/zero)", 10*time.Second); err != nil {
		t.Fatalf("execute: %v", err)
	}

	s, ok := h.global(t, "x").(String)
	if !ok || len(s) != size {
		t.Errorf("captured %d bytes, want %d", len(s), size)
	}
}

func TestKill_CommandIgnoringTerm(t *testing.T) {
	requireShell(t)

	h := newHarness(t, WithGracePeriod(100*time.Millisecond))

	start := time.Now()

	_, err := runWithin(t, h, `let p = (spawn { sh -c 'trap "" TERM; sleep 4' })
sleep 0.2
kill $p
let code = (wait $p)`, 10*time.Second)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("killed command ran for %s, want it stopped after the grace period", elapsed)
	}

	if got := h.global(t, "code"); !Equal(got, ExitCode(128+int(unix.SIGTERM))) {
		t.Errorf("wait = %v", got)
	}
}

func TestSpawn_ReadPastInput(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "let p = (spawn { recv })\nlet code = (wait $p)")

	if got := h.global(t, "code"); !Equal(got, Nil) {
		t.Errorf("wait = %v, want nil", got)
	}

	if procs := h.rt.Processes(); len(procs) != 0 {
		t.Errorf("process table not reaped: %v", procs)
	}

	if got := h.stderr.String(); got != "" {
		t.Errorf("stderr = %q, want nothing", got)
	}
}

func TestSupervisor_RegisterCancel(t *testing.T) {
	s := newSupervisor()

	ctx, cancel := context.WithCancelCause(t.Context())
	p := s.register(ProcessFiber, "worker", 0, cancel)

	got, ok := s.lookup(p.info.ID)
	if !ok || got.cancel == nil {
		t.Fatalf("registered fiber is visible without its cancel func")
	}

	s.terminate(t.Context(), -1, errClosed, 0)

	if !errors.Is(context.Cause(ctx), errClosed) {
		t.Errorf("terminate cause = %v, want %v", context.Cause(ctx), errClosed)
	}
}
