package interp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// runCommand runs the executable at path as an operating system process and
// suspends the fiber until it exits. The result is the exit status; a
// process killed by a signal yields 128 plus the signal number.
func (f *Fiber) runCommand(name, path string, args []Value) (Value, error) {
	rt := f.rt

	argv := make([]string, len(args))
	for i, a := range args {
		argv[i] = a.String()
	}

	cmd := exec.Command(path, argv...)
	cmd.Args[0] = name
	cmd.Dir = f.cwd()
	cmd.Env = f.environ()
	cmd.Stderr = rt.stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var pumps sync.WaitGroup

	pumpCtx, stopPumps := context.WithCancel(context.WithoutCancel(f.ctx))
	defer stopPumps()

	stdout, err := f.connectOutput(cmd)
	if err != nil {
		return nil, Errorf("%s: %w", name, err)
	}

	stdin, err := f.connectInput(cmd)
	if err != nil {
		return nil, Errorf("%s: %w", name, err)
	}

	p := rt.procs.register(ProcessExternal, name, f.id, nil)
	defer rt.procs.remove(p.info.ID)

	if err := cmd.Start(); err != nil {
		p.finish(StatusExited, 127, 0, Nil, err)

		return nil, Errorf("%s: %w", name, err)
	}

	p.mu.Lock()
	p.info.PID = cmd.Process.Pid
	p.mu.Unlock()

	rt.logger.TraceContext(f.ctx, "process start",
		slog.String("name", name),
		slog.String("path", path),
		slog.Int("pid", cmd.Process.Pid),
	)

	if stdout != nil {
		pumps.Add(1)

		go f.pumpOutput(pumpCtx, stdout, &pumps)
	}

	if stdin != nil {
		go f.pumpInput(pumpCtx, stdin)
	}

	waitErr := make(chan error, 1)

	go func() {
		pumps.Wait()
		waitErr <- cmd.Wait()
	}()

	var exitErr error

	err = f.block(func(ctx context.Context) error {
		select {
		case exitErr = <-waitErr:
		case <-ctx.Done():
			if rt.orphaned() {
				return nil
			}

			_ = unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
			stopPumps()

			grace := time.NewTimer(rt.grace)
			defer grace.Stop()

			select {
			case exitErr = <-waitErr:
			case <-grace.C:
				rt.logger.DebugContext(f.ctx, "process ignored SIGTERM",
					slog.String("name", name),
					slog.Int("pid", cmd.Process.Pid),
				)

				_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
				exitErr = <-waitErr
			}
		}

		return nil
	})

	stopPumps()

	code, sig := exitStatus(cmd.ProcessState)

	status := StatusExited
	if sig != 0 {
		status = StatusSignaled
	}

	p.finish(status, code, sig, Number(code), exitErr)

	rt.logger.TraceContext(f.ctx, "process exit",
		slog.String("name", name),
		slog.Int("pid", cmd.Process.Pid),
		slog.Int("code", code),
	)

	if err != nil {
		return nil, err
	}

	var ee *exec.ExitError
	if exitErr != nil && !errors.As(exitErr, &ee) {
		return nil, Errorf("%s: %w", name, exitErr)
	}

	return Number(code), nil
}

// connectOutput attaches the process output to the fiber's output: directly
// when it is a writer sink, otherwise through a pipe whose lines are sent as
// values.
func (f *Fiber) connectOutput(cmd *exec.Cmd) (io.ReadCloser, error) {
	if w, ok := f.out.rawWriter(); ok {
		cmd.Stdout = w

		return nil, nil
	}

	return cmd.StdoutPipe()
}

// connectInput attaches the fiber's input to the process: directly when it
// is an untouched reader source, otherwise through a pipe fed with the
// string form of each received value.
func (f *Fiber) connectInput(cmd *exec.Cmd) (io.WriteCloser, error) {
	if r, ok := f.in.rawReader(); ok {
		cmd.Stdin = r

		return nil, nil
	}

	if f.in.Closed() && len(f.in.items) == 0 {
		return nil, nil
	}

	return cmd.StdinPipe()
}

// pumpOutput sends each line read from r as a string value. When the
// output stream stops accepting values the pipe is closed, so the process
// receives SIGPIPE on its next write.
func (f *Fiber) pumpOutput(ctx context.Context, r io.ReadCloser, wg *sync.WaitGroup) {
	defer wg.Done()

	br := bufio.NewReader(r)

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

			if perr := f.out.put(ctx, String(line)); perr != nil {
				_ = r.Close()

				return
			}
		}

		if err != nil {
			return
		}
	}
}

func (f *Fiber) pumpInput(ctx context.Context, w io.WriteCloser) {
	defer w.Close()

	for {
		v, err := f.in.take(ctx)
		if err != nil {
			return
		}

		if _, err := io.WriteString(w, v.String()+"\n"); err != nil {
			return
		}
	}
}

func exitStatus(ps *os.ProcessState) (int, unix.Signal) {
	if ps == nil {
		return 127, 0
	}

	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := unix.Signal(ws.Signal())

		return 128 + int(sig), sig
	}

	return ps.ExitCode(), 0
}

// cwd returns the working directory held in @cwd.
func (f *Fiber) cwd() string {
	if v, ok := f.rt.cvars.lookup("cwd"); ok && v.String() != "" {
		return v.String()
	}

	return f.rt.dir
}

// environ returns the environment held in @environment as KEY=value pairs.
func (f *Fiber) environ() []string {
	v, ok := f.rt.cvars.lookup("environment")
	if !ok {
		return f.rt.env
	}

	t, ok := v.(*Table)
	if !ok {
		return f.rt.env
	}

	env := make([]string, 0, t.Len())
	for k, v := range t.All() {
		env = append(env, k+"="+v.String())
	}

	return env
}

// lookPath finds an executable named name. Names containing a slash resolve
// against @cwd; other names are searched in the PATH of @environment.
func (f *Fiber) lookPath(name string) (string, error) {
	if name == "" {
		return "", exec.ErrNotFound
	}

	cwd := f.cwd()

	if strings.Contains(name, "/") {
		if !filepath.IsAbs(name) {
			name = filepath.Join(cwd, name)
		}

		return name, isExecutable(name)
	}

	var path string

	if env, ok := f.rt.cvars.lookup("environment"); ok {
		if t, ok := env.(*Table); ok {
			path = t.Get("PATH").String()
		}
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}

		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cwd, dir)
		}

		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) == nil {
			return candidate, nil
		}
	}

	return "", exec.ErrNotFound
}

func isExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() || info.Mode()&0o111 == 0 {
		return fs.ErrPermission
	}

	return nil
}

func isBrokenPipe(err error) bool { return errors.Is(err, unix.EPIPE) }
