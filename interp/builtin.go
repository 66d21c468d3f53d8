package interp

import (
	"log/slog"
	"time"

	"golang.org/x/sys/unix"
)

// coreBuiltins returns the builtins that are part of the evaluator: raising
// and catching exceptions, process supervision and stream access.
func coreBuiltins() map[string]Value {
	b := map[string]BuiltinFunc{
		"throw":     builtinThrow,
		"try":       builtinTry,
		"spawn":     builtinSpawn,
		"wait":      builtinWait,
		"kill":      builtinKill,
		"exit":      builtinExit,
		"exec":      builtinExec,
		"send":      builtinSend,
		"recv":      builtinRecv,
		"sleep":     builtinSleep,
		"command":   builtinCommand,
		"pid":       builtinPid,
		"processes": builtinProcesses,
		"export":    builtinExport,
	}

	out := make(map[string]Value, len(b))
	for name, fn := range b {
		out[name] = NewBuiltin(name, fn)
	}

	return out
}

// arg returns args[i], or Nil when absent.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}

	return Nil
}

// export name [value]
func builtinExport(f *Fiber, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, Errorf("export: name required")
	}

	if f.frame == nil {
		return nil, Errorf("export: no enclosing scope")
	}

	name := args[0].String()

	v := Nil
	if len(args) > 1 {
		v = args[1]
	} else if bound, ok := f.frame.Lookup(name); ok {
		v = bound
	}

	f.frame.Export(name, v)

	return v, nil
}

func builtinThrow(_ *Fiber, args []Value) (Value, error) {
	return nil, Throw(arg(args, 0))
}

// try block [handler]
func builtinTry(f *Fiber, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, Errorf("try: block required")
	}

	v, err := f.invoke(args[0], nil)
	if err == nil {
		return v, nil
	}

	if !catchable(err) {
		return nil, err
	}

	f.rt.logger.TraceContext(f.ctx, "exception caught", slog.Any("error", err))

	if len(args) < 2 {
		return Nil, nil
	}

	return f.invoke(args[1], []Value{Wrap(err).Payload})
}

// spawn block [args...]
func builtinSpawn(f *Fiber, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, Errorf("spawn: block required")
	}

	p, err := f.Spawn(args[0], args[1:])
	if err != nil {
		return nil, err
	}

	return Number(p.info.ID), nil
}

func processID(name string, args []Value) (int, error) {
	id, ok := ToInt(arg(args, 0))
	if !ok {
		return 0, Errorf("%s: process id required, got %q", name, arg(args, 0).String())
	}

	return id, nil
}

// wait id
func builtinWait(f *Fiber, args []Value) (Value, error) {
	id, err := processID("wait", args)
	if err != nil {
		return nil, err
	}

	return f.Wait(id)
}

// kill id [signal]
func builtinKill(f *Fiber, args []Value) (Value, error) {
	id, err := processID("kill", args)
	if err != nil {
		return nil, err
	}

	sig := unix.SIGTERM

	if len(args) > 1 {
		if sig, err = parseSignal(args[1]); err != nil {
			return nil, err
		}
	}

	return Nil, f.Kill(id, sig)
}

// exit [code] [--orphan]
func builtinExit(f *Fiber, args []Value) (Value, error) {
	var (
		code   int
		orphan bool
	)

	for _, a := range args {
		if s, ok := a.(String); ok && s == "--orphan" {
			orphan = true

			continue
		}

		n, ok := ToInt(a)
		if !ok {
			return nil, Errorf("exit: invalid status %q", a.String())
		}

		code = n
	}

	return nil, f.Exit(code, orphan)
}

// exec command [args...]
func builtinExec(f *Fiber, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, Errorf("exec: command required")
	}

	name := args[0].String()

	path, err := f.lookPath(name)
	if err != nil {
		return nil, Errorf("exec: command not found: %s", name)
	}

	argv := make([]string, len(args))
	for i, a := range args {
		argv[i] = a.String()
	}

	f.shutdown(&exitSignal{})

	if err := f.rt.exec(path, argv, f.environ()); err != nil {
		return nil, Errorf("exec %s: %w", name, err)
	}

	return Nil, nil
}

// send values...
func builtinSend(f *Fiber, args []Value) (Value, error) {
	for _, v := range args {
		if err := f.Send(v); err != nil {
			return nil, err
		}
	}

	return Nil, nil
}

func builtinRecv(f *Fiber, _ []Value) (Value, error) {
	return f.Recv()
}

// sleep seconds
func builtinSleep(f *Fiber, args []Value) (Value, error) {
	secs, ok := ToNumber(arg(args, 0))
	if !ok || secs < 0 {
		return nil, Errorf("sleep: invalid duration %q", arg(args, 0).String())
	}

	return Nil, f.Sleep(time.Duration(secs * float64(time.Second)))
}

// command name [args...] runs an external command even when name is bound.
func builtinCommand(f *Fiber, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, Errorf("command: name required")
	}

	name := args[0].String()

	path, err := f.lookPath(name)
	if err != nil {
		return nil, Errorf("command not found: %s", name)
	}

	return f.runCommand(name, path, args[1:])
}

func builtinPid(f *Fiber, _ []Value) (Value, error) {
	return Number(f.id), nil
}

func builtinProcesses(f *Fiber, _ []Value) (Value, error) {
	procs := f.rt.procs.snapshot()
	out := make(List, len(procs))

	for i, p := range procs {
		out[i] = p.Table()
	}

	return out, nil
}
