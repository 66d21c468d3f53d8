package stdlib

import (
	"github.com/ardnew/riptide/interp"
)

// eq values... reports whether all values are equal.
func builtinEq(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	for i := 1; i < len(args); i++ {
		if !interp.Equal(args[0], args[i]) {
			return interp.False, nil
		}
	}

	return interp.True, nil
}

func builtinNot(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.Bool(!interp.Truthy(arg(args, 0))), nil
}

// if condition then [else] selects a branch. Blocks are invoked, other
// values are returned as they are. A block condition is invoked first and
// its result tested.
func builtinIf(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if len(args) < 2 {
		return nil, interp.Errorf("if: condition and branch required")
	}

	cond, err := branch(f, args[0])
	if err != nil {
		return nil, err
	}

	if interp.Truthy(cond) {
		return branch(f, args[1])
	}

	return branch(f, arg(args, 2))
}

func branch(f *interp.Fiber, v interp.Value) (interp.Value, error) {
	switch v.(type) {
	case *interp.Closure, *interp.Builtin:
		return f.Invoke(v)
	}

	return v, nil
}

// loop block invokes block until it raises end-of-stream or broken-pipe,
// which end the loop normally.
func builtinLoop(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if len(args) == 0 {
		return nil, interp.Errorf("loop: block required")
	}

	for {
		if _, err := f.Invoke(args[0], args[1:]...); err != nil {
			if interp.IsStreamEnd(err) {
				return interp.Nil, nil
			}

			return nil, err
		}

		if err := f.Err(); err != nil {
			return nil, err
		}
	}
}

// call callee args... invokes callee.
func builtinCall(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if len(args) == 0 {
		return nil, interp.Errorf("call: callee required")
	}

	return f.Invoke(args[0], args[1:]...)
}

func builtinNil(*interp.Fiber, []interp.Value) (interp.Value, error) {
	return interp.Nil, nil
}

// assert condition [message] throws message when condition is false.
func builtinAssert(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if interp.Truthy(arg(args, 0)) {
		return interp.Nil, nil
	}

	if len(args) > 1 {
		return nil, interp.Throw(args[1])
	}

	return nil, interp.Throw(interp.String("assertion failed"))
}

// backtrace returns the names of the active calls, innermost first.
func builtinBacktrace(f *interp.Fiber, _ []interp.Value) (interp.Value, error) {
	trace := f.Backtrace()
	if len(trace) > 0 && trace[0] == "backtrace" {
		trace = trace[1:]
	}

	return interp.ValueOf(trace), nil
}
