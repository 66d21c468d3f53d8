package interp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ardnew/riptide/lang"
)

func (f *Fiber) evalCall(fr *Frame, call lang.Call) (Value, error) {
	switch call := call.(type) {
	case *lang.NamedCall:
		return f.evalNamedCall(fr, call)

	case *lang.UnnamedCall:
		if len(call.Args) == 0 {
			switch call.Callee.(type) {
			case *lang.CvarScope, *lang.Subroutine:
				return f.evalExpr(fr, call.Callee)
			}
		}

		callee, err := f.evalExpr(fr, call.Callee)
		if err != nil {
			return nil, err
		}

		args, err := f.evalArgs(fr, call.Args)
		if err != nil {
			return nil, err
		}

		return f.invoke(callee, args)
	}

	return nil, &FatalError{Msg: "unknown call " + lang.FormatNode(call)}
}

// evalNamedCall resolves the name against the lexical bindings, then the
// builtins, then the executable search path.
func (f *Fiber) evalNamedCall(fr *Frame, call *lang.NamedCall) (Value, error) {
	callee, ok := fr.Lookup(call.Name)
	if !ok {
		callee, ok = f.rt.builtins[call.Name]
	}

	var path string

	if !ok {
		var err error
		if path, err = f.lookPath(call.Name); err != nil {
			return nil, Errorf("command not found: %s", call.Name)
		}
	}

	args, err := f.evalArgs(fr, call.Args)
	if err != nil {
		return nil, err
	}

	if !ok {
		return f.runCommand(call.Name, path, args)
	}

	return f.invoke(callee, args)
}

// evalArgs evaluates arguments left to right, expanding splatted lists.
func (f *Fiber) evalArgs(fr *Frame, args []lang.Arg) ([]Value, error) {
	out := make([]Value, 0, len(args))

	for _, arg := range args {
		v, err := f.evalExpr(fr, arg.Value)
		if err != nil {
			return nil, err
		}

		if !arg.Splat {
			out = append(out, v)

			continue
		}

		switch v := v.(type) {
		case List:
			out = append(out, v...)
		case nilValue:
		default:
			return nil, Errorf("cannot expand a %s value as arguments", v.Kind())
		}
	}

	return out, nil
}

// invoke calls a closure or builtin.
func (f *Fiber) invoke(callee Value, args []Value) (Value, error) {
	switch c := callee.(type) {
	case *Closure:
		return f.invokeClosure(c, args)

	case *Builtin:
		f.stack = append(f.stack, c.Name)
		defer func() { f.stack = f.stack[:len(f.stack)-1] }()

		v, err := c.Fn(f, args)
		if err != nil {
			return nil, f.traced(raise(err))
		}

		if v == nil {
			v = Nil
		}

		return v, nil
	}

	return nil, f.traced(Errorf("cannot invoke a %s value", KindOf(callee)))
}

func (f *Fiber) invokeClosure(c *Closure, args []Value) (Value, error) {
	if f.rt.maxDepth > 0 && f.depth >= f.rt.maxDepth {
		err := &FatalError{Msg: fmt.Sprintf("call depth exceeds %d", f.rt.maxDepth)}
		f.rt.abort(err)

		return nil, err
	}

	name := c.displayName()
	fr := NewFrame(c.Frame, name)

	bindParams(fr, c.Block, args)

	saved := f.frame
	f.frame = fr
	f.depth++
	f.stack = append(f.stack, name)

	defer func() {
		f.frame = saved
		f.depth--
		f.stack = f.stack[:len(f.stack)-1]
	}()

	v, err := f.execStatements(fr, c.Block.Statements)
	if err != nil {
		if ret, ok := isReturn(err); ok {
			return ret.value, nil
		}

		return nil, f.traced(err)
	}

	return v, nil
}

// traced records the current call chain on an exception that has none.
func (f *Fiber) traced(err error) error {
	var e *Exception
	if errors.As(err, &e) && e.Trace == nil && len(f.stack) > 0 {
		e.Trace = f.Backtrace()
	}

	return err
}

// bindParams binds call arguments to the parameters of b in fr.
//
// Flag parameters are bound first. An argument "--name" matching a declared
// flag takes the following argument as its value, or true when nothing
// follows or the following argument is itself a flag. "--name=value" binds
// value. A lone "--" ends flag scanning and is dropped. The remaining
// arguments bind to positional parameters in order, missing ones binding
// nil, and a vararg parameter collects the rest.
func bindParams(fr *Frame, b *lang.Block, args []Value) {
	fr.Declare("args", List(append([]Value(nil), args...)))

	flags := map[string]bool{}

	for _, p := range b.Params {
		if p.Kind == lang.ParamFlag {
			flags[p.Name] = true
			fr.Declare(p.Name, Nil)
		}
	}

	rest := args

	if len(flags) > 0 {
		rest = make([]Value, 0, len(args))

		for i := 0; i < len(args); i++ {
			s, ok := args[i].(String)
			if !ok || !strings.HasPrefix(string(s), "--") {
				rest = append(rest, args[i])

				continue
			}

			if s == "--" {
				rest = append(rest, args[i+1:]...)

				break
			}

			name, value, hasValue := strings.Cut(string(s[2:]), "=")
			if !flags[name] {
				rest = append(rest, args[i])

				continue
			}

			switch {
			case hasValue:
				fr.Declare(name, String(value))
			case i+1 < len(args) && !isFlag(args[i+1]):
				i++
				fr.Declare(name, args[i])
			default:
				fr.Declare(name, True)
			}
		}
	}

	for _, p := range b.Params {
		switch p.Kind {
		case lang.ParamPositional:
			if len(rest) > 0 {
				fr.Declare(p.Name, rest[0])
				rest = rest[1:]
			} else {
				fr.Declare(p.Name, Nil)
			}

		case lang.ParamVararg:
			fr.Declare(p.Name, List(append([]Value{}, rest...)))
			rest = nil
		}
	}
}

func isFlag(v Value) bool {
	s, ok := v.(String)

	return ok && strings.HasPrefix(string(s), "--")
}
