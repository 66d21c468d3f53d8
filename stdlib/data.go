package stdlib

import (
	"unicode/utf8"

	"github.com/ardnew/riptide/interp"
)

func builtinList(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return append(interp.List{}, args...), nil
}

// table key value ... builds a table from alternating keys and values.
func builtinTable(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if len(args)%2 != 0 {
		return nil, interp.Errorf("table: odd number of arguments")
	}

	t := interp.NewTable()
	for i := 0; i < len(args); i += 2 {
		t.Set(args[i].String(), args[i+1])
	}

	return t, nil
}

// table-set table key value sets a key in place and returns the table.
func builtinTableSet(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	t, ok := arg(args, 0).(*interp.Table)
	if !ok {
		return nil, interp.Errorf("table-set: expected a table, got %s", interp.KindOf(arg(args, 0)))
	}

	if len(args) < 2 {
		return nil, interp.Errorf("table-set: key required")
	}

	t.Set(args[1].String(), arg(args, 2))

	return t, nil
}

func builtinTypeof(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.String(interp.KindOf(arg(args, 0)).String()), nil
}

// len value returns the number of items in a list or table, or the number of
// characters in a string.
func builtinLen(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	switch v := arg(args, 0).(type) {
	case interp.List:
		return interp.Number(len(v)), nil
	case *interp.Table:
		return interp.Number(v.Len()), nil
	case interp.String:
		return interp.Number(utf8.RuneCountInString(string(v))), nil
	default:
		if interp.IsNil(v) {
			return interp.Number(0), nil
		}

		return nil, interp.Errorf("len: cannot measure a %s value", interp.KindOf(v))
	}
}

// nth list index returns an item. Negative indices count from the end.
func builtinNth(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	l, ok := arg(args, 0).(interp.List)
	if !ok {
		return nil, interp.Errorf("nth: expected a list, got %s", interp.KindOf(arg(args, 0)))
	}

	i, ok := interp.ToInt(arg(args, 1))
	if !ok {
		return nil, interp.Errorf("nth: invalid index %q", arg(args, 1).String())
	}

	if i < 0 {
		i += len(l)
	}

	if i < 0 || i >= len(l) {
		return nil, interp.Errorf("nth: index %s out of range for list of length %d",
			arg(args, 1).String(), len(l))
	}

	return l[i], nil
}

// get container key [default] looks up a table key or list index, returning
// default when it is absent.
func builtinGet(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	def := arg(args, 2)

	switch c := arg(args, 0).(type) {
	case *interp.Table:
		if v, ok := c.Lookup(arg(args, 1).String()); ok {
			return v, nil
		}

	case interp.List:
		if i, ok := interp.ToInt(arg(args, 1)); ok && i >= 0 && i < len(c) {
			return c[i], nil
		}

	default:
		if !interp.IsNil(c) {
			return nil, interp.Errorf("get: cannot index a %s value", interp.KindOf(c))
		}
	}

	return def, nil
}
