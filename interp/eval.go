package interp

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/riptide/lang"
)

// execStatements runs stmts in order and yields the value of the last one.
func (f *Fiber) execStatements(fr *Frame, stmts []lang.Statement) (Value, error) {
	var last Value = Nil

	for _, stmt := range stmts {
		v, err := f.execStatement(fr, stmt)
		if err != nil {
			return nil, err
		}

		last = v
	}

	return last, nil
}

func (f *Fiber) execStatement(fr *Frame, stmt lang.Statement) (Value, error) {
	switch stmt := stmt.(type) {
	case *lang.ImportStatement:
		return Nil, f.execImport(fr, stmt)

	case *lang.AssignStatement:
		return Nil, f.execAssign(fr, stmt)

	case *lang.ReturnStatement:
		var v Value = Nil

		if stmt.Value != nil {
			var err error
			if v, err = f.evalExpr(fr, stmt.Value); err != nil {
				return nil, err
			}
		}

		return nil, &returnSignal{value: v}

	case *lang.Pipeline:
		return f.runPipeline(fr, stmt, f.in, f.out)
	}

	return nil, &FatalError{Msg: "unknown statement " + lang.FormatNode(stmt)}
}

func (f *Fiber) execImport(fr *Frame, stmt *lang.ImportStatement) error {
	if f.rt.loader == nil {
		return Errorf("cannot import %s: no module loader", stmt.Path)
	}

	exports, err := f.rt.loader.Load(f.ctx, f, stmt.Path)
	if err != nil {
		return raise(err)
	}

	f.rt.logger.DebugContext(f.ctx, "import",
		slog.String("module", stmt.Path),
		slog.Int("exports", len(exports)),
	)

	if stmt.Wildcard {
		for name, v := range exports {
			fr.Declare(name, v)
		}

		return nil
	}

	for _, name := range stmt.Names {
		v, ok := exports[name]
		if !ok {
			return Errorf("module %s has no member %s", stmt.Path, name)
		}

		fr.Declare(name, v)
	}

	return nil
}

func (f *Fiber) execAssign(fr *Frame, stmt *lang.AssignStatement) error {
	v, err := f.evalExpr(fr, stmt.Value)
	if err != nil {
		return err
	}

	target := stmt.Target

	switch target.Kind {
	case lang.TargetLocal:
		if c, ok := v.(*Closure); ok {
			v = c.named(target.Name)
		}

		if stmt.Declare {
			fr.Declare(target.Name, v)
		} else {
			fr.Assign(target.Name, v)
		}

		return nil

	case lang.TargetCvar:
		f.rt.cvars.set(target.Name, v)

		return nil

	case lang.TargetMember:
		return f.assignMember(fr, target, v)
	}

	return &FatalError{Msg: "unknown assignment target " + target.Kind.String()}
}

// assignMember writes v through a member path. Tables are updated in place.
// Lists are copied with the element replaced and the copy is stored back in
// the variable the path starts from.
func (f *Fiber) assignMember(fr *Frame, target lang.AssignTarget, v Value) error {
	base, err := f.evalExpr(fr, target.Base)
	if err != nil {
		return err
	}

	updated, err := assignPath(base, target.Path, v)
	if err != nil {
		return err
	}

	if _, ok := base.(List); !ok {
		return nil
	}

	switch b := target.Base.(type) {
	case *lang.Substitution:
		if b.Kind == lang.SubstVariable {
			fr.Assign(b.Name, updated)

			return nil
		}

	case *lang.CvarRef:
		f.rt.cvars.set(b.Name, updated)

		return nil
	}

	return Errorf("cannot assign to a member of a list that is not held in a variable")
}

func assignPath(base Value, path []string, v Value) (Value, error) {
	key := path[0]

	switch b := base.(type) {
	case *Table:
		if len(path) == 1 {
			b.Set(key, v)

			return b, nil
		}

		inner, ok := b.Lookup(key)
		if !ok {
			inner = NewTable()
			b.Set(key, inner)
		}

		updated, err := assignPath(inner, path[1:], v)
		if err != nil {
			return nil, err
		}

		if _, isList := inner.(List); isList {
			b.Set(key, updated)
		}

		return b, nil

	case List:
		i, ok := ToInt(String(key))
		if !ok || i < 0 || i > len(b) {
			return nil, Errorf("invalid list index %s for list of length %d", key, len(b))
		}

		elem := Value(Nil)
		if i < len(b) {
			elem = b[i]
		}

		if len(path) > 1 {
			var err error
			if elem, err = assignPath(elem, path[1:], v); err != nil {
				return nil, err
			}
		} else {
			elem = v
		}

		out := make(List, len(b), len(b)+1)
		copy(out, b)

		if i == len(b) {
			out = append(out, elem)
		} else {
			out[i] = elem
		}

		return out, nil
	}

	return nil, Errorf("cannot assign member %s of a %s value", key, KindOf(base))
}

func (f *Fiber) evalExpr(fr *Frame, e lang.Expr) (Value, error) {
	switch e := e.(type) {
	case *lang.StringLiteral:
		return String(e.Value), nil

	case *lang.NumberLiteral:
		return Number(e.Value), nil

	case *lang.InterpolatedString:
		var b strings.Builder

		for _, part := range e.Parts {
			if part.Subst == nil {
				b.WriteString(part.Text)

				continue
			}

			v, err := f.evalSubstitution(fr, part.Subst)
			if err != nil {
				return nil, err
			}

			b.WriteString(v.String())
		}

		return String(b.String()), nil

	case *lang.ListLiteral:
		items := make(List, 0, len(e.Items))

		for _, item := range e.Items {
			v, err := f.evalExpr(fr, item)
			if err != nil {
				return nil, err
			}

			items = append(items, v)
		}

		return items, nil

	case *lang.TableLiteral:
		t := NewTable()

		for _, entry := range e.Entries {
			k, err := f.evalExpr(fr, entry.Key)
			if err != nil {
				return nil, err
			}

			v, err := f.evalExpr(fr, entry.Value)
			if err != nil {
				return nil, err
			}

			t.Set(k.String(), v)
		}

		return t, nil

	case *lang.Block:
		return &Closure{Block: e, Frame: fr}, nil

	case *lang.Subroutine:
		c := &Closure{Block: e.Body, Frame: fr, Name: e.Name}
		fr.Declare(e.Name, c)

		return c, nil

	case *lang.MemberAccess:
		v, err := f.evalExpr(fr, e.Base)
		if err != nil {
			return nil, err
		}

		for _, key := range e.Path {
			if v, err = member(v, key); err != nil {
				return nil, err
			}
		}

		return v, nil

	case *lang.Substitution:
		return f.evalSubstitution(fr, e)

	case *lang.CvarRef:
		v, ok := f.rt.cvars.lookup(e.Name)
		if !ok {
			return nil, Errorf("context variable @%s is not bound", e.Name)
		}

		return v, nil

	case *lang.CvarScope:
		return f.evalCvarScope(fr, e)

	case *lang.Pipeline:
		return f.runPipeline(fr, e, f.in, f.out)
	}

	return nil, &FatalError{Msg: "unknown expression " + lang.FormatNode(e)}
}

func (f *Fiber) evalSubstitution(fr *Frame, s *lang.Substitution) (Value, error) {
	switch s.Kind {
	case lang.SubstPipeline:
		return f.capture(fr, s.Pipeline)

	case lang.SubstFormat:
		v, err := f.lookupVar(fr, s.Name)
		if err != nil {
			return nil, err
		}

		return formatValue(v, s.Flags)
	}

	return f.lookupVar(fr, s.Name)
}

func (f *Fiber) lookupVar(fr *Frame, name string) (Value, error) {
	if v, ok := fr.Lookup(name); ok {
		return v, nil
	}

	if v, ok := f.rt.builtins[name]; ok {
		return v, nil
	}

	return nil, Errorf("variable %s is not defined", name)
}

// evalCvarScope binds a context variable for the extent of the body. The
// binding is removed however the body exits.
func (f *Fiber) evalCvarScope(fr *Frame, s *lang.CvarScope) (Value, error) {
	v, err := f.evalExpr(fr, s.Value)
	if err != nil {
		return nil, err
	}

	h := f.rt.cvars.push(s.Name, v)
	f.rt.logger.TraceContext(f.ctx, "cvar push", slog.String("name", s.Name))

	defer func() {
		f.rt.cvars.pop(h)
		f.rt.logger.TraceContext(f.ctx, "cvar pop", slog.String("name", s.Name))
	}()

	body := NewFrame(fr, fr.name)

	saved := f.frame
	f.frame = body

	defer func() { f.frame = saved }()

	return f.execStatements(body, s.Body.Statements)
}

// member indexes v by key.
func member(v Value, key string) (Value, error) {
	switch v := v.(type) {
	case *Table:
		if m, ok := v.Lookup(key); ok {
			return m, nil
		}

		return nil, Errorf("table has no member %s", key)

	case List:
		i, ok := ToInt(String(key))
		if !ok || i < 0 || i >= len(v) {
			return nil, Errorf("index %s out of range for list of length %d", key, len(v))
		}

		return v[i], nil
	}

	return nil, Errorf("cannot access member %s of a %s value", key, KindOf(v))
}

// isReturn reports whether err is a return unwinding to the nearest block.
func isReturn(err error) (*returnSignal, bool) {
	var ret *returnSignal

	return ret, errors.As(err, &ret)
}
