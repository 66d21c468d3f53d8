package interp

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/riptide/lang"
)

// Kind identifies the variant of a [Value].
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindTable
	KindBlock
	KindNative
	KindExitCode
)

var kindName = [...]string{
	KindNil:      "nil",
	KindBool:     "boolean",
	KindNumber:   "number",
	KindString:   "string",
	KindList:     "list",
	KindTable:    "table",
	KindBlock:    "block",
	KindNative:   "native",
	KindExitCode: "exit-code",
}

// String returns the name reported by typeof.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindName) {
		return "unknown"
	}

	return kindName[k]
}

// Value is a runtime value. The variants are [Nil], [Bool], [Number],
// [String], [List], [*Table], [*Closure], [*Builtin] and [ExitCode].
//
// String returns the coalesced string form of a value, which is what an
// external command receives as an argument.
type Value interface {
	Kind() Kind
	String() string
	value()
}

type nilValue struct{}

// Nil is the empty value.
var Nil Value = nilValue{}

func (nilValue) Kind() Kind     { return KindNil }
func (nilValue) String() string { return "" }
func (nilValue) value()         {}

// Bool is a boolean.
type Bool bool

const (
	True  Bool = true
	False Bool = false
)

func (Bool) Kind() Kind { return KindBool }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (Bool) value() {}

// Number is a double-precision number.
type Number float64

func (Number) Kind() Kind { return KindNumber }

// String formats integral numbers without a fraction.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (Number) value() {}

// String is an immutable string.
type String string

func (String) Kind() Kind { return KindString }

func (s String) String() string { return string(s) }

func (String) value() {}

// List is an immutable sequence. Operations on lists return new lists.
type List []Value

func (List) Kind() Kind { return KindList }

func (l List) String() string { return render(l, nil) }

func (List) value() {}

// ExitCode is the exit status of a process.
type ExitCode int

func (ExitCode) Kind() Kind { return KindExitCode }

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

func (ExitCode) value() {}

// Closure is a block together with the lexical frame it was evaluated in.
type Closure struct {
	Block *lang.Block
	Frame *Frame
	Name  string
}

func (*Closure) Kind() Kind { return KindBlock }

func (c *Closure) String() string {
	if c.Name != "" {
		return "<block " + c.Name + ">"
	}

	return "<block>"
}

func (*Closure) value() {}

// displayName names c in traces.
func (c *Closure) displayName() string {
	if c.Name != "" {
		return c.Name
	}

	return "<block at " + c.Block.Pos.String() + ">"
}

// named returns a copy of c carrying name, unless c already has one.
func (c *Closure) named(name string) *Closure {
	if c.Name != "" {
		return c
	}

	return &Closure{Block: c.Block, Frame: c.Frame, Name: name}
}

// BuiltinFunc implements a host function. It receives the evaluated arguments
// in order and returns a value or an error. Errors other than [*Exception]
// are raised as runtime exceptions.
type BuiltinFunc func(f *Fiber, args []Value) (Value, error)

// Builtin is a host function value.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

// NewBuiltin returns a builtin value.
func NewBuiltin(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{Name: name, Fn: fn}
}

func (*Builtin) Kind() Kind { return KindNative }

func (b *Builtin) String() string { return "<native " + b.Name + ">" }

func (*Builtin) value() {}

// IsNil reports whether v is nil or [Nil].
func IsNil(v Value) bool { return v == nil || v == Nil }

// KindOf returns the kind of v, treating a nil interface as [Nil].
func KindOf(v Value) Kind {
	if v == nil {
		return KindNil
	}

	return v.Kind()
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil, nilValue:
		return false
	case Bool:
		return bool(v)
	case Number:
		return v != 0 && !math.IsNaN(float64(v))
	case String:
		return v != "" && v != "0" && !strings.EqualFold(string(v), "false")
	case List:
		return len(v) > 0
	case ExitCode:
		return v == 0
	default:
		return true
	}
}

// Equal reports whether a and b are equal. Strings, numbers, booleans, lists
// and exit codes compare by value; tables, closures and builtins compare by
// identity.
func Equal(a, b Value) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}

	switch a := a.(type) {
	case List:
		b, ok := b.(List)

		return ok && slices.EqualFunc(a, b, Equal)
	case *Table:
		b, ok := b.(*Table)

		return ok && a == b
	case *Closure:
		b, ok := b.(*Closure)

		return ok && a == b
	case *Builtin:
		b, ok := b.(*Builtin)

		return ok && a == b
	default:
		return a == b
	}
}

// ToNumber converts numbers, exit codes, booleans and numeric strings.
func ToNumber(v Value) (float64, bool) {
	switch v := v.(type) {
	case Number:
		return float64(v), true
	case ExitCode:
		return float64(v), true
	case Bool:
		if v {
			return 1, true
		}

		return 0, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)

		return f, err == nil
	}

	return 0, false
}

// ToInt converts v with [ToNumber] and requires an integral result.
func ToInt(v Value) (int, bool) {
	f, ok := ToNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}

	return int(f), true
}

// ValueOf converts a Go value to a [Value]. Unsupported types yield [Nil].
func ValueOf(x any) Value {
	switch x := x.(type) {
	case nil:
		return Nil
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Number(x)
	case int64:
		return Number(x)
	case uint64:
		return Number(x)
	case float32:
		return Number(x)
	case float64:
		return Number(x)
	case string:
		return String(x)
	case []string:
		l := make(List, len(x))
		for i, s := range x {
			l[i] = String(s)
		}

		return l
	case []any:
		l := make(List, len(x))
		for i, e := range x {
			l[i] = ValueOf(e)
		}

		return l
	case map[string]any:
		t := NewTable()
		for k, e := range x {
			t.Set(k, ValueOf(e))
		}

		return t
	case map[string]string:
		t := NewTable()
		for k, e := range x {
			t.Set(k, String(e))
		}

		return t
	}

	return Nil
}

// Native converts v to plain Go data: nil, bool, float64, int, string,
// []any or map[string]any. Callables become their string form. Tables that
// contain themselves are cut at the point of recursion.
func Native(v Value) any {
	return native(v, map[*Table]bool{})
}

func native(v Value, seen map[*Table]bool) any {
	switch v := v.(type) {
	case nil, nilValue:
		return nil
	case Bool:
		return bool(v)
	case Number:
		return float64(v)
	case String:
		return string(v)
	case ExitCode:
		return int(v)
	case List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = native(e, seen)
		}

		return out
	case *Table:
		if seen[v] {
			return v.String()
		}

		seen[v] = true
		defer delete(seen, v)

		out := make(map[string]any, v.Len())
		for k, e := range v.All() {
			out[k] = native(e, seen)
		}

		return out
	default:
		return v.String()
	}
}

// render writes lists and tables in literal syntax. Strings nested in
// containers are quoted when needed so that the output reads back.
func render(v Value, seen map[*Table]bool) string {
	var b strings.Builder

	renderTo(&b, v, seen, false)

	return b.String()
}

func renderTo(b *strings.Builder, v Value, seen map[*Table]bool, nested bool) {
	switch v := v.(type) {
	case List:
		b.WriteByte('[')

		for i, e := range v {
			if i > 0 {
				b.WriteString(", ")
			}

			renderTo(b, e, seen, true)
		}

		b.WriteByte(']')

	case *Table:
		if seen == nil {
			seen = map[*Table]bool{}
		}

		if seen[v] {
			b.WriteString("<table>")

			return
		}

		seen[v] = true
		defer delete(seen, v)

		keys := v.Keys()
		if len(keys) == 0 {
			b.WriteString("[:]")

			return
		}

		b.WriteByte('[')

		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(lang.QuoteString(k))
			b.WriteString(": ")
			renderTo(b, v.Get(k), seen, true)
		}

		b.WriteByte(']')

	case String:
		if nested {
			b.WriteString(lang.QuoteString(string(v)))
		} else {
			b.WriteString(string(v))
		}

	case nil, nilValue:
		if nested {
			b.WriteString("nil")
		}

	default:
		b.WriteString(v.String())
	}
}
