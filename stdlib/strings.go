package stdlib

import (
	"strings"
	"unicode/utf8"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
)

func stringLen(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.Number(utf8.RuneCountInString(arg(args, 0).String())), nil
}

// join list [sep] joins the string forms of the items, with no separator by
// default.
func stringJoin(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	l, ok := arg(args, 0).(interp.List)
	if !ok {
		return nil, interp.Errorf("join: expected a list, got %s", interp.KindOf(arg(args, 0)))
	}

	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}

	return interp.String(strings.Join(parts, arg(args, 1).String())), nil
}

// split s [sep] splits s around sep, or around runs of white space when sep is
// absent.
func stringSplit(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	s := arg(args, 0).String()

	if len(args) < 2 {
		return interp.ValueOf(strings.Fields(s)), nil
	}

	return interp.ValueOf(strings.Split(s, args[1].String())), nil
}

func stringUpper(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.String(strings.ToUpper(arg(args, 0).String())), nil
}

func stringLower(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.String(strings.ToLower(arg(args, 0).String())), nil
}

func stringTrim(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.String(strings.TrimSpace(arg(args, 0).String())), nil
}

// replace s old new replaces every occurrence of old.
func stringReplace(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if len(args) < 3 {
		return nil, interp.Errorf("replace: string, old and new required")
	}

	return interp.String(strings.ReplaceAll(args[0].String(), args[1].String(), args[2].String())), nil
}

// parse source returns the syntax tree of source as nested tables.
func langParse(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	prog, err := lang.ParseCached(f.Context(), arg(args, 0).String(),
		lang.WithLogger(f.Logger()), lang.WithName("<parse>"))
	if err != nil {
		return nil, interp.Errorf("parse: %w", err)
	}

	return interp.ValueOf(prog.ToMap()), nil
}

// format source [indent] returns source in canonical layout.
func langFormat(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	prog, err := lang.ParseCached(f.Context(), arg(args, 0).String(),
		lang.WithLogger(f.Logger()), lang.WithName("<format>"))
	if err != nil {
		return nil, interp.Errorf("format: %w", err)
	}

	indent, ok := interp.ToInt(arg(args, 1))
	if !ok {
		indent = 0
	}

	var b strings.Builder
	if err := prog.Format(&b, indent); err != nil {
		return nil, interp.Errorf("format: %w", err)
	}

	return interp.String(strings.TrimSuffix(b.String(), "\n")), nil
}

func langQuote(_ *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.String(lang.QuoteString(arg(args, 0).String())), nil
}
