package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
)

// resolve returns a [kong.ConfigurationLoader] that reads a configuration
// file written in riptide syntax.
//
// Only top-level assignments of literal values are used; any other statement
// is ignored and the file is never executed:
//
//	log-level = debug
//	let grace = 5s
//	max-depth = 2000
//	lib = [/usr/local/share/riptide /opt/riptide/lib]
//
// Each assignment sets the flag of the same name. Names may use underscores
// in place of hyphens. Command-line flags override configuration values.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		prog, err := lang.ParseReader(ctx, r, lang.WithName(baseConfig))
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration file", slog.Any("error", err))

			return config{}, nil
		}

		return programConfig(prog), nil
	}
}

// config implements [kong.Resolver] for riptide configuration files.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

// programConfig collects the literal assignments of prog. Later assignments
// replace earlier ones.
func programConfig(prog *lang.Program) config {
	result := make(config)

	for _, stmt := range prog.Statements {
		assign, ok := stmt.(*lang.AssignStatement)
		if !ok || assign.Target.Kind != lang.TargetLocal {
			continue
		}

		if value, ok := literal(assign.Value); ok {
			result[assign.Target.Name] = value
		}
	}

	return result
}

// literal converts a constant expression to a value kong can parse. Numbers
// are rendered as strings, lists as slices of strings.
func literal(e lang.Expr) (any, bool) {
	switch e := e.(type) {
	case *lang.StringLiteral:
		return e.Value, true

	case *lang.NumberLiteral:
		return strconv.FormatFloat(e.Value, 'f', -1, 64), true

	case *lang.ListLiteral:
		items := make([]any, 0, len(e.Items))

		for _, item := range e.Items {
			v, ok := literal(item)
			if !ok {
				return nil, false
			}

			items = append(items, v)
		}

		return items, true
	}

	return nil, false
}
