package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
)

// Fmt reads a script, parses it, and writes it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical riptide source (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
	AST    AST    `cmd:""                    help:"Format as abstract syntax tree."`
}

// Input names the script read by a format command.
type Input struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`

	stdout io.Writer `kong:"-"`
}

func (in *Input) output() io.Writer {
	if in.stdout != nil {
		return in.stdout
	}

	return os.Stdout
}

// parse reads and parses the source script.
func (in *Input) parse(ctx context.Context, format string) (*lang.Program, error) {
	r := io.Reader(os.Stdin)
	name := "<stdin>"

	if in.Source != "-" {
		file, err := os.Open(in.Source)
		if err != nil {
			return nil, ErrReadSource.
				With(slog.String("file", in.Source)).
				Wrap(err)
		}
		defer file.Close()

		r, name = file, in.Source
	}

	prog, err := lang.ParseReader(ctx, r, lang.WithName(name), lang.WithLogger(log.Default()))
	if err != nil {
		return nil, lang.WrapError(err).
			With(slog.String("format", format))
	}

	return prog, nil
}

// Native formats input as canonical riptide source.
type Native struct {
	Indent int `default:"2" help:"Indent width for formatted output; 0 writes blocks on one line." short:"i"`

	Input
}

// Run executes the native format command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := f.parse(ctx, "native")
	if err != nil {
		return err
	}

	if err := prog.Format(f.output(), f.Indent); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// JSON formats the program structure as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Input
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := j.parse(ctx, "json")
	if err != nil {
		return err
	}

	if err := prog.FormatJSON(ctx, j.output(), j.Indent); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// YAML formats the program structure as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output; 0 selects flow style." short:"i"`

	Input
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := y.parse(ctx, "yaml")
	if err != nil {
		return err
	}

	if err := prog.FormatYAML(ctx, y.output(), y.Indent); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// AST prints the program as an indented tree of nodes.
type AST struct {
	Input
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := a.parse(ctx, "ast")
	if err != nil {
		return err
	}

	var b strings.Builder

	printTree(&b, prog.ToMap(), 0)

	if _, err := io.WriteString(a.output(), b.String()); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// printTree writes the map form of a node. Each node is printed as its type
// followed by its scalar fields; child nodes are indented beneath it.
func printTree(b *strings.Builder, node any, depth int) {
	pad := strings.Repeat("  ", depth)

	switch n := node.(type) {
	case map[string]any:
		kind, _ := n["type"].(string)
		if kind == "" {
			kind = "table"
		}

		b.WriteString(pad + kind)

		var nested []string

		for _, k := range sortedKeys(n) {
			if k == "type" {
				continue
			}

			switch v := n[k].(type) {
			case map[string]any, []any:
				nested = append(nested, k)
			case nil:
			default:
				fmt.Fprintf(b, " %s=%s", k, lang.QuoteString(fmt.Sprint(v)))
			}
		}

		b.WriteString("\n")

		for _, k := range nested {
			if items, ok := n[k].([]any); ok && len(items) == 0 {
				continue
			}

			b.WriteString(pad + "  " + k + ":\n")
			printTree(b, n[k], depth+2)
		}

	case []any:
		for _, item := range n {
			printTree(b, item, depth)
		}

	default:
		b.WriteString(pad + lang.QuoteString(fmt.Sprint(n)) + "\n")
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
