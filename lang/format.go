package lang

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes prog as canonical source. Nested blocks are indented by
// indent spaces; an indent of zero or less writes blocks on a single line.
// The output parses back to a program with the same structure.
func (prog *Program) Format(w io.Writer, indent int) error {
	bw := bufio.NewWriter(w)
	f := &formatter{w: bw, indent: indent}

	for _, stmt := range prog.Statements {
		f.statement(stmt)
		f.write("\n")
	}

	if err := bw.Flush(); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// String returns the canonical single-line source of prog.
func (prog *Program) String() string {
	var b strings.Builder

	f := &formatter{w: &b}

	for i, stmt := range prog.Statements {
		if i > 0 {
			f.write("; ")
		}

		f.statement(stmt)
	}

	return b.String()
}

// FormatNode returns the canonical single-line source of a statement,
// call or expression.
func FormatNode(n Node) string {
	var b strings.Builder

	f := &formatter{w: &b}

	switch n := n.(type) {
	case *Program:
		return n.String()
	case Statement:
		f.statement(n)
	case Call:
		f.call(n)
	case Expr:
		f.expr(n)
	}

	return b.String()
}

// FormatJSON writes the structure of prog as JSON.
func (prog *Program) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	enc := json.NewEncoder(w)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}

	if err := enc.Encode(prog.ToMap()); err != nil {
		return ErrMarshal.Wrap(err)
	}

	return nil
}

// FormatYAML writes the structure of prog as YAML. An indent of zero or less
// selects flow style.
func (prog *Program) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, prog.ToMap(), opts...)
	if err != nil {
		return ErrMarshal.Wrap(err)
	}

	if _, err := w.Write(data); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// QuoteString returns s as it would appear in canonical source: bare when
// possible, single-quoted otherwise.
func QuoteString(s string) string {
	if IsBareSymbol(s) {
		return s
	}

	return singleQuote(s)
}

func singleQuote(s string) string {
	var b strings.Builder

	b.WriteByte('\'')

	for _, r := range s {
		if r == '\'' || r == '\\' {
			b.WriteByte('\\')
		}

		b.WriteRune(r)
	}

	b.WriteByte('\'')

	return b.String()
}

// quoteKey renders a member key or module path. Keys are never read as
// numbers, so digits stay bare.
func quoteKey(s string) string {
	if s != "" && (IsBareSymbol(s) || IsNumber(s) && !strings.HasPrefix(s, "-")) {
		return s
	}

	return singleQuote(s)
}

type formatter struct {
	w      io.StringWriter
	indent int
	depth  int
}

func (f *formatter) write(s string) { _, _ = f.w.WriteString(s) }

func (f *formatter) newline() {
	f.write("\n")
	f.write(strings.Repeat(" ", f.indent*f.depth))
}

func (f *formatter) statement(stmt Statement) {
	switch s := stmt.(type) {
	case *ImportStatement:
		f.write("import " + quoteKey(s.Path) + " for")

		if s.Wildcard {
			f.write(" *")
		}

		for _, name := range s.Names {
			f.write(" " + name)
		}

	case *AssignStatement:
		if s.Declare {
			f.write("let ")
		}

		switch s.Target.Kind {
		case TargetLocal:
			f.write(s.Target.Name)
		case TargetCvar:
			f.write("@" + s.Target.Name)
		case TargetMember:
			f.memberBase(s.Target.Base)
			f.path(s.Target.Path)
		}

		f.write(" = ")
		f.expr(s.Value)

	case *ReturnStatement:
		f.write("return")

		if s.Value != nil {
			f.write(" ")
			f.expr(s.Value)
		}

	case *Pipeline:
		f.pipeline(s)
	}
}

func (f *formatter) pipeline(pl *Pipeline) {
	for i, c := range pl.Calls {
		if i > 0 {
			f.write(" | ")
		}

		f.call(c)
	}
}

func (f *formatter) call(c Call) {
	var args []Arg

	switch c := c.(type) {
	case *NamedCall:
		f.write(QuoteString(c.Name))

		args = c.Args

	case *UnnamedCall:
		f.expr(c.Callee)

		args = c.Args
	}

	for _, arg := range args {
		f.write(" ")

		if arg.Splat {
			f.write("...")
		}

		f.expr(arg.Value)
	}
}

func (f *formatter) path(path []string) {
	for _, key := range path {
		f.write("->" + quoteKey(key))
	}
}

// memberBase writes the base of a member access. A bare symbol before "->"
// reads as a variable, so string bases are always quoted.
func (f *formatter) memberBase(e Expr) {
	if lit, ok := e.(*StringLiteral); ok {
		f.write(singleQuote(lit.Value))

		return
	}

	f.expr(e)
}

func (f *formatter) expr(e Expr) {
	switch e := e.(type) {
	case *StringLiteral:
		f.write(QuoteString(e.Value))

	case *NumberLiteral:
		f.write(strconv.FormatFloat(e.Value, 'f', -1, 64))

	case *InterpolatedString:
		f.write(`"`)

		for _, part := range e.Parts {
			if part.Subst != nil {
				f.substitution(part.Subst, true)

				continue
			}

			f.write(escapeDouble(part.Text))
		}

		f.write(`"`)

	case *ListLiteral:
		f.write("[")

		for i, item := range e.Items {
			if i > 0 {
				f.write(", ")
			}

			f.expr(item)
		}

		f.write("]")

	case *TableLiteral:
		if len(e.Entries) == 0 {
			f.write("[:]")

			return
		}

		f.write("[")

		for i, entry := range e.Entries {
			if i > 0 {
				f.write(", ")
			}

			f.expr(entry.Key)
			f.write(": ")
			f.expr(entry.Value)
		}

		f.write("]")

	case *Block:
		f.block(e)

	case *Subroutine:
		f.write("sub " + e.Name + " ")
		f.block(e.Body)

	case *MemberAccess:
		f.memberBase(e.Base)
		f.path(e.Path)

	case *Substitution:
		f.substitution(e, false)

	case *CvarRef:
		f.write("@" + e.Name)

	case *CvarScope:
		f.write("let @" + e.Name + " = ")
		f.expr(e.Value)
		f.write(" ")
		f.block(e.Body)

	case *Pipeline:
		f.write("(")
		f.pipeline(e)
		f.write(")")
	}
}

func (f *formatter) substitution(s *Substitution, quoted bool) {
	switch s.Kind {
	case SubstPipeline:
		f.write("$(")
		f.pipeline(s.Pipeline)
		f.write(")")

	case SubstFormat:
		f.write("${" + s.Name + ":" + s.Flags + "}")

	default:
		if quoted {
			f.write("${" + s.Name + "}")
		} else {
			f.write("$" + s.Name)
		}
	}
}

func (f *formatter) block(b *Block) {
	f.write("{")

	if len(b.Params) > 0 {
		f.write(" <")

		for i, param := range b.Params {
			if i > 0 {
				f.write(", ")
			}

			switch param.Kind {
			case ParamVararg:
				f.write("...")
			case ParamFlag:
				f.write("--")
			}

			f.write(param.Name)
		}

		f.write(">")
	}

	if len(b.Statements) == 0 {
		f.write(" }")

		return
	}

	if f.indent <= 0 {
		for i, stmt := range b.Statements {
			if i > 0 {
				f.write(";")
			}

			f.write(" ")
			f.statement(stmt)
		}

		f.write(" }")

		return
	}

	f.depth++

	for _, stmt := range b.Statements {
		f.newline()
		f.statement(stmt)
	}

	f.depth--
	f.newline()
	f.write("}")
}

func escapeDouble(s string) string {
	var b strings.Builder

	for _, r := range s {
		switch r {
		case '"', '\\', '$':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		case 0x1b:
			b.WriteString(`\e`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Format writes the canonical source of n to w. See [Program.Format].
func Format(w io.Writer, n Node, indent int) error {
	if prog, ok := n.(*Program); ok {
		return prog.Format(w, indent)
	}

	if _, err := io.WriteString(w, FormatNode(n)+"\n"); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}
