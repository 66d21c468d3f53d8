package lang

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()

	prog, err := ParseString(t.Context(), src)
	if err != nil {
		t.Fatalf("ParseString(%q): %v", src, err)
	}

	return prog
}

// firstCall returns the first call of the first statement, which must be a
// pipeline.
func firstCall(t *testing.T, prog *Program) Call {
	t.Helper()

	if len(prog.Statements) == 0 {
		t.Fatal("no statements")
	}

	pl, ok := prog.Statements[0].(*Pipeline)
	if !ok {
		t.Fatalf("statement is %T, want *Pipeline", prog.Statements[0])
	}

	return pl.Calls[0]
}

// firstArg returns the first argument of "echo <expr>".
func firstArg(t *testing.T, src string) Expr {
	t.Helper()

	call, ok := firstCall(t, mustParse(t, "echo "+src)).(*NamedCall)
	if !ok || len(call.Args) == 0 {
		t.Fatalf("echo %s: no arguments", src)
	}

	return call.Args[0].Value
}

func TestParseString_Statements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "empty", input: "", want: 0},
		{name: "blank lines and comments", input: "\n\n  # note\n echo hi # trailing\n", want: 1},
		{name: "single call", input: "echo hello", want: 1},
		{name: "semicolons and newlines", input: "a; b\nc", want: 3},
		{name: "repeated separators", input: ";;a;;\n\n;b;", want: 2},
		{name: "crlf", input: "a\r\nb\r\n", want: 2},
		{name: "cr only", input: "a\rb", want: 2},
		{name: "line continuation", input: "echo a \\\n  b", want: 1},
		{name: "pipeline across lines", input: "ls | grep x\n| wc\n\n| cat", want: 1},
		{name: "parenthesized newlines", input: "echo (ls\n|\nwc)\necho", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.input)
			if len(prog.Statements) != tt.want {
				t.Errorf("got %d statements, want %d", len(prog.Statements), tt.want)
			}
		})
	}
}

func TestParseString_Calls(t *testing.T) {
	t.Run("named", func(t *testing.T) {
		call, ok := firstCall(t, mustParse(t, "echo hello 'world'")).(*NamedCall)
		if !ok {
			t.Fatal("want *NamedCall")
		}

		if call.Name != "echo" || len(call.Args) != 2 {
			t.Errorf("got %s with %d args", call.Name, len(call.Args))
		}
	})

	t.Run("quoted name", func(t *testing.T) {
		call, ok := firstCall(t, mustParse(t, "'my cmd' x")).(*NamedCall)
		if !ok || call.Name != "my cmd" {
			t.Fatalf("got %#v", call)
		}
	})

	t.Run("variable callee", func(t *testing.T) {
		call, ok := firstCall(t, mustParse(t, "$f a b")).(*UnnamedCall)
		if !ok {
			t.Fatal("want *UnnamedCall")
		}

		sub, ok := call.Callee.(*Substitution)
		if !ok || sub.Name != "f" || len(call.Args) != 2 {
			t.Errorf("got callee %#v with %d args", call.Callee, len(call.Args))
		}
	})

	t.Run("block callee", func(t *testing.T) {
		call, ok := firstCall(t, mustParse(t, "{ <x> echo $x } 1")).(*UnnamedCall)
		if !ok {
			t.Fatal("want *UnnamedCall")
		}

		if _, ok := call.Callee.(*Block); !ok {
			t.Errorf("callee is %T, want *Block", call.Callee)
		}
	})

	t.Run("splat", func(t *testing.T) {
		call := firstCall(t, mustParse(t, "echo ...$xs ... ...[1 2]")).(*NamedCall)
		if len(call.Args) != 3 {
			t.Fatalf("got %d args, want 3", len(call.Args))
		}

		want := []bool{true, false, true}
		for i, arg := range call.Args {
			if arg.Splat != want[i] {
				t.Errorf("arg %d: splat = %v, want %v", i, arg.Splat, want[i])
			}
		}

		if lit, ok := call.Args[1].Value.(*StringLiteral); !ok || lit.Value != "..." {
			t.Errorf("arg 1 = %#v, want symbol ...", call.Args[1].Value)
		}
	})

	t.Run("stages", func(t *testing.T) {
		pl := mustParse(t, "ls -la | grep rip | wc -l").Statements[0].(*Pipeline)
		if len(pl.Calls) != 3 {
			t.Fatalf("got %d stages, want 3", len(pl.Calls))
		}

		names := []string{"ls", "grep", "wc"}
		for i, c := range pl.Calls {
			if got := c.(*NamedCall).Name; got != names[i] {
				t.Errorf("stage %d = %s, want %s", i, got, names[i])
			}
		}
	})
}

func TestParseString_Assignments(t *testing.T) {
	tests := []struct {
		input   string
		kind    TargetKind
		name    string
		path    []string
		declare bool
	}{
		{input: "let x = 1", kind: TargetLocal, name: "x", declare: true},
		{input: "x = foo", kind: TargetLocal, name: "x"},
		{input: "echo = x", kind: TargetLocal, name: "echo"},
		{input: "@cwd = /tmp", kind: TargetCvar, name: "cwd"},
		{input: "let @x = 1", kind: TargetCvar, name: "x", declare: true},
		{input: "t->a->b = 2", kind: TargetMember, path: []string{"a", "b"}},
		{input: "$t->'a b' = 2", kind: TargetMember, path: []string{"a b"}},
		{input: "@environment->PATH = /bin", kind: TargetMember, path: []string{"PATH"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmt, ok := mustParse(t, tt.input).Statements[0].(*AssignStatement)
			if !ok {
				t.Fatal("want *AssignStatement")
			}

			if stmt.Target.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", stmt.Target.Kind, tt.kind)
			}

			if stmt.Declare != tt.declare {
				t.Errorf("declare = %v, want %v", stmt.Declare, tt.declare)
			}

			if tt.kind != TargetMember {
				if stmt.Target.Name != tt.name {
					t.Errorf("name = %q, want %q", stmt.Target.Name, tt.name)
				}

				return
			}

			if strings.Join(stmt.Target.Path, "/") != strings.Join(tt.path, "/") {
				t.Errorf("path = %q, want %q", stmt.Target.Path, tt.path)
			}

			switch stmt.Target.Base.(type) {
			case *Substitution, *CvarRef:
			default:
				t.Errorf("base is %T", stmt.Target.Base)
			}
		})
	}

	t.Run("equals as argument", func(t *testing.T) {
		call, ok := firstCall(t, mustParse(t, "echo x = y")).(*NamedCall)
		if !ok || len(call.Args) != 3 {
			t.Fatalf("got %#v", call)
		}
	})
}

func TestParseString_Literals(t *testing.T) {
	t.Run("numbers", func(t *testing.T) {
		for src, want := range map[string]float64{"42": 42, "-3.5": -3.5, "0": 0} {
			num, ok := firstArg(t, src).(*NumberLiteral)
			if !ok || num.Value != want {
				t.Errorf("%s: got %#v", src, firstArg(t, src))
			}
		}
	})

	t.Run("strings", func(t *testing.T) {
		tests := map[string]string{
			`1.2.3`:      "1.2.3",
			`"a\tb"`:     "a\tb",
			`'it\'s'`:    "it's",
			`'a\nb'`:     `a\nb`,
			`"\$HOME"`:   "$HOME",
			`"cost: $"`:  "cost: $",
			`/usr/bin`:   "/usr/bin",
			`--verbose`:  "--verbose",
			`"a\e[0m\0"`: "a\x1b[0m\x00",
		}

		for src, want := range tests {
			lit, ok := firstArg(t, src).(*StringLiteral)
			if !ok || lit.Value != want {
				t.Errorf("%s: got %#v, want %q", src, firstArg(t, src), want)
			}
		}
	})

	t.Run("interpolation", func(t *testing.T) {
		str, ok := firstArg(t, `"hi $name!"`).(*InterpolatedString)
		if !ok || len(str.Parts) != 3 {
			t.Fatalf("got %#v", firstArg(t, `"hi $name!"`))
		}

		if str.Parts[0].Text != "hi " || str.Parts[1].Subst.Name != "name" ||
			str.Parts[2].Text != "!" {
			t.Errorf("parts = %#v", str.Parts)
		}
	})

	t.Run("list", func(t *testing.T) {
		list, ok := firstArg(t, "[1, 2 3]").(*ListLiteral)
		if !ok || len(list.Items) != 3 {
			t.Errorf("got %#v", firstArg(t, "[1, 2 3]"))
		}

		if list, ok := firstArg(t, "[]").(*ListLiteral); !ok || len(list.Items) != 0 {
			t.Error("[] is not an empty list")
		}

		multi, ok := firstArg(t, "[\n  a\n  b\n]").(*ListLiteral)
		if !ok || len(multi.Items) != 2 {
			t.Error("multi-line list")
		}
	})

	t.Run("table", func(t *testing.T) {
		if table, ok := firstArg(t, "[:]").(*TableLiteral); !ok || len(table.Entries) != 0 {
			t.Error("[:] is not an empty table")
		}

		table, ok := firstArg(t, "[a: 1, b: 2\n c: 3]").(*TableLiteral)
		if !ok || len(table.Entries) != 3 {
			t.Fatalf("got %#v", firstArg(t, "[a: 1, b: 2\n c: 3]"))
		}

		if key := table.Entries[1].Key.(*StringLiteral).Value; key != "b" {
			t.Errorf("key 1 = %q, want b", key)
		}
	})

	t.Run("cvar", func(t *testing.T) {
		ref, ok := firstArg(t, "@environment").(*CvarRef)
		if !ok || ref.Name != "environment" {
			t.Errorf("got %#v", firstArg(t, "@environment"))
		}
	})

	t.Run("substitutions", func(t *testing.T) {
		tests := []struct {
			src   string
			kind  SubstKind
			name  string
			flags string
		}{
			{src: "$x", kind: SubstVariable, name: "x"},
			{src: "${x}", kind: SubstVariable, name: "x"},
			{src: "${x:}", kind: SubstVariable, name: "x"},
			{src: "${n:05.1f}", kind: SubstFormat, name: "n", flags: "05.1f"},
			{src: "$(ls | wc)", kind: SubstPipeline},
		}

		for _, tt := range tests {
			sub, ok := firstArg(t, tt.src).(*Substitution)
			if !ok {
				t.Errorf("%s: got %T", tt.src, firstArg(t, tt.src))

				continue
			}

			if sub.Kind != tt.kind || sub.Name != tt.name || sub.Flags != tt.flags {
				t.Errorf("%s: got %#v", tt.src, sub)
			}

			if tt.kind == SubstPipeline && len(sub.Pipeline.Calls) != 2 {
				t.Errorf("%s: got %d stages", tt.src, len(sub.Pipeline.Calls))
			}
		}
	})

	t.Run("member access", func(t *testing.T) {
		member, ok := firstArg(t, "x->y->'z z'").(*MemberAccess)
		if !ok {
			t.Fatalf("got %T", firstArg(t, "x->y->'z z'"))
		}

		if sub, ok := member.Base.(*Substitution); !ok || sub.Name != "x" {
			t.Errorf("base = %#v, want variable x", member.Base)
		}

		if strings.Join(member.Path, "|") != "y|z z" {
			t.Errorf("path = %q", member.Path)
		}

		quoted := firstArg(t, "'x'->y").(*MemberAccess)
		if lit, ok := quoted.Base.(*StringLiteral); !ok || lit.Value != "x" {
			t.Errorf("quoted base = %#v, want string x", quoted.Base)
		}
	})

	t.Run("pipeline", func(t *testing.T) {
		pl, ok := firstArg(t, "(a b | c)").(*Pipeline)
		if !ok || len(pl.Calls) != 2 {
			t.Errorf("got %#v", firstArg(t, "(a b | c)"))
		}
	})

	t.Run("subroutine", func(t *testing.T) {
		sub, ok := firstArg(t, "sub greet { <n> echo $n }").(*Subroutine)
		if !ok || sub.Name != "greet" || len(sub.Body.Params) != 1 {
			t.Errorf("got %#v", firstArg(t, "sub greet { <n> echo $n }"))
		}
	})

	t.Run("cvar scope", func(t *testing.T) {
		scope, ok := firstArg(t, "let @cwd = /tmp { ls }").(*CvarScope)
		if !ok || scope.Name != "cwd" || len(scope.Body.Statements) != 1 {
			t.Errorf("got %#v", firstArg(t, "let @cwd = /tmp { ls }"))
		}
	})
}

func TestParseString_CvarScopeStatement(t *testing.T) {
	prog := mustParse(t, "let @cwd = /tmp { ls } | wc")

	pl, ok := prog.Statements[0].(*Pipeline)
	if !ok || len(pl.Calls) != 2 {
		t.Fatalf("got %#v", prog.Statements[0])
	}

	head, ok := pl.Calls[0].(*UnnamedCall)
	if !ok {
		t.Fatalf("stage 0 is %T", pl.Calls[0])
	}

	if _, ok := head.Callee.(*CvarScope); !ok {
		t.Errorf("callee is %T, want *CvarScope", head.Callee)
	}
}

func TestParseString_Params(t *testing.T) {
	block, ok := firstArg(t, "{ <a, b --flag ...rest> echo }").(*Block)
	if !ok {
		t.Fatal("want *Block")
	}

	want := []Param{
		{Name: "a", Kind: ParamPositional},
		{Name: "b", Kind: ParamPositional},
		{Name: "flag", Kind: ParamFlag},
		{Name: "rest", Kind: ParamVararg},
	}

	if len(block.Params) != len(want) {
		t.Fatalf("got %d params, want %d", len(block.Params), len(want))
	}

	for i, p := range block.Params {
		if p != want[i] {
			t.Errorf("param %d = %+v, want %+v", i, p, want[i])
		}
	}

	if v, ok := block.Vararg(); !ok || v.Name != "rest" {
		t.Errorf("Vararg() = %+v, %v", v, ok)
	}

	if len(block.Statements) != 1 {
		t.Errorf("got %d statements, want 1", len(block.Statements))
	}
}

func TestParseString_Imports(t *testing.T) {
	stmt := mustParse(t, "import 'lib/util.rip' for a b").Statements[0].(*ImportStatement)
	if stmt.Path != "lib/util.rip" || strings.Join(stmt.Names, ",") != "a,b" || stmt.Wildcard {
		t.Errorf("got %+v", stmt)
	}

	stmt = mustParse(t, "import util for *").Statements[0].(*ImportStatement)
	if stmt.Path != "util" || !stmt.Wildcard || len(stmt.Names) != 0 {
		t.Errorf("got %+v", stmt)
	}
}

func TestParseString_Return(t *testing.T) {
	block := firstArg(t, "{ return; return 1 }").(*Block)
	if len(block.Statements) != 2 {
		t.Fatalf("got %d statements", len(block.Statements))
	}

	if r := block.Statements[0].(*ReturnStatement); r.Value != nil {
		t.Errorf("bare return has value %#v", r.Value)
	}

	if r := block.Statements[1].(*ReturnStatement); r.Value == nil {
		t.Error("return 1 has no value")
	}
}

func TestParseString_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		line     int
		column   int
		expected string
	}{
		{name: "reserved let", input: "let let = 1", line: 1, column: 5, expected: "reserved word"},
		{name: "reserved argument", input: "echo return", line: 1, column: 6, expected: "reserved word"},
		{name: "vararg not last", input: "{ <...a, b> }", line: 1, column: 10, expected: "vararg"},
		{name: "duplicate param", input: "{ <a, a> }", line: 1, column: 7, expected: "unique"},
		{name: "unterminated double", input: `echo "abc`, line: 1, column: 6, expected: `closing '"'`},
		{name: "unterminated single", input: `echo 'abc`, line: 1, column: 6, expected: "closing"},
		{name: "unclosed paren", input: "echo ok\necho (a b", line: 2, expected: "')'"},
		{name: "unclosed list", input: "echo [1, 2", line: 1, expected: "expression"},
		{name: "unclosed block", input: "{ echo", line: 1, expected: "'}'"},
		{name: "sub without name", input: "sub { }", line: 1, column: 5, expected: "subroutine name"},
		{name: "import without for", input: "import foo", line: 1, expected: "'for'"},
		{name: "stray paren", input: "echo x)", line: 1, column: 7, expected: "newline or ';'"},
		{name: "stray brace", input: "echo }", line: 1, column: 6, expected: "newline or ';'"},
		{name: "bad escape", input: `echo "\q"`, line: 1, column: 7, expected: "escape"},
		{name: "scope without body", input: "echo (let @x = 1)", line: 1, expected: "'{'"},
		{name: "missing space", input: "echo 'a''b'", line: 1, column: 9, expected: "whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseString(t.Context(), tt.input)
			if err == nil {
				t.Fatalf("expected error, got %s", prog)
			}

			if prog != nil {
				t.Error("failed parse returned a program")
			}

			if !errors.Is(err, ErrParse) {
				t.Errorf("errors.Is(err, ErrParse) = false for %v", err)
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error is %T, want *ParseError", err)
			}

			if pe.Pos.Line != tt.line {
				t.Errorf("line = %d, want %d", pe.Pos.Line, tt.line)
			}

			if tt.column != 0 && pe.Pos.Column != tt.column {
				t.Errorf("column = %d, want %d", pe.Pos.Column, tt.column)
			}

			if !strings.Contains(pe.Expected, tt.expected) {
				t.Errorf("expected = %q, want it to contain %q", pe.Expected, tt.expected)
			}
		})
	}
}

func TestParseString_Positions(t *testing.T) {
	prog := mustParse(t, "echo a\n  echo b\r\n\techo c")

	want := []Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 9, Line: 2, Column: 3},
		{Offset: 18, Line: 3, Column: 2},
	}

	for i, stmt := range prog.Statements {
		if got := stmt.Position(); got != want[i] {
			t.Errorf("statement %d at %+v, want %+v", i, got, want[i])
		}
	}

	call := firstCall(t, prog).(*NamedCall)
	if got := call.Args[0].Value.Position(); got.Column != 6 {
		t.Errorf("argument at column %d, want 6", got.Column)
	}
}

func TestIsBareSymbol(t *testing.T) {
	tests := map[string]bool{
		"echo":  true,
		"-l":    true,
		"...":   true,
		"/tmp":  true,
		"a=b":   true,
		"":      false,
		"=":     false,
		"let":   false,
		"42":    false,
		"-1.5":  false,
		"a->b":  false,
		"...x":  false,
		"a b":   false,
		"a;b":   false,
		"$x":    false,
		"it's":  false,
		"x:y":   false,
		"héllo": true,
	}

	for s, want := range tests {
		if got := IsBareSymbol(s); got != want {
			t.Errorf("IsBareSymbol(%q) = %v, want %v", s, got, want)
		}
	}
}
