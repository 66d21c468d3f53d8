package stdlib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
)

func TestLoader_Script(t *testing.T) {
	h := newHarness(t)

	h.write(t, "util.rip", "let greet = { <n> return \"hi ${n}\" }\nlet hidden-count = 1")

	got := h.output(t, "import util for greet\nprintln (greet bob)\nimport 'util.rip' for *\nprintln $hidden-count")
	if want := "hi bob\n1\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestLoader_Export(t *testing.T) {
	h := newHarness(t)

	h.write(t, "shapes.rip", `let helper = inner
let area = { <w> return "${w}x${helper}" }
export area
let setup = { export kind square }
setup`)

	if got := h.output(t, "import shapes for *\nprintln (area 3) $kind"); got != "3xinner square\n" {
		t.Errorf("output = %q, want %q", got, "3xinner square\n")
	}

	_, err := h.run(t, "import shapes for helper")
	if err == nil || !strings.Contains(err.Error(), "has no member helper") {
		t.Errorf("error = %v, want the unexported binding rejected", err)
	}
}

func TestLoader_SearchPath(t *testing.T) {
	lib := t.TempDir()

	if err := os.WriteFile(filepath.Join(lib, "answer.rip"), []byte("let answer = 42"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t, interp.WithModuleLoader(NewLoader(lib)))

	got := h.output(t, "import answer for answer\nprintln $answer\nimport "+lang.QuoteString(filepath.Join(lib, "answer"))+" for *")
	if got != "42\n" {
		t.Errorf("output = %q", got)
	}
}

func TestLoader_Native(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "string",
			src:  "import string for *\nprintln (join [a b c] -) (split 'a b  c') (trim '  x ') (replace aXa X Y) (upper abc)",
			want: "a-b-c [a, b, c] x aYa ABC\n",
		},
		{
			name: "lang",
			src:  "import lang for format quote\nprintln (format 'ls|wc -l') (quote 'a b')",
			want: "ls | wc -l 'a b'\n",
		},
		{
			name: "process",
			src:  "import process for pid\nprintln (pid)",
			want: "0\n",
		},
		{
			name: "fs",
			src:  "import fs for *\nsend a b | write out.txt\nread out.txt | { loop { println got (recv) } }\nread out.txt",
			want: "got a\ngot b\na\nb\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			if got := h.output(t, tt.src); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		src   string
		want  string
	}{
		{
			name: "missing",
			src:  "import nowhere for x",
			want: "module not found: nowhere",
		},
		{
			name:  "cycle",
			files: map[string]string{"a.rip": "import b for *", "b.rip": "import a for *"},
			src:   "import a for *",
			want:  "import cycle",
		},
		{
			name:  "parse error",
			files: map[string]string{"bad.rip": "let = ="},
			src:   "import bad for *",
			want:  "import",
		},
		{
			name: "missing member",
			src:  "import string for nope",
			want: "has no member nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			for name, content := range tt.files {
				h.write(t, name, content)
			}

			_, err := h.run(t, tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestNativeModules(t *testing.T) {
	for _, name := range NativeModules() {
		m, ok := native(name)
		if !ok || len(m) == 0 {
			t.Errorf("native module %s has no exports", name)
		}
	}

	if _, ok := native("nope"); ok {
		t.Error("unexpected native module nope")
	}
}
