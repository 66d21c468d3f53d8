package repl

import (
	"reflect"
	"slices"
	"testing"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/log"
)

func newTestRuntime(t *testing.T) *interp.Runtime {
	t.Helper()

	rt := interp.New(
		interp.WithLogger(log.Discard()),
		interp.WithStdout(nil),
		interp.WithStderr(nil),
		interp.WithEnviron([]string{"HOME=/h", "PATH=/p"}),
		interp.WithDir(t.TempDir()),
	)

	t.Cleanup(func() { _ = rt.Close(t.Context()) })

	net := interp.TableOf(map[string]interp.Value{"port": interp.Number(22)})
	rt.Globals().Declare("conf", interp.TableOf(map[string]interp.Value{
		"net":  net,
		"name": interp.String("box"),
	}))
	rt.Globals().Declare("count", interp.Number(3))

	return rt
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"after_pipe", "ls | gr", 7, "gr", 5, 7},
		{"after_variable_sigil", "echo $co", 8, "co", 6, 8},
		{"after_context_sigil", "echo @cw", 8, "cw", 6, 8},
		{"after_arrow", "$conf->ne", 9, "ne", 7, 9},
		{"empty_after_arrow", "$conf->", 7, "", 7, 7},
		{"inside_block", "{ pr", 4, "pr", 2, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"empty_at_boundary", "ls | ", 5, "", 5, 5},
		// Hyphens are part of names.
		{"hyphenated", "path-prepend", 12, "path-prepend", 0, 12},
		{"hyphenated_partial", "echo x; path-pr", 15, "path-pr", 8, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentRef(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      reference
	}{
		{"top_level", "fo", 0, reference{}},
		{"variable", "echo $co", 6, reference{sigil: '$'}},
		{"context", "echo @cw", 6, reference{sigil: '@'}},
		{"member", "$conf->", 7, reference{sigil: '$', path: []string{"conf"}}},
		{"deep_member", "$conf->net->", 12, reference{sigil: '$', path: []string{"conf", "net"}}},
		{"context_member", "@environment->", 14, reference{sigil: '@', path: []string{"environment"}}},
		{"bare_member", "conf->", 6, reference{path: []string{"conf"}}},
		{"dangling_arrow", "->", 2, reference{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentRef(tt.input, tt.wordStart)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parentRef(%q, %d) = %+v, want %+v",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestChildCandidates(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name string
		ref  reference
		want []string
	}{
		{"variables", reference{sigil: '$'}, []string{"conf", "count"}},
		{"context", reference{sigil: '@'}, []string{"cwd", "environment"}},
		{"members", reference{sigil: '$', path: []string{"conf"}}, []string{"name", "net"}},
		{"nested", reference{sigil: '$', path: []string{"conf", "net"}}, []string{"port"}},
		{"environment", reference{sigil: '@', path: []string{"environment"}}, []string{"HOME", "PATH"}},
		{"not_a_table", reference{sigil: '$', path: []string{"count"}}, nil},
		{"missing", reference{sigil: '$', path: []string{"conf", "nope"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := childCandidates(rt, tt.ref)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("childCandidates(%+v) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}

	t.Run("commands", func(t *testing.T) {
		got := childCandidates(rt, reference{})

		for _, name := range append(rt.Builtins(), "conf", "count") {
			if !slices.Contains(got, name) {
				t.Errorf("candidates missing %q", name)
			}
		}

		if !slices.IsSorted(got) {
			t.Errorf("candidates not sorted: %v", got)
		}
	})

	if got := childCandidates(nil, reference{}); got != nil {
		t.Errorf("childCandidates(nil) = %v, want nil", got)
	}
}

func TestPreview(t *testing.T) {
	rt := newTestRuntime(t)

	v, _ := rt.Globals().Lookup("conf")
	if got, want := preview(v), "table [name net]"; got != want {
		t.Errorf("preview(table) = %q, want %q", got, want)
	}

	if _, err := rt.ExecuteString(t.Context(), "greet = {<name, --loud, ...rest> echo $name}"); err != nil {
		t.Fatal(err)
	}

	v, _ = rt.Globals().Lookup("greet")
	if got, want := preview(v), "block {name --loud ...rest}"; got != want {
		t.Errorf("preview(block) = %q, want %q", got, want)
	}
}
