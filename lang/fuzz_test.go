package lang

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzParseString checks that the parser never panics and that any program
// it accepts survives formatting.
func FuzzParseString(f *testing.F) {
	for _, src := range roundTrip {
		f.Add(src)
	}

	f.Add("")
	f.Add("echo (")
	f.Add(`"${x:`)
	f.Add("{ <...")
	f.Add("a->->b")
	f.Add("[a: ]")
	f.Add("\\\n\\")

	f.Fuzz(func(t *testing.T, src string) {
		if !utf8.ValidString(src) || strings.ContainsRune(src, 0) {
			t.Skip("invalid input")
		}

		prog, err := ParseString(t.Context(), src)
		if err != nil {
			return
		}

		again, err := ParseString(t.Context(), prog.String())
		if err != nil {
			t.Fatalf("formatted program does not parse: %q: %v", prog.String(), err)
		}

		if !reflect.DeepEqual(prog.ToMap(), again.ToMap()) {
			t.Errorf("structure changed: %q -> %q", src, prog.String())
		}
	})
}
