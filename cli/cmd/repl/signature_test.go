package repl

import (
	"strings"
	"testing"

	"github.com/ardnew/riptide/lang"
)

func TestDetectCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"empty", "", "", 0, false},
		{"typing name", "gre", "", 0, false},
		{"first arg", "greet ", "greet", 0, true},
		{"typing first arg", "greet bo", "greet", 0, true},
		{"second arg", "greet bob ", "greet", 1, true},
		{"flags do not count", "greet --loud bob ", "greet", 1, true},
		{"typing flag", "greet bob --lo", "greet", -1, true},
		{"after pipe", "ls | greet a ", "greet", 1, true},
		{"after semicolon", "x = 1; greet ", "greet", 0, true},
		{"inside block", "each {<x> greet ", "greet", 0, true},
		{"quoted pipe", "greet 'a|b' ", "greet", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectCall(tt.input, len(tt.input))
			if got.name != tt.wantName || got.argIndex != tt.wantIndex || got.inCall != tt.wantInCall {
				t.Errorf("detectCall(%q) = %+v, want {name:%s argIndex:%d inCall:%v}",
					tt.input, got, tt.wantName, tt.wantIndex, tt.wantInCall)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	rt := newTestRuntime(t)

	if _, err := rt.ExecuteString(t.Context(), "greet = {<name, --loud, ...rest> echo $name}"); err != nil {
		t.Fatal(err)
	}

	params, ok := getSignature(rt, "greet")
	if !ok || len(params) != 3 {
		t.Fatalf("getSignature(greet) = %v, %v", params, ok)
	}

	if params[1].Kind != lang.ParamFlag || params[2].Kind != lang.ParamVararg {
		t.Errorf("params = %+v", params)
	}

	for _, name := range []string{"count", "missing"} {
		if _, ok := getSignature(rt, name); ok {
			t.Errorf("getSignature(%s) ok = true, want false", name)
		}
	}
}

func TestRenderSignatureHint(t *testing.T) {
	params := []lang.Param{
		{Name: "name", Kind: lang.ParamPositional},
		{Name: "loud", Kind: lang.ParamFlag},
		{Name: "rest", Kind: lang.ParamVararg},
	}

	got := renderSignatureHint("greet", params, 0)

	for _, want := range []string{"greet", "name", "[--loud]", "...rest"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderSignatureHint() = %q, missing %q", got, want)
		}
	}
}
