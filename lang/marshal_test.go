package lang

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestProgram_ToMap(t *testing.T) {
	prog := mustParse(t, "let x = [a: 1]\necho ...$x")

	want := map[string]any{
		"type": "program",
		"statements": []any{
			map[string]any{
				"type":    "assign",
				"declare": true,
				"target":  map[string]any{"kind": "local", "name": "x"},
				"value": map[string]any{
					"type": "table",
					"entries": []any{
						map[string]any{"key": "a", "value": float64(1)},
					},
				},
			},
			map[string]any{
				"type": "pipeline",
				"calls": []any{
					map[string]any{
						"type": "call",
						"name": "echo",
						"args": []any{
							map[string]any{
								"type":  "splat",
								"value": map[string]any{"type": "variable", "name": "x"},
							},
						},
					},
				},
			},
		},
	}

	if got := prog.ToMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("ToMap() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestToMap_IgnoresPositions(t *testing.T) {
	a := mustParse(t, "echo  (a|b)  $c")
	b := mustParse(t, "\n\necho (a | b) $c")

	if !reflect.DeepEqual(ToMap(a), ToMap(b)) {
		t.Error("layout changed the structure")
	}

	c := mustParse(t, "echo (a | b) $d")
	if reflect.DeepEqual(ToMap(a), ToMap(c)) {
		t.Error("different programs have equal structure")
	}
}

func TestProgram_MarshalJSON(t *testing.T) {
	prog := mustParse(t, "{ <n, --v, ...r> return $n }")

	data, err := json.Marshal(prog)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	stmts, ok := result["statements"].([]any)
	if !ok || len(stmts) != 1 {
		t.Fatalf("statements = %v", result["statements"])
	}

	call := stmts[0].(map[string]any)["calls"].([]any)[0].(map[string]any)

	block, ok := call["callee"].(map[string]any)
	if !ok || block["type"] != "block" {
		t.Fatalf("callee = %v", call["callee"])
	}

	params := block["params"].([]any)
	kinds := []string{"positional", "flag", "vararg"}

	for i, p := range params {
		if got := p.(map[string]any)["kind"]; got != kinds[i] {
			t.Errorf("param %d kind = %v, want %s", i, got, kinds[i])
		}
	}
}
