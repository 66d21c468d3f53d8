package lang

import "encoding/json"

// MarshalJSON implements [json.Marshaler].
func (prog *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(prog.ToMap())
}

// ToMap converts prog to nested maps and slices suitable for JSON and YAML
// encoding. Source positions are omitted, so two programs with the same
// structure have deep-equal maps.
func (prog *Program) ToMap() map[string]any {
	return map[string]any{
		"type":       "program",
		"statements": statementsToNative(prog.Statements),
	}
}

// ToNative converts any node to its map representation.
func ToNative(n Node) any {
	switch n := n.(type) {
	case nil:
		return nil
	case *Program:
		return n.ToMap()
	case Statement:
		return statementToNative(n)
	case Call:
		return callToNative(n)
	case Expr:
		return exprToNative(n)
	}

	return nil
}

func statementsToNative(stmts []Statement) []any {
	out := make([]any, len(stmts))
	for i, s := range stmts {
		out[i] = statementToNative(s)
	}

	return out
}

func stringsToNative(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}

func statementToNative(stmt Statement) any {
	switch s := stmt.(type) {
	case *ImportStatement:
		return map[string]any{
			"type":     "import",
			"path":     s.Path,
			"names":    stringsToNative(s.Names),
			"wildcard": s.Wildcard,
		}

	case *AssignStatement:
		target := map[string]any{"kind": s.Target.Kind.String()}

		switch s.Target.Kind {
		case TargetMember:
			target["base"] = exprToNative(s.Target.Base)
			target["path"] = stringsToNative(s.Target.Path)
		default:
			target["name"] = s.Target.Name
		}

		return map[string]any{
			"type":    "assign",
			"declare": s.Declare,
			"target":  target,
			"value":   exprToNative(s.Value),
		}

	case *ReturnStatement:
		m := map[string]any{"type": "return"}
		if s.Value != nil {
			m["value"] = exprToNative(s.Value)
		}

		return m

	case *Pipeline:
		return pipelineToNative(s)
	}

	return nil
}

func pipelineToNative(pl *Pipeline) map[string]any {
	calls := make([]any, len(pl.Calls))
	for i, c := range pl.Calls {
		calls[i] = callToNative(c)
	}

	return map[string]any{"type": "pipeline", "calls": calls}
}

func argsToNative(args []Arg) []any {
	out := make([]any, len(args))

	for i, a := range args {
		v := exprToNative(a.Value)
		if a.Splat {
			v = map[string]any{"type": "splat", "value": v}
		}

		out[i] = v
	}

	return out
}

func callToNative(c Call) any {
	switch c := c.(type) {
	case *NamedCall:
		return map[string]any{
			"type": "call",
			"name": c.Name,
			"args": argsToNative(c.Args),
		}

	case *UnnamedCall:
		return map[string]any{
			"type":   "call",
			"callee": exprToNative(c.Callee),
			"args":   argsToNative(c.Args),
		}
	}

	return nil
}

func blockToNative(b *Block) map[string]any {
	params := make([]any, len(b.Params))

	for i, p := range b.Params {
		kind := "positional"

		switch p.Kind {
		case ParamVararg:
			kind = "vararg"
		case ParamFlag:
			kind = "flag"
		}

		params[i] = map[string]any{"name": p.Name, "kind": kind}
	}

	return map[string]any{
		"type":       "block",
		"params":     params,
		"statements": statementsToNative(b.Statements),
	}
}

func substitutionToNative(s *Substitution) map[string]any {
	switch s.Kind {
	case SubstPipeline:
		return map[string]any{
			"type":     "capture",
			"pipeline": pipelineToNative(s.Pipeline),
		}

	case SubstFormat:
		return map[string]any{"type": "format", "name": s.Name, "flags": s.Flags}

	default:
		return map[string]any{"type": "variable", "name": s.Name}
	}
}

func exprToNative(e Expr) any {
	switch e := e.(type) {
	case nil:
		return nil

	case *StringLiteral:
		return e.Value

	case *NumberLiteral:
		return e.Value

	case *InterpolatedString:
		parts := make([]any, len(e.Parts))

		for i, part := range e.Parts {
			if part.Subst != nil {
				parts[i] = substitutionToNative(part.Subst)
			} else {
				parts[i] = part.Text
			}
		}

		return map[string]any{"type": "interpolate", "parts": parts}

	case *ListLiteral:
		items := make([]any, len(e.Items))
		for i, item := range e.Items {
			items[i] = exprToNative(item)
		}

		return map[string]any{"type": "list", "items": items}

	case *TableLiteral:
		entries := make([]any, len(e.Entries))
		for i, entry := range e.Entries {
			entries[i] = map[string]any{
				"key":   exprToNative(entry.Key),
				"value": exprToNative(entry.Value),
			}
		}

		return map[string]any{"type": "table", "entries": entries}

	case *Block:
		return blockToNative(e)

	case *Subroutine:
		return map[string]any{
			"type": "sub",
			"name": e.Name,
			"body": blockToNative(e.Body),
		}

	case *MemberAccess:
		return map[string]any{
			"type": "member",
			"base": exprToNative(e.Base),
			"path": stringsToNative(e.Path),
		}

	case *Substitution:
		return substitutionToNative(e)

	case *CvarRef:
		return map[string]any{"type": "cvar", "name": e.Name}

	case *CvarScope:
		return map[string]any{
			"type":  "cvar-scope",
			"name":  e.Name,
			"value": exprToNative(e.Value),
			"body":  blockToNative(e.Body),
		}

	case *Pipeline:
		return pipelineToNative(e)
	}

	return nil
}

// ToMap is [ToNative] for use with any node, including programs.
func ToMap(n Node) any { return ToNative(n) }
