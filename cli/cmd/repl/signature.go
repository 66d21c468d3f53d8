package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/lang"
)

// Styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// blockCall is the call being typed at the cursor.
type blockCall struct {
	name     string // name of the called block
	argIndex int    // positional argument under the cursor (0-based)
	inCall   bool   // true once the name is followed by whitespace
}

// detectCall finds the command of the pipeline stage containing the cursor
// and counts the positional arguments typed before it. Flags ("--name") do
// not count as positional arguments.
func detectCall(input string, cursor int) blockCall {
	cursor = min(cursor, len(input))

	var (
		start int
		quote rune
	)

	for i, r := range input[:cursor] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case strings.ContainsRune("|;{}()[]", r):
			start = i + 1
		}
	}

	stage := input[start:cursor]

	// Skip the parameter list opening a block.
	if rest, ok := strings.CutPrefix(strings.TrimLeft(stage, " \t"), "<"); ok {
		_, after, found := strings.Cut(rest, ">")
		if !found {
			return blockCall{}
		}

		stage = after
	}

	fields := strings.Fields(stage)
	if len(fields) == 0 {
		return blockCall{}
	}

	if len(fields) == 1 && !strings.HasSuffix(stage, " ") && !strings.HasSuffix(stage, "\t") {
		return blockCall{}
	}

	call := blockCall{name: fields[0], inCall: true}

	args := fields[1:]

	// The word under the cursor is still being typed.
	if !strings.HasSuffix(stage, " ") && !strings.HasSuffix(stage, "\t") && len(args) > 0 {
		if strings.HasPrefix(args[len(args)-1], "--") {
			call.argIndex = -1

			return call
		}

		args = args[:len(args)-1]
	}

	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			call.argIndex++
		}
	}

	return call
}

// paramNames returns the declared parameters of a block as they are written
// in source.
func paramNames(c *interp.Closure) []string {
	if c == nil || c.Block == nil {
		return nil
	}

	names := make([]string, len(c.Block.Params))

	for i, p := range c.Block.Params {
		switch p.Kind {
		case lang.ParamVararg:
			names[i] = "..." + p.Name
		case lang.ParamFlag:
			names[i] = "--" + p.Name
		default:
			names[i] = p.Name
		}
	}

	return names
}

// getSignature returns the parameters of the block bound to name, and false
// if name is not bound to a block.
func getSignature(rt *interp.Runtime, name string) ([]lang.Param, bool) {
	if rt == nil {
		return nil, false
	}

	v, ok := rt.Globals().Lookup(name)
	if !ok {
		return nil, false
	}

	c, ok := v.(*interp.Closure)
	if !ok || c.Block == nil {
		return nil, false
	}

	return c.Block.Params, true
}

// renderSignatureHint renders the call signature with the parameter that
// receives the argument at argIndex highlighted. A vararg parameter receives
// every argument past the preceding positional ones.
func renderSignatureHint(name string, params []lang.Param, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))

	positional := 0

	for _, p := range params {
		b.WriteString(" ")

		var (
			text    string
			current bool
		)

		switch p.Kind {
		case lang.ParamFlag:
			text = "[--" + p.Name + "]"

		case lang.ParamVararg:
			text = "..." + p.Name
			current = argIndex >= positional

		default:
			text = p.Name
			current = argIndex == positional
			positional++
		}

		if current {
			b.WriteString(currentParamStyle.Render(text))
		} else {
			b.WriteString(signatureStyle.Render(text))
		}
	}

	return b.String()
}
