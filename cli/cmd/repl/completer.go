package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/riptide/interp"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "clear", "quit"}

// contextVars are the context variables every session defines.
var contextVars = []string{"cwd", "environment"}

// isNameRune reports whether r may appear in a variable or command name.
func isNameRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds returns the name at the cursor position and its byte boundaries
// within input. Returns an empty word when the cursor is not touching a name.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isNameRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// reference is the expression a word is completed against: a sigil and the
// chain of member names leading up to the word. For "$conf->net->po" the
// sigil is '$' and the path is [conf net].
type reference struct {
	sigil rune
	path  []string
}

// parentRef returns the reference preceding the word that starts at
// wordStart.
func parentRef(input string, wordStart int) reference {
	var (
		ref    reference
		prefix = input[:wordStart]
	)

	for {
		rest, ok := strings.CutSuffix(prefix, "->")
		if !ok {
			break
		}

		name, start, _ := wordBounds(rest, len(rest))
		if name == "" {
			return reference{}
		}

		ref.path = append([]string{name}, ref.path...)
		prefix = rest[:start]
	}

	if r, _ := utf8.DecodeLastRuneInString(prefix); r == '$' || r == '@' {
		ref.sigil = r
	}

	return ref
}

// childCandidates returns the names that may complete a word following ref.
func childCandidates(rt *interp.Runtime, ref reference) []string {
	if rt == nil {
		return nil
	}

	if len(ref.path) == 0 {
		switch ref.sigil {
		case '@':
			return contextVars
		case '$':
			return sortedNames(rt.Globals().Bindings())
		}

		names := append(rt.Builtins(), sortedNames(rt.Globals().Bindings())...)
		slices.Sort(names)

		return slices.Compact(names)
	}

	var (
		v  interp.Value
		ok bool
	)

	if ref.sigil == '@' {
		v, ok = rt.Cvar(ref.path[0])
	} else {
		v, ok = rt.Globals().Lookup(ref.path[0])
	}

	if !ok {
		return nil
	}

	for _, key := range ref.path[1:] {
		t, isTable := v.(*interp.Table)
		if !isTable {
			return nil
		}

		if v, ok = t.Lookup(key); !ok {
			return nil
		}
	}

	t, isTable := v.(*interp.Table)
	if !isTable {
		return nil
	}

	keys := t.Keys()
	slices.Sort(keys)

	return keys
}

func sortedNames(m map[string]interp.Value) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// computeMatches ranks the candidates for the word under the cursor.
//
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty it returns nil matches, except
// after a member arrow, where every member is listed.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	if m.mode == modeCtrl {
		candidates = ctrlCommands
	} else {
		ref := parentRef(input, wordStart)
		candidates = childCandidates(m.rt, ref)

		if word == "" && len(ref.path) > 0 && len(candidates) > 0 {
			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if word == "" || len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle, highlight := suggestionStyle, matchStyle
	if selected {
		baseStyle, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}

// preview returns a short description of a value for the list command.
func preview(v interp.Value) string {
	const limit = 40

	s := v.String()

	switch v := v.(type) {
	case *interp.Closure:
		s = "{" + strings.Join(paramNames(v), " ") + "}"
	case *interp.Table:
		s = "[" + strings.Join(v.Keys(), " ") + "]"
	}

	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit-3]) + "..."
	}

	return interp.KindOf(v).String() + " " + s
}
