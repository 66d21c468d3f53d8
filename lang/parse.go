package lang

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/riptide/log"
)

// Option configures parsing.
type Option func(*options)

type options struct {
	logger log.Logger
	name   string
}

// WithLogger directs parser trace records to logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithName sets the source name reported in log records.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func makeOptions(opts ...Option) options {
	o := options{logger: log.Default(), name: "<input>"}

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// Parse parses src into a [Program]. It is [ParseString] over bytes.
func Parse(ctx context.Context, src []byte, opts ...Option) (*Program, error) {
	return ParseString(ctx, string(src), opts...)
}

// ParseString parses src into a [Program].
// On failure the returned error is a [*ParseError] and no program is
// returned.
func ParseString(ctx context.Context, src string, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	p := &parser{input: []byte(src), line: 1, col: 1, source: src}

	prog, err := p.parseProgram()
	if err != nil {
		o.logger.DebugContext(ctx, "parse failed",
			slog.String("source", o.name),
			slog.Any("error", err),
		)

		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("source", o.name),
		slog.Int("bytes", len(src)),
		slog.Int("statements", len(prog.Statements)),
	)

	return prog, nil
}

// parser is a recursive descent parser over UTF-8 source.
type parser struct {
	input     []byte
	source    string
	pos       int
	line      int
	col       int
	multiline int // nesting depth of () and [] in which line breaks are blank
}

func (p *parser) fail(pos Position, expected string) *ParseError {
	return &ParseError{
		Pos:      pos,
		Expected: expected,
		Found:    describe(p.peek(), p.eof()),
		Source:   p.source,
	}
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{Pos: p.position()}

	stmts, err := p.parseStatements(0)
	if err != nil {
		return nil, err
	}

	prog.Statements = stmts

	return prog, nil
}

// parseStatements parses statements up to, not including, the closing rune
// end, or up to end of input when end is zero.
func (p *parser) parseStatements(end rune) ([]Statement, error) {
	var stmts []Statement

	for {
		p.skipSeparators()

		if p.eof() {
			if end != 0 {
				return nil, p.fail(p.position(), strconv.QuoteRune(end))
			}

			return stmts, nil
		}

		if end != 0 && p.peek() == end {
			return stmts, nil
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, stmt)

		p.skipInline()

		if !p.eof() && !isNewline(p.peek()) && p.peek() != ';' &&
			(end == 0 || p.peek() != end) {
			return nil, p.fail(p.position(), "newline or ';'")
		}
	}
}

func (p *parser) parseStatement() (Statement, error) {
	pos := p.position()

	switch {
	case p.atWord("import"):
		return p.parseImport()

	case p.atWord("return"):
		p.advanceN(len("return"))
		p.skipInline()

		if p.atStatementEnd() {
			return &ReturnStatement{Pos: pos}, nil
		}

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		return &ReturnStatement{Value: value, Pos: pos}, nil

	case p.atWord("let"):
		return p.parseLet()
	}

	stmt, err := p.tryAssignment()
	if stmt != nil || err != nil {
		return stmt, err
	}

	return p.parsePipeline()
}

func (p *parser) atStatementEnd() bool {
	if p.eof() {
		return true
	}

	switch p.peek() {
	case '\n', '\r', ';', '}':
		return true
	}

	return false
}

// atAssign reports whether the cursor is at a standalone '='.
func (p *parser) atAssign() bool {
	if p.peek() != '=' {
		return false
	}

	next := p.peekAt(1)

	return next == 0 || !IsSymbolChar(next)
}

// expectAssign consumes a standalone '=' and the blanks around it.
func (p *parser) expectAssign() error {
	p.skipInline()

	if !p.atAssign() {
		return p.fail(p.position(), "'='")
	}

	p.advance()
	p.skipInline()

	return nil
}

func (p *parser) parseImport() (Statement, error) {
	pos := p.position()

	p.advanceN(len("import"))

	if !p.skipInline() {
		return nil, p.fail(p.position(), "module path")
	}

	path, err := p.parseKey("module path")
	if err != nil {
		return nil, err
	}

	p.skipInline()

	if !p.atWord("for") {
		return nil, p.fail(p.position(), "'for'")
	}

	p.advanceN(len("for"))

	stmt := &ImportStatement{Path: path, Pos: pos}

	for p.skipInline() && !p.atStatementEnd() {
		if p.atWord("*") {
			p.advance()

			stmt.Wildcard = true

			continue
		}

		at := p.position()

		name := p.scanSymbol()
		if !IsName(name) || IsReserved(name) {
			return nil, p.fail(at, "imported name")
		}

		stmt.Names = append(stmt.Names, name)
	}

	if !stmt.Wildcard && len(stmt.Names) == 0 {
		return nil, p.fail(p.position(), "imported name or '*'")
	}

	if stmt.Wildcard && len(stmt.Names) > 0 {
		return nil, p.fail(pos, "either '*' or a list of names")
	}

	return stmt, nil
}

// parseLet parses "let name = value", "let @name = value" and the cvar
// scope "let @name = value { body }", which may head a pipeline.
func (p *parser) parseLet() (Statement, error) {
	pos := p.position()

	p.advanceN(len("let"))

	if !p.skipInline() {
		return nil, p.fail(p.position(), "variable name")
	}

	if p.peek() != '@' {
		at := p.position()

		name := p.scanSymbol()

		switch {
		case IsReserved(name):
			return nil, p.fail(at, "variable name (reserved word "+strconv.Quote(name)+")")
		case !IsName(name):
			return nil, p.fail(at, "variable name")
		}

		if err := p.expectAssign(); err != nil {
			return nil, err
		}

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		return &AssignStatement{
			Target:  AssignTarget{Kind: TargetLocal, Name: name},
			Value:   value,
			Declare: true,
			Pos:     pos,
		}, nil
	}

	name, value, err := p.parseCvarBinding()
	if err != nil {
		return nil, err
	}

	m := p.save()
	p.skipInline()

	if p.peek() != '{' {
		p.restore(m)

		return &AssignStatement{
			Target:  AssignTarget{Kind: TargetCvar, Name: name},
			Value:   value,
			Declare: true,
			Pos:     pos,
		}, nil
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	scope := &CvarScope{Name: name, Value: value, Body: body, Pos: pos}

	return p.parsePipelineFrom(scope)
}

// parseCvarBinding parses "@name = value".
func (p *parser) parseCvarBinding() (string, Expr, error) {
	if !p.expect('@') {
		return "", nil, p.fail(p.position(), "'@'")
	}

	at := p.position()

	name := p.scanName()
	if name == "" {
		return "", nil, p.fail(at, "context variable name")
	}

	if err := p.expectAssign(); err != nil {
		return "", nil, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return "", nil, err
	}

	return name, value, nil
}

// tryAssignment parses an assignment if one begins at the cursor. It returns
// a nil statement and nil error, with the cursor unmoved, otherwise.
func (p *parser) tryAssignment() (Statement, error) {
	pos := p.position()
	m := p.save()

	target, ok := p.scanAssignTarget()
	if !ok {
		p.restore(m)

		return nil, nil
	}

	p.skipInline()

	if !p.atAssign() {
		p.restore(m)

		return nil, nil
	}

	p.advance()
	p.skipInline()

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &AssignStatement{Target: target, Value: value, Pos: pos}, nil
}

// scanAssignTarget scans "name", "@name" or a member path rooted at a
// variable or context variable.
func (p *parser) scanAssignTarget() (AssignTarget, bool) {
	pos := p.position()

	var base Expr

	switch r := p.peek(); {
	case r == '@':
		p.advance()

		name := p.scanName()
		if name == "" {
			return AssignTarget{}, false
		}

		if !p.at("->") {
			return AssignTarget{Kind: TargetCvar, Name: name}, true
		}

		base = &CvarRef{Name: name, Pos: pos}

	case r == '$' && p.peekAt(1) != '(':
		sub, err := p.parseSubstitution()
		if err != nil || sub.Kind != SubstVariable {
			return AssignTarget{}, false
		}

		base = sub

	case IsSymbolChar(r) && !p.at("..."):
		name := p.scanSymbol()
		if !IsName(name) || IsReserved(name) {
			return AssignTarget{}, false
		}

		if !p.at("->") {
			return AssignTarget{Kind: TargetLocal, Name: name}, true
		}

		base = &Substitution{Kind: SubstVariable, Name: name, Pos: pos}

	default:
		return AssignTarget{}, false
	}

	if !p.at("->") {
		return AssignTarget{}, false
	}

	target := AssignTarget{Kind: TargetMember, Base: base}

	for p.at("->") {
		p.advanceN(2)

		key, err := p.parseKey("member name")
		if err != nil {
			return AssignTarget{}, false
		}

		target.Path = append(target.Path, key)
	}

	return target, true
}

func (p *parser) parsePipeline() (*Pipeline, error) {
	pos := p.position()

	head, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	pl, err := p.parsePipelineFrom(head)
	if err != nil {
		return nil, err
	}

	pl.Pos = pos

	return pl, nil
}

// parsePipelineFrom parses the arguments of a call whose head expression has
// been parsed, then any further stages.
func (p *parser) parsePipelineFrom(head Expr) (*Pipeline, error) {
	first, err := p.parseCallFrom(head)
	if err != nil {
		return nil, err
	}

	pl := &Pipeline{Calls: []Call{first}, Pos: head.Position()}

	for {
		m := p.save()

		p.skipSpace()

		if !p.expect('|') {
			p.restore(m)

			return pl, nil
		}

		p.skipSpace()

		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}

		pl.Calls = append(pl.Calls, call)
	}
}

func (p *parser) parseCall() (Call, error) {
	head, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return p.parseCallFrom(head)
}

func (p *parser) parseCallFrom(head Expr) (Call, error) {
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}

	if lit, ok := head.(*StringLiteral); ok {
		return &NamedCall{Name: lit.Value, Args: args, Pos: lit.Pos}, nil
	}

	return &UnnamedCall{Callee: head, Args: args, Pos: head.Position()}, nil
}

func (p *parser) atArgEnd() bool {
	if p.eof() {
		return true
	}

	switch p.peek() {
	case '\n', '\r', ';', '|', ')', '}':
		return true
	}

	return false
}

func (p *parser) parseArgs() ([]Arg, error) {
	var args []Arg

	for {
		m := p.save()
		spaced := p.skipInline()

		if p.atArgEnd() {
			p.restore(m)

			return args, nil
		}

		if !spaced {
			return nil, p.fail(p.position(), "whitespace between arguments")
		}

		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}
}

func (p *parser) parseArg() (Arg, error) {
	if p.at("...") {
		if next := p.peekAt(3); next != 0 && (IsSymbolChar(next) ||
			strings.ContainsRune(`'"$@([{`, next)) {
			p.advanceN(3)

			value, err := p.parseExpr()
			if err != nil {
				return Arg{}, err
			}

			return Arg{Value: value, Splat: true}, nil
		}
	}

	value, err := p.parseExpr()
	if err != nil {
		return Arg{}, err
	}

	return Arg{Value: value}, nil
}

// parseExpr parses a primary expression followed by any member accesses.
func (p *parser) parseExpr() (Expr, error) {
	pos := p.position()

	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if !p.at("->") {
		return base, nil
	}

	// A bare symbol heading a member path names a variable.
	if lit, ok := base.(*StringLiteral); ok && p.input[pos.Offset] != '\'' &&
		p.input[pos.Offset] != '"' {
		if !IsName(lit.Value) {
			return nil, p.fail(pos, "variable name")
		}

		base = &Substitution{Kind: SubstVariable, Name: lit.Value, Pos: pos}
	}

	member := &MemberAccess{Base: base, Pos: pos}

	for p.at("->") {
		p.advanceN(2)

		key, err := p.parseKey("member name")
		if err != nil {
			return nil, err
		}

		member.Path = append(member.Path, key)
	}

	return member, nil
}

// parseKey parses a bare symbol or a quoted string without substitutions.
func (p *parser) parseKey(what string) (string, error) {
	pos := p.position()

	switch p.peek() {
	case '\'':
		return p.scanSingleQuoted()

	case '"':
		expr, err := p.parseDoubleQuoted()
		if err != nil {
			return "", err
		}

		lit, ok := expr.(*StringLiteral)
		if !ok {
			return "", &ParseError{
				Pos:      pos,
				Expected: what + " without substitutions",
				Found:    "interpolated string",
				Source:   p.source,
			}
		}

		return lit.Value, nil
	}

	key := p.scanSymbol()
	if key == "" {
		return "", p.fail(pos, what)
	}

	return key, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	pos := p.position()

	if p.eof() {
		return nil, p.fail(pos, "expression")
	}

	switch r := p.peek(); r {
	case '\'':
		s, err := p.scanSingleQuoted()
		if err != nil {
			return nil, err
		}

		return &StringLiteral{Value: s, Pos: pos}, nil

	case '"':
		return p.parseDoubleQuoted()

	case '[':
		return p.parseListOrTable()

	case '{':
		return p.parseBlock()

	case '(':
		p.advance()
		p.multiline++
		p.skipSpace()

		pl, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		p.multiline--

		if !p.expect(')') {
			return nil, p.fail(p.position(), "')'")
		}

		pl.Pos = pos

		return pl, nil

	case '$':
		return p.parseSubstitution()

	case '@':
		p.advance()

		name := p.scanName()
		if name == "" {
			return nil, p.fail(p.position(), "context variable name")
		}

		return &CvarRef{Name: name, Pos: pos}, nil
	}

	text := p.scanSymbol()

	switch {
	case text == "":
		return nil, p.fail(pos, "expression")

	case IsNumber(text):
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.fail(pos, "number")
		}

		return &NumberLiteral{Value: f, Pos: pos}, nil

	case text == "let":
		p.restore(mark{pos.Offset, pos.Line, pos.Column})

		return p.parseCvarScope()

	case text == "sub":
		return p.parseSubroutine(pos)

	case IsReserved(text):
		p.restore(mark{pos.Offset, pos.Line, pos.Column})

		return nil, p.fail(pos, "expression (reserved word "+strconv.Quote(text)+")")
	}

	return &StringLiteral{Value: text, Pos: pos}, nil
}

func (p *parser) parseCvarScope() (Expr, error) {
	pos := p.position()

	p.advanceN(len("let"))
	p.skipInline()

	name, value, err := p.parseCvarBinding()
	if err != nil {
		return nil, err
	}

	p.skipInline()

	if p.peek() != '{' {
		return nil, p.fail(p.position(), "'{' to open the scope of @"+name)
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &CvarScope{Name: name, Value: value, Body: body, Pos: pos}, nil
}

func (p *parser) parseSubroutine(pos Position) (Expr, error) {
	p.skipInline()

	at := p.position()

	name := p.scanSymbol()
	if !IsName(name) || IsReserved(name) {
		return nil, p.fail(at, "subroutine name")
	}

	p.skipInline()

	if p.peek() != '{' {
		return nil, p.fail(p.position(), "'{'")
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &Subroutine{Name: name, Body: body, Pos: pos}, nil
}

func (p *parser) parseBlock() (*Block, error) {
	pos := p.position()

	if !p.expect('{') {
		return nil, p.fail(pos, "'{'")
	}

	saved := p.multiline
	p.multiline = 0

	defer func() { p.multiline = saved }()

	block := &Block{Pos: pos}

	p.skipSpace()

	if p.peek() == '<' {
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}

		block.Params = params
	}

	stmts, err := p.parseStatements('}')
	if err != nil {
		return nil, err
	}

	block.Statements = stmts

	if !p.expect('}') {
		return nil, p.fail(p.position(), "'}'")
	}

	return block, nil
}

// parseParams parses "<a, b, --flag, ...rest>".
func (p *parser) parseParams() ([]Param, error) {
	p.advance()

	var (
		params []Param
		seen   = map[string]bool{}
	)

	for {
		p.skipSpace()

		if p.expect('>') {
			return params, nil
		}

		if p.eof() {
			return nil, p.fail(p.position(), "'>'")
		}

		pos := p.position()

		if len(params) > 0 && params[len(params)-1].Kind == ParamVararg {
			return nil, &ParseError{
				Pos:      pos,
				Expected: "'>' (vararg parameter must be last)",
				Found:    describe(p.peek(), false),
				Source:   p.source,
			}
		}

		kind := ParamPositional

		switch {
		case p.at("..."):
			kind = ParamVararg

			p.advanceN(3)
		case p.at("--"):
			kind = ParamFlag

			p.advanceN(2)
		}

		name := p.scanName()

		switch {
		case name == "":
			return nil, p.fail(p.position(), "parameter name")
		case IsReserved(name):
			return nil, p.fail(pos, "parameter name (reserved word "+strconv.Quote(name)+")")
		case seen[name]:
			return nil, &ParseError{
				Pos:      pos,
				Expected: "unique parameter name",
				Found:    strconv.Quote(name),
				Source:   p.source,
			}
		}

		seen[name] = true
		params = append(params, Param{Name: name, Kind: kind})

		p.skipSpace()
		p.expect(',')
	}
}

func (p *parser) parseListOrTable() (Expr, error) {
	pos := p.position()

	p.advance()
	p.multiline++

	defer func() { p.multiline-- }()

	p.skipSpace()

	if p.expect(':') {
		p.skipSpace()

		if !p.expect(']') {
			return nil, p.fail(p.position(), "']' after '[:'")
		}

		return &TableLiteral{Pos: pos}, nil
	}

	if p.expect(']') {
		return &ListLiteral{Pos: pos}, nil
	}

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.peek() == ':' {
		return p.parseTableEntries(pos, first)
	}

	list := &ListLiteral{Items: []Expr{first}, Pos: pos}

	for {
		p.skipSpace()

		if p.expect(',') {
			p.skipSpace()
		}

		if p.expect(']') {
			return list, nil
		}

		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		list.Items = append(list.Items, item)
	}
}

func (p *parser) parseTableEntries(pos Position, key Expr) (Expr, error) {
	table := &TableLiteral{Pos: pos}

	for {
		if !p.expect(':') {
			return nil, p.fail(p.position(), "':'")
		}

		p.skipSpace()

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		table.Entries = append(table.Entries, TableEntry{Key: key, Value: value})

		p.skipSpace()

		if p.expect(',') {
			p.skipSpace()
		}

		if p.expect(']') {
			return table, nil
		}

		key, err = p.parseExpr()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
	}
}

func (p *parser) scanSingleQuoted() (string, error) {
	start := p.position()

	p.advance()

	var b strings.Builder

	for {
		if p.eof() {
			return "", &ParseError{
				Pos:      start,
				Expected: "closing \"'\"",
				Found:    "end of input",
				Source:   p.source,
			}
		}

		r := p.peek()

		switch {
		case r == '\'':
			p.advance()

			return b.String(), nil

		case r == '\\' && (p.peekAt(1) == '\'' || p.peekAt(1) == '\\'):
			p.advance()
			b.WriteRune(p.peek())
			p.advance()

		default:
			b.WriteRune(r)
			p.advance()
		}
	}
}

var escapes = map[rune]string{
	'n':  "\n",
	't':  "\t",
	'r':  "\r",
	'0':  "\x00",
	'e':  "\x1b",
	'"':  `"`,
	'\\': `\`,
	'$':  "$",
}

// parseDoubleQuoted parses a double-quoted string. It yields a
// [*StringLiteral] when the string contains no substitutions.
func (p *parser) parseDoubleQuoted() (Expr, error) {
	pos := p.position()

	p.advance()

	var (
		parts []StringPart
		text  strings.Builder
		subst bool
	)

	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, StringPart{Text: text.String()})
			text.Reset()
		}
	}

	for {
		if p.eof() {
			return nil, &ParseError{
				Pos:      pos,
				Expected: `closing '"'`,
				Found:    "end of input",
				Source:   p.source,
			}
		}

		r := p.peek()

		switch {
		case r == '"':
			p.advance()
			flush()

			if !subst {
				var s strings.Builder
				for _, part := range parts {
					s.WriteString(part.Text)
				}

				return &StringLiteral{Value: s.String(), Pos: pos}, nil
			}

			return &InterpolatedString{Parts: parts, Pos: pos}, nil

		case r == '\\':
			at := p.position()

			p.advance()

			esc, ok := escapes[p.peek()]
			if !ok || p.eof() {
				return nil, p.fail(at, "escape sequence")
			}

			text.WriteString(esc)
			p.advance()

		case r == '$' && (p.peekAt(1) == '{' || p.peekAt(1) == '(' ||
			IsNameChar(p.peekAt(1))):
			flush()

			s, err := p.parseSubstitution()
			if err != nil {
				return nil, err
			}

			parts = append(parts, StringPart{Subst: s})
			subst = true

		default:
			text.WriteRune(r)
			p.advance()
		}
	}
}

// parseSubstitution parses "$name", "${name}", "${name:flags}" and
// "$(pipeline)".
func (p *parser) parseSubstitution() (*Substitution, error) {
	pos := p.position()

	p.advance()

	switch p.peek() {
	case '(':
		p.advance()

		saved := p.multiline
		p.multiline = 1

		p.skipSpace()

		pl, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		p.multiline = saved

		if !p.expect(')') {
			return nil, p.fail(p.position(), "')'")
		}

		return &Substitution{Kind: SubstPipeline, Pipeline: pl, Pos: pos}, nil

	case '{':
		p.advance()

		at := p.position()

		name := p.scanName()
		if name == "" {
			return nil, p.fail(at, "variable name")
		}

		sub := &Substitution{Kind: SubstVariable, Name: name, Pos: pos}

		if p.expect(':') {
			start := p.pos

			for !p.eof() && p.peek() != '}' && !isNewline(p.peek()) {
				p.advance()
			}

			if flags := string(p.input[start:p.pos]); flags != "" {
				sub.Kind = SubstFormat
				sub.Flags = flags
			}
		}

		if !p.expect('}') {
			return nil, p.fail(p.position(), "'}'")
		}

		return sub, nil
	}

	at := p.position()

	name := p.scanName()
	if name == "" {
		return nil, p.fail(at, "variable name, '{' or '('")
	}

	return &Substitution{Kind: SubstVariable, Name: name, Pos: pos}, nil
}
