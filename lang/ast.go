package lang

import "strconv"

// Position locates a node in its source.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, in runes
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Node is implemented by every syntax tree node.
type Node interface {
	Position() Position
}

// Program is the root of a parsed source file.
type Program struct {
	Statements []Statement
	Pos        Position
}

// Position implements [Node].
func (p *Program) Position() Position { return p.Pos }

// Statement is one of [*ImportStatement], [*AssignStatement],
// [*ReturnStatement] or [*Pipeline].
type Statement interface {
	Node
	statement()
}

// Call is one of [*NamedCall] or [*UnnamedCall].
type Call interface {
	Node
	call()
}

// Expr is any node that evaluates to a value.
type Expr interface {
	Node
	expr()
}

// ImportStatement binds names exported by a module.
//
//	import 'path/to/module' for a b c
//	import 'path/to/module' for *
type ImportStatement struct {
	Path     string
	Names    []string
	Wildcard bool
	Pos      Position
}

// TargetKind is the kind of location written by an [AssignStatement].
type TargetKind int

const (
	TargetLocal  TargetKind = iota // name
	TargetCvar                     // @name
	TargetMember                   // expr->key...
)

// String returns a short name of the kind.
func (k TargetKind) String() string {
	switch k {
	case TargetLocal:
		return "local"
	case TargetCvar:
		return "cvar"
	case TargetMember:
		return "member"
	default:
		return "unknown"
	}
}

// AssignTarget is the left-hand side of an assignment.
//
// For TargetLocal and TargetCvar, Name holds the variable name.
// For TargetMember, Base is the expression whose value is indexed by each
// element of Path in turn; the final element names the member written.
type AssignTarget struct {
	Kind TargetKind
	Name string
	Base Expr
	Path []string
}

// AssignStatement writes the value of Value to Target. Declare is set for
// "let name = value", which always binds in the innermost scope.
type AssignStatement struct {
	Target  AssignTarget
	Value   Expr
	Declare bool
	Pos     Position
}

// ReturnStatement leaves the innermost invoked block. A nil Value returns nil.
type ReturnStatement struct {
	Value Expr
	Pos   Position
}

// Pipeline is one or more calls joined by '|'. It is both a statement and,
// when parenthesized, an expression.
type Pipeline struct {
	Calls []Call
	Pos   Position
}

// Arg is a call argument. A splatted argument expands a list into separate
// arguments.
type Arg struct {
	Value Expr
	Splat bool
}

// NamedCall invokes the function bound to Name.
type NamedCall struct {
	Name string
	Args []Arg
	Pos  Position
}

// UnnamedCall invokes the value of Callee.
type UnnamedCall struct {
	Callee Expr
	Args   []Arg
	Pos    Position
}

// StringLiteral is a bare symbol or a quoted string without substitutions.
type StringLiteral struct {
	Value string
	Pos   Position
}

// NumberLiteral is a decimal number.
type NumberLiteral struct {
	Value float64
	Pos   Position
}

// StringPart is a fragment of an [InterpolatedString]: literal text when
// Subst is nil, otherwise a substitution.
type StringPart struct {
	Text  string
	Subst *Substitution
}

// InterpolatedString is a double-quoted string containing substitutions.
type InterpolatedString struct {
	Parts []StringPart
	Pos   Position
}

// ListLiteral is "[a b c]" or "[]".
type ListLiteral struct {
	Items []Expr
	Pos   Position
}

// TableEntry is a key-value pair of a [TableLiteral].
type TableEntry struct {
	Key   Expr
	Value Expr
}

// TableLiteral is "[k: v ...]" or "[:]".
type TableLiteral struct {
	Entries []TableEntry
	Pos     Position
}

// ParamKind is the binding behavior of a block parameter.
type ParamKind int

const (
	ParamPositional ParamKind = iota // name
	ParamVararg                      // ...name
	ParamFlag                        // --name
)

// Param is a declared block parameter.
type Param struct {
	Name string
	Kind ParamKind
}

// Block is a function literal. A block with no declared parameters may still
// read its arguments through the implicit "args" binding.
type Block struct {
	Params     []Param
	Statements []Statement
	Pos        Position
}

// Subroutine is "sub name { ... }", a block carrying a name for diagnostics.
type Subroutine struct {
	Name string
	Body *Block
	Pos  Position
}

// MemberAccess is "base->a->b".
type MemberAccess struct {
	Base Expr
	Path []string
	Pos  Position
}

// SubstKind selects the form of a [Substitution].
type SubstKind int

const (
	SubstVariable SubstKind = iota // $name or ${name}
	SubstFormat                    // ${name:flags}
	SubstPipeline                  // $(pipeline)
)

// Substitution is a "$" form.
type Substitution struct {
	Kind     SubstKind
	Name     string
	Flags    string
	Pipeline *Pipeline
	Pos      Position
}

// CvarRef reads a context variable: "@name".
type CvarRef struct {
	Name string
	Pos  Position
}

// CvarScope binds a context variable for the dynamic extent of Body:
// "let @name = value { body }".
type CvarScope struct {
	Name  string
	Value Expr
	Body  *Block
	Pos   Position
}

func (n *ImportStatement) Position() Position    { return n.Pos }
func (n *AssignStatement) Position() Position    { return n.Pos }
func (n *ReturnStatement) Position() Position    { return n.Pos }
func (n *Pipeline) Position() Position           { return n.Pos }
func (n *NamedCall) Position() Position          { return n.Pos }
func (n *UnnamedCall) Position() Position        { return n.Pos }
func (n *StringLiteral) Position() Position      { return n.Pos }
func (n *NumberLiteral) Position() Position      { return n.Pos }
func (n *InterpolatedString) Position() Position { return n.Pos }
func (n *ListLiteral) Position() Position        { return n.Pos }
func (n *TableLiteral) Position() Position       { return n.Pos }
func (n *Block) Position() Position              { return n.Pos }
func (n *Subroutine) Position() Position         { return n.Pos }
func (n *MemberAccess) Position() Position       { return n.Pos }
func (n *Substitution) Position() Position       { return n.Pos }
func (n *CvarRef) Position() Position            { return n.Pos }
func (n *CvarScope) Position() Position          { return n.Pos }

func (*ImportStatement) statement() {}
func (*AssignStatement) statement() {}
func (*ReturnStatement) statement() {}
func (*Pipeline) statement()        {}

func (*NamedCall) call()   {}
func (*UnnamedCall) call() {}

func (*Pipeline) expr()           {}
func (*StringLiteral) expr()      {}
func (*NumberLiteral) expr()      {}
func (*InterpolatedString) expr() {}
func (*ListLiteral) expr()        {}
func (*TableLiteral) expr()       {}
func (*Block) expr()              {}
func (*Subroutine) expr()         {}
func (*MemberAccess) expr()       {}
func (*Substitution) expr()       {}
func (*CvarRef) expr()            {}
func (*CvarScope) expr()          {}

// Vararg returns the vararg parameter of b, if declared.
func (b *Block) Vararg() (Param, bool) {
	if n := len(b.Params); n > 0 && b.Params[n-1].Kind == ParamVararg {
		return b.Params[n-1], true
	}

	return Param{}, false
}

// reserved lists words that may not be used as bare symbols.
var reserved = map[string]bool{
	"import": true,
	"let":    true,
	"return": true,
	"sub":    true,
}

// IsReserved reports whether word is a reserved word.
func IsReserved(word string) bool { return reserved[word] }
