// Package lang parses riptide source into a syntax tree and writes syntax
// trees back out as canonical source, JSON or YAML.
//
// Riptide is a stream-oriented shell language. A program is a sequence of
// statements separated by newlines or ';'. Most statements are pipelines of
// calls joined by '|'.
//
// # Grammar
//
// Informal EBNF:
//
//	Program      → Sep* (Statement (Sep+ Statement)*)? Sep* EOF
//	Statement    → Import | Return | Assignment | Pipeline
//	Import       → 'import' Key 'for' ('*' | Name+)
//	Return       → 'return' Expr?
//	Assignment   → 'let'? Name '=' Expr
//	             | 'let'? '@' Name '=' Expr
//	             | Expr ('->' Key)+ '=' Expr
//	Pipeline     → Call (NL* '|' NL* Call)*
//	Call         → Expr Arg*
//	Arg          → '...' Expr | Expr
//	Expr         → Primary ('->' Key)*
//	Primary      → Number | Symbol | String | List | Table | Block
//	             | 'sub' Name Block | 'let' '@' Name '=' Expr Block
//	             | '@' Name | Substitution | '(' Pipeline ')'
//	List         → '[' (Expr ','?)* ']'
//	Table        → '[' ':' ']' | '[' (Expr ':' Expr ','?)+ ']'
//	Block        → '{' ('<' Param (','? Param)* '>')? Statements '}'
//	Param        → Name | '...' Name | '--' Name
//	Substitution → '$' Name | '${' Name (':' Flags)? '}' | '$(' Pipeline ')'
//
// A call whose head is a bare symbol or quoted string is a [NamedCall];
// any other head is evaluated and invoked as an [UnnamedCall].
//
// # Lexical rules
//
// Bare symbols are runs of characters other than whitespace and
// '"$@()[]{}|;#,:<>\ and stop before "->". A symbol spelled like a decimal
// number is a [NumberLiteral]. Single-quoted strings never interpolate and
// accept only \' and \\ escapes. Double-quoted strings interpolate
// substitutions and accept \n \t \r \0 \e \" \\ \$.
//
// Comments run from '#' to the end of the line. A backslash before a line
// break continues the line. Inside parentheses and brackets line breaks are
// blank space.
//
// The words import, let, return and sub are reserved.
//
// # Example
//
//	import 'util.rip' for shout
//
//	let greet = { <name, --loud>
//	    if $loud { shout $name } { println "hello, $name" }
//	}
//
//	let @cwd = /tmp {
//	    ls -1 | grep rip | loop { greet (recv) --loud }
//	}
package lang
