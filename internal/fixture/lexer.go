// Package fixture is a small participle-based DSL for writing restricted-
// language programs as text instead of hand-built ast.Function literals. It
// exists only to build the golden scenarios and the mpcc CLI's -fixture-file
// programs; the real surface-syntax parser that validates arbitrary user
// programs is out of scope (see spec.md §1/§9).
package fixture

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer mirrors kanso's grammar/lexer.go: one flat "Root" state, a single
// combined Ident rule (keywords are matched by value in the grammar, not by
// a separate token type), and operators ordered longest-match-first so e.g.
// "==" is never split into two "=" tokens.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `[0-9]+`, nil},
		{"Operator", `(==|!=|<=|>=|<<|>>|//|[-+*/%<>=])`, nil},
		{"Punctuation", `[(){}\[\],:]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
