package fixture

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"mpcc/internal/ast"
	"mpcc/internal/diag"
)

// parser is built once at package init, the same pattern as kanso's
// grammar.ParseFile building a package-level *participle.Parser[Program].
var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ParseError wraps a participle parse failure with the offending source
// rendered and a caret under the failing column, in kanso's
// cmd/kanso-cli/main.go reportParseError style.
type ParseError struct {
	Filename string
	Source   string
	Inner    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v\n", e.Filename, e.Inner)
	if pe, ok := e.Inner.(participle.Error); ok {
		pos := pe.Position()
		lines := strings.Split(e.Source, "\n")
		if pos.Line >= 1 && pos.Line <= len(lines) {
			line := lines[pos.Line-1]
			fmt.Fprintf(&b, "  --> %s:%d:%d\n", e.Filename, pos.Line, pos.Column)
			fmt.Fprintf(&b, "   | %s\n", line)
			if pos.Column >= 1 {
				fmt.Fprintf(&b, "   | %s^\n", strings.Repeat(" ", pos.Column-1))
			}
		}
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Inner }

// ParseString parses source (named filename for diagnostics) into a
// restricted-AST function, the DSL's one entry point: the participle tree
// it produces is immediately converted via buildFunction, so callers never
// see the grammar types. buildFunction panics with a *diag.Diagnostic when
// a fixture source uses a shape the restricted grammar forbids (e.g. a
// compound expression where only a bare loop bound is legal); that panic is
// recovered here and returned as an ordinary error, so a malformed fixture
// source fails the same way any other stage failure does — no partial IR.
func ParseString(filename, source string) (fn *ast.Function, err error) {
	prog, perr := parser.ParseString(filename, source)
	if perr != nil {
		return nil, &ParseError{Filename: filename, Source: source, Inner: perr}
	}
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(*diag.Diagnostic); ok {
				err = d
				return
			}
			panic(r)
		}
	}()
	return buildFunction(filename, prog.Func), nil
}
