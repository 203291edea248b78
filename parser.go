package formrun

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// actionLexer tokenizes one-line actions such as
//
//	pick-date dateOfBirth 2030 January 1
//	choose state "NCR"
var actionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Word", Pattern: `[^\s"]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// actionLine is the parse tree of an action string.
type actionLine struct {
	Pos  lexer.Position
	Verb string   `parser:"@Word"`
	Args []string `parser:"(@String | @Word)*"`
}

var actionParser = participle.MustBuild[actionLine](
	participle.Lexer(actionLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace"),
)

// parseActionLine parses an action string into its verb and arguments.
func parseActionLine(src string) (*actionLine, error) {
	return actionParser.ParseString("", src)
}
