package frontend

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"

	"rmcc/internal/diag"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment", "DocComment"),
	participle.UseLookahead(3),
)

// Parse parses source (from the named file, for diagnostics) into a
// Program. Syntax errors are converted into a *diag.Diagnostic carrying a
// caret position, rather than returned as a raw participle.Error, so
// callers can feed it straight to diag.Reporter. Grounded on
// grammar.ParseFile in the teacher repository.
func Parse(filename, source string) (*Program, error) {
	program, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, toDiagnostic(err)
	}
	return program, nil
}

// ParseFile reads path and parses it.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frontend: read %s: %w", path, err)
	}
	return Parse(path, string(source))
}

func toDiagnostic(err error) error {
	pe, ok := err.(participle.Error)
	if !ok {
		return &diag.Diagnostic{
			Level:   diag.LevelError,
			Code:    diag.ErrSyntax,
			Message: err.Error(),
		}
	}
	pos := pe.Position()
	return &diag.Diagnostic{
		Level:   diag.LevelError,
		Code:    diag.ErrSyntax,
		Message: pe.Message(),
		Position: diag.Position{
			Line:   pos.Line,
			Column: pos.Column,
		},
		Length: 1,
	}
}
