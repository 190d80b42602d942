package frontend

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the toy imperative source language the front-end
// collaborator lowers to ir.Program (spec §12): structs, single-
// inheritance classes with virtual dispatch, arrays, strings, and the
// usual control flow. Grounded on grammar/lexer.go in the teacher
// repository, which uses the identical stateful-lexer shape for its own
// source language.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"DocComment", `///[^\n]*`, nil},
		{"Comment", `//[^\n]*`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `[0-9]+`, nil},
		{"Operator", `(==|!=|<=|>=|&&|\|\|)`, nil},
		{"Punctuation", `[{}\[\]():,;.!*/%+=<>-]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
