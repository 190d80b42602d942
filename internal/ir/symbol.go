package ir

// Symbol is a storage location in a Procedure: a local variable, a
// compiler-introduced temporary, or a function parameter. Identity is by
// pointer, never by name — two Symbols with the same name are distinct if
// they are distinct objects (spec §3).
type Symbol struct {
	Name string
	Size int // byte size

	// FrontendLink is an opaque back-reference to whatever the front-end
	// collaborator used to create this symbol (an AST declaration node, a
	// class field descriptor, ...). The core never inspects it.
	FrontendLink interface{}
}

// NewSymbol creates a free-standing Symbol. Procedures normally create
// their own symbols through Procedure.NewTemp/AddSymbol so that the
// symbol is registered in the owning procedure's symbol list (invariant 3).
func NewSymbol(name string, size int) *Symbol {
	return &Symbol{Name: name, Size: size}
}
