package frontend

import (
	"fmt"
	"sort"
)

// Kind discriminates the type-system variants, mirroring
// Front::Type::Kind in the original implementation (Type.h).
type Kind int

const (
	KindIntrinsic Kind = iota
	KindArray
	KindStruct
	KindClass
)

// Type is an entry in a program's type table. Struct and Class share a
// representation: a Class is a Struct with an optional Parent and a
// non-empty VTable.
type Type struct {
	Kind     Kind
	Name     string
	Size     int     // bytes occupied by one value of this type
	BaseType *Type   // element type, for KindArray
	ArrayLen int     // fixed length, for KindArray
	Parent   *Type   // single base class, for KindClass
	Fields   []*Field
	VTable   []*Method // slot index == position in this slice

	// TypeID is a small dense integer assigned to every KindClass type,
	// written into the hidden header word of every instance (offset 0)
	// in place of a real vtable pointer. Lowering resolves a virtual
	// call by comparing this tag against every known override in a
	// synthesized dispatcher procedure, rather than indirecting through
	// a data-section table of code addresses (see lower.go's
	// buildDispatcher; the object format's Relocations live on
	// codegen.Procedure, not on a Program-level data section, so a
	// pointer-table vtable has nowhere to be relocated).
	TypeID int
}

// Field is one named, laid-out member of a struct or class.
type Field struct {
	Name   string
	Type   *Type
	Offset int // byte offset from the start of the object
}

// Method is one entry in a class's virtual table. Non-virtual methods
// are not represented here; they resolve to a direct ir.OpCall at their
// mangled symbol name and never occupy a vtable slot.
type Method struct {
	Name   string
	Symbol string // mangled link-time name, e.g. "Shape.area"
	Slot   int
	Owner  string // class that first declared this slot virtual
}

const (
	wordSize = 4
	// vtablePointerSize is the size of the hidden header word every
	// class instance carries at offset 0: it holds the class's type tag,
	// which the dispatcher procedures compare, not a table pointer
	// (modeled after the qualifiers/vtableOffset bookkeeping in
	// Front::TypeStruct).
	vtablePointerSize = wordSize
)

// Builtin intrinsic types, sized the way Types::intrinsic does in the
// original (Front/Types.h): every intrinsic here is word-sized except
// Void, which has size 0. Bool is word-sized too, since the code
// generator loads/stores it a full word at a time.
var (
	TypeInt    = &Type{Kind: KindIntrinsic, Name: "int", Size: wordSize}
	TypeBool   = &Type{Kind: KindIntrinsic, Name: "bool", Size: wordSize}
	TypeString = &Type{Kind: KindIntrinsic, Name: "string", Size: wordSize} // pointer to NUL-terminated data
	TypeVoid   = &Type{Kind: KindIntrinsic, Name: "void", Size: 0}
)

// Table holds every type declared (or referenced) in one program, plus
// the builtin intrinsics. Grounded on Front::Types: a flat registry
// searched by name.
type Table struct {
	byName   map[string]*Type
	nextType int
}

func NewTable() *Table {
	t := &Table{byName: map[string]*Type{}}
	for _, b := range []*Type{TypeInt, TypeBool, TypeString, TypeVoid} {
		t.byName[b.Name] = b
	}
	return t
}

// Classes returns every declared KindClass type, in declaration order
// (buildDispatcher walks this to enumerate overrides of a virtual
// slot).
func (t *Table) Classes() []*Type {
	var out []*Type
	for _, ty := range t.byName {
		if ty.Kind == KindClass {
			out = append(out, ty)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

func (t *Table) Lookup(name string) (*Type, bool) {
	ty, ok := t.byName[name]
	return ty, ok
}

func (t *Table) Declare(ty *Type) error {
	if _, exists := t.byName[ty.Name]; exists {
		return fmt.Errorf("frontend: type %q declared more than once", ty.Name)
	}
	if ty.Kind == KindClass {
		ty.TypeID = t.nextType
		t.nextType++
	}
	t.byName[ty.Name] = ty
	return nil
}

// NewArrayType returns (creating if needed) the array-of-base type with
// the given fixed length.
func (t *Table) NewArrayType(base *Type, length int) *Type {
	name := fmt.Sprintf("%s[%d]", base.Name, length)
	if existing, ok := t.byName[name]; ok {
		return existing
	}
	ty := &Type{
		Kind:     KindArray,
		Name:     name,
		Size:     base.Size * length,
		BaseType: base,
		ArrayLen: length,
	}
	t.byName[name] = ty
	return ty
}

// FindMember looks up name in ty's own fields, then its ancestor chain
// (single inheritance, spec's class supplement). It mirrors
// TypeStruct::findMember, generalized to walk Parent links.
func (ty *Type) FindMember(name string) (*Field, bool) {
	for cur := ty; cur != nil; cur = cur.Parent {
		for _, f := range cur.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return nil, false
}

// FindMethod looks up name in ty's vtable, then its ancestor chain,
// returning the most-derived override (the slot at the same index as
// an ancestor's, if overridden, taking the derived Method — see
// layoutClass, which overwrites in place rather than appending).
func (ty *Type) FindMethod(name string) (*Method, bool) {
	for cur := ty; cur != nil; cur = cur.Parent {
		for _, m := range cur.VTable {
			if m.Name == name {
				return m, true
			}
		}
	}
	return nil, false
}

// layoutStruct assigns byte offsets to a plain struct's fields in
// declaration order, the simple case of TypeStruct layout (no parent, no
// vtable).
func layoutStruct(name string, fields []*FieldDecl, types *Table) (*Type, error) {
	ty := &Type{Kind: KindStruct, Name: name}
	offset := 0
	for _, f := range fields {
		fieldType, err := resolveTypeRef(f.Type, types)
		if err != nil {
			return nil, err
		}
		ty.Fields = append(ty.Fields, &Field{Name: f.Name, Type: fieldType, Offset: offset})
		offset += fieldType.Size
	}
	ty.Size = offset
	return ty, nil
}

// layoutClass lays out a class's fields after its parent's (single
// inheritance: parent fields occupy the low offsets, spec's class
// supplement) and assigns vtable slots, preserving the parent's slot
// index for any overridden method so calls through a base-typed
// reference still land on the override (classic vtable-slot-reuse
// dispatch).
func layoutClass(decl *ClassDecl, types *Table) (*Type, error) {
	ty := &Type{Kind: KindClass, Name: decl.Name}

	offset := 0
	if decl.Extends != "" {
		parent, ok := types.Lookup(decl.Extends)
		if !ok || parent.Kind != KindClass {
			return nil, fmt.Errorf("frontend: class %q extends undeclared class %q", decl.Name, decl.Extends)
		}
		ty.Parent = parent
		ty.Fields = append(ty.Fields, parent.Fields...)
		ty.VTable = append(ty.VTable, parent.VTable...)
		offset = parent.Size
	} else {
		offset = vtablePointerSize
	}

	for _, f := range decl.Fields {
		fieldType, err := resolveTypeRef(f.Type, types)
		if err != nil {
			return nil, err
		}
		ty.Fields = append(ty.Fields, &Field{Name: f.Name, Type: fieldType, Offset: offset})
		offset += fieldType.Size
	}
	ty.Size = offset

	for _, m := range decl.Methods {
		if !m.Virtual {
			continue
		}
		symbol := decl.Name + "." + m.Name
		if slot, overridden := findSlot(ty.VTable, m.Name); overridden {
			owner := ty.VTable[slot].Owner
			ty.VTable[slot] = &Method{Name: m.Name, Symbol: symbol, Slot: slot, Owner: owner}
			continue
		}
		ty.VTable = append(ty.VTable, &Method{Name: m.Name, Symbol: symbol, Slot: len(ty.VTable), Owner: decl.Name})
	}
	return ty, nil
}

func findSlot(vtable []*Method, name string) (int, bool) {
	for i, m := range vtable {
		if m.Name == name {
			return i, true
		}
	}
	return 0, false
}

func resolveTypeRef(ref *TypeRef, types *Table) (*Type, error) {
	base, ok := types.Lookup(ref.Name)
	if !ok {
		return nil, fmt.Errorf("frontend: undeclared type %q", ref.Name)
	}
	if ref.ArraySize != nil {
		return types.NewArrayType(base, *ref.ArraySize), nil
	}
	return base, nil
}
