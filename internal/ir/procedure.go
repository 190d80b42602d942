package ir

import "fmt"

// Procedure owns a list of symbols and an ordered list of entries
// bracketed by a start Label and an end Label (spec §3). It is the single
// ownership root for its entries and symbols (spec §5): analyses and
// transforms mutate only through it or through the Analysis façade, never
// by holding their own copies.
type Procedure struct {
	Name       string
	Symbols    []*Symbol
	Entries    *EntryList
	Start, End *Entry // OpLabel sentinels: "start" falls through to block 1, "end" collects Returns

	nextTemp  int
	nextLabel int
}

// NewProcedure creates an empty procedure already bracketed by start/end
// labels, mirroring IR::Procedure's constructor in the original source.
func NewProcedure(name string) *Procedure {
	p := &Procedure{Name: name, Entries: NewEntryList(), nextLabel: 1}
	p.Start = &Entry{Op: OpLabel, LabelName: "start"}
	p.End = &Entry{Op: OpLabel, LabelName: "end"}
	p.Entries.PushBack(p.Start)
	p.Entries.PushBack(p.End)
	return p
}

// NewTemp allocates a fresh symbol named temp0, temp1, ... Names carry no
// semantics; nothing in the allocator may compare symbols by name (spec
// §4.A).
func (p *Procedure) NewTemp(size int) *Symbol {
	name := fmt.Sprintf("temp%d", p.nextTemp)
	p.nextTemp++
	return p.AddSymbol(name, size)
}

// NewLabel allocates a fresh, as-yet-unattached Label entry named
// bb1, bb2, ... Callers Emit it to insert it into the entry list.
func (p *Procedure) NewLabel() *Entry {
	name := fmt.Sprintf("bb%d", p.nextLabel)
	p.nextLabel++
	return &Entry{Op: OpLabel, LabelName: name}
}

// AddSymbol registers a new named symbol with the procedure.
func (p *Procedure) AddSymbol(name string, size int) *Symbol {
	sym := &Symbol{Name: name, Size: size}
	p.Symbols = append(p.Symbols, sym)
	return sym
}

// FindSymbol looks up a registered symbol by name. Front-ends use this
// while lowering; the core itself never compares symbols by name.
func (p *Procedure) FindSymbol(name string) *Symbol {
	for _, s := range p.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// RemoveSymbol drops a symbol from the procedure's symbol list (used by
// dead-code elimination step 5, after the last assignment to it is
// removed).
func (p *Procedure) RemoveSymbol(sym *Symbol) {
	for i, s := range p.Symbols {
		if s == sym {
			p.Symbols = append(p.Symbols[:i], p.Symbols[i+1:]...)
			return
		}
	}
}

// Emit appends e immediately before the end label, matching
// IR::Procedure::emit in the original source.
func (p *Procedure) Emit(e *Entry) {
	p.Entries.InsertBefore(p.End, e)
}

// InsertBefore splices e into the entry list immediately before mark.
func (p *Procedure) InsertBefore(mark, e *Entry) {
	p.Entries.InsertBefore(mark, e)
}

// InsertAfter splices e into the entry list immediately after mark.
func (p *Procedure) InsertAfter(mark, e *Entry) {
	p.Entries.InsertAfter(mark, e)
}

// Erase removes e from the entry list. Callers must also invalidate any
// Analysis referencing e (spec §4.D's remove hook) before calling this.
func (p *Procedure) Erase(e *Entry) {
	p.Entries.Erase(e)
}

// Prologue returns the procedure's unique Prologue entry, or nil.
func (p *Procedure) Prologue() *Entry {
	for e := p.Entries.Front(); e != nil; e = p.Entries.Next(e) {
		if e.Op == OpPrologue {
			return e
		}
	}
	return nil
}

// Epilogue returns the procedure's unique Epilogue entry, or nil.
func (p *Procedure) Epilogue() *Entry {
	for e := p.Entries.Back(); e != nil; e = p.Entries.Prev(e) {
		if e.Op == OpEpilogue {
			return e
		}
	}
	return nil
}
