// Package flow partitions a Procedure's linear entry list into basic
// blocks with predecessor/successor edges (spec §4.B, component B).
package flow

import "rmcc/internal/ir"

// Block is a maximal run of entries with no branches in or out except at
// its boundaries. It holds a non-owning slice view into the owning
// Procedure's entries — never a copy (spec §3).
type Block struct {
	Entries ir.EntrySubList
	Preds   []*Block
	Succs   []*Block
}

// Label returns the entry that opens this block.
func (b *Block) Label() *ir.Entry { return b.Entries.First }

// Terminator returns the entry that closes this block (a Jump or CJump),
// or nil if the block falls through to its sole successor.
func (b *Block) Terminator() *ir.Entry {
	if b.Entries.Last != nil && b.Entries.Last.IsTerminator() {
		return b.Entries.Last
	}
	return nil
}

func (b *Block) String() string {
	if b.Label() == nil {
		return "<block>"
	}
	return b.Label().LabelName
}

func (b *Block) addSucc(s *Block) {
	for _, existing := range b.Succs {
		if existing == s {
			return
		}
	}
	b.Succs = append(b.Succs, s)
	s.Preds = append(s.Preds, b)
}

// Each walks every entry in the block.
func (b *Block) Each(list *ir.EntryList, fn func(*ir.Entry)) {
	b.Entries.Each(list, fn)
}
