package flow

import "rmcc/internal/ir"

// Graph is the control-flow graph over a Procedure's basic blocks (spec
// §3, §4.B). Start and End are the blocks opened by the procedure's
// bracketing start/end Label entries (ir.Procedure.Start / .End): Start
// holds only the start label and falls through to the first real block,
// and every Return path (a
// fallthrough off the end of a block's code with no further Jump/CJump)
// falls through to End.
type Graph struct {
	Proc       *ir.Procedure
	Start, End *Block
	Blocks     []*Block // every block including Start/End, in textual order

	entryBlock map[*ir.Entry]*Block
	labelBlock map[*ir.Entry]*Block // label entry -> block it opens
}

// Build partitions proc's entries into blocks and wires pred/succ edges
// (spec §4.B): a new block starts at every Label and at any entry that
// follows a closed block without a Label of its own; a block ends at any
// Jump/CJump, immediately before the next Label, or right after the
// start label, so Start holds nothing but that label.
func Build(proc *ir.Procedure) *Graph {
	g := &Graph{
		Proc:       proc,
		entryBlock: map[*ir.Entry]*Block{},
		labelBlock: map[*ir.Entry]*Block{},
	}

	entries := proc.Entries.Slice()
	var cur *Block
	flush := func(last *ir.Entry) {
		cur.Entries.Last = last
		g.Blocks = append(g.Blocks, cur)
		cur = nil
	}

	for i, e := range entries {
		if e.Op == ir.OpLabel || cur == nil {
			cur = &Block{}
			cur.Entries.First = e
			if e.Op == ir.OpLabel {
				g.labelBlock[e] = cur
			}
		}
		g.entryBlock[e] = cur

		isLast := e == proc.Start || e.IsTerminator() || i == len(entries)-1 || entries[i+1].Op == ir.OpLabel
		if isLast {
			flush(e)
		}
	}

	g.Start = g.labelBlock[proc.Start]
	g.End = g.labelBlock[proc.End]

	for i, b := range g.Blocks {
		term := b.Terminator()
		if term == nil {
			if i+1 < len(g.Blocks) {
				b.addSucc(g.Blocks[i+1])
			}
			continue
		}
		for _, target := range term.Targets() {
			if target == nil {
				continue
			}
			if tb, ok := g.labelBlock[target]; ok {
				b.addSucc(tb)
			}
			// A dangling target is a violation ir.CheckInvariants will flag.
		}
	}

	return g
}

// BlockOf returns the block that owns entry e.
func (g *Graph) BlockOf(e *ir.Entry) *Block {
	return g.entryBlock[e]
}

// Replace swaps new for old at whichever block boundary references old.
// It is a no-op for interior swaps, since sub-lists are boundary-only
// (spec §4.B).
func (g *Graph) Replace(old, new *ir.Entry) {
	for _, b := range g.Blocks {
		if b.Entries.First == old || b.Entries.Last == old {
			b.Entries.Replace(old, new)
			if b.Entries.First == new {
				g.labelBlock[new] = b
				delete(g.labelBlock, old)
			}
			g.entryBlock[new] = b
			delete(g.entryBlock, old)
		}
	}
}
