package transform

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
)

// DeadCodeElimination performs, in one pass, the five cleanups of
// spec §4.E: unreachable blocks, self-moves, unused pure definitions,
// jumps to the immediately following label, and symbols left with no
// assignments.
func DeadCodeElimination(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false

	if removeUnreachableBlocks(proc, a) {
		changed = true
	}
	if removeSelfMoves(proc, a) {
		changed = true
	}
	if removeUnusedDefs(proc, a) {
		changed = true
	}
	if removeRedundantJumps(proc, a) {
		changed = true
	}
	if dropUnassignedSymbols(proc) {
		changed = true
	}

	return changed
}

// removeUnreachableBlocks drops blocks with no predecessor other than
// the designated entry block.
func removeUnreachableBlocks(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	g := a.Graph()

	for _, b := range g.Blocks {
		if b == g.Start {
			continue
		}
		if len(b.Preds) > 0 {
			continue
		}
		var toErase []*ir.Entry
		b.Each(proc.Entries, func(e *ir.Entry) { toErase = append(toErase, e) })
		for _, e := range toErase {
			a.Remove(e)
			proc.Erase(e)
		}
		changed = true
	}

	if changed {
		a.Invalidate()
	}
	return changed
}

// removeSelfMoves deletes `Move l := l`.
func removeSelfMoves(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	var dead []*ir.Entry
	proc.Entries.Each(func(e *ir.Entry) {
		if e.Op == ir.OpMove && e.Rhs1 != nil && e.Lhs == e.Rhs1 {
			dead = append(dead, e)
		}
	})
	for _, e := range dead {
		a.Remove(e)
		proc.Erase(e)
		changed = true
	}
	return changed
}

// removeUnusedDefs deletes pure assignments with no uses, per use-def
// chains.
func removeUnusedDefs(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	useDefs := a.UseDefs()

	var dead []*ir.Entry
	proc.Entries.Each(func(e *ir.Entry) {
		s := e.Assign()
		if s == nil || e.Op == ir.OpCall || e.Op == ir.OpCallIndirect {
			return // calls may have effects beyond their assignment
		}
		if len(useDefs.UsesOf(e)) == 0 {
			dead = append(dead, e)
		}
	})
	for _, e := range dead {
		a.Remove(e)
		proc.Erase(e)
		changed = true
	}
	return changed
}

// removeRedundantJumps deletes a Jump whose target is the label that
// immediately follows it (only intervening labels are allowed).
func removeRedundantJumps(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	var dead []*ir.Entry

	entries := proc.Entries.Slice()
	for i, e := range entries {
		if e.Op != ir.OpJump {
			continue
		}
		j := i + 1
		for j < len(entries) && entries[j].Op == ir.OpLabel && entries[j] != e.Target {
			j++
		}
		if j < len(entries) && entries[j] == e.Target {
			dead = append(dead, e)
		}
	}

	for _, e := range dead {
		a.Remove(e)
		proc.Erase(e)
		changed = true
	}

	if changed {
		a.Invalidate()
	}
	return changed
}

// dropUnassignedSymbols removes procedure symbols with zero remaining
// assignments.
func dropUnassignedSymbols(proc *ir.Procedure) bool {
	assigned := map[*ir.Symbol]bool{}
	proc.Entries.Each(func(e *ir.Entry) {
		if s := e.Assign(); s != nil {
			assigned[s] = true
		}
	})

	changed := false
	for _, s := range append([]*ir.Symbol(nil), proc.Symbols...) {
		if !assigned[s] {
			proc.RemoveSymbol(s)
			changed = true
		}
	}
	return changed
}
