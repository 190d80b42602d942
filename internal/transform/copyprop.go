package transform

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
)

// CopyProp runs the two sweeps described in spec §4.E. The forward
// sweep rewrites uses of a copy's destination to its source wherever
// the copy's value still holds; the backward sweep folds a move whose
// source has exactly one definition back into that definition.
func CopyProp(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := forwardCopyProp(proc, a)
	if backwardCopyProp(proc, a) {
		changed = true
	}
	return changed
}

// forwardCopyProp rewrites uses of l (from `Move l := r`) to r wherever
// every reaching definition of l at the use is this same move and
// neither l nor r has been reassigned since.
func forwardCopyProp(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	useDefs := a.UseDefs()

	var moves []*ir.Entry
	proc.Entries.Each(func(e *ir.Entry) {
		if e.Op == ir.OpMove && e.Rhs1 != nil && !e.HasImm {
			moves = append(moves, e)
		}
	})

	for _, mv := range moves {
		l, r := mv.Assign(), mv.Rhs1
		for _, user := range append([]*ir.Entry(nil), useDefs.UsesOf(mv)...) {
			defs := useDefs.ReachingDefsOf(user, l)
			if len(defs) != 1 || defs[0] != mv {
				continue
			}
			if reassignedBetween(proc, mv, user, r) {
				continue
			}
			a.ReplaceUse(user, l, r)
			changed = true
		}
	}

	return changed
}

// backwardCopyProp folds `Move l := r` back into r's unique definition
// when that definition can assign to l directly instead, eliminating
// the move.
func backwardCopyProp(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	useDefs := a.UseDefs()

	var moves []*ir.Entry
	proc.Entries.Each(func(e *ir.Entry) {
		if e.Op == ir.OpMove && e.Rhs1 != nil && !e.HasImm {
			moves = append(moves, e)
		}
	})

	for _, mv := range moves {
		l, r := mv.Assign(), mv.Rhs1
		defs := useDefs.ReachingDefsOf(mv, r)
		if len(defs) != 1 {
			continue
		}
		def := defs[0]
		if def.Assign() != r || len(useDefs.UsesOf(def)) != 1 {
			continue // r must be defined exactly once, used only by this move
		}
		if !def.Op.IsArithLogic() && def.Op != ir.OpLoadMem {
			continue
		}
		def.ReplaceAssign(r, l)
		a.Remove(mv)
		proc.Erase(mv)
		changed = true
	}

	return changed
}

// reassignedBetween conservatively reports whether sym is redefined on
// any entry strictly between from and to (textual order within the
// same procedure entry list).
func reassignedBetween(proc *ir.Procedure, from, to *ir.Entry, sym *ir.Symbol) bool {
	reassigned := false
	inRange := false
	proc.Entries.Each(func(e *ir.Entry) {
		if e == from {
			inRange = true
			return
		}
		if e == to {
			inRange = false
			return
		}
		if inRange && e.Assign() == sym {
			reassigned = true
		}
	})
	return reassigned
}
