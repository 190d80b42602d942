package transform

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
)

// CommonSubexpressionElimination replaces each pure-expression entry
// with a Move from an earlier available expression that Matches it
// (spec §4.E).
func CommonSubexpressionElimination(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	avail := a.AvailableExpressions()

	var candidates []*ir.Entry
	proc.Entries.Each(func(e *ir.Entry) {
		if e.Op.IsPureExpression() {
			candidates = append(candidates, e)
		}
	})

	for _, e := range candidates {
		dest, match := avail.Find(e)
		if match == nil || dest == nil {
			continue
		}
		lhs := e.Assign()
		e.Op = ir.OpMove
		e.Lhs = lhs
		e.Rhs1 = dest
		e.Rhs2 = nil
		e.HasImm = false
		changed = true
	}

	if changed {
		a.Invalidate()
	}
	return changed
}
