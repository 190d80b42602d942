package transform

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
)

// LoopInvariantCodeMotion hoists constant Moves into the preheader of
// every non-root loop that has one, when the symbol they define is not
// reassigned anywhere else in the loop (spec §4.E). The design
// explicitly scopes the initial implementation to constant Moves,
// admitting a later extension to expressions dominated by the
// preheader.
func LoopInvariantCodeMotion(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	loops := a.Loops()

	for _, loop := range loops.All() {
		if loop.Preheader == nil {
			continue
		}

		defCounts := map[*ir.Symbol]int{}
		for b := range loop.Body {
			b.Each(proc.Entries, func(e *ir.Entry) {
				if s := e.Assign(); s != nil {
					defCounts[s]++
				}
			})
		}

		var hoist []*ir.Entry
		for b := range loop.Body {
			b.Each(proc.Entries, func(e *ir.Entry) {
				if e.Op != ir.OpMove || !e.HasImm || e.Rhs1 != nil {
					return
				}
				if s := e.Assign(); s != nil && defCounts[s] == 1 {
					hoist = append(hoist, e)
				}
			})
		}

		for _, e := range hoist {
			proc.Entries.Erase(e)
			if term := loop.Preheader.Terminator(); term != nil {
				proc.InsertBefore(term, e)
			} else {
				proc.InsertAfter(loop.Preheader.Entries.Last, e)
			}
			changed = true
		}
	}

	if changed {
		a.Invalidate()
	}
	return changed
}
