package transform

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
)

// ThreadJumps follows chains of Jump targets to their ultimate fixed
// point and rewrites them; CJump arms are threaded independently
// (spec §4.E).
func ThreadJumps(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false

	ultimate := func(label *ir.Entry) *ir.Entry {
		seen := map[*ir.Entry]bool{}
		cur := label
		for {
			next := jumpOnlyTarget(proc, cur)
			if next == nil || seen[next] {
				return cur
			}
			seen[cur] = true
			cur = next
		}
	}

	proc.Entries.Each(func(e *ir.Entry) {
		switch e.Op {
		case ir.OpJump:
			if t := ultimate(e.Target); t != e.Target {
				e.Target = t
				changed = true
			}
		case ir.OpCJump:
			if t := ultimate(e.TrueTarget); t != e.TrueTarget {
				e.TrueTarget = t
				changed = true
			}
			if t := ultimate(e.FalseTarget); t != e.FalseTarget {
				e.FalseTarget = t
				changed = true
			}
		}
	})

	if changed {
		a.Invalidate()
	}
	return changed
}

// jumpOnlyTarget returns the target of label's block when that block
// is nothing but the label followed immediately by an unconditional
// Jump, or nil otherwise.
func jumpOnlyTarget(proc *ir.Procedure, label *ir.Entry) *ir.Entry {
	next := proc.Entries.Next(label)
	if next != nil && next.Op == ir.OpJump {
		return next.Target
	}
	return nil
}
