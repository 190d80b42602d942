package regalloc

import (
	"rmcc/internal/analysis"
	"rmcc/internal/dataflow"
	"rmcc/internal/ir"
)

// spillVariable rewrites every use and def of symbol to go through a
// freshly allocated stack slot (spec §4.G "Spilling"). A use whose
// value is known constant at that point is rematerialized instead of
// reloaded; a def whose value was entirely consumed by rematerialized
// uses is deleted outright rather than stored.
func spillVariable(proc *ir.Procedure, symbol *ir.Symbol, a *analysis.Analysis) {
	prologue := proc.Prologue()
	epilogue := proc.Epilogue()
	slot := prologue.Slots

	live := a.LiveVariables()
	useDefs := a.UseDefs()
	constants := a.Constants()

	isLive := false
	var liveSet dataflow.Set[*ir.Symbol]
	neededDefs := map[*ir.Entry]bool{}
	spillLoads := map[*ir.Entry]bool{}

	for _, e := range proc.Entries.Slice() {
		if e.Uses(symbol) && !isLive {
			var def *ir.Entry
			if val, ok := constants.At(e, symbol); ok && !val.IsString {
				def = &ir.Entry{Op: ir.OpMove, Lhs: symbol, HasImm: true, Imm: val.Int}
			} else {
				def = &ir.Entry{Op: ir.OpLoadStack, Lhs: symbol, Imm: slot}
				for _, d := range useDefs.ReachingDefsOf(e, symbol) {
					neededDefs[d] = true
				}
			}
			proc.InsertBefore(e, def)
			spillLoads[def] = true

			isLive = true
			liveSet = live.LiveIn(e)
		}

		if e.Assign() == symbol {
			isLive = true
			liveSet = live.LiveIn(e)
		}

		if e.Op == ir.OpLabel {
			isLive = false
		} else if isLive {
			current := live.LiveIn(e)
			for s := range liveSet {
				if !current.Contains(s) {
					isLive = false
					break
				}
			}
			liveSet = current
		}
	}

	storesInserted := false
	for _, e := range proc.Entries.Slice() {
		if e.Assign() != symbol {
			continue
		}
		if neededDefs[e] {
			store := &ir.Entry{Op: ir.OpStoreStack, Rhs1: symbol, Imm: slot}
			proc.InsertAfter(e, store)
			storesInserted = true
		} else if !spillLoads[e] {
			proc.Erase(e)
		}
	}

	if storesInserted {
		prologue.Slots++
		epilogue.Slots++
	}
}
