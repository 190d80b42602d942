// Package analysis implements the Analysis façade (spec component D):
// lazily constructed, cached analyses over a Procedure with edit hooks
// transforms call after every IR mutation so downstream passes never
// observe a stale world. Grounded on Compiler/Analysis/*.h in the
// original implementation, which holds the same set of lazily built,
// invalidatable analysis objects behind a single Analysis class.
package analysis

import (
	"rmcc/internal/flow"
	"rmcc/internal/ir"
)

// Analysis owns the lazily constructed handles for one Procedure. It
// is not safe for concurrent use — spec §5 is single-threaded per
// compilation unit.
type Analysis struct {
	proc *ir.Procedure

	graph      *flow.Graph
	reaching   *ReachingDefs
	useDefs    *UseDefs
	live       *LiveVariables
	avail      *AvailableExpressions
	dominators *Dominators
	frontiers  *DominanceFrontiers
	loops      *Loops
	constants  *Constants
	interfere  *Interference

	callerSaved CallerSavedProvider
}

func New(proc *ir.Procedure) *Analysis {
	return &Analysis{proc: proc}
}

func (a *Analysis) Procedure() *ir.Procedure { return a.proc }

// SetCallerSavedProvider installs the register allocator's mapping
// from calling-boundary entries to the caller-saved pseudo-symbols
// that should interfere with whatever is live there. Call before the
// first Interference() access; it has no effect afterward until the
// next invalidation.
func (a *Analysis) SetCallerSavedProvider(p CallerSavedProvider) {
	a.callerSaved = p
}

// Graph lazily builds and caches the flow graph.
func (a *Analysis) Graph() *flow.Graph {
	if a.graph == nil {
		a.graph = flow.Build(a.proc)
	}
	return a.graph
}

func (a *Analysis) ReachingDefs() *ReachingDefs {
	if a.reaching == nil {
		a.reaching = computeReachingDefs(a.proc, a.Graph())
	}
	return a.reaching
}

func (a *Analysis) UseDefs() *UseDefs {
	if a.useDefs == nil {
		a.useDefs = computeUseDefs(a.proc, a.ReachingDefs())
	}
	return a.useDefs
}

func (a *Analysis) LiveVariables() *LiveVariables {
	if a.live == nil {
		a.live = computeLiveVariables(a.Graph())
	}
	return a.live
}

func (a *Analysis) AvailableExpressions() *AvailableExpressions {
	if a.avail == nil {
		a.avail = computeAvailableExpressions(a.proc, a.Graph())
	}
	return a.avail
}

func (a *Analysis) Dominators() *Dominators {
	if a.dominators == nil {
		a.dominators = computeDominators(a.Graph())
	}
	return a.dominators
}

func (a *Analysis) DominanceFrontiers() *DominanceFrontiers {
	if a.frontiers == nil {
		a.frontiers = computeDominanceFrontiers(a.Graph(), a.Dominators())
	}
	return a.frontiers
}

func (a *Analysis) Loops() *Loops {
	if a.loops == nil {
		a.loops = computeLoops(a.Graph(), a.Dominators())
	}
	return a.loops
}

func (a *Analysis) Constants() *Constants {
	if a.constants == nil {
		a.constants = computeConstants(a.ReachingDefs())
	}
	return a.constants
}

func (a *Analysis) Interference() *Interference {
	if a.interfere == nil {
		a.interfere = computeInterference(a.proc, a.Graph(), a.LiveVariables(), a.callerSaved)
	}
	return a.interfere
}

// Replace notifies the façade that new has taken over old's semantic
// role (same assign/uses shape, e.g. a spill rewrite). The flow graph
// boundary is updated in place; every derived analysis is dropped and
// rebuilt lazily on next access — see DESIGN.md for why this façade
// trades the spec's O(degree) propagation budget for a simpler,
// whole-procedure recompute.
func (a *Analysis) Replace(old, new *ir.Entry) {
	if a.graph != nil {
		a.graph.Replace(old, new)
	}
	a.dropDerived()
}

// ReplaceUse notifies the façade that entry now reads newSym instead of
// oldSym.
func (a *Analysis) ReplaceUse(entry *ir.Entry, oldSym, newSym *ir.Symbol) {
	entry.ReplaceUse(oldSym, newSym)
	a.dropDerived()
}

// Remove notifies the façade that entry is about to be erased from the
// procedure.
func (a *Analysis) Remove(entry *ir.Entry) {
	if a.graph != nil {
		for _, b := range a.graph.Blocks {
			if b.Entries.First == entry || b.Entries.Last == entry {
				a.graph = nil
				break
			}
		}
	}
	a.dropDerived()
}

// Invalidate drops every cached analysis, including the flow graph.
// Transforms call this whenever CFG topology changes (e.g. a CJump
// collapsing to a Jump).
func (a *Analysis) Invalidate() {
	a.graph = nil
	a.dropDerived()
}

func (a *Analysis) dropDerived() {
	a.reaching = nil
	a.useDefs = nil
	a.live = nil
	a.avail = nil
	a.dominators = nil
	a.frontiers = nil
	a.loops = nil
	a.constants = nil
	a.interfere = nil
}
