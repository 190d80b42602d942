// Package regalloc implements the Chaitin-style register allocator of
// spec §4.G: live-range renaming, interference-graph construction,
// simplify/spill/select coloring, and the spill rewrite that restarts
// the whole loop. Grounded on Back/RegisterAllocator.cpp in the
// original implementation.
package regalloc

import (
	"fmt"

	"rmcc/internal/analysis"
	"rmcc/internal/ir"
	"rmcc/internal/target"
	"rmcc/internal/transform"
)

// Allocate assigns a register number to every symbol in proc, spilling
// to the stack and restarting as many times as necessary. It returns
// the final symbol-to-register mapping.
func Allocate(proc *ir.Procedure, rf *target.RegisterFile) (map[*ir.Symbol]int, error) {
	if rf.K <= 0 {
		return nil, fmt.Errorf("regalloc: target register file has no allocatable registers")
	}

	for {
		a := analysis.New(proc)

		pseudos := make([]*ir.Symbol, rf.CallerSavedCount)
		for i := range pseudos {
			pseudos[i] = ir.NewSymbol(fmt.Sprintf("callersaved%d", i), 4)
		}
		a.SetCallerSavedProvider(callerSavedProvider(pseudos))

		transform.LiveRangeRenaming(proc, a)

		colors, spillTarget := tryAllocate(proc, a, rf, pseudos)
		if spillTarget == nil {
			return colors, nil
		}
		spillVariable(proc, spillTarget, a)
	}
}

// callerSavedProvider maps calling-boundary entries to the pseudo
// registers they occupy (spec §4.G): a Call conflicts with all of
// them, a Load/StoreRet with the return-value pseudo, and a
// Load/StoreArg with the pseudo for its argument slot.
func callerSavedProvider(pseudos []*ir.Symbol) analysis.CallerSavedProvider {
	return func(e *ir.Entry) []*ir.Symbol {
		switch e.Op {
		case ir.OpCall, ir.OpCallIndirect:
			return pseudos
		case ir.OpLoadRet, ir.OpStoreRet:
			if len(pseudos) == 0 {
				return nil
			}
			return pseudos[0:1]
		case ir.OpLoadArg, ir.OpStoreArg:
			if e.ArgIndex < 0 || e.ArgIndex >= len(pseudos) {
				return nil
			}
			return pseudos[e.ArgIndex : e.ArgIndex+1]
		default:
			return nil
		}
	}
}

// tryAllocate runs one simplify/select pass over the interference
// graph. It returns the completed coloring, or a nil coloring plus the
// lowest-spill-cost symbol that had to be evicted when no node had
// fewer than K interferences.
//
// Caller-saved pseudo symbols are graph decoration, not colorable
// nodes: they are never procedure symbols (ir.NewSymbol keeps them
// free-standing, per its own doc comment), so they are excluded from
// the set the peeling loop operates on and instead pre-seeded into the
// final coloring with their fixed register index, forcing real
// symbols live across a calling boundary away from that register.
func tryAllocate(proc *ir.Procedure, a *analysis.Analysis, rf *target.RegisterFile, pseudos []*ir.Symbol) (map[*ir.Symbol]int, *ir.Symbol) {
	graph := a.Interference()
	spillCosts := computeSpillCosts(proc, a)

	isReal := make(map[*ir.Symbol]bool, len(proc.Symbols))
	for _, s := range proc.Symbols {
		isReal[s] = true
	}

	var realNodes []*ir.Symbol
	for _, n := range graph.Nodes() {
		if isReal[n] {
			realNodes = append(realNodes, n)
		}
	}

	removed := map[*ir.Symbol]bool{}
	var stack []*ir.Symbol

	for {
		var remaining []*ir.Symbol
		for _, s := range realNodes {
			if !removed[s] {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			break
		}

		peeled := false
		for _, s := range remaining {
			degree := 0
			for _, n := range graph.Neighbors(s) {
				if isReal[n] && removed[n] {
					continue
				}
				degree++
			}
			if degree < rf.K {
				removed[s] = true
				stack = append(stack, s)
				peeled = true
				break
			}
		}
		if peeled {
			continue
		}

		var candidate *ir.Symbol
		for _, s := range remaining {
			if candidate == nil || spillCosts[s] < spillCosts[candidate] {
				candidate = s
			}
		}
		return nil, candidate
	}

	preferred := computePreferredRegisters(proc, rf)

	colors := map[*ir.Symbol]int{}
	for i, p := range pseudos {
		colors[p] = i
	}

	for i := len(stack) - 1; i >= 0; i-- {
		s := stack[i]
		used := map[int]bool{}
		for _, n := range graph.Neighbors(s) {
			if c, ok := colors[n]; ok {
				used[c] = true
			}
		}

		reg := -1
		if pref, ok := preferred[s]; ok && pref >= 0 && pref < rf.K && !used[pref] {
			reg = pref
		}
		if reg == -1 {
			for c := 0; c < rf.K; c++ {
				if !used[c] {
					reg = c
					break
				}
			}
		}
		colors[s] = reg
	}

	for _, p := range pseudos {
		delete(colors, p)
	}

	return colors, nil
}

// computePreferredRegisters collects each symbol's preferred register
// from its Load/StoreRet and Load/StoreArg entries, invalidating the
// preference to "none" (-1) if two such entries disagree (spec §4.G).
func computePreferredRegisters(proc *ir.Procedure, rf *target.RegisterFile) map[*ir.Symbol]int {
	preferred := map[*ir.Symbol]int{}
	set := func(sym *ir.Symbol, reg int) {
		if sym == nil {
			return
		}
		if existing, ok := preferred[sym]; ok {
			if existing != reg {
				preferred[sym] = -1
			}
			return
		}
		preferred[sym] = reg
	}

	proc.Entries.Each(func(e *ir.Entry) {
		switch e.Op {
		case ir.OpLoadRet:
			set(e.Assign(), rf.ReturnRegister)
		case ir.OpStoreRet:
			set(e.Rhs1, rf.ReturnRegister)
		case ir.OpLoadArg:
			set(e.Assign(), rf.ArgRegister(e.ArgIndex))
		case ir.OpStoreArg:
			set(e.Rhs1, rf.ArgRegister(e.ArgIndex))
		}
	})

	return preferred
}

// computeSpillCosts sums, for every symbol, 10^(loop depth) for every
// entry that assigns or uses it (spec §4.G). An entry that both
// assigns and uses the same symbol (a rare self-referential form)
// contributes twice, matching the original's two independent checks.
func computeSpillCosts(proc *ir.Procedure, a *analysis.Analysis) map[*ir.Symbol]int {
	g := a.Graph()
	loops := a.Loops()
	costs := map[*ir.Symbol]int{}

	proc.Entries.Each(func(e *ir.Entry) {
		weight := pow10(loops.DepthOf(g.BlockOf(e)))
		for _, sym := range proc.Symbols {
			if e.Assign() == sym {
				costs[sym] += weight
			}
			if e.Uses(sym) {
				costs[sym] += weight
			}
		}
	})

	return costs
}

func pow10(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
