// Package optimizer drives the transform passes of spec component F: a
// work queue of transforms with dependency edges, where running a
// transform that reports a change enqueues its dependents. Grounded on
// Compiler/Optimizer.cpp in the original implementation, which drives
// the same fixed transform set from a unique work queue.
package optimizer

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
	"rmcc/internal/transform"
	"rmcc/internal/util"
)

// Pass names a transform for queueing and dependency lookup.
type Pass string

const (
	PassConstantProp Pass = "ConstantProp"
	PassCopyProp     Pass = "CopyProp"
	PassCSE          Pass = "CommonSubexpressionElim"
	PassDCE          Pass = "DeadCodeElim"
	PassThreadJumps  Pass = "ThreadJumps"
	PassLICM         Pass = "LoopInvariantCodeMotion"
)

// run maps each pass to the transform function it drives.
var run = map[Pass]func(*ir.Procedure, *analysis.Analysis) bool{
	PassConstantProp: transform.ConstantProp,
	PassCopyProp:     transform.CopyProp,
	PassCSE:          transform.CommonSubexpressionElimination,
	PassDCE:          transform.DeadCodeElimination,
	PassThreadJumps:  transform.ThreadJumps,
	PassLICM:         transform.LoopInvariantCodeMotion,
}

// dependents lists, for each pass, the passes a reported change should
// re-enqueue (spec §4.F).
var dependents = map[Pass][]Pass{
	PassCopyProp:     {PassDCE},
	PassConstantProp: {PassDCE},
	PassDCE:          {PassConstantProp, PassCopyProp},
	PassCSE:          {PassCopyProp},
}

// DefaultPipeline is the full pass set run to a fixed point, seeded in
// an order that lets the first pass over a fresh procedure make
// progress before anything depends on it.
var DefaultPipeline = []Pass{
	PassThreadJumps,
	PassConstantProp,
	PassCSE,
	PassCopyProp,
	PassLICM,
	PassDCE,
}

// Run drives passes to a fixed point using a unique work queue: a pass
// is never queued twice simultaneously, which together with every
// enqueue being caused by an actual IR change guarantees termination
// (spec §4.F).
func Run(proc *ir.Procedure, a *analysis.Analysis, pipeline []Pass) int {
	queue := util.NewUniqueQueue[Pass]()
	for _, p := range pipeline {
		queue.Push(p)
	}

	iterations := 0
	for !queue.Empty() {
		p := queue.Pop()
		fn, ok := run[p]
		if !ok {
			continue
		}
		iterations++
		if fn(proc, a) {
			for _, dep := range dependents[p] {
				queue.Push(dep)
			}
		}
	}

	return iterations
}
