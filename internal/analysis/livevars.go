package analysis

import (
	"rmcc/internal/dataflow"
	"rmcc/internal/flow"
	"rmcc/internal/ir"
)

// LiveVariables is backward/union dataflow on symbols (spec §4.D):
// gen(e) = symbols e reads, kill(e) = { e.assign() } \ gen(e).
//
// Because the underlying solver reconstitutes each entry's in-set in
// the entry order used for composition (reversed for backward
// problems), the in-set recorded for entry e is the set live once e
// has finished executing, not the set live just before it runs. LiveOut
// names that directly; LiveIn derives the "before" set by re-applying
// e's own gen/kill in reverse.
type LiveVariables struct {
	result *dataflow.Result[*ir.Symbol]
}

func computeLiveVariables(g *flow.Graph) *LiveVariables {
	gen := func(e *ir.Entry) dataflow.Set[*ir.Symbol] {
		out := dataflow.NewSet[*ir.Symbol]()
		assign := e.Assign()
		for _, s := range []*ir.Symbol{e.Rhs1, e.Rhs2, e.Pred} {
			if s != nil && s != assign {
				out.Add(s)
			}
		}
		if e.Op == ir.OpStoreMem && e.Lhs != nil {
			out.Add(e.Lhs)
		}
		for _, a := range e.PhiArgs {
			if a != nil {
				out.Add(a)
			}
		}
		return out
	}
	kill := func(e *ir.Entry) dataflow.Set[*ir.Symbol] {
		if s := e.Assign(); s != nil {
			return dataflow.NewSet(s)
		}
		return dataflow.NewSet[*ir.Symbol]()
	}

	result := dataflow.Solve(dataflow.Problem[*ir.Symbol]{
		Graph:     g,
		Gen:       gen,
		Kill:      kill,
		MeetType:  dataflow.Union,
		Direction: dataflow.Backward,
	})

	return &LiveVariables{result: result}
}

// LiveOut returns the symbols live immediately after entry executes.
func (l *LiveVariables) LiveOut(entry *ir.Entry) dataflow.Set[*ir.Symbol] {
	return l.result.EntryIn[entry]
}

// LiveIn returns the symbols live immediately before entry executes:
// gen(entry) unioned with LiveOut(entry) minus what entry kills.
func (l *LiveVariables) LiveIn(entry *ir.Entry) dataflow.Set[*ir.Symbol] {
	out := dataflow.NewSet[*ir.Symbol]()
	liveOut := l.LiveOut(entry)
	assign := entry.Assign()
	for s := range liveOut {
		if s != assign {
			out.Add(s)
		}
	}
	for _, s := range []*ir.Symbol{entry.Rhs1, entry.Rhs2, entry.Pred} {
		if s != nil {
			out.Add(s)
		}
	}
	if entry.Op == ir.OpStoreMem && entry.Lhs != nil {
		out.Add(entry.Lhs)
	}
	for _, a := range entry.PhiArgs {
		if a != nil {
			out.Add(a)
		}
	}
	return out
}

// IsLiveAt reports whether sym is live immediately before entry.
func (l *LiveVariables) IsLiveAt(entry *ir.Entry, sym *ir.Symbol) bool {
	return l.LiveIn(entry).Contains(sym)
}
