package analysis

import (
	"rmcc/internal/dataflow"
	"rmcc/internal/flow"
	"rmcc/internal/ir"
)

// ReachingDefs answers, for any entry, the set of definitions that may
// reach it (spec §4.D). Forward/Union dataflow over entries: gen(e) =
// {e} when e assigns a symbol, kill(e) = every other definition of
// that same symbol anywhere in the procedure.
type ReachingDefs struct {
	result    *dataflow.Result[*ir.Entry]
	defsBySym map[*ir.Symbol][]*ir.Entry
}

func computeReachingDefs(proc *ir.Procedure, g *flow.Graph) *ReachingDefs {
	defsBySym := map[*ir.Symbol][]*ir.Entry{}
	proc.Entries.Each(func(e *ir.Entry) {
		if s := e.Assign(); s != nil {
			defsBySym[s] = append(defsBySym[s], e)
		}
	})

	gen := func(e *ir.Entry) dataflow.Set[*ir.Entry] {
		if e.Assign() == nil {
			return dataflow.NewSet[*ir.Entry]()
		}
		return dataflow.NewSet(e)
	}
	kill := func(e *ir.Entry) dataflow.Set[*ir.Entry] {
		s := e.Assign()
		if s == nil {
			return dataflow.NewSet[*ir.Entry]()
		}
		out := dataflow.NewSet[*ir.Entry]()
		for _, other := range defsBySym[s] {
			if other != e {
				out.Add(other)
			}
		}
		return out
	}

	result := dataflow.Solve(dataflow.Problem[*ir.Entry]{
		Graph:     g,
		Gen:       gen,
		Kill:      kill,
		MeetType:  dataflow.Union,
		Direction: dataflow.Forward,
	})

	return &ReachingDefs{result: result, defsBySym: defsBySym}
}

// Defs returns every definition that may reach entry.
func (r *ReachingDefs) Defs(entry *ir.Entry) []*ir.Entry {
	set := r.result.EntryIn[entry]
	out := make([]*ir.Entry, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	return out
}

// DefsForSymbol filters Defs(entry) to definitions of sym.
func (r *ReachingDefs) DefsForSymbol(entry *ir.Entry, sym *ir.Symbol) []*ir.Entry {
	var out []*ir.Entry
	for e := range r.result.EntryIn[entry] {
		if e.Assign() == sym {
			out = append(out, e)
		}
	}
	return out
}
