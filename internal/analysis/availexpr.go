package analysis

import (
	"rmcc/internal/dataflow"
	"rmcc/internal/flow"
	"rmcc/internal/ir"
)

// AvailableExpressions is forward/intersect dataflow over entries whose
// operator is a pure expression (spec §4.D): gen(e) = {e} when e is
// pure, kill(e) = every recorded pure expression that reads or writes
// e.assign().
type AvailableExpressions struct {
	result *dataflow.Result[*ir.Entry]
}

func computeAvailableExpressions(proc *ir.Procedure, g *flow.Graph) *AvailableExpressions {
	definingBySym := map[*ir.Symbol][]*ir.Entry{}
	readingBySym := map[*ir.Symbol][]*ir.Entry{}
	all := dataflow.NewSet[*ir.Entry]()

	proc.Entries.Each(func(e *ir.Entry) {
		if !e.Op.IsPureExpression() {
			return
		}
		all.Add(e)
		if s := e.Assign(); s != nil {
			definingBySym[s] = append(definingBySym[s], e)
		}
		for _, s := range []*ir.Symbol{e.Rhs1, e.Rhs2} {
			if s != nil {
				readingBySym[s] = append(readingBySym[s], e)
			}
		}
	})

	gen := func(e *ir.Entry) dataflow.Set[*ir.Entry] {
		if e.Op.IsPureExpression() {
			return dataflow.NewSet(e)
		}
		return dataflow.NewSet[*ir.Entry]()
	}
	kill := func(e *ir.Entry) dataflow.Set[*ir.Entry] {
		s := e.Assign()
		if s == nil {
			return dataflow.NewSet[*ir.Entry]()
		}
		out := dataflow.NewSet[*ir.Entry]()
		for _, other := range definingBySym[s] {
			if other != e {
				out.Add(other)
			}
		}
		for _, other := range readingBySym[s] {
			out.Add(other)
		}
		return out
	}

	result := dataflow.Solve(dataflow.Problem[*ir.Entry]{
		Graph:     g,
		Gen:       gen,
		Kill:      kill,
		All:       all,
		MeetType:  dataflow.Intersect,
		Direction: dataflow.Forward,
	})

	return &AvailableExpressions{result: result}
}

// Available returns the set of pure expressions available immediately
// before entry runs.
func (a *AvailableExpressions) Available(entry *ir.Entry) dataflow.Set[*ir.Entry] {
	return a.result.EntryIn[entry]
}

// Matches reports whether candidate computes the same value as entry
// under the CSE matching rule (spec §4.E): same opcode, same rhs1/rhs2,
// same immediate, commutative operators matched either order, and a
// StoreMem considered a match for a LoadMem at the same address.
func Matches(entry, candidate *ir.Entry) bool {
	if entry.Op == ir.OpLoadMem && candidate.Op == ir.OpStoreMem {
		return entry.Rhs1 == candidate.Lhs && entry.Rhs2 == candidate.Rhs2 && entry.Imm == candidate.Imm
	}
	if entry.Op != candidate.Op {
		return false
	}
	if entry.HasImm != candidate.HasImm || (entry.HasImm && entry.Imm != candidate.Imm) {
		return false
	}
	if entry.Rhs1 == candidate.Rhs1 && entry.Rhs2 == candidate.Rhs2 {
		return true
	}
	if entry.Op.IsCommutative() && entry.Rhs1 == candidate.Rhs2 && entry.Rhs2 == candidate.Rhs1 {
		return true
	}
	return false
}

// Find looks through the expressions available at entry for one that
// Matches it, returning its destination symbol and the expression
// itself, or (nil, nil) if none is found.
func (a *AvailableExpressions) Find(entry *ir.Entry) (*ir.Symbol, *ir.Entry) {
	for candidate := range a.Available(entry) {
		if candidate == entry {
			continue
		}
		if Matches(entry, candidate) {
			if candidate.Op == ir.OpStoreMem {
				return candidate.Rhs1, candidate
			}
			return candidate.Assign(), candidate
		}
	}
	return nil, nil
}
