package analysis

import (
	"rmcc/internal/flow"
	"rmcc/internal/ir"
)

// CallerSavedProvider supplies, for an entry that crosses a calling
// boundary (Call, Load/StoreRet, Load/StoreArg), the caller-saved
// pseudo-symbols that should interfere with everything live at that
// point (spec §4.G). The register allocator owns the mapping from
// argument/return slot to pseudo symbol; Interference only needs the
// resulting set.
type CallerSavedProvider func(e *ir.Entry) []*ir.Symbol

// Interference is the undirected interference graph over symbols
// (spec §4.D): an edge between two symbols simultaneously live at some
// program point.
type Interference struct {
	edges map[*ir.Symbol]map[*ir.Symbol]bool
	nodes map[*ir.Symbol]bool
}

func newInterference() *Interference {
	return &Interference{edges: map[*ir.Symbol]map[*ir.Symbol]bool{}, nodes: map[*ir.Symbol]bool{}}
}

func (i *Interference) addNode(s *ir.Symbol) {
	i.nodes[s] = true
	if i.edges[s] == nil {
		i.edges[s] = map[*ir.Symbol]bool{}
	}
}

func (i *Interference) addEdge(a, b *ir.Symbol) {
	if a == nil || b == nil || a == b {
		return
	}
	i.addNode(a)
	i.addNode(b)
	i.edges[a][b] = true
	i.edges[b][a] = true
}

func (i *Interference) addClique(syms []*ir.Symbol) {
	for _, s := range syms {
		i.addNode(s)
	}
	for x := 0; x < len(syms); x++ {
		for y := x + 1; y < len(syms); y++ {
			i.addEdge(syms[x], syms[y])
		}
	}
}

// Interferes reports whether a and b share an edge.
func (i *Interference) Interferes(a, b *ir.Symbol) bool {
	return i.edges[a] != nil && i.edges[a][b]
}

// Neighbors returns every symbol interfering with s.
func (i *Interference) Neighbors(s *ir.Symbol) []*ir.Symbol {
	out := make([]*ir.Symbol, 0, len(i.edges[s]))
	for n := range i.edges[s] {
		out = append(out, n)
	}
	return out
}

// Degree returns the number of symbols interfering with s.
func (i *Interference) Degree(s *ir.Symbol) int {
	return len(i.edges[s])
}

// Nodes returns every symbol present in the graph.
func (i *Interference) Nodes() []*ir.Symbol {
	out := make([]*ir.Symbol, 0, len(i.nodes))
	for n := range i.nodes {
		out = append(out, n)
	}
	return out
}

// computeInterference adds, for every entry, a clique among the
// symbols live immediately after it plus the symbol it defines (if any), and
// — when provider is set — a clique between those live symbols and any
// caller-saved pseudo-registers the provider attaches to calling-
// boundary entries.
func computeInterference(proc *ir.Procedure, g *flow.Graph, live *LiveVariables, provider CallerSavedProvider) *Interference {
	i := newInterference()

	proc.Entries.Each(func(e *ir.Entry) {
		liveAt := live.LiveOut(e)
		group := make([]*ir.Symbol, 0, len(liveAt)+1)
		for s := range liveAt {
			group = append(group, s)
		}
		if assign := e.Assign(); assign != nil {
			group = append(group, assign)
		}
		i.addClique(group)

		if provider == nil {
			return
		}
		pseudos := provider(e)
		if len(pseudos) == 0 {
			return
		}
		for _, p := range pseudos {
			for _, s := range group {
				if s != e.Rhs1 && s != e.Lhs {
					i.addEdge(p, s)
				}
			}
		}
	})

	return i
}
