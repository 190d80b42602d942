package analysis

import "rmcc/internal/flow"

// DominanceFrontiers is the standard "runner" algorithm (spec §4.D):
// for every block with >=2 predecessors, each predecessor walks up the
// dominator tree toward idom(b), adding b to every block it passes.
type DominanceFrontiers struct {
	frontier map[*flow.Block]map[*flow.Block]bool
}

func computeDominanceFrontiers(g *flow.Graph, dom *Dominators) *DominanceFrontiers {
	df := &DominanceFrontiers{frontier: map[*flow.Block]map[*flow.Block]bool{}}

	for _, b := range g.Blocks {
		if len(b.Preds) < 2 {
			continue
		}
		idomB := dom.IDom(b)
		for _, p := range b.Preds {
			runner := p
			for runner != idomB {
				if df.frontier[runner] == nil {
					df.frontier[runner] = map[*flow.Block]bool{}
				}
				df.frontier[runner][b] = true
				next := dom.IDom(runner)
				if next == runner {
					break
				}
				runner = next
			}
		}
	}

	return df
}

// Of returns b's dominance frontier.
func (df *DominanceFrontiers) Of(b *flow.Block) []*flow.Block {
	set := df.frontier[b]
	out := make([]*flow.Block, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	return out
}
