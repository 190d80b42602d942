package analysis

import "rmcc/internal/flow"

// Dominators is the dominator tree built with the Cooper-Harvey-Kennedy
// iterative algorithm over a reverse-post-order block numbering (spec
// §4.D).
type Dominators struct {
	rpo  []*flow.Block
	rpoN map[*flow.Block]int
	idom map[*flow.Block]*flow.Block
}

func reversePostOrder(g *flow.Graph) []*flow.Block {
	var order []*flow.Block
	visited := map[*flow.Block]bool{}
	var visit func(b *flow.Block)
	visit = func(b *flow.Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			visit(s)
		}
		order = append(order, b)
	}
	visit(g.Start)
	// order is post-order; reverse it for reverse-post-order.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func computeDominators(g *flow.Graph) *Dominators {
	rpo := reversePostOrder(g)
	rpoN := map[*flow.Block]int{}
	for i, b := range rpo {
		rpoN[b] = i
	}

	idom := map[*flow.Block]*flow.Block{g.Start: g.Start}

	intersect := func(a, b *flow.Block) *flow.Block {
		for a != b {
			for rpoN[a] > rpoN[b] {
				a = idom[a]
			}
			for rpoN[b] > rpoN[a] {
				b = idom[b]
			}
		}
		return a
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == g.Start {
				continue
			}
			var newIdom *flow.Block
			for _, p := range b.Preds {
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	return &Dominators{rpo: rpo, rpoN: rpoN, idom: idom}
}

// IDom returns b's immediate dominator. IDom(start) == start.
func (d *Dominators) IDom(b *flow.Block) *flow.Block {
	return d.idom[b]
}

// Dominates reports whether a dominates b (every path from start to b
// passes through a), by walking b's dominator-tree ancestors.
func (d *Dominators) Dominates(a, b *flow.Block) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		parent := d.idom[cur]
		if parent == nil || parent == cur {
			return cur == a
		}
		cur = parent
	}
}

// ReachableBlocks returns every block reachable from start in RPO
// order (i.e. the blocks the dominator tree was built over).
func (d *Dominators) ReachableBlocks() []*flow.Block {
	return d.rpo
}
