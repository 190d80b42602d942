package transform

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
)

// LiveRangeRenaming splits each symbol into one fresh symbol per
// connected component of its def-use graph (spec §4.E), shrinking live
// ranges ahead of register allocation.
func LiveRangeRenaming(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	useDefs := a.UseDefs()

	for _, sym := range append([]*ir.Symbol(nil), proc.Symbols...) {
		components := defUseComponents(proc, useDefs, sym)
		if len(components) <= 1 {
			continue
		}
		for i, comp := range components {
			if i == 0 {
				continue // first component keeps the original symbol
			}
			fresh := proc.AddSymbol(renameOf(sym.Name, i), sym.Size)
			for _, e := range comp {
				e.ReplaceAssign(sym, fresh)
				e.ReplaceUse(sym, fresh)
			}
			changed = true
		}
	}

	if changed {
		a.Invalidate()
	}
	return changed
}

func renameOf(base string, i int) string {
	suffix := [...]string{"", "b", "c", "d", "e", "f", "g", "h"}
	if i < len(suffix) {
		return base + "$" + suffix[i]
	}
	return base + "$x"
}

// defUseComponents partitions the entries that define or use sym into
// connected components of the def-use graph: two entries are linked if
// one defines sym and the other (reached via reaching defs) uses that
// definition.
func defUseComponents(proc *ir.Procedure, useDefs *analysis.UseDefs, sym *ir.Symbol) [][]*ir.Entry {
	var related []*ir.Entry
	adjacency := map[*ir.Entry][]*ir.Entry{}

	proc.Entries.Each(func(e *ir.Entry) {
		if e.Assign() == sym || e.Uses(sym) {
			related = append(related, e)
		}
	})

	for _, e := range related {
		if e.Assign() == sym {
			for _, user := range useDefs.UsesOf(e) {
				if user.Uses(sym) {
					adjacency[e] = append(adjacency[e], user)
					adjacency[user] = append(adjacency[user], e)
				}
			}
		}
	}

	visited := map[*ir.Entry]bool{}
	var components [][]*ir.Entry
	for _, start := range related {
		if visited[start] {
			continue
		}
		var comp []*ir.Entry
		stack := []*ir.Entry{start}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[cur] {
				continue
			}
			visited[cur] = true
			comp = append(comp, cur)
			stack = append(stack, adjacency[cur]...)
		}
		components = append(components, comp)
	}
	return components
}
