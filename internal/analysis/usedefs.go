package analysis

import "rmcc/internal/ir"

// UseDefs is the derived use-def/def-use structure (spec §4.D): for
// every entry and every symbol it uses, the set of reaching
// definitions of that symbol, plus the reverse mapping.
type UseDefs struct {
	uses map[*ir.Entry]map[*ir.Symbol][]*ir.Entry
	defs map[*ir.Entry][]*ir.Entry // def -> entries that use it
}

func computeUseDefs(proc *ir.Procedure, reaching *ReachingDefs) *UseDefs {
	ud := &UseDefs{
		uses: map[*ir.Entry]map[*ir.Symbol][]*ir.Entry{},
		defs: map[*ir.Entry][]*ir.Entry{},
	}

	proc.Entries.Each(func(e *ir.Entry) {
		for _, sym := range usedSymbols(e) {
			defs := reaching.DefsForSymbol(e, sym)
			if len(defs) == 0 {
				continue
			}
			if ud.uses[e] == nil {
				ud.uses[e] = map[*ir.Symbol][]*ir.Entry{}
			}
			ud.uses[e][sym] = defs
			for _, d := range defs {
				ud.defs[d] = append(ud.defs[d], e)
			}
		}
	})

	return ud
}

// usedSymbols enumerates the distinct symbols entry reads, taken
// directly from its operand fields.
func usedSymbols(e *ir.Entry) []*ir.Symbol {
	var out []*ir.Symbol
	seen := map[*ir.Symbol]bool{}
	add := func(s *ir.Symbol) {
		if s != nil && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(e.Rhs1)
	add(e.Rhs2)
	add(e.Pred)
	for _, a := range e.PhiArgs {
		add(a)
	}
	if e.Op == ir.OpStoreMem {
		add(e.Lhs)
	}
	return out
}

// ReachingDefsOf returns the definitions of sym that reach entry's use
// of it, or nil if entry doesn't use sym.
func (u *UseDefs) ReachingDefsOf(entry *ir.Entry, sym *ir.Symbol) []*ir.Entry {
	return u.uses[entry][sym]
}

// UsesOf returns every entry that uses a value defined by def.
func (u *UseDefs) UsesOf(def *ir.Entry) []*ir.Entry {
	return u.defs[def]
}
