package analysis

import "rmcc/internal/ir"

// Value is a compile-time constant discovered by Constants: either an
// integer immediate or a string literal.
type Value struct {
	IsString bool
	Int      int
	Str      string
}

// Constants answers, for a use of a symbol at a given entry, whether
// every reaching definition agrees on the same immediate Move or
// LoadString literal (spec §4.D).
type Constants struct {
	rd *ReachingDefs
}

func computeConstants(rd *ReachingDefs) *Constants {
	return &Constants{rd: rd}
}

// At reports the constant value of sym as seen from entry, if every
// reaching definition of sym at entry is an immediate Move or
// LoadString agreeing on the same value.
func (c *Constants) At(entry *ir.Entry, sym *ir.Symbol) (Value, bool) {
	defs := c.rd.DefsForSymbol(entry, sym)
	if len(defs) == 0 {
		return Value{}, false
	}

	var val Value
	for i, def := range defs {
		var v Value
		switch {
		case def.Op == ir.OpMove && def.HasImm && def.Rhs1 == nil:
			v = Value{Int: def.Imm}
		case def.Op == ir.OpLoadString:
			v = Value{IsString: true, Str: def.StringValue}
		default:
			return Value{}, false
		}
		if i == 0 {
			val = v
		} else if val != v {
			return Value{}, false
		}
	}
	return val, true
}
