package ir

import "fmt"

// CheckInvariants verifies three of the structural invariants of spec §3:
// every jump target is a label present in the procedure (1), every symbol
// mentioned belongs to the procedure (3), and Prologue and Epilogue each
// appear exactly once with identical slot counts (4). The others, including
// where Prologue and Epilogue sit in the entry list, are not checked.
// It is used by tests (spec §8's testable
// properties) and may be run by tools in debug builds; the optimizer
// itself does not call it on every pass, since every transform is already
// required to preserve these invariants as a correctness condition, not
// merely check them after the fact.
func CheckInvariants(p *Procedure) error {
	labels := map[*Entry]bool{}
	symbols := map[*Symbol]bool{}
	for _, s := range p.Symbols {
		symbols[s] = true
	}

	p.Entries.Each(func(e *Entry) {
		if e.Op == OpLabel {
			labels[e] = true
		}
	})

	var prologueCount, epilogueCount int
	var prologueSlots, epilogueSlots int
	idx := 0
	var err error
	p.Entries.Each(func(e *Entry) {
		idx++
		if err != nil {
			return
		}
		// Invariant 1: every Jump/CJump target is a Label present in the procedure.
		for _, t := range e.Targets() {
			if t != nil && !labels[t] {
				err = fmt.Errorf("procedure %q: entry #%d jumps to a label not present in the procedure", p.Name, idx)
				return
			}
		}
		// Invariant 3: every symbol mentioned belongs to the procedure's symbol list.
		for _, sym := range entrySymbols(e) {
			if sym != nil && !symbols[sym] {
				err = fmt.Errorf("procedure %q: entry #%d references symbol %q foreign to the procedure", p.Name, idx, sym.Name)
				return
			}
		}
		if e.Op == OpPrologue {
			prologueCount++
			prologueSlots = e.Slots
		}
		if e.Op == OpEpilogue {
			epilogueCount++
			epilogueSlots = e.Slots
		}
	})
	if err != nil {
		return err
	}

	// Invariant 4: Prologue/Epilogue appear exactly once, with identical slot counts.
	if prologueCount != 1 {
		return fmt.Errorf("procedure %q: expected exactly one Prologue, found %d", p.Name, prologueCount)
	}
	if epilogueCount != 1 {
		return fmt.Errorf("procedure %q: expected exactly one Epilogue, found %d", p.Name, epilogueCount)
	}
	if prologueSlots != epilogueSlots {
		return fmt.Errorf("procedure %q: Prologue slot count %d does not match Epilogue slot count %d", p.Name, prologueSlots, epilogueSlots)
	}

	return nil
}

// entrySymbols returns every symbol mentioned (assigned or used) by e.
func entrySymbols(e *Entry) []*Symbol {
	var out []*Symbol
	if a := e.Assign(); a != nil {
		out = append(out, a)
	}
	switch e.Op {
	case OpCJump:
		out = append(out, e.Pred)
	case OpStoreMem:
		out = append(out, e.Lhs, e.Rhs1)
	case OpPhi:
		out = append(out, e.PhiArgs...)
	default:
		if e.Rhs1 != nil {
			out = append(out, e.Rhs1)
		}
		if e.Rhs2 != nil {
			out = append(out, e.Rhs2)
		}
	}
	return out
}
