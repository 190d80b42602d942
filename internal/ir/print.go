package ir

import (
	"fmt"
	"strings"
)

// Print renders a procedure as text, grounded on IR::Procedure::print /
// IR::Entry::print in the original source. It is a debugging aid, not a
// reparseable format.
func Print(p *Procedure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "proc %s\n", p.Name)
	fmt.Fprintf(&b, "  symbols:\n")
	for _, s := range p.Symbols {
		fmt.Fprintf(&b, "    %s (%d bytes)\n", s.Name, s.Size)
	}
	fmt.Fprintf(&b, "  body:\n")
	p.Entries.Each(func(e *Entry) {
		fmt.Fprintf(&b, "    %s\n", PrintEntry(e))
	})
	return b.String()
}

// PrintEntry renders a single entry.
func PrintEntry(e *Entry) string {
	switch e.Op {
	case OpLabel:
		return e.LabelName + ":"
	case OpJump:
		return fmt.Sprintf("jmp %s", e.Target.LabelName)
	case OpCJump:
		return fmt.Sprintf("cjmp %s, %s, %s", symName(e.Pred), e.TrueTarget.LabelName, e.FalseTarget.LabelName)
	case OpCall:
		return fmt.Sprintf("%s := call %s(%s)", symName(e.Lhs), e.CallSymbol, symName(e.Rhs1))
	case OpCallIndirect:
		return fmt.Sprintf("%s := calli %s", symName(e.Lhs), symName(e.Rhs1))
	case OpLoadArg, OpLoadRet:
		return fmt.Sprintf("%s := %s[%d]", symName(e.Lhs), e.Op, e.ArgIndex)
	case OpStoreArg, OpStoreRet:
		return fmt.Sprintf("%s[%d] := %s", e.Op, e.ArgIndex, symName(e.Rhs1))
	case OpPrologue, OpEpilogue:
		return fmt.Sprintf("%s %d", e.Op, e.Slots)
	case OpLoadString:
		return fmt.Sprintf("%s := ldstr %q", symName(e.Lhs), e.StringValue)
	case OpFunctionAddr:
		return fmt.Sprintf("%s := addr %s", symName(e.Lhs), e.CallSymbol)
	case OpPhi:
		parts := make([]string, len(e.PhiArgs))
		for i, a := range e.PhiArgs {
			parts[i] = symName(a)
		}
		return fmt.Sprintf("%s := phi(%s)", symName(e.Lhs), strings.Join(parts, ", "))
	default:
		lhs := symName(e.Assign())
		if e.Op == OpStoreMem {
			lhs = fmt.Sprintf("[%s]", symName(e.Lhs))
		}
		rhs2 := symName(e.Rhs2)
		if rhs2 == "" && e.HasImm {
			rhs2 = fmt.Sprintf("%d", e.Imm)
		}
		if rhs2 == "" {
			return fmt.Sprintf("%s := %s %s", lhs, e.Op, symName(e.Rhs1))
		}
		return fmt.Sprintf("%s := %s %s, %s", lhs, e.Op, symName(e.Rhs1), rhs2)
	}
}

func symName(s *Symbol) string {
	if s == nil {
		return ""
	}
	return s.Name
}
