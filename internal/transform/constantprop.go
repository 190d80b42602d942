// Package transform implements the optimization passes of spec
// component E, each sharing the (Procedure, Analysis) -> bool
// signature. Grounded on Compiler/Transform/*.cpp in the original
// implementation; every edit calls the matching analysis hook so
// downstream passes never see a stale world (spec §4.E).
package transform

import (
	"rmcc/internal/analysis"
	"rmcc/internal/ir"
	"rmcc/internal/util"
)

// ConstantProp folds entries whose operands are known constants,
// collapses identity arithmetic, collapses constant CJumps to Jumps,
// and folds constant memory offsets (spec §4.E). String values are
// never folded: a string constant is treated as unknown. It runs as a
// work queue seeded with every entry; folding a def re-queues its users.
func ConstantProp(proc *ir.Procedure, a *analysis.Analysis) bool {
	changed := false
	useDefs := a.UseDefs()
	constants := a.Constants()

	queue := util.NewUniqueQueue[*ir.Entry]()
	proc.Entries.Each(func(e *ir.Entry) { queue.Push(e) })

	constOf := func(e *ir.Entry, s *ir.Symbol) (int, bool) {
		if s == nil {
			return 0, false
		}
		v, ok := constants.At(e, s)
		if !ok || v.IsString {
			return 0, false
		}
		return v.Int, true
	}

	requeueUsers := func(e *ir.Entry) {
		for _, user := range useDefs.UsesOf(e) {
			queue.Push(user)
		}
	}

	for !queue.Empty() {
		e := queue.Pop()

		switch {
		case e.Op.IsArithLogic() && e.Op != ir.OpMove:
			rhs1, rhs1Const := constOf(e, e.Rhs1)
			var rhs2 int
			rhs2Const := false
			if e.Rhs2 != nil {
				rhs2, rhs2Const = constOf(e, e.Rhs2)
			} else if e.HasImm {
				rhs2, rhs2Const = e.Imm, true
			}

			if rhs1Const && rhs2Const {
				if v, ok := evalArith(e.Op, rhs1, rhs2); ok {
					e.Op = ir.OpMove
					e.Rhs1, e.Rhs2 = nil, nil
					e.HasImm, e.Imm = true, v
					changed = true
					requeueUsers(e)
					continue
				}
			}

			// Additive/multiplicative identity, even with one side unknown.
			if e.Rhs2 == nil && e.HasImm {
				if e.Op == ir.OpAdd && e.Imm == 0 {
					e.Op = ir.OpMove
					e.HasImm = false
					changed = true
					requeueUsers(e)
				} else if e.Op == ir.OpMult && e.Imm == 1 {
					e.Op = ir.OpMove
					e.HasImm = false
					changed = true
					requeueUsers(e)
				}
			}

		case e.Op == ir.OpCJump:
			if v, ok := constOf(e, e.Pred); ok {
				target := e.FalseTarget
				if v != 0 {
					target = e.TrueTarget
				}
				e.Op = ir.OpJump
				e.Target = target
				e.Pred, e.TrueTarget, e.FalseTarget = nil, nil, nil
				changed = true
				a.Invalidate()
			}

		case e.Op == ir.OpLoadMem || e.Op == ir.OpStoreMem:
			// Fold a constant address offset held in Rhs2 into Imm.
			if e.Rhs2 != nil {
				if v, ok := constOf(e, e.Rhs2); ok {
					e.Rhs2 = nil
					e.HasImm = true
					e.Imm += v
					changed = true
					requeueUsers(e)
				}
			}
		}
	}

	if changed {
		a.Invalidate()
	}
	return changed
}

func evalArith(op ir.Op, a, b int) (int, bool) {
	switch op {
	case ir.OpAdd:
		return a + b, true
	case ir.OpSubtract:
		return a - b, true
	case ir.OpMult:
		return a * b, true
	case ir.OpDivide:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case ir.OpModulo:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case ir.OpEqual:
		return boolInt(a == b), true
	case ir.OpNequal:
		return boolInt(a != b), true
	case ir.OpLessThan:
		return boolInt(a < b), true
	case ir.OpLessThanE:
		return boolInt(a <= b), true
	case ir.OpGreaterThan:
		return boolInt(a > b), true
	case ir.OpGreaterThanE:
		return boolInt(a >= b), true
	case ir.OpAnd:
		return boolInt(a != 0 && b != 0), true
	case ir.OpOr:
		return boolInt(a != 0 || b != 0), true
	}
	return 0, false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
