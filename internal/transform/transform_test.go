package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmcc/internal/analysis"
	"rmcc/internal/ir"
	"rmcc/internal/transform"
)

func TestConstantPropFoldsArithAndCJump(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	x := p.AddSymbol("x", 4)
	sum := &ir.Entry{Op: ir.OpMove, Lhs: x, HasImm: true, Imm: 2}
	add := &ir.Entry{Op: ir.OpAdd, Lhs: p.NewTemp(4), Rhs1: x, HasImm: true, Imm: 3}
	p.Emit(sum)
	p.Emit(add)

	cond := p.AddSymbol("cond", 4)
	condDef := &ir.Entry{Op: ir.OpMove, Lhs: cond, HasImm: true, Imm: 1}
	l1 := p.NewLabel()
	l2 := p.NewLabel()
	p.Emit(condDef)
	cjmp := &ir.Entry{Op: ir.OpCJump, Pred: cond, TrueTarget: l1, FalseTarget: l2}
	p.Emit(cjmp)
	p.Emit(l1)
	p.Emit(&ir.Entry{Op: ir.OpJump, Target: l2})
	p.Emit(l2)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	changed := transform.ConstantProp(p, a)

	require.True(t, changed)
	assert.Equal(t, ir.OpMove, add.Op)
	assert.Equal(t, 5, add.Imm)
	assert.Equal(t, ir.OpJump, cjmp.Op)
	assert.Equal(t, l1, cjmp.Target)
}

func TestDeadCodeEliminationRemovesSelfMoveAndUnusedDef(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	x := p.AddSymbol("x", 4)
	selfMove := &ir.Entry{Op: ir.OpMove, Lhs: x, Rhs1: x}
	unused := &ir.Entry{Op: ir.OpMove, Lhs: p.NewTemp(4), HasImm: true, Imm: 9}
	p.Emit(selfMove)
	p.Emit(unused)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	changed := transform.DeadCodeElimination(p, a)
	require.True(t, changed)

	assert.False(t, containsEntry(p, selfMove))
	assert.False(t, containsEntry(p, unused))
}

func containsEntry(p *ir.Procedure, target *ir.Entry) bool {
	found := false
	p.Entries.Each(func(e *ir.Entry) {
		if e == target {
			found = true
		}
	})
	return found
}

func TestCommonSubexpressionEliminationReplacesWithMove(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	x := p.AddSymbol("x", 4)
	y := p.AddSymbol("y", 4)
	first := &ir.Entry{Op: ir.OpAdd, Lhs: p.NewTemp(4), Rhs1: x, Rhs2: y}
	second := &ir.Entry{Op: ir.OpAdd, Lhs: p.NewTemp(4), Rhs1: x, Rhs2: y}
	p.Emit(first)
	p.Emit(second)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	changed := transform.CommonSubexpressionElimination(p, a)
	require.True(t, changed)
	assert.Equal(t, ir.OpMove, second.Op)
	assert.Equal(t, first.Assign(), second.Rhs1)
}

func TestThreadJumpsFollowsChainToFixedPoint(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	l1 := p.NewLabel()
	l2 := p.NewLabel()
	l3 := p.NewLabel()

	jmp := &ir.Entry{Op: ir.OpJump, Target: l1}
	p.Emit(jmp)
	p.Emit(l1)
	p.Emit(&ir.Entry{Op: ir.OpJump, Target: l2})
	p.Emit(l2)
	p.Emit(&ir.Entry{Op: ir.OpJump, Target: l3})
	p.Emit(l3)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	changed := transform.ThreadJumps(p, a)
	require.True(t, changed)
	assert.Equal(t, l3, jmp.Target)
}

func TestCopyPropForwardRewritesUseToSource(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	r := p.AddSymbol("r", 4)
	rDef := &ir.Entry{Op: ir.OpMove, Lhs: r, HasImm: true, Imm: 4}
	l := p.AddSymbol("l", 4)
	mv := &ir.Entry{Op: ir.OpMove, Lhs: l, Rhs1: r}
	use := &ir.Entry{Op: ir.OpAdd, Lhs: p.NewTemp(4), Rhs1: l, HasImm: true, Imm: 1}
	p.Emit(rDef)
	p.Emit(mv)
	p.Emit(use)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	changed := transform.CopyProp(p, a)
	require.True(t, changed)
	assert.Equal(t, r, use.Rhs1)
}
