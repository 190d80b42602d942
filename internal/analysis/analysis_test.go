package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmcc/internal/analysis"
	"rmcc/internal/ir"
)

// buildLoop constructs: i:=0; L1: cjmp (i<10) L2 L3; L2: i:=i+1; jmp L1; L3: ret
func buildLoop(t *testing.T) (*ir.Procedure, *ir.Symbol) {
	t.Helper()
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	i := p.AddSymbol("i", 4)
	p.Emit(&ir.Entry{Op: ir.OpMove, Lhs: i, HasImm: true, Imm: 0})

	l1 := p.NewLabel()
	l2 := p.NewLabel()
	l3 := p.NewLabel()

	p.Emit(l1)
	cond := p.NewTemp(4)
	p.Emit(&ir.Entry{Op: ir.OpLessThan, Lhs: cond, Rhs1: i, HasImm: true, Imm: 10})
	p.Emit(&ir.Entry{Op: ir.OpCJump, Pred: cond, TrueTarget: l2, FalseTarget: l3})

	p.Emit(l2)
	p.Emit(&ir.Entry{Op: ir.OpAdd, Lhs: i, Rhs1: i, HasImm: true, Imm: 1})
	p.Emit(&ir.Entry{Op: ir.OpJump, Target: l1})

	p.Emit(l3)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	return p, i
}

func TestDominatorsCondBlockDominatesBothArms(t *testing.T) {
	p, _ := buildLoop(t)
	a := analysis.New(p)
	g := a.Graph()
	dom := a.Dominators()

	condBlock := g.Start.Succs[0].Succs[0] // start -> prologue block -> L1
	require.Len(t, condBlock.Succs, 2)
	for _, arm := range condBlock.Succs {
		assert.True(t, dom.Dominates(condBlock, arm))
	}
	assert.False(t, dom.Dominates(condBlock.Succs[0], condBlock))
}

func TestLoopsDiscoversBackEdge(t *testing.T) {
	p, _ := buildLoop(t)
	a := analysis.New(p)
	loops := a.Loops()

	require.Len(t, loops.All(), 1)
	loop := loops.All()[0]
	assert.Equal(t, "bb1", loop.Header.Label().LabelName)
	assert.True(t, loop.Body[loop.Header])
}

func TestLoopPreheaderIsPredecessorOutsideLoop(t *testing.T) {
	p, _ := buildLoop(t)
	a := analysis.New(p)
	loops := a.Loops()
	loop := loops.All()[0]
	require.NotNil(t, loop.Preheader)
	assert.Same(t, a.Graph().Start.Succs[0], loop.Preheader)
}

func TestConstantsFoldsUniqueImmediateDef(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})
	x := p.AddSymbol("x", 4)
	defEntry := &ir.Entry{Op: ir.OpMove, Lhs: x, HasImm: true, Imm: 7}
	use := &ir.Entry{Op: ir.OpAdd, Lhs: p.NewTemp(4), Rhs1: x, HasImm: true, Imm: 1}
	p.Emit(defEntry)
	p.Emit(use)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	v, ok := a.Constants().At(use, x)
	require.True(t, ok)
	assert.Equal(t, 7, v.Int)
}

func TestAvailableExpressionsFindsMatchingEarlierComputation(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})
	x := p.AddSymbol("x", 4)
	y := p.AddSymbol("y", 4)
	first := &ir.Entry{Op: ir.OpAdd, Lhs: p.NewTemp(4), Rhs1: x, Rhs2: y}
	second := &ir.Entry{Op: ir.OpAdd, Lhs: p.NewTemp(4), Rhs1: y, Rhs2: x} // commutative match
	p.Emit(first)
	p.Emit(second)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	dest, match := a.AvailableExpressions().Find(second)
	require.NotNil(t, match)
	assert.Equal(t, first, match)
	assert.Equal(t, first.Assign(), dest)
}

func TestInvalidateDropsCachedGraph(t *testing.T) {
	p, _ := buildLoop(t)
	a := analysis.New(p)
	g1 := a.Graph()
	a.Invalidate()
	g2 := a.Graph()
	assert.NotSame(t, g1, g2)
}
