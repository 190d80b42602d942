package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmcc/internal/flow"
	"rmcc/internal/ir"
)

// buildIf constructs: if (pred) { L1: ... jmp L3 } else { L2: ... jmp L3 } L3: ret
func buildIf(t *testing.T) (*ir.Procedure, *flow.Graph) {
	t.Helper()
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	pred := p.NewTemp(4)
	p.Emit(&ir.Entry{Op: ir.OpMove, Lhs: pred, HasImm: true, Imm: 1})

	l1 := p.NewLabel()
	l2 := p.NewLabel()
	l3 := p.NewLabel()

	p.Emit(&ir.Entry{Op: ir.OpCJump, Pred: pred, TrueTarget: l1, FalseTarget: l2})

	p.Emit(l1)
	one := p.NewTemp(4)
	p.Emit(&ir.Entry{Op: ir.OpMove, Lhs: one, HasImm: true, Imm: 1})
	p.Emit(&ir.Entry{Op: ir.OpJump, Target: l3})

	p.Emit(l2)
	two := p.NewTemp(4)
	p.Emit(&ir.Entry{Op: ir.OpMove, Lhs: two, HasImm: true, Imm: 2})
	p.Emit(&ir.Entry{Op: ir.OpJump, Target: l3})

	p.Emit(l3)
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	g := flow.Build(p)
	return p, g
}

func TestBuildPartitionsBlocksAtLabelsAndJumps(t *testing.T) {
	_, g := buildIf(t)

	// start, the prologue/cjmp block, l1, l2, l3 and end -> 6 blocks: Start
	// holds only the start label, and the end label opens a block of its own.
	require.True(t, len(g.Blocks) >= 4)
	assert.Equal(t, "start", g.Start.Label().LabelName)
	assert.Equal(t, "end", g.End.Label().LabelName)
}

func TestStartHasSingleSuccessor(t *testing.T) {
	_, g := buildIf(t)
	require.Len(t, g.Start.Succs, 1)
}

func TestBranchesReachBothArms(t *testing.T) {
	_, g := buildIf(t)
	require.Len(t, g.Start.Succs, 1)
	condBlock := g.Start.Succs[0]
	require.Len(t, condBlock.Succs, 2)
}

func TestReturnPathsFallThroughToEnd(t *testing.T) {
	_, g := buildIf(t)
	// Every block with no terminator falls through; eventually End is reached.
	reachesEnd := func(b *flow.Block) bool {
		seen := map[*flow.Block]bool{}
		stack := []*flow.Block{b}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if cur == g.End {
				return true
			}
			if seen[cur] {
				continue
			}
			seen[cur] = true
			stack = append(stack, cur.Succs...)
		}
		return false
	}
	assert.True(t, reachesEnd(g.Start))
}

func TestBlockOfOwningBlockFallsThroughToEnd(t *testing.T) {
	p, g := buildIf(t)
	epilogue := p.Epilogue()
	require.NotNil(t, epilogue)
	epilogueBlock := g.BlockOf(epilogue)
	require.NotNil(t, epilogueBlock)
	assert.Contains(t, epilogueBlock.Succs, g.End)
}

func TestReplacePropagatesBoundary(t *testing.T) {
	p, g := buildIf(t)
	oldEpilogue := p.Epilogue()
	oldBlock := g.BlockOf(oldEpilogue)
	newEpilogue := &ir.Entry{Op: ir.OpEpilogue, Slots: 1}
	p.Entries.Replace(oldEpilogue, newEpilogue)
	g.Replace(oldEpilogue, newEpilogue)

	assert.Equal(t, oldBlock, g.BlockOf(newEpilogue))
	assert.Contains(t, oldBlock.Succs, g.End)
}
