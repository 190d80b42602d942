package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmcc/internal/analysis"
	"rmcc/internal/ir"
	"rmcc/internal/optimizer"
)

// TestRunFoldsThenEliminatesDeadConstant exercises the constant-prop ->
// DCE dependency: folding `x+0` into a Move makes the original temp's
// def dead-code-eliminable only once the unused-symbol sweep runs.
func TestRunFoldsThenEliminatesDeadConstant(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})

	x := p.AddSymbol("x", 4)
	p.Emit(&ir.Entry{Op: ir.OpMove, Lhs: x, HasImm: true, Imm: 5})

	dead := p.NewTemp(4)
	p.Emit(&ir.Entry{Op: ir.OpAdd, Lhs: dead, Rhs1: x, HasImm: true, Imm: 0})

	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	a := analysis.New(p)
	iterations := optimizer.Run(p, a, optimizer.DefaultPipeline)
	require.Greater(t, iterations, 0)

	assert.Nil(t, p.FindSymbol("temp0"))
}
