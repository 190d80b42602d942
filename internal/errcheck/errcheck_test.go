package errcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmcc/internal/diag"
	"rmcc/internal/errcheck"
	"rmcc/internal/ir"
)

func TestCheckAcceptsCleanProcedure(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})
	a := p.AddSymbol("a", 4)
	p.Emit(&ir.Entry{Op: ir.OpMove, Lhs: a, HasImm: true, Imm: 1})
	p.Emit(&ir.Entry{Op: ir.OpStoreRet, Rhs1: a})
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	diags := errcheck.Check(p)
	assert.Empty(t, diags)
}

func TestCheckRejectsUseBeforeDef(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})
	a := p.AddSymbol("a", 4)
	p.Emit(&ir.Entry{Op: ir.OpStoreRet, Rhs1: a}) // a used, never defined
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	diags := errcheck.Check(p)
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.ErrUseBeforeDef, diags[0].Code)
}

func TestCheckRejectsMissingReturn(t *testing.T) {
	p := ir.NewProcedure("main")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})
	label := p.NewLabel()
	p.Emit(&ir.Entry{Op: ir.OpJump, Target: label})
	p.Emit(label)
	// No Epilogue before falling into end: the jump lands on a label with
	// no further code, which falls straight through to the end block.

	diags := errcheck.Check(p)
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.ErrMissingReturn, diags[len(diags)-1].Code)
}
