package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmcc/internal/codegen"
	"rmcc/internal/ir"
	"rmcc/internal/regalloc"
	"rmcc/internal/target"
)

// TestEncodeDecodeRoundTrips checks spec §8's "assembling then
// disassembling a procedure yields the same instruction stream
// (bit-exact)" property at the instruction-encoding layer.
func TestEncodeDecodeRoundTrips(t *testing.T) {
	cases := []codegen.Instruction{
		{Family: codegen.FamilyTwoAddress, Subtype: codegen.TwoAddAddImm, RegLhs: 3, Rhs1: 7, Imm: -100},
		{Family: codegen.FamilyThreeAddress, Subtype: codegen.ThreeAddMulReg, RegLhs: 1, Rhs1: 2, Rhs2: 3},
		{Family: codegen.FamilyOneAddress, Subtype: codegen.OneAddJump, Imm: -12345},
		{Family: codegen.FamilyMultiReg, Subtype: codegen.MultiRegSave, RegLhs: 0, Mask: 0xBEEF},
	}
	for _, in := range cases {
		got := codegen.Decode(in.Encode())
		assert.Equal(t, in, got)
	}
}

func TestMnemonicNamesEveryFamily(t *testing.T) {
	assert.Equal(t, "ADD_REG", codegen.Instruction{Family: codegen.FamilyThreeAddress, Subtype: codegen.ThreeAddAddReg}.Mnemonic())
	assert.Equal(t, "LOAD_IMMEDIATE", codegen.Instruction{Family: codegen.FamilyOneAddress, Subtype: codegen.OneAddLoadImmediate}.Mnemonic())
	assert.Equal(t, "ADD_IMM", codegen.Instruction{Family: codegen.FamilyTwoAddress, Subtype: codegen.TwoAddAddImm}.Mnemonic())
	assert.Equal(t, "MULTI_REG_SAVE", codegen.Instruction{Family: codegen.FamilyMultiReg, Subtype: codegen.MultiRegSave}.Mnemonic())
}

func smallTarget(t *testing.T) *target.RegisterFile {
	rf, err := target.Load([]byte(`
allocatableRegisters: 4
reservedRegisters:
  sp: 13
  lr: 14
  pc: 15
callerSavedPseudoCount: 1
returnRegister: 0
argSlotRegisters: [0]
`))
	require.NoError(t, err)
	return rf
}

// TestLowerSingleReturnProcedureYieldsTwoInstructions checks spec §8's
// boundary behavior: a procedure whose body is a single Return allocates
// 0 registers and yields a 2-instruction image (prologue/epilogue).
func TestLowerSingleReturnProcedureYieldsTwoInstructions(t *testing.T) {
	p := ir.NewProcedure("empty")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	rf := smallTarget(t)
	colors, err := regalloc.Allocate(p, rf)
	require.NoError(t, err)
	assert.Empty(t, colors)

	out, err := codegen.Lower(p, colors, rf)
	require.NoError(t, err)
	require.Len(t, out.Instructions, 2)
	assert.Equal(t, codegen.FamilyMultiReg, out.Instructions[0].Family)
	assert.Equal(t, codegen.FamilyMultiReg, out.Instructions[1].Family)
}

func TestLowerEmitsCallRelocation(t *testing.T) {
	p := ir.NewProcedure("caller")
	p.Emit(&ir.Entry{Op: ir.OpPrologue, Slots: 0})
	p.Emit(&ir.Entry{Op: ir.OpCall, CallSymbol: "callee"})
	p.Emit(&ir.Entry{Op: ir.OpEpilogue, Slots: 0})

	rf := smallTarget(t)
	colors, err := regalloc.Allocate(p, rf)
	require.NoError(t, err)

	out, err := codegen.Lower(p, colors, rf)
	require.NoError(t, err)
	require.Len(t, out.Relocations, 1)
	assert.Equal(t, codegen.RelocCall, out.Relocations[0].Kind)
	assert.Equal(t, "callee", out.Relocations[0].Target)
}
