package object_test

import (
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmcc/internal/codegen"
	"rmcc/internal/object"
)

func TestAssembleConcatenatesProceduresAndRewritesRelocOffsets(t *testing.T) {
	p1 := &codegen.Procedure{
		Name:         "main",
		Instructions: []codegen.Instruction{{Family: codegen.FamilyOneAddress, Subtype: codegen.OneAddCallWithLink}},
		Relocations:  []codegen.Relocation{{Offset: 0, Kind: codegen.RelocCall, Target: "helper"}},
	}
	p2 := &codegen.Procedure{
		Name: "helper",
		Instructions: []codegen.Instruction{
			{Family: codegen.FamilyMultiReg, Subtype: codegen.MultiRegSave},
			{Family: codegen.FamilyMultiReg, Subtype: codegen.MultiRegRestore},
		},
	}

	id := ksuid.New()
	obj, err := object.Assemble(id, []*codegen.Procedure{p1, p2}, nil)
	require.NoError(t, err)

	assert.Equal(t, id, obj.BuildID)
	assert.Len(t, obj.Code, 12) // 1 word for main + 2 words for helper
	require.Len(t, obj.Relocs, 1)
	assert.Equal(t, 0, obj.Relocs[0].Offset) // main starts at object offset 0

	sym, ok := obj.FindSymbol("helper")
	require.True(t, ok)
	assert.Equal(t, 4, sym.Offset)
	assert.Equal(t, 8, sym.Length)
}

func TestAssembleRejectsDuplicateProcedureNames(t *testing.T) {
	p := &codegen.Procedure{Name: "dup"}
	_, err := object.Assemble(ksuid.New(), []*codegen.Procedure{p, p}, nil)
	assert.Error(t, err)
}
