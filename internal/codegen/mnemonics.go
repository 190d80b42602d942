package codegen

import "github.com/iancoleman/strcase"

// subtypeNames maps each (family, subtype) pair to the Go identifier it
// was declared under, so Mnemonic can derive a SCREAMING_SNAKE assembly
// opcode name from it without keeping the two spellings in sync by hand.
var subtypeNames = map[Family]map[int]string{
	FamilyTwoAddress: {
		TwoAddAddImm:        "AddImm",
		TwoAddSubImm:        "SubImm",
		TwoAddMulImm:        "MulImm",
		TwoAddDivImm:        "DivImm",
		TwoAddModImm:        "ModImm",
		TwoAddCompareEqImm:  "CompareEqImm",
		TwoAddCompareNeqImm: "CompareNeqImm",
		TwoAddCompareLtImm:  "CompareLtImm",
		TwoAddCompareLteImm: "CompareLteImm",
		TwoAddCompareGtImm:  "CompareGtImm",
		TwoAddCompareGteImm: "CompareGteImm",
		TwoAddLoadWord:      "LoadWord",
		TwoAddStoreWord:     "StoreWord",
		TwoAddLoadByte:      "LoadByte",
		TwoAddStoreByte:     "StoreByte",
		TwoAddLoadImmediate: "LoadImmediate",
	},
	FamilyThreeAddress: {
		ThreeAddAddReg:           "AddReg",
		ThreeAddSubReg:           "SubReg",
		ThreeAddMulReg:           "MulReg",
		ThreeAddDivReg:           "DivReg",
		ThreeAddModReg:           "ModReg",
		ThreeAddCompareEqReg:     "CompareEqReg",
		ThreeAddCompareNeqReg:    "CompareNeqReg",
		ThreeAddCompareLtReg:     "CompareLtReg",
		ThreeAddCompareLteReg:    "CompareLteReg",
		ThreeAddCompareGtReg:     "CompareGtReg",
		ThreeAddCompareGteReg:    "CompareGteReg",
		ThreeAddAndReg:           "AndReg",
		ThreeAddOrReg:            "OrReg",
		ThreeAddLoadWordIndexed:  "LoadWordIndexed",
		ThreeAddStoreWordIndexed: "StoreWordIndexed",
	},
	FamilyOneAddress: {
		OneAddConditionalPCAdd: "ConditionalPcAdd",
		OneAddCallWithLink:     "CallWithLink",
		OneAddCallIndirect:     "CallIndirect",
		OneAddNativeCall:       "NativeCall",
		OneAddNew:              "New",
		OneAddJump:             "Jump",
		OneAddLoadImmediate:    "LoadImmediate",
	},
	FamilyMultiReg: {
		MultiRegSave:    "MultiRegSave",
		MultiRegRestore: "MultiRegRestore",
	},
}

// Mnemonic returns the assembler-facing SCREAMING_SNAKE opcode name for
// in's (family, subtype) pair, e.g. FamilyThreeAddress/ThreeAddAddReg ->
// "ADD_REG". Only its own test calls it; internal/object writes the
// binary instruction stream alone.
func (in Instruction) Mnemonic() string {
	names, ok := subtypeNames[in.Family]
	if !ok {
		return "UNKNOWN"
	}
	name, ok := names[in.Subtype]
	if !ok {
		return "UNKNOWN"
	}
	return strcase.ToScreamingSnake(name)
}
