// Package target describes the register machine spec §6 emits code
// for: the allocatable register count K, the reserved registers
// (PC/LR/SP), the caller-saved pseudo-register bank regalloc uses to
// attract interferences at calling boundaries, and the preferred
// registers for return values and argument slots. It is loaded from a
// small YAML description (spec §11 domain stack) so the allocator and
// code generator are retargetable without recompiling rmcc.
package target

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RegisterFile is the resolved, ready-to-use target description.
// Reserved and allocatable register numbers share one namespace: an
// allocatable register is any number in [0, AllocatableRegisters), the
// reserved ones (PC/LR/SP here) sit above that range and are never
// handed out by the coloring select step.
type RegisterFile struct {
	K                int
	PC, LR, SP       int
	CallerSavedCount int
	ReturnRegister   int
	ArgSlotRegisters []int
}

// doc mirrors the on-disk YAML shape; Load validates it into a
// RegisterFile.
type doc struct {
	AllocatableRegisters  int            `yaml:"allocatableRegisters"`
	ReservedRegisters     map[string]int `yaml:"reservedRegisters"`
	CallerSavedPseudoCount int           `yaml:"callerSavedPseudoCount"`
	ReturnRegister        int            `yaml:"returnRegister"`
	ArgSlotRegisters      []int          `yaml:"argSlotRegisters"`
}

// Load parses a target description from YAML bytes.
func Load(data []byte) (*RegisterFile, error) {
	var d doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("target: parse: %w", err)
	}
	if d.AllocatableRegisters <= 0 {
		return nil, fmt.Errorf("target: allocatableRegisters must be positive, got %d", d.AllocatableRegisters)
	}

	rf := &RegisterFile{
		K:                d.AllocatableRegisters,
		CallerSavedCount: d.CallerSavedPseudoCount,
		ReturnRegister:   d.ReturnRegister,
		ArgSlotRegisters: append([]int(nil), d.ArgSlotRegisters...),
	}

	var ok bool
	if rf.SP, ok = d.ReservedRegisters["sp"]; !ok {
		return nil, fmt.Errorf("target: reservedRegisters missing \"sp\"")
	}
	if rf.LR, ok = d.ReservedRegisters["lr"]; !ok {
		return nil, fmt.Errorf("target: reservedRegisters missing \"lr\"")
	}
	if rf.PC, ok = d.ReservedRegisters["pc"]; !ok {
		return nil, fmt.Errorf("target: reservedRegisters missing \"pc\"")
	}

	return rf, nil
}

// LoadFile reads and parses a target description from path.
func LoadFile(path string) (*RegisterFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("target: read %s: %w", path, err)
	}
	return Load(data)
}

// ArgRegister returns the preferred register for argument slot idx, or
// -1 ("no preference") if idx is out of the described range.
func (rf *RegisterFile) ArgRegister(idx int) int {
	if idx < 0 || idx >= len(rf.ArgSlotRegisters) {
		return -1
	}
	return rf.ArgSlotRegisters[idx]
}

// Reference13 is the reference 13-register machine spec §4.G names
// ("the reference target uses 13").
const Reference13 = `
allocatableRegisters: 13
reservedRegisters:
  sp: 13
  lr: 14
  pc: 15
callerSavedPseudoCount: 4
returnRegister: 0
argSlotRegisters: [0, 1, 2, 3]
`
