package ir

// DataSection is a compile-time constant blob the front-end wants placed
// in the linked image's data segment — chiefly string literals referenced
// by LoadString (spec §3).
type DataSection struct {
	Name  string
	Bytes []byte
}

// Program is the front-end's handoff to the core: an ordered list of
// Procedures plus data sections and an imports/exports table consumed by
// the external linker (spec §3, §6).
type Program struct {
	Procedures []*Procedure
	Data       []*DataSection
	Imports    []string // symbol names this program references but does not define
	Exports    []string // symbol names this program defines for other units
}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) AddProcedure(proc *Procedure) {
	p.Procedures = append(p.Procedures, proc)
}

func (p *Program) FindProcedure(name string) *Procedure {
	for _, proc := range p.Procedures {
		if proc.Name == name {
			return proc
		}
	}
	return nil
}

func (p *Program) AddData(name string, bytes []byte) *DataSection {
	d := &DataSection{Name: name, Bytes: bytes}
	p.Data = append(p.Data, d)
	return d
}
