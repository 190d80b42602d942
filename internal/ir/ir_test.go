package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcedureBracketsStartAndEnd(t *testing.T) {
	p := NewProcedure("main")
	assert.Equal(t, 2, p.Entries.Len())
	assert.Equal(t, p.Start, p.Entries.Front())
	assert.Equal(t, p.End, p.Entries.Back())
}

func TestNewTempAndNewLabelAreUnique(t *testing.T) {
	p := NewProcedure("main")
	a := p.NewTemp(4)
	b := p.NewTemp(4)
	assert.NotEqual(t, a.Name, b.Name)
	assert.Equal(t, "temp0", a.Name)
	assert.Equal(t, "temp1", b.Name)

	l1 := p.NewLabel()
	l2 := p.NewLabel()
	assert.NotEqual(t, l1.LabelName, l2.LabelName)
}

func TestEmitInsertsBeforeEnd(t *testing.T) {
	p := NewProcedure("main")
	a := p.NewTemp(4)
	mv := &Entry{Op: OpMove, Lhs: a, HasImm: true, Imm: 5}
	p.Emit(mv)

	assert.Equal(t, mv, p.Entries.Prev(p.End))
	assert.Equal(t, 3, p.Entries.Len())
}

func TestEntryAssignUsesQuerySurface(t *testing.T) {
	p := NewProcedure("main")
	a := p.NewTemp(4)
	b := p.NewTemp(4)

	add := &Entry{Op: OpAdd, Lhs: a, Rhs1: b, Rhs2: b}
	assert.Equal(t, a, add.Assign())
	assert.True(t, add.Uses(b))
	assert.False(t, add.Uses(a))

	c := p.NewTemp(4)
	add.ReplaceUse(b, c)
	assert.Equal(t, c, add.Rhs1)
	assert.Equal(t, c, add.Rhs2)

	store := &Entry{Op: OpStoreMem, Lhs: a, Rhs1: b}
	assert.Nil(t, store.Assign(), "StoreMem writes memory, not a symbol")
	assert.True(t, store.Uses(a))
	assert.True(t, store.Uses(b))
}

func TestEntryListEraseAndReplace(t *testing.T) {
	l := NewEntryList()
	a := &Entry{Op: OpMove}
	b := &Entry{Op: OpMove}
	c := &Entry{Op: OpMove}
	l.PushBack(a)
	l.PushBack(b)
	l.PushBack(c)

	l.Erase(b)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, c, l.Next(a))

	d := &Entry{Op: OpMove}
	l.Replace(c, d)
	assert.Equal(t, d, l.Back())
	assert.Equal(t, a, l.Prev(d))
}

func TestEntrySubListBoundaryReplace(t *testing.T) {
	l := NewEntryList()
	first := &Entry{Op: OpLabel, LabelName: "bb1"}
	mid := &Entry{Op: OpMove}
	last := &Entry{Op: OpJump}
	l.PushBack(first)
	l.PushBack(mid)
	l.PushBack(last)

	sub := EntrySubList{First: first, Last: last}
	assert.True(t, sub.Contains(l, mid))

	newLast := &Entry{Op: OpJump}
	l.Replace(last, newLast)
	sub.Replace(last, newLast)
	assert.Equal(t, newLast, sub.Last)
}

func TestCheckInvariantsCatchesForeignSymbol(t *testing.T) {
	p := NewProcedure("main")
	a := p.NewTemp(4)
	foreign := NewSymbol("intruder", 4)
	p.Emit(&Entry{Op: OpMove, Lhs: a, Rhs1: foreign})
	p.Emit(&Entry{Op: OpPrologue, Slots: 0})
	p.Emit(&Entry{Op: OpEpilogue, Slots: 0})

	err := CheckInvariants(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign")
}

func TestCheckInvariantsCatchesBadJumpTarget(t *testing.T) {
	p := NewProcedure("main")
	foreignLabel := &Entry{Op: OpLabel, LabelName: "nowhere"}
	p.Emit(&Entry{Op: OpJump, Target: foreignLabel})
	p.Emit(&Entry{Op: OpPrologue, Slots: 0})
	p.Emit(&Entry{Op: OpEpilogue, Slots: 0})

	err := CheckInvariants(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present")
}

func TestCheckInvariantsRequiresMatchingSlotCounts(t *testing.T) {
	p := NewProcedure("main")
	p.Emit(&Entry{Op: OpPrologue, Slots: 2})
	p.Emit(&Entry{Op: OpEpilogue, Slots: 3})

	err := CheckInvariants(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot count")
}

func TestOpCommutativity(t *testing.T) {
	assert.True(t, OpAdd.IsCommutative())
	assert.True(t, OpMult.IsCommutative())
	assert.False(t, OpSubtract.IsCommutative())
	assert.False(t, OpDivide.IsCommutative())
}
