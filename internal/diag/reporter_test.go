package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterFormatIncludesCodeAndMessage(t *testing.T) {
	src := "a := 1\nb := a + z\nprint b\n"
	r := NewReporter("prog.src", src)

	d := &Diagnostic{
		Level:    LevelError,
		Code:     ErrUndefinedSymbol,
		Message:  "undefined symbol \"z\"",
		Position: Position{Filename: "prog.src", Line: 2, Column: 10},
		Length:   1,
		HelpText: "declare z before use",
	}

	out := r.Format(d)
	assert.Contains(t, out, "E0003")
	assert.Contains(t, out, "undefined symbol")
	assert.Contains(t, out, "prog.src:2:10")
	assert.Contains(t, out, "help:")
}

func TestBagHasErrors(t *testing.T) {
	var b Bag
	assert.False(t, b.HasErrors())

	b.Add(&Diagnostic{Level: LevelWarning, Code: "W0001"})
	assert.False(t, b.HasErrors())

	b.Add(&Diagnostic{Level: LevelError, Code: ErrMissingReturn})
	require.True(t, b.HasErrors())
	assert.Len(t, b.All(), 2)
}

func TestAbortRecover(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		Abort(InvariantBadJumpTarget, "main", 3, "jump to undefined label %q", "L9")
	}()

	require.Error(t, err)
	d, ok := err.(*Diagnostic)
	require.True(t, ok)
	assert.Equal(t, InvariantBadJumpTarget, d.Code)
}
