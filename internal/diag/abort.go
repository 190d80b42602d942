package diag

import "fmt"

// Fault is the payload of a panic raised for an unrecoverable internal
// error (§7: "Invariant violation in IR", "Spill-exhaustion"). These are
// implementation bugs, not user-facing errors: the core never produces
// them on correct input, so callers recover only to attach procedure/entry
// context before re-raising or exiting.
type Fault struct {
	*Diagnostic
}

// Abort raises a Fault carrying procedure/entry context, per §7's
// "abort with procedure/entry context". Code should be one of the I0xxx
// invariant codes in codes.go.
func Abort(code, procedure string, entryIndex int, format string, args ...interface{}) {
	panic(Fault{&Diagnostic{
		Level:   LevelError,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Notes:   []string{fmt.Sprintf("procedure %q, entry #%d", procedure, entryIndex)},
	}})
}

// Recover turns a Fault panic into an error return; any other panic value
// is re-raised, since only Fault is an expected abort condition.
func Recover(err *error) {
	if r := recover(); r != nil {
		if f, ok := r.(Fault); ok {
			*err = f.Diagnostic
			return
		}
		panic(r)
	}
}
