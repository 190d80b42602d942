// Package errcheck is the front-end ErrorCheck collaborator spec §7
// describes: it runs before the core and rejects (a) live-at-entry
// variables ("use before def") and (b) any path to the synthetic end
// block that is not a Return. It is the one place a front-end
// collaborator reaches back into the core, using the same
// analysis.LiveVariables the optimizer and allocator already build
// (spec §7, §12). Grounded on Front/ErrorCheck.cpp in the original
// implementation.
package errcheck

import (
	"fmt"

	"rmcc/internal/analysis"
	"rmcc/internal/diag"
	"rmcc/internal/ir"
)

// Check runs both ErrorCheck passes over proc and returns every
// diagnostic found; a nil result means the procedure is clean. It
// never mutates proc.
func Check(proc *ir.Procedure) []*diag.Diagnostic {
	a := analysis.New(proc)
	var diags []*diag.Diagnostic
	diags = append(diags, checkUseBeforeDef(proc, a)...)
	diags = append(diags, checkMissingReturn(proc, a)...)
	return diags
}

// checkUseBeforeDef rejects any symbol live at procedure entry: a use
// that could execute before any definition of that symbol reaches it
// (spec §7(a)).
func checkUseBeforeDef(proc *ir.Procedure, a *analysis.Analysis) []*diag.Diagnostic {
	live := a.LiveVariables()
	entryLive := live.LiveIn(proc.Start)
	if len(entryLive) == 0 {
		return nil
	}

	var diags []*diag.Diagnostic
	for sym := range entryLive {
		diags = append(diags, &diag.Diagnostic{
			Level:   diag.LevelError,
			Code:    diag.ErrUseBeforeDef,
			Message: fmt.Sprintf("procedure %q: %q may be used before it is assigned", proc.Name, sym.Name),
		})
	}
	return diags
}

// checkMissingReturn rejects any control-flow path into the synthetic
// end block that does not pass through the procedure's unique Epilogue
// entry (spec §7(b): "any path to end that is not a Return").
func checkMissingReturn(proc *ir.Procedure, a *analysis.Analysis) []*diag.Diagnostic {
	g := a.Graph()
	epilogue := proc.Epilogue()
	if epilogue == nil {
		return []*diag.Diagnostic{{
			Level:   diag.LevelError,
			Code:    diag.ErrMissingReturn,
			Message: fmt.Sprintf("procedure %q: no path reaches a return", proc.Name),
		}}
	}
	epilogueBlock := g.BlockOf(epilogue)

	for _, pred := range g.End.Preds {
		if pred != epilogueBlock {
			return []*diag.Diagnostic{{
				Level:   diag.LevelError,
				Code:    diag.ErrMissingReturn,
				Message: fmt.Sprintf("procedure %q: control can fall off the end without returning", proc.Name),
			}}
		}
	}
	return nil
}
