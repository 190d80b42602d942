// Package lsp implements a minimal language server for rmc source: parse
// and error-check diagnostics on open/change, plus a rmcc.viewIR
// workspace command returning optimized IR text for the active
// document. Grounded on internal/lsp/handler.go in the teacher
// repository, generalized from its AST-only diagnostics to drive the
// full parse -> lower -> errcheck -> optimize pipeline.
package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"rmcc/internal/analysis"
	"rmcc/internal/diag"
	"rmcc/internal/frontend"
	"rmcc/internal/ir"
	"rmcc/internal/optimizer"
)

// Handler implements the glsp protocol.Handler callbacks for rmc.
type Handler struct {
	mu     sync.RWMutex
	irText map[string]string
}

func NewHandler() *Handler {
	return &Handler{irText: make(map[string]string)}
}

// ViewIRCommand is the workspace/executeCommand name a client invokes to
// fetch optimized IR text for an open document (its first argument is
// the document URI, as a string).
const ViewIRCommand = "rmcc.viewIR"

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{ViewIRCommand},
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.refresh(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	full, ok := params.ContentChanges[len(params.ContentChanges)-1].(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	return h.refresh(ctx, params.TextDocument.URI, full.Text)
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.irText, path)
	h.mu.Unlock()
	return nil
}

// refresh re-parses and re-lowers a document, publishing diagnostics and
// caching the optimized IR text for a subsequent ViewIR request.
func (h *Handler) refresh(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}

	diags, irText := analyze(path, text)

	h.mu.Lock()
	h.irText[path] = irText
	h.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocolDiagnostics(diags),
	})
	return nil
}

// analyze parses, lowers, and optimizes a document, returning whatever
// diagnostics survive and optimized IR text for any procedure that
// lowered successfully.
func analyze(path, text string) ([]*diag.Diagnostic, string) {
	prog, err := frontend.Parse(path, text)
	if err != nil {
		d, ok := err.(*diag.Diagnostic)
		if !ok {
			return []*diag.Diagnostic{{Level: diag.LevelError, Message: err.Error()}}, ""
		}
		return []*diag.Diagnostic{d}, ""
	}

	irProg, diags := frontend.Lower(prog)
	if irProg == nil {
		return diags, ""
	}

	var b strings.Builder
	for _, proc := range irProg.Procedures {
		a := analysis.New(proc)
		optimizer.Run(proc, a, optimizer.DefaultPipeline)
		b.WriteString(ir.Print(proc))
	}
	return diags, b.String()
}

// WorkspaceExecuteCommand serves ViewIRCommand, returning the most
// recently computed optimized IR text for the document named by its
// first argument (a URI string).
func (h *Handler) WorkspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command != ViewIRCommand {
		return nil, fmt.Errorf("rmcc-lsp: unknown command %q", params.Command)
	}
	if len(params.Arguments) == 0 {
		return nil, fmt.Errorf("rmcc-lsp: %s requires a document URI argument", ViewIRCommand)
	}
	uri, ok := params.Arguments[0].(string)
	if !ok {
		return nil, fmt.Errorf("rmcc-lsp: %s argument must be a URI string", ViewIRCommand)
	}
	path, err := uriToPath(protocol.DocumentUri(uri))
	if err != nil {
		return nil, err
	}
	h.mu.RLock()
	text, ok := h.irText[path]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rmcc-lsp: %s has no cached IR (open or edit it first)", path)
	}
	return map[string]string{"ir": text}, nil
}

func toProtocolDiagnostics(diags []*diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		line := uint32(0)
		col := uint32(0)
		if d.Position.Line > 0 {
			line = uint32(d.Position.Line - 1)
		}
		if d.Position.Column > 0 {
			col = uint32(d.Position.Column - 1)
		}
		length := uint32(d.Length)
		if length == 0 {
			length = 1
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + length},
			},
			Severity: severityFor(d.Level),
			Source:   ptrString("rmcc"),
			Message:  formatMessage(d),
		})
	}
	return out
}

func formatMessage(d *diag.Diagnostic) string {
	if d.Code == "" {
		return d.Message
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

func severityFor(level diag.Level) *protocol.DiagnosticSeverity {
	var s protocol.DiagnosticSeverity
	switch level {
	case diag.LevelError:
		s = protocol.DiagnosticSeverityError
	case diag.LevelWarning:
		s = protocol.DiagnosticSeverityWarning
	case diag.LevelHelp:
		s = protocol.DiagnosticSeverityHint
	default:
		s = protocol.DiagnosticSeverityInformation
	}
	return &s
}

func uriToPath(rawURI protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(rawURI))
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool                                           { return &b }
func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
func ptrString(s string) *string                                     { return &s }
