// Command rmcc-lsp runs a minimal language server for rmc source files,
// grounded on cmd/kanso-lsp/main.go in the teacher repository.
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"rmcc/internal/lsp"
)

const lsName = "rmcc"

var version = "0.1.0"

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewHandler()

	handler := protocol.Handler{
		Initialize:             h.Initialize,
		Initialized:            h.Initialized,
		Shutdown:               h.Shutdown,
		SetTrace:               h.SetTrace,
		TextDocumentDidOpen:    h.TextDocumentDidOpen,
		TextDocumentDidChange:  h.TextDocumentDidChange,
		TextDocumentDidClose:   h.TextDocumentDidClose,
		WorkspaceExecuteCommand: h.WorkspaceExecuteCommand,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("starting rmcc-lsp", version)
	if err := s.RunStdio(); err != nil {
		log.Println("rmcc-lsp:", err)
		os.Exit(1)
	}
}
