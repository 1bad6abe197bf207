package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/analysis"
)

// PublishDiagnostics sends diagnostics for a document to the client,
// capped at the configured maximum and sorted by position.
func PublishDiagnostics(glspContext *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if glspContext == nil || glspContext.Notify == nil {
		log.Warning("cannot publish diagnostics without a client connection")
		return
	}

	analysis.SortDiagnostics(diagnostics)

	if srv := getServer(); srv != nil {
		if limit := srv.Config().MaxProblems; limit > 0 && len(diagnostics) > limit {
			diagnostics = diagnostics[:limit]
		}
	}

	log.Debugf("publishing %d diagnostic(s) for %s", len(diagnostics), uri)
	glspContext.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
