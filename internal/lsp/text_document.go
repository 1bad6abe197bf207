package lsp

import (
	"context"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/engine"
)

// DidOpen handles the textDocument/didOpen notification.
func DidOpen(glspContext *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv := getServer()
	if srv == nil {
		log.Warning("server instance not available in DidOpen")
		return nil
	}

	uri := params.TextDocument.URI
	log.Debugf("document opened: %s (version %d, %d bytes)",
		uri, params.TextDocument.Version, len(params.TextDocument.Text))

	doc, err := srv.Engine().Open(context.Background(), uri, params.TextDocument.Version, params.TextDocument.Text)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Errorf("cannot analyze %s: %v", uri, err)
		}
		return nil
	}

	PublishDiagnostics(glspContext, uri, doc.Diagnostics)
	return nil
}

// DidChange handles the textDocument/didChange notification. Changes
// carrying a stale version are dropped; analysis results superseded by a
// newer edit are discarded without being published.
func DidChange(glspContext *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv := getServer()
	if srv == nil {
		log.Warning("server instance not available in DidChange")
		return nil
	}

	uri := params.TextDocument.URI
	changes := contentChanges(params.ContentChanges)

	doc, err := srv.Engine().Change(context.Background(), uri, params.TextDocument.Version, changes)
	switch {
	case errors.Is(err, engine.ErrStaleVersion):
		log.Debugf("dropping stale change for %s (version %d)", uri, params.TextDocument.Version)
		return nil
	case errors.Is(err, engine.ErrUnknownDocument):
		log.Warningf("change for unopened document %s", uri)
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		log.Errorf("cannot apply change to %s: %v", uri, err)
		return nil
	}

	PublishDiagnostics(glspContext, uri, doc.Diagnostics)
	return nil
}

// DidClose handles the textDocument/didClose notification.
func DidClose(glspContext *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv := getServer()
	if srv == nil {
		log.Warning("server instance not available in DidClose")
		return nil
	}

	uri := params.TextDocument.URI
	if err := srv.Engine().Close(uri); err != nil {
		log.Debugf("close of unopened document %s", uri)
	}
	log.Debugf("document closed: %s", uri)

	// Clear error markers in the editor.
	PublishDiagnostics(glspContext, uri, []protocol.Diagnostic{})
	return nil
}

// contentChanges normalizes the loosely typed change events glsp
// delivers: whole-document events become changes without a range.
func contentChanges(raw []interface{}) []protocol.TextDocumentContentChangeEvent {
	changes := make([]protocol.TextDocumentContentChangeEvent, 0, len(raw))
	for _, item := range raw {
		switch change := item.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, change)
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, protocol.TextDocumentContentChangeEvent{Text: change.Text})
		default:
			log.Warningf("unsupported content change type %T", item)
		}
	}
	return changes
}

// refreshOpenDocuments re-analyzes every open document after grammar
// files changed on disk, republishing their diagnostics. Documents open
// in the editor take their content from the editor, so only import
// resolution can have changed for them.
func refreshOpenDocuments(glspContext *glsp.Context, changedURIs []string) {
	srv := getServer()
	if srv == nil {
		return
	}

	log.Debugf("grammar files changed on disk: %v", changedURIs)
	for _, uri := range srv.Engine().URIs() {
		doc, err := srv.Engine().Refresh(context.Background(), uri)
		if err != nil {
			continue
		}
		PublishDiagnostics(glspContext, uri, doc.Diagnostics)
	}
}
