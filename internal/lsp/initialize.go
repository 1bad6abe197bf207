package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ServerName identifies this server to clients.
const ServerName = "go-lark-lsp"

// ServerVersion is reported in the initialize response.
const ServerVersion = "0.1.0"

// Initialize handles the LSP initialize request.
// This is the first request sent by the client and establishes the server capabilities.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (interface{}, error) {
	srv := getServer()
	if srv != nil {
		srv.SetClientCapabilities(&params.Capabilities)
		srv.Resolver().SetFolders(workspaceFolders(params))
		protocol.SetTraceValue(protocol.TraceValue(srv.Config().Trace))
	}

	changeKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	falseVal := false

	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
			WillSave:  &falseVal,
			Save: &protocol.SaveOptions{
				IncludeText: &falseVal,
			},
		},

		HoverProvider:          &trueVal,
		DefinitionProvider:     &trueVal,
		ReferencesProvider:     &trueVal,
		DocumentSymbolProvider: &trueVal,

		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{"%", "_"},
			ResolveProvider:   &falseVal,
		},

		RenameProvider: &protocol.RenameOptions{
			PrepareProvider: &falseVal,
		},

		// Diagnostics are pushed via publishDiagnostics.
	}

	serverVersion := ServerVersion
	result := protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &serverVersion,
		},
	}
	return result, nil
}

// workspaceFolders extracts the workspace folders from the initialize
// params, falling back to the deprecated rootUri field.
func workspaceFolders(params *protocol.InitializeParams) []protocol.WorkspaceFolder {
	if len(params.WorkspaceFolders) > 0 {
		return params.WorkspaceFolders
	}
	if params.RootURI != nil {
		return []protocol.WorkspaceFolder{{URI: *params.RootURI, Name: *params.RootURI}}
	}
	return nil
}

// Initialized handles the initialized notification from the client.
// It starts the workspace watcher so edits to imported grammars on disk
// refresh the diagnostics of open documents.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	srv := getServer()
	if srv == nil {
		return nil
	}

	err := srv.StartWatching(func(changedURIs []string) {
		refreshOpenDocuments(context, changedURIs)
	})
	if err != nil {
		log.Warningf("workspace watching disabled: %v", err)
	}
	return nil
}

// Shutdown handles the shutdown request.
func Shutdown(context *glsp.Context) error {
	if srv := getServer(); srv != nil {
		srv.SetShuttingDown()
		srv.StopWatching()
	}
	return nil
}
