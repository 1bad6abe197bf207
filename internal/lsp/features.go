package lsp

import (
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/engine"
)

// Completion handles textDocument/completion.
func Completion(glspContext *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	srv := getServer()
	if srv == nil {
		return nil, nil
	}

	items, err := srv.Engine().Completion(params.TextDocument.URI, params.Position)
	if err != nil {
		return nil, ignoreUnknown(err)
	}
	return items, nil
}

// Hover handles textDocument/hover.
func Hover(glspContext *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	srv := getServer()
	if srv == nil {
		return nil, nil
	}

	hover, err := srv.Engine().Hover(params.TextDocument.URI, params.Position)
	if err != nil {
		return nil, ignoreUnknown(err)
	}
	return hover, nil
}

// Definition handles textDocument/definition.
func Definition(glspContext *glsp.Context, params *protocol.DefinitionParams) (interface{}, error) {
	srv := getServer()
	if srv == nil {
		return nil, nil
	}

	loc, err := srv.Engine().Definition(params.TextDocument.URI, params.Position)
	if errors.Is(err, engine.ErrNoDefinition) {
		return nil, nil
	}
	if err != nil {
		return nil, ignoreUnknown(err)
	}
	if loc == nil {
		return nil, nil
	}
	return *loc, nil
}

// References handles textDocument/references.
func References(glspContext *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	srv := getServer()
	if srv == nil {
		return nil, nil
	}

	locs, err := srv.Engine().References(params.TextDocument.URI, params.Position, params.Context.IncludeDeclaration)
	if err != nil {
		return nil, ignoreUnknown(err)
	}
	return locs, nil
}

// DocumentSymbol handles textDocument/documentSymbol.
func DocumentSymbol(glspContext *glsp.Context, params *protocol.DocumentSymbolParams) (interface{}, error) {
	srv := getServer()
	if srv == nil {
		return nil, nil
	}

	symbols, err := srv.Engine().DocumentSymbols(params.TextDocument.URI)
	if err != nil {
		return nil, ignoreUnknown(err)
	}
	return symbols, nil
}

// Rename handles textDocument/rename.
func Rename(glspContext *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	srv := getServer()
	if srv == nil {
		return nil, nil
	}

	edit, err := srv.Engine().Rename(params.TextDocument.URI, params.Position, params.NewName)
	if err != nil {
		return nil, ignoreUnknown(err)
	}
	return edit, nil
}

// ignoreUnknown turns requests against unopened documents into empty
// responses; clients race close notifications against feature requests.
func ignoreUnknown(err error) error {
	if errors.Is(err, engine.ErrUnknownDocument) {
		return nil
	}
	return err
}
