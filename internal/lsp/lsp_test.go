package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/server"
)

const testURI = "file:///ws/test.lark"

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	srv := server.New()
	SetServer(srv)
	t.Cleanup(func() { SetServer(nil) })
	return srv
}

func openDoc(t *testing.T, srv *server.Server, text string) {
	t.Helper()
	err := DidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        testURI,
			LanguageID: "lark",
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

func TestDidOpenStoresDocument(t *testing.T) {
	srv := newTestServer(t)
	openDoc(t, srv, "start: WORD\nWORD: /\\w+/\n")

	doc, ok := srv.Engine().Get(testURI)
	require.True(t, ok)
	assert.Equal(t, int32(1), doc.Version)
	assert.Empty(t, doc.Diagnostics)
}

func TestDidChangeAppliesEdits(t *testing.T) {
	srv := newTestServer(t)
	openDoc(t, srv, "start: WORD\nWORD: /\\w+/\n")

	err := DidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEventWhole{Text: "start: NUMBER\n"},
		},
	})
	require.NoError(t, err)

	doc, ok := srv.Engine().Get(testURI)
	require.True(t, ok)
	assert.Equal(t, "start: NUMBER\n", doc.Text)
	// NUMBER is undefined now.
	require.Len(t, doc.Diagnostics, 1)
}

func TestDidChangeIgnoresStaleVersion(t *testing.T) {
	srv := newTestServer(t)
	openDoc(t, srv, "start: WORD\nWORD: /\\w+/\n")

	err := DidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                1,
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEventWhole{Text: "bogus"},
		},
	})
	require.NoError(t, err)

	doc, _ := srv.Engine().Get(testURI)
	assert.Equal(t, "start: WORD\nWORD: /\\w+/\n", doc.Text)
}

func TestDidCloseRemovesDocument(t *testing.T) {
	srv := newTestServer(t)
	openDoc(t, srv, "start: WORD\nWORD: /\\w+/\n")

	err := DidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)

	_, ok := srv.Engine().Get(testURI)
	assert.False(t, ok)
}

func TestFeatureHandlers(t *testing.T) {
	srv := newTestServer(t)
	openDoc(t, srv, "start: item\nitem: WORD\nWORD: /\\w+/\n")

	completion, err := Completion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 0, Character: 7},
		},
	})
	require.NoError(t, err)
	items, ok := completion.([]protocol.CompletionItem)
	require.True(t, ok)
	assert.Len(t, items, 3)

	hover, err := Hover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 0, Character: 8},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)

	definition, err := Definition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 0, Character: 8},
		},
	})
	require.NoError(t, err)
	loc, ok := definition.(protocol.Location)
	require.True(t, ok)
	assert.Equal(t, protocol.UInteger(1), loc.Range.Start.Line)

	symbols, err := DocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	list, ok := symbols.([]protocol.DocumentSymbol)
	require.True(t, ok)
	assert.Len(t, list, 3)
}

func TestFeatureHandlersOnUnknownDocument(t *testing.T) {
	newTestServer(t)

	hover, err := Hover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nope.lark"},
		},
	})
	assert.NoError(t, err)
	assert.Nil(t, hover)
}

func TestSetTraceUpdatesConfig(t *testing.T) {
	srv := newTestServer(t)

	err := SetTrace(nil, &protocol.SetTraceParams{Value: protocol.TraceValueVerbose})
	require.NoError(t, err)
	assert.Equal(t, string(protocol.TraceValueVerbose), srv.Config().Trace)
}

func TestInitializeCapabilities(t *testing.T) {
	newTestServer(t)

	result, err := Initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, ServerName, init.ServerInfo.Name)

	sync, ok := init.Capabilities.TextDocumentSync.(protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	require.NotNil(t, sync.Change)
	assert.Equal(t, protocol.TextDocumentSyncKindIncremental, *sync.Change)
}
