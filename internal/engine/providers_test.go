package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func pos(line, character uint32) protocol.Position {
	return protocol.Position{Line: line, Character: character}
}

func TestDefinition_FromReference(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	// Cursor on the "item" reference in line 0.
	loc, err := e.Definition(testURI, pos(0, 8))
	require.NoError(t, err)
	require.NotNil(t, loc)

	assert.Equal(t, testURI, loc.URI)
	assert.Equal(t, protocol.UInteger(1), loc.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(0), loc.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(4), loc.Range.End.Character)
}

func TestDefinition_FromDefinition(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	loc, err := e.Definition(testURI, pos(1, 2))
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, protocol.UInteger(1), loc.Range.Start.Line)
}

func TestDefinition_NotOnSymbol(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	loc, err := e.Definition(testURI, pos(0, 6))
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestDefinition_UnresolvedReference(t *testing.T) {
	e := openTestDoc(t, "start: missing\n")

	loc, err := e.Definition(testURI, pos(0, 9))
	assert.ErrorIs(t, err, ErrNoDefinition)
	assert.Nil(t, loc)
}

func TestReferences_RoundTrip(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	// From the definition of WORD, with the declaration included.
	locs, err := e.References(testURI, pos(2, 1), true)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, protocol.UInteger(2), locs[0].Range.Start.Line)
	assert.Equal(t, protocol.UInteger(1), locs[1].Range.Start.Line)

	// Without the declaration.
	locs, err = e.References(testURI, pos(2, 1), false)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.UInteger(1), locs[0].Range.Start.Line)
}

func TestCompletion_Symbols(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	items, err := e.Completion(testURI, pos(1, 6))
	require.NoError(t, err)

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	assert.Equal(t, []string{"WORD", "item", "start"}, labels)

	require.NotNil(t, items[0].Kind)
	assert.Equal(t, protocol.CompletionItemKindConstant, *items[0].Kind)
	require.NotNil(t, items[1].Kind)
	assert.Equal(t, protocol.CompletionItemKindFunction, *items[1].Kind)
}

func TestCompletion_PrefixFilter(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	// Cursor in the middle of "item" on line 0, prefix "i".
	items, err := e.Completion(testURI, pos(0, 8))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item", items[0].Label)
}

func TestCompletion_DirectivesAtLineStart(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	items, err := e.Completion(testURI, pos(1, 0))
	require.NoError(t, err)
	// All symbols plus the five directive keywords.
	require.Len(t, items, 8)

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	assert.Contains(t, labels, "%import")
	assert.Contains(t, labels, "start")
}

func TestCompletion_Directives(t *testing.T) {
	e := openTestDoc(t, "%imp\nstart: WORD\nWORD: /\\w+/\n")

	items, err := e.Completion(testURI, pos(0, 4))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "%import", items[0].Label)
	require.NotNil(t, items[0].InsertText)
	assert.Equal(t, "import", *items[0].InsertText)

	// A bare % offers every directive.
	e2 := openTestDoc(t, "%\nstart: WORD\nWORD: /\\w+/\n")
	items, err = e2.Completion(testURI, pos(0, 1))
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestHover_Rule(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	hover, err := e.Hover(testURI, pos(0, 8))
	require.NoError(t, err)
	require.NotNil(t, hover)

	content, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, content.Value, "**Rule:** `item`")
	assert.Contains(t, content.Value, "item: WORD")
	assert.Contains(t, content.Value, "1 reference")

	// The hover range highlights the reference under the cursor.
	require.NotNil(t, hover.Range)
	assert.Equal(t, protocol.UInteger(0), hover.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(7), hover.Range.Start.Character)
}

func TestHover_Terminal(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	hover, err := e.Hover(testURI, pos(2, 2))
	require.NoError(t, err)
	require.NotNil(t, hover)

	content := hover.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "**Terminal:** `WORD`")
}

func TestHover_UndefinedSymbol(t *testing.T) {
	e := openTestDoc(t, "start: nothing\n")

	hover, err := e.Hover(testURI, pos(0, 9))
	require.NoError(t, err)
	require.NotNil(t, hover)

	content := hover.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "_Undefined_")
}

func TestHover_NotOnSymbol(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	hover, err := e.Hover(testURI, pos(0, 6))
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestDocumentSymbols(t *testing.T) {
	e := openTestDoc(t, `start: pair+
pair{k}: k ":" k
%declare INDENT
WORD: /\w+/
`)

	symbols, err := e.DocumentSymbols(testURI)
	require.NoError(t, err)
	require.Len(t, symbols, 4)

	assert.Equal(t, "start", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[0].Kind)
	assert.Equal(t, "pair", symbols[1].Name)
	assert.Equal(t, "template", *symbols[1].Detail)
	assert.Equal(t, "INDENT", symbols[2].Name)
	assert.Equal(t, protocol.SymbolKindConstant, symbols[2].Kind)
	assert.Equal(t, "WORD", symbols[3].Name)

	// The selection range covers just the name.
	assert.Equal(t, protocol.UInteger(0), symbols[0].SelectionRange.Start.Character)
	assert.Equal(t, protocol.UInteger(5), symbols[0].SelectionRange.End.Character)
}

func TestRename_EditsDefinitionAndReferences(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	edit, err := e.Rename(testURI, pos(1, 2), "entry")
	require.NoError(t, err)
	require.NotNil(t, edit)

	edits := edit.Changes[testURI]
	require.Len(t, edits, 2)
	for _, te := range edits {
		assert.Equal(t, "entry", te.NewText)
	}
}

func TestRename_RejectsWrongCase(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	_, err := e.Rename(testURI, pos(1, 2), "ENTRY")
	assert.Error(t, err)

	_, err = e.Rename(testURI, pos(2, 1), "word")
	assert.Error(t, err)

	_, err = e.Rename(testURI, pos(1, 2), "bad name")
	assert.Error(t, err)
}

func TestRename_NotOnSymbol(t *testing.T) {
	e := openTestDoc(t, testGrammar)

	edit, err := e.Rename(testURI, pos(0, 6), "anything")
	require.NoError(t, err)
	assert.Nil(t, edit)
}
