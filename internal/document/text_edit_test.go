package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func change(startLine, startChar, endLine, endChar uint32, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: startLine, Character: startChar},
			End:   protocol.Position{Line: endLine, Character: endChar},
		},
		Text: text,
	}
}

func TestApplyContentChange_FullSync(t *testing.T) {
	got, err := ApplyContentChange("old text", protocol.TextDocumentContentChangeEvent{Text: "new text"})
	require.NoError(t, err)
	assert.Equal(t, "new text", got)
}

func TestApplyContentChange_Insert(t *testing.T) {
	got, err := ApplyContentChange("start: item\n", change(0, 7, 0, 7, "my"))
	require.NoError(t, err)
	assert.Equal(t, "start: myitem\n", got)
}

func TestApplyContentChange_Replace(t *testing.T) {
	got, err := ApplyContentChange("start: item\nitem: WORD\n", change(1, 0, 1, 4, "thing"))
	require.NoError(t, err)
	assert.Equal(t, "start: item\nthing: WORD\n", got)
}

func TestApplyContentChange_DeleteAcrossLines(t *testing.T) {
	got, err := ApplyContentChange("a: b\nc: d\ne: f\n", change(0, 4, 1, 4, ""))
	require.NoError(t, err)
	assert.Equal(t, "a: b\ne: f\n", got)
}

func TestApplyContentChange_MultibyteLine(t *testing.T) {
	// The emoji is two UTF-16 code units; the character offsets after it
	// must account for that.
	got, err := ApplyContentChange(`X: "😀" Y`, change(0, 8, 0, 9, "Z"))
	require.NoError(t, err)
	assert.Equal(t, `X: "😀" Z`, got)
}

func TestApplyContentChange_InvalidRange(t *testing.T) {
	_, err := ApplyContentChange("one line", change(5, 0, 5, 1, "x"))
	assert.Error(t, err)
}

func TestPositionToOffset_ClampsToLineEnd(t *testing.T) {
	offset, err := PositionToOffset("ab\ncd\n", protocol.Position{Line: 0, Character: 99})
	require.NoError(t, err)
	assert.Equal(t, 2, offset)
}

func TestPositionToOffset_LastLineWithoutNewline(t *testing.T) {
	offset, err := PositionToOffset("ab\ncd", protocol.Position{Line: 1, Character: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, offset)
}

func TestLineAt(t *testing.T) {
	line, offset, err := LineAt("start: item\r\nitem: WORD\n", protocol.Position{Line: 0, Character: 9})
	require.NoError(t, err)
	assert.Equal(t, "start: item", line)
	assert.Equal(t, 9, offset)
}

func TestWordAt(t *testing.T) {
	tests := []struct {
		line   string
		offset int
		prefix string
		word   string
	}{
		{"start: item", 9, "it", "item"},
		{"start: item", 7, "", "item"},
		{"start: item", 11, "item", "item"},
		{"%imp", 4, "imp", "imp"},
		{"  ", 1, "", ""},
	}
	for _, tt := range tests {
		prefix, word := WordAt(tt.line, tt.offset)
		assert.Equal(t, tt.prefix, prefix, "prefix of %q at %d", tt.line, tt.offset)
		assert.Equal(t, tt.word, word, "word of %q at %d", tt.line, tt.offset)
	}
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 5, UTF16Len("hello"))
	assert.Equal(t, 2, UTF16Len("😀"))
	assert.Equal(t, 1, UTF16Len("é"))
}
