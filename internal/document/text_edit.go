// Package document provides text document synchronization utilities:
// applying LSP incremental edits and converting between protocol
// positions (UTF-16) and byte offsets.
package document

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ApplyContentChange applies one TextDocumentContentChangeEvent to text.
// A change without a range replaces the whole document (full sync).
func ApplyContentChange(text string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}

	start, err := PositionToOffset(text, change.Range.Start)
	if err != nil {
		return "", fmt.Errorf("invalid change start: %w", err)
	}
	end, err := PositionToOffset(text, change.Range.End)
	if err != nil {
		return "", fmt.Errorf("invalid change end: %w", err)
	}
	if start > end {
		return "", fmt.Errorf("change start %d after end %d", start, end)
	}

	var b strings.Builder
	b.Grow(len(text) - (end - start) + len(change.Text))
	b.WriteString(text[:start])
	b.WriteString(change.Text)
	b.WriteString(text[end:])
	return b.String(), nil
}

// PositionToOffset converts an LSP position (0-based line, UTF-16
// character) to a byte offset into text. A character offset past the end
// of its line clamps to the end of the line, matching how servers are
// expected to treat loose client positions.
func PositionToOffset(text string, pos protocol.Position) (int, error) {
	offset := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("line %d out of range", pos.Line)
		}
		offset += nl + 1
	}

	lineEnd := len(text)
	if nl := strings.IndexByte(text[offset:], '\n'); nl >= 0 {
		lineEnd = offset + nl
	}
	line := text[offset:lineEnd]

	units := int(pos.Character)
	for i, r := range line {
		if units <= 0 {
			return offset + i, nil
		}
		if r > 0xFFFF {
			units -= 2
		} else {
			units--
		}
	}
	return lineEnd, nil
}

// LineAt returns the text of the line containing the position, without
// the trailing newline, and the byte offset of the position within it.
func LineAt(text string, pos protocol.Position) (string, int, error) {
	lineStart, err := PositionToOffset(text, protocol.Position{Line: pos.Line})
	if err != nil {
		return "", 0, err
	}
	offset, err := PositionToOffset(text, pos)
	if err != nil {
		return "", 0, err
	}

	lineEnd := len(text)
	if nl := strings.IndexByte(text[lineStart:], '\n'); nl >= 0 {
		lineEnd = lineStart + nl
	}
	if lineEnd > lineStart && text[lineEnd-1] == '\r' {
		lineEnd--
	}
	if offset > lineEnd {
		offset = lineEnd
	}
	return text[lineStart:lineEnd], offset - lineStart, nil
}

// WordAt returns the identifier-shaped word around the byte offset
// within line, split at the offset into the part before the cursor and
// the whole word.
func WordAt(line string, offset int) (prefix, word string) {
	start := offset
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	end := offset
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:offset], line[start:end]
}

func isWordByte(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
