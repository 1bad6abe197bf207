package engine

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/analysis"
	"github.com/larkls/go-lark-lsp/internal/document"
)

// directiveKeywords are offered after a '%' at the start of a statement.
var directiveKeywords = []string{"%import", "%ignore", "%declare", "%override", "%extend"}

// Completion returns completion items at the position: every rule and
// terminal visible in the analysis unit matching the typed prefix, in
// alphabetical order. Directive keywords are added at the start of a
// line; after a '%' they are the only candidates.
func (e *Engine) Completion(uri string, pos protocol.Position) ([]protocol.CompletionItem, error) {
	doc, ok := e.Get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	line, offset, err := document.LineAt(doc.Text, pos)
	if err != nil {
		return nil, err
	}
	prefix, _ := document.WordAt(line, offset)

	if inDirectivePosition(line, offset, prefix) {
		return directiveItems(prefix, true), nil
	}

	items := make([]protocol.CompletionItem, 0, len(doc.Table.Names()))
	for _, sym := range doc.Table.Symbols() {
		if !strings.HasPrefix(sym.Name, prefix) {
			continue
		}
		items = append(items, completionItem(sym))
	}
	if atLineStart(line, offset, prefix) {
		items = append(items, directiveItems(prefix, false)...)
	}
	return items, nil
}

// inDirectivePosition reports whether the word being completed directly
// follows a '%'.
func inDirectivePosition(line string, offset int, prefix string) bool {
	at := offset - len(prefix) - 1
	return at >= 0 && line[at] == '%'
}

// atLineStart reports whether only whitespace precedes the word being
// completed, where a new definition or directive may begin.
func atLineStart(line string, offset int, prefix string) bool {
	return strings.TrimSpace(line[:offset-len(prefix)]) == ""
}

func directiveItems(prefix string, percentTyped bool) []protocol.CompletionItem {
	kind := protocol.CompletionItemKindKeyword
	items := make([]protocol.CompletionItem, 0, len(directiveKeywords))
	for _, kw := range directiveKeywords {
		if !strings.HasPrefix(kw[1:], prefix) {
			continue
		}
		item := protocol.CompletionItem{Label: kw, Kind: &kind}
		if percentTyped {
			// The '%' is already in the buffer; insert only the keyword body.
			insert := kw[1:]
			item.InsertText = &insert
		}
		items = append(items, item)
	}
	return items
}

func completionItem(sym *analysis.Symbol) protocol.CompletionItem {
	kind := protocol.CompletionItemKindFunction
	if sym.Kind == analysis.KindTerminal {
		kind = protocol.CompletionItemKindConstant
	}
	detail := detailFor(sym)
	return protocol.CompletionItem{
		Label:  sym.Name,
		Kind:   &kind,
		Detail: &detail,
	}
}

func detailFor(sym *analysis.Symbol) string {
	detail := sym.Kind.String()
	switch {
	case sym.IsTemplate:
		detail = "template " + detail
	case sym.IsDeclared:
		detail = "declared " + detail
	}
	if sym.Imported {
		detail = "imported " + detail
	}
	return detail
}
