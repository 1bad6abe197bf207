package engine

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/analysis"
	"github.com/larkls/go-lark-lsp/internal/token"
)

// Hover returns markdown documentation for the symbol at the position:
// its kind and name, the definition source when available, the origin
// of imported symbols and its reference count. Returns nil when the
// position is not on a symbol.
func (e *Engine) Hover(uri string, pos protocol.Position) (*protocol.Hover, error) {
	doc, ok := e.Get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	tpos := token.PosFromProtocol(pos)
	sym, ok := doc.Table.At(uri, tpos)
	if !ok {
		if ref, found := doc.Table.UnresolvedAt(uri, tpos); found {
			return e.hoverResult(fmt.Sprintf("**%s:** `%s`\n\n_Undefined_", titleKind(ref.Kind), ref.Name), ref.Loc.Span), nil
		}
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s:** `%s`", symbolTitle(sym), sym.Name)

	if src := e.definitionSource(doc, sym); src != "" {
		fmt.Fprintf(&b, "\n\n```lark\n%s\n```", src)
	}
	if sym.Imported && sym.ImportedFrom != "" {
		fmt.Fprintf(&b, "\n\nImported from `%s`", sym.ImportedFrom)
	}
	if n := len(sym.References); n == 1 {
		b.WriteString("\n\n1 reference")
	} else {
		fmt.Fprintf(&b, "\n\n%d references", n)
	}

	span := sym.Definition.Span
	if at, found := spanAt(sym, uri, tpos); found {
		span = at
	}
	return e.hoverResult(b.String(), span), nil
}

func (e *Engine) hoverResult(markdown string, span token.Span) *protocol.Hover {
	r := span.Range()
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: markdown,
		},
		Range: &r,
	}
}

// definitionSource returns the source text of the symbol's definition.
// Local definitions are sliced from the open document; imported ones are
// read through the workspace resolver when possible.
func (e *Engine) definitionSource(doc *Document, sym *analysis.Symbol) string {
	text := ""
	switch {
	case sym.Definition.URI == doc.URI:
		text = doc.Text
	default:
		if imported, open := e.Get(sym.Definition.URI); open {
			text = imported.Text
		} else if e.resolver != nil {
			content, err := e.resolver.ReadFile(sym.Definition.URI)
			if err != nil {
				return ""
			}
			text = content
		}
	}

	start, end := sym.FullSpan.Start.Offset, sym.FullSpan.End.Offset
	if start < 0 || end > len(text) || start >= end {
		return ""
	}
	return strings.TrimRight(text[start:end], "\n\r \t")
}

// spanAt finds the definition or reference span of sym containing the
// position, so the hover highlights the word under the cursor.
func spanAt(sym *analysis.Symbol, uri string, pos token.Pos) (token.Span, bool) {
	if sym.Definition.URI == uri && sym.Definition.Span.Contains(pos) {
		return sym.Definition.Span, true
	}
	for _, ref := range sym.References {
		if ref.URI == uri && ref.Span.Contains(pos) {
			return ref.Span, true
		}
	}
	return token.Span{}, false
}

func symbolTitle(sym *analysis.Symbol) string {
	switch {
	case sym.IsTemplate:
		return "Template"
	case sym.IsDeclared:
		return "Declared terminal"
	default:
		return titleKind(sym.Kind)
	}
}

func titleKind(kind analysis.SymbolKind) string {
	if kind == analysis.KindTerminal {
		return "Terminal"
	}
	return "Rule"
}
