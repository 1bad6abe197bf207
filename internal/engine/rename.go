package engine

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/analysis"
	"github.com/larkls/go-lark-lsp/internal/token"
)

// Rename renames the symbol at the position across the analysis unit.
// The new name must be a valid grammar name whose case matches the
// symbol's kind: lowercase for rules, uppercase for terminals. Returns
// nil when the position is not on a symbol.
func (e *Engine) Rename(uri string, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error) {
	doc, ok := e.Get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	sym, ok := doc.Table.At(uri, token.PosFromProtocol(pos))
	if !ok {
		return nil, nil
	}
	if err := validateName(newName, sym.Kind); err != nil {
		return nil, err
	}

	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)
	add := func(loc analysis.Location) {
		changes[loc.URI] = append(changes[loc.URI], protocol.TextEdit{
			Range:   loc.Span.Range(),
			NewText: newName,
		})
	}

	if !sym.Imported {
		add(sym.Definition)
	}
	for _, ref := range sym.References {
		add(ref)
	}

	if len(changes) == 0 {
		return nil, nil
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

// validateName checks that name is a legal grammar identifier of the
// right kind. The case of the first letter decides rule vs terminal,
// matching how the lexer classifies names.
func validateName(name string, kind analysis.SymbolKind) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}

	var firstLetter byte
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z':
			if firstLetter == 0 {
				firstLetter = ch
			}
		case ch == '_' || (ch >= '0' && ch <= '9' && i > 0):
			// ok
		default:
			return fmt.Errorf("invalid character %q in name %q", ch, name)
		}
	}
	if firstLetter == 0 {
		return fmt.Errorf("name %q must contain a letter", name)
	}

	isUpper := firstLetter >= 'A' && firstLetter <= 'Z'
	if kind == analysis.KindTerminal && !isUpper {
		return fmt.Errorf("terminal name %q must be uppercase", name)
	}
	if kind == analysis.KindRule && isUpper {
		return fmt.Errorf("rule name %q must be lowercase", name)
	}
	return nil
}
