package engine

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/analysis"
	"github.com/larkls/go-lark-lsp/internal/token"
)

// Definition returns the definition site of the symbol at the position,
// or nil when the position is not on a symbol. A reference that never
// resolved to a definition fails with ErrNoDefinition. For imported
// symbols the location points into the defining file.
func (e *Engine) Definition(uri string, pos protocol.Position) (*protocol.Location, error) {
	doc, ok := e.Get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	tpos := token.PosFromProtocol(pos)
	sym, ok := doc.Table.At(uri, tpos)
	if !ok {
		if _, unresolved := doc.Table.UnresolvedAt(uri, tpos); unresolved {
			return nil, ErrNoDefinition
		}
		return nil, nil
	}

	loc := toProtocolLocation(sym.Definition)
	return &loc, nil
}

// References returns every reference to the symbol at the position
// across the analysis unit. With includeDeclaration the definition site
// is prepended.
func (e *Engine) References(uri string, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error) {
	doc, ok := e.Get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	sym, ok := doc.Table.At(uri, token.PosFromProtocol(pos))
	if !ok {
		return nil, nil
	}

	locs := make([]protocol.Location, 0, len(sym.References)+1)
	if includeDeclaration {
		locs = append(locs, toProtocolLocation(sym.Definition))
	}
	for _, ref := range sym.References {
		locs = append(locs, toProtocolLocation(ref))
	}
	return locs, nil
}

func toProtocolLocation(loc analysis.Location) protocol.Location {
	return protocol.Location{
		URI:   loc.URI,
		Range: loc.Span.Range(),
	}
}
