package engine

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/ast"
)

// DocumentSymbols returns the outline of the document: one symbol per
// rule, template, terminal and declared terminal, in source order.
func (e *Engine) DocumentSymbols(uri string) ([]protocol.DocumentSymbol, error) {
	doc, ok := e.Get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	var symbols []protocol.DocumentSymbol
	for _, decl := range doc.Grammar.Decls {
		switch d := decl.(type) {
		case *ast.DeclareDecl:
			for _, name := range d.Names {
				symbols = append(symbols, outlineSymbol(name, decl, "declared terminal"))
			}
		case *ast.RuleDef:
			symbols = append(symbols, outlineSymbol(d.Name, decl, "rule"))
		case *ast.TemplateDef:
			symbols = append(symbols, outlineSymbol(d.Name, decl, "template"))
		case *ast.TerminalDef:
			symbols = append(symbols, outlineSymbol(d.Name, decl, "terminal"))
		case *ast.OverrideDecl:
			if def := definitionName(d.Def); def != nil {
				symbols = append(symbols, outlineSymbol(def, decl, "override"))
			}
		case *ast.ExtendDecl:
			if def := definitionName(d.Def); def != nil {
				symbols = append(symbols, outlineSymbol(def, decl, "extend"))
			}
		}
	}
	return symbols, nil
}

func definitionName(decl ast.Decl) *ast.Ident {
	switch d := decl.(type) {
	case *ast.RuleDef:
		return d.Name
	case *ast.TemplateDef:
		return d.Name
	case *ast.TerminalDef:
		return d.Name
	}
	return nil
}

func outlineSymbol(name *ast.Ident, decl ast.Decl, detail string) protocol.DocumentSymbol {
	kind := protocol.SymbolKindFunction
	if name.IsTerminal {
		kind = protocol.SymbolKindConstant
	}
	return protocol.DocumentSymbol{
		Name:           name.Name,
		Detail:         &detail,
		Kind:           kind,
		Range:          decl.Span().Range(),
		SelectionRange: name.Span().Range(),
	}
}
