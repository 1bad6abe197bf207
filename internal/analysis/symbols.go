// Package analysis builds symbol tables for Lark grammar analysis units
// and derives structural diagnostics from them.
package analysis

import (
	"sort"

	"github.com/larkls/go-lark-lsp/internal/token"
)

// SymbolKind distinguishes rules from terminals.
type SymbolKind int

const (
	KindRule SymbolKind = iota
	KindTerminal
)

func (k SymbolKind) String() string {
	if k == KindTerminal {
		return "terminal"
	}
	return "rule"
}

// Location is a span within a specific document.
type Location struct {
	URI  string
	Span token.Span
}

// Symbol is one named grammar symbol within an analysis unit.
type Symbol struct {
	Name string
	Kind SymbolKind

	// Definition is the canonical definition site: the name identifier
	// of the first-seen definition. FullSpan covers the whole
	// definition for outline ranges.
	Definition Location
	FullSpan   token.Span

	// References holds every reference site across the unit, in the
	// order they were recorded.
	References []Location

	// Imported is set for symbols whose definition lives in (or is
	// declared by an import from) another document; ImportedFrom names
	// the source document when it could be resolved.
	Imported     bool
	ImportedFrom string

	IsTemplate bool
	IsDeclared bool
}

// UnresolvedRef is a reference that matched no definition in the unit.
type UnresolvedRef struct {
	Name string
	Kind SymbolKind
	Loc  Location
}

// SymbolTable maps names to symbols for one analysis unit (a document
// plus its transitive imports). Within a unit a name has exactly one
// canonical definition; later definitions are reported as duplicates
// but do not displace the first.
type SymbolTable struct {
	symbols    map[string]*Symbol
	unresolved []UnresolvedRef
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol)}
}

// Lookup returns the symbol for a name, if defined in the unit.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.symbols[name]
	return sym, ok
}

// Names returns all defined names in alphabetical order.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Symbols returns all symbols ordered by name.
func (t *SymbolTable) Symbols() []*Symbol {
	syms := make([]*Symbol, 0, len(t.symbols))
	for _, name := range t.Names() {
		syms = append(syms, t.symbols[name])
	}
	return syms
}

// Unresolved returns the references that matched no definition.
func (t *SymbolTable) Unresolved() []UnresolvedRef {
	return t.unresolved
}

// At returns the symbol whose definition name or one of whose references
// contains the given position in the given document.
func (t *SymbolTable) At(uri string, pos token.Pos) (*Symbol, bool) {
	for _, sym := range t.symbols {
		if sym.Definition.URI == uri && sym.Definition.Span.Contains(pos) {
			return sym, true
		}
		for _, ref := range sym.References {
			if ref.URI == uri && ref.Span.Contains(pos) {
				return sym, true
			}
		}
	}
	return nil, false
}

// UnresolvedAt returns the unresolved reference containing the position.
func (t *SymbolTable) UnresolvedAt(uri string, pos token.Pos) (UnresolvedRef, bool) {
	for _, ref := range t.unresolved {
		if ref.Loc.URI == uri && ref.Loc.Span.Contains(pos) {
			return ref, true
		}
	}
	return UnresolvedRef{}, false
}

// define records a definition, returning the existing symbol (and false)
// when the name is already taken. The first definition stays canonical.
func (t *SymbolTable) define(sym *Symbol) (*Symbol, bool) {
	if existing, ok := t.symbols[sym.Name]; ok {
		return existing, false
	}
	t.symbols[sym.Name] = sym
	return sym, true
}

// addReference appends a reference site to a defined symbol.
func (t *SymbolTable) addReference(name string, loc Location) bool {
	sym, ok := t.symbols[name]
	if !ok {
		return false
	}
	sym.References = append(sym.References, loc)
	return true
}

// addUnresolved records a reference with no matching definition.
func (t *SymbolTable) addUnresolved(ref UnresolvedRef) {
	t.unresolved = append(t.unresolved, ref)
}
