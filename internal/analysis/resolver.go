package analysis

import (
	"context"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/ast"
	"github.com/larkls/go-lark-lsp/internal/token"
)

// Snapshot is an immutable view of one document's parsed grammar.
// Import resolution works exclusively on snapshots: a concurrent edit to
// an imported document cannot affect an in-progress resolve.
type Snapshot struct {
	URI     string
	Grammar *ast.Grammar
}

// Loader resolves an %import module path (as written, e.g. "common" or
// ".grammars.base") relative to the importing document. It returns the
// target's snapshot, or ok=false when the target cannot be found. A nil
// Loader makes every import unresolvable.
type Loader func(ctx context.Context, fromURI, modulePath string) (Snapshot, bool)

// Result is the outcome of resolving one analysis unit.
type Result struct {
	Table *SymbolTable
	// Diagnostics are the resolution diagnostics anchored in the root
	// document, unsorted.
	Diagnostics []protocol.Diagnostic
}

// Resolve builds the symbol table for the analysis unit rooted at root:
// the document itself plus everything it transitively imports. It walks
// definitions first, then references, and reports undefined symbols,
// duplicate definitions, kind mismatches, unused symbols, unresolvable
// imports and import cycles. All diagnostics are anchored in the root
// document; imported documents get their own when analyzed as roots.
func Resolve(ctx context.Context, root Snapshot, load Loader) *Result {
	r := &resolver{
		table:   NewSymbolTable(),
		rootURI: root.URI,
	}

	r.loadUnit(ctx, root, load)

	for _, doc := range r.docs {
		if ctx.Err() != nil {
			break
		}
		r.collectDefinitions(doc)
	}
	r.registerImportedNames()
	for _, doc := range r.docs {
		if ctx.Err() != nil {
			break
		}
		r.collectReferences(doc)
	}
	r.checkUnused()

	return &Result{Table: r.table, Diagnostics: r.diags}
}

type unitDoc struct {
	snap   Snapshot
	parent int // index into resolver.docs, -1 for the root
}

type importRecord struct {
	decl      *ast.ImportDecl
	docURI    string
	targetURI string
	found     bool
}

type resolver struct {
	table   *SymbolTable
	rootURI string
	diags   []protocol.Diagnostic

	docs    []unitDoc
	imports []importRecord

	// redefined tracks names introduced via %override/%extend, which are
	// exempt from duplicate and unused reporting.
	redefined map[string]bool

	cycleReported bool
}

// loadUnit resolves imports breadth-first, collecting every document of
// the analysis unit. Cycles are detected against the importing
// document's ancestor chain, so diamond imports are not misreported.
func (r *resolver) loadUnit(ctx context.Context, root Snapshot, load Loader) {
	r.docs = []unitDoc{{snap: root, parent: -1}}
	members := map[string]int{root.URI: 0}

	for i := 0; i < len(r.docs); i++ {
		doc := r.docs[i]
		for _, decl := range doc.snap.Grammar.Decls {
			imp, ok := decl.(*ast.ImportDecl)
			if !ok {
				continue
			}
			if ctx.Err() != nil {
				return
			}

			rec := importRecord{decl: imp, docURI: doc.snap.URI}

			if load == nil {
				r.importNotFound(doc.snap.URI, imp)
				r.imports = append(r.imports, rec)
				continue
			}

			target, found := load(ctx, doc.snap.URI, imp.ModulePath())
			if !found {
				r.importNotFound(doc.snap.URI, imp)
				r.imports = append(r.imports, rec)
				continue
			}

			rec.targetURI = target.URI
			rec.found = true
			r.imports = append(r.imports, rec)

			if idx, seen := members[target.URI]; seen {
				if r.onAncestorChain(i, idx) {
					r.reportCycle(doc.snap.URI, i, imp)
				}
				continue
			}

			members[target.URI] = len(r.docs)
			r.docs = append(r.docs, unitDoc{snap: target, parent: i})
		}
	}
}

// onAncestorChain reports whether docs[ancestor] appears on the import
// chain from the root down to docs[from] (inclusive).
func (r *resolver) onAncestorChain(from, ancestor int) bool {
	for i := from; i >= 0; i = r.docs[i].parent {
		if i == ancestor {
			return true
		}
	}
	return false
}

// reportCycle emits one circular-import diagnostic per unit, anchored in
// the root document: either at the root's own import statement, or at
// the root import that started the chain which loops back.
func (r *resolver) reportCycle(docURI string, docIdx int, imp *ast.ImportDecl) {
	if r.cycleReported {
		return
	}
	r.cycleReported = true

	span := imp.Span()
	if docURI != r.rootURI {
		span = r.rootOriginSpan(docIdx)
	}
	r.diags = append(r.diags, newDiagnostic(span, protocol.DiagnosticSeverityError, CodeCircularImport,
		fmt.Sprintf("Circular import: %q imports back into this grammar", imp.ModulePath())))
}

// rootOriginSpan walks up the ancestor chain of docs[i] to the document
// directly imported by the root and returns the span of the root import
// statement that introduced it.
func (r *resolver) rootOriginSpan(i int) token.Span {
	for i >= 0 && r.docs[i].parent > 0 {
		i = r.docs[i].parent
	}
	// docs[i] is now a direct import of the root; find the root's
	// import record for it.
	for _, rec := range r.imports {
		if rec.docURI == r.rootURI && rec.found && rec.targetURI == r.docs[i].snap.URI {
			return rec.decl.Span()
		}
	}
	return r.docs[0].snap.Grammar.Span()
}

func (r *resolver) importNotFound(docURI string, imp *ast.ImportDecl) {
	if docURI != r.rootURI {
		return
	}
	r.diags = append(r.diags, newDiagnostic(imp.Span(), protocol.DiagnosticSeverityError, CodeImportNotFound,
		fmt.Sprintf("Cannot resolve import %q", imp.ModulePath())))
}

// collectDefinitions records every definition of one unit document.
// The root document is processed first, so its definitions stay
// canonical over imported ones with the same name.
func (r *resolver) collectDefinitions(doc unitDoc) {
	uri := doc.snap.URI
	local := uri == r.rootURI

	for _, decl := range doc.snap.Grammar.Decls {
		if dd, ok := decl.(*ast.DeclareDecl); ok {
			for _, name := range dd.Names {
				r.defineSymbol(&Symbol{
					Name:       name.Name,
					Kind:       kindOf(name),
					Definition: Location{URI: uri, Span: name.Span()},
					FullSpan:   dd.Span(),
					Imported:   !local,
					IsDeclared: true,
				}, local, false)
			}
		}
	}

	for _, def := range doc.snap.Grammar.Definitions() {
		sym := &Symbol{
			Name:       def.Name.Name,
			Kind:       kindOf(def.Name),
			Definition: Location{URI: uri, Span: def.Name.Span()},
			FullSpan:   def.Decl.Span(),
			Imported:   !local,
		}
		if !local {
			sym.ImportedFrom = uri
		}
		if _, isTemplate := def.Decl.(*ast.TemplateDef); isTemplate {
			sym.IsTemplate = true
		}
		r.defineSymbol(sym, local, def.Override || def.Extend)
	}
}

// defineSymbol inserts a definition into the table. Redefinitions via
// %override/%extend silently keep the canonical entry; other collisions
// in the root document produce a duplicate-definition diagnostic
// anchored at the later definition.
func (r *resolver) defineSymbol(sym *Symbol, local, redefinition bool) {
	if redefinition {
		if r.redefined == nil {
			r.redefined = make(map[string]bool)
		}
		r.redefined[sym.Name] = true
	}

	if _, ok := r.table.define(sym); ok {
		return
	}
	if redefinition || !local {
		return
	}
	r.diags = append(r.diags, newDiagnostic(sym.Definition.Span, protocol.DiagnosticSeverityError, CodeDuplicateDefinition,
		fmt.Sprintf("Duplicate definition of %s %q", sym.Kind, sym.Name)))
}

// registerImportedNames defines placeholder symbols for names introduced
// by %import statements that the loaded documents did not define (the
// target was unavailable, or the import renames via an alias). This
// keeps references to explicitly imported names from cascading into
// undefined-symbol noise.
func (r *resolver) registerImportedNames() {
	for _, rec := range r.imports {
		names := rec.decl.Names
		if rec.decl.Alias != nil && !rec.decl.Multi {
			// The alias is the name in scope; resolve its definition
			// site through the imported original when available.
			alias := rec.decl.Alias
			def := Location{URI: rec.docURI, Span: alias.Span()}
			if len(names) == 1 {
				if orig, ok := r.table.Lookup(names[0].Name); ok && orig.Imported {
					def = orig.Definition
				}
			}
			r.table.define(&Symbol{
				Name:         alias.Name,
				Kind:         kindOf(alias),
				Definition:   def,
				FullSpan:     rec.decl.Span(),
				Imported:     true,
				ImportedFrom: rec.targetURI,
			})
			continue
		}

		for _, name := range names {
			if _, ok := r.table.Lookup(name.Name); ok {
				continue
			}
			r.table.define(&Symbol{
				Name:         name.Name,
				Kind:         kindOf(name),
				Definition:   Location{URI: rec.docURI, Span: name.Span()},
				FullSpan:     rec.decl.Span(),
				Imported:     true,
				ImportedFrom: rec.targetURI,
			})
		}
	}
}

// collectReferences records every symbol reference of one unit document
// and reports undefined symbols and kind mismatches for the root.
func (r *resolver) collectReferences(doc unitDoc) {
	uri := doc.snap.URI

	for _, decl := range doc.snap.Grammar.Decls {
		if ig, ok := decl.(*ast.IgnoreDecl); ok {
			r.collectIgnoreTarget(uri, ig)
		}
	}

	for _, def := range doc.snap.Grammar.Definitions() {
		var params map[string]bool
		var alts []*ast.Expansion
		inTerminal := false

		switch d := def.Decl.(type) {
		case *ast.RuleDef:
			alts = d.Alts
		case *ast.TemplateDef:
			alts = d.Alts
			params = make(map[string]bool, len(d.Params))
			for _, p := range d.Params {
				params[p.Name] = true
			}
		case *ast.TerminalDef:
			alts = d.Alts
			inTerminal = true
		}

		for _, alt := range alts {
			r.walkExpansion(uri, alt, inTerminal, params)
		}
	}
}

func (r *resolver) walkExpansion(uri string, exp *ast.Expansion, inTerminal bool, params map[string]bool) {
	// Alternative aliases (-> name) label the resulting tree node; they
	// are not symbol references.
	for _, item := range exp.Items {
		r.walkExpr(uri, item, inTerminal, params)
	}
}

func (r *resolver) walkExpr(uri string, expr ast.Expr, inTerminal bool, params map[string]bool) {
	switch e := expr.(type) {
	case *ast.SymbolRef:
		r.recordReference(uri, e.Name, inTerminal, params)
		for _, arg := range e.TemplateArgs {
			r.walkExpr(uri, arg, inTerminal, params)
		}
	case *ast.Group:
		for _, alt := range e.Alts {
			r.walkExpansion(uri, alt, inTerminal, params)
		}
	case *ast.Expansion:
		r.walkExpansion(uri, e, inTerminal, params)
	}
}

func (r *resolver) recordReference(uri string, name *ast.Ident, inTerminal bool, params map[string]bool) {
	if params != nil && params[name.Name] {
		return
	}

	local := uri == r.rootURI

	if inTerminal && !name.IsTerminal && local {
		r.diags = append(r.diags, newDiagnostic(name.Span(), protocol.DiagnosticSeverityError, CodeKindMismatch,
			fmt.Sprintf("Rule %q cannot be used inside a terminal definition", name.Name)))
	}

	loc := Location{URI: uri, Span: name.Span()}
	if r.table.addReference(name.Name, loc) {
		return
	}

	r.table.addUnresolved(UnresolvedRef{Name: name.Name, Kind: kindOf(name), Loc: loc})
	if local {
		r.diags = append(r.diags, newDiagnostic(name.Span(), protocol.DiagnosticSeverityError, CodeUndefinedSymbol,
			fmt.Sprintf("Undefined %s %q", kindOf(name), name.Name)))
	}
}

func (r *resolver) collectIgnoreTarget(uri string, ig *ast.IgnoreDecl) {
	ref, ok := ig.Target.(*ast.SymbolRef)
	if !ok {
		return // literal pattern, nothing to resolve
	}

	if !ref.Name.IsTerminal && uri == r.rootURI {
		r.diags = append(r.diags, newDiagnostic(ref.Name.Span(), protocol.DiagnosticSeverityError, CodeKindMismatch,
			fmt.Sprintf("%%ignore expects a terminal, %q is a rule", ref.Name.Name)))
	}

	r.recordReference(uri, ref.Name, false, nil)
}

// checkUnused warns about local definitions that are never referenced.
// The designated start rule and %override/%extend redefinitions are
// exempt, as are imported symbols (the import statement already states
// the intent).
func (r *resolver) checkUnused() {
	for _, sym := range r.table.Symbols() {
		if sym.Imported || sym.Name == "start" {
			continue
		}
		if sym.Definition.URI != r.rootURI {
			continue
		}
		if r.redefined[sym.Name] {
			continue
		}
		if len(sym.References) > 0 {
			continue
		}
		r.diags = append(r.diags, newDiagnostic(sym.Definition.Span, protocol.DiagnosticSeverityWarning, CodeUnusedSymbol,
			fmt.Sprintf("Unused %s %q", sym.Kind, sym.Name)))
	}
}

func kindOf(name *ast.Ident) SymbolKind {
	if name.IsTerminal {
		return KindTerminal
	}
	return KindRule
}
