// Package ast defines the syntax tree for Lark grammar files.
//
// The tree is a closed set of node types: consumers switch over the
// concrete types rather than inspecting nodes reflectively. Every node
// carries the source span it was parsed from.
package ast

import "github.com/larkls/go-lark-lsp/internal/token"

// Node is the base interface for all AST nodes.
type Node interface {
	Span() token.Span
}

// Decl is a top-level declaration: a definition, a directive, or an
// error node covering unparseable text.
type Decl interface {
	Node
	decl()
}

// Expr is an atom inside an expansion.
type Expr interface {
	Node
	expr()
}

// Base carries a node's source span and supplies the Span method via
// embedding.
type Base token.Span

func (b Base) Span() token.Span { return token.Span(b) }

// Grammar is the root node of a parsed grammar file.
type Grammar struct {
	Base
	Decls []Decl
}

// Ident is a rule or terminal name occurrence.
type Ident struct {
	Base
	Name string
	// IsTerminal records the case class of the identifier.
	IsTerminal bool
}

func (*Ident) expr() {}

// RuleDef is a rule definition: optional ?/! modifier, lowercase name,
// optional dotted priority, and one or more alternatives.
type RuleDef struct {
	Base
	Modifier string // "?", "!", or ""
	Name     *Ident
	Priority string // opaque, e.g. "2" from "rule.2", or ""
	Alts     []*Expansion
}

func (*RuleDef) decl() {}

// TemplateDef is a rule definition with template parameters, e.g.
// separated{item, sep}: item (sep item)*.
type TemplateDef struct {
	Base
	Modifier string
	Name     *Ident
	Params   []*Ident
	Alts     []*Expansion
}

func (*TemplateDef) decl() {}

// TerminalDef is a terminal definition: uppercase name, optional
// priority, alternatives of patterns.
type TerminalDef struct {
	Base
	Name     *Ident
	Priority string
	Alts     []*Expansion
}

func (*TerminalDef) decl() {}

// Expansion is one alternative of a definition: an ordered sequence of
// atoms, optionally followed by an -> alias.
type Expansion struct {
	Base
	Items []Expr
	Alias *Ident
}

func (*Expansion) expr() {}

// SymbolRef is a reference to a rule or terminal by name. Modifier
// preserves any trailing repetition/range text (e.g. "*", "~3..5")
// verbatim; it is not interpreted. TemplateArgs is non-nil for template
// instantiations like sep{NUMBER, ","}.
type SymbolRef struct {
	Base
	Name         *Ident
	Modifier     string
	TemplateArgs []Expr
}

func (*SymbolRef) expr() {}

// Literal is a string or regexp pattern atom.
type Literal struct {
	Base
	Text     string // verbatim, including delimiters and flags
	IsRegexp bool
	Modifier string
}

func (*Literal) expr() {}

// Group is a parenthesized or bracketed sub-expression. Bracketed groups
// ([...]) are the optional form.
type Group struct {
	Base
	Optional bool
	Alts     []*Expansion
	Modifier string
}

func (*Group) expr() {}

// ImportDecl is a %import directive. Path holds the dotted module path
// without the imported name; Dots counts leading dots (relative import).
// For single imports Names has one entry (the final path component);
// multi-imports (%import mod (A, b)) list every imported name. Alias is
// set for "-> name" renames.
type ImportDecl struct {
	Base
	Dots  int
	Path  []string
	Names []*Ident
	Alias *Ident
	Multi bool
}

func (*ImportDecl) decl() {}

// ModulePath returns the dotted module path, including leading dots.
func (d *ImportDecl) ModulePath() string {
	s := ""
	for i := 0; i < d.Dots; i++ {
		s += "."
	}
	for i, part := range d.Path {
		if i > 0 {
			s += "."
		}
		s += part
	}
	return s
}

// IgnoreDecl is a %ignore directive. Target is a SymbolRef or Literal.
type IgnoreDecl struct {
	Base
	Target Expr
}

func (*IgnoreDecl) decl() {}

// DeclareDecl is a %declare directive introducing terminals with no body.
type DeclareDecl struct {
	Base
	Names []*Ident
}

func (*DeclareDecl) decl() {}

// OverrideDecl wraps a definition introduced with %override.
type OverrideDecl struct {
	Base
	Def Decl
}

func (*OverrideDecl) decl() {}

// ExtendDecl wraps a definition introduced with %extend.
type ExtendDecl struct {
	Base
	Def Decl
}

func (*ExtendDecl) decl() {}

// ErrorNode covers the widest contiguous span that failed to parse.
// Well-formed declarations before and after it are preserved as siblings.
type ErrorNode struct {
	Base
	Text string
}

func (*ErrorNode) decl() {}

// Definitions returns the grammar's definition declarations in source
// order, unwrapping %override/%extend. The booleans report the wrapper.
func (g *Grammar) Definitions() []Definition {
	var defs []Definition
	for _, decl := range g.Decls {
		override, extend := false, false
		inner := decl
		switch d := decl.(type) {
		case *OverrideDecl:
			inner, override = d.Def, true
		case *ExtendDecl:
			inner, extend = d.Def, true
		}
		switch d := inner.(type) {
		case *RuleDef:
			defs = append(defs, Definition{Decl: d, Name: d.Name, Override: override, Extend: extend})
		case *TemplateDef:
			defs = append(defs, Definition{Decl: d, Name: d.Name, Override: override, Extend: extend})
		case *TerminalDef:
			defs = append(defs, Definition{Decl: d, Name: d.Name, Override: override, Extend: extend})
		}
	}
	return defs
}

// Definition pairs a definition declaration with its name identifier.
type Definition struct {
	Decl     Decl
	Name     *Ident
	Override bool
	Extend   bool
}
