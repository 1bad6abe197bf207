package parser

import (
	"github.com/larkls/go-lark-lsp/internal/ast"
	"github.com/larkls/go-lark-lsp/internal/token"
)

// parseDirective parses a %-directive. The directive keyword has already
// been recognized but not consumed.
func (p *Parser) parseDirective() (ast.Decl, *SyntaxError) {
	tok := p.cur()

	switch tok.Literal {
	case "%import":
		return p.parseImport()
	case "%ignore":
		return p.parseIgnore()
	case "%declare":
		return p.parseDeclare()
	case "%override":
		return p.parseRedefinition(true)
	case "%extend":
		return p.parseRedefinition(false)
	}

	// Consume the directive so recovery moves past it.
	p.advance()
	return nil, p.errorf(tok.Span, "unknown directive %q", tok.Literal)
}

// parseImport parses the %import forms:
//
//	%import module.NAME
//	%import module.rule -> alias
//	%import module (NAME, rule, ...)
//	%import .relative.module.NAME
func (p *Parser) parseImport() (ast.Decl, *SyntaxError) {
	start := p.cur().Span.Start
	p.advance() // %import

	imp := &ast.ImportDecl{}

	for p.at(token.Dot) {
		imp.Dots++
		p.advance()
	}

	var parts []*ast.Ident
	for {
		tok := p.cur()
		if !tok.IsName() {
			return nil, p.errorf(tok.Span, "expected import path, got %s", tok.Kind)
		}
		parts = append(parts, identFrom(tok))
		p.advance()
		if p.at(token.Dot) {
			p.advance()
			continue
		}
		break
	}

	if p.at(token.LParen) {
		// Multi-import: the whole dotted path is the module.
		imp.Multi = true
		for _, part := range parts {
			imp.Path = append(imp.Path, part.Name)
		}
		p.advance()
		for {
			tok := p.cur()
			if !tok.IsName() {
				return nil, p.errorf(tok.Span, "expected imported name, got %s", tok.Kind)
			}
			imp.Names = append(imp.Names, identFrom(tok))
			p.advance()
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	} else {
		// Single import: the last path component is the imported name.
		if len(parts) < 2 && imp.Dots == 0 {
			return nil, p.errorf(parts[0].Span(), "import path must name a module and a symbol")
		}
		for _, part := range parts[:len(parts)-1] {
			imp.Path = append(imp.Path, part.Name)
		}
		imp.Names = []*ast.Ident{parts[len(parts)-1]}
	}

	if p.at(token.Arrow) {
		p.advance()
		tok := p.cur()
		if !tok.IsName() {
			return nil, p.errorf(tok.Span, "expected alias name after '->', got %s", tok.Kind)
		}
		imp.Alias = identFrom(tok)
		p.advance()
	}

	imp.Base = ast.Base(token.Span{Start: start, End: p.lastEnd()})
	return imp, nil
}

// parseIgnore parses %ignore TERMINAL or %ignore "literal".
func (p *Parser) parseIgnore() (ast.Decl, *SyntaxError) {
	start := p.cur().Span.Start
	p.advance() // %ignore

	if !p.startsAtom() {
		return nil, p.errorf(p.cur().Span, "expected terminal or pattern after %%ignore, got %s", p.cur().Kind)
	}
	target, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	span := token.Span{Start: start, End: p.lastEnd()}
	return &ast.IgnoreDecl{Base: ast.Base(span), Target: target}, nil
}

// parseDeclare parses %declare NAME NAME... (terminals with no body).
func (p *Parser) parseDeclare() (ast.Decl, *SyntaxError) {
	start := p.cur().Span.Start
	p.advance() // %declare

	var names []*ast.Ident
	for p.cur().IsName() {
		names = append(names, identFrom(p.cur()))
		p.advance()
	}
	if len(names) == 0 {
		return nil, p.errorf(p.cur().Span, "expected terminal name after %%declare, got %s", p.cur().Kind)
	}

	span := token.Span{Start: start, End: p.lastEnd()}
	return &ast.DeclareDecl{Base: ast.Base(span), Names: names}, nil
}

// parseRedefinition parses %override <def> or %extend <def>.
func (p *Parser) parseRedefinition(override bool) (ast.Decl, *SyntaxError) {
	start := p.cur().Span.Start
	p.advance() // %override / %extend

	var def ast.Decl
	var err *SyntaxError
	switch {
	case p.at(token.Question) || p.at(token.Bang) || p.at(token.RuleName):
		def, err = p.parseRuleDef()
	case p.at(token.TerminalName):
		def, err = p.parseTerminalDef()
	default:
		return nil, p.errorf(p.cur().Span, "expected definition after directive, got %s", p.cur().Kind)
	}
	if err != nil {
		return nil, err
	}

	span := token.Span{Start: start, End: p.lastEnd()}
	if override {
		return &ast.OverrideDecl{Base: ast.Base(span), Def: def}, nil
	}
	return &ast.ExtendDecl{Base: ast.Base(span), Def: def}, nil
}
