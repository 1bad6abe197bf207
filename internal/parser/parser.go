// Package parser implements an error-tolerant recursive descent parser
// for Lark grammar files.
//
// Parse never fails: on malformed input it records a SyntaxError, skips
// to the next recognizable top-level construct, and wraps the skipped
// text in an ast.ErrorNode so that analysis of the rest of the document
// continues.
package parser

import (
	"fmt"

	"github.com/larkls/go-lark-lsp/internal/ast"
	"github.com/larkls/go-lark-lsp/internal/lexer"
	"github.com/larkls/go-lark-lsp/internal/token"
)

// SyntaxError is a recovered parse error with its source span.
type SyntaxError struct {
	Msg  string
	Span token.Span
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Span.Start.Line+1, e.Span.Start.Character+1, e.Msg)
}

// Parser holds the token stream and accumulated errors for one parse.
type Parser struct {
	src    string
	toks   []token.Token
	pos    int
	decls  []ast.Decl
	errors []*SyntaxError
}

// Parse parses grammar source text. It always returns a usable (possibly
// partial) AST alongside every syntax error encountered.
func Parse(input string) (*ast.Grammar, []*SyntaxError) {
	all := lexer.New(input).AllTokens()

	// Comments are trivia to the parser.
	toks := make([]token.Token, 0, len(all))
	for _, t := range all {
		if t.Kind != token.Comment {
			toks = append(toks, t)
		}
	}

	p := &Parser{src: input, toks: toks}

	for !p.at(token.EOF) {
		if p.at(token.Newline) {
			p.advance()
			continue
		}
		p.parseTopLevel()
	}

	span := token.Span{}
	if len(toks) > 0 {
		span = token.Span{Start: toks[0].Span.Start, End: toks[len(toks)-1].Span.End}
	}
	return &ast.Grammar{Base: ast.Base(span), Decls: p.decls}, p.errors
}

// parseTopLevel parses one declaration, recovering on failure, and
// appends results (including any ErrorNode) to p.decls.
func (p *Parser) parseTopLevel() {
	start := p.cur()

	var decl ast.Decl
	var err *SyntaxError

	switch {
	case p.at(token.Directive):
		decl, err = p.parseDirective()
	case p.at(token.Question) || p.at(token.Bang) || p.at(token.RuleName):
		decl, err = p.parseRuleDef()
	case p.at(token.TerminalName):
		decl, err = p.parseTerminalDef()
	default:
		err = p.errorf(p.cur().Span, "expected rule, terminal or directive, got %s", p.cur().Kind)
	}

	if err != nil {
		p.errors = append(p.errors, err)
		if node := p.recover(start); node != nil {
			p.decls = append(p.decls, node)
		}
		return
	}

	p.decls = append(p.decls, decl)

	// A declaration ends at the end of its line. Trailing junk becomes
	// its own error node; the declaration itself is kept.
	if !p.at(token.Newline) && !p.at(token.EOF) {
		p.errors = append(p.errors, p.errorf(p.cur().Span, "unexpected %s after declaration", p.cur().Kind))
		if node := p.recover(p.cur()); node != nil {
			p.decls = append(p.decls, node)
		}
		return
	}
	if p.at(token.Newline) {
		p.advance()
	}
}

// recover skips tokens until a recognizable top-level construct or EOF,
// returning an ErrorNode for the skipped span (nil if nothing skipped).
// Preference order: a construct starting at the current token is resumed
// immediately; otherwise skipping stops at the next line start that
// begins a construct.
func (p *Parser) recover(from token.Token) ast.Decl {
	start := from.Span.Start
	end := start
	skipped := false

	for !p.at(token.EOF) {
		if p.startsTopLevel(p.pos) && (p.pos == 0 || p.atLineStart() || !skipped) {
			break
		}
		if !p.at(token.Newline) {
			end = p.cur().Span.End
			skipped = true
		}
		p.advance()
	}

	if !skipped {
		return nil
	}

	span := token.Span{Start: start, End: end}
	text := ""
	if start.Offset <= end.Offset && end.Offset <= len(p.src) {
		text = p.src[start.Offset:end.Offset]
	}
	return &ast.ErrorNode{Base: ast.Base(span), Text: text}
}

// startsTopLevel reports whether the token at index i begins a rule,
// terminal, template or directive. Name tokens only count when followed
// by the punctuation a definition requires, so a stray reference inside
// broken text does not end recovery early.
func (p *Parser) startsTopLevel(i int) bool {
	if i >= len(p.toks) {
		return false
	}
	t := p.toks[i]
	switch t.Kind {
	case token.Directive:
		return true
	case token.Question, token.Bang:
		return i+1 < len(p.toks) && p.toks[i+1].Kind == token.RuleName
	case token.RuleName, token.TerminalName:
		if i+1 >= len(p.toks) {
			return false
		}
		switch p.toks[i+1].Kind {
		case token.Colon, token.Dot, token.LBrace:
			return true
		}
	}
	return false
}

// atLineStart reports whether the current token is the first on its line.
func (p *Parser) atLineStart() bool {
	if p.pos == 0 {
		return true
	}
	return p.toks[p.pos-1].Kind == token.Newline
}

// parseRuleDef parses a rule or template definition.
func (p *Parser) parseRuleDef() (ast.Decl, *SyntaxError) {
	start := p.cur().Span.Start

	modifier := ""
	if p.at(token.Question) || p.at(token.Bang) {
		modifier = p.cur().Literal
		p.advance()
	}

	nameTok, err := p.expect(token.RuleName)
	if err != nil {
		return nil, err
	}
	name := identFrom(nameTok)

	var params []*ast.Ident
	isTemplate := false
	if p.at(token.LBrace) {
		isTemplate = true
		p.advance()
		for {
			tok := p.cur()
			if !tok.IsName() {
				return nil, p.errorf(tok.Span, "expected template parameter, got %s", tok.Kind)
			}
			params = append(params, identFrom(tok))
			p.advance()
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
	}

	priority, err := p.parsePriority()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}

	alts, err := p.parseAlternatives()
	if err != nil {
		return nil, err
	}

	span := token.Span{Start: start, End: p.lastEnd()}
	if isTemplate {
		return &ast.TemplateDef{Base: ast.Base(span), Modifier: modifier, Name: name, Params: params, Alts: alts}, nil
	}
	return &ast.RuleDef{Base: ast.Base(span), Modifier: modifier, Name: name, Priority: priority, Alts: alts}, nil
}

// parseTerminalDef parses a terminal definition.
func (p *Parser) parseTerminalDef() (ast.Decl, *SyntaxError) {
	start := p.cur().Span.Start

	nameTok, err := p.expect(token.TerminalName)
	if err != nil {
		return nil, err
	}

	priority, err := p.parsePriority()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}

	alts, err := p.parseAlternatives()
	if err != nil {
		return nil, err
	}

	span := token.Span{Start: start, End: p.lastEnd()}
	return &ast.TerminalDef{Base: ast.Base(span), Name: identFrom(nameTok), Priority: priority, Alts: alts}, nil
}

// parsePriority parses an optional ".N" priority suffix on a definition
// name. The text is preserved opaquely.
func (p *Parser) parsePriority() (string, *SyntaxError) {
	if !p.at(token.Dot) {
		return "", nil
	}
	p.advance()
	num, err := p.expect(token.Number)
	if err != nil {
		return "", err
	}
	return num.Literal, nil
}

// parseAlternatives parses |-separated expansions. An alternative ends at
// a newline unless the next non-blank line starts with |.
func (p *Parser) parseAlternatives() ([]*ast.Expansion, *SyntaxError) {
	var alts []*ast.Expansion
	for {
		exp, err := p.parseExpansion()
		if err != nil {
			return nil, err
		}
		alts = append(alts, exp)

		if p.at(token.Pipe) {
			p.advance()
			continue
		}
		if p.at(token.Newline) && p.continuesWithPipe() {
			for p.at(token.Newline) {
				p.advance()
			}
			p.advance() // the pipe
			continue
		}
		return alts, nil
	}
}

// continuesWithPipe looks past newlines for a | continuation line.
func (p *Parser) continuesWithPipe() bool {
	i := p.pos
	for i < len(p.toks) && p.toks[i].Kind == token.Newline {
		i++
	}
	return i < len(p.toks) && p.toks[i].Kind == token.Pipe
}

// parseExpansion parses one alternative: a sequence of atoms with an
// optional -> alias. An empty expansion is valid (e.g. "a: | b").
func (p *Parser) parseExpansion() (*ast.Expansion, *SyntaxError) {
	start := p.cur().Span.Start
	exp := &ast.Expansion{}

	for p.startsAtom() {
		item, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		exp.Items = append(exp.Items, item)
	}

	if p.at(token.Arrow) {
		p.advance()
		tok := p.cur()
		if !tok.IsName() {
			return nil, p.errorf(tok.Span, "expected alias name after '->', got %s", tok.Kind)
		}
		exp.Alias = identFrom(tok)
		p.advance()
	}

	end := p.lastEnd()
	if len(exp.Items) == 0 && exp.Alias == nil {
		end = start
	}
	exp.Base = ast.Base(token.Span{Start: start, End: end})
	return exp, nil
}

func (p *Parser) startsAtom() bool {
	switch p.cur().Kind {
	case token.RuleName, token.TerminalName, token.String, token.Regexp, token.Number,
		token.LParen, token.LBracket:
		return true
	}
	return false
}

// parseAtom parses a single expansion item and its trailing modifiers.
func (p *Parser) parseAtom() (ast.Expr, *SyntaxError) {
	tok := p.cur()
	start := tok.Span.Start

	switch tok.Kind {
	case token.RuleName, token.TerminalName:
		p.advance()
		ref := &ast.SymbolRef{Name: identFrom(tok)}
		if p.at(token.LBrace) {
			args, err := p.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
			ref.TemplateArgs = args
		}
		ref.Modifier = p.parseModifier()
		ref.Base = ast.Base(token.Span{Start: start, End: p.lastEnd()})
		return ref, nil

	case token.String, token.Regexp, token.Number:
		p.advance()
		lit := &ast.Literal{Text: tok.Literal, IsRegexp: tok.Kind == token.Regexp}
		lit.Modifier = p.parseModifier()
		lit.Base = ast.Base(token.Span{Start: start, End: p.lastEnd()})
		return lit, nil

	case token.LParen, token.LBracket:
		optional := tok.Kind == token.LBracket
		closing := token.RParen
		if optional {
			closing = token.RBracket
		}
		p.advance()

		var alts []*ast.Expansion
		for {
			// Groups may wrap across lines.
			for p.at(token.Newline) {
				p.advance()
			}
			exp, err := p.parseExpansion()
			if err != nil {
				return nil, err
			}
			alts = append(alts, exp)
			for p.at(token.Newline) {
				p.advance()
			}
			if p.at(token.Pipe) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(closing); err != nil {
			return nil, err
		}

		group := &ast.Group{Optional: optional, Alts: alts}
		group.Modifier = p.parseModifier()
		group.Base = ast.Base(token.Span{Start: start, End: p.lastEnd()})
		return group, nil
	}

	return nil, p.errorf(tok.Span, "unexpected %s in expansion", tok.Kind)
}

// parseTemplateArgs parses {arg, arg} after a template name.
func (p *Parser) parseTemplateArgs() ([]ast.Expr, *SyntaxError) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for {
		if !p.startsAtom() {
			return nil, p.errorf(p.cur().Span, "expected template argument, got %s", p.cur().Kind)
		}
		arg, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return args, nil
}

// parseModifier collects trailing repetition operators (?, *, +) and
// repeat ranges (~ n, ~ n..m) as opaque text.
func (p *Parser) parseModifier() string {
	mod := ""
	for {
		switch p.cur().Kind {
		case token.Question, token.Star, token.Plus:
			mod += p.cur().Literal
			p.advance()
		case token.Tilde:
			mod += p.cur().Literal
			p.advance()
			if p.at(token.Number) {
				mod += p.cur().Literal
				p.advance()
				if p.at(token.DotDot) {
					mod += p.cur().Literal
					p.advance()
					if p.at(token.Number) {
						mod += p.cur().Literal
						p.advance()
					}
				}
			}
		default:
			return mod
		}
	}
}

func identFrom(tok token.Token) *ast.Ident {
	return &ast.Ident{
		Base:       ast.Base(tok.Span),
		Name:       tok.Literal,
		IsTerminal: tok.Kind == token.TerminalName,
	}
}

// cur returns the current token (EOF once exhausted).
func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) at(kind token.Kind) bool {
	return p.cur().Kind == kind
}

func (p *Parser) advance() {
	if p.pos < len(p.toks) {
		p.pos++
	}
}

// lastEnd returns the end position of the most recently consumed token.
func (p *Parser) lastEnd() token.Pos {
	if p.pos == 0 {
		return token.Pos{}
	}
	return p.toks[p.pos-1].Span.End
}

func (p *Parser) expect(kind token.Kind) (token.Token, *SyntaxError) {
	tok := p.cur()
	if tok.Kind != kind {
		return token.Token{}, p.errorf(tok.Span, "expected %s, got %s", kind, tok.Kind)
	}
	p.advance()
	return tok, nil
}

func (p *Parser) errorf(span token.Span, format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Span: span}
}
