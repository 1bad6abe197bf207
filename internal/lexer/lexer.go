// Package lexer tokenizes Lark grammar source text.
package lexer

import (
	"unicode/utf8"

	"github.com/larkls/go-lark-lsp/internal/token"
)

// Lexer scans grammar source into tokens. Positions are 0-based with
// UTF-16 character columns, so token spans map directly to LSP ranges.
type Lexer struct {
	input []byte
	pos   int // byte offset
	line  int
	col   int // UTF-16 code units
}

// New creates a Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{input: []byte(input)}
}

// AllTokens scans the whole input, including the terminating EOF token.
func (l *Lexer) AllTokens() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() token.Token {
	l.skipSpaces()

	start := l.position()

	if l.pos >= len(l.input) {
		return l.make(token.EOF, "", start)
	}

	ch := l.input[l.pos]

	switch {
	case ch == '\n':
		l.pos++
		l.line++
		l.col = 0
		return l.make(token.Newline, "\n", start)

	case ch == '\r':
		l.pos++
		l.col++
		if l.pos < len(l.input) && l.input[l.pos] == '\n' {
			l.pos++
		}
		l.line++
		l.col = 0
		return l.make(token.Newline, "\n", start)

	case ch == '/' && l.peekAt(1) == '/':
		return l.scanComment(start)

	case ch == '/':
		return l.scanRegexp(start)

	case ch == '"':
		return l.scanString(start)

	case ch == '%':
		return l.scanDirective(start)

	case isIdentStart(ch):
		return l.scanIdentifier(start)

	case isDigit(ch):
		return l.scanNumber(start)

	case ch == '-' && l.peekAt(1) == '>':
		l.advanceASCII(2)
		return l.make(token.Arrow, "->", start)

	case ch == '-' && isDigit(l.peekAt(1)):
		return l.scanNumber(start)

	case ch == '.' && l.peekAt(1) == '.':
		l.advanceASCII(2)
		return l.make(token.DotDot, "..", start)
	}

	if kind, ok := singleCharTokens[ch]; ok {
		l.advanceASCII(1)
		return l.make(kind, string(ch), start)
	}

	// Unknown byte: consume one rune so the scan always makes progress.
	r, size := utf8.DecodeRune(l.input[l.pos:])
	l.pos += size
	l.col += utf16Len(r)
	return l.make(token.Illegal, string(r), start)
}

var singleCharTokens = map[byte]token.Kind{
	':': token.Colon,
	'.': token.Dot,
	'|': token.Pipe,
	'(': token.LParen,
	')': token.RParen,
	'[': token.LBracket,
	']': token.RBracket,
	'{': token.LBrace,
	'}': token.RBrace,
	',': token.Comma,
	'?': token.Question,
	'*': token.Star,
	'+': token.Plus,
	'~': token.Tilde,
	'!': token.Bang,
}

func (l *Lexer) scanComment(start token.Pos) token.Token {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advanceRune()
	}
	return l.make(token.Comment, string(l.input[start.Offset:l.pos]), start)
}

func (l *Lexer) scanString(start token.Pos) token.Token {
	l.advanceASCII(1) // opening quote
	for l.pos < len(l.input) && l.input[l.pos] != '"' && l.input[l.pos] != '\n' {
		if l.input[l.pos] == '\\' && l.pos+1 < len(l.input) {
			l.advanceASCII(1)
		}
		l.advanceRune()
	}
	if l.pos < len(l.input) && l.input[l.pos] == '"' {
		l.advanceASCII(1)
	}
	// Case-insensitivity flag.
	if l.pos < len(l.input) && l.input[l.pos] == 'i' {
		l.advanceASCII(1)
	}
	return l.make(token.String, string(l.input[start.Offset:l.pos]), start)
}

func (l *Lexer) scanRegexp(start token.Pos) token.Token {
	l.advanceASCII(1) // opening slash
	for l.pos < len(l.input) && l.input[l.pos] != '/' && l.input[l.pos] != '\n' {
		if l.input[l.pos] == '\\' && l.pos+1 < len(l.input) {
			l.advanceASCII(1)
		}
		l.advanceRune()
	}
	if l.pos < len(l.input) && l.input[l.pos] == '/' {
		l.advanceASCII(1)
	}
	for l.pos < len(l.input) && isRegexpFlag(l.input[l.pos]) {
		l.advanceASCII(1)
	}
	return l.make(token.Regexp, string(l.input[start.Offset:l.pos]), start)
}

func (l *Lexer) scanDirective(start token.Pos) token.Token {
	l.advanceASCII(1) // '%'
	for l.pos < len(l.input) && isIdentContinue(l.input[l.pos]) {
		l.advanceASCII(1)
	}
	return l.make(token.Directive, string(l.input[start.Offset:l.pos]), start)
}

func (l *Lexer) scanIdentifier(start token.Pos) token.Token {
	for l.pos < len(l.input) && isIdentContinue(l.input[l.pos]) {
		l.advanceASCII(1)
	}
	literal := string(l.input[start.Offset:l.pos])
	return l.make(classifyName(literal), literal, start)
}

func (l *Lexer) scanNumber(start token.Pos) token.Token {
	if l.input[l.pos] == '-' {
		l.advanceASCII(1)
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		// Stop before '..' so repeat ranges like ~3..5 lex as three tokens.
		l.advanceASCII(1)
	}
	return l.make(token.Number, string(l.input[start.Offset:l.pos]), start)
}

// classifyName decides between rule and terminal identifiers. The case of
// the first letter decides; leading underscores are skipped, and an
// identifier with no letters at all counts as a rule name.
func classifyName(name string) token.Kind {
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch == '_' || isDigit(ch) {
			continue
		}
		if ch >= 'A' && ch <= 'Z' {
			return token.TerminalName
		}
		return token.RuleName
	}
	return token.RuleName
}

func (l *Lexer) skipSpaces() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
		l.col++
	}
}

func (l *Lexer) position() token.Pos {
	return token.Pos{Line: l.line, Character: l.col, Offset: l.pos}
}

func (l *Lexer) make(kind token.Kind, literal string, start token.Pos) token.Token {
	return token.Token{
		Kind:    kind,
		Literal: literal,
		Span:    token.Span{Start: start, End: l.position()},
	}
}

// peekAt returns the byte n positions ahead of the cursor, or 0 at the
// end of input.
func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// advanceASCII consumes n bytes known to be single-column ASCII.
func (l *Lexer) advanceASCII(n int) {
	l.pos += n
	l.col += n
}

// advanceRune consumes one rune, tracking UTF-16 column width.
func (l *Lexer) advanceRune() {
	r, size := utf8.DecodeRune(l.input[l.pos:])
	l.pos += size
	l.col += utf16Len(r)
}

func utf16Len(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isRegexpFlag(ch byte) bool {
	switch ch {
	case 'i', 'm', 's', 'l', 'u', 'x':
		return true
	}
	return false
}
