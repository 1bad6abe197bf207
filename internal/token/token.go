// Package token defines the lexical tokens of the Lark grammar language
// together with source positions and spans.
package token

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	EOF Kind = iota
	Newline
	Comment

	// RuleName is a lowercase identifier (rules, templates, import path parts).
	RuleName
	// TerminalName is an uppercase identifier (terminals).
	TerminalName
	String
	Regexp
	Number
	// Directive is a %-prefixed keyword such as %import or %ignore.
	Directive

	Colon
	Dot
	DotDot
	Pipe
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Question
	Star
	Plus
	Tilde
	Bang
	Arrow
	Illegal
)

var kindNames = map[Kind]string{
	EOF:          "EOF",
	Newline:      "newline",
	Comment:      "comment",
	RuleName:     "rule name",
	TerminalName: "terminal name",
	String:       "string",
	Regexp:       "regexp",
	Number:       "number",
	Directive:    "directive",
	Colon:        "':'",
	Dot:          "'.'",
	DotDot:       "'..'",
	Pipe:         "'|'",
	LParen:       "'('",
	RParen:       "')'",
	LBracket:     "'['",
	RBracket:     "']'",
	LBrace:       "'{'",
	RBrace:       "'}'",
	Comma:        "','",
	Question:     "'?'",
	Star:         "'*'",
	Plus:         "'+'",
	Tilde:        "'~'",
	Bang:         "'!'",
	Arrow:        "'->'",
	Illegal:      "illegal character",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pos is a source position. Line and Character are 0-based; Character counts
// UTF-16 code units, matching LSP positions. Offset is the byte offset into
// the source text.
type Pos struct {
	Line      int
	Character int
	Offset    int
}

// Before reports whether p precedes other in the source.
func (p Pos) Before(other Pos) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Pos
	End   Pos
}

// Contains reports whether the position lies within the span. The end
// position is included so that a cursor sitting just after the last
// character of an identifier still hits it.
func (s Span) Contains(p Pos) bool {
	if p.Before(s.Start) {
		return false
	}
	return p.Before(s.End) || (p.Line == s.End.Line && p.Character == s.End.Character)
}

// Range converts the span to an LSP protocol range.
func (s Span) Range() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(s.Start.Line), Character: uint32(s.Start.Character)},
		End:   protocol.Position{Line: uint32(s.End.Line), Character: uint32(s.End.Character)},
	}
}

// Token is a single lexical token with its source span. Literal holds the
// token text; for strings and regexps it includes the delimiters and any
// trailing flags.
type Token struct {
	Kind    Kind
	Literal string
	Span    Span
}

// IsName reports whether the token is a rule or terminal identifier.
func (t Token) IsName() bool {
	return t.Kind == RuleName || t.Kind == TerminalName
}

// PosFromProtocol converts an LSP protocol position to a Pos. The byte
// offset is not recoverable from a protocol position and is left zero.
func PosFromProtocol(p protocol.Position) Pos {
	return Pos{Line: int(p.Line), Character: int(p.Character)}
}
