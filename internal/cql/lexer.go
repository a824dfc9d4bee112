package cql

import (
	"strings"
)

// TokenKind identifies the type of lexical token.
type TokenKind int

const (
	TokEOF    TokenKind = iota
	TokWord             // scope, word relation, AND, OR, NOT, or anything else unquoted
	TokSymbol           // =, ==, <, >, <=, >=
	TokTerm             // "quoted term" (Lit unescaped, Raw as written)
	TokLParen           // (
	TokRParen           // )
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokWord:
		return "WORD"
	case TokSymbol:
		return "SYMBOL"
	case TokTerm:
		return "TERM"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Lit   string // for terms: unescaped content without quotes
	Raw   string // for terms: content between the quotes, escapes intact
	Pos   int    // byte offset in input for error reporting
	Space bool   // whitespace immediately precedes the token
}

// Lexer tokenizes a CQL string.
type Lexer struct {
	input string
	pos   int // current position in input
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	space := l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos, Space: space}, nil
	}

	startPos := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Lit: "(", Pos: startPos, Space: space}, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Lit: ")", Pos: startPos, Space: space}, nil
	case '=', '<', '>':
		l.pos++
		// ==, <=, >=
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return Token{Kind: TokSymbol, Lit: l.input[startPos:l.pos], Pos: startPos, Space: space}, nil
	case '"':
		tok, err := l.scanTerm()
		tok.Space = space
		return tok, err
	}

	return l.scanWord(space), nil
}

// skipWhitespace advances past whitespace characters and reports whether
// any were skipped.
func (l *Lexer) skipWhitespace() bool {
	start := l.pos
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	return l.pos > start
}

// scanTerm scans a double-quoted term. A backslash always consumes the next
// character; only \" and \\ are unescaped, any other pair is kept as written.
func (l *Lexer) scanTerm() (Token, error) {
	startPos := l.pos
	l.pos++ // skip opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == '"' {
			raw := l.input[startPos+1 : l.pos]
			l.pos++ // skip closing quote
			return Token{Kind: TokTerm, Lit: sb.String(), Raw: raw, Pos: startPos}, nil
		}

		if ch == '\\' {
			l.pos++
			if l.pos >= len(l.input) {
				return Token{}, newSyntaxError(l.pos-1, ErrUnterminatedTerm, "unterminated term: escape at end of input")
			}
			escaped := l.input[l.pos]
			if escaped != '"' && escaped != '\\' {
				sb.WriteByte('\\')
			}
			sb.WriteByte(escaped)
			l.pos++
			continue
		}

		sb.WriteByte(ch)
		l.pos++
	}

	return Token{}, newSyntaxError(startPos, ErrUnterminatedTerm, "unterminated term starting at position %d", startPos)
}

// scanWord scans a run of non-delimiter characters.
func (l *Lexer) scanWord(space bool) Token {
	startPos := l.pos
	for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokWord, Lit: l.input[startPos:l.pos], Pos: startPos, Space: space}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// isWordChar returns true if ch can be part of an unquoted word.
// Words exclude whitespace and ()=<>"
func isWordChar(ch byte) bool {
	if isSpace(ch) {
		return false
	}
	switch ch {
	case '(', ')', '=', '<', '>', '"':
		return false
	default:
		return true
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	savedPos := l.pos
	tok, err := l.Next()
	l.pos = savedPos
	return tok, err
}
