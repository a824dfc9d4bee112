package cql

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Lexer errors.
var (
	ErrUnterminatedTerm = errors.New("unterminated quoted term")
)

// Parser errors.
var (
	ErrEmptyQuery      = errors.New("empty query")
	ErrUnknownScope    = errors.New("unknown scope")
	ErrMissingRelation = errors.New("missing relation")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrMissingTerm     = errors.New("missing quoted term")
	ErrMissingSpace    = errors.New("missing whitespace")
	ErrUnmatchedParen  = errors.New("unmatched parenthesis")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrUnexpectedEOF   = errors.New("unexpected end of query")
)

// SyntaxError reports malformed CQL input. It carries the byte offset of the
// offending token so callers can point at it.
type SyntaxError struct {
	Pos     int    // byte offset in input
	Message string // human-readable error message
	Err     error  // underlying sentinel error (for errors.Is)
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func newSyntaxError(pos int, err error, msgFmt string, args ...any) *SyntaxError {
	return &SyntaxError{
		Pos:     pos,
		Message: fmt.Sprintf(msgFmt, args...),
		Err:     err,
	}
}

// Indicate renders input with a caret under byte offset pos on the next
// line, each line indented by two spaces. Tabs and line breaks in input are
// shown as spaces to keep the caret aligned.
func Indicate(input string, pos int) string {
	pos = max(0, min(pos, len(input)))
	display := strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, input)
	col := utf8.RuneCountInString(input[:pos])
	return "  " + display + "\n  " + strings.Repeat(" ", col) + "^"
}
