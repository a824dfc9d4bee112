package cql

import "strings"

// Parser parses a CQL string into an AST.
//
// Grammar (EBNF):
//
//	query        = sub_query [ connective query ]
//	connective   = "AND" | "OR"
//	sub_query    = atomic_query | "NOT" atomic_query | "(" query ")"
//	atomic_query = scope relation quoted_term { quoted_term }
//	scope        = "title" | "author" | "keyword" | "callnumber" | "identifier"
//	             | "subject" | "language" | "date" | "series" | "genre"
//	             | "center" | "division" | "format"
//	relation     = "any" | "adj" | "all" | "<=" | ">=" | "<" | ">"
//	             | "=" | "==" | "within" | "encloses"
//	quoted_term  = '"' { "\" any_char | any_char - ( '"' | "\" ) } '"'
//
// The connective chain is right-recursive, so "A AND B OR C" groups as
// "A AND (B OR C)". There is no precedence between AND and OR.
//
// Whitespace:
//   - AND, OR and NOT need whitespace on both sides, except next to a parenthesis
//   - word relations (any, adj, all, within, encloses) need whitespace on both sides
//   - symbolic relations (=, ==, <, >, <=, >=) take any amount, including none
//   - consecutive quoted terms need whitespace between them
type parser struct {
	lex  *Lexer
	cur  Token
	prev Token
}

// Parse parses a CQL string into an AST.
func Parse(input string) (*Query, error) {
	p := &parser{lex: NewLexer(input)}

	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.cur.Kind == TokEOF {
		return nil, newSyntaxError(0, ErrEmptyQuery, "empty query")
	}

	root, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	// Ensure we consumed all input.
	switch p.cur.Kind {
	case TokEOF:
	case TokRParen:
		return nil, newSyntaxError(p.cur.Pos, ErrUnmatchedParen, "unmatched closing parenthesis")
	default:
		return nil, newSyntaxError(p.cur.Pos, ErrUnexpectedToken, "expected AND, OR or end of query, got %s", p.describe(p.cur))
	}

	return &Query{Root: root, Input: input}, nil
}

// advance moves to the next token.
func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.prev = p.cur
	p.cur = tok
	return nil
}

func (p *parser) isKeyword(lit string) bool {
	return p.cur.Kind == TokWord && p.cur.Lit == lit
}

func (p *parser) connective() (Connective, bool) {
	if p.cur.Kind != TokWord {
		return "", false
	}
	switch Connective(p.cur.Lit) {
	case And:
		return And, true
	case Or:
		return Or, true
	}
	return "", false
}

// parseQuery parses: query = sub_query [ connective query ]
func (p *parser) parseQuery() (Node, error) {
	left, err := p.parseSubQuery()
	if err != nil {
		return nil, err
	}

	op, ok := p.connective()
	if !ok {
		return left, nil
	}

	if !p.cur.Space && p.prev.Kind != TokRParen {
		return nil, newSyntaxError(p.cur.Pos, ErrMissingSpace, "expected whitespace before %s", op)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind == TokEOF {
		return nil, newSyntaxError(p.cur.Pos, ErrUnexpectedEOF, "expected query after %s", op)
	}
	if !p.cur.Space && p.cur.Kind != TokLParen {
		return nil, newSyntaxError(p.cur.Pos, ErrMissingSpace, "expected whitespace after %s", op)
	}

	right, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	// "X AND NOT a" is the two-operand negation.
	if neg, ok := right.(*Negation); ok && op == And && neg.Include == nil {
		return &Negation{Include: left, Exclude: neg.Exclude}, nil
	}

	return &Boolean{Op: op, Left: left, Right: right}, nil
}

// parseSubQuery parses: sub_query = atomic_query | "NOT" atomic_query | "(" query ")"
func (p *parser) parseSubQuery() (Node, error) {
	switch p.cur.Kind {
	case TokEOF:
		return nil, newSyntaxError(p.cur.Pos, ErrUnexpectedEOF, "unexpected end of query")
	case TokRParen:
		return nil, newSyntaxError(p.cur.Pos, ErrUnmatchedParen, "unmatched closing parenthesis")
	case TokLParen:
		return p.parseGroup()
	}

	if op, ok := p.connective(); ok {
		return nil, newSyntaxError(p.cur.Pos, ErrUnexpectedToken, "unexpected keyword %s", op)
	}

	if p.isKeyword(keywordNot) {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch {
		case p.cur.Kind == TokEOF:
			return nil, newSyntaxError(pos, ErrUnexpectedEOF, "expected atomic query after NOT")
		case p.cur.Kind == TokLParen:
			// NOT applies to a single atomic query only.
			return nil, newSyntaxError(p.cur.Pos, ErrUnexpectedToken, "NOT cannot prefix a parenthesized query")
		case !p.cur.Space:
			return nil, newSyntaxError(p.cur.Pos, ErrMissingSpace, "expected whitespace after NOT")
		}
		atom, err := p.parseAtomic()
		if err != nil {
			return nil, err
		}
		return &Negation{Exclude: atom}, nil
	}

	return p.parseAtomic()
}

// parseGroup parses: "(" query ")"
func (p *parser) parseGroup() (Node, error) {
	openPos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.cur.Kind == TokRParen {
		return nil, newSyntaxError(openPos, ErrEmptyQuery, "empty parentheses")
	}

	inner, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind != TokRParen {
		if p.cur.Kind == TokEOF {
			return nil, newSyntaxError(openPos, ErrUnmatchedParen, "unmatched opening parenthesis")
		}
		return nil, newSyntaxError(p.cur.Pos, ErrUnexpectedToken, "expected AND, OR or ')', got %s", p.describe(p.cur))
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	return &Group{Inner: inner}, nil
}

// parseAtomic parses: atomic_query = scope relation quoted_term { quoted_term }
func (p *parser) parseAtomic() (*Atomic, error) {
	if p.cur.Kind != TokWord {
		return nil, newSyntaxError(p.cur.Pos, ErrUnexpectedToken, "expected scope, got %s", p.describe(p.cur))
	}

	scope := Scope(p.cur.Lit)
	if !scope.Valid() {
		return nil, newSyntaxError(p.cur.Pos, ErrUnknownScope, "unknown scope %q", p.cur.Lit)
	}
	atom := &Atomic{Scope: scope, Pos: p.cur.Pos}

	if err := p.advance(); err != nil {
		return nil, err
	}

	rel, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	atom.Relation = rel

	if p.cur.Kind != TokTerm {
		if p.cur.Kind == TokEOF {
			return nil, newSyntaxError(p.cur.Pos, ErrMissingTerm, "expected quoted term after %s", rel)
		}
		return nil, newSyntaxError(p.cur.Pos, ErrMissingTerm, "expected quoted term after %s, got %s", rel, p.describe(p.cur))
	}
	if rel.isWord() && !p.cur.Space {
		return nil, newSyntaxError(p.cur.Pos, ErrMissingSpace, "expected whitespace after %s", rel)
	}

	var words []string
	for p.cur.Kind == TokTerm {
		if len(atom.Raw) > 0 && !p.cur.Space {
			return nil, newSyntaxError(p.cur.Pos, ErrMissingSpace, "expected whitespace between quoted terms")
		}
		atom.Raw = append(atom.Raw, p.cur.Raw)
		words = append(words, p.cur.Lit)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	atom.Term = strings.Join(words, " ")

	return atom, nil
}

// parseRelation consumes the relation following a scope.
func (p *parser) parseRelation() (Relation, error) {
	switch p.cur.Kind {
	case TokSymbol:
		rel := Relation(p.cur.Lit)
		if !rel.Valid() {
			return "", newSyntaxError(p.cur.Pos, ErrUnknownRelation, "unknown relation %q", p.cur.Lit)
		}
		return rel, p.advance()

	case TokWord:
		rel := Relation(p.cur.Lit)
		if !rel.Valid() {
			return "", newSyntaxError(p.cur.Pos, ErrUnknownRelation, "unknown relation %q", p.cur.Lit)
		}
		if !p.cur.Space {
			return "", newSyntaxError(p.cur.Pos, ErrMissingSpace, "expected whitespace before %s", rel)
		}
		return rel, p.advance()

	case TokEOF:
		return "", newSyntaxError(p.cur.Pos, ErrMissingRelation, "expected relation after scope")

	default:
		return "", newSyntaxError(p.cur.Pos, ErrMissingRelation, "expected relation after scope, got %s", p.describe(p.cur))
	}
}

// describe renders a token for error messages.
func (p *parser) describe(tok Token) string {
	switch tok.Kind {
	case TokEOF:
		return "end of query"
	case TokTerm:
		return `"` + tok.Raw + `"`
	default:
		return tok.Lit
	}
}
