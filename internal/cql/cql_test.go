package cql

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func parseAtomic(t *testing.T, input string) *Atomic {
	t.Helper()
	q, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	atom, ok := q.Root.(*Atomic)
	if !ok {
		t.Fatalf("Parse(%q) = %T, want *Atomic", input, q.Root)
	}
	return atom
}

func TestParseAtomic(t *testing.T) {
	tests := []struct {
		input    string
		scope    Scope
		relation Relation
		term     string
		terms    []string
	}{
		{`title="Hamlet"`, ScopeTitle, RelEq, "Hamlet", []string{"Hamlet"}},
		{`title = "Hamlet"`, ScopeTitle, RelEq, "Hamlet", []string{"Hamlet"}},
		{`title   =   "Hamlet"`, ScopeTitle, RelEq, "Hamlet", []string{"Hamlet"}},
		{`title adj "Hamlet"`, ScopeTitle, RelAdj, "Hamlet", []string{"Hamlet"}},
		{`title any "Hamlet Othello"`, ScopeTitle, RelAny, "Hamlet Othello", []string{"Hamlet", "Othello"}},
		{`title all "Hamlet  Othello"`, ScopeTitle, RelAll, "Hamlet  Othello", []string{"Hamlet", "Othello"}},
		{`identifier=="b1234"`, ScopeIdentifier, RelExact, "b1234", []string{"b1234"}},
		{`date<"1950"`, ScopeDate, RelLt, "1950", []string{"1950"}},
		{`date > "1950"`, ScopeDate, RelGt, "1950", []string{"1950"}},
		{`date<="1950"`, ScopeDate, RelLte, "1950", []string{"1950"}},
		{`date >= "1950"`, ScopeDate, RelGte, "1950", []string{"1950"}},
		{`date within "1950 1960"`, ScopeDate, RelWithin, "1950 1960", []string{"1950", "1960"}},
		{`date encloses "1950" "1960"`, ScopeDate, RelEncloses, "1950 1960", []string{"1950", "1960"}},
		{`keyword = "^The Tragedy"`, ScopeKeyword, RelEq, "^The Tragedy", []string{"^The", "Tragedy"}},
		{`callnumber="JFE 86-498"`, ScopeCallnumber, RelEq, "JFE 86-498", []string{"JFE", "86-498"}},
		{`subject=""`, ScopeSubject, RelEq, "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			atom := parseAtomic(t, tt.input)
			if atom.Scope != tt.scope {
				t.Errorf("Scope = %q, want %q", atom.Scope, tt.scope)
			}
			if atom.Relation != tt.relation {
				t.Errorf("Relation = %q, want %q", atom.Relation, tt.relation)
			}
			if atom.Term != tt.term {
				t.Errorf("Term = %q, want %q", atom.Term, tt.term)
			}
			if got := atom.Terms(); !reflect.DeepEqual(got, tt.terms) {
				t.Errorf("Terms() = %q, want %q", got, tt.terms)
			}
		})
	}
}

func TestParseAllScopes(t *testing.T) {
	for _, scope := range Scopes() {
		t.Run(string(scope), func(t *testing.T) {
			atom := parseAtomic(t, string(scope)+`="x"`)
			if atom.Scope != scope {
				t.Errorf("Scope = %q, want %q", atom.Scope, scope)
			}
		})
	}
}

func TestParseEscapeSequences(t *testing.T) {
	tests := []struct {
		input string
		term  string
		raw   string
	}{
		{`keyword="Notes on \"The Underground\""`, `Notes on "The Underground"`, `Notes on \"The Underground\"`},
		{`title="ends in a slash \\"`, `ends in a slash \`, `ends in a slash \\`},
		{`title="C:\temp"`, `C:\temp`, `C:\temp`},
		{`title="a\\b"`, `a\b`, `a\\b`},
		{`title="\""`, `"`, `\"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			atom := parseAtomic(t, tt.input)
			if atom.Term != tt.term {
				t.Errorf("Term = %q, want %q", atom.Term, tt.term)
			}
			if len(atom.Raw) != 1 || atom.Raw[0] != tt.raw {
				t.Errorf("Raw = %q, want [%q]", atom.Raw, tt.raw)
			}
		})
	}
}

func TestParseRecoversLiteralSubstrings(t *testing.T) {
	inputs := []string{
		`title="Hamlet"`,
		`  author  adj  "Shakespeare, William"  `,
		`keyword="Notes on \"The Underground\"" AND NOT language="fre"`,
		`(subject any "cats dogs" OR genre="poetry") AND date within "1900" "1950"`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			q, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", input, err)
			}
			for _, atom := range q.Atoms() {
				if !strings.HasPrefix(input[atom.Pos:], string(atom.Scope)) {
					t.Errorf("input at %d does not start with scope %q", atom.Pos, atom.Scope)
				}
				rest := input[atom.Pos+len(atom.Scope):]
				if !strings.HasPrefix(strings.TrimLeft(rest, " "), string(atom.Relation)) {
					t.Errorf("relation %q not found after scope in %q", atom.Relation, rest)
				}
				for _, raw := range atom.Raw {
					if !strings.Contains(input, `"`+raw+`"`) {
						t.Errorf("raw term %q not found in input", raw)
					}
				}
			}
		})
	}
}

func TestParseBooleanStructure(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{
			`author="Shakespeare" AND language="English"`,
			`(author = "Shakespeare" AND language = "English")`,
		},
		{
			`author="Shakespeare" OR language="English"`,
			`(author = "Shakespeare" OR language = "English")`,
		},
		{
			// right-recursive: the chain groups to the right
			`author="Shakespeare" AND language="English" OR genre="tragedy"`,
			`(author = "Shakespeare" AND (language = "English" OR genre = "tragedy"))`,
		},
		{
			`author="Shakespeare" AND (language="English" OR genre="tragedy")`,
			`(author = "Shakespeare" AND (language = "English" OR genre = "tragedy"))`,
		},
		{
			`(author="Shakespeare" AND language="English") OR genre="tragedy"`,
			`((author = "Shakespeare" AND language = "English") OR genre = "tragedy")`,
		},
		{
			`title="a" OR title="b" OR title="c" OR title="d"`,
			`(title = "a" OR (title = "b" OR (title = "c" OR title = "d")))`,
		},
		{
			`((title="a"))`,
			`((title = "a"))`,
		},
		{
			`(title="a")AND(title="b")`,
			`((title = "a") AND (title = "b"))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got := q.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNegation(t *testing.T) {
	t.Run("two operand", func(t *testing.T) {
		q, err := Parse(`title="Hamlet" AND NOT language="English"`)
		if err != nil {
			t.Fatal(err)
		}
		neg, ok := q.Root.(*Negation)
		if !ok {
			t.Fatalf("root = %T, want *Negation", q.Root)
		}
		include, ok := neg.Include.(*Atomic)
		if !ok || include.Scope != ScopeTitle {
			t.Errorf("Include = %#v, want title atom", neg.Include)
		}
		if neg.Exclude.Scope != ScopeLanguage || neg.Exclude.Term != "English" {
			t.Errorf("Exclude = %#v, want language atom", neg.Exclude)
		}
	})

	tests := []struct {
		input string
		want  string
	}{
		{`NOT language="English"`, `NOT language = "English"`},
		{`title="a" OR NOT language="English"`, `(title = "a" OR NOT language = "English")`},
		{`NOT language="English" AND title="a"`, `(NOT language = "English" AND title = "a")`},
		{`title="a" AND NOT author="b" OR subject="c"`, `(title = "a" AND (NOT author = "b" OR subject = "c"))`},
		{`(title="a" OR title="b") AND NOT author="c"`, `((title = "a" OR title = "b") AND NOT author = "c")`},
		{`(NOT author="c")`, `(NOT author = "c")`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got := q.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty query", "", ErrEmptyQuery},
		{"blank query", "   ", ErrEmptyQuery},
		{"unknown scope", `foo="bar"`, ErrUnknownScope},
		{"uppercase scope", `TITLE="bar"`, ErrUnknownScope},
		{"missing relation", `title "bar"`, ErrMissingRelation},
		{"relation at end", `title`, ErrMissingRelation},
		{"unknown word relation", `title near "bar"`, ErrUnknownRelation},
		{"missing term", `title=`, ErrMissingTerm},
		{"unquoted term", `title=bar`, ErrMissingTerm},
		{"unterminated quote", `title="bar`, ErrUnterminatedTerm},
		{"escape at end", `title="bar\`, ErrUnterminatedTerm},
		{"escaped closing quote", `title="bar\"`, ErrUnterminatedTerm},
		{"unmatched open paren", `(title="a"`, ErrUnmatchedParen},
		{"unmatched close paren", `title="a")`, ErrUnmatchedParen},
		{"empty parens", `()`, ErrEmptyQuery},
		{"connective at start", `AND title="a"`, ErrUnexpectedToken},
		{"trailing connective", `title="a" AND`, ErrUnexpectedEOF},
		{"trailing NOT", `NOT`, ErrUnexpectedEOF},
		{"double connective", `title="a" OR OR title="b"`, ErrUnexpectedToken},
		{"missing connective", `title="a" title="b"`, ErrUnexpectedToken},
		{"NOT as connective", `title="a" NOT title="b"`, ErrUnexpectedToken},
		{"NOT before group", `NOT (title="a")`, ErrUnexpectedToken},
		{"lowercase connective", `title="a" and title="b"`, ErrUnexpectedToken},
		{"no space before AND", `title="a"AND title="b"`, ErrMissingSpace},
		{"no space after AND", `title="a" AND"b"`, ErrMissingSpace},
		{"no space after word relation", `title any"a"`, ErrMissingSpace},
		{"no space between terms", `date within "1950""1960"`, ErrMissingSpace},
		{"bad symbol relation", `title=<"a"`, ErrMissingTerm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) = %s, expected error", tt.input, q)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("Parse(%q) error %T is not a *SyntaxError", tt.input, err)
			}
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse(`title="a" AND foo="b"`)
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if se.Pos != 14 {
		t.Errorf("Pos = %d, want 14", se.Pos)
	}
}

func TestParseWhitespace(t *testing.T) {
	inputs := []string{
		`  title="a"  `,
		"\ttitle=\"a\"\n",
		`title="a"   AND   title="b"`,
		"title=\"a\"\nOR\ttitle=\"b\"",
		`  (  title="a"  OR  title="b"  )  `,
		`title == "a"`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err != nil {
				t.Fatalf("Parse(%q) error: %v", input, err)
			}
		})
	}
}

func TestLexer(t *testing.T) {
	input := `title any "disk \"full\"" OR (date<="1950" AND NOT author=="x")`
	lex := NewLexer(input)

	expected := []struct {
		kind TokenKind
		lit  string
	}{
		{TokWord, "title"},
		{TokWord, "any"},
		{TokTerm, `disk "full"`},
		{TokWord, "OR"},
		{TokLParen, "("},
		{TokWord, "date"},
		{TokSymbol, "<="},
		{TokTerm, "1950"},
		{TokWord, "AND"},
		{TokWord, "NOT"},
		{TokWord, "author"},
		{TokSymbol, "=="},
		{TokTerm, "x"},
		{TokRParen, ")"},
		{TokEOF, ""},
	}

	for i, want := range expected {
		tok, err := lex.Next()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Kind != want.kind {
			t.Errorf("token %d: Kind = %v, want %v", i, tok.Kind, want.kind)
		}
		if tok.Kind != TokEOF && tok.Lit != want.lit {
			t.Errorf("token %d: Lit = %q, want %q", i, tok.Lit, want.lit)
		}
	}
}

func TestLexerPeek(t *testing.T) {
	lex := NewLexer(`title="a"`)
	peeked, err := lex.Peek()
	if err != nil {
		t.Fatal(err)
	}
	next, err := lex.Next()
	if err != nil {
		t.Fatal(err)
	}
	if peeked != next {
		t.Errorf("Peek() = %+v, Next() = %+v", peeked, next)
	}
}

func TestDepthAndAtoms(t *testing.T) {
	tests := []struct {
		input   string
		depth   int
		nesting int
		atoms   int
	}{
		{`title="a"`, 1, 0, 1},
		{`title="a" AND title="b"`, 2, 0, 2},
		{`title="a" AND title="b" OR title="c"`, 3, 0, 3},
		{`(title="a" AND title="b") OR title="c"`, 4, 1, 3},
		{`title="a" AND NOT title="b"`, 2, 0, 2},
		{`((title="a")) OR (title="b")`, 4, 2, 2},
		{`(title="a" OR (title="b")) AND NOT title="c"`, 5, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := Parse(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if got := Depth(q.Root); got != tt.depth {
				t.Errorf("Depth = %d, want %d", got, tt.depth)
			}
			if got := Nesting(q.Root); got != tt.nesting {
				t.Errorf("Nesting = %d, want %d", got, tt.nesting)
			}
			if got := len(q.Atoms()); got != tt.atoms {
				t.Errorf("len(Atoms) = %d, want %d", got, tt.atoms)
			}
		})
	}
}

func TestRelationIsRange(t *testing.T) {
	ranges := map[Relation]bool{
		RelAny: false, RelAdj: false, RelAll: false, RelEq: false, RelExact: false,
		RelLt: true, RelGt: true, RelLte: true, RelGte: true, RelWithin: true, RelEncloses: true,
	}
	for rel, want := range ranges {
		if got := rel.IsRange(); got != want {
			t.Errorf("%q.IsRange() = %v, want %v", rel, got, want)
		}
	}
}

func TestIndicate(t *testing.T) {
	tests := []struct {
		input string
		pos   int
		want  string
	}{
		{`title="a" AND"b"`, 14, "  title=\"a\" AND\"b\"\n                ^"},
		{"a\tb", 2, "  a b\n    ^"},
		{"é=x", 3, "  é=x\n    ^"},
		{"abc", 99, "  abc\n     ^"},
	}
	for _, tt := range tests {
		if got := Indicate(tt.input, tt.pos); got != tt.want {
			t.Errorf("Indicate(%q, %d) = %q, want %q", tt.input, tt.pos, got, tt.want)
		}
	}
}
