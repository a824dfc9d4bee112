package cql

// Scope names the group of index fields an atomic query targets.
type Scope string

const (
	ScopeTitle      Scope = "title"
	ScopeAuthor     Scope = "author"
	ScopeKeyword    Scope = "keyword"
	ScopeCallnumber Scope = "callnumber"
	ScopeIdentifier Scope = "identifier"
	ScopeSubject    Scope = "subject"
	ScopeLanguage   Scope = "language"
	ScopeDate       Scope = "date"
	ScopeSeries     Scope = "series"
	ScopeGenre      Scope = "genre"
	ScopeCenter     Scope = "center"
	ScopeDivision   Scope = "division"
	ScopeFormat     Scope = "format"
)

var scopes = []Scope{
	ScopeTitle,
	ScopeAuthor,
	ScopeKeyword,
	ScopeCallnumber,
	ScopeIdentifier,
	ScopeSubject,
	ScopeLanguage,
	ScopeDate,
	ScopeSeries,
	ScopeGenre,
	ScopeCenter,
	ScopeDivision,
	ScopeFormat,
}

// Scopes returns every scope the grammar accepts, in grammar order.
func Scopes() []Scope {
	out := make([]Scope, len(scopes))
	copy(out, scopes)
	return out
}

// Valid reports whether s is one of the grammar's scope keywords.
// Matching is case-sensitive.
func (s Scope) Valid() bool {
	for _, known := range scopes {
		if s == known {
			return true
		}
	}
	return false
}

// Relation is the matching operator of an atomic query.
type Relation string

const (
	RelAny      Relation = "any"
	RelAdj      Relation = "adj"
	RelAll      Relation = "all"
	RelEq       Relation = "="
	RelExact    Relation = "=="
	RelLt       Relation = "<"
	RelGt       Relation = ">"
	RelLte      Relation = "<="
	RelGte      Relation = ">="
	RelWithin   Relation = "within"
	RelEncloses Relation = "encloses"
)

// Valid reports whether r is a known relation.
func (r Relation) Valid() bool {
	switch r {
	case RelAny, RelAdj, RelAll, RelEq, RelExact,
		RelLt, RelGt, RelLte, RelGte, RelWithin, RelEncloses:
		return true
	default:
		return false
	}
}

// IsRange reports whether r compares against date bounds.
func (r Relation) IsRange() bool {
	switch r {
	case RelLt, RelGt, RelLte, RelGte, RelWithin, RelEncloses:
		return true
	default:
		return false
	}
}

// isWord reports whether r is spelled with letters, and therefore needs
// whitespace to separate it from the scope and term.
func (r Relation) isWord() bool {
	switch r {
	case RelAny, RelAdj, RelAll, RelWithin, RelEncloses:
		return true
	default:
		return false
	}
}

// Connective joins two queries.
type Connective string

const (
	And Connective = "AND"
	Or  Connective = "OR"
)

// keywordNot prefixes a negated atomic query.
const keywordNot = "NOT"
