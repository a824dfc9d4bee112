// Package fieldmap routes CQL scopes to the index fields they search.
//
// A Mapping is static configuration: it is loaded once, validated against the
// grammar's scope list, and never mutated afterwards, so concurrent readers
// need no locking. Each scope lists full-text, prefix and exact-term fields.
// A field entry is either a plain name or a name paired with a predicate on
// the search term; conditional fields are only searched when the predicate
// holds.
//
// Field names carry their sub-document as a namespace prefix: "items.x" lives
// in the nested items documents, "holdings.x" in the nested holdings
// documents, anything else in the main record.
package fieldmap

import (
	"fmt"
	"sort"
	"strings"

	"catalogcql/internal/cql"
)

// Nested sub-document paths.
const (
	PathItems    = "items"
	PathHoldings = "holdings"
)

// Date range target used when the mapping does not set one.
const (
	DefaultDatePath  = "dates"
	DefaultDateField = "dates.range"
)

// Bucket holds the fields of one document section, split by how they are
// matched.
type Bucket struct {
	FullText []string
	Prefix   []string
	Term     []string
}

// Empty reports whether the bucket has no fields.
func (b Bucket) Empty() bool {
	return len(b.FullText) == 0 && len(b.Prefix) == 0 && len(b.Term) == 0
}

// Fields returns every field of the bucket: full-text, then prefix, then term.
func (b Bucket) Fields() []string {
	out := make([]string, 0, len(b.FullText)+len(b.Prefix)+len(b.Term))
	out = append(out, b.FullText...)
	out = append(out, b.Prefix...)
	return append(out, b.Term...)
}

// FieldSet is the resolved field routing for one atomic query.
type FieldSet struct {
	Main     Bucket
	Items    Bucket
	Holdings Bucket
}

// Empty reports whether no section has any field.
func (fs FieldSet) Empty() bool {
	return fs.Main.Empty() && fs.Items.Empty() && fs.Holdings.Empty()
}

func (fs *FieldSet) bucket(field string) *Bucket {
	switch Section(field) {
	case PathItems:
		return &fs.Items
	case PathHoldings:
		return &fs.Holdings
	default:
		return &fs.Main
	}
}

// Section returns the nested path a field belongs to, or "" for the main
// record.
func Section(field string) string {
	for _, path := range []string{PathItems, PathHoldings} {
		if strings.HasPrefix(field, path+".") {
			return path
		}
	}
	return ""
}

// Entry is one field of a scope. A plain entry always applies; an entry with
// When (a built-in predicate name) or Matches (a regular expression) applies
// only to terms the predicate accepts.
type Entry struct {
	Field   string `yaml:"field"`
	When    string `yaml:"when,omitempty"`
	Matches string `yaml:"matches,omitempty"`

	pred Predicate
}

// Field returns a plain entry.
func Field(name string) Entry {
	return Entry{Field: name}
}

// Applies reports whether the entry's field should be searched for term.
func (e Entry) Applies(term string) bool {
	return e.pred == nil || e.pred(term)
}

// Conditional reports whether the entry carries a predicate.
func (e Entry) Conditional() bool {
	return e.When != "" || e.Matches != ""
}

// MarshalYAML writes plain entries as bare field names.
func (e Entry) MarshalYAML() (any, error) {
	if !e.Conditional() {
		return e.Field, nil
	}
	type entry Entry
	return entry(e), nil
}

// bind resolves the entry's predicate.
func (e *Entry) bind() error {
	switch {
	case e.When != "" && e.Matches != "":
		return fmt.Errorf("field %q: %w: set when or matches, not both", e.Field, ErrBadPattern)
	case e.When != "":
		p, ok := LookupPredicate(e.When)
		if !ok {
			return fmt.Errorf("field %q: %w %q (known: %s)", e.Field, ErrUnknownPredicate, e.When, strings.Join(PredicateNames(), ", "))
		}
		e.pred = p
	case e.Matches != "":
		p, err := Pattern(e.Matches)
		if err != nil {
			return fmt.Errorf("field %q: %w: %v", e.Field, ErrBadPattern, err)
		}
		e.pred = p
	default:
		e.pred = nil
	}
	return nil
}

// ScopeFields lists the fields one scope searches.
type ScopeFields struct {
	Fields []Entry `yaml:"fields,omitempty"` // full-text
	Prefix []Entry `yaml:"prefix,omitempty"`
	Term   []Entry `yaml:"term,omitempty"`
}

func (sf ScopeFields) lists() [][]Entry {
	return [][]Entry{sf.Fields, sf.Prefix, sf.Term}
}

// DateRange is where range relations are evaluated.
type DateRange struct {
	Path  string `yaml:"path"`
	Field string `yaml:"field"`
}

// Mapping is the scope to field table.
type Mapping struct {
	Version   string                    `yaml:"version"`
	DateRange DateRange                 `yaml:"dateRange"`
	Scopes    map[cql.Scope]ScopeFields `yaml:"scopes"`
}

// FieldsFor resolves the fields scope searches for term, evaluating
// conditional entries against the whole term once.
func (m *Mapping) FieldsFor(scope cql.Scope, term string) (FieldSet, error) {
	sf, ok := m.Scopes[scope]
	if !ok {
		return FieldSet{}, newConfigError(scope, ErrUnknownScope, "no field mapping for scope")
	}

	var fs FieldSet
	for _, e := range sf.Fields {
		if e.Applies(term) {
			b := fs.bucket(e.Field)
			b.FullText = append(b.FullText, e.Field)
		}
	}
	for _, e := range sf.Prefix {
		if e.Applies(term) {
			b := fs.bucket(e.Field)
			b.Prefix = append(b.Prefix, e.Field)
		}
	}
	for _, e := range sf.Term {
		if e.Applies(term) {
			b := fs.bucket(e.Field)
			b.Term = append(b.Term, e.Field)
		}
	}
	return fs, nil
}

// Lookup returns the configured entries of scope.
func (m *Mapping) Lookup(scope cql.Scope) (ScopeFields, bool) {
	sf, ok := m.Scopes[scope]
	return sf, ok
}

// Validate checks the mapping against the grammar and binds the predicates
// of conditional entries. It returns the first problem found as a
// *ConfigurationError.
func (m *Mapping) Validate() error {
	if m.DateRange.Path == "" || !strings.HasPrefix(m.DateRange.Field, m.DateRange.Path+".") {
		return newConfigError("", ErrDateRange, "dateRange field %q must live under path %q", m.DateRange.Field, m.DateRange.Path)
	}

	for _, scope := range cql.Scopes() {
		if _, ok := m.Scopes[scope]; !ok {
			return newConfigError(scope, ErrMissingScope, "scope is part of the grammar but has no field mapping")
		}
	}

	names := make([]string, 0, len(m.Scopes))
	for scope := range m.Scopes {
		names = append(names, string(scope))
	}
	sort.Strings(names)

	for _, name := range names {
		scope := cql.Scope(name)
		if !scope.Valid() {
			return newConfigError(scope, ErrUnknownScope, "scope is not part of the grammar")
		}
		for _, list := range m.Scopes[scope].lists() {
			for i := range list {
				e := &list[i]
				if strings.TrimSpace(e.Field) == "" {
					return newConfigError(scope, ErrEmptyField, "entry %d has no field name", i)
				}
				if err := e.bind(); err != nil {
					return newConfigError(scope, err, "%v", err)
				}
			}
		}
	}
	return nil
}
