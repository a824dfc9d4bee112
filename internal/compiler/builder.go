// Package compiler turns parsed CQL into search-engine queries.
//
// Builder is the pure tree translation. Compiler wraps it with the request
// boundary: input normalisation, size limits, filter merging and logging.
package compiler

import (
	"fmt"
	"strings"

	"catalogcql/internal/cql"
	"catalogcql/internal/esquery"
	"catalogcql/internal/fieldmap"
)

// Builder translates a CQL AST into an esquery tree using a field mapping.
// A Builder holds no state between calls and may be used concurrently as
// long as OnEmpty is safe for concurrent use.
type Builder struct {
	Mapping *fieldmap.Mapping

	// OnEmpty, if set, is called for each atomic query for which no field
	// produced a clause. Such an atomic compiles to an empty bool query,
	// which matches every document. Under NOT it is dropped instead, so an
	// empty exclusion removes nothing.
	OnEmpty func(atom *cql.Atomic)
}

// Build compiles q. The only errors are mapping errors
// (*fieldmap.ConfigurationError), which indicate that the mapping and the
// grammar disagree.
func (b *Builder) Build(q *cql.Query) (esquery.Query, error) {
	return b.node(q.Root)
}

func (b *Builder) node(n cql.Node) (esquery.Query, error) {
	switch v := n.(type) {
	case *cql.Boolean:
		left, err := b.node(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.node(v.Right)
		if err != nil {
			return nil, err
		}
		return boolean(v.Op, left, right), nil

	case *cql.Negation:
		exclude, err := b.atomic(v.Exclude)
		if err != nil {
			return nil, err
		}
		var mustNot []esquery.Query
		if eb, ok := exclude.(*esquery.Bool); !ok || !eb.Empty() {
			mustNot = []esquery.Query{exclude}
		}
		if v.Include == nil {
			return &esquery.Bool{MustNot: mustNot}, nil
		}
		include, err := b.node(v.Include)
		if err != nil {
			return nil, err
		}
		return &esquery.Bool{
			Must:    []esquery.Query{include},
			MustNot: mustNot,
		}, nil

	case *cql.Group:
		return b.node(v.Inner)

	case *cql.Atomic:
		return b.atomic(v)

	default:
		return nil, fmt.Errorf("compiler: unexpected node %T", n)
	}
}

func boolean(op cql.Connective, left, right esquery.Query) esquery.Query {
	clauses := []esquery.Query{left, right}
	if op == cql.Or {
		return &esquery.Bool{Should: clauses}
	}
	return &esquery.Bool{Must: clauses}
}

// atomic compiles one clause into a should over the main record, the nested
// items and the nested holdings. Sections without a clause are left out.
func (b *Builder) atomic(a *cql.Atomic) (esquery.Query, error) {
	fs, err := b.Mapping.FieldsFor(a.Scope, a.Term)
	if err != nil {
		return nil, err
	}

	var should []esquery.Query
	if q := b.section(a, fs.Main); q != nil {
		should = append(should, q)
	}
	if q := b.section(a, fs.Items); q != nil {
		should = append(should, &esquery.Nested{Path: fieldmap.PathItems, Query: q})
	}
	if q := b.section(a, fs.Holdings); q != nil {
		should = append(should, &esquery.Nested{Path: fieldmap.PathHoldings, Query: q})
	}

	if len(should) == 0 && b.OnEmpty != nil {
		b.OnEmpty(a)
	}
	return &esquery.Bool{Should: should}, nil
}

// section applies every relation rule to one bucket and returns the union,
// or nil if no rule produced a clause.
func (b *Builder) section(a *cql.Atomic, bucket fieldmap.Bucket) esquery.Query {
	var clauses []esquery.Query

	if len(bucket.FullText) > 0 {
		switch a.Relation {
		case cql.RelAny, cql.RelAll:
			clauses = append(clauses, wordMatches(a, bucket.FullText)...)
		case cql.RelEq, cql.RelAdj:
			clauses = append(clauses, phraseMatch(a.Term, bucket.FullText))
		}
	}

	for _, field := range bucket.Term {
		clauses = append(clauses, &esquery.Term{Field: field, Value: a.Term})
	}
	for _, field := range bucket.Prefix {
		clauses = append(clauses, &esquery.Prefix{Field: field, Value: a.Term})
	}

	if a.Relation.IsRange() && mentionsDate(bucket) {
		if q := b.dateRange(a); q != nil {
			clauses = append(clauses, q)
		}
	}

	if len(clauses) == 0 {
		return nil
	}
	return &esquery.Bool{Should: clauses}
}

// wordMatches handles any/all: the plain words go into one cross_fields
// match, each ^word becomes its own phrase_prefix match.
func wordMatches(a *cql.Atomic, fields []string) []esquery.Query {
	operator := esquery.OperatorOr
	if a.Relation == cql.RelAll {
		operator = esquery.OperatorAnd
	}

	var words, prefixes []string
	for _, tok := range a.Terms() {
		if p, ok := strings.CutPrefix(tok, "^"); ok {
			if p != "" {
				prefixes = append(prefixes, p)
			}
			continue
		}
		words = append(words, tok)
	}

	var out []esquery.Query
	if len(words) > 0 {
		out = append(out, &esquery.MultiMatch{
			Query:    strings.Join(words, " "),
			Fields:   fields,
			Type:     esquery.TypeCrossFields,
			Operator: operator,
		})
	}
	for _, p := range prefixes {
		out = append(out, &esquery.MultiMatch{
			Query:  p,
			Fields: fields,
			Type:   esquery.TypePhrasePrefix,
		})
	}
	return out
}

// phraseMatch handles = and adj. A leading ^ anchors the phrase as a prefix.
func phraseMatch(term string, fields []string) esquery.Query {
	if p, ok := strings.CutPrefix(term, "^"); ok {
		return &esquery.MultiMatch{Query: p, Fields: fields, Type: esquery.TypePhrasePrefix}
	}
	return &esquery.MultiMatch{Query: term, Fields: fields, Type: esquery.TypePhrase}
}

func mentionsDate(bucket fieldmap.Bucket) bool {
	for _, field := range bucket.Fields() {
		if strings.Contains(field, "date") {
			return true
		}
	}
	return false
}

// dateRange builds the nested range for a range relation. Two-bound
// relations take their bounds from the first two words of the term; a
// missing word leaves that side open.
func (b *Builder) dateRange(a *cql.Atomic) esquery.Query {
	terms := a.Terms()
	first, second := word(terms, 0), word(terms, 1)

	r := &esquery.Range{Field: b.Mapping.DateRange.Field}
	switch a.Relation {
	case cql.RelLt:
		r.Lt = first
	case cql.RelGt:
		r.Gt = first
	case cql.RelLte:
		r.Lte = first
	case cql.RelGte:
		r.Gte = first
	case cql.RelWithin:
		r.Gte, r.Lte = first, second
	case cql.RelEncloses:
		r.Gt, r.Lt = first, second
	}
	if r.Gt == "" && r.Gte == "" && r.Lt == "" && r.Lte == "" {
		return nil
	}
	return &esquery.Nested{Path: b.Mapping.DateRange.Path, Query: r}
}

func word(terms []string, i int) string {
	if i < len(terms) {
		return terms[i]
	}
	return ""
}
