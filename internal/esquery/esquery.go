// Package esquery models the subset of the search engine's boolean query DSL
// that compiled CQL queries use.
//
// Every node encodes to the engine's wire names (bool, must, should,
// must_not, filter, multi_match, term, prefix, nested, range). Source returns
// the generic document form, which is what the JSON, msgpack and JSONPath
// consumers work on.
package esquery

import (
	"encoding/json"
	"fmt"
)

// Query is the interface for all query nodes.
// The unexported method keeps the set closed apart from Raw, which carries
// externally built clauses verbatim.
type Query interface {
	// QueryType returns the top-level wire key of the node.
	QueryType() string
	source() map[string]any
}

// Source returns the generic document form of q.
func Source(q Query) map[string]any {
	if q == nil {
		return nil
	}
	return q.source()
}

// Multi-match types.
const (
	TypeCrossFields  = "cross_fields"
	TypePhrase       = "phrase"
	TypePhrasePrefix = "phrase_prefix"
)

// Multi-match operators.
const (
	OperatorOr  = "or"
	OperatorAnd = "and"
)

// Bool combines clauses. Empty clause lists are omitted on the wire, so an
// empty Bool encodes as {"bool":{}}.
type Bool struct {
	Must    []Query
	Should  []Query
	MustNot []Query
	Filter  []Query
}

func (*Bool) QueryType() string { return "bool" }

func (q *Bool) source() map[string]any {
	body := map[string]any{}
	putClauses(body, "must", q.Must)
	putClauses(body, "should", q.Should)
	putClauses(body, "must_not", q.MustNot)
	putClauses(body, "filter", q.Filter)
	return map[string]any{"bool": body}
}

func (q *Bool) MarshalJSON() ([]byte, error) { return json.Marshal(q.source()) }

// Empty reports whether q has no clauses at all.
func (q *Bool) Empty() bool {
	return len(q.Must) == 0 && len(q.Should) == 0 && len(q.MustNot) == 0 && len(q.Filter) == 0
}

func putClauses(body map[string]any, key string, clauses []Query) {
	if len(clauses) == 0 {
		return
	}
	list := make([]any, len(clauses))
	for i, c := range clauses {
		list[i] = Source(c)
	}
	body[key] = list
}

// MultiMatch runs a full-text query over several fields.
type MultiMatch struct {
	Query    string
	Fields   []string
	Type     string // cross_fields, phrase, phrase_prefix
	Operator string // only set for cross_fields
}

func (*MultiMatch) QueryType() string { return "multi_match" }

func (q *MultiMatch) source() map[string]any {
	fields := make([]any, len(q.Fields))
	for i, f := range q.Fields {
		fields[i] = f
	}
	body := map[string]any{
		"query":  q.Query,
		"fields": fields,
	}
	if q.Type != "" {
		body["type"] = q.Type
	}
	if q.Operator != "" {
		body["operator"] = q.Operator
	}
	return map[string]any{"multi_match": body}
}

func (q *MultiMatch) MarshalJSON() ([]byte, error) { return json.Marshal(q.source()) }

// Term matches an exact, unanalyzed value.
type Term struct {
	Field string
	Value string
}

func (*Term) QueryType() string { return "term" }

func (q *Term) source() map[string]any {
	return map[string]any{"term": map[string]any{q.Field: q.Value}}
}

func (q *Term) MarshalJSON() ([]byte, error) { return json.Marshal(q.source()) }

// Prefix matches values starting with Value.
type Prefix struct {
	Field string
	Value string
}

func (*Prefix) QueryType() string { return "prefix" }

func (q *Prefix) source() map[string]any {
	return map[string]any{"prefix": map[string]any{q.Field: q.Value}}
}

func (q *Prefix) MarshalJSON() ([]byte, error) { return json.Marshal(q.source()) }

// Nested runs Query against the sub-documents under Path.
type Nested struct {
	Path  string
	Query Query
}

func (*Nested) QueryType() string { return "nested" }

func (q *Nested) source() map[string]any {
	return map[string]any{"nested": map[string]any{
		"path":  q.Path,
		"query": Source(q.Query),
	}}
}

func (q *Nested) MarshalJSON() ([]byte, error) { return json.Marshal(q.source()) }

// Range bounds a field. Empty bounds are omitted.
type Range struct {
	Field string
	Gt    string
	Gte   string
	Lt    string
	Lte   string
}

func (*Range) QueryType() string { return "range" }

func (q *Range) source() map[string]any {
	bounds := map[string]any{}
	for key, v := range map[string]string{"gt": q.Gt, "gte": q.Gte, "lt": q.Lt, "lte": q.Lte} {
		if v != "" {
			bounds[key] = v
		}
	}
	return map[string]any{"range": map[string]any{q.Field: bounds}}
}

func (q *Range) MarshalJSON() ([]byte, error) { return json.Marshal(q.source()) }

// Raw is a clause built elsewhere, spliced into the output as is.
// It must have exactly one top-level key, the query type.
type Raw map[string]any

// QueryType returns the single top-level key, or "" if there is not exactly one.
func (r Raw) QueryType() string {
	if len(r) != 1 {
		return ""
	}
	for k := range r {
		return k
	}
	return ""
}

func (r Raw) source() map[string]any { return r }

// ParseRaw decodes a JSON array of clauses, or a single clause object.
func ParseRaw(data []byte) ([]Query, error) {
	var list []Raw
	if err := json.Unmarshal(data, &list); err != nil {
		var single Raw
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("decode filter clauses: %w", err)
		}
		list = []Raw{single}
	}
	out := make([]Query, 0, len(list))
	for i, r := range list {
		if r.QueryType() == "" {
			return nil, fmt.Errorf("filter clause %d: want exactly one query type key, got %d", i, len(r))
		}
		out = append(out, r)
	}
	return out, nil
}

// Fields returns every field name q references, in document order.
// Nested paths are not included.
func Fields(q Query) []string {
	var fields []string
	var walk func(Query)
	walk = func(q Query) {
		switch v := q.(type) {
		case *Bool:
			for _, list := range [][]Query{v.Must, v.Should, v.MustNot, v.Filter} {
				for _, c := range list {
					walk(c)
				}
			}
		case *MultiMatch:
			fields = append(fields, v.Fields...)
		case *Term:
			fields = append(fields, v.Field)
		case *Prefix:
			fields = append(fields, v.Field)
		case *Range:
			fields = append(fields, v.Field)
		case *Nested:
			walk(v.Query)
		}
	}
	walk(q)
	return fields
}
