package compiler

import "catalogcql/internal/esquery"

// MergeFilter restricts q by externally built filter clauses:
// {bool: {should: [q], filter: filter}}. Without filters q is returned as is.
func MergeFilter(q esquery.Query, filter []esquery.Query) esquery.Query {
	if len(filter) == 0 {
		return q
	}
	return &esquery.Bool{
		Should: []esquery.Query{q},
		Filter: filter,
	}
}
