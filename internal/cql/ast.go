// Package cql parses Contextual Query Language strings into an AST.
//
// This package is a frontend parsing layer only. It MUST NOT:
//   - Know which index fields a scope maps to
//   - Build search-engine queries
//   - Perform I/O or logging
package cql

import (
	"strconv"
	"strings"
)

// Node is the interface for all AST nodes.
// The marker method prevents external types from implementing Node, so a
// type switch over *Boolean, *Negation, *Group and *Atomic is exhaustive.
type Node interface {
	node()
	// String returns a human-readable representation of the node.
	String() string
}

// Query is a parsed CQL string.
type Query struct {
	Root  Node
	Input string // the text that was parsed
}

func (q *Query) String() string {
	return q.Root.String()
}

// Atoms returns the atomic queries of q in input order.
func (q *Query) Atoms() []*Atomic {
	var atoms []*Atomic
	Walk(q.Root, func(n Node) bool {
		if a, ok := n.(*Atomic); ok {
			atoms = append(atoms, a)
		}
		return true
	})
	return atoms
}

// Boolean joins two queries with AND or OR.
// The grammar is right-recursive: "A AND B OR C" is Boolean{A, AND, Boolean{B, OR, C}}.
type Boolean struct {
	Op    Connective
	Left  Node
	Right Node
}

func (*Boolean) node() {}

func (b *Boolean) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

// Negation excludes an atomic query.
//
// "X AND NOT a" is folded into Negation{Include: X, Exclude: a}. A NOT that
// is not the right operand of AND has no Include.
type Negation struct {
	Include Node // nil for a bare NOT
	Exclude *Atomic
}

func (*Negation) node() {}

func (n *Negation) String() string {
	if n.Include == nil {
		return "NOT " + n.Exclude.String()
	}
	return "(" + n.Include.String() + " AND NOT " + n.Exclude.String() + ")"
}

// Group is a parenthesized query.
type Group struct {
	Inner Node
}

func (*Group) node() {}

func (g *Group) String() string {
	// Boolean and two-operand Negation already print their own parentheses.
	switch v := g.Inner.(type) {
	case *Boolean:
		return v.String()
	case *Negation:
		if v.Include != nil {
			return v.String()
		}
	}
	return "(" + g.Inner.String() + ")"
}

// Atomic is a single `scope relation "term"` clause.
type Atomic struct {
	Scope    Scope
	Relation Relation
	Term     string   // unquoted, unescaped phrase; multiple quoted terms joined by a space
	Raw      []string // literal text between each pair of quotes, escapes intact
	Pos      int      // byte offset of the scope keyword
}

func (*Atomic) node() {}

func (a *Atomic) String() string {
	quoted := make([]string, len(a.Raw))
	for i, raw := range a.Raw {
		quoted[i] = `"` + raw + `"`
	}
	return string(a.Scope) + " " + string(a.Relation) + " " + strings.Join(quoted, " ")
}

// Terms returns the whitespace-separated words of the term, in order.
func (a *Atomic) Terms() []string {
	return strings.Fields(a.Term)
}

// GoString makes test failure output readable.
func (a *Atomic) GoString() string {
	return "cql.Atomic{" + string(a.Scope) + " " + string(a.Relation) + " " + strconv.Quote(a.Term) + "}"
}

// Walk visits n and its descendants depth-first, left to right. If fn
// returns false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Boolean:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *Negation:
		if v.Include != nil {
			Walk(v.Include, fn)
		}
		Walk(v.Exclude, fn)
	case *Group:
		Walk(v.Inner, fn)
	case *Atomic:
	}
}

// Depth returns the height of the tree rooted at n. An atomic query has
// depth 1.
func Depth(n Node) int {
	switch v := n.(type) {
	case *Boolean:
		return 1 + max(Depth(v.Left), Depth(v.Right))
	case *Negation:
		d := Depth(v.Exclude)
		if v.Include != nil {
			d = max(d, Depth(v.Include))
		}
		return 1 + d
	case *Group:
		return 1 + Depth(v.Inner)
	case *Atomic:
		return 1
	default:
		return 0
	}
}

// Nesting returns the deepest level of parenthesised groups under n. Chains
// of connectives do not count: `a OR b OR c` has nesting 0, `((a))` has 2.
func Nesting(n Node) int {
	switch v := n.(type) {
	case *Boolean:
		return max(Nesting(v.Left), Nesting(v.Right))
	case *Negation:
		if v.Include != nil {
			return Nesting(v.Include)
		}
		return 0
	case *Group:
		return 1 + Nesting(v.Inner)
	default:
		return 0
	}
}
