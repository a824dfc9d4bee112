package fieldmap

import (
	"regexp"
	"sort"
)

// Predicate decides whether a conditional field applies to a search term.
// Predicates are pure; they are evaluated once per atomic query against the
// whole term.
type Predicate func(term string) bool

var (
	barcodePattern   = regexp.MustCompile(`\d{6,}`)
	shelfmarkPattern = regexp.MustCompile(`^[A-Z]{1,3}\s\d{2,}`)
)

// Built-in predicates, referenced from the mapping by name.
var predicates = map[string]Predicate{
	// six or more consecutive digits anywhere in the term
	"barcode": barcodePattern.MatchString,
	// one to three capitals, whitespace, two or more digits: "JFE 86-498"
	"shelfmark": shelfmarkPattern.MatchString,
}

// LookupPredicate returns the built-in predicate with the given name.
func LookupPredicate(name string) (Predicate, bool) {
	p, ok := predicates[name]
	return p, ok
}

// PredicateNames returns the names of the built-in predicates, sorted.
func PredicateNames() []string {
	names := make([]string, 0, len(predicates))
	for name := range predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pattern compiles expr into a predicate that reports whether the term
// contains a match.
func Pattern(expr string) (Predicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}
