// Package repl provides an interactive loop for trying CQL queries against
// a field mapping.
//
// A line that does not start with a command word is compiled as a query and
// the resulting bool query is printed. Filter clauses set with the filter
// command are merged into every compiled query until cleared.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"catalogcql/internal/compiler"
	"catalogcql/internal/cql"
	"catalogcql/internal/esquery"
	"catalogcql/internal/fieldmap"
)

// REPL is an interactive read-eval-print loop over a Compiler.
type REPL struct {
	compiler *compiler.Compiler

	// I/O
	in  *bufio.Scanner
	out io.Writer

	// Session state
	filter  []esquery.Query
	last    *compiler.Result
	compact bool
}

// New creates a REPL reading commands from in and writing to out.
func New(c *compiler.Compiler, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		compiler: c,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run starts the loop. It returns when the input ends, the user exits or
// ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.printf("CQL REPL. Type 'help' for commands.\n")
	r.printf("> ")

	for r.in.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := norm.NFC.String(strings.TrimSpace(r.in.Text()))
		if line == "" {
			r.printf("> ")
			continue
		}

		if exit := r.execute(ctx, line); exit {
			return nil
		}

		r.printf("> ")
	}

	return r.in.Err()
}

// execute runs a single line. Returns true if the REPL should exit.
func (r *REPL) execute(ctx context.Context, line string) bool {
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case "help":
		r.cmdHelp()
	case "parse":
		r.cmdParse(rest)
	case "fields":
		r.cmdFields(rest)
	case "filter":
		r.cmdFilter(rest)
	case "compact":
		r.cmdCompact(rest)
	case "last":
		r.cmdLast()
	case "exit", "quit":
		return true
	default:
		r.compile(ctx, line)
	}

	return false
}

func (r *REPL) cmdHelp() {
	r.printf(`Commands:
  help                     Show this help
  QUERY                    Compile a CQL query and print the bool query
  parse QUERY              Show how a query parses
  fields SCOPE [TERM]      Show the fields a scope searches for a term
  filter [JSON|clear]      Show, set or clear the filter merged into every query
  compact [on|off]         Print queries on one line
  last                     Show the id and AST of the last compiled query
  exit                     Exit the REPL

Examples:
  title="hamlet" AND author="shakespeare"
  parse subject any "birds bees" AND NOT title="guide"
  fields keyword 33433012345678
  filter {"term":{"formatId":"a"}}
`)
}

func (r *REPL) compile(ctx context.Context, query string) {
	res, err := r.compiler.Compile(ctx, compiler.Request{Query: query, Filter: r.filter})
	if err != nil {
		r.printError(query, err)
		return
	}
	r.last = res
	r.printQuery(res.Query)
}

func (r *REPL) cmdParse(query string) {
	if query == "" {
		r.printf("Usage: parse QUERY\n")
		return
	}
	q, err := cql.Parse(query)
	if err != nil {
		r.printError(query, err)
		return
	}
	r.printf("%s\n", q)
	for _, atom := range q.Atoms() {
		r.printf("  %4d  %-10s %-6s %q\n", atom.Pos, atom.Scope, atom.Relation, atom.Term)
	}
	r.printf("depth %d, nesting %d\n", cql.Depth(q.Root), cql.Nesting(q.Root))
}

func (r *REPL) cmdFields(args string) {
	scopeText, term, _ := strings.Cut(args, " ")
	if scopeText == "" {
		r.printf("Usage: fields SCOPE [TERM]\n")
		return
	}
	scope := cql.Scope(scopeText)
	if !scope.Valid() {
		r.printf("Unknown scope: %s\n", scopeText)
		return
	}

	fs, err := r.compiler.Mapping().FieldsFor(scope, strings.TrimSpace(term))
	if err != nil {
		r.printf("Error: %v\n", err)
		return
	}
	if fs.Empty() {
		r.printf("No fields.\n")
		return
	}
	r.printBucket("main", fs.Main)
	r.printBucket(fieldmap.PathItems, fs.Items)
	r.printBucket(fieldmap.PathHoldings, fs.Holdings)
}

func (r *REPL) printBucket(section string, b fieldmap.Bucket) {
	for _, kind := range []struct {
		name   string
		fields []string
	}{
		{"full-text", b.FullText},
		{"prefix", b.Prefix},
		{"term", b.Term},
	} {
		for _, f := range kind.fields {
			r.printf("  %-9s %-9s %s\n", section, kind.name, f)
		}
	}
}

func (r *REPL) cmdFilter(arg string) {
	switch arg {
	case "":
		if len(r.filter) == 0 {
			r.printf("No filter set.\n")
			return
		}
		for _, q := range r.filter {
			data, _ := json.Marshal(esquery.Source(q))
			r.printf("  %s\n", data)
		}
	case "clear":
		r.filter = nil
		r.printf("Filter cleared.\n")
	default:
		clauses, err := esquery.ParseRaw([]byte(arg))
		if err != nil {
			r.printf("Invalid filter: %v\n", err)
			return
		}
		r.filter = clauses
		r.printf("Filter set (%d clauses).\n", len(clauses))
	}
}

func (r *REPL) cmdCompact(arg string) {
	switch arg {
	case "", "on":
		r.compact = true
	case "off":
		r.compact = false
	default:
		r.printf("Usage: compact [on|off]\n")
		return
	}
	if r.compact {
		r.printf("Compact output on.\n")
	} else {
		r.printf("Compact output off.\n")
	}
}

func (r *REPL) cmdLast() {
	if r.last == nil {
		r.printf("No query compiled yet.\n")
		return
	}
	r.printf("id   %s\n", r.last.ID)
	r.printf("ast  %s\n", r.last.AST)
}

func (r *REPL) printQuery(q esquery.Query) {
	var data []byte
	var err error
	if r.compact {
		data, err = json.Marshal(esquery.Source(q))
	} else {
		data, err = json.MarshalIndent(esquery.Source(q), "", "  ")
	}
	if err != nil {
		r.printf("Error: %v\n", err)
		return
	}
	r.printf("%s\n", data)
}

func (r *REPL) printError(query string, err error) {
	r.printf("Error: %v\n", err)
	var se *cql.SyntaxError
	if errors.As(err, &se) {
		r.printf("%s\n", cql.Indicate(query, se.Pos))
	}
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
