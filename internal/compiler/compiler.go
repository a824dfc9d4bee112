package compiler

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"catalogcql/internal/cql"
	"catalogcql/internal/esquery"
	"catalogcql/internal/fieldmap"
	"catalogcql/internal/logging"
)

// Limits applied when Config leaves them at zero.
const (
	DefaultMaxInputLength = 16 << 10
	DefaultMaxDepth       = 64
	DefaultMaxClauses     = 1024
	DefaultMaxTermLength  = 1024
)

// Config configures a Compiler.
type Config struct {
	// Mapping routes scopes to fields. It must have been validated, which
	// fieldmap.Load does. Nil means fieldmap.Default().
	Mapping *fieldmap.Mapping
	Logger  *slog.Logger

	MaxInputLength int // bytes, after normalisation
	MaxDepth       int // parenthesis nesting, see cql.Nesting
	MaxClauses     int // atomic queries per query
	MaxTermLength  int // characters per atomic term
}

// Compiler compiles CQL query strings. It is safe for concurrent use.
type Compiler struct {
	mapping *fieldmap.Mapping
	logger  *slog.Logger

	maxInput   int
	maxDepth   int
	maxClauses int
	maxTerm    int
}

// Request is one compilation.
type Request struct {
	Query  string
	Filter []esquery.Query // optional, merged with MergeFilter
}

// Result is a compiled query.
type Result struct {
	ID    string // unique per compilation, for correlating logs
	Query esquery.Query
	AST   *cql.Query // AST.Input is the normalised query text
}

// New creates a Compiler.
func New(cfg Config) (*Compiler, error) {
	if cfg.MaxInputLength < 0 || cfg.MaxDepth < 0 || cfg.MaxClauses < 0 || cfg.MaxTermLength < 0 {
		return nil, errors.New("compiler: limits must not be negative")
	}
	if cfg.Mapping == nil {
		cfg.Mapping = fieldmap.Default()
	}
	logger := logging.Default(cfg.Logger)

	return &Compiler{
		mapping:    cfg.Mapping,
		logger:     logger.With("component", "compiler"),
		maxInput:   orDefault(cfg.MaxInputLength, DefaultMaxInputLength),
		maxDepth:   orDefault(cfg.MaxDepth, DefaultMaxDepth),
		maxClauses: orDefault(cfg.MaxClauses, DefaultMaxClauses),
		maxTerm:    orDefault(cfg.MaxTermLength, DefaultMaxTermLength),
	}, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Mapping returns the field mapping the compiler uses.
func (c *Compiler) Mapping() *fieldmap.Mapping {
	return c.mapping
}

// Compile parses and builds req.Query and merges req.Filter into the result.
// The query text is normalised to NFC first, so syntax error positions refer
// to the normalised text.
//
// Errors are *cql.SyntaxError or *LimitError for bad input (see IsUserError)
// and *fieldmap.ConfigurationError for mapping drift.
func (c *Compiler) Compile(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input := norm.NFC.String(req.Query)
	if len(input) > c.maxInput {
		return nil, &LimitError{Limit: c.maxInput, Actual: len(input), Err: ErrInputTooLong}
	}

	ast, err := cql.Parse(input)
	if err != nil {
		return nil, err
	}

	nesting := cql.Nesting(ast.Root)
	if nesting > c.maxDepth {
		return nil, &LimitError{Limit: c.maxDepth, Actual: nesting, Err: ErrTooDeep}
	}
	atoms := ast.Atoms()
	if len(atoms) > c.maxClauses {
		return nil, &LimitError{Limit: c.maxClauses, Actual: len(atoms), Err: ErrTooManyClauses}
	}
	for _, atom := range atoms {
		if n := utf8.RuneCountInString(atom.Term); n > c.maxTerm {
			return nil, &LimitError{Limit: c.maxTerm, Actual: n, Err: ErrTermTooLong}
		}
	}

	id := uuid.Must(uuid.NewV7()).String()
	logger := c.logger.With("id", id)

	b := Builder{
		Mapping: c.mapping,
		OnEmpty: func(atom *cql.Atomic) {
			logger.Warn("atomic query matches no fields",
				"scope", atom.Scope, "relation", atom.Relation, "pos", atom.Pos)
		},
	}
	q, err := b.Build(ast)
	if err != nil {
		logger.Error("build query", "error", err)
		return nil, err
	}
	q = MergeFilter(q, req.Filter)

	logger.Debug("compiled query", "atoms", len(atoms), "nesting", nesting, "filters", len(req.Filter))
	return &Result{ID: id, Query: q, AST: ast}, nil
}
