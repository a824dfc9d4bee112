package compiler

import (
	"errors"
	"fmt"

	"catalogcql/internal/cql"
	"catalogcql/internal/fieldmap"
)

var (
	ErrInputTooLong   = errors.New("query too long")
	ErrTooDeep        = errors.New("query nested too deeply")
	ErrTooManyClauses = errors.New("too many clauses in query")
	ErrTermTooLong    = errors.New("search term too long")
)

// LimitError reports input rejected by a size limit before compilation.
type LimitError struct {
	Limit  int
	Actual int
	Err    error
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v: %d exceeds limit of %d", e.Err, e.Actual, e.Limit)
}

func (e *LimitError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether err was caused by the query text (a syntax
// error or a size limit) rather than by the deployment. Callers serving
// requests map user errors to a client error response.
func IsUserError(err error) bool {
	var se *cql.SyntaxError
	var le *LimitError
	return errors.As(err, &se) || errors.As(err, &le)
}

// IsConfigError reports whether err comes from a field mapping that does not
// match the grammar.
func IsConfigError(err error) bool {
	var ce *fieldmap.ConfigurationError
	return errors.As(err, &ce)
}
