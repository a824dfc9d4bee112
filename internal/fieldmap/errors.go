package fieldmap

import (
	"errors"
	"fmt"

	"catalogcql/internal/cql"
)

var (
	ErrUnknownScope     = errors.New("scope not in mapping")
	ErrMissingScope     = errors.New("grammar scope missing from mapping")
	ErrUnknownPredicate = errors.New("unknown predicate")
	ErrBadPattern       = errors.New("invalid match pattern")
	ErrEmptyField       = errors.New("empty field name")
	ErrDateRange        = errors.New("invalid date range target")
)

// ConfigurationError reports a field mapping that does not agree with the
// grammar, or that cannot be loaded. It is a deployment defect, not a user
// input error.
type ConfigurationError struct {
	Scope   cql.Scope // empty when the problem is not tied to one scope
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("field mapping: %s", e.Message)
	}
	return fmt.Sprintf("field mapping: scope %q: %s", e.Scope, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func newConfigError(scope cql.Scope, err error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Scope:   scope,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
