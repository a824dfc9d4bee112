// Package logging provides the slog plumbing shared by the compiler, the
// batch runner and the cqlc command.
//
// Conventions:
//   - Loggers are passed in, never taken from a global
//   - A component scopes its logger once, with a "component" attribute
//   - A nil logger means discard
//
// Only main builds handlers (NewHandler, NewComponentFilterHandler).
// Nothing calls slog.SetDefault.
//
// Logging stays out of the lexer and parser; compilation boundaries and batch
// lifecycle are the log points.
package logging

import (
	"context"
	"log/slog"
)

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns logger, or a discard logger if it is nil:
//
//	func New(cfg Config) *Compiler {
//	    logger := logging.Default(cfg.Logger)
//	    return &Compiler{logger: logger.With("component", "compiler")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
