// Command cqlc compiles CQL catalog queries into search-engine bool queries.
//
// Logging:
//   - The base logger is built from --log-level and --log-format
//   - It is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"fmt"
	"os"

	"catalogcql/cmd/cqlc/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCommand(os.Stdout, os.Stderr, version).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
