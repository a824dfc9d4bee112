package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/theory/jsonpath"
	"golang.org/x/text/unicode/norm"

	"catalogcql/internal/compiler"
	"catalogcql/internal/cql"
	"catalogcql/internal/esquery"
)

func (a *app) newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [QUERY]",
		Short: "Compile a CQL query",
		Long: `Compile a CQL query into a bool query document.

The query is read from the argument, or from stdin when the argument is
missing or "-". Filter clauses given with --filter or --filter-file are
ANDed with the query as bool filter clauses.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}
			filter, err := readFilter(cmd)
			if err != nil {
				return err
			}

			c, err := a.newCompiler(cmd)
			if err != nil {
				return err
			}
			res, err := c.Compile(cmd.Context(), compiler.Request{Query: query, Filter: filter})
			if err != nil {
				if compiler.IsUserError(err) {
					return pointAt(query, err)
				}
				return err
			}

			var doc any = esquery.Source(res.Query)
			if expr, _ := cmd.Flags().GetString("select"); expr != "" {
				if doc, err = selectPath(doc, expr); err != nil {
					return err
				}
			}

			p, err := newPrinter(a.stdout, outputFormat(cmd))
			if err != nil {
				return err
			}
			if p.format == formatTable {
				return fmt.Errorf("invalid output format %q", p.format)
			}
			if compact, _ := cmd.Flags().GetBool("compact"); compact {
				p.indent = false
			}
			if z, _ := cmd.Flags().GetBool("zstd"); z {
				if err := p.compress(); err != nil {
					return err
				}
			}
			if err := p.value(doc); err != nil {
				return err
			}
			return p.close()
		},
	}

	cmd.Flags().StringP("output", "o", formatJSON, "output format: json or msgpack")
	cmd.Flags().String("filter", "", "filter clauses as JSON (an object or an array of objects)")
	cmd.Flags().String("filter-file", "", "read filter clauses from a JSON file")
	cmd.Flags().String("select", "", "print only the nodes matching this JSONPath expression")
	cmd.Flags().Bool("compact", false, "write JSON on a single line")
	cmd.Flags().Bool("zstd", false, "zstd-compress the output")
	cmd.MarkFlagsMutuallyExclusive("filter", "filter-file")

	return cmd
}

func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func readFilter(cmd *cobra.Command) ([]esquery.Query, error) {
	text, _ := cmd.Flags().GetString("filter")
	data := []byte(text)
	if path, _ := cmd.Flags().GetString("filter-file"); path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read filter: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, nil
	}
	return esquery.ParseRaw(data)
}

// selectPath evaluates a JSONPath expression against doc and returns the
// matched nodes as a list.
func selectPath(doc any, expr string) (any, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid --select expression: %w", err)
	}
	// The selector walks plain JSON values.
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	nodes := path.Select(generic)
	out := make([]any, len(nodes))
	copy(out, nodes)
	return out, nil
}

// pointAt decorates a user error with the query text and a caret under the
// offending position, when the error carries one.
func pointAt(query string, err error) error {
	var se *cql.SyntaxError
	if !errors.As(err, &se) {
		return err
	}
	return fmt.Errorf("%w\n%s", err, cql.Indicate(norm.NFC.String(query), se.Pos))
}
