package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"catalogcql/internal/batch"
	"catalogcql/internal/esquery"
)

// record is one batch outcome on the wire.
type record struct {
	Source string         `json:"source" msgpack:"source"`
	Query  string         `json:"query" msgpack:"query"`
	ID     string         `json:"id,omitempty" msgpack:"id,omitempty"`
	Result map[string]any `json:"result,omitempty" msgpack:"result,omitempty"`
	Error  string         `json:"error,omitempty" msgpack:"error,omitempty"`
}

func toRecord(o batch.Outcome) record {
	r := record{Source: o.Source, Query: o.Query}
	if o.Err != nil {
		r.Error = o.Err.Error()
		return r
	}
	r.ID = o.Result.ID
	r.Result = esquery.Source(o.Result.Query)
	return r
}

func (a *app) newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch PATTERN...",
		Short: "Compile every query in a set of query files",
		Long: `Compile every query in the files matching the glob patterns.

A query file holds one query per line; blank lines and lines starting with
# are skipped. One record per query is written, in file and line order, as
newline-delimited JSON or a msgpack stream. The command fails if any query
failed to compile.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := batch.Discover(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %v", args)
			}
			items, err := batch.ReadFiles(paths)
			if err != nil {
				return err
			}

			c, err := a.newCompiler(cmd)
			if err != nil {
				return err
			}
			workers, _ := cmd.Flags().GetInt("workers")
			outcomes, err := batch.Run(cmd.Context(), c, items, batch.Options{Workers: workers, Logger: a.logger})
			if err != nil {
				return err
			}

			p, err := newPrinter(a.stdout, outputFormat(cmd))
			if err != nil {
				return err
			}
			if p.format == formatTable {
				return fmt.Errorf("invalid output format %q", p.format)
			}
			p.indent = false
			if z, _ := cmd.Flags().GetBool("zstd"); z {
				if err := p.compress(); err != nil {
					return err
				}
			}

			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
				}
				if err := p.value(toRecord(o)); err != nil {
					return err
				}
			}
			if err := p.close(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d queries failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", formatJSON, "output format: json or msgpack")
	cmd.Flags().IntP("workers", "w", 0, "concurrent compilations (0: number of CPUs)")
	cmd.Flags().Bool("zstd", false, "zstd-compress the output")
	return cmd
}
