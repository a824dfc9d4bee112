package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"catalogcql/internal/cql"
	"catalogcql/internal/fieldmap"
)

type fieldView struct {
	Section string `json:"section" msgpack:"section"`
	Match   string `json:"match" msgpack:"match"`
	Field   string `json:"field" msgpack:"field"`
}

func (a *app) newFieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields [SCOPE [TERM]]",
		Short: "Show the fields a scope searches",
		Long: `Show the fields a scope searches for a term.

Conditional fields are included only when the term satisfies their
predicate, so the same scope may resolve differently for different terms.
Without arguments the whole mapping is printed as YAML.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadMapping(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				data, err := fieldmap.Marshal(m)
				if err != nil {
					return err
				}
				_, err = a.stdout.Write(data)
				return err
			}

			scope := cql.Scope(args[0])
			if !scope.Valid() {
				names := make([]string, 0, len(cql.Scopes()))
				for _, s := range cql.Scopes() {
					names = append(names, string(s))
				}
				return fmt.Errorf("unknown scope %q (valid: %s)", scope, strings.Join(names, ", "))
			}
			var term string
			if len(args) == 2 {
				term = args[1]
			}

			fs, err := m.FieldsFor(scope, term)
			if err != nil {
				return err
			}
			var views []fieldView
			for _, sec := range []struct {
				name string
				b    fieldmap.Bucket
			}{
				{"main", fs.Main},
				{fieldmap.PathItems, fs.Items},
				{fieldmap.PathHoldings, fs.Holdings},
			} {
				for _, f := range sec.b.FullText {
					views = append(views, fieldView{sec.name, "full-text", f})
				}
				for _, f := range sec.b.Prefix {
					views = append(views, fieldView{sec.name, "prefix", f})
				}
				for _, f := range sec.b.Term {
					views = append(views, fieldView{sec.name, "term", f})
				}
			}

			p, err := newPrinter(a.stdout, outputFormat(cmd))
			if err != nil {
				return err
			}
			if p.format != formatTable {
				if views == nil {
					views = []fieldView{}
				}
				return p.value(views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Section, v.Match, v.Field})
			}
			p.table([]string{"SECTION", "MATCH", "FIELD"}, rows)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", formatTable, "output format: table, json or msgpack")
	return cmd
}
