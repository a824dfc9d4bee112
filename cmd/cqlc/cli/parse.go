package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"catalogcql/internal/cql"
)

type atomView struct {
	Pos      int      `json:"pos" msgpack:"pos"`
	Scope    string   `json:"scope" msgpack:"scope"`
	Relation string   `json:"relation" msgpack:"relation"`
	Term     string   `json:"term" msgpack:"term"`
	Raw      []string `json:"raw" msgpack:"raw"`
}

type parseView struct {
	Input   string     `json:"input" msgpack:"input"`
	AST     string     `json:"ast" msgpack:"ast"`
	Depth   int        `json:"depth" msgpack:"depth"`
	Nesting int        `json:"nesting" msgpack:"nesting"`
	Atoms   []atomView `json:"atoms" msgpack:"atoms"`
}

func (a *app) newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [QUERY]",
		Short: "Parse a CQL query and show its structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}
			q, err := cql.Parse(norm.NFC.String(query))
			if err != nil {
				return pointAt(query, err)
			}

			view := parseView{Input: q.Input, AST: q.String(), Depth: cql.Depth(q.Root), Nesting: cql.Nesting(q.Root)}
			for _, atom := range q.Atoms() {
				view.Atoms = append(view.Atoms, atomView{
					Pos:      atom.Pos,
					Scope:    string(atom.Scope),
					Relation: string(atom.Relation),
					Term:     atom.Term,
					Raw:      atom.Raw,
				})
			}

			p, err := newPrinter(a.stdout, outputFormat(cmd))
			if err != nil {
				return err
			}
			if p.format != formatTable {
				return p.value(view)
			}

			p.kv([][2]string{
				{"AST", view.AST},
				{"Depth", strconv.Itoa(view.Depth)},
				{"Nesting", strconv.Itoa(view.Nesting)},
			})
			_, _ = a.stdout.Write([]byte("\n"))
			var rows [][]string
			for _, atom := range view.Atoms {
				rows = append(rows, []string{
					strconv.Itoa(atom.Pos), atom.Scope, atom.Relation,
					strconv.Quote(atom.Term), strings.Join(atom.Raw, " | "),
				})
			}
			p.table([]string{"POS", "SCOPE", "RELATION", "TERM", "RAW"}, rows)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", formatTable, "output format: table, json or msgpack")
	return cmd
}
