package cli

import (
	"github.com/spf13/cobra"

	"catalogcql/internal/repl"
)

func (a *app) newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Compile queries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newCompiler(cmd)
			if err != nil {
				return err
			}
			return repl.New(c, cmd.InOrStdin(), a.stdout).Run(cmd.Context())
		},
	}
}
