package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"catalogcql/internal/fieldmap"
)

func (a *app) newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in field mapping to the home directory for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hd, err := resolveHome(cmd)
			if err != nil {
				return fmt.Errorf("resolve home directory: %w", err)
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := hd.WriteMapping(fieldmap.DefaultYAML(), force); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, hd.MappingPath())
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing mapping")
	return cmd
}
