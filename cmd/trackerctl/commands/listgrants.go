package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func listGrantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listgrants",
		Short: "List available grants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grants, err := wire.Grants.ListGrants(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range grants {
				fmt.Fprintln(cmd.OutOrStdout(), g.ID, g.ShortName, g.FullName)
			}
			return nil
		},
	}
}
