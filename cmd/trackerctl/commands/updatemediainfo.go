package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func updateMediaInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "update_mediainfo",
		Aliases: []string{"update-mediainfo"},
		Short:   "Queue a media refresh for every active ticket with media",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := wire.Maintenance.ScheduleMediaUpdates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued media updates for %d tickets\n", n)
			return nil
		},
	}
}
