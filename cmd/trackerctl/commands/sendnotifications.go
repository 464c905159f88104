package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sendNotificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sendnotifications",
		Short: "Mail every user their pending notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := wire.Digest.SendPending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d, skipped %d, failed %d\n", res.Sent, res.Skipped, res.Failed)
			return nil
		},
	}
}
