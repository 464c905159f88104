package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func cacheTicketsCmd() *cobra.Command {
	var (
		basePath   string
		doArchived bool
	)
	cmd := &cobra.Command{
		Use:   "cachetickets",
		Short: "Rebuild the ticket listing cache and write it as static JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := wire.Config.Tracker.Languages
			if err := wire.Rows.Warm(cmd.Context(), langs); err != nil {
				return err
			}
			dir := basePath
			if dir == "" {
				dir = filepath.Join(wire.Config.Tracker.PublicDeployRoot, "tickets")
			}
			return wire.Rows.WriteFiles(cmd.Context(), dir, langs, doArchived)
		},
	}
	cmd.Flags().StringVar(&basePath, "base-path", "", "output directory (default <public deploy root>/tickets)")
	cmd.Flags().BoolVar(&doArchived, "do-archived", false, "rewrite the archived listings too")
	return cmd
}
