package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
)

func addExampleDataCmd() *cobra.Command {
	var (
		counts = apptracker.DefaultExampleCounts()
		only   string
		skip   string
		seed   uint64
	)
	cmd := &cobra.Command{
		Use:   "addexampledata",
		Short: "Add example data to the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := apptracker.SelectExampleKinds(only, skip)
			if err != nil {
				return err
			}
			r := wire.Repos
			gen := apptracker.NewExampleDataGenerator(r.Users, r.Grants, r.Topics, r.Subtopics, r.Tickets, seed, log)
			res, err := gen.Generate(cmd.Context(), kinds, counts)
			for _, k := range kinds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", k, res[k])
			}
			if err != nil {
				return err
			}
			// Cached listings predate the new tickets.
			return wire.Rows.Warm(cmd.Context(), wire.Config.Tracker.Languages)
		},
	}
	f := cmd.Flags()
	f.IntVar(&counts.Users, "users", counts.Users, "amount of users to generate")
	f.IntVar(&counts.Grants, "grants", counts.Grants, "amount of grants to generate")
	f.IntVar(&counts.Topics, "topics", counts.Topics, "amount of topics to generate")
	f.IntVar(&counts.Subtopics, "subtopics", counts.Subtopics, "amount of subtopics to generate")
	f.IntVar(&counts.Tickets, "tickets", counts.Tickets, "amount of tickets to generate")
	f.StringVar(&only, "only-generate", "", "comma separated kinds to generate; later kinds need earlier ones")
	f.StringVar(&skip, "do-not-generate", "", "comma separated kinds to skip")
	f.Uint64Var(&seed, "seed", 0, "random seed, 0 for a random one")
	return cmd
}
