package commands

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func requeueTicketsCmd() *cobra.Command {
	var idFile string
	cmd := &cobra.Command{
		Use:   "requeuetickets [ticket-id...]",
		Short: "Queue the wiki template edits of the given tickets again",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseTicketIDs(args)
			if err != nil {
				return err
			}
			if idFile != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Reading ticket ids from file %s...\n", idFile)
				more, err := readTicketIDFile(idFile)
				if err != nil {
					return err
				}
				ids = append(ids, more...)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Got %d ticket ids. Processing...\n", len(ids))
			n, err := wire.Maintenance.RequeueTickets(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done, %d media queued.\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&idFile, "ticket-id-file", "", "file with one ticket id per line")
	return cmd
}

func parseTicketIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ticket id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// readTicketIDFile skips lines that are not plain numbers
func readTicketIDFile(name string) ([]int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		id, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
		if err != nil || id < 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids, sc.Err()
}
