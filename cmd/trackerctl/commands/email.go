package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	appnotification "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
)

func emailCmd() *cobra.Command {
	var (
		to      string
		subject string
		body    string
		file    string
	)
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Send a mandatory notice to users, topic admins or roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				body = string(b)
			}
			if subject == "" || body == "" {
				return errors.New("both a subject and a body are required")
			}
			n, err := wire.Broadcast.Send(cmd.Context(), appnotification.Audience(to), subject, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d messages\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", string(appnotification.AudienceUsers), "audience: users, admins or roots")
	cmd.Flags().StringVar(&subject, "subject", "", "subject, prefixed with [Tracker]")
	cmd.Flags().StringVar(&body, "body", "", "HTML body")
	cmd.Flags().StringVar(&file, "file", "", "read the HTML body from a file")
	return cmd
}
