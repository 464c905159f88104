package commands

import (
	"github.com/spf13/cobra"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/app"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var (
	logLevel string
	log      *zap.Logger
	wire     *app.Wire
)

// Execute runs the CLI
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Tracker maintenance commands",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			log, err = logger.New(&logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: "stderr",
			})
			if err != nil {
				return err
			}
			wire, err = app.NewWire(cfg, nil, log)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = log.Sync() }()
			return wire.Close()
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		sendNotificationsCmd(),
		requeueTicketsCmd(),
		updateMediaInfoCmd(),
		cacheTicketsCmd(),
		listGrantsCmd(),
		addExampleDataCmd(),
		emailCmd(),
	)
	return root
}
