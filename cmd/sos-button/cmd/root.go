package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sos-beacon/internal/config"
	"github.com/oshokin/sos-beacon/internal/service/checker"
	"github.com/oshokin/sos-beacon/internal/service/client"
	"github.com/oshokin/sos-beacon/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// jsonOutput prints states as JSON.
	jsonOutput bool
	// pollInterval sets the watch polling interval.
	pollInterval = checker.DefaultPollInterval

	// rootCmd represents the base command for remote control of a beacon.
	rootCmd = &cobra.Command{
		Use:   "sos-button",
		Short: "Control a running SOS beacon over its gRPC API.",
		Long: `Remote control for sos-beacon.

Every subcommand accepts an optional [server-address] argument; otherwise the
control address from the configuration file is used. The current user and
hostname are reported to the beacon with every change.`,
		SilenceUsage: true,
	}
)

// Execute runs the sos-button CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newActionCommand builds a subcommand performing a single client action.
func newActionCommand(action client.Action, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " [server-address]",
		Short: short,
		Long:  long,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.Run(ctx, &client.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress(args),
				Action:        action,
				JSON:          jsonOutput,
				Output:        cmd.OutOrStdout(),
			})
		},
	}
}

// newWatchCommand builds the polling subcommand.
func newWatchCommand() *cobra.Command {
	watch := &cobra.Command{
		Use:   "watch [server-address]",
		Short: "Log every alert transition until interrupted.",
		Long: `Polls the beacon at a fixed interval and logs each change of the alert state,
including who changed it and whether the torch is available.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return checker.Run(ctx, &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress(args),
				PollInterval:  pollInterval,
			})
		},
	}

	watch.Flags().DurationVarP(&pollInterval, "interval", "i", checker.DefaultPollInterval, "polling interval")

	return watch
}

// serverAddress returns the optional address argument.
func serverAddress(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return ""
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")

	status := newActionCommand(client.ActionStatus,
		"Print the current alert state.",
		"Queries the beacon once and prints whether the alert is active, who changed it last and the torch state.")
	status.Flags().BoolVar(&jsonOutput, "json", false, "print the state as JSON")

	rootCmd.AddCommand(
		newActionCommand(client.ActionOn,
			"Start the SOS alert.",
			"Asks the beacon to start the alert, retrying every second until it confirms."),
		newActionCommand(client.ActionOff,
			"Stop the SOS alert.",
			"Asks the beacon to stop the alert, retrying every second until it confirms."),
		newActionCommand(client.ActionToggle,
			"Flip the SOS alert once.",
			"Starts the alert when it is idle and stops it when it is active."),
		status,
		newWatchCommand(),
	)
}
