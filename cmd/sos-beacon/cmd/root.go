package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sos-beacon/internal/config"
	"github.com/oshokin/sos-beacon/internal/service/beacon"
	"github.com/oshokin/sos-beacon/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// headless replaces the terminal UI with log output.
	headless bool
	// allowMultiple skips the single instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the beacon.
	rootCmd = &cobra.Command{
		Use:   "sos-beacon [listen-address]",
		Short: "Signal SOS with the screen, the speaker and the flash LED.",
		Long: `Runs the SOS beacon: a full-screen terminal overlay flashing the Morse SOS
pattern, a wailing siren and the camera flash LED pulsing in sync.

Press space or enter to start and stop the alert, q to quit.
The alert can also be driven remotely through the gRPC control API and the
optional websocket bridge. Listen address can be provided as argument to
override the control address from the configuration file (e.g., :7311).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &beacon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				Headless:      headless,
				AllowMultiple: allowMultiple,
			}

			return beacon.Run(ctx, options)
		},
	}
)

// Execute runs the sos-beacon CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "log the alert instead of drawing the terminal overlay")

	// Hidden flag for running a second beacon during development.
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single instance check")

	err := rootCmd.Flags().MarkHidden("allow-multiple")
	if err != nil {
		panic(err)
	}
}
