package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sysalarm/internal/config"
	"sysalarm/internal/service/monitor"
	"sysalarm/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// alarmsFile overrides the alarm rules file from the configuration.
	alarmsFile string
	// interval overrides the monitoring cadence from the configuration.
	interval time.Duration

	// rootCmd represents the base command running the monitor daemon.
	rootCmd = &cobra.Command{
		Use:   "sysalarm",
		Short: "Monitor system resources and raise threshold alarms.",
		Long: `Samples CPU, RAM, disk and event log counters on a fixed cadence and
evaluates the stored alarm rules against each snapshot.

At most one alarm is active at a time: within a resource the rule with the
highest breached threshold wins, and across resources a later resource in
the cpu, ram, disk, logs order overrides an earlier one. Rules outside
their active period are ignored for that cycle.

Security-relevant alarms on the event log count are reported by email when
SMTP delivery is configured. Alarm rules are managed with the "alarm"
subcommands and the event log is inspected with "logs".`,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &monitor.Options{
				ConfigPath: configPath,
				AlarmsFile: alarmsFile,
				Interval:   interval,
			}

			return monitor.Run(ctx, options)
		},
	}
)

// Execute runs the sysalarm CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&alarmsFile, "alarms-file", "a", "", "path to the alarm rules file (overrides configuration)")
	rootCmd.Flags().
		DurationVarP(&interval, "interval", "i", 0, "monitoring interval (overrides configuration)")
}
