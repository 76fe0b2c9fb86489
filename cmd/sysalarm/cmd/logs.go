package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sysalarm/internal/config"
	"sysalarm/internal/eventlog"
)

var (
	// logsLimit and logsSearch back the `logs` flags.
	logsLimit  int
	logsSearch string

	// logsCmd prints recent event log entries, newest first.
	logsCmd = &cobra.Command{
		Use:   "logs",
		Short: "Show recent event log entries.",
		Long: `Prints the newest event log entries. The optional search term filters by
a substring match on the message or the category.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			events, err := eventlog.Open(cfg.EventLogPath)
			if err != nil {
				return fmt.Errorf("open event log: %w", err)
			}

			defer func() {
				_ = events.Close()
			}()

			entries, err := events.Recent(cmd.Context(), logsLimit, logsSearch)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No events recorded")

				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
					e.TS.Local().Format(time.DateTime), e.Category, e.Message)
			}

			return w.Flush()
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "l", 50, "maximum number of entries to print")
	logsCmd.Flags().StringVarP(&logsSearch, "search", "s", "", "filter entries by substring")

	rootCmd.AddCommand(logsCmd)
}
