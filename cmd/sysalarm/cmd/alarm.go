package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sysalarm/internal/config"
	"sysalarm/internal/eventlog"
	rules "sysalarm/internal/repository/rules"
	"sysalarm/internal/service/monitor"
)

var (
	// addResource, addThreshold, addName and addPeriod back the `alarm add` flags.
	addResource  string
	addThreshold int
	addName      string
	addPeriod    string

	// alarmCmd groups the alarm rule management subcommands.
	alarmCmd = &cobra.Command{
		Use:   "alarm",
		Short: "Manage alarm rules.",
	}

	// alarmAddCmd creates a new alarm rule.
	alarmAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a new alarm rule.",
		Long: `Adds an alarm rule for a resource (cpu, ram, disk or logs) with a
threshold: a percentage from 1 to 100 for cpu, ram and disk, a positive
event count for logs. The active period restricts when the rule may fire:
always, day, night, office or non-office.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd.Context(), func(ctx context.Context, m *monitor.Manager) error {
				id, err := m.AddAlarm(ctx, addResource, addThreshold, addName, addPeriod)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Alarm added: %s\n", id)

				return nil
			})
		},
	}

	// alarmRemoveCmd deletes an alarm rule by id.
	alarmRemoveCmd = &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an alarm rule by id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(ctx context.Context, m *monitor.Manager) error {
				if !m.RemoveAlarm(ctx, args[0]) {
					return errors.New("no alarm with id " + args[0])
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Alarm removed")

				return nil
			})
		},
	}

	// alarmListCmd prints the stored rules in display order.
	alarmListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the stored alarm rules.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd.Context(), func(_ context.Context, m *monitor.Manager) error {
				list := m.ListAlarms()
				if len(list) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No alarms configured")

					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tNAME\tRESOURCE\tTHRESHOLD\tPERIOD")

				for _, r := range list {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%s\t%s\n",
						r.ID, r.Name, r.Resource, r.Threshold, r.Resource.Unit(), r.Period)
				}

				return w.Flush()
			})
		},
	}
)

// withManager runs fn against a manager wired to the configured stores,
// without starting any background loops.
func withManager(ctx context.Context, fn func(context.Context, *monitor.Manager) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if alarmsFile != "" {
		cfg.AlarmsFile = alarmsFile
	}

	events, err := eventlog.Open(cfg.EventLogPath)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	defer func() {
		_ = events.Close()
	}()

	m := monitor.NewManager(ctx, monitor.ManagerOptions{
		Repository: rules.NewFileRepository(cfg.AlarmsFile),
		Events:     events,
	})

	return fn(ctx, m)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	alarmAddCmd.Flags().StringVarP(&addResource, "resource", "r", "", "resource to watch: cpu, ram, disk or logs")
	alarmAddCmd.Flags().IntVarP(&addThreshold, "threshold", "t", 0, "alarm threshold (percent, or count for logs)")
	alarmAddCmd.Flags().StringVarP(&addName, "name", "n", "", "display name (derived from the rule when empty)")
	alarmAddCmd.Flags().StringVarP(&addPeriod, "period", "p", "", "active period: always, day, night, office or non-office")

	_ = alarmAddCmd.MarkFlagRequired("resource")
	_ = alarmAddCmd.MarkFlagRequired("threshold")

	alarmCmd.AddCommand(alarmAddCmd, alarmRemoveCmd, alarmListCmd)
	rootCmd.AddCommand(alarmCmd)
}
