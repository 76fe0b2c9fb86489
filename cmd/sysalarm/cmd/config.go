package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sysalarm/internal/config"
)

// initConfigCmd writes a settings file filled with defaults as a starting
// point for editing. An existing file is never overwritten.
var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a settings file populated with defaults.",
	Long: `Creates the settings YAML at the configured path with every field set to
its default value. Refuses to touch an existing file: the settings may
carry SMTP credentials that must not be lost.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("settings file already exists: %s", configPath)
		}

		if err := config.Save(configPath, config.Default()); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", configPath)

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(initConfigCmd)
}
