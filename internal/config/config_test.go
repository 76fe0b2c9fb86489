package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLoadMissingFileUsesDefaults verifies first-run behavior without a settings file.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, DefaultMonitorInterval, cfg.MonitorInterval)
	require.Equal(t, DefaultSMTPPort, cfg.SMTP.Port)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		AlarmsFile:      "custom-alarms.json",
		MonitorInterval: 5 * time.Second,
		AlertOnAny:      true,
		SMTP: SMTPConfig{
			Host:      "mail.local",
			Recipient: "ops@example.com",
		},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "custom-alarms.json", loaded.AlarmsFile)
	require.Equal(t, 5*time.Second, loaded.MonitorInterval)
	require.True(t, loaded.AlertOnAny)
	require.Equal(t, "mail.local", loaded.SMTP.Host)

	// Defaults filled in for fields the file omitted.
	require.Equal(t, DefaultPulsePeriod, loaded.PulsePeriod)
	require.Equal(t, DefaultSMTPTimeout, loaded.SMTP.Timeout)
}

// TestSaveNilConfig rejects nil settings.
func TestSaveNilConfig(t *testing.T) {
	t.Parallel()

	require.Error(t, Save(filepath.Join(t.TempDir(), "settings.yaml"), nil))
}
