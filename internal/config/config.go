package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the sysalarm commands.
type Config struct {
	// AlarmsFile is the path to the JSON file storing alarm rules.
	AlarmsFile string `yaml:"alarms_file"`
	// EventLogPath is the path to the SQLite event log database.
	EventLogPath string `yaml:"event_log_path"`
	// LogLevel is the minimum console log level (debug, info, warn, error, fatal).
	LogLevel string `yaml:"log_level"`
	// MonitorInterval is the cadence of the sampling-and-evaluation loop.
	MonitorInterval time.Duration `yaml:"monitor_interval"`
	// PulsePeriod and PulseActive define the attention pulse duty cycle:
	// the flag is held up for PulseActive out of every PulsePeriod.
	PulsePeriod time.Duration `yaml:"pulse_period"`
	PulseActive time.Duration `yaml:"pulse_active"`
	// AlertOnAny sends a notification for every triggered alarm,
	// not only the security-relevant logs class.
	AlertOnAny bool `yaml:"alert_on_any"`
	// SMTP configures the outbound alert mail. Notifications are disabled
	// while Host or Recipient is empty.
	SMTP SMTPConfig `yaml:"smtp"`
}

// SMTPConfig carries the outbound mail settings.
type SMTPConfig struct {
	// Host is the SMTP server hostname. Empty disables notifications.
	Host string `yaml:"host"`
	// Port is the SMTP server port.
	Port int `yaml:"port"`
	// Username and Password are optional authentication credentials.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// UseSSL selects an implicit-TLS socket instead of STARTTLS.
	UseSSL bool `yaml:"use_ssl"`
	// Recipient is the alert destination address. Empty disables notifications.
	Recipient string `yaml:"recipient"`
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "sysalarm-settings.yaml"

	// DefaultAlarmsFilename is the default filename for the alarm rules JSON.
	DefaultAlarmsFilename = "alarms.json"

	// DefaultEventLogFilename is the default filename for the event log database.
	DefaultEventLogFilename = "sysalarm-events.db"

	// DefaultMonitorInterval is the default monitoring cadence.
	DefaultMonitorInterval = 2 * time.Second

	// DefaultPulsePeriod and DefaultPulseActive define the default pulse
	// duty cycle: up for two seconds out of every ten.
	DefaultPulsePeriod = 10 * time.Second
	DefaultPulseActive = 2 * time.Second

	// DefaultSMTPPort is the standard submission port (STARTTLS).
	DefaultSMTPPort = 587

	// DefaultSMTPTimeout bounds a single delivery attempt.
	DefaultSMTPTimeout = 10 * time.Second

	// DefaultFilePermissions is the default file permission for config and data files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration with every field at its default value.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path and applies defaults.
// A missing file is not an error: the monitor runs fine on defaults,
// so first-run users are not forced to write a settings file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	applyDefaults(cfg)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions: the file may carry SMTP credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued fields in place.
func applyDefaults(cfg *Config) {
	if cfg.AlarmsFile == "" {
		cfg.AlarmsFile = DefaultAlarmsFilename
	}

	if cfg.EventLogPath == "" {
		cfg.EventLogPath = DefaultEventLogFilename
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = DefaultMonitorInterval
	}

	if cfg.PulsePeriod <= 0 {
		cfg.PulsePeriod = DefaultPulsePeriod
	}

	if cfg.PulseActive <= 0 {
		cfg.PulseActive = DefaultPulseActive
	}

	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = DefaultSMTPPort
	}

	if cfg.SMTP.Timeout <= 0 {
		cfg.SMTP.Timeout = DefaultSMTPTimeout
	}
}
