package monitor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sysalarm/internal/config"
	"sysalarm/internal/eventlog"
	"sysalarm/internal/logger"
	"sysalarm/internal/notifier"
	repo "sysalarm/internal/repository/rules"
	"sysalarm/internal/sampler"
)

// Options controls the monitor daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// AlarmsFile provides an optional alarm rules file override.
	AlarmsFile string
	// Interval provides an optional monitoring cadence override.
	Interval time.Duration
}

// Run starts the monitor daemon and blocks until the context is canceled:
// the monitor loop samples and evaluates, the pulse loop drives the
// attention flag, and a status loop plays the consumer reading the shared
// state the way a rendering layer would.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sysalarm")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.AlarmsFile != "" {
		cfg.AlarmsFile = opts.AlarmsFile
	}

	if opts.Interval > 0 {
		cfg.MonitorInterval = opts.Interval
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	events, err := eventlog.Open(cfg.EventLogPath)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	defer func() {
		_ = events.Close()
	}()

	manager := NewManager(ctx, ManagerOptions{
		Repository:  repo.NewFileRepository(cfg.AlarmsFile),
		Sampler:     sampler.NewProcSampler(),
		Events:      events,
		Notifier:    notifier.NewMailer(cfg.SMTP),
		Interval:    cfg.MonitorInterval,
		PulsePeriod: cfg.PulsePeriod,
		PulseActive: cfg.PulseActive,
		AlertOnAny:  cfg.AlertOnAny,
		OnPulse: func(active bool) {
			logger.DebugKV(ctx, "Pulse", "active", active)
		},
	})

	manager.Start(ctx)
	manager.StartPulse(ctx)

	logger.InfoKV(ctx, "Monitoring started",
		"interval", cfg.MonitorInterval.String(),
		"alarms_file", cfg.AlarmsFile,
		"event_log", cfg.EventLogPath,
		"alarms", len(manager.ListAlarms()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return statusLoop(gctx, manager, cfg.MonitorInterval)
	})

	g.Go(func() error {
		// Orderly shutdown once the context is done: the loops are
		// stopped with a context that survives cancellation so the
		// final events still reach the log.
		<-gctx.Done()

		stopCtx := context.WithoutCancel(gctx)
		manager.Stop(stopCtx)
		manager.StopPulse()

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Monitoring stopped")

	return nil
}

// statusLoop is the consumer task: it periodically reads the triggered
// alarm and pulse flag and reports them. Everything it sees is a copy,
// so it can never corrupt manager state.
func statusLoop(ctx context.Context, m *Manager, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			trig := m.TriggeredAlarm()
			if trig == nil {
				logger.DebugKV(ctx, "Status", "alarm", "none", "pulse", m.PulseActive())

				continue
			}

			logger.WarnKV(ctx, "ALARM ACTIVE",
				"alarm", trig.Rule.Name,
				"resource", trig.Rule.Resource,
				"value", formatValue(trig.Rule.Resource, trig.CurrentValue),
				"threshold", trig.Rule.Threshold,
				"since", trig.TriggeredAt.Format(time.RFC3339),
				"pulse", m.PulseActive())
		}
	}
}
