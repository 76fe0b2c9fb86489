package monitor

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sysalarm/internal/config"
	domain "sysalarm/internal/domain/alarm"
	"sysalarm/internal/eventlog"
	"sysalarm/internal/logger"
	repo "sysalarm/internal/repository/rules"
	"sysalarm/internal/sampler"
)

// EventLog is the slice of the event log the manager depends on: an
// append-only sink that can also report its size for the logs resource.
type EventLog interface {
	Append(ctx context.Context, message, category string) error
	Count(ctx context.Context) (int, error)
}

// Notifier delivers best-effort alert notifications.
type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, subject, body string) error
}

// ManagerOptions carries the manager's collaborators and tuning knobs.
// Zero durations fall back to the config defaults; a nil Now uses the
// wall clock.
type ManagerOptions struct {
	// Repository persists the alarm rule set.
	Repository repo.Repository
	// Sampler produces usage snapshots each tick.
	Sampler sampler.Sampler
	// Events is the event log; also the data source for logs alarms.
	Events EventLog
	// Notifier delivers alert mail; may be nil to disable notifications.
	Notifier Notifier
	// Interval is the monitoring cadence.
	Interval time.Duration
	// PulsePeriod and PulseActive define the attention pulse duty cycle.
	PulsePeriod time.Duration
	PulseActive time.Duration
	// AlertOnAny notifies for every alarm class, not only logs.
	AlertOnAny bool
	// OnPulse observes attention flag transitions, the way a display layer
	// flashes an indicator. It runs on the pulse goroutine; a panic inside
	// it is contained as a failed cycle. May be nil.
	OnPulse func(active bool)
	// Now supplies timestamps and the evaluation hour; injectable for tests.
	Now func() time.Time
}

// Manager owns all shared monitor state: the rule set, the single
// triggered alarm and the pulse flag. One mutex guards the rule set and
// the triggered pointer; the pulse flag has a single writer and is a
// plain atomic. Both background loops and the consumer-facing
// administrative surface hang off this struct, so nothing lives in
// package globals.
type Manager struct {
	repo       repo.Repository
	sampler    sampler.Sampler
	events     EventLog
	notify     Notifier
	interval   time.Duration
	pulsePer   time.Duration
	pulseUp    time.Duration
	alertOnAny bool
	onPulse    func(active bool)
	now        func() time.Time

	// mu protects rules and triggered.
	mu        sync.RWMutex
	rules     []domain.Rule
	triggered *domain.Triggered

	// pulseFlag is written only by the pulse loop.
	pulseFlag  atomic.Bool
	pulseCount atomic.Int64

	// loopMu serializes Start/Stop of the monitor loop.
	loopMu     sync.Mutex
	loopCancel context.CancelFunc
	loopDone   chan struct{}

	// pulseMu serializes StartPulse/StopPulse.
	pulseMu     sync.Mutex
	pulseCancel context.CancelFunc
	pulseDone   chan struct{}
}

// NewManager creates a manager and loads the persisted rule set. A rule
// file that is missing or corrupt never fails construction: the manager
// starts with an empty set and records the problem.
func NewManager(ctx context.Context, opts ManagerOptions) *Manager {
	m := &Manager{
		repo:       opts.Repository,
		sampler:    opts.Sampler,
		events:     opts.Events,
		notify:     opts.Notifier,
		interval:   opts.Interval,
		pulsePer:   opts.PulsePeriod,
		pulseUp:    opts.PulseActive,
		alertOnAny: opts.AlertOnAny,
		onPulse:    opts.OnPulse,
		now:        opts.Now,
	}

	if m.interval <= 0 {
		m.interval = config.DefaultMonitorInterval
	}

	if m.pulsePer <= 0 {
		m.pulsePer = config.DefaultPulsePeriod
	}

	if m.pulseUp <= 0 {
		m.pulseUp = config.DefaultPulseActive
	}

	if m.onPulse == nil {
		m.onPulse = func(bool) {}
	}

	if m.now == nil {
		m.now = time.Now
	}

	if m.repo != nil {
		loaded, err := m.repo.Load(ctx)
		if err != nil {
			logger.ErrorKV(ctx, "Failed to load alarm rules, starting with an empty set", "error", err)
			m.logEvent(ctx, "Error loading alarms", eventlog.CategoryError)
		} else {
			m.rules = loaded
			m.logEvent(ctx, fmt.Sprintf("Loaded %d alarms from disk", len(loaded)), eventlog.CategoryInfo)
		}
	}

	return m
}

// AddAlarm validates and stores a new rule, returning its generated id.
// Validation failures are returned to the caller; persistence failures
// are logged and swallowed so the in-memory set stays authoritative.
func (m *Manager) AddAlarm(ctx context.Context, resource string, threshold int, name, period string) (string, error) {
	res, err := domain.ParseResource(resource)
	if err != nil {
		return "", err
	}

	if err := res.ValidateThreshold(threshold); err != nil {
		return "", err
	}

	per, err := domain.ParsePeriod(period)
	if err != nil {
		return "", err
	}

	if name == "" {
		name = domain.DefaultRuleName(res, threshold)
	}

	rule := domain.Rule{
		ID:        uuid.NewString(),
		Name:      name,
		Resource:  res,
		Threshold: threshold,
		Period:    per,
	}

	m.mu.Lock()
	m.rules = append(m.rules, rule)
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.logEvent(ctx, fmt.Sprintf("Alarm added: %s (%s %d)", rule.Name, rule.Resource, rule.Threshold),
		eventlog.CategoryAlarmConfig)

	return rule.ID, nil
}

// RemoveAlarm deletes the rule with the given id and reports whether a
// rule was removed. Removing the currently triggered rule clears the
// triggered state as well.
func (m *Manager) RemoveAlarm(ctx context.Context, id string) bool {
	m.mu.Lock()

	kept := m.rules[:0]
	for _, r := range m.rules {
		if r.ID != id {
			kept = append(kept, r)
		}
	}

	removed := len(kept) != len(m.rules)
	m.rules = kept

	if removed {
		if m.triggered != nil && m.triggered.Rule.ID == id {
			m.triggered = nil
		}

		m.persistLocked(ctx)
	}

	m.mu.Unlock()

	if removed {
		m.logEvent(ctx, "Alarm removed: "+id, eventlog.CategoryAlarmConfig)
	}

	return removed
}

// ListAlarms returns a display-ordered copy of the rule set.
func (m *Manager) ListAlarms() []domain.Rule {
	rules := m.snapshotRules()
	domain.SortRules(rules)

	return rules
}

// TriggeredAlarm returns a copy of the current triggered alarm, or nil.
func (m *Manager) TriggeredAlarm() *domain.Triggered {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.triggered.Clone()
}

// Acknowledge clears the triggered alarm until the next evaluation cycle
// re-establishes it.
func (m *Manager) Acknowledge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.triggered = nil
}

// PulseActive reports the current attention pulse flag.
func (m *Manager) PulseActive() bool {
	return m.pulseFlag.Load()
}

// PulseCount returns the number of completed pulse activations.
func (m *Manager) PulseCount() int64 {
	return m.pulseCount.Load()
}

// snapshotRules returns a stable copy of the rule set for lock-free use.
func (m *Manager) snapshotRules() []domain.Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rules := make([]domain.Rule, len(m.rules))
	copy(rules, m.rules)

	return rules
}

// setTriggered publishes the evaluation result as a single pointer swap.
func (m *Manager) setTriggered(t *domain.Triggered) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.triggered = t
}

// persistLocked saves the rule set best-effort. Callers hold m.mu.
func (m *Manager) persistLocked(ctx context.Context) {
	if m.repo == nil {
		return
	}

	if err := m.repo.Save(ctx, m.rules); err != nil {
		logger.ErrorKV(ctx, "Failed to persist alarm rules", "error", err)
	}
}

// logEvent appends to the event log, swallowing sink failures: the log
// must never raise back into the monitor.
func (m *Manager) logEvent(ctx context.Context, message, category string) {
	if m.events == nil {
		return
	}

	if err := m.events.Append(ctx, message, category); err != nil {
		logger.WarnKV(ctx, "Event log write failed", "error", err, "message", message)
	}
}

// formatValue renders a metric value with its unit for events and mail.
func formatValue(resource domain.Resource, value float64) string {
	if resource == domain.ResourceLogs {
		return strconv.Itoa(int(value))
	}

	return fmt.Sprintf("%.1f%%", value)
}
