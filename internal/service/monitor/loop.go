package monitor

import (
	"context"
	"time"

	"sysalarm/internal/eventlog"
	"sysalarm/internal/logger"
)

const (
	// stopGraceMargin is added to the interval when waiting for a loop to
	// observe cancellation.
	stopGraceMargin = time.Second

	// failurePause is the defensive pause after a failed cycle, so a
	// persistent fault cannot turn into a hot loop.
	failurePause = time.Second
)

// Start launches the monitor loop. It is idempotent: a second Start while
// running does nothing and reports false.
func (m *Manager) Start(ctx context.Context) bool {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	if m.loopCancel != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(logger.WithName(ctx, "monitor"))
	done := make(chan struct{})

	m.loopCancel = cancel
	m.loopDone = done

	go m.runMonitor(loopCtx, done)

	return true
}

// Stop requests cancellation and waits up to one interval plus a margin
// for the loop to exit. A loop that fails to exit in time is logged as a
// critical condition and the manager is marked stopped regardless.
func (m *Manager) Stop(ctx context.Context) {
	m.loopMu.Lock()
	cancel, done := m.loopCancel, m.loopDone
	m.loopCancel, m.loopDone = nil, nil
	m.loopMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()

	select {
	case <-done:
	case <-time.After(m.interval + stopGraceMargin):
		logger.ErrorKV(ctx, "Monitor loop failed to stop in time", "interval", m.interval.String())
		m.logEvent(ctx, "Monitor loop failed to stop", eventlog.CategoryCritical)
	}
}

// Running reports whether the monitor loop has been started and not stopped.
func (m *Manager) Running() bool {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	return m.loopCancel != nil
}

// runMonitor is the sampling-and-evaluation loop. Each tick is failure
// contained: a bad sample skips evaluation, a panic is recovered at the
// tick boundary, and in both cases the schedule resumes.
func (m *Manager) runMonitor(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.logEvent(ctx, "Alarm monitor started", eventlog.CategorySystem)
	defer m.logEvent(context.WithoutCancel(ctx), "Alarm monitor stopped", eventlog.CategorySystem)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		started := time.Now()

		if ok := m.tick(ctx); !ok {
			if !sleepWithContext(ctx, failurePause) {
				return
			}
		}

		// Sleep the remainder of the interval; a tick that overran
		// proceeds immediately rather than bursting to catch up.
		if wait := m.interval - time.Since(started); wait > 0 {
			if !sleepWithContext(ctx, wait) {
				return
			}
		}
	}
}

// tick performs one sampling-and-evaluation cycle. It reports false only
// when the cycle panicked; sampling failures are normal degraded
// operation and keep the previous triggered state untouched.
func (m *Manager) tick(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Monitor tick failed", "panic", r)
			m.logEvent(ctx, "Monitor loop error", eventlog.CategoryCritical)

			ok = false
		}
	}()

	usage, err := m.sampler.Sample(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Usage sampling failed, skipping evaluation", "error", err)
		m.logEvent(ctx, "Failed to get system usage data", eventlog.CategoryError)

		return true
	}

	if m.events != nil {
		count, err := m.events.Count(ctx)
		if err != nil {
			logger.ErrorKV(ctx, "Event log count failed, skipping evaluation", "error", err)

			return true
		}

		usage.LogCount = count
	}

	m.evaluate(ctx, usage)

	return true
}

// sleepWithContext waits for the duration or until the context is done.
// It reports whether the full duration elapsed.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
