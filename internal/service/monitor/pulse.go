package monitor

import (
	"context"
	"time"

	"sysalarm/internal/logger"
)

// StartPulse launches the attention pulse loop, which raises the pulse
// flag for the configured active window out of every period. It is
// independent of the monitor loop and idempotent in the same way.
func (m *Manager) StartPulse(ctx context.Context) bool {
	m.pulseMu.Lock()
	defer m.pulseMu.Unlock()

	if m.pulseCancel != nil {
		return false
	}

	pulseCtx, cancel := context.WithCancel(logger.WithName(ctx, "pulse"))
	done := make(chan struct{})

	m.pulseCancel = cancel
	m.pulseDone = done

	go m.runPulse(pulseCtx, done)

	return true
}

// StopPulse requests cancellation. The join is best-effort; the loop
// guarantees the flag ends up false on any exit path.
func (m *Manager) StopPulse() {
	m.pulseMu.Lock()
	cancel, done := m.pulseCancel, m.pulseDone
	m.pulseCancel, m.pulseDone = nil, nil
	m.pulseMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()

	select {
	case <-done:
	case <-time.After(stopGraceMargin):
	}
}

// PulseRunning reports whether the pulse loop has been started and not stopped.
func (m *Manager) PulseRunning() bool {
	m.pulseMu.Lock()
	defer m.pulseMu.Unlock()

	return m.pulseCancel != nil
}

// runPulse drives the duty cycle. The flag must never remain raised after
// an error or after the loop exits, so it is forced down on both paths.
func (m *Manager) runPulse(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer m.pulseFlag.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok := m.pulseCycle(ctx); !ok {
			m.pulseFlag.Store(false)

			if !sleepWithContext(ctx, failurePause) {
				return
			}
		}
	}
}

// pulseCycle performs one activation: flag up for the active window, down
// for the remainder of the period (clamped at zero when active >= period).
func (m *Manager) pulseCycle(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Pulse cycle failed", "panic", r)

			ok = false
		}
	}()

	m.pulseFlag.Store(true)
	m.pulseCount.Add(1)
	m.onPulse(true)

	if !sleepWithContext(ctx, m.pulseUp) {
		return true
	}

	m.pulseFlag.Store(false)
	m.onPulse(false)

	if rest := m.pulsePer - m.pulseUp; rest > 0 {
		sleepWithContext(ctx, rest)
	}

	return true
}
