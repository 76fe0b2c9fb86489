package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domain "sysalarm/internal/domain/alarm"
)

// TestEvaluateHighestThresholdWins: with two breached cpu rules the one
// closest to the measured value is reported.
func TestEvaluateHighestThresholdWins(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "cpu", 70, "", "")
	require.NoError(t, err)
	_, err = m.AddAlarm(context.Background(), "cpu", 85, "", "")
	require.NoError(t, err)

	m.evaluate(context.Background(), domain.Usage{CPUPercent: 90})

	trig := m.TriggeredAlarm()
	require.NotNil(t, trig)
	require.Equal(t, 85, trig.Rule.Threshold)
	require.InDelta(t, 90.0, trig.CurrentValue, 0.001)
}

// TestEvaluateInclusiveThreshold: a value exactly at the threshold breaches.
func TestEvaluateInclusiveThreshold(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "ram", 80, "", "")
	require.NoError(t, err)

	m.evaluate(context.Background(), domain.Usage{RAMPercent: 80})
	require.NotNil(t, m.TriggeredAlarm())

	m.evaluate(context.Background(), domain.Usage{RAMPercent: 79.9})
	require.Nil(t, m.TriggeredAlarm())
}

// TestEvaluateActivePeriod: an office-hours rule is invisible at night and
// fires during the day.
func TestEvaluateActivePeriod(t *testing.T) {
	t.Parallel()

	newAt := func(hour int) *Manager {
		m := NewManager(context.Background(), ManagerOptions{
			Repository: new(memoryRepository),
			Now:        fixedClock(hour),
		})

		_, err := m.AddAlarm(context.Background(), "cpu", 70, "", "office")
		require.NoError(t, err)

		return m
	}

	night := newAt(22)
	night.evaluate(context.Background(), domain.Usage{CPUPercent: 95})
	require.Nil(t, night.TriggeredAlarm())

	day := newAt(10)
	day.evaluate(context.Background(), domain.Usage{CPUPercent: 95})
	require.NotNil(t, day.TriggeredAlarm())
}

// TestEvaluateInactiveDoesNotSuppress: an inactive high-threshold rule
// must not shadow an active lower-threshold one on the same resource.
func TestEvaluateInactiveDoesNotSuppress(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Now:        fixedClock(22),
	})

	_, err := m.AddAlarm(context.Background(), "cpu", 90, "", "office")
	require.NoError(t, err)
	_, err = m.AddAlarm(context.Background(), "cpu", 70, "", "")
	require.NoError(t, err)

	m.evaluate(context.Background(), domain.Usage{CPUPercent: 95})

	trig := m.TriggeredAlarm()
	require.NotNil(t, trig)
	require.Equal(t, 70, trig.Rule.Threshold)
}

// TestEvaluateLastResourceWins: when cpu and logs breach in the same
// cycle, the logs alarm survives as the reported one.
func TestEvaluateLastResourceWins(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "cpu", 70, "", "")
	require.NoError(t, err)
	_, err = m.AddAlarm(context.Background(), "logs", 100, "", "")
	require.NoError(t, err)

	m.evaluate(context.Background(), domain.Usage{CPUPercent: 95, LogCount: 250})

	trig := m.TriggeredAlarm()
	require.NotNil(t, trig)
	require.Equal(t, domain.ResourceLogs, trig.Rule.Resource)
	require.Equal(t, 250, int(trig.CurrentValue))
}

// TestEvaluateNotifications: a logs alarm notifies, an ordinary resource
// alarm does not unless alert-on-any is set, and a failing notifier never
// blocks publishing the triggered alarm.
func TestEvaluateNotifications(t *testing.T) {
	t.Parallel()

	t.Run("logs alarm notifies", func(t *testing.T) {
		t.Parallel()

		sink := new(fakeNotifier)
		m := NewManager(context.Background(), ManagerOptions{
			Repository: new(memoryRepository),
			Notifier:   sink,
			Now:        fixedClock(12),
		})

		_, err := m.AddAlarm(context.Background(), "logs", 100, "", "")
		require.NoError(t, err)

		m.evaluate(context.Background(), domain.Usage{LogCount: 150})
		require.Equal(t, 1, sink.sentCount())
		require.Contains(t, sink.sent[0], "LOGS")
	})

	t.Run("cpu alarm is silent by default", func(t *testing.T) {
		t.Parallel()

		sink := new(fakeNotifier)
		m := NewManager(context.Background(), ManagerOptions{
			Repository: new(memoryRepository),
			Notifier:   sink,
			Now:        fixedClock(12),
		})

		_, err := m.AddAlarm(context.Background(), "cpu", 70, "", "")
		require.NoError(t, err)

		m.evaluate(context.Background(), domain.Usage{CPUPercent: 95})
		require.NotNil(t, m.TriggeredAlarm())
		require.Zero(t, sink.sentCount())
	})

	t.Run("alert on any covers cpu", func(t *testing.T) {
		t.Parallel()

		sink := new(fakeNotifier)
		m := NewManager(context.Background(), ManagerOptions{
			Repository: new(memoryRepository),
			Notifier:   sink,
			AlertOnAny: true,
			Now:        fixedClock(12),
		})

		_, err := m.AddAlarm(context.Background(), "cpu", 70, "", "")
		require.NoError(t, err)

		m.evaluate(context.Background(), domain.Usage{CPUPercent: 95})
		require.Equal(t, 1, sink.sentCount())
	})

	t.Run("send failure does not abort evaluation", func(t *testing.T) {
		t.Parallel()

		sink := &fakeNotifier{sendErr: errors.New("smtp down")}
		m := NewManager(context.Background(), ManagerOptions{
			Repository: new(memoryRepository),
			Notifier:   sink,
			Now:        fixedClock(12),
		})

		_, err := m.AddAlarm(context.Background(), "logs", 100, "", "")
		require.NoError(t, err)

		m.evaluate(context.Background(), domain.Usage{LogCount: 150})
		require.NotNil(t, m.TriggeredAlarm())
	})
}

// TestEvaluateClearsWhenNothingBreaches: a cycle without breaches clears a
// previously triggered alarm.
func TestEvaluateClearsWhenNothingBreaches(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "disk", 60, "", "")
	require.NoError(t, err)

	m.evaluate(context.Background(), domain.Usage{DiskPercent: 80})
	require.NotNil(t, m.TriggeredAlarm())

	m.evaluate(context.Background(), domain.Usage{DiskPercent: 40})
	require.Nil(t, m.TriggeredAlarm())
}

// TestSelectWinnerTieBreak: equal thresholds keep the first candidate in
// display order.
func TestSelectWinnerTieBreak(t *testing.T) {
	t.Parallel()

	rules := []domain.Rule{
		{ID: "a", Resource: domain.ResourceCPU, Threshold: 80, Period: domain.PeriodAlways},
		{ID: "b", Resource: domain.ResourceCPU, Threshold: 80, Period: domain.PeriodAlways},
	}

	winner := selectWinner(rules, domain.ResourceCPU, 90, 12)
	require.NotNil(t, winner)
	require.Equal(t, "a", winner.ID)
}

// TestSelectWinnerNoCandidates returns nil when nothing matches.
func TestSelectWinnerNoCandidates(t *testing.T) {
	t.Parallel()

	rules := []domain.Rule{
		{ID: "a", Resource: domain.ResourceRAM, Threshold: 80, Period: domain.PeriodAlways},
	}

	require.Nil(t, selectWinner(rules, domain.ResourceCPU, 90, 12))
	require.Nil(t, selectWinner(rules, domain.ResourceRAM, 50, 12))
	require.Nil(t, selectWinner(nil, domain.ResourceCPU, 90, 12))
}
