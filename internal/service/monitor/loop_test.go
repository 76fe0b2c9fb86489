package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "sysalarm/internal/domain/alarm"
)

// TestStartIdempotent: a second Start while running is a no-op and one
// Stop brings the loop down.
func TestStartIdempotent(t *testing.T) {
	t.Parallel()

	src := new(fakeSampler)
	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Sampler:    src,
		Interval:   10 * time.Millisecond,
	})

	require.True(t, m.Start(context.Background()))
	require.False(t, m.Start(context.Background()))
	require.True(t, m.Running())

	m.Stop(context.Background())
	require.False(t, m.Running())

	// A fresh Start after Stop works again.
	require.True(t, m.Start(context.Background()))
	m.Stop(context.Background())
}

// TestMonitorLoopSamples: the loop keeps sampling on its cadence until
// stopped.
func TestMonitorLoopSamples(t *testing.T) {
	t.Parallel()

	src := new(fakeSampler)
	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Sampler:    src,
		Interval:   5 * time.Millisecond,
	})

	require.True(t, m.Start(context.Background()))

	require.Eventually(t, func() bool {
		return src.calls.Load() >= 3
	}, time.Second, time.Millisecond)

	m.Stop(context.Background())
	require.False(t, m.Running())
}

// TestTickSamplingFailureKeepsState: a failed sample skips evaluation and
// leaves the previous triggered alarm in place.
func TestTickSamplingFailureKeepsState(t *testing.T) {
	t.Parallel()

	src := new(fakeSampler)
	src.set(domain.Usage{CPUPercent: 95}, nil)

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Sampler:    src,
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "cpu", 80, "", "")
	require.NoError(t, err)

	require.True(t, m.tick(context.Background()))
	require.NotNil(t, m.TriggeredAlarm())

	src.set(domain.Usage{}, errors.New("proc unreadable"))

	require.True(t, m.tick(context.Background()))
	require.NotNil(t, m.TriggeredAlarm())
}

// TestTickCountFailureKeepsState: an event log that cannot report its size
// also skips evaluation.
func TestTickCountFailureKeepsState(t *testing.T) {
	t.Parallel()

	src := new(fakeSampler)
	src.set(domain.Usage{CPUPercent: 95}, nil)

	events := new(fakeEvents)
	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Sampler:    src,
		Events:     events,
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "cpu", 80, "", "")
	require.NoError(t, err)

	require.True(t, m.tick(context.Background()))
	require.NotNil(t, m.TriggeredAlarm())

	events.countErr = errors.New("database locked")
	src.set(domain.Usage{CPUPercent: 10}, nil)

	require.True(t, m.tick(context.Background()))
	require.NotNil(t, m.TriggeredAlarm())
}

// TestTickFeedsLogCount: the event log size flows into the usage snapshot
// before evaluation.
func TestTickFeedsLogCount(t *testing.T) {
	t.Parallel()

	src := new(fakeSampler)
	events := new(fakeEvents)
	for i := 0; i < 5; i++ {
		require.NoError(t, events.Append(context.Background(), "entry", "INFO"))
	}

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Sampler:    src,
		Events:     events,
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "logs", 3, "", "")
	require.NoError(t, err)

	require.True(t, m.tick(context.Background()))

	trig := m.TriggeredAlarm()
	require.NotNil(t, trig)
	require.Equal(t, domain.ResourceLogs, trig.Rule.Resource)
}

// panicSampler panics a configured number of times before settling on a
// fixed usage snapshot.
type panicSampler struct {
	remaining atomic.Int64
	usage     domain.Usage
}

func (p *panicSampler) Sample(context.Context) (domain.Usage, error) {
	if p.remaining.Add(-1) >= 0 {
		panic("sampler exploded")
	}

	return p.usage, nil
}

// TestTickRecoversFromPanic: a panicking cycle is contained, reported as a
// failure and does not poison later cycles.
func TestTickRecoversFromPanic(t *testing.T) {
	t.Parallel()

	src := &panicSampler{usage: domain.Usage{CPUPercent: 95}}
	src.remaining.Store(1)

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Sampler:    src,
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "cpu", 80, "", "")
	require.NoError(t, err)

	require.False(t, m.tick(context.Background()))
	require.Nil(t, m.TriggeredAlarm())

	require.True(t, m.tick(context.Background()))
	require.NotNil(t, m.TriggeredAlarm())
}

// TestMonitorLoopRecoversFromPanic: after a panicking cycle the loop pauses
// and then resumes sampling and evaluating on its own.
func TestMonitorLoopRecoversFromPanic(t *testing.T) {
	t.Parallel()

	src := &panicSampler{usage: domain.Usage{CPUPercent: 95}}
	src.remaining.Store(1)

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		Sampler:    src,
		Interval:   5 * time.Millisecond,
		Now:        fixedClock(12),
	})

	_, err := m.AddAlarm(context.Background(), "cpu", 80, "", "")
	require.NoError(t, err)

	require.True(t, m.Start(context.Background()))

	require.Eventually(t, func() bool {
		return m.TriggeredAlarm() != nil
	}, 3*time.Second, 5*time.Millisecond)

	m.Stop(context.Background())
	require.False(t, m.Running())
}

// TestPulseCycleContainsPanic: a panicking transition hook is reported as
// a failed cycle instead of escaping the loop goroutine.
func TestPulseCycleContainsPanic(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{
		Repository: new(memoryRepository),
		OnPulse:    func(bool) { panic("hook exploded") },
	})

	require.False(t, m.pulseCycle(context.Background()))
}

// TestPulseLoopRecoversFromPanic: after a panicking activation the flag is
// forced down during the pause and pulsing then resumes.
func TestPulseLoopRecoversFromPanic(t *testing.T) {
	t.Parallel()

	var failed atomic.Bool

	hook := func(active bool) {
		if active && !failed.Swap(true) {
			panic("hook exploded")
		}
	}

	m := NewManager(context.Background(), ManagerOptions{
		Repository:  new(memoryRepository),
		PulsePeriod: 20 * time.Millisecond,
		PulseActive: 10 * time.Millisecond,
		OnPulse:     hook,
	})

	require.True(t, m.StartPulse(context.Background()))

	// The failed activation must bring the flag down before the next cycle.
	require.Eventually(t, func() bool {
		return failed.Load() && !m.PulseActive()
	}, 3*time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return m.PulseCount() >= 2
	}, 3*time.Second, time.Millisecond)

	m.StopPulse()
	require.False(t, m.PulseRunning())
	require.False(t, m.PulseActive())
}

// TestPulseDutyCycle: the pulse flag goes up while the loop runs and is
// forced down after StopPulse.
func TestPulseDutyCycle(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{
		Repository:  new(memoryRepository),
		PulsePeriod: 20 * time.Millisecond,
		PulseActive: 10 * time.Millisecond,
	})

	require.True(t, m.StartPulse(context.Background()))
	require.False(t, m.StartPulse(context.Background()))
	require.True(t, m.PulseRunning())

	require.Eventually(t, m.PulseActive, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return m.PulseCount() >= 2
	}, time.Second, time.Millisecond)

	m.StopPulse()
	require.False(t, m.PulseRunning())
	require.False(t, m.PulseActive())
}

// TestStopWithoutStart is a no-op.
func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	m := NewManager(context.Background(), ManagerOptions{Repository: new(memoryRepository)})

	m.Stop(context.Background())
	m.StopPulse()
	require.False(t, m.Running())
	require.False(t, m.PulseRunning())
}

// TestSleepWithContext covers both exits of the bounded wait.
func TestSleepWithContext(t *testing.T) {
	t.Parallel()

	require.True(t, sleepWithContext(context.Background(), time.Millisecond))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, sleepWithContext(canceled, time.Hour))
	require.False(t, sleepWithContext(canceled, 0))
}
