package alarm

import "time"

// Triggered is a snapshot-in-time copy of the single most recently
// breached rule, together with the measured value that caused the breach.
// At most one Triggered exists system-wide; it is owned by the monitor
// loop and replaced or cleared on every evaluation cycle.
type Triggered struct {
	// Rule is a copy of the breached rule at the moment of triggering.
	Rule Rule
	// CurrentValue is the metric value that met or exceeded the threshold.
	CurrentValue float64
	// TriggeredAt is when the breach was observed.
	TriggeredAt time.Time
}

// Clone returns a copy of the triggered state to avoid leaking internal references.
func (t *Triggered) Clone() *Triggered {
	if t == nil {
		return nil
	}

	cloned := *t

	return &cloned
}
