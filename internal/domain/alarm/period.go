package alarm

import (
	"errors"
	"fmt"
	"strings"
)

// Period names a time-of-day window restricting when a rule may fire.
type Period string

// Supported active periods.
const (
	// PeriodAlways keeps the rule eligible around the clock.
	PeriodAlways Period = "always"
	// PeriodDay covers 06:00-21:59.
	PeriodDay Period = "day"
	// PeriodNight covers 22:00-05:59.
	PeriodNight Period = "night"
	// PeriodOffice covers 09:00-17:59.
	PeriodOffice Period = "office"
	// PeriodNonOffice is the complement of PeriodOffice.
	PeriodNonOffice Period = "non-office"
)

//nolint:gochecknoglobals // Closed enumeration, never mutated after init.
var knownPeriods = []Period{PeriodAlways, PeriodDay, PeriodNight, PeriodOffice, PeriodNonOffice}

// ErrInvalidPeriod is returned when an active-period tag is not recognized.
var ErrInvalidPeriod = errors.New("invalid active period")

// ParsePeriod converts user input to a Period. Empty input defaults to PeriodAlways.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodAlways, nil
	}

	p := Period(s)
	for _, known := range knownPeriods {
		if p == known {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %q (must be one of %v)", ErrInvalidPeriod, s, knownPeriods)
}

// ActiveAt reports whether a rule with this period is eligible at the given
// wall-clock hour. The hour is taken from local time with no timezone
// normalization, so the same rule can behave differently across hosts.
// Unknown tags fail open: a rule with a tag this build does not recognize
// stays eligible rather than silently disappearing from evaluation.
func (p Period) ActiveAt(hour int) bool {
	switch p {
	case PeriodAlways:
		return true
	case PeriodDay:
		return hour >= 6 && hour <= 21
	case PeriodNight:
		return hour < 6 || hour > 21
	case PeriodOffice:
		return hour >= 9 && hour <= 17
	case PeriodNonOffice:
		return hour < 9 || hour > 17
	default:
		return true
	}
}
