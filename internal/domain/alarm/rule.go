package alarm

import (
	"fmt"
	"sort"
	"strings"
)

// Rule is a stored alarm definition: fire when the resource's measured
// value meets or exceeds the threshold while the active period covers the
// current hour. Rules are immutable once created; configuration changes
// replace them wholesale.
//
// The JSON field names define the on-disk alarm file format.
type Rule struct {
	// ID is an opaque unique identifier assigned at creation.
	ID string `json:"id"`
	// Name is the display string shown in listings and notifications.
	Name string `json:"name"`
	// Resource selects which metric the rule watches.
	Resource Resource `json:"resource"`
	// Threshold is a percentage for cpu/ram/disk and an absolute count for logs.
	Threshold int `json:"threshold"`
	// Period restricts when the rule is eligible to fire.
	Period Period `json:"active_period"`
}

// Validate checks resource membership, threshold range and period in one pass.
// Invalid rules must never be stored.
func (r *Rule) Validate() error {
	if !r.Resource.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidResource, string(r.Resource))
	}

	if err := r.Resource.ValidateThreshold(r.Threshold); err != nil {
		return err
	}

	if _, err := ParsePeriod(string(r.Period)); err != nil {
		return err
	}

	return nil
}

// Clone returns a copy of the rule to avoid leaking internal references.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}

// DefaultRuleName derives a display name for rules created without one,
// e.g. "CPU alarm 85%" or "LOGS alarm 500".
func DefaultRuleName(resource Resource, threshold int) string {
	if resource == ResourceLogs {
		return fmt.Sprintf("%s alarm %d", strings.ToUpper(string(resource)), threshold)
	}

	return fmt.Sprintf("%s alarm %d%%", strings.ToUpper(string(resource)), threshold)
}

// SortRules orders rules by display rank (cpu, ram, disk, logs, then
// anything else) and ascending threshold within a resource. The sort is
// stable so equal rules keep their insertion order; evaluation tie-breaks
// depend on that.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Resource != rules[j].Resource {
			return rules[i].Resource.DisplayRank() < rules[j].Resource.DisplayRank()
		}

		return rules[i].Threshold < rules[j].Threshold
	})
}
