package alarm

import (
	"errors"
	"fmt"
	"strings"
)

// Resource identifies a monitored machine metric.
type Resource string

// Monitored resource kinds. The zero value is not a valid resource.
const (
	// ResourceCPU is the CPU utilization percentage.
	ResourceCPU Resource = "cpu"
	// ResourceRAM is the memory utilization percentage.
	ResourceRAM Resource = "ram"
	// ResourceDisk is the root filesystem utilization percentage.
	ResourceDisk Resource = "disk"
	// ResourceLogs is the absolute size of the event log.
	ResourceLogs Resource = "logs"
)

// EvaluationOrder is the fixed order in which resources are checked each
// monitoring cycle. Later resources overwrite earlier ones when several
// breach at once, so the position here is load-bearing.
//
//nolint:gochecknoglobals // Fixed enumeration order shared by evaluator and display.
var EvaluationOrder = []Resource{ResourceCPU, ResourceRAM, ResourceDisk, ResourceLogs}

// resourceTraits carries the per-resource validation and display data.
type resourceTraits struct {
	// unit is appended to values when formatting (percent sign or entry count).
	unit string
	// minThreshold and maxThreshold bound acceptable rule thresholds.
	// maxThreshold of zero means unbounded above.
	minThreshold int
	maxThreshold int
	// displayRank orders resources for stable alarm listings.
	displayRank int
}

//nolint:gochecknoglobals // Closed enumeration table, never mutated after init.
var resourceTable = map[Resource]resourceTraits{
	ResourceCPU:  {unit: "%", minThreshold: 1, maxThreshold: 100, displayRank: 1},
	ResourceRAM:  {unit: "%", minThreshold: 1, maxThreshold: 100, displayRank: 2},
	ResourceDisk: {unit: "%", minThreshold: 1, maxThreshold: 100, displayRank: 3},
	ResourceLogs: {unit: " entries", minThreshold: 1, maxThreshold: 0, displayRank: 4},
}

var (
	// ErrInvalidResource is returned when a resource name is not part of the enumeration.
	ErrInvalidResource = errors.New("invalid resource")
	// ErrInvalidThreshold is returned when a threshold is outside the resource's range.
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// ParseResource converts user input to a Resource.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := resourceTable[r]; !ok {
		return "", fmt.Errorf("%w: %q (must be one of %v)", ErrInvalidResource, s, EvaluationOrder)
	}

	return r, nil
}

// Valid reports whether the resource belongs to the enumeration.
func (r Resource) Valid() bool {
	_, ok := resourceTable[r]

	return ok
}

// Unit returns the display unit for values of this resource.
func (r Resource) Unit() string {
	return resourceTable[r].unit
}

// DisplayRank orders resources for listing; unknown resources sort last.
func (r Resource) DisplayRank() int {
	if traits, ok := resourceTable[r]; ok {
		return traits.displayRank
	}

	return len(resourceTable) + 1
}

// ValidateThreshold checks a threshold against the resource's allowed range.
func (r Resource) ValidateThreshold(threshold int) error {
	traits, ok := resourceTable[r]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidResource, string(r))
	}

	if threshold < traits.minThreshold {
		return fmt.Errorf("%w: %d is below %d for %s", ErrInvalidThreshold, threshold, traits.minThreshold, r)
	}

	if traits.maxThreshold > 0 && threshold > traits.maxThreshold {
		return fmt.Errorf("%w: %d exceeds %d for %s", ErrInvalidThreshold, threshold, traits.maxThreshold, r)
	}

	return nil
}
