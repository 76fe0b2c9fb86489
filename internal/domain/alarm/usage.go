package alarm

// Usage is a point-in-time snapshot of machine metrics. It is produced
// fresh on every monitoring tick and has no lifecycle beyond it.
type Usage struct {
	// CPUPercent is the CPU utilization in the 0-100 range.
	CPUPercent float64
	// RAMPercent is the memory utilization in the 0-100 range.
	RAMPercent float64
	// RAMUsedGB and RAMTotalGB are informational absolute figures.
	RAMUsedGB  float64
	RAMTotalGB float64
	// DiskPercent is the root filesystem utilization in the 0-100 range.
	DiskPercent float64
	// DiskUsedGB and DiskTotalGB are informational absolute figures.
	DiskUsedGB  float64
	DiskTotalGB float64
	// LogCount is the current size of the event log.
	LogCount int
}

// ValueFor returns the metric value compared against rule thresholds:
// the utilization percentage for cpu/ram/disk, the raw count for logs.
// Unknown resources report zero and therefore never breach.
func (u Usage) ValueFor(r Resource) float64 {
	switch r {
	case ResourceCPU:
		return u.CPUPercent
	case ResourceRAM:
		return u.RAMPercent
	case ResourceDisk:
		return u.DiskPercent
	case ResourceLogs:
		return float64(u.LogCount)
	default:
		return 0
	}
}
