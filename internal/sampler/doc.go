// Package sampler reads machine metrics (CPU, memory, disk) into usage
// snapshots for the monitor loop. The /proc-based implementation is
// Linux-only; tests and other platforms inject their own Sampler.
package sampler
