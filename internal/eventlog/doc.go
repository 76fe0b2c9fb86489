// Package eventlog is the persistent, append-only event log of the
// monitor, backed by SQLite. Besides diagnostics it doubles as a
// monitored resource: the logs alarm class fires when the total entry
// count crosses a rule threshold.
package eventlog
