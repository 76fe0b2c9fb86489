// Package rules implements persistence for the alarm rule set.
//
// The FileRepository stores and loads rules as a JSON list on disk and
// exposes a Repository interface that the monitor service depends on.
package rules
