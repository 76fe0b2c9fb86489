// Package alarm holds the domain model of the monitor: the closed
// resource and active-period enumerations with their validation tables,
// alarm rules, usage snapshots and the triggered-alarm state.
//
// Everything here is a plain value type; cloning on every boundary
// crossing keeps internal state unshared.
package alarm
