// Package version carries the build metadata stamped into the sysalarm
// binary. Version, Commit and BuildTime default to development values and
// are replaced with Go ldflags by release builds; Short and Full render
// them for CLI output and logs.
package version
