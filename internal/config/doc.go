// Package config defines the YAML settings file shared by the sysalarm
// commands: data file locations, loop intervals, the pulse duty cycle
// and outbound mail parameters. Missing files and missing fields fall
// back to defaults so a bare `sysalarm` invocation just works.
package config
