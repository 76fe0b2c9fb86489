package version

import "fmt"

var (
	// Version is the release version, overridden through ldflags by release builds.
	Version = "0.1.0"
	// Commit is the short hash of the git commit the binary was built from.
	Commit = "none"
	// BuildTime is the UTC timestamp recorded by the build.
	BuildTime = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Full renders the version with its build provenance for CLI output.
func Full() string {
	return fmt.Sprintf("sysalarm %s (commit %s, built %s)", Version, Commit, BuildTime)
}
