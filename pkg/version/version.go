// Package version carries build metadata stamped in at link time.
package version

// Overridden with -ldflags on release builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
