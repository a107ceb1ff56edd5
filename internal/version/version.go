// Package version exposes build metadata set via ldflags.
package version

//nolint:revive // Overridden by the linker at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
