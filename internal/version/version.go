// Package version holds build-time version information for the chatgw
// binaries, injected via -ldflags:
//
// -X github.com/blueember/storefront-chat/internal/version.Version=v0.3.0
// -X github.com/blueember/storefront-chat/internal/version.Commit=abc1234
// -X github.com/blueember/storefront-chat/internal/version.Date=2026-10-01T00:00:00Z
package version

import "fmt"

// Set at link time; local builds keep the dev values.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns e.g. "v0.3.0 (commit abc1234, built 2026-10-01T00:00:00Z)".
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Short returns just the version tag.
func Short() string {
	return Version
}
