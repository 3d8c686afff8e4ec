// Package version holds build metadata injected at link time, e.g.
//
//	go build -ldflags "-X github.com/SeekSense-AI/seeksense-core/internal/version.Version=v0.2.0"
package version

import "fmt"

var (
	// Version is the frontier tool version.
	Version = "0.1.0-dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for the CLI version command.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
