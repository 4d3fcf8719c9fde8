// Package version carries build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag.
	Version = "dev"
	// Revision is the git commit.
	Revision = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// String renders the full version block.
func String() string {
	return fmt.Sprintf("fleetd %s\nrevision: %s\nbuilt: %s\ngo: %s\n",
		Version, Revision, BuildDate, runtime.Version())
}
