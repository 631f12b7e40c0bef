// Package version holds build information set through -ldflags.
package version

import "fmt"

//nolint:gochecknoglobals // set by the linker
var (
	// Version is the release, "dev" for local builds.
	Version = "dev"
	// Revision is the git commit of the build.
	Revision = "unknown"
	// BuildDate is the build time in RFC 3339.
	BuildDate = "unknown"
)

// String returns a one line description of the build.
func String() string {
	return fmt.Sprintf("%s (revision %s, built %s)", Version, Revision, BuildDate)
}
