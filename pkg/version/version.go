// Package version reports the adbmosaic build stamp.
package version

// Set with -ldflags "-X github.com/carverauto/adbmosaic/pkg/version.version=...".
//
//nolint:gochecknoglobals // ldflags injection target
var (
	version = "dev"
	buildID = "dev"
)

// GetVersion returns the release version.
func GetVersion() string {
	return version
}

// GetBuildID returns the build identifier.
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns "adbmosaic <version> (build: <id>)".
func GetFullVersion() string {
	return "adbmosaic " + version + " (build: " + buildID + ")"
}
