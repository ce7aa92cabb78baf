// Package version holds build identification, overridden at link time via
// -ldflags "-X" so released binaries report what they were built from.
package version

var (
	// Version is the release version of the monitoring tools.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the build identification as a single line.
func String() string {
	return Version + " (" + GitSHA + ", " + BuildTime + ")"
}
