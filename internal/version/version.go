// Package version holds the build version string.
package version

// Version is the current release. Overridable at build time with
// -ldflags "-X github.com/hwprobe/pcisb/internal/version.Version=...".
var Version = "0.2.0"
