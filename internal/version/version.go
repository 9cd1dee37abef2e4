// Package version provides build and version information for Storyloom.
package version

// Version is the current release version of Storyloom.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/lanternworks/storyloom/internal/version.Version=x.y.z"
var Version = "0.4.0"
