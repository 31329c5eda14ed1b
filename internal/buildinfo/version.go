// Package buildinfo holds the version string reported by the "version"
// subcommand, grounded on the pack's ldflags-overridable version.Version
// pattern (divinesense's internal/version).
package buildinfo

// Version is the released version of the binary. Overridden at build time
// with:
//
//	go build -ldflags "-X taskloom/internal/buildinfo.Version=v1.2.3"
var Version = "0.0.0-dev"
