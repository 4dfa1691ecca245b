// Package buildinfo carries the version stamped at build time.
package buildinfo

// Version is overridden at build time via
// -ldflags "-X github.com/arafta/clipdash/internal/buildinfo.Version=v1.2.3".
var Version = "dev"
