// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Montage is the canonical application identifier used for filesystem paths and CLI branding.
	Montage = "montage"

	// Version is the current application semantic version string.
	Version = "0.1.0"
)

// Link-time build metadata, overridden via -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
