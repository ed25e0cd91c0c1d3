// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// App is the canonical application identifier used for filesystem paths and CLI branding.
	App = "peyitv"

	// DisplayName is the human readable application name.
	DisplayName = "PeyiTV"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the process default identification presented to stream servers
	// when a catalog entry does not carry its own User-Agent header.
	UserAgent = DisplayName + "/" + Version + " (Linux;Go) Lavf/60"
)

// Build metadata, overridden at link time with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
