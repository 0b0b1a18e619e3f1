// Package constant defines immutable application-level identifiers.
package constant

const (
	// Sceneplay is the canonical application identifier used for filesystem paths, env prefixes and CLI branding.
	Sceneplay = "sceneplay"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is sent with every request to the Stash server and the Handy API.
	UserAgent = Sceneplay + "/" + Version
)

// Build metadata, set through -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// Repository is the upstream project, used for release lookups.
const Repository = "sceneplay/sceneplay"
