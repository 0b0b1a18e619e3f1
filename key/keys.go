// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Stash Server - these keys locate the server that owns scene metadata and activity.
const (
	StashURL = "stash.url"
)

// Interface Preferences - these keys mirror the server-side interface configuration.
const (
	InterfaceAutostartVideo      = "interface.autostart_video"
	InterfaceMaximumLoopDuration = "interface.maximum_loop_duration"
)

// UI Preferences - these keys govern resume behavior and activity accounting.
const (
	UIAlwaysStartFromBeginning = "ui.always_start_from_beginning"
	UIMinimumPlayPercent       = "ui.minimum_play_percent"
	UITrackActivity            = "ui.track_activity"
	UIVRTag                    = "ui.vr_tag"
	UILocale                   = "ui.locale"
)

// Media Playback - these keys select and tune the playback engine.
const (
	Player           = "player.default"
	PlayerMpvPath    = "player.mpv_path"
	PlayerDirectOnly = "player.direct_only"
)

// Interactive Device - these keys configure the Handy integration.
const (
	InteractiveHandyKey = "interactive.handy_key"
	InteractiveAPIURL   = "interactive.api_url"
)

// Activity Persistence - these keys select where watched-duration and play counts go.
const (
	ActivityBackend = "activity.backend"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored       = "cli.colored"
	CliVersionCheck  = "cli.version_check"
	CliSuggestScenes = "cli.suggest_scenes"
	IconsVariant     = "icons.variant"
)
