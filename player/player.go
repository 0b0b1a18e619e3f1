// Package player defines the playback engine abstraction the controller drives and
// its mpv implementation over JSON-IPC.
package player

import (
	"errors"

	"github.com/sceneplay/sceneplay/hotkey"
)

var (
	// ErrNotRunning is returned by commands issued before Start or after Close.
	ErrNotRunning = errors.New("player is not running")
	// ErrPlaybackRejected wraps a refused play attempt.
	ErrPlaybackRejected = errors.New("playback rejected")
)

// Event names a notification emitted by an engine.
type Event string

const (
	LoadStart        Event = "loadstart"
	CanPlay          Event = "canplay"
	Play             Event = "play"
	Playing          Event = "playing"
	Pause            Event = "pause"
	Seeking          Event = "seeking"
	TimeUpdate       Event = "timeupdate"
	FullscreenChange Event = "fullscreenchange"
	Ended            Event = "ended"
)

// Handler receives an engine event. Engines may call it from any goroutine.
type Handler func()

// Source is one candidate stream offered to the engine's source selector.
type Source struct {
	URL      string
	MimeType string
	Label    string
	// Offset marks transcoded streams that accept a start offset instead of byte seeking.
	Offset   bool
	Duration float64
}

// TextTrack is a caption track. At most one per load has Default set.
type TextTrack struct {
	Src     string
	Kind    string
	Lang    string
	Label   string
	Default bool
}

// Marker is a titled point on the timeline.
type Marker struct {
	Title string
	Time  float64
}

// Media is everything bound to the engine by a single Load.
type Media struct {
	Sources    []Source
	TextTracks []TextTrack
	Thumbnails string
	Poster     string
	Markers    []Marker
}

// MobileOptions configures rotation and fullscreen behavior on touch devices.
type MobileOptions struct {
	EnterOnRotate          bool
	ExitOnRotate           bool
	LockOnRotate           bool
	LockToLandscapeOnEnter bool
	TouchControlsDisabled  bool
}

// Engine is the black-box media player. Getters return the last state the engine
// reported and never block; commands may fail.
type Engine interface {
	hotkey.Target

	// Load replaces sources, caption tracks, thumbnails, poster and markers at once.
	Load(media Media) error
	// LoadGeneration identifies the latest Load. LoadStart and CanPlay are only
	// emitted for it, and it does not change while they are being delivered.
	LoadGeneration() uint64
	SetMarkers(markers []Marker) error
	SetPoster(path string) error
	SetLoop(loop bool) error
	SetMobileUI(options MobileOptions)
	SetPersistVolume(enabled bool)
	SetVRButton(show bool)

	// Activity exposes the engine-side watched-duration accounting.
	Activity() Activity

	// On registers h for event and returns the function releasing the registration.
	On(event Event, h Handler) (off func())

	Close() error
}
