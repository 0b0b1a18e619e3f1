// Package tui provides the terminal front-end shown while scenes play.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sceneplay/sceneplay/config"
	"github.com/sceneplay/sceneplay/hotkey"
	"github.com/sceneplay/sceneplay/playback"
	"github.com/sceneplay/sceneplay/scene"
)

// Controller is the part of the playback controller the interface drives.
type Controller interface {
	Update(props playback.Props)
	HandleKey(event hotkey.Event)
	ScrubSeek(seconds float64)
	ScrubScroll()
	SkipForward()
	SkipBackward()
	Status() playback.Status
}

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Controller Controller
	// Load resolves a queued scene ID.
	Load  func(ctx context.Context, id string) (*scene.Scene, error)
	Queue []string

	InitialTimestamp float64
	Autoplay         bool
	PermitLoop       bool
	HideScrubber     bool
	Config           config.Playback

	// Done, when set, closes once the player window is gone; the interface quits with it.
	Done <-chan struct{}
}

// Run initializes and executes the Bubble Tea application loop until the user quits
// or the queue is exhausted.
func Run(options *Options) error {
	bubble := newBubble(options)
	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
