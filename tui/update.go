package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sceneplay/sceneplay/internal/ui"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/util"
)

// scrubStep is how far one scrubber key press moves, in seconds.
const scrubStep = 10

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Notifications capture `string` and `ui.ClearNotificationMsg`.
	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case engineExitedMsg:
		return b, tea.Quit
	case error:
		b.raiseError(msg)
		return b, cmd
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, cmd
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keymap.forceQuit):
			return b, tea.Quit
		case key.Matches(msg, b.keymap.quit) && b.state != loadingState:
			return b, tea.Quit
		}
	}

	switch b.state {
	case loadingState:
		return b.updateLoading(msg, cmd)
	case playingState:
		return b.updatePlaying(msg, cmd)
	}

	return b, cmd
}

func (b *statefulBubble) updateLoading(msg tea.Msg, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sceneLoadedMsg:
		b.current = msg.scene
		b.options.Controller.Update(b.props(msg.scene))
		b.playedFirst = true
		b.status = b.options.Controller.Status()
		b.setState(playingState)
		return b, cmd
	case navigation:
		// Navigation that arrives while the next scene loads is dropped.
		return b, tea.Batch(cmd, b.waitForNavigation())
	case tickMsg:
		return b, tea.Batch(cmd, tick())
	}

	var spin tea.Cmd
	b.spinnerC, spin = b.spinnerC.Update(msg)
	return b, tea.Batch(cmd, spin)
}

func (b *statefulBubble) updatePlaying(msg tea.Msg, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	controller := b.options.Controller

	switch msg := msg.(type) {
	case tickMsg:
		return b, tea.Batch(cmd, b.refreshStatus(), tick())
	case navigation:
		return b, tea.Batch(cmd, b.navigate(msg), b.waitForNavigation())
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keymap.next):
			controller.SkipForward()
		case key.Matches(msg, b.keymap.previous):
			controller.SkipBackward()
		case key.Matches(msg, b.keymap.scrubBack):
			b.scrub(-scrubStep)
		case key.Matches(msg, b.keymap.scrubForward):
			b.scrub(scrubStep)
		case key.Matches(msg, b.keymap.showHelp):
			b.helpC.ShowAll = !b.helpC.ShowAll
		default:
			if event, ok := translate(msg); ok {
				controller.HandleKey(event)
			}
		}
		return b, cmd
	}

	return b, cmd
}

// scrub moves the timeline by delta seconds. The scrubber pauses playback first,
// like dragging the thumb would.
func (b *statefulBubble) scrub(delta float64) {
	controller := b.options.Controller
	status := controller.Status()

	target := status.Time + delta
	if status.Duration > 0 {
		target = util.Clamp(target, 0, status.Duration)
	} else {
		target = max(target, 0)
	}

	controller.ScrubScroll()
	controller.ScrubSeek(target)
}

// refreshStatus pulls the latest controller snapshot and raises notifications
// for changes the user would otherwise miss.
func (b *statefulBubble) refreshStatus() tea.Cmd {
	prev := b.status
	b.status = b.options.Controller.Status()

	var cmds []tea.Cmd
	if b.status.Failed && !(prev.Failed && prev.SceneID == b.status.SceneID) {
		cmds = append(cmds, ui.Notify("Playback could not start, press space to retry"))
	}
	if b.status.Interactive {
		if text := deviceNotice(prev.Device, b.status.Device); text != "" {
			cmds = append(cmds, ui.Notify(text))
		}
	}

	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// navigate moves through the playlist in response to a controller callback.
func (b *statefulBubble) navigate(n navigation) tea.Cmd {
	var (
		id string
		ok bool
	)

	switch n {
	case navigateNext, navigateComplete:
		id, ok = b.playlist.Next()
	case navigatePrevious:
		id, ok = b.playlist.Previous()
	}

	if !ok {
		if n == navigateComplete {
			return tea.Quit
		}
		index, total := b.playlist.Position()
		return ui.Notify(fmt.Sprintf("No more scenes (%d/%d)", index, total))
	}

	log.Scene(id).Info("switching scene")
	b.setState(loadingState)
	return tea.Batch(b.spinnerC.Tick, b.loadScene(id))
}
