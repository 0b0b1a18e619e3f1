package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/playback"
	"github.com/sceneplay/sceneplay/scene"
)

const statusInterval = 250 * time.Millisecond

type tickMsg time.Time

type engineExitedMsg struct{}

type sceneLoadedMsg struct {
	scene *scene.Scene
}

func (b *statefulBubble) Init() tea.Cmd {
	id, ok := b.playlist.Current()
	if !ok {
		return func() tea.Msg { return fmt.Errorf("no scenes to play") }
	}
	return tea.Batch(b.spinnerC.Tick, b.loadScene(id), b.waitForNavigation(), b.waitForEngine(), tick())
}

func (b *statefulBubble) waitForEngine() tea.Cmd {
	if b.options.Done == nil {
		return nil
	}
	return func() tea.Msg {
		<-b.options.Done
		return engineExitedMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (b *statefulBubble) loadScene(id string) tea.Cmd {
	b.progressStatus = fmt.Sprintf("Fetching scene %s", id)
	return func() tea.Msg {
		sc, err := b.options.Load(context.Background(), id)
		if err != nil {
			log.Scene(id).Errorf("load scene: %v", err)
			return fmt.Errorf("load scene %s: %w", id, err)
		}
		return sceneLoadedMsg{scene: sc}
	}
}

func (b *statefulBubble) waitForNavigation() tea.Cmd {
	return func() tea.Msg {
		return <-b.navigationChannel
	}
}

// props builds the controller input for sc. Only the first load honours the
// caller's timestamp; every later one autoplays, including a return to the first scene.
func (b *statefulBubble) props(sc *scene.Scene) playback.Props {
	timestamp := 0.0
	if !b.playedFirst {
		timestamp = b.options.InitialTimestamp
	}

	navigate := func(n navigation) func() {
		return func() {
			select {
			case b.navigationChannel <- n:
			default:
			}
		}
	}

	return playback.Props{
		Scene:            sc,
		InitialTimestamp: timestamp,
		Autoplay:         b.options.Autoplay || b.playedFirst,
		PermitLoop:       b.options.PermitLoop,
		Config:           b.options.Config,
		OnComplete:       navigate(navigateComplete),
		OnNext:           navigate(navigateNext),
		OnPrevious:       navigate(navigatePrevious),
	}
}
