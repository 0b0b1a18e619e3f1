package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/sceneplay/sceneplay/color"
	"github.com/sceneplay/sceneplay/style"
)

// statefulKeymap defines the keyboard interactions available within each state.
// Player bindings are listed for help only; the keys themselves are translated
// into hotkey events.
type statefulKeymap struct {
	state state

	quit, forceQuit,
	next, previous,
	scrubBack, scrubForward,
	playPause, seek, volume, mute, fullscreen, jump, jumpRelative,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next scene"),
		),
		previous: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous scene"),
		),
		scrubBack: key.NewBinding(
			key.WithKeys(",", "<"),
			key.WithHelp(",", "scrub back"),
		),
		scrubForward: key.NewBinding(
			key.WithKeys(".", ">"),
			key.WithHelp(".", "scrub forward"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp(style.Fg(color.Orange)("space"), style.Fg(color.Orange)("play/pause")),
		),
		seek: key.NewBinding(
			key.WithKeys("left", "right"),
			key.WithHelp("←/→", "seek 10s (shift 5s, ctrl 60s)"),
		),
		volume: key.NewBinding(
			key.WithKeys("up", "down"),
			key.WithHelp("↑/↓", "volume"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		jump: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump to 0-90%"),
		),
		jumpRelative: key.NewBinding(
			key.WithKeys("[", "]"),
			key.WithHelp("[/]", "∓10%"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	to2 := func(a []key.Binding) ([]key.Binding, []key.Binding) {
		return a, a
	}

	switch k.state {
	case loadingState:
		return to2(h(k.forceQuit))
	case playingState:
		return h(k.playPause, k.seek, k.next, k.showHelp, k.quit),
			h(k.playPause, k.seek, k.volume, k.mute, k.fullscreen, k.jump, k.jumpRelative,
				k.scrubBack, k.scrubForward, k.next, k.previous, k.quit)
	case errorState:
		return to2(h(k.quit))
	default:
		return to2(h())
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}
