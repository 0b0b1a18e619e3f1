package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/sceneplay/sceneplay/interactive"
	"github.com/sceneplay/sceneplay/internal/ui"
	"github.com/sceneplay/sceneplay/playback"
	"github.com/sceneplay/sceneplay/scene"
	"golang.org/x/term"
)

// navigation is a request from the controller's skip and end-of-media callbacks.
type navigation int

const (
	navigateNext navigation = iota
	navigatePrevious
	navigateComplete
)

// statefulBubble holds the player view and the playlist it walks through.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	playlist *playlist
	current  *scene.Scene
	status   playback.Status

	// playedFirst is set once the first scene has been handed to the controller.
	playedFirst bool

	// navigationChannel carries controller callbacks, which run off the UI goroutine.
	navigationChannel chan navigation

	progressStatus string
	lastError      error

	width, height int

	options *Options
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.setState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	x, _ := paddingStyle.GetFrameSize()

	b.width = width
	b.height = height
	b.progressC.Width = max(width-x-16, 10)
	b.helpC.Width = width - x
}

// scrubberVisible reports whether the timeline fits: it needs 80 columns and 12 rows
// and is hidden in fullscreen.
func scrubberVisible(hidden, fullscreen bool, width, height int) bool {
	if hidden || fullscreen {
		return false
	}
	return width >= 80 && height >= 12
}

// deviceNotice describes a device state change worth a notification.
func deviceNotice(prev, next interactive.State) string {
	if prev == next {
		return ""
	}
	switch next {
	case interactive.Ready:
		return "Interactive device ready"
	case interactive.Error:
		return "Interactive device error"
	case interactive.Disconnected:
		return "Interactive device disconnected"
	default:
		return ""
	}
}

func newBubble(options *Options) *statefulBubble {
	bubble := &statefulBubble{
		keymap:            newStatefulKeymap(),
		notifier:          &ui.Model{},
		playlist:          newPlaylist(options.Queue),
		navigationChannel: make(chan navigation, 4),
		options:           options,
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(loadingState)
	return bubble
}
