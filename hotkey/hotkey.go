// Package hotkey maps physical key presses to player commands.
//
// Interpret is pure: it looks only at the key and the modifier state. Apply
// resolves the command against a live target, reading position and duration
// at the moment of execution.
package hotkey

import (
	"fmt"

	"github.com/sceneplay/sceneplay/util"
)

// Key names a physical key independently of any terminal or windowing toolkit.
type Key string

const (
	Right        Key = "right"
	Left         Key = "left"
	Up           Key = "up"
	Down         Key = "down"
	Space        Key = "space"
	Enter        Key = "enter"
	M            Key = "m"
	F            Key = "f"
	BracketRight Key = "]"
	BracketLeft  Key = "["
)

// Digit returns the key for 0-9. Other values yield an unknown key.
func Digit(d int) Key {
	if d < 0 || d > 9 {
		return ""
	}
	return Key(fmt.Sprint(d))
}

// Event is one key press with its modifier state.
type Event struct {
	Key   Key
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

func (e Event) modified() bool {
	return e.Alt || e.Ctrl || e.Meta || e.Shift
}

// Action enumerates what a command does.
type Action int

const (
	None Action = iota
	SeekStep
	SeekTo
	SeekPercent
	SeekPercentRelative
	TogglePlay
	ToggleMute
	ToggleFullscreen
	AdjustVolume
)

func (a Action) String() string {
	switch a {
	case SeekStep:
		return "seek-step"
	case SeekTo:
		return "seek-to"
	case SeekPercent:
		return "seek-percent"
	case SeekPercentRelative:
		return "seek-percent-relative"
	case TogglePlay:
		return "toggle-play"
	case ToggleMute:
		return "toggle-mute"
	case ToggleFullscreen:
		return "toggle-fullscreen"
	case AdjustVolume:
		return "adjust-volume"
	default:
		return "none"
	}
}

// Command is the outcome of interpreting an Event. Amount is seconds for SeekStep
// and SeekTo, a fraction of the duration for the percent seeks, and a volume delta
// for AdjustVolume.
type Command struct {
	Action Action
	Amount float64
}

// SeekFactor returns the arrow-key step in seconds. Shift wins over Ctrl and Alt.
func SeekFactor(e Event) float64 {
	switch {
	case e.Shift:
		return 5
	case e.Ctrl || e.Alt:
		return 60
	default:
		return 10
	}
}

// Interpret maps an Event to a Command. Arrow seeks fire under any modifier;
// every other binding requires that no modifier is held.
func Interpret(e Event) Command {
	switch e.Key {
	case Right:
		return Command{Action: SeekStep, Amount: SeekFactor(e)}
	case Left:
		return Command{Action: SeekStep, Amount: -SeekFactor(e)}
	}

	if e.modified() {
		return Command{}
	}

	switch e.Key {
	case Space, Enter:
		return Command{Action: TogglePlay}
	case M:
		return Command{Action: ToggleMute}
	case F:
		return Command{Action: ToggleFullscreen}
	case Up:
		return Command{Action: AdjustVolume, Amount: 0.1}
	case Down:
		return Command{Action: AdjustVolume, Amount: -0.1}
	case Digit(0):
		return Command{Action: SeekTo, Amount: 0}
	case BracketRight:
		return Command{Action: SeekPercentRelative, Amount: 0.1}
	case BracketLeft:
		return Command{Action: SeekPercentRelative, Amount: -0.1}
	}

	for d := 1; d <= 9; d++ {
		if e.Key == Digit(d) {
			return Command{Action: SeekPercent, Amount: float64(d) / 10}
		}
	}

	return Command{}
}

// Target is the subset of a playback engine a command acts on.
type Target interface {
	Paused() bool
	Play() error
	Pause() error
	CurrentTime() float64
	SetCurrentTime(seconds float64) error
	Duration() float64
	Muted() bool
	SetMuted(muted bool) error
	Volume() float64
	SetVolume(level float64) error
	IsFullscreen() bool
	RequestFullscreen() error
	ExitFullscreen() error
}

// Apply executes the command against t.
func (c Command) Apply(t Target) error {
	switch c.Action {
	case SeekStep:
		return t.SetCurrentTime(util.Clamp(t.CurrentTime()+c.Amount, 0, t.Duration()))
	case SeekTo:
		return t.SetCurrentTime(c.Amount)
	case SeekPercent:
		return t.SetCurrentTime(t.Duration() * c.Amount)
	case SeekPercentRelative:
		duration := t.Duration()
		target := t.CurrentTime() + duration*c.Amount
		if target > duration {
			return nil
		}
		return t.SetCurrentTime(max(target, 0))
	case TogglePlay:
		if t.Paused() {
			return t.Play()
		}
		return t.Pause()
	case ToggleMute:
		return t.SetMuted(!t.Muted())
	case ToggleFullscreen:
		if t.IsFullscreen() {
			return t.ExitFullscreen()
		}
		return t.RequestFullscreen()
	case AdjustVolume:
		return t.SetVolume(t.Volume() + c.Amount)
	}
	return nil
}
