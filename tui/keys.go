package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sceneplay/sceneplay/hotkey"
)

// arrows maps terminal arrow key types to the key and the modifiers the terminal reported.
var arrows = map[tea.KeyType]hotkey.Event{
	tea.KeyRight:          {Key: hotkey.Right},
	tea.KeyLeft:           {Key: hotkey.Left},
	tea.KeyUp:             {Key: hotkey.Up},
	tea.KeyDown:           {Key: hotkey.Down},
	tea.KeyShiftRight:     {Key: hotkey.Right, Shift: true},
	tea.KeyShiftLeft:      {Key: hotkey.Left, Shift: true},
	tea.KeyShiftUp:        {Key: hotkey.Up, Shift: true},
	tea.KeyShiftDown:      {Key: hotkey.Down, Shift: true},
	tea.KeyCtrlRight:      {Key: hotkey.Right, Ctrl: true},
	tea.KeyCtrlLeft:       {Key: hotkey.Left, Ctrl: true},
	tea.KeyCtrlUp:         {Key: hotkey.Up, Ctrl: true},
	tea.KeyCtrlDown:       {Key: hotkey.Down, Ctrl: true},
	tea.KeyCtrlShiftRight: {Key: hotkey.Right, Ctrl: true, Shift: true},
	tea.KeyCtrlShiftLeft:  {Key: hotkey.Left, Ctrl: true, Shift: true},
	tea.KeySpace:          {Key: hotkey.Space},
	tea.KeyEnter:          {Key: hotkey.Enter},
}

// translate converts a terminal key press into a hotkey event. Upper-case letters
// are reported as the letter with Shift held.
func translate(msg tea.KeyMsg) (hotkey.Event, bool) {
	if event, ok := arrows[msg.Type]; ok {
		event.Alt = msg.Alt
		return event, true
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return hotkey.Event{}, false
	}

	r := msg.Runes[0]
	event := hotkey.Event{Alt: msg.Alt}

	switch {
	case r == ' ':
		event.Key = hotkey.Space
	case r >= '0' && r <= '9':
		event.Key = hotkey.Digit(int(r - '0'))
	case r == '[':
		event.Key = hotkey.BracketLeft
	case r == ']':
		event.Key = hotkey.BracketRight
	case r == 'm' || r == 'M':
		event.Key, event.Shift = hotkey.M, r == 'M'
	case r == 'f' || r == 'F':
		event.Key, event.Shift = hotkey.F, r == 'F'
	default:
		return hotkey.Event{}, false
	}

	return event, true
}
