// Package interactive drives an external haptic device that follows the player's timeline.
package interactive

import "errors"

// ErrNotConnected is returned when a command needs a connected device.
var ErrNotConnected = errors.New("interactive device not connected")

// State is the device connection state as shown to the user.
type State int

const (
	Missing State = iota
	Disconnected
	Error
	Connecting
	Syncing
	Uploading
	Ready
)

func (s State) String() string {
	switch s {
	case Missing:
		return "No connection key"
	case Disconnected:
		return "Disconnected"
	case Error:
		return "Error"
	case Connecting:
		return "Connecting"
	case Syncing:
		return "Syncing"
	case Uploading:
		return "Uploading script"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Device is the client for an interactive device.
//
// Play, Pause, EnsurePlaying and SetLooping never block: they are delivered to the
// device in call order and failures are logged by the client. UploadScript blocks
// until the script is accepted or rejected.
type Device interface {
	// Initialised reports whether the device finished connecting and can accept a script.
	Initialised() bool
	State() State
	// CurrentScript is the path of the script the device last accepted.
	CurrentScript() string

	UploadScript(path string) error
	Play(position float64)
	Pause()
	// EnsurePlaying starts the device at position unless it is already playing.
	EnsurePlaying(position float64)
	SetLooping(loop bool)

	// OnStateChange registers fn for connection state transitions.
	OnStateChange(fn func(State)) (off func())
}

// Nop is the device used when no interactive device is configured.
type Nop struct{}

var _ Device = Nop{}

func (Nop) Initialised() bool                { return false }
func (Nop) State() State                     { return Missing }
func (Nop) CurrentScript() string            { return "" }
func (Nop) UploadScript(string) error        { return ErrNotConnected }
func (Nop) Play(float64)                     {}
func (Nop) Pause()                           {}
func (Nop) EnsurePlaying(float64)            {}
func (Nop) SetLooping(bool)                  {}
func (Nop) OnStateChange(func(State)) func() { return func() {} }
