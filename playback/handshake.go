package playback

// HandshakeState is the readiness of the interactive device for the current scene.
type HandshakeState int

const (
	NotInitialised HandshakeState = iota
	UploadingScript
	Ready
)

func (s HandshakeState) String() string {
	switch s {
	case NotInitialised:
		return "not initialised"
	case UploadingScript:
		return "uploading script"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Handshake tracks the script upload for one (scene, script) pair. Completions for
// any other pair are refused, so a late upload never readies a newer scene.
type Handshake struct {
	state   HandshakeState
	sceneID string
	script  string
}

// Reset returns to NotInitialised and forgets the pair.
func (h *Handshake) Reset() {
	*h = Handshake{}
}

// Begin starts an upload for the pair. It fails unless the handshake is NotInitialised.
func (h *Handshake) Begin(sceneID, script string) bool {
	if h.state != NotInitialised {
		return false
	}
	h.state = UploadingScript
	h.sceneID = sceneID
	h.script = script
	return true
}

// Complete marks the pair Ready if it is the upload in flight.
func (h *Handshake) Complete(sceneID, script string) bool {
	if h.state != UploadingScript || h.sceneID != sceneID || h.script != script {
		return false
	}
	h.state = Ready
	return true
}

// Ready reports whether timing commands may be forwarded.
func (h *Handshake) Ready() bool {
	return h.state == Ready
}

func (h *Handshake) State() HandshakeState {
	return h.state
}

// Script is the script of the pair being uploaded or applied.
func (h *Handshake) Script() string {
	return h.script
}
