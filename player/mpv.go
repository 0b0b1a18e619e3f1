package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/util"
	"github.com/sceneplay/sceneplay/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// mpvState caches what mpv last reported so getters never touch the socket.
type mpvState struct {
	paused     bool
	time       float64
	duration   float64
	volume     float64
	muted      bool
	fullscreen bool
	ended      bool
}

// MPV implements Engine on top of a long-lived mpv process controlled over JSON-IPC.
type MPV struct {
	emitter

	path       string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	eventConn  net.Conn
	ipcMu      sync.Mutex

	// loadMu orders load lifecycle transitions with the events they emit.
	loadMu     sync.Mutex
	loads      loadTracker
	generation atomic.Uint64

	mu         sync.Mutex
	state      mpvState
	pending    *Media
	media      Media
	mobile     MobileOptions
	persistVol bool
	vrButton   bool
	volumes    VolumeStore
	activity   *ActivityTracker
}

var _ Engine = (*MPV)(nil)

// NewMPV creates an engine that runs the mpv executable at path. Nothing starts until Start.
func NewMPV(path string, volumes VolumeStore) *MPV {
	return &MPV{
		path:     lo.Ternary(path == "", "mpv", path),
		exited:   make(chan struct{}),
		state:    mpvState{paused: true, volume: 1},
		volumes:  volumes,
		activity: &ActivityTracker{},
	}
}

// Start launches an idle mpv window and subscribes to its events. The process lives
// for the lifetime of the engine; scenes are swapped with Load.
func (m *MPV) Start() error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", randomBytes))

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=yes",
		"--pause=yes",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
	}

	m.cmd = exec.Command(m.path, args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	if err := m.listen(); err != nil {
		return err
	}

	m.restoreVolume()
	return nil
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Load binds the first surviving source. Caption tracks and chapters are applied
// once mpv reports file-loaded, since they attach to the current file.
func (m *MPV) Load(media Media) error {
	m.loadMu.Lock()
	m.generation.Store(m.loads.begin())
	m.loadMu.Unlock()

	reply, err := m.loadFile(media)

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if err != nil {
		m.loads.bound(-1)
		return err
	}

	start, loaded := m.loads.bound(playlistEntry(reply))
	if start {
		m.emit(LoadStart)
	}
	if loaded {
		m.applyPending()
		m.emit(CanPlay)
	}
	return nil
}

func (m *MPV) loadFile(media Media) (interface{}, error) {
	if len(media.Sources) == 0 {
		return nil, fmt.Errorf("load: no playable sources")
	}

	target, err := sanitizeMediaTarget(media.Sources[0].URL)
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	m.mu.Lock()
	m.media = media
	m.pending = &media
	m.mu.Unlock()

	reply, err := m.sendCommand("loadfile", target, "replace")
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", media.Sources[0].Label, err)
	}
	return reply, nil
}

// LoadGeneration identifies the latest Load. LoadStart and CanPlay are only emitted
// for it, and it does not change while they are being delivered.
func (m *MPV) LoadGeneration() uint64 {
	return m.generation.Load()
}

// applyPending attaches caption tracks and chapters for the file that just loaded.
func (m *MPV) applyPending() {
	m.mu.Lock()
	media := m.pending
	m.pending = nil
	m.mu.Unlock()

	if media == nil {
		return
	}

	for _, track := range media.TextTracks {
		flag := lo.Ternary(track.Default, "select", "auto")
		if _, err := m.sendCommand("sub-add", track.Src, flag, track.Label, track.Lang); err != nil {
			log.Warnf("add caption %s: %v", track.Label, err)
		}
	}

	if err := m.SetMarkers(media.Markers); err != nil {
		log.Warnf("apply markers: %v", err)
	}
}

// SetMarkers replaces the chapter list with markers.
func (m *MPV) SetMarkers(markers []Marker) error {
	m.mu.Lock()
	m.media.Markers = markers
	m.mu.Unlock()

	chapters := lo.Map(markers, func(mk Marker, _ int) map[string]interface{} {
		return map[string]interface{}{"title": mk.Title, "time": mk.Time}
	})
	_, err := m.sendCommand("set_property", "chapter-list", chapters)
	return err
}

// SetPoster records the poster. mpv shows the first frame instead.
func (m *MPV) SetPoster(path string) error {
	m.mu.Lock()
	m.media.Poster = path
	m.mu.Unlock()
	return nil
}

func (m *MPV) SetLoop(loop bool) error {
	_, err := m.sendCommand("set_property", "loop-file", lo.Ternary(loop, "inf", "no"))
	return err
}

// SetMobileUI records rotation preferences; a desktop window has no orientation lock.
func (m *MPV) SetMobileUI(options MobileOptions) {
	m.mu.Lock()
	m.mobile = options
	m.mu.Unlock()
	log.Debugf("mobile ui: landscape lock %t", options.LockToLandscapeOnEnter)
}

func (m *MPV) SetPersistVolume(enabled bool) {
	m.mu.Lock()
	m.persistVol = enabled
	m.mu.Unlock()
}

// SetVRButton toggles the 360 projection binding offered in the window.
func (m *MPV) SetVRButton(show bool) {
	m.mu.Lock()
	m.vrButton = show
	m.mu.Unlock()
}

func (m *MPV) Activity() Activity {
	return m.activity
}

func (m *MPV) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.paused
}

func (m *MPV) Play() error {
	if _, err := m.sendCommand("set_property", "pause", false); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackRejected, err)
	}
	return nil
}

func (m *MPV) Pause() error {
	_, err := m.sendCommand("set_property", "pause", true)
	return err
}

func (m *MPV) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.time
}

func (m *MPV) SetCurrentTime(seconds float64) error {
	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.duration
}

func (m *MPV) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.muted
}

func (m *MPV) SetMuted(muted bool) error {
	_, err := m.sendCommand("set_property", "mute", muted)
	return err
}

func (m *MPV) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.volume
}

// SetVolume takes a level in [0, 1] and clamps out-of-range values.
func (m *MPV) SetVolume(level float64) error {
	_, err := m.sendCommand("set_property", "volume", util.Clamp(level, 0, 1)*100)
	return err
}

func (m *MPV) IsFullscreen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.fullscreen
}

func (m *MPV) RequestFullscreen() error {
	_, err := m.sendCommand("set_property", "fullscreen", true)
	return err
}

func (m *MPV) ExitFullscreen() error {
	_, err := m.sendCommand("set_property", "fullscreen", false)
	return err
}

// Close quits mpv, force-killing it if it does not exit within three seconds.
func (m *MPV) Close() error {
	if m.socketPath == "" {
		return nil
	}

	_, _ = m.sendCommand("quit")

	if m.eventConn != nil {
		_ = m.eventConn.Close()
	}

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// sanitizeMediaTarget rejects targets that mpv could interpret as flags.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}
