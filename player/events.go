package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/sceneplay/sceneplay/log"
)

// observed lists the properties the event connection subscribes to. mpv scopes
// observe_property to the client that sent it, so the subscription and the read
// loop share one connection.
var observed = []string{
	"pause",
	"time-pos",
	"duration",
	"seeking",
	"eof-reached",
	"volume",
	"mute",
	"fullscreen",
}

// ipcEvent is one newline-delimited message on the event connection. Command
// replies carry request_id and no event name; file events carry their playlist entry.
type ipcEvent struct {
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Reason    string          `json:"reason"`
	RequestID int             `json:"request_id"`
	EntryID   int64           `json:"playlist_entry_id"`
}

// listen subscribes to the observed properties and starts the read loop.
func (m *MPV) listen() error {
	conn, err := net.Dial("unix", m.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		payload, err := json.Marshal(ipcCommand{
			Command:   []interface{}{"observe_property", i + 1, name},
			RequestID: i + 1,
		})
		if err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	m.eventConn = conn
	go m.readLoop(conn)

	log.Infof("mpv event listener started on %s", m.socketPath)
	return nil
}

func (m *MPV) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var ev ipcEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if ev.Event == "" {
			continue
		}
		m.handleEvent(ev)
	}

	if err := scanner.Err(); err != nil {
		log.Warnf("mpv event listener stopped: %v", err)
	}
}

// handleEvent folds an mpv event into the state cache and re-emits it as engine events.
func (m *MPV) handleEvent(ev ipcEvent) {
	switch ev.Event {
	case "start-file":
		m.mu.Lock()
		m.state.ended = false
		m.state.time = 0
		m.mu.Unlock()

		m.loadMu.Lock()
		if m.loads.startFile(ev.EntryID) {
			m.emit(LoadStart)
		}
		m.loadMu.Unlock()
	case "file-loaded":
		m.loadMu.Lock()
		if m.loads.fileLoaded() {
			m.applyPending()
			m.emit(CanPlay)
		}
		m.loadMu.Unlock()
	case "end-file":
		if ev.Reason == "eof" {
			m.ended()
		}
	case "property-change":
		m.propertyChanged(ev.Name, ev.Data)
	}
}

func (m *MPV) propertyChanged(name string, data json.RawMessage) {
	switch name {
	case "pause":
		var paused bool
		if json.Unmarshal(data, &paused) != nil {
			return
		}
		m.mu.Lock()
		changed := m.state.paused != paused
		m.state.paused = paused
		pos := m.state.time
		m.mu.Unlock()
		if !changed {
			return
		}
		if paused {
			m.activity.Interrupt(pos)
			m.emit(Pause)
		} else {
			m.emit(Play)
			m.emit(Playing)
		}
	case "time-pos":
		var pos float64
		if json.Unmarshal(data, &pos) != nil {
			return
		}
		m.mu.Lock()
		m.state.time = pos
		paused, duration := m.state.paused, m.state.duration
		m.mu.Unlock()
		if !paused {
			m.activity.Progress(pos, duration)
		}
		m.emit(TimeUpdate)
	case "duration":
		var d float64
		if json.Unmarshal(data, &d) == nil {
			m.mu.Lock()
			m.state.duration = d
			m.mu.Unlock()
		}
	case "seeking":
		var seeking bool
		if json.Unmarshal(data, &seeking) == nil && seeking {
			m.mu.Lock()
			pos := m.state.time
			m.mu.Unlock()
			m.activity.Interrupt(pos)
			m.emit(Seeking)
		}
	case "eof-reached":
		var eof bool
		if json.Unmarshal(data, &eof) == nil && eof {
			m.ended()
		}
	case "volume":
		var v float64
		if json.Unmarshal(data, &v) == nil {
			m.mu.Lock()
			m.state.volume = v / 100
			m.mu.Unlock()
			m.persistVolume()
		}
	case "mute":
		var muted bool
		if json.Unmarshal(data, &muted) == nil {
			m.mu.Lock()
			m.state.muted = muted
			m.mu.Unlock()
			m.persistVolume()
		}
	case "fullscreen":
		var fs bool
		if json.Unmarshal(data, &fs) == nil {
			m.mu.Lock()
			m.state.fullscreen = fs
			m.mu.Unlock()
			m.emit(FullscreenChange)
		}
	}
}

// ended emits Ended at most once per loaded file; mpv reports both eof-reached and end-file.
func (m *MPV) ended() {
	m.mu.Lock()
	if m.state.ended {
		m.mu.Unlock()
		return
	}
	m.state.ended = true
	m.mu.Unlock()

	m.activity.Ended()
	m.emit(Ended)
}
