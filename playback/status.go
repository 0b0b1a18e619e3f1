package playback

import (
	"github.com/sceneplay/sceneplay/interactive"
	"github.com/sceneplay/sceneplay/player"
)

// Status is a snapshot of the controller for display. It is safe to read from any goroutine.
type Status struct {
	SceneID     string
	Title       string
	Interactive bool

	Started    bool
	Paused     bool
	Muted      bool
	Fullscreen bool
	Looping    bool
	// Failed is set when playback did not start after every retry.
	Failed bool

	// Time is the displayed position: the pending start before playback starts, the
	// engine position afterwards.
	Time     float64
	Duration float64
	Volume   float64
	Markers  []player.Marker

	Handshake HandshakeState
	Device    interactive.State
}

// ShowInteractiveBadge reports whether the device status should be shown over the video.
func (s Status) ShowInteractiveBadge() bool {
	return s.Interactive && (s.Device != interactive.Ready || s.Paused)
}

// Status returns the latest snapshot.
func (c *Controller) Status() Status {
	return *c.status.Load()
}

func (c *Controller) publish() {
	st := &Status{
		Paused:     c.engine.Paused(),
		Muted:      c.engine.Muted(),
		Fullscreen: c.fullscreen,
		Looping:    c.looping.OrElse(false),
		Failed:     c.failed,
		Volume:     c.engine.Volume(),
		Handshake:  c.handshake.State(),
		Device:     c.device.State(),
	}

	if s := c.session; s != nil {
		st.SceneID = s.id()
		st.Title = s.scene.DisplayTitle()
		st.Interactive = s.scene.Interactive
		st.Started = s.started
		st.Time = s.time
		if s.started {
			st.Time = c.engine.CurrentTime()
		}
		st.Duration = s.file.Duration
		if d := c.engine.Duration(); d > 0 {
			st.Duration = d
		}
		st.Markers = BuildMarkers(s.scene.Markers)
	}

	c.status.Store(st)
}
