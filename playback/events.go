package playback

import (
	"github.com/samber/mo"
	"github.com/sceneplay/sceneplay/log"
)

// onCanPlay applies the pending start position once per load.
func (c *Controller) onCanPlay() {
	s := c.session
	if s == nil {
		return
	}
	if start, ok := s.pendingStart.Get(); ok {
		if err := c.engine.SetCurrentTime(start); err != nil {
			log.Scene(s.id()).Warnf("seek to start: %v", err)
		}
		s.pendingStart = mo.None[float64]()
	}
}

// onPlaying marks the scene started. A playing pulse while the engine still reports
// paused does not count.
func (c *Controller) onPlaying() {
	if s := c.session; s != nil && !s.started && !c.engine.Paused() {
		s.started = true
	}
}

func (c *Controller) onLoadStart() {
	if c.session == nil {
		return
	}
	c.session.ready = true
	c.maybeAutoStart()
}

func (c *Controller) onFullscreenChange() {
	c.fullscreen = c.engine.IsFullscreen()
}

func (c *Controller) onPlay() {
	c.engine.SetPersistVolume(true)
	if c.forwarding() {
		c.device.Play(c.engine.CurrentTime())
	}
}

func (c *Controller) onPause() {
	if c.forwarding() {
		c.device.Pause()
	}
}

// onSeeking resynchronizes the device. A seek while paused sends nothing.
func (c *Controller) onSeeking() {
	if c.engine.Paused() {
		return
	}
	if c.forwarding() {
		c.device.Play(c.engine.CurrentTime())
	}
}

func (c *Controller) onTimeUpdate() {
	if c.engine.Paused() {
		return
	}
	position := c.engine.CurrentTime()
	if c.forwarding() {
		c.device.EnsurePlaying(position)
	}
	if c.session != nil {
		c.session.time = position
	}
}

func (c *Controller) onEnded() {
	call(c.props.OnComplete)
}

// forwarding reports whether timing commands may reach the device: the handshake is
// Ready and the device still holds the script it readied.
func (c *Controller) forwarding() bool {
	return c.session != nil && c.session.scene.Interactive && c.scriptApplied()
}
