// Package playback keeps a playback engine and an interactive device in step with the
// scene being shown.
//
// All controller state is owned by a Dispatcher: public methods and engine events are
// posted to it and run one at a time. Script uploads and play attempts run on a
// Spawner and post their completion back, tagged with the scene they started for.
package playback

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sceneplay/sceneplay/config"
	"github.com/sceneplay/sceneplay/hotkey"
	"github.com/sceneplay/sceneplay/interactive"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/player"
	"github.com/sceneplay/sceneplay/scene"
)

// Persistence records scene activity. Calls are fire-and-forget from the controller.
type Persistence interface {
	SaveActivity(ctx context.Context, id string, resume, played float64) error
	IncrementPlayCount(ctx context.Context, id string) (int, error)
}

// Props is everything the caller controls. A new Props replaces the previous one.
type Props struct {
	Scene *scene.Scene
	// File is the media file to play. The scene's first file is used when nil.
	File *scene.File
	// InitialTimestamp requests a start offset in seconds. Values <= 0 mean none.
	InitialTimestamp float64
	Autoplay         bool
	PermitLoop       bool
	Config           config.Playback

	OnComplete func()
	OnNext     func()
	OnPrevious func()
}

// Options wires the controller to its runtime. Zero values select a goroutine-backed
// Loop and plain goroutines.
type Options struct {
	Dispatcher Dispatcher
	Spawn      Spawner
}

// session is the per-scene state, replaced wholesale when the scene changes.
type session struct {
	scene *scene.Scene
	file  *scene.File

	// load is the engine load generation bound for this scene.
	load uint64

	bound     bool
	started   bool
	ready     bool
	autoStart bool

	// pendingStart is applied on the next canplay and then cleared.
	pendingStart mo.Option[float64]
	time         float64
}

func (s *session) id() string {
	return s.scene.ID
}

// Controller drives one engine for its whole lifetime.
type Controller struct {
	engine      player.Engine
	device      interactive.Device
	persistence Persistence
	dispatch    Dispatcher
	spawn       Spawner
	ownLoop     *Loop

	props      Props
	session    *session
	handshake  Handshake
	looping    mo.Option[bool]
	fullscreen bool
	failed     bool
	closed     bool

	offs   []func()
	status atomic.Pointer[Status]
}

// New attaches a controller to engine and device. persistence may be nil, in which
// case activity is accounted but never stored.
func New(engine player.Engine, device interactive.Device, persistence Persistence, opts Options) *Controller {
	c := &Controller{
		engine:      engine,
		device:      lo.Ternary[interactive.Device](device == nil, interactive.Nop{}, device),
		persistence: persistence,
		dispatch:    opts.Dispatcher,
		spawn:       opts.Spawn,
	}

	if c.dispatch == nil {
		c.ownLoop = NewLoop()
		c.dispatch = c.ownLoop
	}
	if c.spawn == nil {
		c.spawn = goSpawner
	}

	c.status.Store(&Status{})
	c.subscribe()
	return c
}

// post runs fn on the dispatcher and publishes the resulting status.
func (c *Controller) post(fn func()) {
	c.dispatch.Post(func() {
		if c.closed {
			return
		}
		fn()
		c.publish()
	})
}

func (c *Controller) subscribe() {
	// Load lifecycle events can be queued behind a scene change; they only count for
	// the load they were emitted for.
	lifecycle := map[player.Event]func(){
		player.CanPlay:   c.onCanPlay,
		player.LoadStart: c.onLoadStart,
	}

	for event, handler := range lifecycle {
		c.offs = append(c.offs, c.engine.On(event, func() {
			load := c.engine.LoadGeneration()
			c.post(func() {
				if c.session == nil || c.session.load != load {
					log.Debugf("dropping %s of a previous load", event)
					return
				}
				handler()
			})
		}))
	}

	handlers := map[player.Event]func(){
		player.Playing:          c.onPlaying,
		player.FullscreenChange: c.onFullscreenChange,
		player.Play:             c.onPlay,
		player.Pause:            c.onPause,
		player.Seeking:          c.onSeeking,
		player.TimeUpdate:       c.onTimeUpdate,
		player.Ended:            c.onEnded,
	}

	for event, handler := range handlers {
		c.offs = append(c.offs, c.engine.On(event, func() { c.post(handler) }))
	}

	c.offs = append(c.offs, c.device.OnStateChange(func(interactive.State) {
		c.post(c.onDeviceState)
	}))
}

// Update replaces the caller's props. A scene whose ID differs from the current one is
// reinitialized; the same ID only refreshes markers, poster and configuration.
func (c *Controller) Update(props Props) {
	c.post(func() { c.update(props) })
}

func (c *Controller) update(props Props) {
	c.props = props

	sc := props.Scene
	file := props.File
	if file == nil {
		file = sc.PrimaryFile()
	}
	if sc == nil || file == nil {
		return
	}

	if c.session == nil || c.session.id() != sc.ID {
		c.reinitialize(sc, file)
	} else {
		c.refresh(sc, file)
	}

	c.configureActivity(sc.ID)
	c.applyLooping(Looping(props.PermitLoop, props.Config.MaximumLoopDuration, file.Duration))
	c.engine.SetVRButton(props.Config.VRTag != "" && sc.HasTag(props.Config.VRTag))

	c.beginHandshake()
	c.maybeAutoStart()
}

func (c *Controller) reinitialize(sc *scene.Scene, file *scene.File) {
	cfg := c.props.Config
	logger := log.Scene(sc.ID)
	logger.Info("initializing scene")

	c.engine.Activity().Reset()

	c.device.Pause()
	c.handshake.Reset()

	c.engine.SetMobileUI(player.MobileOptions{
		EnterOnRotate:          true,
		ExitOnRotate:           true,
		LockOnRotate:           true,
		LockToLandscapeOnEnter: file.Landscape(),
		TouchControlsDisabled:  true,
	})

	media := player.Media{
		Sources:    BuildSources(sc.Streams, file.Duration, cfg.DirectOnly),
		TextTracks: BuildCaptions(sc.Captions, sc.Paths.Caption, cfg.Locale),
		Thumbnails: sc.Paths.VTT,
		Poster:     sc.Paths.Screenshot,
		Markers:    BuildMarkers(sc.Markers),
	}

	start := StartPosition(c.props.InitialTimestamp, cfg.AlwaysStartFromBeginning, sc.ResumeTime, file.Duration)
	next := &session{
		scene:        sc,
		file:         file,
		autoStart:    AutoStart(c.props.Autoplay, cfg.AutostartVideo, c.props.InitialTimestamp),
		pendingStart: mo.Some(start),
		time:         start,
	}
	logger.Debugf("start position %.1fs, autostart %t, %d sources", start, next.autoStart, len(media.Sources))

	if err := c.engine.Load(media); err != nil {
		logger.Errorf("load: %v", err)
	} else {
		next.bound = true
	}
	next.load = c.engine.LoadGeneration()

	c.session = next
	c.failed = false
}

// refresh applies changes carried by a new value of the current scene.
func (c *Controller) refresh(sc *scene.Scene, file *scene.File) {
	prev := c.session.scene
	c.session.scene = sc
	c.session.file = file

	logger := log.Scene(sc.ID)

	if !reflect.DeepEqual(prev.Markers, sc.Markers) {
		if err := c.engine.SetMarkers(BuildMarkers(sc.Markers)); err != nil {
			logger.Warnf("set markers: %v", err)
		}
	}

	if prev.Paths.Screenshot != sc.Paths.Screenshot {
		if err := c.engine.SetPoster(sc.Paths.Screenshot); err != nil {
			logger.Warnf("set poster: %v", err)
		}
	}

	if c.handshake.State() != NotInitialised && c.handshake.Script() != sc.Paths.Funscript {
		logger.Info("interactive script changed")
		c.device.Pause()
		c.handshake.Reset()
	}
}

func (c *Controller) configureActivity(id string) {
	cfg := c.props.Config
	c.engine.Activity().Configure(player.ActivityHooks{
		SaveActivity: func(resume, played float64) {
			c.persist(id, "save activity", func(p Persistence) error {
				return p.SaveActivity(context.Background(), id, resume, played)
			})
		},
		IncrementPlayCount: func() {
			c.persist(id, "increment play count", func(p Persistence) error {
				_, err := p.IncrementPlayCount(context.Background(), id)
				return err
			})
		},
		MinimumPlayPercent: cfg.MinimumPlayPercent,
		Enabled:            cfg.TrackActivity && c.persistence != nil,
	})
}

// persist runs a persistence call in the background. Failures are logged and dropped.
func (c *Controller) persist(id, what string, call func(Persistence) error) {
	if c.persistence == nil {
		return
	}
	c.spawn(func() {
		if err := call(c.persistence); err != nil {
			log.Scene(id).Warnf("%s: %v", what, err)
		}
	})
}

func (c *Controller) applyLooping(loop bool) {
	if prev, ok := c.looping.Get(); ok && prev == loop {
		return
	}
	c.looping = mo.Some(loop)

	if err := c.engine.SetLoop(loop); err != nil {
		log.Warnf("set loop: %v", err)
	}
	if c.scriptApplied() {
		c.device.SetLooping(loop)
	}
}

// beginHandshake uploads the current scene's script once the device can accept one.
func (c *Controller) beginHandshake() {
	s := c.session
	if s == nil || !s.scene.Interactive || !c.device.Initialised() {
		return
	}

	id, script := s.id(), s.scene.Paths.Funscript
	if !c.handshake.Begin(id, script) {
		return
	}

	log.Scene(id).Info("uploading interactive script")
	c.spawn(func() {
		err := c.device.UploadScript(script)
		c.post(func() { c.uploadDone(id, script, err) })
	})
}

func (c *Controller) uploadDone(id, script string, err error) {
	logger := log.Scene(id)
	if err != nil {
		logger.Warnf("upload interactive script: %v", err)
		return
	}

	if !c.handshake.Complete(id, script) {
		logger.Debug("dropping stale script upload")
		c.reconcileScript()
		return
	}
	if !c.reconcileScript() {
		return
	}

	logger.Info("interactive device ready")
	c.device.SetLooping(c.looping.OrElse(false))
	c.maybeAutoStart()
}

// scriptApplied reports whether the handshake is Ready and the device holds its script.
func (c *Controller) scriptApplied() bool {
	return c.handshake.Ready() && c.device.CurrentScript() == c.handshake.Script()
}

// reconcileScript uploads the current script again when a late upload for an older
// scene replaced it on the device. It reports whether the device is in sync.
func (c *Controller) reconcileScript() bool {
	if !c.handshake.Ready() {
		return false
	}
	if c.scriptApplied() {
		return true
	}

	if c.session != nil {
		log.Scene(c.session.id()).Info("device script replaced by a stale upload, uploading again")
	}
	c.device.Pause()
	c.handshake.Reset()
	c.beginHandshake()
	return false
}

func (c *Controller) onDeviceState() {
	c.beginHandshake()
	c.maybeAutoStart()
}

// waitingForDevice reports whether an interactive scene must hold playback until the
// device has applied its script.
func (c *Controller) waitingForDevice(s *session) bool {
	if !s.scene.Interactive || c.device.State() == interactive.Missing {
		return false
	}
	return !c.handshake.Ready() || c.device.CurrentScript() != s.scene.Paths.Funscript
}

func (c *Controller) maybeAutoStart() {
	s := c.session
	if s == nil || !s.ready || !s.autoStart || c.waitingForDevice(s) {
		return
	}

	s.autoStart = false
	c.attemptPlay(s.id(), true, nil)
}

// attemptPlay asks the engine to play. A rejection with retry set mutes the engine and
// tries once more. then runs after a successful attempt for the still-current scene.
func (c *Controller) attemptPlay(id string, retry bool, then func()) {
	c.spawn(func() {
		err := c.engine.Play()
		c.post(func() { c.playDone(id, retry, err, then) })
	})
}

func (c *Controller) playDone(id string, retry bool, err error, then func()) {
	logger := log.Scene(id)
	if c.session == nil || c.session.id() != id {
		logger.Debug("dropping stale play attempt")
		return
	}

	if err == nil {
		if then != nil {
			then()
		}
		return
	}

	if !retry {
		logger.Warnf("playback did not start: %v", err)
		c.failed = true
		return
	}

	logger.Infof("play rejected, retrying muted: %v", err)
	c.engine.SetPersistVolume(false)
	if err := c.engine.SetMuted(true); err != nil {
		logger.Warnf("mute: %v", err)
	}
	c.attemptPlay(id, false, nil)
}

// SetTimestamp starts playback and then seeks to seconds. Negative values are ignored.
func (c *Controller) SetTimestamp(seconds float64) {
	c.post(func() {
		if seconds < 0 || c.session == nil {
			return
		}
		c.attemptPlay(c.session.id(), false, func() {
			if err := c.engine.SetCurrentTime(seconds); err != nil {
				log.Scene(c.session.id()).Warnf("seek: %v", err)
			}
		})
	})
}

// HandleKey interprets a key press and applies it to the engine.
func (c *Controller) HandleKey(event hotkey.Event) {
	c.post(func() {
		cmd := hotkey.Interpret(event)
		if cmd.Action == hotkey.None {
			return
		}
		if err := cmd.Apply(c.engine); err != nil {
			log.Warnf("%s: %v", cmd.Action, err)
		}
	})
}

// ScrubSeek seeks from the scrubber. Before playback has started it only moves the
// start position.
func (c *Controller) ScrubSeek(seconds float64) {
	c.post(func() {
		s := c.session
		if s == nil {
			return
		}
		if s.started {
			if err := c.engine.SetCurrentTime(seconds); err != nil {
				log.Scene(s.id()).Warnf("seek: %v", err)
			}
			return
		}
		s.pendingStart = mo.Some(seconds)
		s.time = seconds
	})
}

// ScrubScroll pauses playback when the user drags the scrubber after starting.
func (c *Controller) ScrubScroll() {
	c.post(func() {
		if c.session == nil || !c.session.started {
			return
		}
		if err := c.engine.Pause(); err != nil {
			log.Scene(c.session.id()).Warnf("pause: %v", err)
		}
	})
}

// SkipForward asks the caller for the next scene.
func (c *Controller) SkipForward() {
	c.post(func() { call(c.props.OnNext) })
}

// SkipBackward asks the caller for the previous scene.
func (c *Controller) SkipBackward() {
	c.post(func() { call(c.props.OnPrevious) })
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// Close releases every engine and device subscription, stops the device and stops the
// controller's own loop. The engine is left open. Close must not be called from a
// navigation callback.
func (c *Controller) Close() {
	done := make(chan struct{})
	c.dispatch.Post(func() {
		defer close(done)
		if c.closed {
			return
		}
		c.closed = true
		c.device.Pause()
		for _, off := range c.offs {
			off()
		}
		c.offs = nil
	})

	if c.ownLoop != nil {
		<-done
		c.ownLoop.Close()
	}
}
