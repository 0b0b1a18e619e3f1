package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sceneplay/sceneplay/interactive"
	"github.com/sceneplay/sceneplay/player"
	"github.com/sceneplay/sceneplay/scene"
)

var errRejected = errors.New("autoplay blocked")

type fakeActivity struct {
	resets int
	hooks  player.ActivityHooks
}

func (a *fakeActivity) Reset()                           { a.resets++ }
func (a *fakeActivity) Configure(h player.ActivityHooks) { a.hooks = h }

type fakeEngine struct {
	mu       sync.Mutex
	handlers map[player.Event]map[int]player.Handler
	nextID   int

	paused     bool
	time       float64
	duration   float64
	muted      bool
	volume     float64
	fullscreen bool

	playErrs []error
	plays    int
	pauses   int
	seeks    []float64

	loads      []player.Media
	generation uint64
	markers    [][]player.Marker
	posters    []string
	loop       []bool
	mobile     []player.MobileOptions
	persistVol []bool
	vr         []bool
	activity   *fakeActivity
}

var _ player.Engine = (*fakeEngine)(nil)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		handlers: make(map[player.Event]map[int]player.Handler),
		paused:   true,
		duration: 600,
		volume:   1,
		activity: &fakeActivity{},
	}
}

func (e *fakeEngine) On(event player.Event, h player.Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers[event] == nil {
		e.handlers[event] = make(map[int]player.Handler)
	}
	id := e.nextID
	e.nextID++
	e.handlers[event][id] = h

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers[event], id)
	}
}

func (e *fakeEngine) emit(event player.Event) {
	e.mu.Lock()
	handlers := make([]player.Handler, 0, len(e.handlers[event]))
	for _, h := range e.handlers[event] {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

func (e *fakeEngine) subscriptions() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, hs := range e.handlers {
		n += len(hs)
	}
	return n
}

func (e *fakeEngine) Paused() bool { return e.paused }

func (e *fakeEngine) Play() error {
	e.plays++
	if len(e.playErrs) > 0 {
		err := e.playErrs[0]
		e.playErrs = e.playErrs[1:]
		if err != nil {
			return fmt.Errorf("%w: %w", player.ErrPlaybackRejected, err)
		}
	}
	e.paused = false
	return nil
}

func (e *fakeEngine) Pause() error {
	e.pauses++
	e.paused = true
	return nil
}

func (e *fakeEngine) CurrentTime() float64 { return e.time }

func (e *fakeEngine) SetCurrentTime(seconds float64) error {
	e.seeks = append(e.seeks, seconds)
	e.time = seconds
	return nil
}

func (e *fakeEngine) Duration() float64 { return e.duration }
func (e *fakeEngine) Muted() bool       { return e.muted }

func (e *fakeEngine) SetMuted(muted bool) error {
	e.muted = muted
	return nil
}

func (e *fakeEngine) Volume() float64 { return e.volume }

func (e *fakeEngine) SetVolume(level float64) error {
	e.volume = level
	return nil
}

func (e *fakeEngine) IsFullscreen() bool { return e.fullscreen }

func (e *fakeEngine) RequestFullscreen() error {
	e.fullscreen = true
	return nil
}

func (e *fakeEngine) ExitFullscreen() error {
	e.fullscreen = false
	return nil
}

func (e *fakeEngine) Load(media player.Media) error {
	e.loads = append(e.loads, media)
	e.generation++
	return nil
}

func (e *fakeEngine) LoadGeneration() uint64 { return e.generation }

func (e *fakeEngine) SetMarkers(markers []player.Marker) error {
	e.markers = append(e.markers, markers)
	return nil
}

func (e *fakeEngine) SetPoster(path string) error {
	e.posters = append(e.posters, path)
	return nil
}

func (e *fakeEngine) SetLoop(loop bool) error {
	e.loop = append(e.loop, loop)
	return nil
}

func (e *fakeEngine) SetMobileUI(options player.MobileOptions) { e.mobile = append(e.mobile, options) }
func (e *fakeEngine) SetPersistVolume(enabled bool)            { e.persistVol = append(e.persistVol, enabled) }
func (e *fakeEngine) SetVRButton(show bool)                    { e.vr = append(e.vr, show) }
func (e *fakeEngine) Activity() player.Activity                { return e.activity }
func (e *fakeEngine) Close() error                             { return nil }

// fakeDevice records commands as "play 12", "ensure 13", "pause", "loop true".
type fakeDevice struct {
	initialised bool
	state       interactive.State
	script      string
	uploadErr   error
	uploads     []string
	commands    []string
	listeners   map[int]func(interactive.State)
	nextID      int
	// observe, when set, sees every command as it is sent.
	observe func(cmd string)
}

var _ interactive.Device = (*fakeDevice)(nil)

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		initialised: true,
		state:       interactive.Ready,
		listeners:   make(map[int]func(interactive.State)),
	}
}

func (d *fakeDevice) Initialised() bool         { return d.initialised }
func (d *fakeDevice) State() interactive.State  { return d.state }
func (d *fakeDevice) CurrentScript() string     { return d.script }
func (d *fakeDevice) Play(position float64)     { d.record("play %g", position) }
func (d *fakeDevice) Pause()                    { d.record("pause") }
func (d *fakeDevice) EnsurePlaying(pos float64) { d.record("ensure %g", pos) }
func (d *fakeDevice) SetLooping(loop bool)      { d.record("loop %t", loop) }

func (d *fakeDevice) record(f string, args ...any) {
	cmd := fmt.Sprintf(f, args...)
	if d.observe != nil {
		d.observe(cmd)
	}
	d.commands = append(d.commands, cmd)
}

func (d *fakeDevice) UploadScript(path string) error {
	d.uploads = append(d.uploads, path)
	if d.uploadErr != nil {
		return d.uploadErr
	}
	d.script = path
	return nil
}

func (d *fakeDevice) OnStateChange(fn func(interactive.State)) func() {
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() { delete(d.listeners, id) }
}

func (d *fakeDevice) setState(s interactive.State, initialised bool) {
	d.state = s
	d.initialised = initialised
	for _, fn := range d.listeners {
		fn(s)
	}
}

type activityCall struct {
	id             string
	resume, played float64
}

type fakeStore struct {
	mu     sync.Mutex
	saves  []activityCall
	counts []string
	err    error
}

func (s *fakeStore) SaveActivity(_ context.Context, id string, resume, played float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, activityCall{id, resume, played})
	return s.err
}

func (s *fakeStore) IncrementPlayCount(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, id)
	return len(s.counts), s.err
}

// manualDispatcher queues posted functions until Drain.
type manualDispatcher struct {
	queue []func()
}

func (d *manualDispatcher) Post(fn func()) { d.queue = append(d.queue, fn) }

func (d *manualDispatcher) Drain() {
	for len(d.queue) > 0 {
		fn := d.queue[0]
		d.queue = d.queue[1:]
		fn()
	}
}

// manualSpawner holds spawned work so tests choose when, and in which order, it runs.
type manualSpawner struct {
	tasks []func()
}

func (s *manualSpawner) Spawn(fn func()) { s.tasks = append(s.tasks, fn) }

// Run executes the i-th pending task.
func (s *manualSpawner) Run(i int) {
	fn := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	fn()
}

func (s *manualSpawner) Pending() int { return len(s.tasks) }

type harness struct {
	engine *fakeEngine
	device *fakeDevice
	store  *fakeStore
	loop   *manualDispatcher
	tasks  *manualSpawner
	c      *Controller
}

func newHarness() *harness {
	h := &harness{
		engine: newFakeEngine(),
		device: newFakeDevice(),
		store:  &fakeStore{},
		loop:   &manualDispatcher{},
		tasks:  &manualSpawner{},
	}
	h.c = New(h.engine, h.device, h.store, Options{Dispatcher: h.loop, Spawn: h.tasks.Spawn})
	return h
}

// settle drains the loop and runs spawned work, in order, until nothing is left.
func (h *harness) settle() {
	h.loop.Drain()
	for h.tasks.Pending() > 0 {
		h.tasks.Run(0)
		h.loop.Drain()
	}
}

func (h *harness) update(props Props) {
	h.c.Update(props)
	h.loop.Drain()
}

func (h *harness) emit(events ...player.Event) {
	for _, e := range events {
		h.engine.emit(e)
	}
	h.loop.Drain()
}

func testScene(id string) *scene.Scene {
	base := "http://stash/scene/" + id
	return &scene.Scene{
		ID:    id,
		Title: "Scene " + id,
		Files: []scene.File{{Path: "/media/" + id + ".mp4", Duration: 600, Width: 1920, Height: 1080}},
		Streams: []scene.Stream{
			{URL: base + "/stream", MimeType: "video/mp4", Label: "Direct stream"},
			{URL: base + "/stream.mp4?resolution=STANDARD", MimeType: "video/mp4", Label: "480p"},
		},
		Captions: []scene.Caption{
			{LanguageCode: "en", CaptionType: "srt"},
			{LanguageCode: "fr", CaptionType: "vtt"},
		},
		Markers: []scene.Marker{
			{Seconds: 30, PrimaryTag: scene.Tag{Name: "Intro"}},
		},
		ResumeTime: 120,
		Paths: scene.Paths{
			Screenshot: base + "/screenshot",
			Caption:    base + "/caption",
			VTT:        base + "/vtt",
			Funscript:  base + "/funscript",
		},
	}
}

func interactiveScene(id string) *scene.Scene {
	s := testScene(id)
	s.Interactive = true
	return s
}
