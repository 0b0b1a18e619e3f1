package player

import "sync"

const (
	// activitySaveInterval is how much newly played time accumulates before a save.
	activitySaveInterval = 10.0
	// activityMaxStep bounds a single progress delta; larger jumps are seeks.
	activityMaxStep = 2.0
)

// ActivityHooks are the effects the tracker fires and the policy it applies.
type ActivityHooks struct {
	SaveActivity       func(resumeTime, playDuration float64)
	IncrementPlayCount func()
	MinimumPlayPercent float64
	Enabled            bool
}

// Activity is the controller-facing side of an engine's activity accounting.
type Activity interface {
	Reset()
	Configure(hooks ActivityHooks)
}

// ActivityTracker accumulates watched time from progress notifications, saves the
// resume point periodically and counts one play per session once enough of the
// media has been watched.
type ActivityTracker struct {
	mu      sync.Mutex
	hooks   ActivityHooks
	last    float64
	hasLast bool
	resume  float64
	played  float64
	pending float64
	counted bool
}

var _ Activity = (*ActivityTracker)(nil)

// Reset clears accumulated state for a new scene.
func (a *ActivityTracker) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.hasLast = false
	a.last = 0
	a.resume = 0
	a.played = 0
	a.pending = 0
	a.counted = false
}

// Configure replaces hooks and policy. Accumulated state is kept.
func (a *ActivityTracker) Configure(hooks ActivityHooks) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = hooks
}

// Played returns the total time watched since the last Reset.
func (a *ActivityTracker) Played() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.played
}

// Progress records a playback position while media is playing.
func (a *ActivityTracker) Progress(position, duration float64) {
	var fire []func()

	a.mu.Lock()
	if a.hasLast {
		if delta := position - a.last; delta > 0 && delta <= activityMaxStep {
			a.played += delta
			a.pending += delta
		}
	}
	a.last = position
	a.hasLast = true
	a.resume = position

	if a.hooks.Enabled {
		if !a.counted && duration > 0 && a.played*100/duration >= a.hooks.MinimumPlayPercent {
			a.counted = true
			if a.hooks.IncrementPlayCount != nil {
				fire = append(fire, a.hooks.IncrementPlayCount)
			}
		}
		if a.pending >= activitySaveInterval {
			fire = append(fire, a.flushLocked())
		}
	}
	a.mu.Unlock()

	run(fire)
}

// Interrupt records a pause or seek: the next progress delta is not counted and
// pending time is saved.
func (a *ActivityTracker) Interrupt(position float64) {
	a.mu.Lock()
	a.hasLast = false
	a.resume = position
	var fire []func()
	if a.hooks.Enabled && a.pending > 0 {
		fire = append(fire, a.flushLocked())
	}
	a.mu.Unlock()

	run(fire)
}

// Ended saves the remaining time with the resume point rewound to the start.
func (a *ActivityTracker) Ended() {
	a.mu.Lock()
	a.hasLast = false
	a.resume = 0
	var fire []func()
	if a.hooks.Enabled {
		fire = append(fire, a.flushLocked())
	}
	a.mu.Unlock()

	run(fire)
}

func (a *ActivityTracker) flushLocked() func() {
	save := a.hooks.SaveActivity
	resume, played := a.resume, a.pending
	a.pending = 0
	return func() {
		if save != nil {
			save(resume, played)
		}
	}
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
