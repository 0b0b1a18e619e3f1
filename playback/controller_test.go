package playback

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/sceneplay/sceneplay/config"
	"github.com/sceneplay/sceneplay/hotkey"
	"github.com/sceneplay/sceneplay/interactive"
	"github.com/sceneplay/sceneplay/player"
	"github.com/sceneplay/sceneplay/scene"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReinitialization(t *testing.T) {
	Convey("Given a controller", t, func() {
		h := newHarness()
		cfg := config.Playback{Locale: "fr-FR"}

		Convey("A resumable scene starts at its resume point without playing", func() {
			h.update(Props{Scene: testScene("a"), Config: cfg})

			So(h.engine.loads, ShouldHaveLength, 1)
			So(h.c.Status().Time, ShouldEqual, 120)

			h.emit(player.LoadStart, player.CanPlay)
			So(h.engine.seeks, ShouldResemble, []float64{120})
			So(h.tasks.Pending(), ShouldEqual, 0)
			So(h.engine.plays, ShouldEqual, 0)

			Convey("The start position applies once", func() {
				h.emit(player.CanPlay)
				So(h.engine.seeks, ShouldHaveLength, 1)
			})
		})

		Convey("The scene is prepared in order", func() {
			h.update(Props{Scene: testScene("a"), Config: cfg})

			So(h.engine.activity.resets, ShouldEqual, 1)
			So(h.device.commands, ShouldResemble, []string{"pause"})
			So(h.engine.mobile, ShouldHaveLength, 1)
			So(h.engine.mobile[0].LockToLandscapeOnEnter, ShouldBeTrue)
			So(h.engine.mobile[0].TouchControlsDisabled, ShouldBeTrue)

			media := h.engine.loads[0]
			So(media.Sources, ShouldHaveLength, 2)
			So(media.Sources[0].Offset, ShouldBeFalse)
			So(media.Sources[1].Offset, ShouldBeTrue)
			So(media.Sources[1].Duration, ShouldEqual, 600)
			So(media.Poster, ShouldEqual, "http://stash/scene/a/screenshot")
			So(media.Thumbnails, ShouldEqual, "http://stash/scene/a/vtt")
			So(media.Markers, ShouldResemble, []player.Marker{{Title: "Intro", Time: 30}})
		})

		Convey("The caption matching the locale is the default", func() {
			h.update(Props{Scene: testScene("a"), Config: cfg})

			tracks := h.engine.loads[0].TextTracks
			So(tracks, ShouldHaveLength, 2)
			So(tracks[0].Default, ShouldBeFalse)
			So(tracks[1].Default, ShouldBeTrue)
			So(tracks[1].Label, ShouldEqual, "French (vtt)")
			So(tracks[1].Src, ShouldEqual, "http://stash/scene/a/caption?lang=fr&type=vtt")
		})

		Convey("Direct-only engines only get direct streams", func() {
			cfg.DirectOnly = true
			h.update(Props{Scene: testScene("a"), Config: cfg})

			So(h.engine.loads[0].Sources, ShouldHaveLength, 1)
			So(h.engine.loads[0].Sources[0].Label, ShouldEqual, "Direct stream")
		})

		Convey("A portrait file does not lock to landscape", func() {
			sc := testScene("a")
			sc.Files[0].Width, sc.Files[0].Height = 1080, 1920
			h.update(Props{Scene: sc, Config: cfg})

			So(h.engine.mobile[0].LockToLandscapeOnEnter, ShouldBeFalse)
		})

		Convey("A missing scene or file changes nothing", func() {
			h.update(Props{Config: cfg})
			h.update(Props{Scene: &scene.Scene{ID: "empty"}, Config: cfg})

			So(h.engine.loads, ShouldBeEmpty)
			So(h.engine.mobile, ShouldBeEmpty)
			So(h.engine.loop, ShouldBeEmpty)
			So(h.engine.activity.resets, ShouldEqual, 0)
			So(h.device.commands, ShouldBeEmpty)
		})

		Convey("When the same scene is updated again", func() {
			sc := testScene("a")
			h.update(Props{Scene: sc, Config: cfg})
			h.update(Props{Scene: sc, Config: cfg})

			Convey("It is not reloaded", func() {
				So(h.engine.loads, ShouldHaveLength, 1)
				So(h.engine.activity.resets, ShouldEqual, 1)
				So(h.engine.markers, ShouldBeEmpty)
			})

			Convey("New markers and poster on the same ID are applied in place", func() {
				changed := testScene("a")
				changed.Markers = append(changed.Markers, scene.Marker{
					Seconds:    90,
					PrimaryTag: scene.Tag{Name: "Kiss"},
					Tags:       []scene.Tag{{Name: "Close up"}},
				})
				changed.Paths.Screenshot = "http://stash/scene/a/screenshot?t=2"
				h.update(Props{Scene: changed, Config: cfg})

				So(h.engine.loads, ShouldHaveLength, 1)
				So(h.engine.markers, ShouldHaveLength, 1)
				So(h.engine.markers[0][1].Title, ShouldEqual, "Kiss, Close up")
				So(h.engine.posters, ShouldResemble, []string{"http://stash/scene/a/screenshot?t=2"})
			})
		})

		Convey("When a started scene is replaced", func() {
			h.update(Props{Scene: testScene("a"), Config: cfg})
			h.emit(player.LoadStart, player.CanPlay)
			h.engine.paused = false
			h.emit(player.Playing)
			So(h.c.Status().Started, ShouldBeTrue)

			h.update(Props{Scene: testScene("b"), Config: cfg})

			Convey("The new scene starts over", func() {
				st := h.c.Status()
				So(st.SceneID, ShouldEqual, "b")
				So(st.Started, ShouldBeFalse)
				So(h.engine.loads, ShouldHaveLength, 2)
				So(h.engine.loads[1].Sources[0].URL, ShouldEqual, "http://stash/scene/b/stream")
				So(h.engine.activity.resets, ShouldEqual, 2)
			})
		})

		Convey("Lifecycle events of the previous load are ignored", func() {
			h.update(Props{Scene: testScene("a"), Config: cfg})

			h.c.Update(Props{Scene: testScene("b"), Config: cfg})
			h.engine.emit(player.LoadStart)
			h.engine.emit(player.CanPlay)
			h.loop.Drain()

			So(h.c.Status().SceneID, ShouldEqual, "b")
			So(h.engine.seeks, ShouldBeEmpty)

			h.emit(player.LoadStart, player.CanPlay)
			So(h.engine.seeks, ShouldResemble, []float64{120})
		})

		Convey("A playing pulse while paused does not start the scene", func() {
			h.update(Props{Scene: testScene("a"), Config: cfg})
			h.emit(player.LoadStart, player.Playing)

			So(h.c.Status().Started, ShouldBeFalse)
		})
	})
}

func TestAutoplay(t *testing.T) {
	Convey("Given an autoplaying scene", t, func() {
		h := newHarness()
		props := Props{Scene: testScene("a"), Autoplay: true}

		Convey("Playback waits for the load to start", func() {
			h.update(props)
			So(h.tasks.Pending(), ShouldEqual, 0)

			h.emit(player.LoadStart)
			h.settle()
			So(h.engine.plays, ShouldEqual, 1)
			So(h.engine.paused, ShouldBeFalse)

			Convey("And is attempted only once", func() {
				h.emit(player.LoadStart)
				h.settle()
				So(h.engine.plays, ShouldEqual, 1)
			})
		})

		Convey("An initial timestamp also autostarts", func() {
			h.update(Props{Scene: testScene("a"), InitialTimestamp: 42})
			h.emit(player.LoadStart, player.CanPlay)
			h.settle()

			So(h.engine.plays, ShouldEqual, 1)
			So(h.engine.seeks, ShouldResemble, []float64{42})
		})

		Convey("The autostart preference autostarts", func() {
			h.update(Props{Scene: testScene("a"), Config: config.Playback{AutostartVideo: true}})
			h.emit(player.LoadStart)
			h.settle()

			So(h.engine.plays, ShouldEqual, 1)
		})

		Convey("A rejected play is retried muted exactly once", func() {
			h.engine.playErrs = []error{errRejected, errRejected}
			h.update(props)
			h.emit(player.LoadStart)
			h.settle()

			So(h.engine.plays, ShouldEqual, 2)
			So(h.engine.muted, ShouldBeTrue)
			So(h.engine.persistVol, ShouldResemble, []bool{false})
			So(h.c.Status().Failed, ShouldBeTrue)
		})

		Convey("A single rejection recovers", func() {
			h.engine.playErrs = []error{errRejected}
			h.update(props)
			h.emit(player.LoadStart)
			h.settle()

			So(h.engine.plays, ShouldEqual, 2)
			So(h.engine.paused, ShouldBeFalse)
			So(h.c.Status().Failed, ShouldBeFalse)
		})

		Convey("A rejection for a replaced scene is not retried", func() {
			h.engine.playErrs = []error{errRejected}
			h.update(props)
			h.emit(player.LoadStart)
			So(h.tasks.Pending(), ShouldEqual, 1)

			h.update(Props{Scene: testScene("b"), Autoplay: true})
			h.settle()

			So(h.engine.plays, ShouldEqual, 1)
			So(h.engine.muted, ShouldBeFalse)
		})

		Convey("A play event re-enables volume persistence", func() {
			h.update(props)
			h.emit(player.Play)

			So(h.engine.persistVol, ShouldResemble, []bool{true})
		})
	})
}

func TestInteractiveSync(t *testing.T) {
	Convey("Given a connected device and an interactive scene", t, func() {
		h := newHarness()
		h.update(Props{Scene: interactiveScene("a")})

		Convey("The script upload starts immediately", func() {
			So(h.device.commands, ShouldResemble, []string{"pause"})
			So(h.tasks.Pending(), ShouldEqual, 1)
			So(h.c.Status().Handshake, ShouldEqual, UploadingScript)
		})

		Convey("Commands before the upload completes are dropped", func() {
			h.engine.paused = false
			h.engine.time = 5
			h.emit(player.Play, player.TimeUpdate, player.Seeking, player.Pause)

			So(h.device.commands, ShouldResemble, []string{"pause"})
		})

		Convey("A failed upload never readies the device", func() {
			h.device.uploadErr = errors.New("upload failed")
			h.settle()
			h.engine.paused = false
			h.emit(player.Play)

			So(h.c.Status().Handshake, ShouldEqual, UploadingScript)
			So(h.device.commands, ShouldResemble, []string{"pause"})
		})

		Convey("Once the upload completes", func() {
			h.settle()
			So(h.c.Status().Handshake, ShouldEqual, Ready)
			So(h.device.commands, ShouldResemble, []string{"pause", "loop false"})
			h.device.commands = nil

			Convey("Timing commands follow the engine", func() {
				h.engine.paused = false
				h.engine.time = 5
				h.emit(player.Play, player.TimeUpdate)
				h.engine.time = 9
				h.emit(player.Seeking)
				h.engine.paused = true
				h.emit(player.Pause, player.Seeking, player.TimeUpdate)

				So(h.device.commands, ShouldResemble, []string{"play 5", "ensure 5", "play 9", "pause"})
			})

			Convey("Switching scenes pauses the device before anything else", func() {
				h.engine.paused = false
				h.engine.time = 30
				h.emit(player.Play)

				h.update(Props{Scene: interactiveScene("b")})
				h.emit(player.TimeUpdate, player.Seeking)

				So(h.device.commands, ShouldResemble, []string{"play 30", "pause"})
				So(h.c.Status().Handshake, ShouldEqual, UploadingScript)

				h.settle()
				h.emit(player.TimeUpdate)
				So(h.device.uploads, ShouldResemble, []string{
					"http://stash/scene/a/funscript",
					"http://stash/scene/b/funscript",
				})
				So(h.device.commands, ShouldResemble, []string{"play 30", "pause", "loop false", "ensure 30"})
			})

			Convey("A changed script on the same scene is uploaded again", func() {
				sc := interactiveScene("a")
				sc.Paths.Funscript = "http://stash/scene/a/funscript?v=2"
				h.update(Props{Scene: sc})

				So(h.device.commands, ShouldResemble, []string{"pause"})
				So(h.c.Status().Handshake, ShouldEqual, UploadingScript)

				h.settle()
				So(h.device.CurrentScript(), ShouldEqual, "http://stash/scene/a/funscript?v=2")
				So(h.c.Status().Handshake, ShouldEqual, Ready)
			})
		})

		Convey("When uploads complete out of order", func() {
			h.update(Props{Scene: interactiveScene("b")})
			So(h.tasks.Pending(), ShouldEqual, 2)

			Convey("A late completion for the old scene triggers a fresh upload of the new script", func() {
				h.tasks.Run(1)
				h.loop.Drain()
				So(h.c.Status().Handshake, ShouldEqual, Ready)

				h.tasks.Run(0)
				h.loop.Drain()
				So(h.device.CurrentScript(), ShouldEqual, "http://stash/scene/a/funscript")
				So(h.c.Status().Handshake, ShouldEqual, UploadingScript)
				So(h.device.commands, ShouldResemble, []string{"pause", "pause", "loop false", "pause"})

				h.engine.paused = false
				h.engine.time = 7
				h.emit(player.Play)
				So(h.device.commands, ShouldHaveLength, 4)

				h.settle()
				So(h.device.CurrentScript(), ShouldEqual, "http://stash/scene/b/funscript")
				So(h.c.Status().Handshake, ShouldEqual, Ready)

				h.emit(player.Play)
				So(h.device.commands[4:], ShouldResemble, []string{"loop false", "play 7"})
			})

			Convey("Commands stop while the device holds another scene's script", func() {
				h.tasks.Run(1)
				h.loop.Drain()
				h.device.script = "http://stash/scene/a/funscript"

				h.engine.paused = false
				h.engine.time = 7
				h.emit(player.Play, player.TimeUpdate)
				So(h.device.commands, ShouldResemble, []string{"pause", "pause", "loop false"})
			})

			Convey("An early completion for the old scene does not ready the new one", func() {
				h.tasks.Run(0)
				h.loop.Drain()
				h.engine.paused = false
				h.emit(player.Play, player.TimeUpdate)

				So(h.c.Status().Handshake, ShouldEqual, UploadingScript)
				So(h.device.commands, ShouldResemble, []string{"pause", "pause"})
			})
		})
	})

	Convey("Given a device that connects after the scene loads", t, func() {
		h := newHarness()
		h.device.setState(interactive.Connecting, false)
		h.update(Props{Scene: interactiveScene("a"), Autoplay: true})
		h.emit(player.LoadStart)
		h.settle()

		So(h.device.uploads, ShouldBeEmpty)
		So(h.engine.plays, ShouldEqual, 0)

		Convey("The upload and autoplay follow the connection", func() {
			h.device.setState(interactive.Ready, true)
			h.settle()

			So(h.device.uploads, ShouldHaveLength, 1)
			So(h.engine.plays, ShouldEqual, 1)
		})
	})

	Convey("Given no device is configured", t, func() {
		h := newHarness()
		h.device.setState(interactive.Missing, false)
		h.update(Props{Scene: interactiveScene("a"), Autoplay: true})
		h.emit(player.LoadStart)
		h.settle()

		Convey("Interactive scenes autoplay without waiting", func() {
			So(h.engine.plays, ShouldEqual, 1)
			So(h.device.uploads, ShouldBeEmpty)
		})
	})
}

func TestInteractiveCommandsRequireReady(t *testing.T) {
	Convey("For any sequence of scene changes, events and completions", t, func() {
		h := newHarness()
		rng := rand.New(rand.NewPCG(7, 11))
		scenes := []*scene.Scene{interactiveScene("a"), interactiveScene("b"), testScene("c")}
		events := []player.Event{player.Play, player.Playing, player.Pause, player.Seeking, player.TimeUpdate, player.LoadStart}

		var violations []string
		h.device.observe = func(cmd string) {
			timing := strings.HasPrefix(cmd, "play") || strings.HasPrefix(cmd, "ensure") || strings.HasPrefix(cmd, "loop")
			if timing && !h.c.scriptApplied() {
				violations = append(violations, cmd)
			}
		}

		for i := 0; i < 500; i++ {
			switch rng.IntN(4) {
			case 0:
				h.c.Update(Props{Scene: scenes[rng.IntN(len(scenes))], PermitLoop: rng.IntN(2) == 0, Config: config.Playback{MaximumLoopDuration: 900}})
			case 1:
				if n := h.tasks.Pending(); n > 0 {
					h.tasks.Run(rng.IntN(n))
				}
			case 2:
				h.engine.paused = rng.IntN(2) == 0
				h.engine.time = float64(rng.IntN(600))
				h.engine.emit(events[rng.IntN(len(events))])
			case 3:
				h.loop.Drain()
			}
		}
		h.settle()

		So(violations, ShouldBeEmpty)
	})
}

func TestLooping(t *testing.T) {
	Convey("Given a short interactive scene that may loop", t, func() {
		h := newHarness()
		props := Props{
			Scene:      interactiveScene("a"),
			PermitLoop: true,
			Config:     config.Playback{MaximumLoopDuration: 900},
		}
		h.update(props)

		Convey("The engine loops at once and the device once ready", func() {
			So(h.engine.loop, ShouldResemble, []bool{true})
			So(h.device.commands, ShouldResemble, []string{"pause"})

			h.settle()
			So(h.device.commands, ShouldResemble, []string{"pause", "loop true"})
			So(h.c.Status().Looping, ShouldBeTrue)
		})

		Convey("Withdrawing permission stops both", func() {
			h.settle()
			props.PermitLoop = false
			h.update(props)

			So(h.engine.loop, ShouldResemble, []bool{true, false})
			So(h.device.commands, ShouldResemble, []string{"pause", "loop true", "loop false"})
		})

		Convey("An unchanged flag is not resent", func() {
			h.update(props)
			So(h.engine.loop, ShouldResemble, []bool{true})
		})
	})
}

func TestScrub(t *testing.T) {
	Convey("Given a loaded scene", t, func() {
		h := newHarness()
		h.update(Props{Scene: testScene("a")})

		Convey("Before playback starts", func() {
			h.c.ScrubSeek(30)
			h.c.ScrubScroll()
			h.loop.Drain()

			Convey("Seeks only move the start position", func() {
				So(h.engine.seeks, ShouldBeEmpty)
				So(h.engine.pauses, ShouldEqual, 0)
				So(h.c.Status().Time, ShouldEqual, 30)

				h.emit(player.CanPlay)
				So(h.engine.seeks, ShouldResemble, []float64{30})
			})
		})

		Convey("After playback starts", func() {
			h.emit(player.LoadStart, player.CanPlay)
			h.engine.paused = false
			h.emit(player.Playing)

			h.c.ScrubSeek(50)
			h.c.ScrubScroll()
			h.loop.Drain()

			Convey("Seeks apply directly and scrolling pauses", func() {
				So(h.engine.seeks, ShouldResemble, []float64{120, 50})
				So(h.engine.pauses, ShouldEqual, 1)
			})
		})
	})
}

func TestActivityWiring(t *testing.T) {
	Convey("Given activity tracking is on", t, func() {
		h := newHarness()
		h.update(Props{
			Scene:  testScene("a"),
			Config: config.Playback{TrackActivity: true, MinimumPlayPercent: 25},
		})
		hooks := h.engine.activity.hooks

		Convey("The policy reaches the engine", func() {
			So(hooks.Enabled, ShouldBeTrue)
			So(hooks.MinimumPlayPercent, ShouldEqual, 25)
		})

		Convey("Hooks persist against the scene in the background", func() {
			hooks.SaveActivity(10, 10)
			hooks.IncrementPlayCount()
			So(h.store.saves, ShouldBeEmpty)

			h.settle()
			So(h.store.saves, ShouldResemble, []activityCall{{"a", 10, 10}})
			So(h.store.counts, ShouldResemble, []string{"a"})
		})

		Convey("Persistence failures are swallowed", func() {
			h.store.err = errors.New("offline")
			hooks.SaveActivity(10, 10)
			h.settle()

			So(h.store.saves, ShouldHaveLength, 1)
			So(h.c.Status().SceneID, ShouldEqual, "a")
		})

		Convey("Turning tracking off disables the hooks", func() {
			h.update(Props{Scene: testScene("a")})
			So(h.engine.activity.hooks.Enabled, ShouldBeFalse)
		})
	})
}

func TestCallerOperations(t *testing.T) {
	Convey("Given a loaded scene with navigation callbacks", t, func() {
		h := newHarness()
		var next, previous, complete int
		h.update(Props{
			Scene:      testScene("a"),
			Config:     config.Playback{VRTag: "VR"},
			OnNext:     func() { next++ },
			OnPrevious: func() { previous++ },
			OnComplete: func() { complete++ },
		})

		Convey("SetTimestamp plays then seeks", func() {
			h.c.SetTimestamp(45)
			h.settle()

			So(h.engine.plays, ShouldEqual, 1)
			So(h.engine.seeks, ShouldResemble, []float64{45})
		})

		Convey("A negative timestamp is ignored", func() {
			h.c.SetTimestamp(-1)
			h.settle()

			So(h.engine.plays, ShouldEqual, 0)
		})

		Convey("SetTimestamp does not seek a replaced scene", func() {
			h.c.SetTimestamp(45)
			h.loop.Drain()
			h.update(Props{Scene: testScene("b")})
			h.settle()

			So(h.engine.seeks, ShouldBeEmpty)
		})

		Convey("Keys drive the engine", func() {
			h.c.HandleKey(hotkey.Event{Key: hotkey.Digit(3)})
			h.loop.Drain()
			h.engine.time = 100
			h.c.HandleKey(hotkey.Event{Key: hotkey.Right, Shift: true})
			h.loop.Drain()

			So(h.engine.seeks, ShouldResemble, []float64{180, 105})
		})

		Convey("Skip gestures and the end of media reach the caller", func() {
			h.c.SkipForward()
			h.c.SkipBackward()
			h.loop.Drain()
			h.emit(player.Ended)

			So(next, ShouldEqual, 1)
			So(previous, ShouldEqual, 1)
			So(complete, ShouldEqual, 1)
		})

		Convey("The VR button follows the scene tags", func() {
			So(h.engine.vr, ShouldResemble, []bool{false})

			sc := testScene("a")
			sc.Tags = []scene.Tag{{Name: "VR"}}
			h.update(Props{Scene: sc, Config: config.Playback{VRTag: "VR"}})
			So(h.engine.vr, ShouldResemble, []bool{false, true})
		})

		Convey("Fullscreen changes are tracked", func() {
			h.engine.fullscreen = true
			h.emit(player.FullscreenChange)

			So(h.c.Status().Fullscreen, ShouldBeTrue)
		})

		Convey("Close releases every subscription", func() {
			h.c.Close()
			h.loop.Drain()

			So(h.engine.subscriptions(), ShouldEqual, 0)
			So(h.device.listeners, ShouldBeEmpty)
			So(h.device.commands, ShouldResemble, []string{"pause", "pause"})

			h.update(Props{Scene: testScene("b")})
			So(h.engine.loads, ShouldHaveLength, 1)
		})
	})
}

func TestStatusBadge(t *testing.T) {
	Convey("The interactive badge shows while the device is not ready or playback is paused", t, func() {
		So(Status{Interactive: true, Device: interactive.Connecting}.ShowInteractiveBadge(), ShouldBeTrue)
		So(Status{Interactive: true, Device: interactive.Ready, Paused: true}.ShowInteractiveBadge(), ShouldBeTrue)
		So(Status{Interactive: true, Device: interactive.Ready}.ShowInteractiveBadge(), ShouldBeFalse)
		So(Status{Device: interactive.Connecting}.ShowInteractiveBadge(), ShouldBeFalse)
	})
}
