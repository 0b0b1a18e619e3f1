package player

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type memVolumes struct {
	level VolumeLevel
	sets  int
}

func (v *memVolumes) Get() (VolumeLevel, bool) { return v.level, v.sets > 0 }
func (v *memVolumes) Set(l VolumeLevel) error  { v.level = l; v.sets++; return nil }

func record(m *MPV, events ...Event) *[]Event {
	var got []Event
	for _, e := range events {
		e := e
		m.On(e, func() { got = append(got, e) })
	}
	return &got
}

func TestMPVEvents(t *testing.T) {
	Convey("Given an mpv engine fed with IPC events", t, func() {
		volumes := &memVolumes{}
		m := NewMPV("", volumes)
		got := record(m, LoadStart, CanPlay, Play, Playing, Pause, Seeking, TimeUpdate, FullscreenChange, Ended)
		m.loads.begin()
		m.loads.bound(1)

		stream := strings.Join([]string{
			`{"request_id":1,"error":"success"}`,
			`{"event":"start-file","playlist_entry_id":1}`,
			`{"event":"file-loaded"}`,
			`{"event":"property-change","id":2,"name":"duration","data":600}`,
			`{"event":"property-change","id":1,"name":"pause","data":false}`,
			`{"event":"property-change","id":2,"name":"time-pos","data":12.5}`,
			`{"event":"property-change","id":4,"name":"seeking","data":true}`,
			`{"event":"property-change","id":1,"name":"pause","data":true}`,
			`not json`,
			`{"event":"property-change","id":8,"name":"fullscreen","data":true}`,
			`{"event":"property-change","id":5,"name":"eof-reached","data":true}`,
			`{"event":"end-file","reason":"eof"}`,
		}, "\n")

		m.readLoop(strings.NewReader(stream))

		Convey("Then engine events are emitted in order", func() {
			So(*got, ShouldResemble, []Event{
				LoadStart, CanPlay, Play, Playing, TimeUpdate, Seeking, Pause, FullscreenChange, Ended,
			})
		})

		Convey("Then the state cache reflects the stream", func() {
			So(m.Duration(), ShouldEqual, 600)
			So(m.CurrentTime(), ShouldEqual, 12.5)
			So(m.Paused(), ShouldBeTrue)
			So(m.IsFullscreen(), ShouldBeTrue)
		})

		Convey("Then an unchanged pause property emits nothing", func() {
			*got = nil
			m.handleEvent(ipcEvent{Event: "property-change", Name: "pause", Data: []byte("true")})
			So(*got, ShouldBeEmpty)
		})

		Convey("Then a new file re-arms the ended notification", func() {
			*got = nil
			m.handleEvent(ipcEvent{Event: "start-file", EntryID: 2})
			m.handleEvent(ipcEvent{Event: "property-change", Name: "eof-reached", Data: []byte("true")})
			So(*got, ShouldResemble, []Event{Ended})
		})
	})
}

func TestMPVLoadEvents(t *testing.T) {
	Convey("Given an mpv engine switching files", t, func() {
		m := NewMPV("", nil)
		got := record(m, LoadStart, CanPlay)

		Convey("A file-loaded for the previous load is dropped", func() {
			m.loads.begin()
			m.loads.bound(1)
			m.handleEvent(ipcEvent{Event: "start-file", EntryID: 1})
			So(*got, ShouldResemble, []Event{LoadStart})

			m.loads.begin()
			m.handleEvent(ipcEvent{Event: "file-loaded"})
			So(*got, ShouldResemble, []Event{LoadStart})

			m.loads.bound(2)
			m.handleEvent(ipcEvent{Event: "start-file", EntryID: 2})
			m.handleEvent(ipcEvent{Event: "file-loaded"})
			So(*got, ShouldResemble, []Event{LoadStart, LoadStart, CanPlay})
		})
	})
}

func TestLoadTracker(t *testing.T) {
	Convey("Given a load tracker", t, func() {
		var tr loadTracker

		Convey("Each load gets a new generation", func() {
			So(tr.begin(), ShouldEqual, 1)
			So(tr.begin(), ShouldEqual, 2)
		})

		Convey("Events that arrive before the reply are replayed by bound", func() {
			tr.begin()
			So(tr.startFile(4), ShouldBeFalse)
			So(tr.fileLoaded(), ShouldBeFalse)

			start, loaded := tr.bound(4)
			So(start, ShouldBeTrue)
			So(loaded, ShouldBeTrue)
			So(tr.fileLoaded(), ShouldBeFalse)
		})

		Convey("Events of another entry never match", func() {
			tr.begin()
			tr.bound(5)
			So(tr.startFile(4), ShouldBeFalse)
			So(tr.fileLoaded(), ShouldBeFalse)
			So(tr.startFile(5), ShouldBeTrue)
			So(tr.fileLoaded(), ShouldBeTrue)
		})

		Convey("Without a reported entry the first newer one is taken", func() {
			tr.begin()
			tr.bound(0)
			tr.startFile(3)
			tr.begin()
			tr.bound(0)
			So(tr.fileLoaded(), ShouldBeFalse)
			So(tr.startFile(4), ShouldBeTrue)
		})

		Convey("A failed load matches nothing", func() {
			tr.begin()
			tr.bound(-1)
			So(tr.startFile(1), ShouldBeFalse)
			So(tr.fileLoaded(), ShouldBeFalse)
		})

		Convey("The entry is read from the loadfile reply", func() {
			So(playlistEntry(map[string]interface{}{"playlist_entry_id": 7.0}), ShouldEqual, 7)
			So(playlistEntry(nil), ShouldEqual, 0)
		})
	})
}

func TestMPVVolumePersistence(t *testing.T) {
	Convey("Given an mpv engine with a volume store", t, func() {
		volumes := &memVolumes{}
		m := NewMPV("", volumes)

		Convey("Volume changes are not saved while persistence is off", func() {
			m.handleEvent(ipcEvent{Event: "property-change", Name: "volume", Data: []byte("40")})
			So(volumes.sets, ShouldEqual, 0)
			So(m.Volume(), ShouldEqual, 0.4)
		})

		Convey("Volume changes are saved once persistence is on", func() {
			m.SetPersistVolume(true)
			m.handleEvent(ipcEvent{Event: "property-change", Name: "mute", Data: []byte("true")})
			So(volumes.sets, ShouldEqual, 1)
			So(volumes.level.Muted, ShouldBeTrue)
		})
	})
}

func TestMPVNotRunning(t *testing.T) {
	Convey("Commands before Start fail with ErrNotRunning", t, func() {
		m := NewMPV("", nil)
		So(errors.Is(m.Pause(), ErrNotRunning), ShouldBeTrue)
		So(errors.Is(m.Play(), ErrPlaybackRejected), ShouldBeTrue)
		So(m.Load(Media{}), ShouldNotBeNil)
		So(m.Close(), ShouldBeNil)
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		_, err := sanitizeMediaTarget("--script=evil.lua")
		So(err, ShouldNotBeNil)

		_, err = sanitizeMediaTarget("file:///etc/passwd")
		So(err, ShouldNotBeNil)

		u, err := sanitizeMediaTarget(" http://stash/scene/1/stream ")
		So(err, ShouldBeNil)
		So(u, ShouldEqual, "http://stash/scene/1/stream")
	})
}

func TestEmitter(t *testing.T) {
	Convey("Given an emitter", t, func() {
		var e emitter
		calls := 0
		off := e.On(Play, func() { calls++ })

		Convey("Handlers run on emit", func() {
			e.emit(Play)
			So(calls, ShouldEqual, 1)
		})

		Convey("Released handlers stop running", func() {
			off()
			off()
			e.emit(Play)
			So(calls, ShouldEqual, 0)
			So(e.count(Play), ShouldEqual, 0)
		})
	})
}
