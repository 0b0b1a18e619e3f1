package player

// loadTracker matches mpv's start-file and file-loaded events to the latest Load.
// mpv numbers playlist entries and the loadfile reply names the entry it created;
// lifecycle events for any other entry belong to an older load and are dropped.
//
// A file-loaded can arrive before the loadfile reply, so bound replays whatever
// the entry already reported.
type loadTracker struct {
	generation uint64
	awaiting   bool
	// expected is the entry of the latest load: 0 when mpv did not report one,
	// -1 when the load failed.
	expected int64
	// baseline is the last entry seen before the latest load. Without a reported
	// entry, the first newer one is taken.
	baseline int64

	started      int64
	loaded       bool
	startEmitted bool
	loadEmitted  bool
}

// begin starts a new load and returns its generation.
func (t *loadTracker) begin() uint64 {
	t.generation++
	t.awaiting = true
	t.expected = 0
	t.baseline = t.started
	t.startEmitted = false
	t.loadEmitted = false
	return t.generation
}

// bound records the entry mpv created for the latest load and reports which
// lifecycle events it had already sent for it.
func (t *loadTracker) bound(entry int64) (start, loaded bool) {
	t.awaiting = false
	t.expected = entry
	if !t.matches() {
		return false, false
	}

	start = !t.startEmitted
	t.startEmitted = true
	if t.loaded && !t.loadEmitted {
		t.loadEmitted = true
		loaded = true
	}
	return start, loaded
}

// startFile records a start-file and reports whether it belongs to the latest load.
func (t *loadTracker) startFile(entry int64) bool {
	t.started = entry
	t.loaded = false
	if !t.matches() || t.startEmitted {
		return false
	}
	t.startEmitted = true
	return true
}

// fileLoaded records a file-loaded for the last started entry and reports whether
// it belongs to the latest load.
func (t *loadTracker) fileLoaded() bool {
	t.loaded = true
	if !t.matches() || t.loadEmitted {
		return false
	}
	t.loadEmitted = true
	return true
}

func (t *loadTracker) matches() bool {
	if t.awaiting || t.started == 0 {
		return false
	}
	if t.expected == 0 {
		return t.started > t.baseline
	}
	return t.started == t.expected
}

// playlistEntry extracts playlist_entry_id from a loadfile reply, or 0.
func playlistEntry(reply interface{}) int64 {
	data, ok := reply.(map[string]interface{})
	if !ok {
		return 0
	}
	id, ok := data["playlist_entry_id"].(float64)
	if !ok {
		return 0
	}
	return int64(id)
}
