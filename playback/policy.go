package playback

// StartPosition picks where a newly loaded scene begins. An explicit timestamp wins,
// then the saved resume point while it is still inside the file, then the start.
func StartPosition(initial float64, alwaysFromBeginning bool, resume, duration float64) float64 {
	if initial > 0 {
		return initial
	}
	if !alwaysFromBeginning && duration > resume {
		return resume
	}
	return 0
}

// AutoStart reports whether playback should begin without user action.
func AutoStart(autoplay, autostartPreference bool, initial float64) bool {
	return autoplay || autostartPreference || initial > 0
}

// Looping reports whether short files repeat. A zero maximum disables looping.
func Looping(permit bool, maxLoopDuration, duration float64) bool {
	return permit && maxLoopDuration != 0 && duration < maxLoopDuration
}
