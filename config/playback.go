package config

import (
	"os"

	"github.com/sceneplay/sceneplay/key"
	"github.com/spf13/viper"
)

// Playback is the snapshot of preferences the controller reads. It is rebuilt by Current
// and passed in explicitly; the controller never consults viper.
type Playback struct {
	AutostartVideo           bool
	MaximumLoopDuration      float64
	AlwaysStartFromBeginning bool
	MinimumPlayPercent       float64
	TrackActivity            bool
	VRTag                    string
	Locale                   string
	// DirectOnly is the single capability flag: the engine is likely to reject non-direct sources.
	DirectOnly bool
}

// Current builds a Playback snapshot from the live configuration.
func Current() Playback {
	return Playback{
		AutostartVideo:           viper.GetBool(key.InterfaceAutostartVideo),
		MaximumLoopDuration:      viper.GetFloat64(key.InterfaceMaximumLoopDuration),
		AlwaysStartFromBeginning: viper.GetBool(key.UIAlwaysStartFromBeginning),
		MinimumPlayPercent:       viper.GetFloat64(key.UIMinimumPlayPercent),
		TrackActivity:            viper.GetBool(key.UITrackActivity),
		VRTag:                    viper.GetString(key.UIVRTag),
		Locale:                   locale(),
		DirectOnly:               viper.GetBool(key.PlayerDirectOnly),
	}
}

// locale prefers the configured value, then the POSIX locale variables in priority order.
func locale() string {
	if l := viper.GetString(key.UILocale); l != "" {
		return l
	}
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(env); v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return "en"
}
