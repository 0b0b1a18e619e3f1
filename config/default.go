package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/color"
	"github.com/sceneplay/sceneplay/constant"
	"github.com/sceneplay/sceneplay/key"
	"github.com/sceneplay/sceneplay/style"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	return strings.ToUpper(constant.Sceneplay + "_" + EnvKeyReplacer.Replace(f.Key))
}

// MarshalJSON includes both the current and the default value.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        reflect.TypeOf(f.Value).String(),
	})
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.StashURL, "http://localhost:9999", "Base URL of the Stash server")
	register(key.InterfaceAutostartVideo, false, "Start playback automatically once the scene is loaded")
	register(key.InterfaceMaximumLoopDuration, 0, "Loop scenes shorter than this many seconds.\n0 disables looping")
	register(key.UIAlwaysStartFromBeginning, false, "Ignore the saved resume position")
	register(key.UIMinimumPlayPercent, 0, "Percentage of a scene that must be watched before the play count increments (0-100)")
	register(key.UITrackActivity, true, "Report watched duration and resume position")
	register(key.UIVRTag, "", "Scenes carrying this tag show the VR control")
	register(key.UILocale, "", "Preferred caption language.\nEmpty uses $LC_ALL, $LC_MESSAGES or $LANG")
	register(key.Player, "mpv", "Playback engine to use")
	register(key.PlayerMpvPath, "mpv", "Path to the mpv executable")
	register(key.PlayerDirectOnly, false, "The engine rejects transcoded streams; only offer direct ones")
	register(key.InteractiveHandyKey, "", "Handy connection key.\nEmpty disables the interactive device")
	register(key.InteractiveAPIURL, "https://www.handyfeeling.com/api/handy/v2", "Handy API base URL")
	register(key.ActivityBackend, "stash", "Where activity is persisted.\nAvailable options are: stash, local")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Check for a newer release when showing help or version")
	register(key.CliSuggestScenes, true, "Complete scene arguments from recently played scenes")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd, plain, kaomoji, squares")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
