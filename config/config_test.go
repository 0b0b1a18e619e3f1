package config

import (
	"testing"

	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("ui.minimum_play_percent"), ShouldEqual, "ui_minimum_play_percent")
		})

		Convey("Env should carry the application prefix", func() {
			f := Default[key.UITrackActivity]
			So(f.Env(), ShouldEqual, "SCENEPLAY_UI_TRACK_ACTIVITY")
		})
	})
}

func TestCurrent(t *testing.T) {
	Convey("Given a configured viper", t, func() {
		_ = Setup()
		viper.Set(key.InterfaceAutostartVideo, true)
		viper.Set(key.InterfaceMaximumLoopDuration, 30)
		viper.Set(key.UIMinimumPlayPercent, 25)
		viper.Set(key.UILocale, "fr-FR")
		viper.Set(key.PlayerDirectOnly, true)
		Reset(func() {
			viper.Set(key.InterfaceAutostartVideo, false)
			viper.Set(key.InterfaceMaximumLoopDuration, 0)
			viper.Set(key.UIMinimumPlayPercent, 0)
			viper.Set(key.UILocale, "")
			viper.Set(key.PlayerDirectOnly, false)
		})

		Convey("Current should mirror it", func() {
			p := Current()
			So(p.AutostartVideo, ShouldBeTrue)
			So(p.MaximumLoopDuration, ShouldEqual, 30)
			So(p.MinimumPlayPercent, ShouldEqual, 25)
			So(p.Locale, ShouldEqual, "fr-FR")
			So(p.DirectOnly, ShouldBeTrue)
			So(p.TrackActivity, ShouldBeTrue)
		})

		Convey("Locale should fall back to the environment", func() {
			viper.Set(key.UILocale, "")
			t.Setenv("LC_ALL", "")
			t.Setenv("LC_MESSAGES", "")
			t.Setenv("LANG", "de_DE.UTF-8")
			So(Current().Locale, ShouldEqual, "de_DE.UTF-8")
		})
	})
}
