package query

import (
	"testing"

	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

type memoryCache struct {
	records map[string]*queryRecord
}

func (m *memoryCache) Get() (map[string]*queryRecord, bool, error) { return m.records, false, nil }

func (m *memoryCache) Set(records map[string]*queryRecord) error {
	m.records = records
	return nil
}

func init() {
	filesystem.SetMemMapFs()
}

func TestQuery(t *testing.T) {
	Convey("Given remembered scenes", t, func() {
		cacher = &memoryCache{}
		viper.Set(key.CliSuggestScenes, true)

		So(Remember("42", "Sunset Drive", 1), ShouldBeNil)
		So(Remember("./scenes/beach.json", "Beach", 10), ShouldBeNil)
		So(Remember("  42  ", "", 1), ShouldBeNil)

		Convey("Suggestions are ranked by play count", func() {
			all := SuggestMany("")
			So(all, ShouldHaveLength, 2)
			So(all[0].Query, ShouldEqual, "./scenes/beach.json")
			So(all[1], ShouldResemble, Suggestion{Query: "42", Title: "Sunset Drive"})
		})

		Convey("Titles match case-insensitively", func() {
			s := Suggest("sunset")
			So(s.IsPresent(), ShouldBeTrue)
			So(s.MustGet().Query, ShouldEqual, "42")
		})

		Convey("Arguments match by subsequence", func() {
			s := SuggestMany("bch")
			So(s, ShouldHaveLength, 1)
			So(s[0].Title, ShouldEqual, "Beach")
		})

		Convey("Nothing is suggested when disabled", func() {
			viper.Set(key.CliSuggestScenes, false)
			So(SuggestMany(""), ShouldBeEmpty)
		})

		Convey("Blank arguments are ignored", func() {
			So(Remember("   ", "x", 1), ShouldBeNil)
			So(SuggestMany(""), ShouldHaveLength, 2)
		})
	})
}
