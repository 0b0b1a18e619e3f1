package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPrune(t *testing.T) {
	Convey("Given a directory with old and fresh files", t, func() {
		fs := filesystem.API()
		dir := "/prune/" + t.Name()
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		touch := func(name string, age time.Duration) string {
			path := filepath.Join(dir, name)
			lo.Must0(fs.WriteFile(path, []byte("x"), 0o644))
			lo.Must0(fs.Chtimes(path, now.Add(-age), now.Add(-age)))
			return path
		}

		old := touch("2024-05-01.log", 31*24*time.Hour)
		fresh := touch("2024-05-31.log", 24*time.Hour)
		other := touch("notes.txt", 31*24*time.Hour)

		Convey("Only expired matching files are removed", func() {
			removed := Prune(dir, TTL, func(name string) bool {
				return filepath.Ext(name) == ".log"
			}, now)

			So(removed, ShouldEqual, 1)
			So(lo.Must(fs.Exists(old)), ShouldBeFalse)
			So(lo.Must(fs.Exists(fresh)), ShouldBeTrue)
			So(lo.Must(fs.Exists(other)), ShouldBeTrue)
		})

		Convey("Without a filter every expired file goes", func() {
			So(Prune(dir, TTL, nil, now), ShouldEqual, 2)
		})

		Convey("A missing directory removes nothing", func() {
			So(Prune("/does/not/exist", TTL, nil, now), ShouldEqual, 0)
		})
	})
}
