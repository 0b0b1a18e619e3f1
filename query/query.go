// Package query remembers the scene arguments passed to play and suggests them back,
// ranked by how often they were played, for shell completion.
package query

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/key"
	"github.com/sceneplay/sceneplay/where"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type queryRecord struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
	Title string `json:"title,omitempty"`
}

type recordCache interface {
	Get() (map[string]*queryRecord, bool, error)
	Set(map[string]*queryRecord) error
}

var cacher recordCache = gache.New[map[string]*queryRecord](
	&gache.Options{
		Path:       where.Recent(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Suggestion is a remembered scene argument with the title it resolved to.
type Suggestion struct {
	Query string
	Title string
}

// Remember records a played scene argument or raises its rank by weight.
func Remember(q, title string, weight int) error {
	q = sanitize(q)
	if q == "" {
		return nil
	}

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*queryRecord)
	}

	if record, ok := cached[q]; ok {
		record.Rank += weight
		if title != "" {
			record.Title = title
		}
	} else {
		cached[q] = &queryRecord{Rank: weight, Query: q, Title: title}
	}

	return cacher.Set(cached)
}

// Suggest returns the best remembered match for a partial argument.
func Suggest(q string) mo.Option[Suggestion] {
	suggestions := SuggestMany(q)
	if len(suggestions) == 0 {
		return mo.None[Suggestion]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns every remembered argument whose value or title fuzzily matches q,
// most played first.
func SuggestMany(q string) []Suggestion {
	if !viper.GetBool(key.CliSuggestScenes) {
		return nil
	}

	cached, expired, err := cacher.Get()
	if err != nil || expired || cached == nil {
		return nil
	}

	q = sanitize(q)
	records := lo.Filter(lo.Values(cached), func(r *queryRecord, _ int) bool {
		return fuzzy.Match(q, r.Query) || fuzzy.MatchFold(q, r.Title)
	})

	slices.SortFunc(records, func(a, b *queryRecord) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return strings.Compare(a.Query, b.Query)
	})

	return lo.Map(records, func(r *queryRecord, _ int) Suggestion {
		return Suggestion{Query: r.Query, Title: r.Title}
	})
}

// sanitize trims the argument. Scene IDs and file paths are case sensitive.
func sanitize(q string) string {
	return strings.TrimSpace(q)
}
