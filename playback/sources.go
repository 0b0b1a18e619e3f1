package playback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/caption"
	"github.com/sceneplay/sceneplay/player"
	"github.com/sceneplay/sceneplay/scene"
)

var directSuffixes = []string{"/stream", "/stream.mpd", "/stream.m3u8"}

// IsDirect reports whether a stream URL serves the file itself rather than a transcode.
// Unparseable URLs count as transcodes.
func IsDirect(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return lo.SomeBy(directSuffixes, func(suffix string) bool {
		return strings.HasSuffix(u.Path, suffix)
	})
}

// BuildSources converts scene streams into engine sources, keeping their order.
// With directOnly set, transcoded streams are dropped for engines that cannot play them.
func BuildSources(streams []scene.Stream, duration float64, directOnly bool) []player.Source {
	kept := lo.Filter(streams, func(s scene.Stream, _ int) bool {
		return !directOnly || IsDirect(s.URL)
	})

	return lo.Map(kept, func(s scene.Stream, _ int) player.Source {
		return player.Source{
			URL:      s.URL,
			MimeType: s.MimeType,
			Label:    s.Label,
			Offset:   !IsDirect(s.URL),
			Duration: duration,
		}
	})
}

// BuildCaptions converts scene captions into text tracks. The first caption whose
// language equals the normalized locale is the default; there is none otherwise.
func BuildCaptions(captions []scene.Caption, captionPath, locale string) []player.TextTrack {
	lang := caption.NormalizeLocale(locale)
	hasDefault := false

	return lo.Map(captions, func(c scene.Caption, _ int) player.TextTrack {
		isDefault := !hasDefault && lang != "" && c.LanguageCode == lang
		if isDefault {
			hasDefault = true
		}

		return player.TextTrack{
			Src:     captionSrc(captionPath, c),
			Kind:    "captions",
			Lang:    c.LanguageCode,
			Label:   caption.Label(c.LanguageCode, c.CaptionType),
			Default: isDefault,
		}
	})
}

func captionSrc(path string, c scene.Caption) string {
	q := url.Values{}
	q.Set("lang", c.LanguageCode)
	q.Set("type", c.CaptionType)
	return fmt.Sprintf("%s?%s", path, q.Encode())
}

// MarkerTitle is the marker's own title, or its primary tag followed by its other tags.
func MarkerTitle(m scene.Marker) string {
	if m.Title != "" {
		return m.Title
	}

	names := append([]string{m.PrimaryTag.Name}, lo.Map(m.Tags, func(t scene.Tag, _ int) string {
		return t.Name
	})...)
	return strings.Join(names, ", ")
}

// BuildMarkers converts scene markers into timeline markers.
func BuildMarkers(markers []scene.Marker) []player.Marker {
	return lo.Map(markers, func(m scene.Marker, _ int) player.Marker {
		return player.Marker{Title: MarkerTitle(m), Time: m.Seconds}
	})
}
