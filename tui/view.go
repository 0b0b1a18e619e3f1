package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/color"
	"github.com/sceneplay/sceneplay/icon"
	"github.com/sceneplay/sceneplay/player"
	"github.com/sceneplay/sceneplay/playback"
	"github.com/sceneplay/sceneplay/style"
	"github.com/sceneplay/sceneplay/util"
)

var (
	paddingStyle = lipgloss.NewStyle().Padding(1, 2)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case playingState:
		output = b.viewPlaying()
	case errorState:
		output = b.viewError()
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	index, total := b.playlist.Position()
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			fmt.Sprintf("%s %s", b.spinnerC.View(), b.progressStatus),
			style.Faint(fmt.Sprintf("Scene %d of %d", index, total)),
		},
	)
}

func (b *statefulBubble) viewPlaying() string {
	status := b.status
	x, _ := paddingStyle.GetFrameSize()

	title := status.Title
	if title == "" && b.current != nil {
		title = b.current.Title
	}
	if width := b.width - x; width > 0 {
		title = truncate.StringWithTail(title, uint(width), "…")
	}

	index, total := b.playlist.Position()
	lines := []string{
		style.Title("Now Playing"),
		"",
		style.Bold(title),
		strings.Join(badges(status), " "),
		"",
	}

	if scrubberVisible(b.options.HideScrubber, status.Fullscreen, b.width, b.height) {
		lines = append(lines, b.viewTimeline(status))
		if marker, ok := nextMarker(status.Markers, status.Time); ok {
			lines = append(lines, style.Faint(fmt.Sprintf("%s %s at %s",
				icon.Get(icon.Marker), marker.Title, util.FormatSeconds(marker.Time))))
		}
	} else {
		lines = append(lines, timestamp(status))
	}

	lines = append(lines, "", style.Faint(fmt.Sprintf("Scene %d of %d", index, total)))
	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewTimeline(status playback.Status) string {
	percent := 0.0
	if status.Duration > 0 {
		percent = util.Clamp(status.Time/status.Duration, 0, 1)
	}
	return b.progressC.ViewAs(percent) + " " + timestamp(status)
}

func (b *statefulBubble) viewError() string {
	errorMsg := wrap.String(errorStyle.Render(fmt.Sprintf("Critical Failure: %v", b.lastError)), b.width)
	return b.renderLines(
		true,
		[]string{
			style.Title("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}

func timestamp(status playback.Status) string {
	return fmt.Sprintf("%s / %s", util.FormatSeconds(status.Time), util.FormatSeconds(status.Duration))
}

// badges renders the state markers shown under the title.
func badges(status playback.Status) []string {
	var out []string

	if status.Paused {
		out = append(out, style.Tag(color.Black, color.Yellow)(icon.Get(icon.Paused)+" paused"))
	} else {
		out = append(out, style.Tag(color.Black, color.Green)(icon.Get(icon.Playing)+" playing"))
	}
	if status.Muted {
		out = append(out, style.Tag(color.White, color.Red)(icon.Get(icon.Muted)+" muted"))
	}
	if status.Looping {
		out = append(out, style.Tag(color.Black, color.Cyan)(icon.Get(icon.Looping)+" loop"))
	}
	if status.ShowInteractiveBadge() {
		out = append(out, style.Tag(color.Black, color.Orange)(icon.Get(icon.Interactive)+" "+status.Device.String()))
	}
	if status.Failed {
		out = append(out, style.Tag(color.White, color.Red)(icon.Get(icon.Fail)+" failed"))
	}

	return out
}

// nextMarker returns the first marker after the given time.
func nextMarker(markers []player.Marker, after float64) (player.Marker, bool) {
	upcoming := lo.Filter(markers, func(m player.Marker, _ int) bool {
		return m.Time > after
	})
	if len(upcoming) == 0 {
		return player.Marker{}, false
	}
	return lo.MinBy(upcoming, func(a, b player.Marker) bool {
		return a.Time < b.Time
	}), true
}
