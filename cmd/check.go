package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/sceneplay/sceneplay/color"
	"github.com/sceneplay/sceneplay/constant"
	"github.com/sceneplay/sceneplay/icon"
	"github.com/sceneplay/sceneplay/key"
	"github.com/sceneplay/sceneplay/style"
	"github.com/spf13/viper"
)

// CheckDependencies verifies that the configured mpv executable can be found.
func CheckDependencies() {
	mpv := viper.GetString(key.PlayerMpvPath)
	if _, err := exec.LookPath(mpv); err != nil {
		printMissingDependencyError(mpv)
		os.Exit(1)
	}
}

func installHint(goos string) string {
	switch goos {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	default:
		return ""
	}
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep)

	suggestion := ""
	if hint := installHint(runtime.GOOS); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Orange).Bold(true).Render(hint))
	}
	suggestion += fmt.Sprintf("\n\nOr point %s at the executable.", style.Fg(color.Purple)(key.PlayerMpvPath))

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
