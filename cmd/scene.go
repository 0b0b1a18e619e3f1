package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/auth"
	"github.com/sceneplay/sceneplay/color"
	"github.com/sceneplay/sceneplay/icon"
	"github.com/sceneplay/sceneplay/key"
	"github.com/sceneplay/sceneplay/open"
	"github.com/sceneplay/sceneplay/scene"
	"github.com/sceneplay/sceneplay/stash"
	"github.com/sceneplay/sceneplay/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(sceneCmd)
}

// sceneCmd groups helpers around scene descriptions.
var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Inspect scenes and the scene file format",
}

func init() {
	sceneCmd.AddCommand(sceneSchemaCmd)
	sceneSchemaCmd.SetOut(os.Stdout)
}

// sceneSchemaCmd prints the JSON schema accepted by "play" for scene files.
var sceneSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of scene files",
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(scene.Schema()))
	},
}

func init() {
	sceneCmd.AddCommand(sceneShowCmd)
	sceneShowCmd.Flags().BoolP("json", "j", false, "Print the scene as JSON")
	sceneShowCmd.SetOut(os.Stdout)
}

// sceneShowCmd fetches a scene from Stash, which is also a quick connectivity check.
var sceneShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Fetch a scene from Stash and print it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		apiKey, err := auth.Get(auth.StashAPIKey)
		handleErr(err)

		sc, err := stash.NewClient(viper.GetString(key.StashURL), apiKey).FindScene(context.Background(), args[0])
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(sc))
			return
		}

		cmd.Println(describeScene(sc))
	},
}

func describeScene(sc *scene.Scene) string {
	title := style.New().Bold(true).Foreground(color.Purple).Render(sc.DisplayTitle())
	lines := []string{
		title,
		fmt.Sprintf("%s %s", style.Faint("ID"), sc.ID),
	}

	if file := sc.PrimaryFile(); file != nil {
		lines = append(lines, fmt.Sprintf("%s %dx%d, %.0fs", style.Faint("File"), file.Width, file.Height, file.Duration))
	}

	lines = append(lines,
		fmt.Sprintf("%s %d", style.Faint("Streams"), len(sc.Streams)),
		fmt.Sprintf("%s %d", style.Faint("Captions"), len(sc.Captions)),
		fmt.Sprintf("%s %d", style.Faint("Markers"), len(sc.Markers)),
	)
	if sc.Interactive {
		lines = append(lines, style.Fg(color.Orange)(icon.Get(icon.Interactive)+" interactive"))
	}

	return strings.Join(lines, "\n")
}

func init() {
	sceneCmd.AddCommand(sceneOpenCmd)
}

// sceneOpenCmd opens the scene page in the Stash web interface.
var sceneOpenCmd = &cobra.Command{
	Use:   "open [id]",
	Short: "Open the scene in the Stash web interface",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		page, err := open.ScenePage(viper.GetString(key.StashURL), args[0])
		handleErr(err)
		handleErr(open.Start(page))
	},
}
