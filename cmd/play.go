package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/auth"
	"github.com/sceneplay/sceneplay/config"
	"github.com/sceneplay/sceneplay/filesystem"
	"github.com/sceneplay/sceneplay/history"
	"github.com/sceneplay/sceneplay/interactive"
	"github.com/sceneplay/sceneplay/internal/sync"
	"github.com/sceneplay/sceneplay/key"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/playback"
	"github.com/sceneplay/sceneplay/player"
	"github.com/sceneplay/sceneplay/query"
	"github.com/sceneplay/sceneplay/scene"
	"github.com/sceneplay/sceneplay/stash"
	"github.com/sceneplay/sceneplay/tui"
	"github.com/sceneplay/sceneplay/where"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const (
	backendStash = "stash"
	backendLocal = "local"
	backendNone  = "none"

	handyConnectTimeout = 30 * time.Second
	reconcileTimeout    = 2 * time.Minute
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Float64P("timestamp", "t", 0, "Start the first scene at this many seconds")
	playCmd.Flags().BoolP("autoplay", "a", false, "Start playing as soon as the scene is loaded")
	playCmd.Flags().Bool("no-loop", false, "Never loop short scenes")
	playCmd.Flags().Bool("hide-scrubber", false, "Hide the timeline")

	playCmd.Flags().BoolP("direct-only", "d", false, "Only offer direct streams to the player")
	lo.Must0(viper.BindPFlag(key.PlayerDirectOnly, playCmd.Flags().Lookup("direct-only")))

	playCmd.Flags().StringP("backend", "b", "", "Where activity is persisted: stash, local or none")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{backendStash, backendLocal, backendNone}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.ActivityBackend, playCmd.Flags().Lookup("backend")))
}

// playCmd plays a queue of scenes given by Stash ID or scene file.
var playCmd = &cobra.Command{
	Use:   "play [scene id or file]...",
	Short: "Play scenes in mpv",
	Long: `Play one or more scenes. Each argument is either a Stash scene ID or a path to a scene JSON file
(see "sceneplay scene schema"). Scenes are queued in order; n and p move through the queue.`,
	Args:              cobra.MinimumNArgs(1),
	Example:           "  sceneplay play 42 43\n  sceneplay play ./scene.json -t 90",
	ValidArgsFunction: completionRecentScenes,
	Run: func(cmd *cobra.Command, args []string) {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			handleErr(errors.New("play needs an interactive terminal"))
		}

		CheckDependencies()

		apiKey, err := auth.Get(auth.StashAPIKey)
		handleErr(err)
		client := stash.NewClient(viper.GetString(key.StashURL), apiKey)

		persistence, local, err := activityBackend(viper.GetString(key.ActivityBackend), client)
		handleErr(err)

		if queue, ok := persistence.(*sync.Queue); ok {
			ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
			defer cancel()
			go func() {
				if n, err := queue.Reconcile(ctx); err != nil {
					log.Warnf("replay queued activity: %v", err)
				} else if n > 0 {
					log.Infof("replayed %d queued activity writes", n)
				}
			}()
		}

		engine := player.NewMPV(viper.GetString(key.PlayerMpvPath), player.NewVolumeStore(where.Cache()))
		handleErr(engine.Start())
		defer func() {
			_ = engine.Close()
		}()

		device, closeDevice := connectDevice()
		defer closeDevice()

		controller := playback.New(engine, device, persistence, playback.Options{})
		defer controller.Close()

		options := tui.Options{
			Controller:       controller,
			Load:             sceneResolver(client, local),
			Queue:            args,
			InitialTimestamp: lo.Must(cmd.Flags().GetFloat64("timestamp")),
			Autoplay:         lo.Must(cmd.Flags().GetBool("autoplay")),
			PermitLoop:       !lo.Must(cmd.Flags().GetBool("no-loop")),
			HideScrubber:     lo.Must(cmd.Flags().GetBool("hide-scrubber")),
			Config:           config.Current(),
			Done:             engine.Wait(),
		}
		handleErr(tui.Run(&options))
	},
}

func completionRecentScenes(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(query.SuggestMany(toComplete), func(s query.Suggestion, _ int) string {
		if s.Title == "" {
			return s.Query
		}
		return s.Query + "\t" + s.Title
	}), cobra.ShellCompDirectiveDefault
}

// activityBackend picks where watched duration and play counts go. Stash writes that
// fail are queued for replay. The local store is returned separately so resume
// positions can be read back from it.
func activityBackend(name string, client *stash.Client) (playback.Persistence, *history.Store, error) {
	switch name {
	case backendStash, "":
		return sync.NewQueue(client, where.FailedSyncs()), nil, nil
	case backendLocal:
		store := history.Default()
		return store, store, nil
	case backendNone:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown activity backend %q", name)
	}
}

// sceneResolver loads arguments that name an existing .json file from disk and asks
// Stash for everything else. With a local store, the saved resume position wins.
func sceneResolver(client *stash.Client, local *history.Store) func(context.Context, string) (*scene.Scene, error) {
	return func(ctx context.Context, arg string) (*scene.Scene, error) {
		sc, err := resolveScene(ctx, client, arg)
		if err != nil {
			return nil, err
		}

		if err := query.Remember(arg, sc.DisplayTitle(), 1); err != nil {
			log.Scene(sc.ID).Warnf("remember scene: %v", err)
		}

		if local == nil {
			return sc, nil
		}

		record, err := local.Get(sc.ID)
		if err != nil {
			log.Scene(sc.ID).Warnf("read local history: %v", err)
			return sc, nil
		}
		if r, ok := record.Get(); ok {
			resumed := *sc
			resumed.ResumeTime = r.ResumeTime
			return &resumed, nil
		}
		return sc, nil
	}
}

func resolveScene(ctx context.Context, client *stash.Client, arg string) (*scene.Scene, error) {
	if strings.EqualFold(filepath.Ext(arg), ".json") {
		if exists, _ := filesystem.API().Exists(arg); exists {
			return scene.Load(arg)
		}
	}
	return client.FindScene(ctx, arg)
}

// connectDevice returns the Handy when a connection key is configured and a no-op
// device otherwise. The connection handshake runs in the background.
func connectDevice() (interactive.Device, func()) {
	connectionKey := viper.GetString(key.InteractiveHandyKey)
	if connectionKey == "" {
		stored, err := auth.Get(auth.HandyConnection)
		if err != nil {
			log.Warnf("read handy key from keyring: %v", err)
		}
		connectionKey = stored
	}

	if connectionKey == "" {
		return interactive.Nop{}, func() {}
	}

	handy := interactive.NewHandy(viper.GetString(key.InteractiveAPIURL), connectionKey)
	ctx, cancel := context.WithTimeout(context.Background(), handyConnectTimeout)
	go func() {
		defer cancel()
		if err := handy.Connect(ctx); err != nil {
			log.Warnf("connect handy: %v", err)
		}
	}()

	return handy, func() {
		cancel()
		handy.Close()
	}
}
