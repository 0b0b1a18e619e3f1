package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/auth"
	"github.com/sceneplay/sceneplay/color"
	"github.com/sceneplay/sceneplay/icon"
	"github.com/sceneplay/sceneplay/internal/sync"
	"github.com/sceneplay/sceneplay/key"
	"github.com/sceneplay/sceneplay/stash"
	"github.com/sceneplay/sceneplay/style"
	"github.com/sceneplay/sceneplay/util"
	"github.com/sceneplay/sceneplay/where"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolP("list", "l", false, "List queued writes without sending them")
}

// syncCmd replays activity writes that failed to reach Stash.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send queued activity writes to Stash",
	Run: func(cmd *cobra.Command, args []string) {
		apiKey, err := auth.Get(auth.StashAPIKey)
		handleErr(err)

		queue := sync.NewQueue(stash.NewClient(viper.GetString(key.StashURL), apiKey), where.FailedSyncs())

		pending, err := queue.Pending()
		handleErr(err)

		if len(pending) == 0 {
			fmt.Printf("%s nothing to sync\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		if lo.Must(cmd.Flags().GetBool("list")) {
			for _, m := range pending {
				fmt.Printf("%s %s %s\n",
					style.Faint(time.Unix(m.Timestamp, 0).Format(time.DateTime)),
					style.Fg(color.Purple)(m.SceneID),
					m.Action,
				)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		erase := util.PrintErasable(fmt.Sprintf("%s Sending %d queued writes...", icon.Get(icon.Progress), len(pending)))
		replayed, err := queue.Reconcile(ctx)
		erase()
		handleErr(err)

		fmt.Printf("%s sent %d of %d queued writes\n", style.Fg(color.Green)(icon.Get(icon.Success)), replayed, len(pending))
	},
}
