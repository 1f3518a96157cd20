package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncPull bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay queued changes against the remote store",
	Long: `Replay the pending operation queue in order. Operations that fail
stay queued for the next run. With --pull the remote task set is
re-fetched and merged afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotInitialized
		}
		ctx := cmd.Context()

		before, err := app.Engine.PendingCount(ctx)
		if err != nil {
			return fmt.Errorf("failed to read pending queue: %w", err)
		}

		if syncPull {
			err = app.Engine.ForceSync(ctx)
		} else {
			err = app.Engine.SyncNow(ctx)
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		after, err := app.Engine.PendingCount(ctx)
		if err != nil {
			return fmt.Errorf("failed to read pending queue: %w", err)
		}

		switch {
		case before == 0 && !syncPull:
			fmt.Println("Nothing to sync.")
		case after == 0:
			fmt.Printf("Synced %d change(s).\n", before)
		default:
			fmt.Printf("Synced %d change(s), %d still queued.\n", before-after, after)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&syncPull, "pull", "p", false, "also re-pull the remote task set")
	AddCommand(syncCmd)
}
