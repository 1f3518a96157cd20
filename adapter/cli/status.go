package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue depth and freshness state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotInitialized
		}
		ctx := cmd.Context()

		pending, err := app.Engine.PendingCount(ctx)
		if err != nil {
			return fmt.Errorf("failed to read pending queue: %w", err)
		}

		decision := app.Engine.CheckRefreshNeeded(ctx)

		fmt.Printf("Today: %s\n", app.Engine.Today())
		fmt.Printf("Pending changes: %d\n", pending)
		if decision.NeedRefresh {
			reasons := make([]string, len(decision.Reasons))
			for i, r := range decision.Reasons {
				reasons[i] = string(r)
			}
			fmt.Printf("Refresh needed (%s)\n", strings.Join(reasons, ", "))
		} else {
			fmt.Println("Cache is fresh.")
		}
		return nil
	},
}

func init() {
	AddCommand(statusCmd)
}
