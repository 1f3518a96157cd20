package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a task's completed state",
	Long: `Toggle a task between open and completed. Completing a task pins its
end date to today, so it shows one last time on today's list and then
disappears from future days. Running done again reopens it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotInitialized
		}

		t, err := resolveTask(cmd, app, args[0])
		if err != nil {
			return err
		}

		completed, err := app.Engine.ToggleTask(cmd.Context(), t.ID)
		if err != nil {
			return fmt.Errorf("failed to toggle task: %w", err)
		}

		if completed {
			fmt.Printf("Completed: %s\n", t.Title)
		} else {
			fmt.Printf("Reopened: %s\n", t.Title)
		}

		syncAfterMutation(cmd, app)
		return nil
	},
}

func init() {
	AddCommand(doneCmd)
}
