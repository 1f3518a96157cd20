package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotInitialized
		}

		t, err := resolveTask(cmd, app, args[0])
		if err != nil {
			return err
		}

		if err := app.Engine.DeleteTask(cmd.Context(), t.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		fmt.Printf("Deleted: %s\n", t.Title)

		syncAfterMutation(cmd, app)
		return nil
	},
}

func init() {
	AddCommand(rmCmd)
}
