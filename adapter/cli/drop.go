package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dropCmd = &cobra.Command{
	Use:   "drop <id>",
	Short: "Give up on a task",
	Long: `Mark a task abandoned. Like completion this pins the end date to
today; the task shows once more on today's list and never again.`,
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

		if err := app.Engine.AbandonTask(cmd.Context(), t.ID); err != nil {
			return fmt.Errorf("failed to abandon task: %w", err)
		}
		fmt.Printf("Abandoned: %s\n", t.Title)

		syncAfterMutation(cmd, app)
		return nil
	},
}

func init() {
	AddCommand(dropCmd)
}
