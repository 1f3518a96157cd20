package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

var (
	editTitle      string
	editContent    string
	editImportance int
	editStart      string
	editEnd        string
	editPermanent  bool
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task's fields",
	Long: `Edit a task. Only the flags you pass change; everything else is left
as it was. The change applies locally first and is queued for sync.`,
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

		var patch task.Patch
		if cmd.Flags().Changed("title") {
			patch.Title = &editTitle
		}
		if cmd.Flags().Changed("content") {
			patch.Content = &editContent
		}
		if cmd.Flags().Changed("importance") {
			patch.Importance = &editImportance
		}
		if cmd.Flags().Changed("permanent") {
			patch.Permanent = &editPermanent
		}
		if cmd.Flags().Changed("start") {
			key, err := parseOptionalDate(editStart)
			if err != nil {
				return err
			}
			patch.StartDate = &key
		}
		if cmd.Flags().Changed("end") {
			key, err := parseOptionalDate(editEnd)
			if err != nil {
				return err
			}
			patch.EndDate = &key
		}
		if patch.IsZero() {
			fmt.Println("Nothing to change.")
			return nil
		}

		if err := app.Engine.UpdateTask(cmd.Context(), t.ID, patch); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		fmt.Printf("Updated: %s\n", t.Title)

		syncAfterMutation(cmd, app)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVar(&editContent, "content", "", "new description")
	editCmd.Flags().IntVarP(&editImportance, "importance", "i", 0, "new importance 1-3")
	editCmd.Flags().StringVar(&editStart, "start", "", "new start date (YYYY-MM-DD)")
	editCmd.Flags().StringVar(&editEnd, "end", "", "new end date (YYYY-MM-DD)")
	editCmd.Flags().BoolVar(&editPermanent, "permanent", false, "open-ended task")
	AddCommand(editCmd)
}
