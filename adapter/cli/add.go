package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

var (
	addContent    string
	addImportance int
	addStart      string
	addEnd        string
	addPermanent  bool
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task. The task is stored locally right away and queued for
the remote store; a sync runs immediately afterwards when the network
allows.

Examples:
  daysync add "Buy groceries"
  daysync add "Finish report" --end 2026-09-05 --importance 3
  daysync add "Daily review" --permanent`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotInitialized
		}

		draft := task.Draft{
			Title:      strings.Join(args, " "),
			Content:    addContent,
			Importance: addImportance,
			Permanent:  addPermanent,
		}
		var err error
		if draft.StartDate, err = parseOptionalDate(addStart); err != nil {
			return err
		}
		if draft.EndDate, err = parseOptionalDate(addEnd); err != nil {
			return err
		}

		t, err := app.Engine.AddTask(cmd.Context(), draft)
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		fmt.Println("Task added!")
		fmt.Printf("  Title: %s\n", t.Title)
		fmt.Printf("  ID: %s\n", t.ID)
		if t.Permanent {
			fmt.Println("  Window: open-ended")
		} else {
			fmt.Printf("  Window: %s to %s\n", t.StartDate, t.EndDate)
		}

		syncAfterMutation(cmd, app)
		return nil
	},
}

func parseOptionalDate(s string) (datekey.Key, error) {
	if s == "" {
		return "", nil
	}
	key, err := datekey.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return key, nil
}

func init() {
	addCmd.Flags().StringVar(&addContent, "content", "", "longer description")
	addCmd.Flags().IntVarP(&addImportance, "importance", "i", 0, "importance 1-3 (default 2)")
	addCmd.Flags().StringVar(&addStart, "start", "", "start date (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&addEnd, "end", "", "end date (YYYY-MM-DD, default start)")
	addCmd.Flags().BoolVar(&addPermanent, "permanent", false, "no end date, visible every day")
	AddCommand(addCmd)
}
