package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/daysync/internal/tracker/application"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
)

var (
	listDate    string
	listAll     bool
	listRefresh bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks visible today (or on a given date)",
	Long: `List the tasks visible on a day: open tasks whose window covers it,
permanent tasks, and tasks finished on exactly that day. Served from the
cache when fresh; --refresh forces a sync first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotInitialized
		}
		ctx := cmd.Context()

		if listAll {
			tasks, err := app.Engine.LoadTasks(ctx, listRefresh)
			if err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks.")
				return nil
			}
			for _, t := range tasks {
				fmt.Printf("%s %s %-30s %s..%s  %s\n",
					statusGlyph(t), importanceMark(t.Importance), t.Title,
					t.StartDate, t.EndDate, t.ID)
			}
			return nil
		}

		day := app.Engine.Today()
		if listDate != "" {
			parsed, err := datekey.Parse(listDate)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", listDate, err)
			}
			day = parsed
		}

		if listRefresh {
			if _, err := app.Engine.LoadTasks(ctx, true); err != nil {
				return fmt.Errorf("failed to refresh: %w", err)
			}
		}

		tasks, err := app.Engine.LoadTasksForDate(ctx, day)
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		if len(tasks) == 0 {
			fmt.Printf("Nothing on %s.\n", day)
			return nil
		}

		fmt.Printf("Tasks for %s:\n", day)
		for _, v := range application.DecorateProgress(tasks, day) {
			line := fmt.Sprintf("%s %s %s", statusGlyph(v.Task), importanceMark(v.Importance), v.Title)
			if v.Task.IsOpen() && v.DaysLeftText != "" {
				line += fmt.Sprintf("  (%s)", v.DaysLeftText)
			}
			fmt.Println(line)
			if verbose {
				fmt.Printf("      id=%s window=%s..%s\n", v.Task.ID, v.StartDate, v.EndDate)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "date to show (YYYY-MM-DD, default today)")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "show every task regardless of date")
	listCmd.Flags().BoolVarP(&listRefresh, "refresh", "r", false, "sync before listing")
	AddCommand(listCmd)
}
