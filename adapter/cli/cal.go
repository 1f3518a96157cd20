package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
)

var calMonth string

var calCmd = &cobra.Command{
	Use:   "cal",
	Short: "Show a month calendar with per-day task counts",
	Long: `Render a month calendar. Each day shows how many tasks close on it
and how many of those are done. Completed and abandoned tasks count on
their end date, the day they left the daily list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return errNotInitialized
		}

		today := app.Engine.Today()
		year, month := today.Time().Year(), today.Time().Month()
		if calMonth != "" {
			parsed, err := time.Parse("2006-01", calMonth)
			if err != nil {
				return fmt.Errorf("invalid month %q, want YYYY-MM", calMonth)
			}
			year, month = parsed.Year(), parsed.Month()
		}

		stats, err := app.Engine.DateStats(cmd.Context(), year, month)
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}

		fmt.Printf("%s %d\n", month, year)
		fmt.Println("  Sun    Mon    Tue    Wed    Thu    Fri    Sat")
		for _, week := range datekey.Calendar(year, month, today, stats) {
			var row strings.Builder
			for _, cell := range week.Days {
				row.WriteString(renderCell(cell))
			}
			fmt.Println(row.String())
		}
		return nil
	},
}

func renderCell(cell datekey.Cell) string {
	if cell.Empty {
		return strings.Repeat(" ", 7)
	}
	day := fmt.Sprintf("%2d", cell.Day)
	if cell.IsToday {
		day = "*" + day
	} else {
		day = " " + day
	}
	if cell.Stat.Total == 0 {
		return day + "    "
	}
	return fmt.Sprintf("%s %d/%d ", day, cell.Stat.Completed, cell.Stat.Total)
}

func init() {
	calCmd.Flags().StringVarP(&calMonth, "month", "m", "", "month to show (YYYY-MM, default current)")
	AddCommand(calCmd)
}
