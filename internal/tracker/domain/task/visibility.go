package task

import (
	"sort"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
)

// Visible reports whether t belongs on the view for day.
//
// A completed or abandoned task shows exactly once, on its closing day, then
// disappears from later views. A permanent task runs from its start date
// with no end. Everything else is a plain inclusive date range.
func Visible(t Task, day datekey.Key) bool {
	if t.Completed || t.Abandoned {
		return day == t.EndDate
	}
	if t.Permanent {
		return !day.Before(t.StartDate)
	}
	return !day.Before(t.StartDate) && !day.After(t.EndDate)
}

// ForDay filters tasks down to those visible on day, sorted for display.
func ForDay(tasks []Task, day datekey.Key) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if Visible(t, day) {
			out = append(out, t)
		}
	}
	SortForDay(out)
	return out
}

// SortForDay orders a day's list: open tasks first, then completed, then
// abandoned; within a status group, descending importance.
func SortForDay(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if ra, rb := statusRank(a), statusRank(b); ra != rb {
			return ra < rb
		}
		return a.Importance > b.Importance
	})
}

func statusRank(t Task) int {
	switch {
	case t.IsOpen():
		return 0
	case t.Completed:
		return 1
	default:
		return 2
	}
}
