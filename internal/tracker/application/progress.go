package application

import (
	"fmt"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

// TaskView is a task decorated with deadline progress for display.
type TaskView struct {
	task.Task
	DaysLeft        int
	DaysTotal       int
	ProgressPercent int
	DaysLeftText    string
}

// DecorateProgress annotates open tasks with days-left and elapsed-progress
// information relative to day. Finished tasks carry no progress.
func DecorateProgress(tasks []task.Task, day datekey.Key) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, decorate(t, day))
	}
	return views
}

func decorate(t task.Task, day datekey.Key) TaskView {
	v := TaskView{Task: t}
	if !t.IsOpen() {
		return v
	}

	if t.Permanent {
		v.DaysLeftText = "open-ended"
		v.ProgressPercent = 100
		return v
	}

	v.DaysLeft = datekey.DaysBetween(day, t.EndDate)
	v.DaysTotal = datekey.DaysBetween(t.StartDate, t.EndDate) + 1

	switch {
	case v.DaysLeft < 0:
		v.DaysLeftText = "overdue"
		v.ProgressPercent = 0
	case v.DaysLeft == 0:
		v.DaysLeftText = "due today"
		v.ProgressPercent = 5
	default:
		v.DaysLeftText = fmt.Sprintf("%d days left", v.DaysLeft)
		elapsed := datekey.DaysBetween(t.StartDate, day)
		percent := 0
		if v.DaysTotal > 0 {
			percent = elapsed * 100 / v.DaysTotal
		}
		v.ProgressPercent = clamp(percent, 5, 100)
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
