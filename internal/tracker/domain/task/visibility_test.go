package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

func TestVisible(t *testing.T) {
	tests := []struct {
		name string
		task task.Task
		day  datekey.Key
		want bool
	}{
		{
			name: "open task inside range",
			task: task.Task{StartDate: "2026-09-01", EndDate: "2026-09-05"},
			day:  "2026-09-03",
			want: true,
		},
		{
			name: "open task on start boundary",
			task: task.Task{StartDate: "2026-09-01", EndDate: "2026-09-05"},
			day:  "2026-09-01",
			want: true,
		},
		{
			name: "open task on end boundary",
			task: task.Task{StartDate: "2026-09-01", EndDate: "2026-09-05"},
			day:  "2026-09-05",
			want: true,
		},
		{
			name: "open task before range",
			task: task.Task{StartDate: "2026-09-01", EndDate: "2026-09-05"},
			day:  "2026-08-31",
			want: false,
		},
		{
			name: "open task after range",
			task: task.Task{StartDate: "2026-09-01", EndDate: "2026-09-05"},
			day:  "2026-09-06",
			want: false,
		},
		{
			name: "single day task",
			task: task.Task{StartDate: "2026-09-01", EndDate: "2026-09-01"},
			day:  "2026-09-01",
			want: true,
		},
		{
			name: "permanent from start onward",
			task: task.Task{Permanent: true, StartDate: "2026-09-01", EndDate: "2026-09-01"},
			day:  "2026-12-31",
			want: true,
		},
		{
			name: "permanent before start",
			task: task.Task{Permanent: true, StartDate: "2026-09-01"},
			day:  "2026-08-31",
			want: false,
		},
		{
			name: "completed only on closing day",
			task: task.Task{Completed: true, StartDate: "2026-09-01", EndDate: "2026-09-03"},
			day:  "2026-09-03",
			want: true,
		},
		{
			name: "completed hidden after closing day",
			task: task.Task{Completed: true, StartDate: "2026-09-01", EndDate: "2026-09-03"},
			day:  "2026-09-04",
			want: false,
		},
		{
			name: "completed hidden before closing day",
			task: task.Task{Completed: true, StartDate: "2026-09-01", EndDate: "2026-09-03"},
			day:  "2026-09-02",
			want: false,
		},
		{
			name: "abandoned only on closing day",
			task: task.Task{Abandoned: true, StartDate: "2026-09-01", EndDate: "2026-09-03"},
			day:  "2026-09-03",
			want: true,
		},
		{
			name: "abandoned hidden elsewhere",
			task: task.Task{Abandoned: true, StartDate: "2026-09-01", EndDate: "2026-09-03"},
			day:  "2026-09-04",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, task.Visible(tt.task, tt.day))
		})
	}
}

func TestForDay_FiltersAndSorts(t *testing.T) {
	day := datekey.Key("2026-09-03")
	tasks := []task.Task{
		{Title: "abandoned", Abandoned: true, Importance: 3, StartDate: "2026-09-01", EndDate: "2026-09-03"},
		{Title: "open low", Importance: 1, StartDate: "2026-09-01", EndDate: "2026-09-05"},
		{Title: "done", Completed: true, Importance: 2, StartDate: "2026-09-01", EndDate: "2026-09-03"},
		{Title: "open high", Importance: 3, StartDate: "2026-09-03", EndDate: "2026-09-03"},
		{Title: "elsewhere", Importance: 3, StartDate: "2026-09-10", EndDate: "2026-09-12"},
	}

	got := task.ForDay(tasks, day)
	require.Len(t, got, 4)

	titles := make([]string, len(got))
	for i, tt := range got {
		titles[i] = tt.Title
	}
	assert.Equal(t, []string{"open high", "open low", "done", "abandoned"}, titles)
}

func TestSortForDay_StableWithinGroup(t *testing.T) {
	tasks := []task.Task{
		{Title: "first", Importance: 2},
		{Title: "second", Importance: 2},
		{Title: "third", Importance: 2},
	}
	task.SortForDay(tasks)

	assert.Equal(t, "first", tasks[0].Title)
	assert.Equal(t, "second", tasks[1].Title)
	assert.Equal(t, "third", tasks[2].Title)
}
