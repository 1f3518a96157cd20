package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/daysync/internal/tracker/application"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

var errNotInitialized = errors.New("application is not initialized")

// resolveTask matches a full id or a unique id prefix against the current
// task set.
func resolveTask(cmd *cobra.Command, app *App, arg string) (task.Task, error) {
	tasks, err := app.Engine.LoadTasks(cmd.Context(), false)
	if err != nil {
		return task.Task{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	var matches []task.Task
	for _, t := range tasks {
		if t.ID.String() == arg {
			return t, nil
		}
		if strings.HasPrefix(t.ID.String(), arg) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return task.Task{}, fmt.Errorf("no task matches id %q", arg)
	default:
		return task.Task{}, fmt.Errorf("id %q is ambiguous, %d tasks match", arg, len(matches))
	}
}

// syncAfterMutation replays the pending queue right after a local mutation.
// Failures are expected offline and stay queued, so they only warn.
func syncAfterMutation(cmd *cobra.Command, app *App) {
	if err := app.Engine.SyncNow(cmd.Context()); err != nil {
		if errors.Is(err, application.ErrSyncInFlight) {
			return
		}
		logger.Warn("sync deferred, changes remain queued", "error", err)
	}
}

func statusGlyph(t task.Task) string {
	switch {
	case t.Completed:
		return "[x]"
	case t.Abandoned:
		return "[-]"
	default:
		return "[ ]"
	}
}

func importanceMark(n int) string {
	if n < 1 {
		n = 1
	}
	if n > 3 {
		n = 3
	}
	return strings.Repeat("!", n)
}
