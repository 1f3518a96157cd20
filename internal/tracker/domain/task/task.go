// Package task defines the core task record, its structured mutation inputs,
// and the date-range visibility rules every consumer relies on.
package task

import (
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
)

var (
	ErrEmptyTitle   = errors.New("task title cannot be empty")
	ErrInvalidRange = errors.New("task start date must not be after end date")
	ErrNotFound     = errors.New("task not found")
)

// DefaultImportance is the mid-value priority assigned when none is given.
const DefaultImportance = 2

// Task is the core entity. It is a plain serializable record: the local
// store, the bounded cache and the remote store all persist it as a JSON
// document.
type Task struct {
	ID         ID          `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content,omitempty"`
	Importance int         `json:"importance"`
	Permanent  bool        `json:"permanent"`
	StartDate  datekey.Key `json:"startDate"`
	EndDate    datekey.Key `json:"endDate"`
	Completed  bool        `json:"completed"`
	Abandoned  bool        `json:"abandoned"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt,omitempty"`
}

// IsOpen reports whether the task has not reached a terminal state.
func (t Task) IsOpen() bool { return !t.Completed && !t.Abandoned }

// Draft is the input for creating a task.
type Draft struct {
	Title      string
	Content    string
	Importance int
	Permanent  bool
	StartDate  datekey.Key
	EndDate    datekey.Key
}

// Validate checks the draft and fills defaults relative to today. Start
// defaults to today, end defaults to start, importance to the mid value.
func (d *Draft) Validate(today datekey.Key) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return ErrEmptyTitle
	}
	d.Content = strings.TrimSpace(d.Content)
	if d.Importance == 0 {
		d.Importance = DefaultImportance
	}
	if d.StartDate.IsZero() {
		d.StartDate = today
	}
	if d.EndDate.IsZero() {
		d.EndDate = d.StartDate
	}
	if !d.Permanent && d.EndDate.Before(d.StartDate) {
		return ErrInvalidRange
	}
	return nil
}

// Patch is a structured partial mutation. Nil fields are left untouched.
type Patch struct {
	Title      *string      `json:"title,omitempty"`
	Content    *string      `json:"content,omitempty"`
	Importance *int         `json:"importance,omitempty"`
	Permanent  *bool        `json:"permanent,omitempty"`
	StartDate  *datekey.Key `json:"startDate,omitempty"`
	EndDate    *datekey.Key `json:"endDate,omitempty"`
	Completed  *bool        `json:"completed,omitempty"`
	Abandoned  *bool        `json:"abandoned,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Content == nil && p.Importance == nil &&
		p.Permanent == nil && p.StartDate == nil && p.EndDate == nil &&
		p.Completed == nil && p.Abandoned == nil
}

// Validate rejects patches that would leave the record invalid.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.StartDate != nil && p.EndDate != nil {
		permanent := p.Permanent != nil && *p.Permanent
		if !permanent && p.EndDate.Before(*p.StartDate) {
			return ErrInvalidRange
		}
	}
	return nil
}

// Apply merges the patch into t and stamps UpdatedAt.
func (p Patch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		t.Content = strings.TrimSpace(*p.Content)
	}
	if p.Importance != nil {
		t.Importance = *p.Importance
	}
	if p.Permanent != nil {
		t.Permanent = *p.Permanent
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Abandoned != nil {
		t.Abandoned = *p.Abandoned
	}
	t.UpdatedAt = now
}

func ptr[T any](v T) *T { return &v }

// CompletePatch is the terminal-state rewrite applied when a task is marked
// complete: the end date collapses to today so the task shows exactly once
// more, on its closing day.
func CompletePatch(today datekey.Key) Patch {
	return Patch{
		Completed: ptr(true),
		Abandoned: ptr(false),
		EndDate:   ptr(today),
		Permanent: ptr(false),
	}
}

// ReopenPatch clears both terminal states.
func ReopenPatch() Patch {
	return Patch{Completed: ptr(false), Abandoned: ptr(false)}
}

// AbandonPatch is the terminal-state rewrite for giving a task up.
func AbandonPatch(today datekey.Key) Patch {
	return Patch{
		Abandoned: ptr(true),
		Completed: ptr(false),
		EndDate:   ptr(today),
		Permanent: ptr(false),
	}
}
