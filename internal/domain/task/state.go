package task

import (
	"slices"
	"time"

	"github.com/todo-1m/tasklist/internal/domain/label"
)

// State is the replayed task aggregate.
type State struct {
	ID          ID
	Description string
	Priority    Priority
	DueDate     *time.Time
	Status      Status
	// LabelIDs keeps assignment order and never holds duplicates.
	LabelIDs  []label.ID
	CreatedAt time.Time
	// Version counts applied events.
	Version uint64
}

// Created reports whether a creation event has been applied.
func (s State) Created() bool {
	return s.Status != StatusNone
}

// HasLabel reports whether id is currently assigned.
func (s State) HasLabel(id label.ID) bool {
	return slices.Contains(s.LabelIDs, id)
}

// Details snapshots the fields read models display.
func (s State) Details() Details {
	return Details{
		Description: s.Description,
		Priority:    s.Priority,
		DueDate:     cloneTime(s.DueDate),
		Completed:   s.Status == StatusCompleted,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func sameDueDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
