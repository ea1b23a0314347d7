package projection

import (
	"time"

	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

// Item is the denormalized task row every view holds.
type Item struct {
	ID          task.ID       `json:"id"`
	Description string        `json:"description"`
	Priority    task.Priority `json:"priority"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Completed   bool          `json:"completed"`
	LabelID     label.ID      `json:"label_id,omitempty"`
	LabelTitle  string        `json:"label_title,omitempty"`
	LabelColor  label.Color   `json:"label_color,omitempty"`
}

// ByTaskID matches items for id.
func ByTaskID(id task.ID) func(Item) bool {
	return func(item Item) bool { return item.ID == id }
}

func itemFromDetails(id task.ID, d task.Details) Item {
	return Item{
		ID:          id,
		Description: d.Description,
		Priority:    d.Priority,
		DueDate:     cloneTime(d.DueDate),
		Completed:   d.Completed,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// applyTaskFields updates the per-task columns shared by every view. It
// reports false for events that do not touch those columns.
func applyTaskFields(items []Item, evt any) ([]Item, bool) {
	switch e := evt.(type) {
	case task.TaskDescriptionUpdated:
		return UpdateAll(items, ByTaskID(e.TaskID), func(it *Item) { it.Description = e.Description }), true
	case task.TaskDueDateUpdated:
		return UpdateAll(items, ByTaskID(e.TaskID), func(it *Item) { it.DueDate = cloneTime(e.DueDate) }), true
	case task.TaskPriorityUpdated:
		return UpdateAll(items, ByTaskID(e.TaskID), func(it *Item) { it.Priority = e.Priority }), true
	case task.TaskCompleted:
		return UpdateAll(items, ByTaskID(e.TaskID), func(it *Item) { it.Completed = true }), true
	case task.TaskReopened:
		return UpdateAll(items, ByTaskID(e.TaskID), func(it *Item) { it.Completed = false }), true
	default:
		return items, false
	}
}
