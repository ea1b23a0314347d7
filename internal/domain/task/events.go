package task

import (
	"time"

	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
)

const (
	EventTypeTaskCreated            event.Type = "task.created"
	EventTypeTaskDraftCreated       event.Type = "task.draft_created"
	EventTypeTaskDraftFinalized     event.Type = "task.draft_finalized"
	EventTypeTaskDescriptionUpdated event.Type = "task.description_updated"
	EventTypeTaskDueDateUpdated     event.Type = "task.due_date_updated"
	EventTypeTaskPriorityUpdated    event.Type = "task.priority_updated"
	EventTypeTaskReopened           event.Type = "task.reopened"
	EventTypeTaskDeleted            event.Type = "task.deleted"
	EventTypeTaskCompleted          event.Type = "task.completed"
	EventTypeDeletedTaskRestored    event.Type = "task.deleted_restored"
	EventTypeLabelledTaskRestored   event.Type = "task.labelled_restored"
	EventTypeLabelAssignedToTask    event.Type = "task.label_assigned"
	EventTypeLabelRemovedFromTask   event.Type = "task.label_removed"
)

// Details is a snapshot of the task fields read models display. Events that
// make a task (re)appear in a view carry it.
type Details struct {
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
}

type TaskCreated struct {
	TaskID      ID        `json:"task_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type TaskDraftCreated struct {
	TaskID    ID        `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskDraftFinalized struct {
	TaskID  ID      `json:"task_id"`
	Details Details `json:"details"`
}

type TaskDescriptionUpdated struct {
	TaskID      ID     `json:"task_id"`
	Description string `json:"description"`
}

type TaskDueDateUpdated struct {
	TaskID  ID         `json:"task_id"`
	DueDate *time.Time `json:"due_date"`
}

type TaskPriorityUpdated struct {
	TaskID   ID       `json:"task_id"`
	Priority Priority `json:"priority"`
}

type TaskReopened struct {
	TaskID ID `json:"task_id"`
}

type TaskDeleted struct {
	TaskID ID `json:"task_id"`
}

type TaskCompleted struct {
	TaskID ID `json:"task_id"`
}

type DeletedTaskRestored struct {
	TaskID  ID      `json:"task_id"`
	Details Details `json:"details"`
}

type LabelledTaskRestored struct {
	TaskID  ID       `json:"task_id"`
	LabelID label.ID `json:"label_id"`
	Details Details  `json:"details"`
}

type LabelAssignedToTask struct {
	TaskID  ID       `json:"task_id"`
	LabelID label.ID `json:"label_id"`
	Details Details  `json:"details"`
}

type LabelRemovedFromTask struct {
	TaskID  ID       `json:"task_id"`
	LabelID label.ID `json:"label_id"`
}

func (TaskCreated) EventType() event.Type            { return EventTypeTaskCreated }
func (TaskDraftCreated) EventType() event.Type       { return EventTypeTaskDraftCreated }
func (TaskDraftFinalized) EventType() event.Type     { return EventTypeTaskDraftFinalized }
func (TaskDescriptionUpdated) EventType() event.Type { return EventTypeTaskDescriptionUpdated }
func (TaskDueDateUpdated) EventType() event.Type     { return EventTypeTaskDueDateUpdated }
func (TaskPriorityUpdated) EventType() event.Type    { return EventTypeTaskPriorityUpdated }
func (TaskReopened) EventType() event.Type           { return EventTypeTaskReopened }
func (TaskDeleted) EventType() event.Type            { return EventTypeTaskDeleted }
func (TaskCompleted) EventType() event.Type          { return EventTypeTaskCompleted }
func (DeletedTaskRestored) EventType() event.Type    { return EventTypeDeletedTaskRestored }
func (LabelledTaskRestored) EventType() event.Type   { return EventTypeLabelledTaskRestored }
func (LabelAssignedToTask) EventType() event.Type    { return EventTypeLabelAssignedToTask }
func (LabelRemovedFromTask) EventType() event.Type   { return EventTypeLabelRemovedFromTask }

func (e TaskCreated) AggregateID() string            { return string(e.TaskID) }
func (e TaskDraftCreated) AggregateID() string       { return string(e.TaskID) }
func (e TaskDraftFinalized) AggregateID() string     { return string(e.TaskID) }
func (e TaskDescriptionUpdated) AggregateID() string { return string(e.TaskID) }
func (e TaskDueDateUpdated) AggregateID() string     { return string(e.TaskID) }
func (e TaskPriorityUpdated) AggregateID() string    { return string(e.TaskID) }
func (e TaskReopened) AggregateID() string           { return string(e.TaskID) }
func (e TaskDeleted) AggregateID() string            { return string(e.TaskID) }
func (e TaskCompleted) AggregateID() string          { return string(e.TaskID) }
func (e DeletedTaskRestored) AggregateID() string    { return string(e.TaskID) }
func (e LabelledTaskRestored) AggregateID() string   { return string(e.TaskID) }
func (e LabelAssignedToTask) AggregateID() string    { return string(e.TaskID) }
func (e LabelRemovedFromTask) AggregateID() string   { return string(e.TaskID) }
