package task

import (
	"time"

	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/label"
)

// AggregateType routes task commands and events.
const AggregateType = "task"

// ID identifies a task. IDs are opaque and never reused.
type ID string

const (
	CommandTypeCreateBasicTask       command.Type = "task.create_basic"
	CommandTypeCreateDraft           command.Type = "task.create_draft"
	CommandTypeFinalizeDraft         command.Type = "task.finalize_draft"
	CommandTypeUpdateTaskDescription command.Type = "task.update_description"
	CommandTypeUpdateTaskDueDate     command.Type = "task.update_due_date"
	CommandTypeUpdateTaskPriority    command.Type = "task.update_priority"
	CommandTypeReopenTask            command.Type = "task.reopen"
	CommandTypeDeleteTask            command.Type = "task.delete"
	CommandTypeRestoreDeletedTask    command.Type = "task.restore_deleted"
	CommandTypeCompleteTask          command.Type = "task.complete"
	CommandTypeAssignLabelToTask     command.Type = "task.assign_label"
	CommandTypeRemoveLabelFromTask   command.Type = "task.remove_label"
)

// DescriptionChange pairs the description the caller last saw with the one it wants.
type DescriptionChange struct {
	PreviousValue string `json:"previous_value"`
	NewValue      string `json:"new_value"`
}

// DueDateChange pairs the due date the caller last saw with the one it wants.
// A nil value means no due date.
type DueDateChange struct {
	PreviousValue *time.Time `json:"previous_value"`
	NewValue      *time.Time `json:"new_value"`
}

// PriorityChange pairs the priority the caller last saw with the one it wants.
type PriorityChange struct {
	PreviousValue Priority `json:"previous_value"`
	NewValue      Priority `json:"new_value"`
}

type CreateBasicTask struct {
	TaskID      ID     `json:"task_id"`
	Description string `json:"description"`
}

type CreateDraft struct {
	TaskID ID `json:"task_id"`
}

type FinalizeDraft struct {
	TaskID ID `json:"task_id"`
}

type UpdateTaskDescription struct {
	TaskID            ID                `json:"task_id"`
	DescriptionChange DescriptionChange `json:"description_change"`
}

type UpdateTaskDueDate struct {
	TaskID        ID            `json:"task_id"`
	DueDateChange DueDateChange `json:"due_date_change"`
}

type UpdateTaskPriority struct {
	TaskID         ID             `json:"task_id"`
	PriorityChange PriorityChange `json:"priority_change"`
}

type ReopenTask struct {
	TaskID ID `json:"task_id"`
}

type DeleteTask struct {
	TaskID ID `json:"task_id"`
}

type RestoreDeletedTask struct {
	TaskID ID `json:"task_id"`
}

type CompleteTask struct {
	TaskID ID `json:"task_id"`
}

type AssignLabelToTask struct {
	TaskID  ID       `json:"task_id"`
	LabelID label.ID `json:"label_id"`
}

type RemoveLabelFromTask struct {
	TaskID  ID       `json:"task_id"`
	LabelID label.ID `json:"label_id"`
}

func (CreateBasicTask) CommandType() command.Type       { return CommandTypeCreateBasicTask }
func (CreateDraft) CommandType() command.Type           { return CommandTypeCreateDraft }
func (FinalizeDraft) CommandType() command.Type         { return CommandTypeFinalizeDraft }
func (UpdateTaskDescription) CommandType() command.Type { return CommandTypeUpdateTaskDescription }
func (UpdateTaskDueDate) CommandType() command.Type     { return CommandTypeUpdateTaskDueDate }
func (UpdateTaskPriority) CommandType() command.Type    { return CommandTypeUpdateTaskPriority }
func (ReopenTask) CommandType() command.Type            { return CommandTypeReopenTask }
func (DeleteTask) CommandType() command.Type            { return CommandTypeDeleteTask }
func (RestoreDeletedTask) CommandType() command.Type    { return CommandTypeRestoreDeletedTask }
func (CompleteTask) CommandType() command.Type          { return CommandTypeCompleteTask }
func (AssignLabelToTask) CommandType() command.Type     { return CommandTypeAssignLabelToTask }
func (RemoveLabelFromTask) CommandType() command.Type   { return CommandTypeRemoveLabelFromTask }

func (c CreateBasicTask) AggregateID() string       { return string(c.TaskID) }
func (c CreateDraft) AggregateID() string           { return string(c.TaskID) }
func (c FinalizeDraft) AggregateID() string         { return string(c.TaskID) }
func (c UpdateTaskDescription) AggregateID() string { return string(c.TaskID) }
func (c UpdateTaskDueDate) AggregateID() string     { return string(c.TaskID) }
func (c UpdateTaskPriority) AggregateID() string    { return string(c.TaskID) }
func (c ReopenTask) AggregateID() string            { return string(c.TaskID) }
func (c DeleteTask) AggregateID() string            { return string(c.TaskID) }
func (c RestoreDeletedTask) AggregateID() string    { return string(c.TaskID) }
func (c CompleteTask) AggregateID() string          { return string(c.TaskID) }
func (c AssignLabelToTask) AggregateID() string     { return string(c.TaskID) }
func (c RemoveLabelFromTask) AggregateID() string   { return string(c.TaskID) }
