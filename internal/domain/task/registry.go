package task

import (
	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/event"
)

// Commands returns a registry of task command decoders.
func Commands() *command.Registry {
	r := command.NewRegistry()
	command.Register[CreateBasicTask](r)
	command.Register[CreateDraft](r)
	command.Register[FinalizeDraft](r)
	command.Register[UpdateTaskDescription](r)
	command.Register[UpdateTaskDueDate](r)
	command.Register[UpdateTaskPriority](r)
	command.Register[ReopenTask](r)
	command.Register[DeleteTask](r)
	command.Register[RestoreDeletedTask](r)
	command.Register[CompleteTask](r)
	command.Register[AssignLabelToTask](r)
	command.Register[RemoveLabelFromTask](r)
	return r
}

// Events returns a registry of task event decoders.
func Events() *event.Registry {
	r := event.NewRegistry()
	event.Register[TaskCreated](r)
	event.Register[TaskDraftCreated](r)
	event.Register[TaskDraftFinalized](r)
	event.Register[TaskDescriptionUpdated](r)
	event.Register[TaskDueDateUpdated](r)
	event.Register[TaskPriorityUpdated](r)
	event.Register[TaskReopened](r)
	event.Register[TaskDeleted](r)
	event.Register[TaskCompleted](r)
	event.Register[DeletedTaskRestored](r)
	event.Register[LabelledTaskRestored](r)
	event.Register[LabelAssignedToTask](r)
	event.Register[LabelRemovedFromTask](r)
	return r
}
