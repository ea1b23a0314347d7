package task

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
)

// MinDescriptionLength is the shortest description a task may carry.
const MinDescriptionLength = 3

// Decide returns the decision for a task command against current state.
// A rejected decision never carries events.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	if cmd != nil && strings.TrimSpace(cmd.AggregateID()) == "" {
		return command.Reject(command.Rejection{Code: RejectionCodeTaskIDRequired, Message: "task id is required"})
	}

	switch c := cmd.(type) {
	case CreateBasicTask:
		if !CanCreateTask(state.Status) {
			return rejectExisting(state)
		}
		if !appropriateDescription(c.Description) {
			return rejectInappropriateDescription(c.Description)
		}
		return command.Accept(TaskCreated{TaskID: c.TaskID, Description: c.Description, CreatedAt: now().UTC()})

	case CreateDraft:
		if !CanCreateDraft(state.Status) {
			return rejectExisting(state)
		}
		return command.Accept(TaskDraftCreated{TaskID: c.TaskID, CreatedAt: now().UTC()})

	case FinalizeDraft:
		if !CanFinalizeDraft(state.Status) {
			return rejectTransition(state.Status, StatusFinalized)
		}
		details := state.Details()
		return command.Accept(TaskDraftFinalized{TaskID: c.TaskID, Details: details})

	case UpdateTaskDescription:
		next := c.DescriptionChange.NewValue
		if utf8.RuneCountInString(strings.TrimSpace(next)) < MinDescriptionLength {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeTooShortDescription,
				Message: fmt.Sprintf("description must be at least %d characters", MinDescriptionLength),
			})
		}
		if rejected, ok := guardFieldMutation(state); !ok {
			return rejected
		}
		if m, ok := command.DetectMismatch("description", c.DescriptionChange.PreviousValue, state.Description, next, state.Version, command.Equal[string]); !ok {
			return command.RejectMismatch(m)
		}
		return command.Accept(TaskDescriptionUpdated{TaskID: c.TaskID, Description: next})

	case UpdateTaskDueDate:
		if rejected, ok := guardFieldMutation(state); !ok {
			return rejected
		}
		change := c.DueDateChange
		if m, ok := command.DetectMismatch("due_date", change.PreviousValue, state.DueDate, change.NewValue, state.Version, sameDueDate); !ok {
			return command.RejectMismatch(m)
		}
		return command.Accept(TaskDueDateUpdated{TaskID: c.TaskID, DueDate: cloneTime(change.NewValue)})

	case UpdateTaskPriority:
		change := c.PriorityChange
		if !change.NewValue.Valid() {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeInvalidPriority,
				Message: fmt.Sprintf("priority %q is not supported", string(change.NewValue)),
			})
		}
		if rejected, ok := guardFieldMutation(state); !ok {
			return rejected
		}
		if m, ok := command.DetectMismatch("priority", change.PreviousValue, state.Priority, change.NewValue, state.Version, command.Equal[Priority]); !ok {
			return command.RejectMismatch(m)
		}
		return command.Accept(TaskPriorityUpdated{TaskID: c.TaskID, Priority: change.NewValue})

	case ReopenTask:
		if !transitionAllowed(state.Status, StatusOpen, StatusCompleted) {
			return rejectTransition(state.Status, StatusOpen)
		}
		return command.Accept(TaskReopened{TaskID: c.TaskID})

	case DeleteTask:
		if !transitionAllowed(state.Status, StatusDeleted, StatusFinalized, StatusOpen) {
			return rejectTransition(state.Status, StatusDeleted)
		}
		return command.Accept(TaskDeleted{TaskID: c.TaskID})

	case CompleteTask:
		if !transitionAllowed(state.Status, StatusCompleted, StatusOpen, StatusFinalized) {
			return rejectTransition(state.Status, StatusCompleted)
		}
		return command.Accept(TaskCompleted{TaskID: c.TaskID})

	case RestoreDeletedTask:
		if !transitionAllowed(state.Status, StatusOpen, StatusDeleted) {
			return rejectTransition(state.Status, StatusOpen)
		}
		details := state.Details()
		details.Completed = false
		events := make([]event.Event, 0, 1+len(state.LabelIDs))
		events = append(events, DeletedTaskRestored{TaskID: c.TaskID, Details: details})
		for _, labelID := range state.LabelIDs {
			events = append(events, LabelledTaskRestored{TaskID: c.TaskID, LabelID: labelID, Details: details})
		}
		return command.Accept(events...)

	case AssignLabelToTask:
		if rejected, ok := guardLabelMutation(state, c.LabelID); !ok {
			return rejected
		}
		if state.HasLabel(c.LabelID) {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeLabelAlreadyAssigned,
				Message: fmt.Sprintf("label %s is already assigned", c.LabelID),
			})
		}
		return command.Accept(LabelAssignedToTask{TaskID: c.TaskID, LabelID: c.LabelID, Details: state.Details()})

	case RemoveLabelFromTask:
		if rejected, ok := guardLabelMutation(state, c.LabelID); !ok {
			return rejected
		}
		if !state.HasLabel(c.LabelID) {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeLabelNotAssigned,
				Message: fmt.Sprintf("label %s is not assigned", c.LabelID),
			})
		}
		return command.Accept(LabelRemovedFromTask{TaskID: c.TaskID, LabelID: c.LabelID})

	default:
		return command.Unsupported(cmd)
	}
}

// transitionAllowed checks the table and that current is one of the sources
// the specific command accepts. Reopen and restore both target OPEN but
// start from different states.
func transitionAllowed(current, requested Status, from ...Status) bool {
	if !IsLegal(current, requested) {
		return false
	}
	for _, s := range from {
		if s == current {
			return true
		}
	}
	return false
}

func guardFieldMutation(state State) (command.Decision, bool) {
	if !state.Created() {
		return command.Reject(command.Rejection{Code: RejectionCodeTaskNotCreated, Message: "task not created"}), false
	}
	if Terminal(state.Status) {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeTaskTerminal,
			Message: fmt.Sprintf("task is %s and can no longer be modified", state.Status),
		}), false
	}
	return command.Decision{}, true
}

func guardLabelMutation(state State, labelID label.ID) (command.Decision, bool) {
	if !state.Created() {
		return command.Reject(command.Rejection{Code: RejectionCodeTaskNotCreated, Message: "task not created"}), false
	}
	if strings.TrimSpace(string(labelID)) == "" {
		return command.Reject(command.Rejection{Code: RejectionCodeInvalidLabelOperation, Message: "label id is required"}), false
	}
	if !AllowsLabelMutation(state.Status) {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeInvalidLabelOperation,
			Message: fmt.Sprintf("labels cannot change while task is %s", state.Status),
		}), false
	}
	return command.Decision{}, true
}

func rejectTransition(current, requested Status) command.Decision {
	return command.Reject(command.Rejection{
		Code:    RejectionCodeInvalidTransition,
		Message: fmt.Sprintf("cannot change task status from %s to %s", current, requested),
	})
}

func rejectExisting(state State) command.Decision {
	return command.Reject(command.Rejection{
		Code:    RejectionCodeTaskAlreadyExists,
		Message: fmt.Sprintf("task already exists with status %s", state.Status),
	})
}

func rejectInappropriateDescription(description string) command.Decision {
	return command.Reject(command.Rejection{
		Code:    RejectionCodeInappropriateDescription,
		Message: fmt.Sprintf("description %q needs at least %d letters or digits", description, MinDescriptionLength),
	})
}

// appropriateDescription counts letters and digits only.
func appropriateDescription(description string) bool {
	n := 0
	for _, r := range description {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
			if n >= MinDescriptionLength {
				return true
			}
		}
	}
	return false
}
