package task

import (
	"slices"

	"github.com/todo-1m/tasklist/internal/domain/event"
)

// Fold applies a task event to state. It never fails: events reaching it
// were accepted by Decide. Events of other aggregates leave state untouched.
func Fold(state State, evt event.Event) State {
	switch e := evt.(type) {
	case TaskCreated:
		state.ID = e.TaskID
		state.Description = e.Description
		state.CreatedAt = e.CreatedAt
		state.Status = StatusFinalized
	case TaskDraftCreated:
		state.ID = e.TaskID
		state.CreatedAt = e.CreatedAt
		state.Status = StatusDraft
	case TaskDraftFinalized:
		state.Status = StatusFinalized
	case TaskDescriptionUpdated:
		state.Description = e.Description
	case TaskDueDateUpdated:
		state.DueDate = cloneTime(e.DueDate)
	case TaskPriorityUpdated:
		state.Priority = e.Priority
	case TaskReopened:
		state.Status = StatusOpen
	case TaskDeleted:
		state.Status = StatusDeleted
	case TaskCompleted:
		state.Status = StatusCompleted
	case DeletedTaskRestored:
		state.Status = StatusOpen
	case LabelledTaskRestored:
		// Labels survive deletion; the event only re-surfaces the task in label views.
	case LabelAssignedToTask:
		if !state.HasLabel(e.LabelID) {
			state.LabelIDs = append(slices.Clip(state.LabelIDs), e.LabelID)
		}
	case LabelRemovedFromTask:
		if i := slices.Index(state.LabelIDs, e.LabelID); i >= 0 {
			state.LabelIDs = slices.Delete(slices.Clone(state.LabelIDs), i, i+1)
		}
	default:
		return state
	}
	state.Version++
	return state
}

// Replay folds events from the empty state.
func Replay(events ...event.Event) State {
	var state State
	for _, evt := range events {
		state = Fold(state, evt)
	}
	return state
}
