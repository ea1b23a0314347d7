package projection

import (
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

// MyListView is the personal task list. Drafts stay in their own bucket
// until finalized; deleted tasks leave the list until restored.
type MyListView struct {
	Tasks  []Item `json:"tasks"`
	Drafts []Item `json:"drafts"`
}

// FoldMyList applies evt to the personal list.
func FoldMyList(view MyListView, evt event.Event) MyListView {
	switch e := evt.(type) {
	case task.TaskCreated:
		view.Tasks = Upsert(view.Tasks, Item{ID: e.TaskID, Description: e.Description}, ByTaskID(e.TaskID))
	case task.TaskDraftCreated:
		view.Drafts = Upsert(view.Drafts, Item{ID: e.TaskID}, ByTaskID(e.TaskID))
	case task.TaskDraftFinalized:
		view.Drafts = RemoveAll(view.Drafts, ByTaskID(e.TaskID))
		view.Tasks = Upsert(view.Tasks, itemFromDetails(e.TaskID, e.Details), ByTaskID(e.TaskID))
	case task.TaskDeleted:
		view.Tasks = RemoveAll(view.Tasks, ByTaskID(e.TaskID))
		view.Drafts = RemoveAll(view.Drafts, ByTaskID(e.TaskID))
	case task.DeletedTaskRestored:
		view.Tasks = Upsert(view.Tasks, itemFromDetails(e.TaskID, e.Details), ByTaskID(e.TaskID))
	default:
		view.Tasks, _ = applyTaskFields(view.Tasks, evt)
		view.Drafts, _ = applyTaskFields(view.Drafts, evt)
	}
	return view
}

// RebuildMyList folds events from the empty view.
func RebuildMyList(events ...event.Event) MyListView {
	var view MyListView
	for _, evt := range events {
		view = FoldMyList(view, evt)
	}
	return view
}
