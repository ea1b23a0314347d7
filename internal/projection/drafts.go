package projection

import (
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

// DraftListView lists tasks that are still drafts.
type DraftListView struct {
	Items []Item `json:"items"`
}

// FoldDrafts applies evt to the draft list.
func FoldDrafts(view DraftListView, evt event.Event) DraftListView {
	switch e := evt.(type) {
	case task.TaskDraftCreated:
		view.Items = Upsert(view.Items, Item{ID: e.TaskID}, ByTaskID(e.TaskID))
	case task.TaskDraftFinalized:
		view.Items = RemoveAll(view.Items, ByTaskID(e.TaskID))
	case task.TaskDeleted:
		view.Items = RemoveAll(view.Items, ByTaskID(e.TaskID))
	default:
		view.Items, _ = applyTaskFields(view.Items, evt)
	}
	return view
}

// RebuildDrafts folds events from the empty view.
func RebuildDrafts(events ...event.Event) DraftListView {
	var view DraftListView
	for _, evt := range events {
		view = FoldDrafts(view, evt)
	}
	return view
}
