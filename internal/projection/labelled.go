package projection

import (
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

// LabelLookup resolves label details used to enrich the label index.
type LabelLookup interface {
	LookupLabel(id label.ID) (label.Details, bool)
}

// LabelSet is an in-memory LabelLookup, usually prefetched for one event.
type LabelSet map[label.ID]label.Details

func (s LabelSet) LookupLabel(id label.ID) (label.Details, bool) {
	d, ok := s[id]
	return d, ok
}

// LabelledTasksView indexes the tasks carrying one label.
type LabelledTasksView struct {
	LabelID label.ID    `json:"label_id"`
	Title   string      `json:"title"`
	Color   label.Color `json:"color"`
	Items   []Item      `json:"items"`
}

// NewLabelledTasksView returns the empty view for id.
func NewLabelledTasksView(id label.ID) LabelledTasksView {
	return LabelledTasksView{LabelID: id}
}

// FoldLabelled applies evt to the view for view.LabelID. Events about other
// labels are ignored. labels may be nil when no enrichment is available.
func FoldLabelled(view LabelledTasksView, evt event.Event, labels LabelLookup) LabelledTasksView {
	switch e := evt.(type) {
	case task.LabelAssignedToTask:
		if e.LabelID != view.LabelID {
			return view
		}
		view = enrich(view, labels)
		view.Items = Upsert(view.Items, view.labelledItem(e.TaskID, e.Details), ByTaskID(e.TaskID))
	case task.LabelledTaskRestored:
		if e.LabelID != view.LabelID {
			return view
		}
		view = enrich(view, labels)
		view.Items = Upsert(view.Items, view.labelledItem(e.TaskID, e.Details), ByTaskID(e.TaskID))
	case task.LabelRemovedFromTask:
		if e.LabelID != view.LabelID {
			return view
		}
		view.Items = RemoveFirst(view.Items, ByTaskID(e.TaskID))
	case task.TaskDeleted:
		view.Items = RemoveAll(view.Items, ByTaskID(e.TaskID))
	case label.LabelCreated:
		if e.LabelID == view.LabelID {
			view = view.withDetails(e.Details)
		}
	case label.LabelDetailsUpdated:
		if e.LabelID == view.LabelID {
			view = view.withDetails(e.Details)
		}
	default:
		view.Items, _ = applyTaskFields(view.Items, evt)
	}
	return view
}

// RebuildLabelled folds events from the empty view for id.
func RebuildLabelled(id label.ID, labels LabelLookup, events ...event.Event) LabelledTasksView {
	view := NewLabelledTasksView(id)
	for _, evt := range events {
		view = FoldLabelled(view, evt, labels)
	}
	return view
}

func enrich(view LabelledTasksView, labels LabelLookup) LabelledTasksView {
	if view.Title != "" || labels == nil {
		return view
	}
	if d, ok := labels.LookupLabel(view.LabelID); ok {
		return view.withDetails(d)
	}
	return view
}

func (v LabelledTasksView) withDetails(d label.Details) LabelledTasksView {
	v.Title = d.Title
	v.Color = d.Color
	v.Items = UpdateAll(v.Items, func(Item) bool { return true }, func(it *Item) {
		it.LabelTitle = d.Title
		it.LabelColor = d.Color
	})
	return v
}

func (v LabelledTasksView) labelledItem(id task.ID, d task.Details) Item {
	item := itemFromDetails(id, d)
	item.LabelID = v.LabelID
	item.LabelTitle = v.Title
	item.LabelColor = v.Color
	return item
}
