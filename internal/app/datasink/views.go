package datasink

import (
	"encoding/json"
	"fmt"

	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
	"github.com/todo-1m/tasklist/internal/projection"
)

// Events returns a registry of every event the sink folds.
func Events() *event.Registry {
	r := task.Events()
	r.Merge(label.Events())
	return r
}

// route lists the views evt can change. containing is asked for the label
// views that hold the event's task only when the event is a plain task
// change.
func route(evt event.Event, containing func(task.ID) ([]label.ID, error)) ([]query.ViewKey, error) {
	switch e := evt.(type) {
	case label.LabelCreated:
		return []query.ViewKey{query.LabelledKey(e.LabelID)}, nil
	case label.LabelDetailsUpdated:
		return []query.ViewKey{query.LabelledKey(e.LabelID)}, nil
	case task.LabelAssignedToTask:
		return []query.ViewKey{query.LabelledKey(e.LabelID)}, nil
	case task.LabelRemovedFromTask:
		return []query.ViewKey{query.LabelledKey(e.LabelID)}, nil
	case task.LabelledTaskRestored:
		return []query.ViewKey{query.LabelledKey(e.LabelID)}, nil
	}

	keys := []query.ViewKey{query.MyListKey(), query.DraftsKey()}
	ids, err := containing(task.ID(evt.AggregateID()))
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		keys = append(keys, query.LabelledKey(id))
	}
	return keys, nil
}

// labelRefs lists labels whose details the folders need for evt.
func labelRefs(evt event.Event) []label.ID {
	switch e := evt.(type) {
	case task.LabelAssignedToTask:
		return []label.ID{e.LabelID}
	case task.LabelledTaskRestored:
		return []label.ID{e.LabelID}
	}
	return nil
}

// foldView applies evt to the stored body of key. A nil body is the empty view.
func foldView(key query.ViewKey, body []byte, evt event.Event, labels projection.LabelLookup) ([]byte, error) {
	switch key.Kind {
	case query.KindMyList:
		return fold(body, projection.MyListView{}, func(v projection.MyListView) projection.MyListView {
			return projection.FoldMyList(v, evt)
		})
	case query.KindDrafts:
		return fold(body, projection.DraftListView{}, func(v projection.DraftListView) projection.DraftListView {
			return projection.FoldDrafts(v, evt)
		})
	case query.KindLabelled:
		return fold(body, projection.NewLabelledTasksView(label.ID(key.ID)), func(v projection.LabelledTasksView) projection.LabelledTasksView {
			return projection.FoldLabelled(v, evt, labels)
		})
	default:
		return nil, fmt.Errorf("unknown view kind %q", key.Kind)
	}
}

func fold[V any](body []byte, empty V, apply func(V) V) ([]byte, error) {
	view := empty
	if len(body) > 0 {
		if err := json.Unmarshal(body, &view); err != nil {
			return nil, fmt.Errorf("decode view: %w", err)
		}
	}
	return json.Marshal(apply(view))
}
