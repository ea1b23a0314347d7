package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

var labels = LabelSet{
	"home": {Title: "Home", Color: label.ColorGreen},
	"work": {Title: "Work", Color: label.ColorBlue},
}

func TestFoldLabelled_AssignAndRemove(t *testing.T) {
	view := RebuildLabelled("home", labels,
		task.LabelAssignedToTask{TaskID: "t1", LabelID: "home", Details: task.Details{Description: "Buy milk"}},
		task.LabelAssignedToTask{TaskID: "t2", LabelID: "work", Details: task.Details{Description: "Report"}},
		task.LabelAssignedToTask{TaskID: "t3", LabelID: "home", Details: task.Details{Description: "Fix sink", Priority: task.PriorityHigh}},
	)

	assert.Equal(t, "Home", view.Title)
	assert.Equal(t, label.ColorGreen, view.Color)
	require.Len(t, view.Items, 2)
	assert.Equal(t, Item{ID: "t1", Description: "Buy milk", LabelID: "home", LabelTitle: "Home", LabelColor: label.ColorGreen}, view.Items[0])

	view = FoldLabelled(view, task.LabelRemovedFromTask{TaskID: "t1", LabelID: "work"}, labels)
	assert.Len(t, view.Items, 2, "removal for another label is ignored")

	view = FoldLabelled(view, task.LabelRemovedFromTask{TaskID: "t1", LabelID: "home"}, labels)
	require.Len(t, view.Items, 1)
	assert.Equal(t, task.ID("t3"), view.Items[0].ID)
}

func TestFoldLabelled_DeleteAndRestore(t *testing.T) {
	details := task.Details{Description: "Buy milk"}
	view := RebuildLabelled("home", labels,
		task.LabelAssignedToTask{TaskID: "t1", LabelID: "home", Details: details},
		task.TaskCompleted{TaskID: "t1"},
	)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].Completed)

	view = FoldLabelled(view, task.TaskDeleted{TaskID: "t1"}, labels)
	assert.Empty(t, view.Items)

	view = FoldLabelled(view, task.DeletedTaskRestored{TaskID: "t1", Details: details}, labels)
	assert.Empty(t, view.Items, "only the labelled restore event re-adds the task")

	view = FoldLabelled(view, task.LabelledTaskRestored{TaskID: "t1", LabelID: "home", Details: details}, labels)
	require.Len(t, view.Items, 1)
	assert.False(t, view.Items[0].Completed)
	assert.Equal(t, "Home", view.Items[0].LabelTitle)

	view = FoldLabelled(view, task.LabelledTaskRestored{TaskID: "t1", LabelID: "home", Details: details}, labels)
	assert.Len(t, view.Items, 1)
}

func TestFoldLabelled_LabelDetailsUpdated(t *testing.T) {
	view := RebuildLabelled("home", labels,
		task.LabelAssignedToTask{TaskID: "t1", LabelID: "home"},
		task.LabelAssignedToTask{TaskID: "t2", LabelID: "home"},
	)

	view = FoldLabelled(view, label.LabelDetailsUpdated{LabelID: "work", Details: label.Details{Title: "Job", Color: label.ColorRed}}, labels)
	assert.Equal(t, "Home", view.Title)

	view = FoldLabelled(view, label.LabelDetailsUpdated{LabelID: "home", Details: label.Details{Title: "House", Color: label.ColorRed}}, labels)
	assert.Equal(t, "House", view.Title)
	for _, item := range view.Items {
		assert.Equal(t, "House", item.LabelTitle)
		assert.Equal(t, label.ColorRed, item.LabelColor)
	}
}

func TestFoldLabelled_WithoutLookup(t *testing.T) {
	view := RebuildLabelled("home", nil, task.LabelAssignedToTask{TaskID: "t1", LabelID: "home"})
	require.Len(t, view.Items, 1)
	assert.Empty(t, view.Items[0].LabelTitle)

	view = FoldLabelled(view, label.LabelCreated{LabelID: "home", Details: label.Details{Title: "Home", Color: label.ColorGray}}, nil)
	assert.Equal(t, "Home", view.Items[0].LabelTitle)
}
