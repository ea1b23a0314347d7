package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

func TestFoldMyList_TaskLifecycle(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	view := RebuildMyList(
		task.TaskCreated{TaskID: "t1", Description: "Buy milk"},
		task.TaskCreated{TaskID: "t2", Description: "Call mom"},
		task.TaskPriorityUpdated{TaskID: "t1", Priority: task.PriorityHigh},
		task.TaskDueDateUpdated{TaskID: "t1", DueDate: &due},
		task.TaskCompleted{TaskID: "t2"},
	)

	require.Len(t, view.Tasks, 2)
	assert.Equal(t, task.PriorityHigh, view.Tasks[0].Priority)
	assert.Equal(t, &due, view.Tasks[0].DueDate)
	assert.True(t, view.Tasks[1].Completed)

	view = FoldMyList(view, task.TaskReopened{TaskID: "t2"})
	assert.False(t, view.Tasks[1].Completed)

	view = FoldMyList(view, task.TaskDeleted{TaskID: "t1"})
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, task.ID("t2"), view.Tasks[0].ID)

	view = FoldMyList(view, task.DeletedTaskRestored{TaskID: "t1", Details: task.Details{Description: "Buy milk", Priority: task.PriorityHigh}})
	require.Len(t, view.Tasks, 2)
	assert.Equal(t, "Buy milk", view.Tasks[1].Description)
}

func TestFoldMyList_Drafts(t *testing.T) {
	view := RebuildMyList(
		task.TaskDraftCreated{TaskID: "d1"},
		task.TaskDescriptionUpdated{TaskID: "d1", Description: "Plan trip"},
	)
	assert.Empty(t, view.Tasks)
	require.Len(t, view.Drafts, 1)
	assert.Equal(t, "Plan trip", view.Drafts[0].Description)

	view = FoldMyList(view, task.TaskDraftFinalized{TaskID: "d1", Details: task.Details{Description: "Plan trip"}})
	assert.Empty(t, view.Drafts)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "Plan trip", view.Tasks[0].Description)
}

func TestFoldMyList_IdempotentRedelivery(t *testing.T) {
	events := []event.Event{
		task.TaskCreated{TaskID: "t1", Description: "Buy milk"},
		task.TaskCompleted{TaskID: "t1"},
		task.DeletedTaskRestored{TaskID: "t1", Details: task.Details{Description: "Buy milk"}},
	}
	once := RebuildMyList(events...)
	twice := once
	for _, evt := range events {
		twice = FoldMyList(twice, evt)
	}
	assert.Len(t, twice.Tasks, 1)
}

func TestFoldMyList_UnknownTaskIsNoop(t *testing.T) {
	view := RebuildMyList(task.TaskCreated{TaskID: "t1", Description: "Buy milk"})
	next := FoldMyList(view, task.TaskCompleted{TaskID: "missing"})
	next = FoldMyList(next, task.TaskDeleted{TaskID: "missing"})
	assert.Equal(t, view, next)
}

func TestFoldDrafts(t *testing.T) {
	view := RebuildDrafts(
		task.TaskCreated{TaskID: "t1", Description: "Not a draft"},
		task.TaskDraftCreated{TaskID: "d1"},
		task.TaskDraftCreated{TaskID: "d2"},
		task.TaskPriorityUpdated{TaskID: "d2", Priority: task.PriorityLow},
		task.TaskDraftFinalized{TaskID: "d1"},
	)
	require.Len(t, view.Items, 1)
	assert.Equal(t, Item{ID: "d2", Priority: task.PriorityLow}, view.Items[0])

	view = FoldDrafts(view, task.TaskDraftCreated{TaskID: "d2"})
	assert.Len(t, view.Items, 1, "re-delivered creation keeps one entry")
}
