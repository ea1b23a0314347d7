package datasink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
	"github.com/todo-1m/tasklist/internal/eventlog"
)

type step struct {
	aggregateType string
	evt           event.Event
}

func history() []step {
	due := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	milk := task.Details{Description: "Buy milk"}
	return []step{
		{label.AggregateType, label.LabelCreated{LabelID: "home", Details: label.Details{Title: "Home", Color: label.ColorGray}}},
		{task.AggregateType, task.TaskCreated{TaskID: "t1", Description: "Buy milk"}},
		{task.AggregateType, task.TaskDraftCreated{TaskID: "d1"}},
		{task.AggregateType, task.LabelAssignedToTask{TaskID: "t1", LabelID: "home", Details: milk}},
		{task.AggregateType, task.LabelAssignedToTask{TaskID: "t1", LabelID: "work", Details: milk}},
		{label.AggregateType, label.LabelCreated{LabelID: "work", Details: label.Details{Title: "Work", Color: label.ColorRed}}},
		{task.AggregateType, task.TaskDueDateUpdated{TaskID: "t1", DueDate: &due}},
		{task.AggregateType, task.TaskDescriptionUpdated{TaskID: "d1", Description: "Plan trip"}},
		{task.AggregateType, task.TaskDraftFinalized{TaskID: "d1", Details: task.Details{Description: "Plan trip"}}},
		{task.AggregateType, task.TaskDeleted{TaskID: "t1"}},
		{task.AggregateType, task.DeletedTaskRestored{TaskID: "t1", Details: task.Details{Description: "Buy milk", DueDate: &due}}},
		{task.AggregateType, task.LabelledTaskRestored{TaskID: "t1", LabelID: "home", Details: task.Details{Description: "Buy milk", DueDate: &due}}},
		{label.AggregateType, label.LabelDetailsUpdated{LabelID: "home", Details: label.Details{Title: "House", Color: label.ColorBlue}}},
		{task.AggregateType, task.TaskCompleted{TaskID: "d1"}},
	}
}

func seedLog(t *testing.T, steps []step) *eventlog.Memory {
	t.Helper()
	log := eventlog.NewMemory()
	versions := map[string]uint64{}
	for i, s := range steps {
		id := s.evt.AggregateID()
		body, err := event.Encode(s.evt)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		expected := versions[s.aggregateType+id]
		if _, err := log.Append(context.Background(), expected, []eventlog.Record{{
			EventID:       fmt.Sprintf("e%d", i+1),
			AggregateType: s.aggregateType,
			AggregateID:   id,
			Version:       expected + 1,
			EventType:     string(s.evt.EventType()),
			Payload:       body,
		}}); err != nil {
			t.Fatalf("append: %v", err)
		}
		versions[s.aggregateType+id] = expected + 1
	}
	return log
}

func TestBuildMatchesIncrementalProjection(t *testing.T) {
	steps := history()
	log := seedLog(t, steps)

	snap, err := Build(context.Background(), log, nil, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Events != len(steps) || snap.LastSeq != int64(len(steps)) {
		t.Fatalf("unexpected snapshot counters: events=%d last=%d", snap.Events, snap.LastSeq)
	}

	f := newFixture()
	versions := map[string]uint64{}
	for _, s := range steps {
		key := s.aggregateType + s.evt.AggregateID()
		versions[key]++
		f.apply(t, s.aggregateType, versions[key], s.evt)
	}

	if len(snap.Views) != len(f.store.state.views) {
		t.Fatalf("view count differs: rebuilt %d, incremental %d", len(snap.Views), len(f.store.state.views))
	}
	for _, v := range snap.Views {
		got, ok := f.store.state.views[v.Key]
		if !ok {
			t.Fatalf("incremental projection lacks %s", v.Key)
		}
		if string(got) != string(v.Body) {
			t.Fatalf("%s differs\nrebuilt:     %s\nincremental: %s", v.Key, v.Body, got)
		}
	}
	for ref, version := range snap.Checkpoints {
		if f.store.state.checkpoints[ref] != version {
			t.Fatalf("checkpoint %v: rebuilt %d, incremental %d", ref, version, f.store.state.checkpoints[ref])
		}
	}
	if snap.Labels["home"].Details.Title != "House" || snap.Labels["home"].Version != 2 {
		t.Fatalf("unexpected label row: %+v", snap.Labels["home"])
	}
}

func TestBuildEmptyLog(t *testing.T) {
	snap, err := Build(context.Background(), eventlog.NewMemory(), nil, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Views) != 2 || snap.Views[0].Key != query.MyListKey() || snap.Views[1].Key != query.DraftsKey() {
		t.Fatalf("expected empty list views, got %+v", snap.Views)
	}
}

func TestBuildUnknownEventType(t *testing.T) {
	log := eventlog.NewMemory()
	if _, err := log.Append(context.Background(), 0, []eventlog.Record{{
		EventID: "e1", AggregateType: "task", AggregateID: "t1", Version: 1, EventType: "task.archived", Payload: []byte(`{}`),
	}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := Build(context.Background(), log, nil, 10); !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected ErrUnsupportedEventType, got %v", err)
	}
}

type fakeSnapshotStore struct {
	got Snapshot
	err error
}

func (f *fakeSnapshotStore) Replace(_ context.Context, snap Snapshot) error {
	f.got = snap
	return f.err
}

func TestRebuilderRunReplacesAndClearsCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := query.NewViewCache(client, time.Minute)
	ctx := context.Background()
	// A label view the rebuilt history no longer produces, and a my_list
	// body from before the rebuild.
	cache.Set(ctx, query.LabelledKey("gone"), []byte(`{"label_id":"gone","items":[]}`), 90)
	cache.Set(ctx, query.MyListKey(), []byte(`{"tasks":[]}`), 91)
	if err := mr.Set("label:home", "kept"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := &fakeSnapshotStore{}
	snap, err := NewRebuilder(seedLog(t, history()), store, cache, 3).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.got.Views) != len(snap.Views) {
		t.Fatalf("store received %d views, want %d", len(store.got.Views), len(snap.Views))
	}
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "view:") {
			t.Fatalf("cache entry %s survived the rebuild", key)
		}
	}
	if !mr.Exists("label:home") {
		t.Fatal("rebuild must leave label entries alone")
	}
}

func TestRebuilderRunCacheError(t *testing.T) {
	boom := errors.New("redis down")
	store := &fakeSnapshotStore{}
	cache := &memCache{evictErr: boom}
	snap, err := NewRebuilder(seedLog(t, history()), store, cache, 0).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected eviction error, got %v", err)
	}
	if cache.evictAll != 1 || len(store.got.Views) == 0 || snap.Events == 0 {
		t.Fatalf("views must be replaced before the cache is cleared: evictions=%d views=%d", cache.evictAll, len(store.got.Views))
	}
}

func TestRebuilderRunStoreError(t *testing.T) {
	boom := errors.New("db down")
	r := NewRebuilder(eventlog.NewMemory(), &fakeSnapshotStore{err: boom}, nil, 0)
	if _, err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
