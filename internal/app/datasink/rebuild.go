package datasink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/eventlog"
	"github.com/todo-1m/tasklist/internal/projection"
)

const defaultPageSize = 500

// AggregateRef names one aggregate in the checkpoint table.
type AggregateRef struct {
	Type string
	ID   string
}

// LabelRow is a label's latest details and the version that set them.
type LabelRow struct {
	Details label.Details
	Version uint64
}

// View is a stored view body.
type View struct {
	Key  query.ViewKey
	Body []byte
}

// Snapshot is the complete projection state derived from the log.
type Snapshot struct {
	Views       []View
	Checkpoints map[AggregateRef]uint64
	Labels      map[label.ID]LabelRow
	LastSeq     int64
	Events      int
}

type SnapshotStore interface {
	Replace(ctx context.Context, snap Snapshot) error
}

// Rebuilder discards the stored views and folds them again from the log.
type Rebuilder struct {
	Log      eventlog.Reader
	Store    SnapshotStore
	Cache    ViewCache
	Events   *event.Registry
	PageSize int
}

func NewRebuilder(reader eventlog.Reader, store SnapshotStore, cache ViewCache, pageSize int) *Rebuilder {
	return &Rebuilder{Log: reader, Store: store, Cache: cache, Events: Events(), PageSize: pageSize}
}

func (r *Rebuilder) Run(ctx context.Context) (Snapshot, error) {
	snap, err := Build(ctx, r.Log, r.Events, r.PageSize)
	if err != nil {
		return Snapshot{}, err
	}
	if err := r.Store.Replace(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("replace views: %w", err)
	}
	evicted := 0
	if r.Cache != nil {
		// Cached bodies predate the rebuild and may belong to views it no
		// longer produces. Readers refill from the new rows.
		if evicted, err = r.Cache.EvictAll(ctx); err != nil {
			return snap, fmt.Errorf("views replaced, cache eviction failed: %w", err)
		}
	}
	log.WithFields(log.Fields{
		"events":        snap.Events,
		"views":         len(snap.Views),
		"last_seq":      snap.LastSeq,
		"cache_evicted": evicted,
	}).Info("views rebuilt")
	return snap, nil
}

// Build folds the whole log, in global order, into fresh views.
func Build(ctx context.Context, reader eventlog.Reader, registry *event.Registry, pageSize int) (Snapshot, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if registry == nil {
		registry = Events()
	}

	var (
		myList   projection.MyListView
		drafts   projection.DraftListView
		labelled = map[label.ID]projection.LabelledTasksView{}
		labels   = projection.LabelSet{}
	)
	snap := Snapshot{
		Checkpoints: map[AggregateRef]uint64{},
		Labels:      map[label.ID]LabelRow{},
	}

	for {
		page, err := reader.ReadAll(ctx, snap.LastSeq, pageSize)
		if err != nil {
			return Snapshot{}, fmt.Errorf("read log after %d: %w", snap.LastSeq, err)
		}
		for _, rec := range page {
			evt, err := registry.Decode(event.Type(rec.EventType), rec.Payload)
			if err != nil {
				if errors.Is(err, event.ErrUnknownType) {
					return Snapshot{}, fmt.Errorf("%w: %s at seq %d", ErrUnsupportedEventType, rec.EventType, rec.Seq)
				}
				return Snapshot{}, fmt.Errorf("decode seq %d: %w", rec.Seq, err)
			}

			switch e := evt.(type) {
			case label.LabelCreated:
				labels[e.LabelID] = e.Details
				snap.Labels[e.LabelID] = LabelRow{Details: e.Details, Version: rec.Version}
				ensureLabelled(labelled, e.LabelID)
			case label.LabelDetailsUpdated:
				labels[e.LabelID] = e.Details
				snap.Labels[e.LabelID] = LabelRow{Details: e.Details, Version: rec.Version}
				ensureLabelled(labelled, e.LabelID)
			default:
				for _, id := range labelRefs(evt) {
					ensureLabelled(labelled, id)
				}
				myList = projection.FoldMyList(myList, evt)
				drafts = projection.FoldDrafts(drafts, evt)
			}
			for id, view := range labelled {
				labelled[id] = projection.FoldLabelled(view, evt, labels)
			}

			snap.Checkpoints[AggregateRef{Type: rec.AggregateType, ID: rec.AggregateID}] = rec.Version
			snap.LastSeq = rec.Seq
			snap.Events++
		}
		if len(page) < pageSize {
			break
		}
	}

	views, err := encodeViews(myList, drafts, labelled)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Views = views
	return snap, nil
}

func ensureLabelled(views map[label.ID]projection.LabelledTasksView, id label.ID) {
	if _, ok := views[id]; !ok {
		views[id] = projection.NewLabelledTasksView(id)
	}
}

func encodeViews(myList projection.MyListView, drafts projection.DraftListView, labelled map[label.ID]projection.LabelledTasksView) ([]View, error) {
	ids := make([]label.ID, 0, len(labelled))
	for id := range labelled {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]View, 0, 2+len(ids))
	add := func(key query.ViewKey, v any) error {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		out = append(out, View{Key: key, Body: body})
		return nil
	}
	if err := add(query.MyListKey(), myList); err != nil {
		return nil, err
	}
	if err := add(query.DraftsKey(), drafts); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := add(query.LabelledKey(id), labelled[id]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
