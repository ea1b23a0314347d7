package query

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/projection"
)

type viewSource interface {
	View(ctx context.Context, key ViewKey) ([]byte, uint64, error)
}

// Reader serves typed views, cache first. A view that was never written
// reads as its empty value.
type Reader struct {
	source viewSource
	cache  *ViewCache
}

func NewReader(source viewSource, cache *ViewCache) *Reader {
	if source == nil {
		panic("query.NewReader: source is nil")
	}
	return &Reader{source: source, cache: cache}
}

func (r *Reader) MyList(ctx context.Context) (projection.MyListView, error) {
	return load(ctx, r, MyListKey(), projection.MyListView{})
}

func (r *Reader) Drafts(ctx context.Context) (projection.DraftListView, error) {
	return load(ctx, r, DraftsKey(), projection.DraftListView{})
}

func (r *Reader) Labelled(ctx context.Context, id label.ID) (projection.LabelledTasksView, error) {
	return load(ctx, r, LabelledKey(id), projection.NewLabelledTasksView(id))
}

func load[V any](ctx context.Context, r *Reader, key ViewKey, empty V) (V, error) {
	if data, ok := r.cache.Get(ctx, key); ok {
		view := empty
		if err := json.Unmarshal(data, &view); err == nil {
			return view, nil
		}
		r.cache.Evict(ctx, key)
	}

	data, revision, err := r.source.View(ctx, key)
	if errors.Is(err, ErrViewNotFound) {
		return empty, nil
	}
	if err != nil {
		return empty, err
	}
	view := empty
	if err := json.Unmarshal(data, &view); err != nil {
		return empty, err
	}
	r.cache.Set(ctx, key, data, revision)
	return view, nil
}
