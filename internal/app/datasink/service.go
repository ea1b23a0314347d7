package datasink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/contracts"
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
	"github.com/todo-1m/tasklist/internal/platform/metrics"
	platformotel "github.com/todo-1m/tasklist/internal/platform/otel"
	"github.com/todo-1m/tasklist/internal/projection"
)

var ErrInvalidEventPayload = errors.New("invalid event payload")
var ErrUnsupportedEventType = errors.New("unsupported event type")

// ErrOutOfOrder means an earlier event of the same aggregate has not been
// applied yet. The message should be redelivered later.
var ErrOutOfOrder = errors.New("event arrived before its predecessor")

// Tx is one projection transaction.
type Tx interface {
	// Checkpoint locks and returns the last applied version of an aggregate.
	Checkpoint(ctx context.Context, aggregateType, aggregateID string) (uint64, error)
	SaveCheckpoint(ctx context.Context, aggregateType, aggregateID string, version uint64) error
	// LockView returns the stored body, nil when the view was never written.
	LockView(ctx context.Context, key query.ViewKey) ([]byte, error)
	// SaveView stores body and returns the row's new revision. Revisions of
	// one view grow in commit order.
	SaveView(ctx context.Context, key query.ViewKey, body []byte) (uint64, error)
	// LabelledViewsContaining lists the label views that hold taskID.
	LabelledViewsContaining(ctx context.Context, taskID task.ID) ([]label.ID, error)
	UpsertLabel(ctx context.Context, id label.ID, details label.Details, version uint64) error
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

type LabelSource interface {
	Labels(ctx context.Context, ids ...label.ID) (projection.LabelSet, error)
	// Put caches details unless a later version is cached already.
	Put(ctx context.Context, id label.ID, details label.Details, version uint64)
}

// ViewCache holds view bodies keyed by revision. Set never replaces a body
// with one of a lower revision.
type ViewCache interface {
	Set(ctx context.Context, key query.ViewKey, body []byte, revision uint64)
	EvictAll(ctx context.Context) (int, error)
}

type Service struct {
	Store  Store
	Labels LabelSource
	Cache  ViewCache
	Events *event.Registry
}

// Result lists the views an event changed. Skipped is set for redelivered
// events that were already applied.
type Result struct {
	Skipped bool
	Views   []query.ViewKey
}

func NewService(store Store, labels LabelSource, cache ViewCache) *Service {
	return &Service{
		Store:  store,
		Labels: labels,
		Cache:  cache,
		Events: Events(),
	}
}

type savedView struct {
	key      query.ViewKey
	body     []byte
	revision uint64
}

func (s *Service) Handle(ctx context.Context, payload []byte, eventSeq uint64) (Result, error) {
	ctx, span := platformotel.Tracer("data-sink").Start(ctx, "datasink.Handle")
	defer span.End()

	start := time.Now()
	res, err := s.handle(ctx, payload, eventSeq)
	outcome := "applied"
	switch {
	case err != nil:
		outcome = "error"
	case res.Skipped:
		outcome = "skipped"
	}
	metrics.HandleSeconds.WithLabelValues("data-sink", outcome).ObserveSince(start)
	span.SetAttributes(
		attribute.Int64("event.seq", int64(eventSeq)),
		attribute.Bool("event.skipped", res.Skipped),
		attribute.Int("views.changed", len(res.Views)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (s *Service) handle(ctx context.Context, payload []byte, eventSeq uint64) (Result, error) {
	var env contracts.EventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidEventPayload, err)
	}
	if env.AggregateID == "" || env.Version == 0 {
		return Result{}, fmt.Errorf("%w: missing aggregate id or version", ErrInvalidEventPayload)
	}
	evt, err := s.Events.Decode(event.Type(env.EventType), env.Payload)
	if err != nil {
		if errors.Is(err, event.ErrUnknownType) {
			return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedEventType, env.EventType)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidEventPayload, err)
	}
	if evt.AggregateID() != env.AggregateID {
		return Result{}, fmt.Errorf("%w: payload targets %q, envelope targets %q", ErrInvalidEventPayload, evt.AggregateID(), env.AggregateID)
	}

	labels := s.lookupLabels(ctx, labelRefs(evt))

	var (
		skipped bool
		saved   []savedView
	)
	err = s.Store.InTx(ctx, func(tx Tx) error {
		skipped, saved = false, nil
		applied, err := tx.Checkpoint(ctx, env.AggregateType, env.AggregateID)
		if err != nil {
			return err
		}
		if env.Version <= applied {
			skipped = true
			return nil
		}
		if env.Version > applied+1 {
			return fmt.Errorf("%w: %s %s v%d, applied v%d", ErrOutOfOrder, env.AggregateType, env.AggregateID, env.Version, applied)
		}

		switch e := evt.(type) {
		case label.LabelCreated:
			if err := tx.UpsertLabel(ctx, e.LabelID, e.Details, env.Version); err != nil {
				return err
			}
		case label.LabelDetailsUpdated:
			if err := tx.UpsertLabel(ctx, e.LabelID, e.Details, env.Version); err != nil {
				return err
			}
		}

		keys, err := route(evt, func(id task.ID) ([]label.ID, error) {
			return tx.LabelledViewsContaining(ctx, id)
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			body, err := tx.LockView(ctx, key)
			if err != nil {
				return err
			}
			next, err := foldView(key, body, evt, labels)
			if err != nil {
				return fmt.Errorf("fold %s: %w", key, err)
			}
			metrics.ProjectionEventsTotal.WithLabelValues(string(key.Kind), env.EventType).Inc()
			if body != nil && bytes.Equal(body, next) {
				continue
			}
			revision, err := tx.SaveView(ctx, key, next)
			if err != nil {
				return err
			}
			saved = append(saved, savedView{key: key, body: next, revision: revision})
		}
		return tx.SaveCheckpoint(ctx, env.AggregateType, env.AggregateID, env.Version)
	})
	if err != nil {
		return Result{}, err
	}
	if skipped {
		log.WithFields(log.Fields{
			"event_id":     env.EventID,
			"aggregate_id": env.AggregateID,
			"version":      env.Version,
		}).Debug("event already applied")
		return Result{Skipped: true}, nil
	}

	res := Result{Views: make([]query.ViewKey, 0, len(saved))}
	for _, v := range saved {
		if s.Cache != nil {
			s.Cache.Set(ctx, v.key, v.body, v.revision)
		}
		res.Views = append(res.Views, v.key)
	}
	if s.Labels != nil {
		switch e := evt.(type) {
		case label.LabelCreated:
			s.Labels.Put(ctx, e.LabelID, e.Details, env.Version)
		case label.LabelDetailsUpdated:
			s.Labels.Put(ctx, e.LabelID, e.Details, env.Version)
		}
	}
	metrics.ProjectionLastSeq.Set(float64(eventSeq))
	return res, nil
}

// lookupLabels resolves details for enrichment. Missing details only delay
// enrichment until the label's own events arrive, so failures are logged.
func (s *Service) lookupLabels(ctx context.Context, ids []label.ID) projection.LabelLookup {
	if s.Labels == nil || len(ids) == 0 {
		return nil
	}
	set, err := s.Labels.Labels(ctx, ids...)
	if err != nil {
		log.WithError(err).WithField("labels", ids).Warn("label lookup failed")
		return nil
	}
	return set
}
