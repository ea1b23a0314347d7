package domainengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/todo-1m/tasklist/internal/contracts"
	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/eventlog"
	"github.com/todo-1m/tasklist/internal/platform/metrics"
	platformotel "github.com/todo-1m/tasklist/internal/platform/otel"
	"github.com/todo-1m/tasklist/internal/sharding"
)

var ErrInvalidCommandPayload = errors.New("invalid command payload")

// ErrUnsupportedCommand prevents commands for unknown aggregates or types.
var ErrUnsupportedCommand = errors.New("unsupported command")

var ErrCorruptHistory = errors.New("stored event cannot be decoded")

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeReplayed = "replayed"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
)

type PublishFunc func(ctx context.Context, subject string, payload []byte, msgID string) error

type Service struct {
	Store      eventlog.Store
	Publish    PublishFunc
	Aggregates map[string]Aggregate
	Now        func() time.Time
	NewID      func() string
}

// Result describes what Handle did with a command.
type Result struct {
	Outcome   string
	Events    []contracts.EventEnvelope
	Rejection *contracts.RejectionEnvelope
}

func NewService(store eventlog.Store, publish PublishFunc) *Service {
	return &Service{
		Store:      store,
		Publish:    publish,
		Aggregates: DefaultAggregates(),
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      nuid.Next,
	}
}

// Handle decides one command envelope. Rejections are published and
// reported in the result, not returned as errors; errors are reserved for
// bad payloads and infrastructure failures.
func (s *Service) Handle(ctx context.Context, subject string, payload []byte) (Result, error) {
	ctx, span := platformotel.Tracer("domain-engine").Start(ctx, "domainengine.Handle")
	defer span.End()
	start := time.Now()

	res, env, err := s.handle(ctx, subject, payload)
	outcome := res.Outcome
	switch {
	case errors.Is(err, ErrInvalidCommandPayload), errors.Is(err, ErrUnsupportedCommand):
		outcome = OutcomeInvalid
	case errors.Is(err, eventlog.ErrConcurrentAppend):
		outcome = OutcomeConflict
	case err != nil:
		outcome = OutcomeFailed
	}
	metrics.CommandsTotal.WithLabelValues(env.CommandType, outcome).Inc()
	metrics.HandleSeconds.WithLabelValues("domain-engine", outcome).ObserveSince(start)

	span.SetAttributes(
		attribute.String("command.id", env.CommandID),
		attribute.String("command.type", env.CommandType),
		attribute.String("aggregate.id", env.AggregateID),
		attribute.String("command.outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (s *Service) handle(ctx context.Context, subject string, payload []byte) (Result, contracts.CommandEnvelope, error) {
	var env contracts.CommandEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Result{}, env, fmt.Errorf("%w: %v", ErrInvalidCommandPayload, err)
	}
	agg, ok := s.Aggregates[env.AggregateType]
	if !ok {
		return Result{}, env, fmt.Errorf("%w: aggregate type %q", ErrUnsupportedCommand, env.AggregateType)
	}
	cmd, err := agg.Commands.Decode(command.Type(env.CommandType), env.Payload)
	if err != nil {
		if errors.Is(err, command.ErrUnknownType) {
			return Result{}, env, fmt.Errorf("%w: %v", ErrUnsupportedCommand, err)
		}
		return Result{}, env, fmt.Errorf("%w: %v", ErrInvalidCommandPayload, err)
	}
	if cmd.AggregateID() != env.AggregateID {
		return Result{}, env, fmt.Errorf("%w: payload targets %q, envelope targets %q", ErrInvalidCommandPayload, cmd.AggregateID(), env.AggregateID)
	}

	records, err := s.Store.Load(ctx, agg.Type, env.AggregateID)
	if err != nil {
		return Result{}, env, fmt.Errorf("load %s %s: %w", agg.Type, env.AggregateID, err)
	}
	shardID := sharding.ShardFromSubject(env.AggregateID, subject)

	// A redelivered command whose events are already in the log only needs
	// its events published again.
	if applied := recordsForCommand(records, env.CommandID); len(applied) > 0 {
		envelopes, err := s.publishEvents(ctx, applied, shardID)
		return Result{Outcome: OutcomeReplayed, Events: envelopes}, env, err
	}

	history := make([]event.Event, 0, len(records))
	for _, r := range records {
		evt, err := agg.Events.Decode(event.Type(r.EventType), r.Payload)
		if err != nil {
			return Result{}, env, fmt.Errorf("%w: %s v%d: %v", ErrCorruptHistory, r.AggregateID, r.Version, err)
		}
		history = append(history, evt)
	}

	decision := agg.Decide(history, cmd, s.Now)
	if decision.Rejection != nil {
		rejection, err := s.publishRejection(ctx, env, *decision.Rejection, shardID)
		return Result{Outcome: OutcomeRejected, Rejection: rejection}, env, err
	}

	expected := uint64(len(records))
	if len(records) > 0 {
		expected = records[len(records)-1].Version
	}
	now := s.Now()
	batch := make([]eventlog.Record, 0, len(decision.Events))
	for i, evt := range decision.Events {
		data, err := event.Encode(evt)
		if err != nil {
			return Result{}, env, fmt.Errorf("encode %s: %w", evt.EventType(), err)
		}
		batch = append(batch, eventlog.Record{
			EventID:       s.NewID(),
			CommandID:     env.CommandID,
			AggregateType: agg.Type,
			AggregateID:   env.AggregateID,
			Version:       expected + uint64(i) + 1,
			EventType:     string(evt.EventType()),
			Payload:       data,
			OccurredAt:    now,
		})
	}
	if len(batch) == 0 {
		return Result{Outcome: OutcomeAccepted}, env, nil
	}

	appended, err := s.Store.Append(ctx, expected, batch)
	if err != nil {
		return Result{}, env, err
	}
	for _, r := range appended {
		metrics.EventsAppendedTotal.WithLabelValues(r.EventType).Inc()
	}

	envelopes, err := s.publishEvents(ctx, appended, shardID)
	return Result{Outcome: OutcomeAccepted, Events: envelopes}, env, err
}

func recordsForCommand(records []eventlog.Record, commandID string) []eventlog.Record {
	if commandID == "" {
		return nil
	}
	var out []eventlog.Record
	for _, r := range records {
		if r.CommandID == commandID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) publishEvents(ctx context.Context, records []eventlog.Record, shardID int) ([]contracts.EventEnvelope, error) {
	out := make([]contracts.EventEnvelope, 0, len(records))
	for _, r := range records {
		env := contracts.EventEnvelope{
			EventID:       r.EventID,
			CommandID:     r.CommandID,
			AggregateType: r.AggregateType,
			AggregateID:   r.AggregateID,
			EventType:     r.EventType,
			Version:       r.Version,
			Payload:       json.RawMessage(r.Payload),
			OccurredAt:    r.OccurredAt,
			ShardID:       shardID,
		}
		data, err := json.Marshal(env)
		if err != nil {
			return out, err
		}
		if err := s.Publish(ctx, EventSubject(env), data, env.EventID); err != nil {
			return out, fmt.Errorf("publish %s: %w", env.EventType, err)
		}
		out = append(out, env)
	}
	return out, nil
}

func (s *Service) publishRejection(ctx context.Context, cmd contracts.CommandEnvelope, rejection command.Rejection, shardID int) (*contracts.RejectionEnvelope, error) {
	env := contracts.RejectionEnvelope{
		CommandID:     cmd.CommandID,
		AggregateType: cmd.AggregateType,
		AggregateID:   cmd.AggregateID,
		CommandType:   cmd.CommandType,
		Code:          rejection.Code,
		Message:       rejection.Message,
		Mismatch:      rejection.Mismatch,
		RejectedAt:    s.Now(),
		ShardID:       shardID,
	}
	log.WithFields(log.Fields{
		"command_id":   cmd.CommandID,
		"command_type": cmd.CommandType,
		"aggregate_id": cmd.AggregateID,
		"code":         rejection.Code,
	}).Info("command rejected")

	data, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	msgID := ""
	if cmd.CommandID != "" {
		msgID = "rej-" + cmd.CommandID
	}
	if err := s.Publish(ctx, sharding.GetRejectionSubject(env.AggregateType, env.AggregateID), data, msgID); err != nil {
		return &env, fmt.Errorf("publish rejection: %w", err)
	}
	return &env, nil
}

func EventSubject(env contracts.EventEnvelope) string {
	return sharding.GetEventSubject(env.AggregateType, env.AggregateID)
}
