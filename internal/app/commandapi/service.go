package commandapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nuid"

	"github.com/todo-1m/tasklist/internal/contracts"
	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
	"github.com/todo-1m/tasklist/internal/sharding"
)

var ErrCommandTypeRequired = errors.New("type is required")
var ErrUnsupportedCommand = errors.New("unsupported command type")
var ErrAggregateIDRequired = errors.New("aggregate_id is required")
var ErrInvalidAggregateID = errors.New("aggregate_id cannot be used as a subject token")
var ErrInvalidPayload = errors.New("invalid command payload")

type PublishFunc func(ctx context.Context, subject string, payload []byte, msgID string) error

// AggregateCommands describes the commands of one aggregate type.
type AggregateCommands struct {
	Registry *command.Registry
	// IDField is the payload field naming the target aggregate.
	IDField string
	// Creates lists commands that may omit the id; one is assigned.
	Creates map[command.Type]bool
}

type Service struct {
	Publish        PublishFunc
	Aggregates     map[string]AggregateCommands
	Now            func() time.Time
	NewID          func() string
	NewAggregateID func() string
}

type CommandRequest struct {
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
}

type CommandResponse struct {
	Status      string `json:"status"`
	CommandID   string `json:"command_id"`
	AggregateID string `json:"aggregate_id"`
}

func DefaultAggregates() map[string]AggregateCommands {
	return map[string]AggregateCommands{
		task.AggregateType: {
			Registry: task.Commands(),
			IDField:  "task_id",
			Creates: map[command.Type]bool{
				task.CommandTypeCreateBasicTask: true,
				task.CommandTypeCreateDraft:     true,
			},
		},
		label.AggregateType: {
			Registry: label.Commands(),
			IDField:  "label_id",
			Creates: map[command.Type]bool{
				label.CommandTypeCreateBasicLabel: true,
			},
		},
	}
}

func NewService(publish PublishFunc) *Service {
	return &Service{
		Publish:        publish,
		Aggregates:     DefaultAggregates(),
		Now:            func() time.Time { return time.Now().UTC() },
		NewID:          nuid.Next,
		NewAggregateID: uuid.NewString,
	}
}

// aggregateTypeOf reads the aggregate prefix of a command type such as
// "task.complete".
func aggregateTypeOf(commandType string) string {
	prefix, _, ok := strings.Cut(commandType, ".")
	if !ok {
		return ""
	}
	return prefix
}

// Accept validates the request shape and publishes it for the domain
// engine. Business rules are checked there, not here.
func (s *Service) Accept(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	commandType := strings.TrimSpace(req.Type)
	if commandType == "" {
		return CommandResponse{}, ErrCommandTypeRequired
	}
	aggregateType := aggregateTypeOf(commandType)
	agg, ok := s.Aggregates[aggregateType]
	if !ok || !agg.Registry.Has(command.Type(commandType)) {
		return CommandResponse{}, fmt.Errorf("%w: %s", ErrUnsupportedCommand, commandType)
	}

	aggregateID := strings.TrimSpace(req.AggregateID)
	if aggregateID == "" {
		if !agg.Creates[command.Type(commandType)] {
			return CommandResponse{}, ErrAggregateIDRequired
		}
		aggregateID = s.NewAggregateID()
	}
	if !sharding.ValidToken(aggregateID) {
		return CommandResponse{}, ErrInvalidAggregateID
	}

	payload, err := withAggregateID(req.Payload, agg.IDField, aggregateID)
	if err != nil {
		return CommandResponse{}, err
	}
	if _, err := agg.Registry.Decode(command.Type(commandType), payload); err != nil {
		return CommandResponse{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	env := contracts.CommandEnvelope{
		CommandID:     s.NewID(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		CommandType:   commandType,
		Payload:       payload,
		IssuedAt:      s.Now(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return CommandResponse{}, err
	}

	subject := sharding.GetSubject(aggregateType, aggregateID)
	if err := s.Publish(ctx, subject, data, env.CommandID); err != nil {
		return CommandResponse{}, err
	}

	return CommandResponse{
		Status:      "accepted",
		CommandID:   env.CommandID,
		AggregateID: aggregateID,
	}, nil
}

// withAggregateID sets field to id in the JSON object payload. A payload
// naming a different aggregate is rejected.
func withAggregateID(payload json.RawMessage, field, id string) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if trimmed := strings.TrimSpace(string(payload)); trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("%w: payload must be a JSON object", ErrInvalidPayload)
		}
	}
	if raw, ok := fields[field]; ok {
		var current string
		if err := json.Unmarshal(raw, &current); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidPayload, field)
		}
		if current != "" && current != id {
			return nil, fmt.Errorf("%w: %s %q does not match aggregate_id %q", ErrInvalidPayload, field, current, id)
		}
	}
	encoded, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	fields[field] = encoded
	return json.Marshal(fields)
}
