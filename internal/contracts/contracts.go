// Package contracts defines the envelopes exchanged over JetStream.
package contracts

import (
	"encoding/json"
	"time"

	"github.com/todo-1m/tasklist/internal/domain/command"
)

// CommandEnvelope is published by command-api and processed by domain-engine.
type CommandEnvelope struct {
	CommandID     string          `json:"command_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	CommandType   string          `json:"command_type"`
	Payload       json.RawMessage `json:"payload"`
	IssuedAt      time.Time       `json:"issued_at"`
}

// EventEnvelope is published by domain-engine once the event is in the log,
// and consumed by data-sink.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	CommandID     string          `json:"command_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Version       uint64          `json:"version"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
	ShardID       int             `json:"shard_id"`
}

// RejectionEnvelope reports a command the aggregate declined.
type RejectionEnvelope struct {
	CommandID     string                 `json:"command_id"`
	AggregateType string                 `json:"aggregate_type"`
	AggregateID   string                 `json:"aggregate_id"`
	CommandType   string                 `json:"command_type"`
	Code          string                 `json:"code"`
	Message       string                 `json:"message"`
	Mismatch      *command.ValueMismatch `json:"mismatch,omitempty"`
	RejectedAt    time.Time              `json:"rejected_at"`
	ShardID       int                    `json:"shard_id"`
}
