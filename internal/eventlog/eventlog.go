// Package eventlog is the append-only store of domain events. Every
// aggregate's events are numbered 1..n; appends carry the version the
// caller decided against and fail when another writer got there first.
package eventlog

import (
	"context"
	"errors"
	"time"
)

// ErrConcurrentAppend means the aggregate moved past the expected version.
var ErrConcurrentAppend = errors.New("concurrent append to aggregate")

// Record is one persisted event.
type Record struct {
	// Seq is the global position assigned by the store on append.
	Seq           int64
	EventID       string
	CommandID     string
	AggregateType string
	AggregateID   string
	Version       uint64
	EventType     string
	Payload       []byte
	OccurredAt    time.Time
}

// Store loads and appends aggregate histories.
type Store interface {
	Load(ctx context.Context, aggregateType, aggregateID string) ([]Record, error)
	// Append writes records, whose versions must continue expectedVersion,
	// and returns them with Seq set.
	Append(ctx context.Context, expectedVersion uint64, records []Record) ([]Record, error)
}

// Reader pages through the whole log in global order.
type Reader interface {
	ReadAll(ctx context.Context, afterSeq int64, limit int) ([]Record, error)
}

func validateBatch(expectedVersion uint64, records []Record) error {
	if len(records) == 0 {
		return errors.New("append requires at least one record")
	}
	first := records[0]
	for i, r := range records {
		if r.AggregateType != first.AggregateType || r.AggregateID != first.AggregateID {
			return errors.New("append batch spans several aggregates")
		}
		if r.Version != expectedVersion+uint64(i)+1 {
			return errors.New("append batch versions are not contiguous")
		}
	}
	return nil
}
