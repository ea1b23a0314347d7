package eventlog

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store and Reader.
type Memory struct {
	mu      sync.Mutex
	records []Record
	byKey   map[string][]int
}

func NewMemory() *Memory {
	return &Memory{byKey: map[string][]int{}}
}

func memoryKey(aggregateType, aggregateID string) string {
	return aggregateType + "\x00" + aggregateID
}

func (m *Memory) Load(_ context.Context, aggregateType, aggregateID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.byKey[memoryKey(aggregateType, aggregateID)]
	out := make([]Record, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, expectedVersion uint64, records []Record) ([]Record, error) {
	if err := validateBatch(expectedVersion, records); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(records[0].AggregateType, records[0].AggregateID)
	if current := uint64(len(m.byKey[key])); current != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, found %d", ErrConcurrentAppend, expectedVersion, current)
	}

	out := make([]Record, len(records))
	for i, r := range records {
		r.Seq = int64(len(m.records) + 1)
		m.byKey[key] = append(m.byKey[key], len(m.records))
		m.records = append(m.records, r)
		out[i] = r
	}
	return out, nil
}

func (m *Memory) ReadAll(_ context.Context, afterSeq int64, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if afterSeq < 0 {
		afterSeq = 0
	}
	if afterSeq >= int64(len(m.records)) {
		return nil, nil
	}
	end := len(m.records)
	if limit > 0 && int(afterSeq)+limit < end {
		end = int(afterSeq) + limit
	}
	return append([]Record(nil), m.records[afterSeq:end]...), nil
}
