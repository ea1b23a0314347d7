package eventlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, version uint64) Record {
	return Record{EventID: id, AggregateType: "task", AggregateID: "t1", Version: version, EventType: "task.created", Payload: []byte(`{}`)}
}

func TestMemory_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	out, err := store.Append(ctx, 0, []Record{record("e1", 1), record("e2", 2)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out[0].Seq)
	assert.Equal(t, int64(2), out[1].Seq)

	loaded, err := store.Load(ctx, "task", "t1")
	require.NoError(t, err)
	assert.Equal(t, out, loaded)

	other, err := store.Load(ctx, "label", "t1")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemory_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_, err := store.Append(ctx, 0, []Record{record("e1", 1)})
	require.NoError(t, err)

	_, err = store.Append(ctx, 0, []Record{record("e2", 1)})
	assert.ErrorIs(t, err, ErrConcurrentAppend)
}

func TestMemory_RejectsBadBatches(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Append(ctx, 0, nil)
	assert.Error(t, err)

	_, err = store.Append(ctx, 0, []Record{record("e1", 1), record("e2", 3)})
	assert.Error(t, err)

	mixed := record("e2", 2)
	mixed.AggregateID = "t2"
	_, err = store.Append(ctx, 0, []Record{record("e1", 1), mixed})
	assert.Error(t, err)
}

func TestMemory_ReadAllPages(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_, err := store.Append(ctx, 0, []Record{record("e1", 1), record("e2", 2), record("e3", 3)})
	require.NoError(t, err)

	page, err := store.ReadAll(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "e2", page[1].EventID)

	page, err = store.ReadAll(ctx, page[1].Seq, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e3", page[0].EventID)

	page, err = store.ReadAll(ctx, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}
