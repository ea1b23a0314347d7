package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMismatch(t *testing.T) {
	_, ok := DetectMismatch("priority", "HIGH", "HIGH", "LOW", 3, Equal[string])
	assert.True(t, ok)

	m, ok := DetectMismatch("priority", "HIGH", "NORMAL", "LOW", 3, Equal[string])
	require.False(t, ok)
	assert.Equal(t, ValueMismatch{Field: "priority", Expected: "HIGH", Actual: "NORMAL", NewValue: "LOW", Version: 3}, m)
}

func TestDetectMismatch_CustomEquality(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	local := at.In(time.FixedZone("X", -7200))
	equal := func(a, b time.Time) bool { return a.Equal(b) }

	_, ok := DetectMismatch("due_date", local, at, at, 1, equal)
	assert.True(t, ok)
}

func TestRejectMismatch(t *testing.T) {
	d := RejectMismatch(ValueMismatch{Field: "description", Version: 4})
	require.NotNil(t, d.Rejection)
	assert.Equal(t, RejectionCodeValueMismatch, d.Rejection.Code)
	assert.Equal(t, "VALUE_MISMATCH: description does not match the current value at version 4", d.Err().Error())
	assert.Empty(t, d.Events)
}

func TestDecisionHelpers(t *testing.T) {
	d := Accept()
	assert.False(t, d.Accepted())
	assert.NoError(t, d.Err())
	assert.Equal(t, "COMMAND_TYPE_UNSUPPORTED", Unsupported(nil).Rejection.Code)
}
