package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todo-1m/tasklist/internal/domain/command"
)

func TestDecide_CreateBasicLabel(t *testing.T) {
	d := Decide(State{}, CreateBasicLabel{LabelID: "home", Title: "  Home "})
	require.True(t, d.Accepted())
	assert.Equal(t, LabelCreated{LabelID: "home", Details: Details{Title: "Home", Color: ColorGray}}, d.Events[0])

	state := Replay(d.Events...)
	assert.True(t, state.Created)
	assert.Equal(t, uint64(1), state.Version)

	d = Decide(state, CreateBasicLabel{LabelID: "home", Title: "Home"})
	require.NotNil(t, d.Rejection)
	assert.Equal(t, RejectionCodeLabelAlreadyExists, d.Rejection.Code)
}

func TestDecide_CreateValidation(t *testing.T) {
	d := Decide(State{}, CreateBasicLabel{Title: "Home"})
	require.NotNil(t, d.Rejection)
	assert.Equal(t, RejectionCodeLabelIDRequired, d.Rejection.Code)

	d = Decide(State{}, CreateBasicLabel{LabelID: "home", Title: "   "})
	require.NotNil(t, d.Rejection)
	assert.Equal(t, RejectionCodeInvalidLabelDetails, d.Rejection.Code)
}

func TestDecide_UpdateLabelDetails(t *testing.T) {
	state := Replay(LabelCreated{LabelID: "home", Details: Details{Title: "Home", Color: ColorGray}})

	d := Decide(state, UpdateLabelDetails{
		LabelID:       "home",
		PreviousValue: Details{Title: "Home", Color: ColorGray},
		NewValue:      Details{Title: "House", Color: ColorBlue},
	})
	require.True(t, d.Accepted())
	state = Fold(state, d.Events[0])
	assert.Equal(t, Details{Title: "House", Color: ColorBlue}, state.Details)

	d = Decide(state, UpdateLabelDetails{
		LabelID:       "home",
		PreviousValue: Details{Title: "Home", Color: ColorGray},
		NewValue:      Details{Title: "Flat", Color: ColorRed},
	})
	require.NotNil(t, d.Rejection)
	assert.Equal(t, command.RejectionCodeValueMismatch, d.Rejection.Code)
	assert.Equal(t, uint64(2), d.Rejection.Mismatch.Version)
	assert.Equal(t, Details{Title: "House", Color: ColorBlue}, d.Rejection.Mismatch.Actual)

	d = Decide(state, UpdateLabelDetails{LabelID: "home", PreviousValue: state.Details, NewValue: Details{Title: "House", Color: "PURPLE"}})
	require.NotNil(t, d.Rejection)
	assert.Equal(t, RejectionCodeInvalidLabelDetails, d.Rejection.Code)
}

func TestDecide_UpdateMissingLabel(t *testing.T) {
	d := Decide(State{}, UpdateLabelDetails{LabelID: "home", NewValue: Details{Title: "Home", Color: ColorRed}})
	require.NotNil(t, d.Rejection)
	assert.Equal(t, RejectionCodeLabelNotCreated, d.Rejection.Code)
}
