// Package label is the label aggregate whose details enrich the per-label
// task index. Tasks refer to labels only by ID.
package label

import (
	"strings"

	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/event"
)

// AggregateType routes label commands and events.
const AggregateType = "label"

// ID identifies a label. IDs are opaque and never reused.
type ID string

// Color is the display color of a label.
type Color string

const (
	ColorGray  Color = "GRAY"
	ColorRed   Color = "RED"
	ColorGreen Color = "GREEN"
	ColorBlue  Color = "BLUE"
)

// DefaultColor is assigned to labels created without one.
const DefaultColor = ColorGray

// Valid reports whether c is a known color.
func (c Color) Valid() bool {
	switch c {
	case ColorGray, ColorRed, ColorGreen, ColorBlue:
		return true
	default:
		return false
	}
}

// Details are the user-facing attributes of a label.
type Details struct {
	Title string `json:"title"`
	Color Color  `json:"color"`
}

func (d Details) valid() bool {
	return strings.TrimSpace(d.Title) != "" && d.Color.Valid()
}

const (
	CommandTypeCreateBasicLabel   command.Type = "label.create_basic"
	CommandTypeUpdateLabelDetails command.Type = "label.update_details"

	EventTypeLabelCreated        event.Type = "label.created"
	EventTypeLabelDetailsUpdated event.Type = "label.details_updated"
)

// Rejection codes returned by Decide.
const (
	RejectionCodeLabelIDRequired     = "LABEL_ID_REQUIRED"
	RejectionCodeLabelAlreadyExists  = "LABEL_ALREADY_EXISTS"
	RejectionCodeLabelNotCreated     = "LABEL_NOT_CREATED"
	RejectionCodeInvalidLabelDetails = "INVALID_LABEL_DETAILS"
)

// CreateBasicLabel creates a label with a title and the default color.
type CreateBasicLabel struct {
	LabelID ID     `json:"label_id"`
	Title   string `json:"title"`
}

func (CreateBasicLabel) CommandType() command.Type { return CommandTypeCreateBasicLabel }
func (c CreateBasicLabel) AggregateID() string     { return string(c.LabelID) }

// UpdateLabelDetails replaces title and color, guarded by the declared
// previous details.
type UpdateLabelDetails struct {
	LabelID       ID      `json:"label_id"`
	PreviousValue Details `json:"previous_value"`
	NewValue      Details `json:"new_value"`
}

func (UpdateLabelDetails) CommandType() command.Type { return CommandTypeUpdateLabelDetails }
func (c UpdateLabelDetails) AggregateID() string     { return string(c.LabelID) }

type LabelCreated struct {
	LabelID ID      `json:"label_id"`
	Details Details `json:"details"`
}

func (LabelCreated) EventType() event.Type  { return EventTypeLabelCreated }
func (e LabelCreated) AggregateID() string { return string(e.LabelID) }

type LabelDetailsUpdated struct {
	LabelID ID      `json:"label_id"`
	Details Details `json:"details"`
}

func (LabelDetailsUpdated) EventType() event.Type  { return EventTypeLabelDetailsUpdated }
func (e LabelDetailsUpdated) AggregateID() string { return string(e.LabelID) }

// State is the replayed label.
type State struct {
	ID      ID
	Details Details
	Created bool
	Version uint64
}

// Decide validates a label command against state.
func Decide(state State, cmd command.Command) command.Decision {
	switch c := cmd.(type) {
	case CreateBasicLabel:
		if strings.TrimSpace(string(c.LabelID)) == "" {
			return command.Reject(command.Rejection{Code: RejectionCodeLabelIDRequired, Message: "label id is required"})
		}
		if state.Created {
			return command.Reject(command.Rejection{Code: RejectionCodeLabelAlreadyExists, Message: "label already exists"})
		}
		details := Details{Title: strings.TrimSpace(c.Title), Color: DefaultColor}
		if !details.valid() {
			return command.Reject(command.Rejection{Code: RejectionCodeInvalidLabelDetails, Message: "label title is required"})
		}
		return command.Accept(LabelCreated{LabelID: c.LabelID, Details: details})
	case UpdateLabelDetails:
		if !state.Created {
			return command.Reject(command.Rejection{Code: RejectionCodeLabelNotCreated, Message: "label not created"})
		}
		next := Details{Title: strings.TrimSpace(c.NewValue.Title), Color: c.NewValue.Color}
		if !next.valid() {
			return command.Reject(command.Rejection{Code: RejectionCodeInvalidLabelDetails, Message: "label title and a known color are required"})
		}
		if m, ok := command.DetectMismatch("label_details", c.PreviousValue, state.Details, next, state.Version, command.Equal[Details]); !ok {
			return command.RejectMismatch(m)
		}
		return command.Accept(LabelDetailsUpdated{LabelID: state.ID, Details: next})
	default:
		return command.Unsupported(cmd)
	}
}

// Fold applies a label event to state. Events of other aggregates leave
// state untouched.
func Fold(state State, evt event.Event) State {
	switch e := evt.(type) {
	case LabelCreated:
		state.ID = e.LabelID
		state.Details = e.Details
		state.Created = true
	case LabelDetailsUpdated:
		state.Details = e.Details
	default:
		return state
	}
	state.Version++
	return state
}

// Replay folds events from the empty state.
func Replay(events ...event.Event) State {
	var state State
	for _, evt := range events {
		state = Fold(state, evt)
	}
	return state
}

// Commands returns a registry of label command decoders.
func Commands() *command.Registry {
	r := command.NewRegistry()
	command.Register[CreateBasicLabel](r)
	command.Register[UpdateLabelDetails](r)
	return r
}

// Events returns a registry of label event decoders.
func Events() *event.Registry {
	r := event.NewRegistry()
	event.Register[LabelCreated](r)
	event.Register[LabelDetailsUpdated](r)
	return r
}
