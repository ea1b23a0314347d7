package command

import "github.com/todo-1m/tasklist/internal/domain/event"

// Shared rejection codes. Aggregates define their own codes next to their deciders.
const (
	RejectionCodeValueMismatch          = "VALUE_MISMATCH"
	RejectionCodeCommandTypeUnsupported = "COMMAND_TYPE_UNSUPPORTED"
)

// Decision is the pure outcome of handling a command: either events to
// persist or a rejection, never both.
type Decision struct {
	Events    []event.Event
	Rejection *Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Mismatch *ValueMismatch `json:"mismatch,omitempty"`
}

func (r *Rejection) Error() string {
	return r.Code + ": " + r.Message
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision carrying the rejection.
func Reject(rejection Rejection) Decision {
	return Decision{Rejection: &rejection}
}

// Accepted reports whether the decision carries events.
func (d Decision) Accepted() bool {
	return d.Rejection == nil && len(d.Events) > 0
}

// Err returns the rejection as an error, or nil when the command was accepted.
func (d Decision) Err() error {
	if d.Rejection == nil {
		return nil
	}
	return d.Rejection
}

// Unsupported rejects a command the decider does not recognize.
func Unsupported(cmd Command) Decision {
	name := "<nil>"
	if cmd != nil {
		name = string(cmd.CommandType())
	}
	return Reject(Rejection{Code: RejectionCodeCommandTypeUnsupported, Message: "command type " + name + " is not supported"})
}
