// Package event defines the domain event contract shared by every aggregate
// and the registry used to decode persisted event payloads.
package event

// Type names a domain event on the wire and in the event log.
type Type string

// Event is a single persisted state change.
type Event interface {
	EventType() Type
	AggregateID() string
}
