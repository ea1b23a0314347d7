// Package command holds the command contract, the decision type returned by
// every aggregate decider, and the per-field optimistic concurrency check.
package command

// Type names a command on the wire.
type Type string

// Command is a request to change a single aggregate.
type Command interface {
	CommandType() Type
	AggregateID() string
}
