package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownType is returned when a payload names an unregistered event type.
var ErrUnknownType = errors.New("unknown event type")

type decoder func(payload []byte) (Event, error)

// Registry maps event type names to payload decoders.
type Registry struct {
	decoders map[Type]decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: map[Type]decoder{}}
}

// Register adds the event type E. The type name comes from E's zero value, so
// EventType must not depend on field values.
func Register[E Event](r *Registry) {
	var zero E
	name := zero.EventType()
	if _, exists := r.decoders[name]; exists {
		panic("event type already registered: " + string(name))
	}
	r.decoders[name] = func(payload []byte) (Event, error) {
		var evt E
		if err := json.Unmarshal(payload, &evt); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return evt, nil
	}
}

// Decode rebuilds a typed event from its type name and JSON payload.
func (r *Registry) Decode(t Type, payload []byte) (Event, error) {
	dec, ok := r.decoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return dec(payload)
}

// Has reports whether t is registered.
func (r *Registry) Has(t Type) bool {
	_, ok := r.decoders[t]
	return ok
}

// Types lists registered type names in sorted order.
func (r *Registry) Types() []Type {
	out := make([]Type, 0, len(r.decoders))
	for t := range r.decoders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Merge copies every decoder from other into r.
func (r *Registry) Merge(other *Registry) {
	for t, dec := range other.decoders {
		if _, exists := r.decoders[t]; exists {
			panic("event type already registered: " + string(t))
		}
		r.decoders[t] = dec
	}
}

// Encode marshals an event payload.
func Encode(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}
