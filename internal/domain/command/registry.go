package command

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a payload names an unregistered command type.
var ErrUnknownType = errors.New("unknown command type")

type decoder func(payload []byte) (Command, error)

// Registry maps command type names to payload decoders.
type Registry struct {
	decoders map[Type]decoder
}

func NewRegistry() *Registry {
	return &Registry{decoders: map[Type]decoder{}}
}

// Register adds the command type C, named by its zero value.
func Register[C Command](r *Registry) {
	var zero C
	name := zero.CommandType()
	if _, exists := r.decoders[name]; exists {
		panic("command type already registered: " + string(name))
	}
	r.decoders[name] = func(payload []byte) (Command, error) {
		var cmd C
		if len(payload) == 0 {
			return cmd, nil
		}
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return cmd, nil
	}
}

// Decode rebuilds a typed command from its type name and JSON payload.
func (r *Registry) Decode(t Type, payload []byte) (Command, error) {
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
