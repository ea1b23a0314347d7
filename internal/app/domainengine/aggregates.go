package domainengine

import (
	"time"

	"github.com/todo-1m/tasklist/internal/domain/command"
	"github.com/todo-1m/tasklist/internal/domain/event"
	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/domain/task"
)

// Aggregate binds one aggregate type's pure core to the engine.
type Aggregate struct {
	Type     string
	Commands *command.Registry
	Events   *event.Registry
	// Decide replays history and decides cmd against the result.
	Decide func(history []event.Event, cmd command.Command, now func() time.Time) command.Decision
}

func TaskAggregate() Aggregate {
	return Aggregate{
		Type:     task.AggregateType,
		Commands: task.Commands(),
		Events:   task.Events(),
		Decide: func(history []event.Event, cmd command.Command, now func() time.Time) command.Decision {
			return task.Decide(task.Replay(history...), cmd, now)
		},
	}
}

func LabelAggregate() Aggregate {
	return Aggregate{
		Type:     label.AggregateType,
		Commands: label.Commands(),
		Events:   label.Events(),
		Decide: func(history []event.Event, cmd command.Command, _ func() time.Time) command.Decision {
			return label.Decide(label.Replay(history...), cmd)
		},
	}
}

// DefaultAggregates returns every aggregate the engine serves, keyed by type.
func DefaultAggregates() map[string]Aggregate {
	out := map[string]Aggregate{}
	for _, agg := range []Aggregate{TaskAggregate(), LabelAggregate()} {
		out[agg.Type] = agg
	}
	return out
}
