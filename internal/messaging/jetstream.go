// Package messaging provisions the JetStream streams the services share.
package messaging

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	CommandsStream   = "COMMANDS"
	EventsStream     = "EVENTS"
	RejectionsStream = "REJECTIONS"

	CommandSubjects   = "app.command.>"
	EventSubjects     = "app.event.>"
	RejectionSubjects = "app.rejection.>"
)

// StreamManager is the part of nats.JetStreamContext used to provision streams.
type StreamManager interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// Streams lists every stream the system requires. Rejections are kept for a
// day so callers can look up why a command was declined.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      CommandsStream,
			Subjects:  []string{CommandSubjects},
			Retention: nats.LimitsPolicy,
			Storage:   nats.FileStorage,
			Replicas:  1,
		},
		{
			Name:      EventsStream,
			Subjects:  []string{EventSubjects},
			Retention: nats.LimitsPolicy,
			Storage:   nats.FileStorage,
			Replicas:  1,
		},
		{
			Name:      RejectionsStream,
			Subjects:  []string{RejectionSubjects},
			Retention: nats.LimitsPolicy,
			Storage:   nats.FileStorage,
			Replicas:  1,
			MaxAge:    24 * time.Hour,
		},
	}
}

// EnsureStreams creates any missing stream from Streams.
func EnsureStreams(js StreamManager) error {
	for _, cfg := range Streams() {
		if _, err := js.StreamInfo(cfg.Name); err != nil {
			if !errors.Is(err, nats.ErrStreamNotFound) {
				return err
			}
			if _, addErr := js.AddStream(&cfg); addErr != nil {
				return addErr
			}
		}
	}
	return nil
}
