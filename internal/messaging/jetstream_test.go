package messaging

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

type fakeStreams struct {
	existing map[string]bool
	infoErr  error
	added    []string
}

func (f *fakeStreams) StreamInfo(stream string, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if f.existing[stream] {
		return &nats.StreamInfo{}, nil
	}
	return nil, nats.ErrStreamNotFound
}

func (f *fakeStreams) AddStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.added = append(f.added, cfg.Name)
	return &nats.StreamInfo{Config: *cfg}, nil
}

func TestEnsureStreams_AddsMissing(t *testing.T) {
	js := &fakeStreams{existing: map[string]bool{CommandsStream: true}}
	if err := EnsureStreams(js); err != nil {
		t.Fatalf("EnsureStreams returned error: %v", err)
	}
	if len(js.added) != 2 || js.added[0] != EventsStream || js.added[1] != RejectionsStream {
		t.Fatalf("unexpected streams added: %v", js.added)
	}
}

func TestEnsureStreams_PropagatesInfoError(t *testing.T) {
	boom := errors.New("jetstream unavailable")
	js := &fakeStreams{infoErr: boom}
	if err := EnsureStreams(js); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if len(js.added) != 0 {
		t.Fatalf("no stream should be added: %v", js.added)
	}
}
