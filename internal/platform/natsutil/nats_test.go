package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestReady_NilClient(t *testing.T) {
	var c *Client
	if err := c.Ready(); err == nil {
		t.Fatal("expected error for nil client")
	}
	c.Close()
}

func TestStreamSequence_PlainMessage(t *testing.T) {
	if got := StreamSequence(nats.NewMsg("app.event.1.task.t1")); got != 0 {
		t.Fatalf("plain message should have no stream sequence, got %d", got)
	}
}
