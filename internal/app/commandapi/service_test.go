package commandapi

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/todo-1m/tasklist/internal/contracts"
	"github.com/todo-1m/tasklist/internal/domain/task"
	"github.com/todo-1m/tasklist/internal/sharding"
)

type capture struct {
	subject string
	payload []byte
	msgID   string
	calls   int
}

func (c *capture) publish(_ context.Context, subject string, payload []byte, msgID string) error {
	c.subject, c.payload, c.msgID = subject, payload, msgID
	c.calls++
	return nil
}

func newTestService(c *capture) *Service {
	svc := NewService(c.publish)
	svc.Now = func() time.Time { return time.Date(2026, 2, 9, 22, 0, 0, 0, time.UTC) }
	svc.NewID = func() string { return "cmd-1" }
	svc.NewAggregateID = func() string { return "todo-abc" }
	return svc
}

func TestAccept_CreateAssignsIDAndPublishes(t *testing.T) {
	c := &capture{}
	svc := newTestService(c)

	resp, err := svc.Accept(context.Background(), CommandRequest{
		Type:    "task.create_basic",
		Payload: json.RawMessage(`{"description":"Buy Milk"}`),
	})
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if resp.Status != "accepted" || resp.CommandID != "cmd-1" || resp.AggregateID != "todo-abc" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if want := sharding.GetSubject("task", "todo-abc"); c.subject != want {
		t.Fatalf("subject mismatch: got %q want %q", c.subject, want)
	}
	if c.msgID != "cmd-1" {
		t.Fatalf("expected command id as message id, got %q", c.msgID)
	}

	var env contracts.CommandEnvelope
	if err := json.Unmarshal(c.payload, &env); err != nil {
		t.Fatalf("payload is not valid CommandEnvelope JSON: %v", err)
	}
	if env.AggregateType != "task" || env.AggregateID != "todo-abc" || env.CommandType != "task.create_basic" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	cmd, err := task.Commands().Decode(task.CommandTypeCreateBasicTask, env.Payload)
	if err != nil {
		t.Fatalf("decode command: %v", err)
	}
	if got := cmd.(task.CreateBasicTask); got.TaskID != "todo-abc" || got.Description != "Buy Milk" {
		t.Fatalf("unexpected command: %+v", got)
	}
}

func TestAccept_LabelCreateUsesLabelIDField(t *testing.T) {
	c := &capture{}
	svc := newTestService(c)
	resp, err := svc.Accept(context.Background(), CommandRequest{
		Type:        "label.create_basic",
		AggregateID: "home",
		Payload:     json.RawMessage(`{"title":"Home"}`),
	})
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	var env contracts.CommandEnvelope
	_ = json.Unmarshal(c.payload, &env)
	var body map[string]string
	_ = json.Unmarshal(env.Payload, &body)
	if resp.AggregateID != "home" || body["label_id"] != "home" || body["title"] != "Home" {
		t.Fatalf("unexpected label command: %+v %v", resp, body)
	}
}

func TestAccept_NonCreateRequiresAggregateID(t *testing.T) {
	c := &capture{}
	_, err := newTestService(c).Accept(context.Background(), CommandRequest{Type: "task.complete"})
	if !errors.Is(err, ErrAggregateIDRequired) {
		t.Fatalf("expected ErrAggregateIDRequired, got %v", err)
	}
	if c.calls != 0 {
		t.Fatal("nothing should be published")
	}
}

func TestAccept_RejectsMalformedRequests(t *testing.T) {
	cases := []struct {
		name string
		req  CommandRequest
		want error
	}{
		{"missing type", CommandRequest{AggregateID: "t1"}, ErrCommandTypeRequired},
		{"unknown aggregate", CommandRequest{Type: "project.create", AggregateID: "p1"}, ErrUnsupportedCommand},
		{"unknown command", CommandRequest{Type: "task.archive", AggregateID: "t1"}, ErrUnsupportedCommand},
		{"no prefix", CommandRequest{Type: "complete", AggregateID: "t1"}, ErrUnsupportedCommand},
		{"subject wildcard", CommandRequest{Type: "task.complete", AggregateID: "t.>"}, ErrInvalidAggregateID},
		{"payload not object", CommandRequest{Type: "task.complete", AggregateID: "t1", Payload: json.RawMessage(`[1]`)}, ErrInvalidPayload},
		{"payload targets other task", CommandRequest{Type: "task.complete", AggregateID: "t1", Payload: json.RawMessage(`{"task_id":"t2"}`)}, ErrInvalidPayload},
		{"payload field types", CommandRequest{Type: "task.update_description", AggregateID: "t1", Payload: json.RawMessage(`{"description_change":"x"}`)}, ErrInvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestService(&capture{}).Accept(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAccept_PublishError(t *testing.T) {
	svc := NewService(func(context.Context, string, []byte, string) error { return errors.New("nats down") })
	_, err := svc.Accept(context.Background(), CommandRequest{Type: "task.create_draft"})
	if err == nil {
		t.Fatal("expected publish error")
	}
}
