package redisclient

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/todo-1m/tasklist/internal/platform/env"
)

func TestNew(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := New(context.Background(), env.Redis{URL: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestNewInvalidURL(t *testing.T) {
	if _, err := New(context.Background(), env.Redis{URL: "not-a-url"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func newVersionedClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSetIfNewerRefusesOlderRevisions(t *testing.T) {
	client, mr := newVersionedClient(t)
	ctx := context.Background()

	cases := []struct {
		revision uint64
		value    string
		written  bool
		stored   string
	}{
		{revision: 2, value: "two", written: true, stored: "two"},
		{revision: 1, value: "one", written: false, stored: "two"},
		{revision: 2, value: "again", written: false, stored: "two"},
		{revision: 7, value: "seven", written: true, stored: "seven"},
	}
	for _, tc := range cases {
		written, err := SetIfNewer(ctx, client, "k", tc.revision, []byte(tc.value), time.Minute)
		if err != nil {
			t.Fatalf("SetIfNewer rev %d: %v", tc.revision, err)
		}
		if written != tc.written {
			t.Fatalf("rev %d: written=%v, want %v", tc.revision, written, tc.written)
		}
		value, revision, err := GetVersioned(ctx, client, "k")
		if err != nil {
			t.Fatalf("GetVersioned: %v", err)
		}
		if string(value) != tc.stored {
			t.Fatalf("rev %d: stored %q, want %q", tc.revision, value, tc.stored)
		}
		if tc.written && revision != tc.revision {
			t.Fatalf("stored revision %d, want %d", revision, tc.revision)
		}
	}
	if ttl := mr.TTL("k"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
}

func TestGetVersionedMissing(t *testing.T) {
	client, mr := newVersionedClient(t)
	if _, _, err := GetVersioned(context.Background(), client, "absent"); err != redis.Nil {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
	if err := mr.Set("plain", "v"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := GetVersioned(context.Background(), client, "plain"); err == nil || err == redis.Nil {
		t.Fatalf("expected a type error for a plain string, got %v", err)
	}
}

func TestSetIfNewerNeedsTTL(t *testing.T) {
	client, _ := newVersionedClient(t)
	if _, err := SetIfNewer(context.Background(), client, "k", 1, []byte("v"), 0); err == nil {
		t.Fatal("expected an error for a zero TTL")
	}
}
