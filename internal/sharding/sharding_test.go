package sharding

import (
	"fmt"
	"testing"
)

func TestGetShardID(t *testing.T) {
	tests := []struct {
		entityID string
		want     int
	}{
		{"user-1", 532},
		{"user-2", 942},
		{"todo-abc", 748},
	}

	for _, tt := range tests {
		t.Run(tt.entityID, func(t *testing.T) {
			if got := GetShardID(tt.entityID); got != tt.want {
				t.Errorf("GetShardID(%q) = %v, want %v", tt.entityID, got, tt.want)
			}
		})
	}
}

func TestSubjects(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{GetSubject("task", "user-1"), "app.command.532.task.user-1"},
		{GetEventSubject("task", "user-1"), "app.event.532.task.user-1"},
		{GetRejectionSubject("label", "todo-abc"), "app.rejection.748.label.todo-abc"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("subject = %v, want %v", tt.got, tt.want)
		}
	}
}

func TestShardFromSubject(t *testing.T) {
	if got := ShardFromSubject("user-1", "app.command.17.task.user-1"); got != 17 {
		t.Fatalf("expected shard from subject, got %d", got)
	}
	if got, want := ShardFromSubject("group-2", "bad.subject"), GetShardID("group-2"); got != want {
		t.Fatalf("expected fallback shard %d, got %d", want, got)
	}
}

func TestValidToken(t *testing.T) {
	for id, want := range map[string]bool{
		"3f1c2a9e-7d1b-4b55-9f0e-4c8a1d2b6e70": true,
		"home":                                 true,
		"":                                     false,
		"a.b":                                  false,
		"a b":                                  false,
		"a>":                                   false,
		"*":                                    false,
	} {
		if got := ValidToken(id); got != want {
			t.Errorf("ValidToken(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestStableSharding(t *testing.T) {
	id := "test-stable-id"
	shard1 := GetShardID(id)
	shard2 := GetShardID(id)

	if shard1 != shard2 {
		t.Errorf("Sharding is not deterministic! %d != %d", shard1, shard2)
	}
}

func TestDistribution(t *testing.T) {
	// Rough check to ensure we don't map everything to shard 0
	distribution := make(map[int]int)
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("key-%d", i)
		shard := GetShardID(key)
		distribution[shard]++
	}

	if len(distribution) < 100 {
		t.Errorf("Sharding distribution is too poor. Only %d unique shards used for 1000 keys", len(distribution))
	}
}
