package sharding

import (
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// ShardCount is the fixed number of partitions for the system.
const ShardCount = 1024

// GetShardID calculates the deterministic shard ID for a given entity ID.
func GetShardID(entityID string) int {
	checksum := crc32.ChecksumIEEE([]byte(entityID))
	return int(checksum % ShardCount)
}

// GetSubject returns the command subject for an entity.
// Format: app.command.{shard_id}.{entity_type}.{entity_id}
func GetSubject(entityType, entityID string) string {
	return subject("command", entityType, entityID)
}

// GetEventSubject returns the event subject for an entity.
// Format: app.event.{shard_id}.{entity_type}.{entity_id}
func GetEventSubject(entityType, entityID string) string {
	return subject("event", entityType, entityID)
}

// GetRejectionSubject returns the rejection subject for an entity.
// Format: app.rejection.{shard_id}.{entity_type}.{entity_id}
func GetRejectionSubject(entityType, entityID string) string {
	return subject("rejection", entityType, entityID)
}

func subject(kind, entityType, entityID string) string {
	return fmt.Sprintf("app.%s.%d.%s.%s", kind, GetShardID(entityID), entityType, entityID)
}

// ShardFromSubject reads the shard token of an app.* subject, falling back
// to hashing entityID when the subject is malformed.
func ShardFromSubject(entityID, subject string) int {
	parts := strings.Split(subject, ".")
	if len(parts) > 2 {
		if shard, err := strconv.Atoi(parts[2]); err == nil {
			return shard
		}
	}
	return GetShardID(entityID)
}

// ValidToken reports whether id can be used as a single subject token.
func ValidToken(id string) bool {
	if id == "" {
		return false
	}
	return !strings.ContainsAny(id, ".*> \t\r\n")
}
