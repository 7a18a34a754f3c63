package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookmaker/domain/entities"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisEventCache stores event snapshots under event:snapshot:<id> with a TTL
type RedisEventCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisEventCache creates a snapshot cache with the given expiry
func NewRedisEventCache(client *redis.Client, ttl time.Duration) *RedisEventCache {
	return &RedisEventCache{client: client, ttl: ttl}
}

func snapshotKey(eventID uuid.UUID) string {
	return "event:snapshot:" + eventID.String()
}

// setIfNotOlder writes ARGV[1] unless the cached snapshot carries a higher
// version. ARGV[3] is the TTL in milliseconds, 0 for no expiry.
var setIfNotOlder = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	local ok, decoded = pcall(cjson.decode, current)
	if ok and type(decoded) == "table" and tonumber(decoded.version) and tonumber(decoded.version) > tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// Get returns nil, nil on a cache miss
func (c *RedisEventCache) Get(ctx context.Context, eventID uuid.UUID) (*entities.EventSnapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached snapshot for event %s: %w", eventID, err)
	}

	var snapshot entities.EventSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot for event %s: %w", eventID, err)
	}
	return &snapshot, nil
}

// Set caches snapshot unless a newer version is already cached
func (c *RedisEventCache) Set(ctx context.Context, snapshot entities.EventSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for event %s: %w", snapshot.ID, err)
	}
	written, err := setIfNotOlder.Run(ctx, c.client,
		[]string{snapshotKey(snapshot.ID)},
		string(data), snapshot.Version, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to cache snapshot for event %s: %w", snapshot.ID, err)
	}
	if written == 0 {
		log.WithFields(log.Fields{
			"eventID": snapshot.ID,
			"version": snapshot.Version,
		}).Debug("Skipped stale event snapshot")
	}
	return nil
}

func (c *RedisEventCache) Delete(ctx context.Context, eventID uuid.UUID) error {
	if err := c.client.Del(ctx, snapshotKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to evict snapshot for event %s: %w", eventID, err)
	}
	return nil
}
