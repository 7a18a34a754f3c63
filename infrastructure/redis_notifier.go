package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookmaker/domain/entities"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Pub/sub channels read by the websocket gateway
const (
	ChannelEventUpdates  = "events.updates"
	ChannelAdminRequests = "admin.requests"
)

// UserChannel is the per-user notification channel
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("users.%s.notifications", userID)
}

// UserNotification is the payload published on a user channel
type UserNotification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisNotifier publishes notifications on Redis pub/sub channels
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier creates a notifier on an existing client
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) BroadcastEventUpdate(ctx context.Context, snapshot entities.EventSnapshot) error {
	return n.publishJSON(ctx, ChannelEventUpdates, snapshot)
}

func (n *RedisNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, notificationType, message string) error {
	return n.publishJSON(ctx, UserChannel(userID), UserNotification{
		Type:      notificationType,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (n *RedisNotifier) BroadcastAdminRequest(ctx context.Context, payload any) error {
	return n.publishJSON(ctx, ChannelAdminRequests, payload)
}

func (n *RedisNotifier) publishJSON(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification for %s: %w", channel, err)
	}
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// ConnectRedis opens a client and verifies it with a ping
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
