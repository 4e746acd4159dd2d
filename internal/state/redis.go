package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const chatStateKeyPattern = "chat:pending:%d"

// RedisStorage persists pending conversions in Redis with a TTL, so
// abandoned conversations expire without a cleanup loop and state survives
// process restarts.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStorage {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Get returns the stored pending conversion or ErrNotFound when absent.
func (s *RedisStorage) Get(ctx context.Context, chatID int64) (*PendingConversion, error) {
	data, err := s.client.Get(ctx, redisChatStateKey(chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get pending conversion from redis", "chat_id", chatID, "error", err)
		return nil, err
	}

	var pending PendingConversion
	if err := json.Unmarshal([]byte(data), &pending); err != nil {
		s.log.Error("failed to decode pending conversion", "chat_id", chatID, "error", err)
		return nil, err
	}

	return &pending, nil
}

// Set saves the pending conversion under the storage TTL.
func (s *RedisStorage) Set(ctx context.Context, chatID int64, pending *PendingConversion) error {
	if pending == nil {
		return nil
	}

	entry := *pending
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		s.log.Error("failed to encode pending conversion", "chat_id", chatID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, redisChatStateKey(chatID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save pending conversion in redis", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// Clear removes the stored pending conversion for the chat.
func (s *RedisStorage) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, redisChatStateKey(chatID)).Err(); err != nil {
		s.log.Error("failed to clear pending conversion", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// EvictExpired is a no-op: Redis entries carry a native TTL.
func (s *RedisStorage) EvictExpired(context.Context) (int, error) {
	return 0, nil
}

func redisChatStateKey(chatID int64) string {
	return fmt.Sprintf(chatStateKeyPattern, chatID)
}
