package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keanu3244/shop-chat/internal/models"
)

const (
	recentWindow = 200
	recentTTL    = 24 * time.Hour
)

// RedisStore caches the recent tail of each room's message log so the
// history endpoint does not hit the relational store on every room switch.
// It is optional; when absent the handlers read straight from the store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// roomMessagesKey returns the key for a room's message sorted set.
func roomMessagesKey(roomID string) string {
	return fmt.Sprintf("room:%s:recent", roomID)
}

// CacheMessage appends a message to the room's recent window.
func (s *RedisStore) CacheMessage(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := roomMessagesKey(msg.RoomID)

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(msg.CreatedAt),
		Member: string(data),
	})
	// Keep only the newest recentWindow entries
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-recentWindow-1))
	pipe.Expire(ctx, key, recentTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentMessages returns the cached tail for a room, oldest first. A nil
// slice means the cache has nothing for this room.
func (s *RedisStore) RecentMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	key := roomMessagesKey(roomID)

	results, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	messages := make([]models.Message, 0, len(results))
	for _, data := range results {
		var msg models.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// WarmRoom replaces the room's cached window with a history snapshot.
func (s *RedisStore) WarmRoom(ctx context.Context, roomID string, history []models.Message) error {
	key := roomMessagesKey(roomID)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	for i := range history {
		data, err := json.Marshal(&history[i])
		if err != nil {
			continue
		}
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(history[i].CreatedAt),
			Member: string(data),
		})
	}
	pipe.Expire(ctx, key, recentTTL)
	_, err := pipe.Exec(ctx)
	return err
}
