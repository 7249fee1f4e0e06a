package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is how long an idle Redis-backed session survives.
const DefaultSessionTTL = 24 * time.Hour

// RedisStore keeps each session as a Redis list, trimmed to the bound
// on every append. Idle sessions expire after the TTL instead of
// accumulating forever.
type RedisStore struct {
	client *redis.Client
	max    int
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr and verifies the connection.
// A max of 0 or below selects DefaultMaxExchanges; a ttl of 0 selects
// DefaultSessionTTL.
func NewRedisStore(addr string, max int, ttl time.Duration) (*RedisStore, error) {
	if max <= 0 {
		max = DefaultMaxExchanges
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, max: max, ttl: ttl}, nil
}

func sessionKey(sessionID string) string {
	return "coursechat:session:" + sessionID
}

// Append pushes the exchange and trims the list to the bound in one
// pipeline, so no reader ever sees more than max entries.
func (s *RedisStore) Append(ctx context.Context, sessionID string, exchange Exchange) error {
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = time.Now()
	}
	data, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}

	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.max), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append to session %s: %w", sessionID, err)
	}
	return nil
}

// Exchanges returns the retained history, oldest first. A missing key
// is an empty history, not an error.
func (s *RedisStore) Exchanges(ctx context.Context, sessionID string) ([]Exchange, error) {
	entries, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	history := make([]Exchange, 0, len(entries))
	for _, entry := range entries {
		var ex Exchange
		if err := json.Unmarshal([]byte(entry), &ex); err != nil {
			return nil, fmt.Errorf("decode exchange in session %s: %w", sessionID, err)
		}
		history = append(history, ex)
	}
	return history, nil
}

// Clear deletes the session key.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
