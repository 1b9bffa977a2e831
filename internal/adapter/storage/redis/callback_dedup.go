package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CallbackDedup implements ports.CallbackDedup using Redis SET NX.
type CallbackDedup struct {
	client *goredis.Client
	prefix string
}

// NewCallbackDedup creates a new Redis-backed callback dedup store.
func NewCallbackDedup(client *goredis.Client) *CallbackDedup {
	return &CallbackDedup{
		client: client,
		prefix: "callback:",
	}
}

// CheckAndSet atomically checks if a callback key was seen, sets it if not.
// Returns true if the key is new, false if the callback was already handled.
// This is a fast path only: losing the key (Redis restart) simply routes the
// replay through the intent state machine, which rejects it there.
func (s *CallbackDedup) CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — callback was already processed
			return false, nil
		}
		return false, fmt.Errorf("redis callback dedup: %w", err)
	}
	return result == "OK", nil
}
