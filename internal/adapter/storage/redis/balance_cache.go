package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// BalanceCache implements ports.BalanceCache using Redis.
type BalanceCache struct {
	client *goredis.Client
	prefix string
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balance:",
	}
}

// Get retrieves a cached balance for the merchant.
// Returns found=false if the key does not exist.
func (c *BalanceCache) Get(ctx context.Context, merchantID uuid.UUID) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+merchantID.String()).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis balance get: %w", err)
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Corrupt entry; treat as a miss so the caller falls back to the ledger.
		return 0, false, nil
	}
	return balance, true, nil
}

// Set stores a balance with TTL.
func (c *BalanceCache) Set(ctx context.Context, merchantID uuid.UUID, balance int64, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+merchantID.String(), balance, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis balance set: %w", err)
	}
	return nil
}

// Invalidate drops the cached balance. Called after every settlement that
// touches the merchant's wallet.
func (c *BalanceCache) Invalidate(ctx context.Context, merchantID uuid.UUID) error {
	err := c.client.Del(ctx, c.prefix+merchantID.String()).Err()
	if err != nil {
		return fmt.Errorf("redis balance invalidate: %w", err)
	}
	return nil
}
