package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackDedup_CheckAndSet_NewKey(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewCallbackDedup(client)
	ctx := context.Background()

	ok, err := store.CheckAndSet(ctx, "pay_abc", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "new callback key should return true")
}

func TestCallbackDedup_CheckAndSet_Replay(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewCallbackDedup(client)
	ctx := context.Background()

	// First delivery
	ok, err := store.CheckAndSet(ctx, "pay_xyz", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Replayed delivery
	ok, err = store.CheckAndSet(ctx, "pay_xyz", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "replayed callback should return false")
}

func TestCallbackDedup_CheckAndSet_Expired(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewCallbackDedup(client)
	ctx := context.Background()

	ok, err := store.CheckAndSet(ctx, "pay_expire", 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// Fast-forward past TTL
	s.FastForward(2 * time.Second)

	ok, err = store.CheckAndSet(ctx, "pay_expire", 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired key should be accepted again")
}
