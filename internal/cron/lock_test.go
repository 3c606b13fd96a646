package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodgram-backend/pkg/redis"
)

func newLockClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return redis.Wrap(raw), mr
}

func TestRedisLockIsExclusiveUntilReleased(t *testing.T) {
	client, _ := newLockClient(t)
	ctx := context.Background()

	first, err := NewRedisLock(client, "foodgram:cron:lock:test", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(client, "foodgram:cron:lock:test", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// releasing a lock it never held must not free the owner's key
	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpiresAfterTTL(t *testing.T) {
	client, mr := newLockClient(t)
	ctx := context.Background()

	lock, err := NewRedisLock(client, "foodgram:cron:lock:ttl", time.Minute)
	require.NoError(t, err)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	other, err := NewRedisLock(client, "foodgram:cron:lock:ttl", time.Minute)
	require.NoError(t, err)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// the expired owner no longer matches and leaves the new holder alone
	require.NoError(t, lock.Release(ctx))
	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisLockValidatesInput(t *testing.T) {
	client, _ := newLockClient(t)
	_, err := NewRedisLock(nil, "key", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(client, "", time.Minute)
	assert.Error(t, err)
}
