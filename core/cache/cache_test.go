package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*redisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &redisCache{client: client}, mr
}

func TestAcquireLockIsExclusive(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	token, err := c.AcquireLock(ctx, "refresh_lock:acct", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	second, err := c.AcquireLock(ctx, "refresh_lock:acct", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestReleaseLockFreesKey(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	token, err := c.AcquireLock(ctx, "refresh_lock:acct", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, c.ReleaseLock(ctx, "refresh_lock:acct", token))

	again, err := c.AcquireLock(ctx, "refresh_lock:acct", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, again)
}

func TestStaleHolderCannotReleaseSuccessorLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	stale, err := c.AcquireLock(ctx, "refresh_lock:acct", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, stale)

	// The first holder's TTL lapses and a successor takes the lock.
	mr.FastForward(2 * time.Minute)
	successor, err := c.AcquireLock(ctx, "refresh_lock:acct", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, successor)

	// The stale holder's release is a no-op on the successor's lock.
	require.NoError(t, c.ReleaseLock(ctx, "refresh_lock:acct", stale))
	still, err := c.AcquireLock(ctx, "refresh_lock:acct", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, still)
}
