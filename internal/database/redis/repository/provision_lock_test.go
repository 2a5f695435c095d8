package repository

import (
	"context"
	"testing"
	"time"

	client "salesdesk/internal/database/client"
	"salesdesk/internal/telemetry"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLockRepository(t *testing.T) (*ProvisionLockRepository, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewProvisionLockRepository(&telemetry.Trace{}, client.NewRedisClientFrom(zap.NewNop(), rdb)), server
}

func TestProvisionLockIsExclusive(t *testing.T) {
	repo, _ := newLockRepository(t)
	ctx := context.Background()

	token, err := repo.Acquire(ctx, "t1", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, repo.Distributed())

	_, err = repo.Acquire(ctx, "t1", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	// 其他租戶不受影響
	other, err := repo.Acquire(ctx, "t2", time.Minute)
	require.NoError(t, err)
	_, err = repo.Release(ctx, "t2", other)
	require.NoError(t, err)

	released, err := repo.Release(ctx, "t1", "not-the-owner")
	require.NoError(t, err)
	assert.False(t, released)

	released, err = repo.Release(ctx, "t1", token)
	require.NoError(t, err)
	assert.True(t, released)

	_, err = repo.Acquire(ctx, "t1", time.Minute)
	assert.NoError(t, err)
}

func TestProvisionLockExpires(t *testing.T) {
	repo, server := newLockRepository(t)
	ctx := context.Background()

	token, err := repo.Acquire(ctx, "t1", time.Second)
	require.NoError(t, err)
	server.FastForward(2 * time.Second)

	next, err := repo.Acquire(ctx, "t1", time.Second)
	require.NoError(t, err)

	// 過期的持有者不能刪掉新的鎖
	released, err := repo.Release(ctx, "t1", token)
	require.NoError(t, err)
	assert.False(t, released)

	released, err = repo.Release(ctx, "t1", next)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestProvisionLockWithoutRedis(t *testing.T) {
	repo := NewProvisionLockRepository(&telemetry.Trace{}, &client.RedisClient{})
	assert.False(t, repo.Distributed())

	token, err := repo.Acquire(context.Background(), "t1", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	released, err := repo.Release(context.Background(), "t1", token)
	require.NoError(t, err)
	assert.True(t, released)
}
