package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewGuard(client, "idem:orders", time.Hour), mr
}

func TestGuardLifecycle(t *testing.T) {
	ctx := context.Background()
	g, mr := newGuard(t)

	replay, err := g.Begin(ctx, "alice", "k1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = g.Begin(ctx, "alice", "k1")
	assert.ErrorIs(t, err, ErrInProgress)

	// Keys are scoped per caller.
	replay, err = g.Begin(ctx, "bob", "k1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	require.NoError(t, g.Complete(ctx, "alice", "k1", []byte(`{"orderId":"o-1"}`)))
	replay, err = g.Begin(ctx, "alice", "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"o-1"}`, string(replay))

	assert.True(t, mr.Exists("idem:orders:alice:k1"))
	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("idem:orders:alice:k1"))
}

func TestGuardRelease(t *testing.T) {
	ctx := context.Background()
	g, _ := newGuard(t)

	_, err := g.Begin(ctx, "alice", "k2")
	require.NoError(t, err)
	require.NoError(t, g.Release(ctx, "alice", "k2"))

	replay, err := g.Begin(ctx, "alice", "k2")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestGuardRedisDown(t *testing.T) {
	g, mr := newGuard(t)
	mr.Close()

	_, err := g.Begin(context.Background(), "alice", "k3")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInProgress)
}
