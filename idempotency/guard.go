// Package idempotency remembers the outcome of client requests keyed by an
// Idempotency-Key so a retried checkout replays the first response instead of
// placing a second order.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInProgress means another request with the same key has not finished.
var ErrInProgress = errors.New("idempotency: request with this key is in progress")

const pendingMarker = "pending"

type Guard struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewGuard stores keys under prefix for ttl.
func NewGuard(client redis.UniversalClient, prefix string, ttl time.Duration) *Guard {
	return &Guard{client: client, prefix: prefix, ttl: ttl}
}

func (g *Guard) key(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", g.prefix, scope, key)
}

// Begin reserves the key. It returns the stored response when the key has
// already completed, ErrInProgress while it is reserved, and (nil, nil) when
// the caller now owns the key and must Complete or Release it.
func (g *Guard) Begin(ctx context.Context, scope, key string) ([]byte, error) {
	k := g.key(scope, key)

	ok, err := g.client.SetNX(ctx, k, pendingMarker, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("reserve %s: %w", k, err)
	}
	if ok {
		return nil, nil
	}

	stored, err := g.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; try once more.
		return g.Begin(ctx, scope, key)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", k, err)
	}
	if string(stored) == pendingMarker {
		return nil, ErrInProgress
	}
	return stored, nil
}

// Complete stores the response for replay.
func (g *Guard) Complete(ctx context.Context, scope, key string, response []byte) error {
	k := g.key(scope, key)
	if err := g.client.Set(ctx, k, response, g.ttl).Err(); err != nil {
		return fmt.Errorf("complete %s: %w", k, err)
	}
	return nil
}

// Release drops a reservation so the client may retry after a failure.
func (g *Guard) Release(ctx context.Context, scope, key string) error {
	k := g.key(scope, key)
	if err := g.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("release %s: %w", k, err)
	}
	return nil
}
