package testutil

import (
	"context"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewMiniRedis starts an in-process Redis and returns it with a connected client.
// Both are closed when the test finishes.
func NewMiniRedis(t TestingTB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatal("Failed to start miniredis:", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		closeAndLog(t, "redis client", client)
		mr.Close()
	})
	return mr, client
}

// SetupTestRedis returns a client for TEST_REDIS_ADDR when set, flushing the
// selected DB first. Without it the client talks to miniredis.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		_, client := NewMiniRedis(t)
		return client
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		unavailable(t, requireRedis(), "Redis not available at", addr, err)
		return nil
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		t.Fatal("Failed to flush test Redis DB:", err)
	}
	t.Cleanup(func() { closeAndLog(t, "redis client", client) })
	return client
}
