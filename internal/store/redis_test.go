package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestRedisStore runs against a real server; set REDIS_TEST_ADDR to enable it.
// It uses and flushes database 15.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer client.Close()
	ctx := context.Background()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	s := NewRedisStore(client, time.Minute, NewInMemoryStore())
	exercise(t, s)

	if err := s.SaveSnapshot(ctx, snapshot("ttl", "u1")); err != nil {
		t.Fatal(err)
	}
	ttl, err := client.TTL(ctx, snapshotKey("ttl")).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v, %v", ttl, err)
	}
}
