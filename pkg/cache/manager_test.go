package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client, skipping if unavailable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager_NilRedisPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for nil redis client")
		}
	}()

	NewManager(nil, time.Minute)
}

func TestManager_SetGet(t *testing.T) {
	redisClient := setupTestRedis(t)
	manager := NewManager(redisClient, time.Minute)
	ctx := context.Background()

	key := Key{Query: "tech", Filter: "pub_date:>=2021-08-01", Sort: "oldest", Page: 0}
	body := []byte(`{"status":"OK","response":{"meta":{"hits":1},"docs":[{"_id":"a"}]}}`)

	if err := manager.Set(ctx, key, body); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("Get() = %q, want %q", got, body)
	}
}

func TestManager_GetMiss(t *testing.T) {
	redisClient := setupTestRedis(t)
	manager := NewManager(redisClient, time.Minute)

	_, err := manager.Get(context.Background(), Key{Query: "absent", Page: 42})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_SetEmptyBody(t *testing.T) {
	redisClient := setupTestRedis(t)
	manager := NewManager(redisClient, time.Minute)

	if err := manager.Set(context.Background(), Key{}, nil); err == nil {
		t.Error("Expected error for empty body")
	}
}

func TestManager_Delete(t *testing.T) {
	redisClient := setupTestRedis(t)
	manager := NewManager(redisClient, time.Minute)
	ctx := context.Background()

	key := Key{Query: "tech", Page: 1}
	if err := manager.Set(ctx, key, []byte("{}")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestManager_DefaultTTL(t *testing.T) {
	redisClient := setupTestRedis(t)
	manager := NewManager(redisClient, 0)

	if manager.ttl != DefaultTTL {
		t.Errorf("Expected default TTL %v, got %v", DefaultTTL, manager.ttl)
	}
}
