package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client. Skips when no local Redis
// is available; the integration suite covers the same paths against a
// containerized instance.
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

func TestNewManager_NilClient(t *testing.T) {
	manager, err := NewManager(nil, time.Minute)
	if err == nil {
		t.Error("NewManager(nil) error = nil, want error")
	}
	if manager != nil {
		t.Errorf("NewManager(nil) = %v, want nil manager", manager)
	}
}

// newTestManager wraps NewManager for tests that need a working backend.
func newTestManager(t *testing.T, client *redis.Client, ttl time.Duration) *Manager {
	t.Helper()
	manager, err := NewManager(client, ttl)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	return manager
}

func TestManager_SetGet(t *testing.T) {
	client := setupTestRedis(t)
	manager := newTestManager(t, client, time.Minute)
	ctx := context.Background()

	key := Key{Category: "networkdevice"}
	entry := &Entry{
		Resources: []map[string]any{
			{"id": "dev-1", "name": "switch-01"},
			{"id": "dev-2", "name": "switch-02"},
		},
		Total:     2,
		FetchedAt: time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Total != 2 || len(got.Resources) != 2 {
		t.Errorf("Get() = %+v, want 2 resources, total 2", got)
	}
	if got.Resources[0]["name"] != "switch-01" {
		t.Errorf("Resources[0] name = %v, want switch-01", got.Resources[0]["name"])
	}
}

func TestManager_GetMiss(t *testing.T) {
	client := setupTestRedis(t)
	manager := newTestManager(t, client, time.Minute)

	_, err := manager.Get(context.Background(), Key{Category: "endpoint"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Invalidate(t *testing.T) {
	client := setupTestRedis(t)
	manager := newTestManager(t, client, time.Minute)
	ctx := context.Background()

	entry := &Entry{Resources: []map[string]any{{"id": "x"}}, Total: 1, FetchedAt: time.Now()}

	// Two cached fetches of the mutated category, one of another.
	keys := []Key{
		{Category: "endpoint"},
		{Category: "endpoint", Filter: "mac.CONTAINS.aa"},
		{Category: "networkdevice"},
	}
	for _, key := range keys {
		if err := manager.Set(ctx, key, entry); err != nil {
			t.Fatalf("Set(%s) error: %v", key.String(), err)
		}
	}

	if err := manager.Invalidate(ctx, "endpoint"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}

	for _, key := range keys[:2] {
		if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Get(%s) after invalidate = %v, want ErrCacheMiss", key.String(), err)
		}
	}
	if _, err := manager.Get(ctx, keys[2]); err != nil {
		t.Errorf("Get(%s) error = %v, other categories must survive", keys[2].String(), err)
	}
}

func TestManager_TTLExpiry(t *testing.T) {
	client := setupTestRedis(t)
	manager := newTestManager(t, client, 50*time.Millisecond)
	ctx := context.Background()

	key := Key{Category: "sgt"}
	if err := manager.Set(ctx, key, &Entry{Total: 1, FetchedAt: time.Now()}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after TTL = %v, want ErrCacheMiss", err)
	}
}
