package redis

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/routine/internal/store"
	"github.com/MrSnakeDoc/routine/internal/store/storetest"
)

// testClient connects to ROUTINE_TEST_REDIS_ADDR or skips the test.
// Each test gets a flushed DB 15.
func testClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("ROUTINE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("skipping redis integration test: ROUTINE_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("skipping redis integration test: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush test db: %v", err)
	}
	return client
}

// memoryClient starts an in-process miniredis server for one test.
func memoryClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T, opts store.Options) store.Store {
		s := NewStore(memoryClient(t), opts)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestConformanceLiveServer(t *testing.T) {
	storetest.Run(t, func(t *testing.T, opts store.Options) store.Store {
		s := NewStore(testClient(t), opts)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestListSkipsDanglingIDs(t *testing.T) {
	client := memoryClient(t)
	s := NewStore(client, store.Options{})
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	if err := client.SAdd(ctx, AllItemsKey(), "ghost").Err(); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	items, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("List() = %d items, want 0", len(items))
	}
}

func TestItemKeys(t *testing.T) {
	if got := ItemKey("abc"); got != "routine:item:abc" {
		t.Errorf("ItemKey() = %q", got)
	}

	keys := ItemKeys([]string{"a", "b"})
	if len(keys) != 2 || keys[0] != "routine:item:a" || keys[1] != "routine:item:b" {
		t.Errorf("ItemKeys() = %v", keys)
	}
}
