package idempotency

import (
	"context"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestKey_TrimsHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/checkout", nil)
	req.Header.Set(Header, "  cart-42 ")
	if got := Key(req); got != "cart-42" {
		t.Errorf("expected cart-42, got %q", got)
	}
}

func TestMemoryGuard_AcquireReleaseExpire(t *testing.T) {
	guard := NewMemoryGuard(time.Minute)
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return clock }
	ctx := context.Background()

	if ok, _ := guard.Acquire(ctx, "a"); !ok {
		t.Fatal("first acquire must succeed")
	}
	if ok, _ := guard.Acquire(ctx, "a"); ok {
		t.Fatal("second acquire must fail while held")
	}

	guard.Release(ctx, "a")
	if ok, _ := guard.Acquire(ctx, "a"); !ok {
		t.Fatal("acquire after release must succeed")
	}

	clock = clock.Add(2 * time.Minute)
	if ok, _ := guard.Acquire(ctx, "a"); !ok {
		t.Fatal("acquire after expiry must succeed")
	}
}

func TestMemoryGuard_ConcurrentAcquireSingleWinner(t *testing.T) {
	guard := NewMemoryGuard(time.Minute)
	var winners atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := guard.Acquire(context.Background(), "same-cart"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners.Load())
	}
}

func TestRedisGuard_AcquireRelease(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	guard := NewRedisGuard(client, time.Minute)
	key := uuid.NewString()
	defer client.Del(ctx, keyPrefix+key)

	ok, err := guard.Acquire(ctx, key)
	if err != nil || !ok {
		t.Fatalf("first acquire failed: %v", err)
	}
	if ok, _ := guard.Acquire(ctx, key); ok {
		t.Error("expected duplicate acquire to fail")
	}

	ttl := client.TTL(ctx, keyPrefix+key).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected ttl within a minute, got %s", ttl)
	}

	if err := guard.Release(ctx, key); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if ok, _ := guard.Acquire(ctx, key); !ok {
		t.Error("expected acquire after release to succeed")
	}
}
