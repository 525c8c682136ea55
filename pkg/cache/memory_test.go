package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type sample struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", sample{Score: 0.25, Label: "x"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got sample
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 0.25 || got.Label != "x" {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	_ = mc.Set(ctx, "k", "v", time.Second)
	now = now.Add(2 * time.Second)
	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Millisecond); return now }
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", time.Minute)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	var s string
	_ = mc.Get(ctx, "a", &s)
	_ = mc.Set(ctx, "c", "3", time.Minute)

	if err := mc.Get(ctx, "b", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &s); err != nil || s != "1" {
		t.Fatalf("expected a kept, got %q %v", s, err)
	}
}

func TestMemoryCacheLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, _ := mc.TryLock(ctx, "train", time.Minute)
	if !ok {
		t.Fatalf("first lock should succeed")
	}
	ok, _ = mc.TryLock(ctx, "train", time.Minute)
	if ok {
		t.Fatalf("second lock should fail while held")
	}
	_ = mc.Unlock(ctx, "train")
	ok, _ = mc.TryLock(ctx, "train", time.Minute)
	if !ok {
		t.Fatalf("lock should succeed after unlock")
	}
}

func TestMemoryCacheCleanupPurgesExpired(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(5 * time.Millisecond))
	defer mc.Close()

	_ = mc.Set(context.Background(), "k", "v", time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for {
		mc.mutex.Lock()
		n := len(mc.data)
		mc.mutex.Unlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expired entry not purged, %d entries left", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOptionsKeepDefaultsOnNonPositive(t *testing.T) {
	rc := &RedisConfig{PoolSize: 10, MinIdleConns: 2, PoolTimeout: 30 * time.Second}
	WithRedisPool(20, 0, 0)(rc)
	if rc.PoolSize != 20 || rc.MinIdleConns != 2 || rc.PoolTimeout != 30*time.Second {
		t.Fatalf("redis pool = %+v", rc)
	}

	mc := &MemoryConfig{MaxSize: 1000, CleanupInterval: time.Minute}
	WithMemoryCleanup(0)(mc)
	WithMemoryMaxSize(-1)(mc)
	if mc.CleanupInterval != time.Minute || mc.MaxSize != 1000 {
		t.Fatalf("memory config = %+v", mc)
	}
}
