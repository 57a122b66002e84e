package cache_test

import (
	"testing"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/infra/cache"
)

func TestCache_SetGet(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Set("k", "v")

	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected v, got %q (ok=%v)", got, ok)
	}
}

func TestCache_Miss(t *testing.T) {
	c := cache.New[int](time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("expected miss")
	}
}

func TestCache_ExpiryWithClock(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := cache.NewWithClock[string](time.Minute, func() time.Time { return now })

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit just before TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after TTL")
	}
}

func TestCache_SetWithTTLOverridesDefault(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := cache.NewWithClock[string](time.Hour, func() time.Time { return now })

	c.SetWithTTL("k", "v", 10*time.Second)
	now = now.Add(11 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected per-entry TTL to win over the default")
	}
}

func TestCache_DeleteAndPurge(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := cache.NewWithClock[string](time.Minute, func() time.Time { return now })

	c.Set("gone", "v")
	c.Delete("gone")
	if _, ok := c.Get("gone"); ok {
		t.Fatal("expected delete to remove the entry")
	}

	c.Set("stale", "v")
	c.Set("fresh", "v")
	now = now.Add(2 * time.Minute)
	c.SetWithTTL("fresh", "v", time.Hour)
	c.Purge()
	if _, ok := c.Get("stale"); ok {
		t.Fatal("expected purge to drop the expired entry")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("expected purge to keep the live entry")
	}
}
