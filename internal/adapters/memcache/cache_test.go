package memcache

import (
	"context"
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New()
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	if err := c.Set(ctx, "k", payload{Name: "bistro", N: 3}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit")
	}
	if got.Name != "bistro" || got.N != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestGetMissOnUnknownKey(t *testing.T) {
	c := New()
	var dst map[string]any
	ok, err := c.Get(context.Background(), "nope", &dst)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("unknown key must miss")
	}
}

func TestExpiredEntryIsEvictedOnRead(t *testing.T) {
	c := New()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	if err := c.Set(ctx, "k", "v", 30); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Still live one second before expiry.
	c.now = func() time.Time { return base.Add(29 * time.Second) }
	var s string
	if ok, _ := c.Get(ctx, "k", &s); !ok || s != "v" {
		t.Fatalf("expected a hit before expiry, got ok=%v s=%q", ok, s)
	}

	// Past expiry: miss, and the entry is gone from the map.
	c.now = func() time.Time { return base.Add(31 * time.Second) }
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatalf("expected a miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should have been evicted, len=%d", c.Len())
	}
}

func TestSetOverwritesAndRefreshesTTL(t *testing.T) {
	c := New()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	if err := c.Set(ctx, "k", "old", 10); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Rewrite just before the first expiry with a fresh TTL.
	c.now = func() time.Time { return base.Add(9 * time.Second) }
	if err := c.Set(ctx, "k", "new", 10); err != nil {
		t.Fatalf("set: %v", err)
	}

	c.now = func() time.Time { return base.Add(15 * time.Second) }
	var s string
	ok, err := c.Get(ctx, "k", &s)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || s != "new" {
		t.Fatalf("expected refreshed value, got ok=%v s=%q", ok, s)
	}
}

func TestDelRemovesEntry(t *testing.T) {
	c := New()
	ctx := context.Background()

	if err := c.Set(ctx, "k", 1, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	var n int
	if ok, _ := c.Get(ctx, "k", &n); ok {
		t.Fatalf("deleted key must miss")
	}
	if c.Len() != 0 {
		t.Fatalf("len after del = %d", c.Len())
	}
}
