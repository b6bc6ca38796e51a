package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheGetSetDelete(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}

	// Overwrite.
	if err := c.Set(ctx, "k", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, _ = c.Get(ctx, "k")
	if string(got) != "v2" {
		t.Fatalf("expected v2, got %q", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete of absent key failed: %v", err)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 30*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("expected hit before expiry: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after TTL, got %v", err)
	}
}

func TestMemoryCacheGetOrSet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	calls := 0
	source := func() ([]byte, error) {
		calls++
		return []byte("fresh"), nil
	}

	got, err := c.GetOrSet(ctx, "k", time.Minute, source)
	if err != nil {
		t.Fatalf("first GetOrSet failed: %v", err)
	}
	if string(got) != "fresh" || calls != 1 {
		t.Fatalf("expected source hit once, got %q calls=%d", got, calls)
	}

	got, err = c.GetOrSet(ctx, "k", time.Minute, source)
	if err != nil {
		t.Fatalf("second GetOrSet failed: %v", err)
	}
	if string(got) != "fresh" || calls != 1 {
		t.Fatalf("expected cached value without a second source call, calls=%d", calls)
	}

	wantErr := errors.New("source down")
	if _, err := c.GetOrSet(ctx, "other", time.Minute, func() ([]byte, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected source error to propagate, got %v", err)
	}
	// Errors must not be cached.
	if _, err := c.Get(ctx, "other"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("failed lookups must not populate the cache, got %v", err)
	}
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	v := []byte("abc")
	if err := c.Set(ctx, "k", v, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v[0] = 'x'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("cache must not alias caller buffers, got %q", got)
	}
	got[0] = 'y'

	again, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned slice must not alias the stored value, got %q", again)
	}
}

func TestKeyScheme(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{TerritoryKey("T1"), "terrabid:territory:T1"},
		{AuctionKey("A1"), "terrabid:auction:A1"},
		{BidListKey("A1"), "terrabid:auction:A1:bids"},
		{WalletKey("u1"), "terrabid:wallet:u1"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, tc.got)
		}
	}
}
