package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	c, err := NewRedisCache("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis cache: %v", err)
	}
	return c, s
}

func TestNewRedisCache_BadURL(t *testing.T) {
	if _, err := NewRedisCache("not-a-url"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, s := setupTestRedis(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()

	// miss before set
	if _, hit, err := c.Get(ctx, "chart:abc"); err != nil || hit {
		t.Fatalf("fresh cache: hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "chart:abc", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "chart:abc")
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if !bytes.Equal(data, []byte(`{"nodes":[]}`)) {
		t.Errorf("data = %s", data)
	}

	if err := c.Delete(ctx, "chart:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "chart:abc"); hit {
		t.Error("hit after delete")
	}
}

func TestRedisCache_KeysArePrefixed(t *testing.T) {
	c, s := setupTestRedis(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Exists("kinchart:k") {
		t.Error("expected key to carry the kinchart: prefix")
	}
}

func TestRedisCache_TTLExpires(t *testing.T) {
	c, s := setupTestRedis(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// miniredis time is manual
	s.FastForward(2 * time.Minute)

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("expired entry: hit=%v err=%v", hit, err)
	}
}
