package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "rentmatch/internal/adapters/redis"
	"rentmatch/internal/domain"
)

func newTestCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisad.NewFromClient(client), mr
}

func TestCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	in := []domain.PropertyRecord{
		{ID: 1, Title: "Sunny flat", Price: 4500, Rooms: 2},
		{ID: 2, Title: "Garden apartment", Price: 6200, Rooms: 3},
	}
	if err := cache.Set(ctx, "catalog:published", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out []domain.PropertyRecord
	ok, err := cache.Get(ctx, "catalog:published", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(out) != 2 || out[0].Title != "Sunny flat" || out[1].Rooms != 3 {
		t.Fatalf("round trip lost data: %+v", out)
	}
}

func TestCache_MissIsNotAnError(t *testing.T) {
	cache, _ := newTestCache(t)
	var out domain.PropertyRecord
	ok, err := cache.Get(context.Background(), "property:404", &out)
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if ok {
		t.Fatalf("miss reported as hit")
	}
}

func TestCache_Del(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "property:1", domain.PropertyRecord{ID: 1}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Del(ctx, "property:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	var out domain.PropertyRecord
	if ok, _ := cache.Get(ctx, "property:1", &out); ok {
		t.Fatalf("key survived delete")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "property:1", domain.PropertyRecord{ID: 1}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var out domain.PropertyRecord
	if ok, _ := cache.Get(ctx, "property:1", &out); ok {
		t.Fatalf("entry outlived its TTL")
	}
}

func TestCache_SetRejectsUnmarshalable(t *testing.T) {
	cache, _ := newTestCache(t)
	if err := cache.Set(context.Background(), "bad", make(chan int), 60); err == nil {
		t.Fatalf("expected marshal error")
	}
}
