package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "reviewhound/internal/adapters/redis"
	"reviewhound/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	want := domain.ReviewStats{Total: 3, AvgRating: 4.5, BySource: map[string]int{"bbb": 3}}
	if err := c.Set(ctx, "stats:1", want, time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("reviewhound:stats:1") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}

	var got domain.ReviewStats
	ok, err := c.Get(ctx, "stats:1", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Total != 3 || got.BySource["bbb"] != 3 {
		t.Fatalf("got %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := c.Get(ctx, "stats:1", &got); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestCache_MissAndDel(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var v []int
	if ok, err := c.Get(ctx, "nope", &v); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	_ = c.Set(ctx, "a", 1, time.Minute)
	_ = c.Set(ctx, "b", 2, time.Minute)
	if err := c.Del(ctx, "a", "b", "c"); err != nil {
		t.Fatal(err)
	}
	var n int
	if ok, _ := c.Get(ctx, "a", &n); ok {
		t.Fatal("a still cached")
	}
	if err := c.Del(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestCache_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	mr.Close()

	var v int
	if _, err := c.Get(context.Background(), "k", &v); err == nil {
		t.Fatal("expected error from a closed server")
	}
}
