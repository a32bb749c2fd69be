package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCoordinator() (*Coordinator, *MemoryStore) {
	store := NewMemoryStore()
	return NewCoordinator(store, zap.NewNop()), store
}

func TestCoordinator_RoundTrip(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	in := sample{Name: "kyoto", Count: 3}
	c.SetJSON(ctx, "test:roundtrip", in, time.Minute)

	var out sample
	if !c.GetJSON(ctx, "test:roundtrip", &out) {
		t.Fatal("expected cache hit")
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}

	// Repeated reads with no intervening write return the same value.
	var again sample
	if !c.GetJSON(ctx, "test:roundtrip", &again) {
		t.Fatal("expected second hit")
	}
	if again != out {
		t.Fatalf("second read %+v differs from first %+v", again, out)
	}
}

func TestCoordinator_MissOnAbsentKey(t *testing.T) {
	c, _ := newTestCoordinator()
	var out sample
	if c.GetJSON(context.Background(), "test:absent", &out) {
		t.Fatal("expected miss for absent key")
	}
}

func TestCoordinator_UndecodableEntryIsMiss(t *testing.T) {
	c, store := newTestCoordinator()
	ctx := context.Background()

	if err := store.Set(ctx, "test:garbage", "{not json", time.Minute); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var out sample
	if c.GetJSON(ctx, "test:garbage", &out) {
		t.Fatal("undecodable entry must be a miss, not a hit")
	}
}

type failingStore struct {
	MemoryStore
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (f *failingStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func TestCoordinator_StoreErrorsAbsorbed(t *testing.T) {
	fs := &failingStore{MemoryStore: *NewMemoryStore()}
	c := NewCoordinator(fs, zap.NewNop())
	ctx := context.Background()

	var out sample
	if c.GetJSON(ctx, "test:error", &out) {
		t.Fatal("store error must surface as a miss")
	}
	// Must not panic or propagate.
	c.SetJSON(ctx, "test:error", sample{Name: "x"}, time.Minute)
}

func TestCoordinator_InvalidatePattern(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	c.SetJSON(ctx, UserPostsKey("u1", 20, 0), []string{"a"}, time.Minute)
	c.SetJSON(ctx, UserPostsKey("u1", 20, 20), []string{"b"}, time.Minute)
	c.SetJSON(ctx, UserPostsKey("u2", 20, 0), []string{"c"}, time.Minute)

	c.InvalidatePattern(ctx, UserPostsPattern("u1"))

	var out []string
	if c.GetJSON(ctx, UserPostsKey("u1", 20, 0), &out) {
		t.Fatal("u1 page 0 should be invalidated")
	}
	if c.GetJSON(ctx, UserPostsKey("u1", 20, 20), &out) {
		t.Fatal("u1 page 1 should be invalidated")
	}
	if !c.GetJSON(ctx, UserPostsKey("u2", 20, 0), &out) {
		t.Fatal("u2 keys must survive u1 namespace invalidation")
	}
}

func TestCoordinator_InvalidateSessionNamespaceVariants(t *testing.T) {
	c, _ := newTestCoordinator()
	ctx := context.Background()

	// Session list keys come in filtered and unfiltered shapes; the
	// namespace pattern has to cover both.
	c.SetJSON(ctx, UserSessionsKey("u1", "", 20, 0), []string{"a"}, time.Minute)
	c.SetJSON(ctx, UserSessionsKey("u1", "true", 20, 0), []string{"b"}, time.Minute)

	c.InvalidatePattern(ctx, UserSessionsPattern("u1"))

	var out []string
	if c.GetJSON(ctx, UserSessionsKey("u1", "", 20, 0), &out) {
		t.Fatal("unfiltered session list should be invalidated")
	}
	if c.GetJSON(ctx, UserSessionsKey("u1", "true", 20, 0), &out) {
		t.Fatal("filtered session list should be invalidated")
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.SetNow(func() time.Time { return now })

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("expected live key before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected key to expire")
	}
}

func TestMemoryStore_IncrAndExpire(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := store.Incr(ctx, "counter")
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != int64(i) {
			t.Fatalf("incr #%d returned %d", i, n)
		}
	}

	now := time.Now()
	store.SetNow(func() time.Time { return now })
	if err := store.Expire(ctx, "counter", time.Minute); err != nil {
		t.Fatalf("expire: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if n, _ := store.Incr(ctx, "counter"); n != 1 {
		t.Fatalf("counter should restart after expiry, got %d", n)
	}
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"user:1:posts:*", "user:1:posts:limit:20:offset:0", true},
		{"user:1:posts:*", "user:2:posts:limit:20:offset:0", false},
		{"user:1:sessions*", "user:1:sessions:limit:20:skip:0", true},
		{"user:1:sessions*", "user:1:sessions:active:true:limit:20:skip:0", true},
		{"popular_tags:*", "popular_tags:limit:10", true},
		{"*", "anything", true},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"tag:*:posts:*", "tag:food:posts:limit:20:offset:0", true},
	}
	for _, tc := range cases {
		if got := globMatch(tc.pattern, tc.s); got != tc.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", tc.pattern, tc.s, got, tc.want)
		}
	}
}
