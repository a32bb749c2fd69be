package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	hash      map[string]string
	expiresAt time.Time // zero means no expiry
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// MemoryStore is an in-memory Store implementation used by tests and
// cache-less development setups. Expiry is enforced lazily on access.
type MemoryStore struct {
	mu   sync.Mutex
	m    map[string]*memEntry
	nowF func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]*memEntry),
		nowF: time.Now,
	}
}

// SetNow overrides the clock; tests use it to step past TTLs.
func (s *MemoryStore) SetNow(f func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowF = f
}

// live returns the entry for key if present and unexpired. Caller holds mu.
func (s *MemoryStore) live(key string) *memEntry {
	e, ok := s.m[key]
	if !ok {
		return nil
	}
	if e.expired(s.nowF()) {
		delete(s.m, key)
		return nil
	}
	return e
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.hash != nil {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.nowF().Add(ttl)
	}
	s.m[key] = e
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range keys {
		if s.live(k) != nil {
			delete(s.m, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.m {
		if s.live(k) == nil {
			continue
		}
		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *MemoryStore) Exists(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range keys {
		if s.live(k) != nil {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.live(key); e != nil {
		e.expiresAt = s.nowF().Add(ttl)
	}
	return nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		e = &memEntry{}
		s.m[key] = e
	}
	n, _ := strconv.ParseInt(e.value, 10, 64)
	n++
	e.value = strconv.FormatInt(n, 10)
	return n, nil
}

func (s *MemoryStore) HSet(ctx context.Context, key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.hash == nil {
		e = &memEntry{hash: make(map[string]string)}
		s.m[key] = e
	}
	e.hash[field] = value
	return nil
}

func (s *MemoryStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.hash == nil {
		return "", false, nil
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

func (s *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string)
	e := s.live(key)
	if e == nil || e.hash == nil {
		return out, nil
	}
	for k, v := range e.hash {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) HDel(ctx context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.hash == nil {
		return nil
	}
	for _, f := range fields {
		delete(e.hash, f)
	}
	if len(e.hash) == 0 {
		delete(s.m, key)
	}
	return nil
}

// globMatch reports whether s matches the Redis-style glob pattern. Only the
// '*' and '?' metacharacters are supported; that covers every pattern the
// key builders produce.
func globMatch(pattern, s string) bool {
	// Iterative matching with single-star backtracking.
	var pi, si int
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
