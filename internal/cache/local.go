package cache

import (
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type localItem struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (i localItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// localStore is an LRU with per-entry expiry. Counters without a window
// live in counters, outside the LRU, so they are never evicted.
type localStore struct {
	mu       sync.Mutex // guards counters and serializes read-modify-write in incr
	lru      *lru.Cache[string, localItem]
	counters map[string]int64
}

func newLocalStore(size int) (*localStore, error) {
	if size <= 0 {
		size = 1024
	}
	l, err := lru.New[string, localItem](size)
	if err != nil {
		return nil, err
	}
	return &localStore{lru: l, counters: make(map[string]int64)}, nil
}

func (s *localStore) get(key string) (string, error) {
	s.mu.Lock()
	n, pinned := s.counters[key]
	s.mu.Unlock()
	if pinned {
		return strconv.FormatInt(n, 10), nil
	}

	item, ok := s.lru.Get(key)
	if !ok {
		return "", ErrCacheMiss
	}
	if item.expired(time.Now()) {
		s.lru.Remove(key)
		return "", ErrCacheMiss
	}
	return item.value, nil
}

func (s *localStore) set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	delete(s.counters, key)
	s.mu.Unlock()

	item := localItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	s.lru.Add(key, item)
}

func (s *localStore) incr(key string, window time.Duration) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if window <= 0 {
		return s.incrPinned(key)
	}

	now := time.Now()
	item, ok := s.lru.Get(key)
	if !ok || item.expired(now) {
		item = localItem{value: "0"}
		if window > 0 {
			item.expiresAt = now.Add(window)
		}
	}

	n, _ := strconv.ParseInt(item.value, 10, 64)
	n++
	item.value = strconv.FormatInt(n, 10)
	s.lru.Add(key, item)
	return n
}

// incrPinned bumps a counter that never expires. A value already in the
// LRU under key seeds the counter. Caller holds mu.
func (s *localStore) incrPinned(key string) int64 {
	n, ok := s.counters[key]
	if !ok {
		if item, found := s.lru.Peek(key); found && !item.expired(time.Now()) {
			n, _ = strconv.ParseInt(item.value, 10, 64)
		}
		s.lru.Remove(key)
	}
	n++
	s.counters[key] = n
	return n
}

func (s *localStore) remove(key string) {
	s.mu.Lock()
	delete(s.counters, key)
	s.mu.Unlock()
	s.lru.Remove(key)
}
