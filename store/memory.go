package store

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries is the capacity of the memory cache
	DefaultMaxEntries = 10000
	// sweepInterval is the minimal period between sweeps of expired entries
	sweepInterval = time.Minute
)

type entry struct {
	value   string
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

type inMemory struct {
	mu         sync.RWMutex
	storage    map[string]entry
	maxEntries int
	nextSweep  time.Time
	now        func() time.Time
}

// MemoryOption configures the memory cache
type MemoryOption func(*inMemory)

// WithMaxEntries limits the number of cached entries,
// the entry closest to expiration is evicted when the cache is full.
func WithMaxEntries(n int) MemoryOption {
	return func(m *inMemory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// NewMemoryCache returns a process local Cache.
// Expired entries are removed on read, and swept on write at most once per minute.
func NewMemoryCache(opts ...MemoryOption) Cache {
	m := &inMemory{
		storage:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *inMemory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.storage[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		// check again, the entry could be replaced
		if cur, ok := m.storage[key]; ok && cur == e {
			delete(m.storage, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *inMemory) Put(_ context.Context, key, value string, ttl time.Duration) error {
	now := m.now()
	e := entry{value: value}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.storage[key]
	full := !exists && len(m.storage) >= m.maxEntries
	if full || !now.Before(m.nextSweep) {
		m.sweep(now)
	}
	if !exists && len(m.storage) >= m.maxEntries {
		m.evict()
	}
	m.storage[key] = e
	return nil
}

func (m *inMemory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.storage, key)
	return nil
}

// sweep removes expired entries, called with the lock held
func (m *inMemory) sweep(now time.Time) {
	for key, e := range m.storage {
		if e.expired(now) {
			delete(m.storage, key)
		}
	}
	m.nextSweep = now.Add(sweepInterval)
}

// evict removes the entry closest to expiration,
// entries without expiration go last. Called with the lock held.
func (m *inMemory) evict() {
	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for key, e := range m.storage {
		switch {
		case !found:
		case e.expires.IsZero():
			continue
		case !soonest.IsZero() && !e.expires.Before(soonest):
			continue
		}
		victim, soonest, found = key, e.expires, true
	}
	if found {
		delete(m.storage, victim)
	}
}
