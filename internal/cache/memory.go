package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process LRU store bounded by the total size of the
// cached values.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*entry
	list     lruList
	size     int64
	maxBytes int64
	closed   bool

	// now is replaced in tests.
	now func() time.Time

	hits, misses, evictions uint64
}

// Stats reports Memory usage.
type Stats struct {
	Len       int
	Bytes     int64
	MaxBytes  int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewMemory returns a store holding at most maxBytes of values. A value
// larger than the budget is not stored. maxBytes <= 0 means unbounded.
func NewMemory(maxBytes int64) *Memory {
	return &Memory{
		entries:  make(map[string]*entry),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.drop(e)
		m.misses++
		return nil, false, nil
	}
	m.list.moveToFront(e)
	m.hits++
	return e.data, true, nil
}

// Set implements Store. The data is copied.
func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if old, ok := m.entries[key]; ok {
		m.drop(old)
	}
	n := int64(len(data))
	if m.maxBytes > 0 && n > m.maxBytes {
		return nil
	}

	e := &entry{key: key, data: slices.Clone(data)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	m.list.pushFront(e)
	m.size += n

	for m.maxBytes > 0 && m.size > m.maxBytes {
		m.drop(m.list.oldest())
		m.evictions++
	}
	return nil
}

// Close drops every entry. Later calls fail with ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	m.list = lruList{}
	m.size = 0
	return nil
}

// Stats returns a snapshot of the counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Len:       m.list.len,
		Bytes:     m.size,
		MaxBytes:  m.maxBytes,
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
	}
}

// drop removes e. Caller holds m.mu.
func (m *Memory) drop(e *entry) {
	m.list.remove(e)
	delete(m.entries, e.key)
	m.size -= int64(len(e.data))
}

var _ Store = (*Memory)(nil)
