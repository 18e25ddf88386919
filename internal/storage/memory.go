package storage

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process state.KeyValue used by tests and local runs
// without a Redis. TTLs are honored lazily on read against Now, which tests
// may override to advance time deterministically.
type Memory struct {
	mu     sync.Mutex
	values map[string]memEntry
	hashes map[string]map[string]string

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

type memEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]memEntry),
		hashes: make(map[string]map[string]string),
		Now:    time.Now,
	}
}

func (m *Memory) expired(e memEntry) bool {
	return !e.expiresAt.IsZero() && !m.Now().Before(e.expiresAt)
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.values[key]
	if !ok || m.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.Now().Add(ttl)
	}
	m.values[key] = e
	return nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.values[key]; ok && !m.expired(e) {
		return false, nil
	}
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.Now().Add(ttl)
	}
	m.values[key] = e
	return true, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.hashes, k)
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.values[key]; ok && !m.expired(e) {
		return true, nil
	}
	if h, ok := m.hashes[key]; ok && len(h) > 0 {
		return true, nil
	}
	return false, nil
}

func (m *Memory) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *Memory) HGet(_ context.Context, key, field string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.hashes[key][field]
	return v, ok, nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	// Hash records carry no expiry in the in-memory impl; session TTL
	// semantics are exercised against Redis and via feedback_type keys here.
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.values[key]; ok {
		if ttl > 0 {
			e.expiresAt = m.Now().Add(ttl)
		} else {
			e.expiresAt = time.Time{}
		}
		m.values[key] = e
	}
	return nil
}
