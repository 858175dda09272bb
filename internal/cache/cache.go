// Package cache stores serialized prediction responses keyed by the
// hash of the uploaded image, so repeated uploads skip the forward pass.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache is a bounded TTL key/value store for response payloads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Key derives the cache key from the raw upload bytes.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return "predict:" + hex.EncodeToString(sum[:])
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is the in-process fallback used when no Redis address is
// configured. Eviction is lazy plus a full sweep when the map is full.
type Memory struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]memoryEntry
}

const defaultMaxEntries = 512

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
		entries:    make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxEntries {
		now := time.Now()
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
		// Still full after sweeping expired entries: drop everything
		// rather than grow without bound.
		if len(m.entries) >= m.maxEntries {
			m.entries = make(map[string]memoryEntry)
		}
	}

	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(m.ttl)}
}
