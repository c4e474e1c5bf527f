// Package cache holds raw upstream responses for a bounded time so repeated
// questions within a batch, or across batches, skip the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type Entry struct {
	Value     json.RawMessage
	Source    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Config struct {
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
}

// TTLCache is a size-bounded map whose entries expire after TTL. When full,
// the oldest entry is evicted.
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewTTLCache(config Config) *TTLCache {
	if config.TTL <= 0 {
		config.TTL = 6 * time.Hour
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	return &TTLCache{
		entries:    make(map[string]Entry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        config.Now,
	}
}

func (c *TTLCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return Entry{}, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return Entry{}, false
	}
	return cloneEntry(entry), true
}

func (c *TTLCache) Set(key string, entry Entry) {
	now := c.now()
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(c.ttl)
	entry.Value = append([]byte(nil), entry.Value...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, replacing := c.entries[key]; !replacing && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry
}

func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Key hashes the case- and space-normalized parts into a stable cache key.
func Key(parts ...string) string {
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		normalized = append(normalized, strings.Join(strings.Fields(strings.ToLower(part)), " "))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "||")))
	return hex.EncodeToString(sum[:])
}

func (c *TTLCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.CreatedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = key, entry.CreatedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func cloneEntry(entry Entry) Entry {
	clone := entry
	clone.Value = append([]byte(nil), entry.Value...)
	return clone
}
