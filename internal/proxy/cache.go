package proxy

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// responseCache は設定サービスのレスポンスをTTL付きで保持する。
// 有効期限の判定には注入されたクロックを使う。
type responseCache struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

func newResponseCache(clock clockwork.Clock, ttl time.Duration) *responseCache {
	return &responseCache{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.body, true
}

func (c *responseCache) put(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		body:    body,
		expires: c.clock.Now().Add(c.ttl),
	}
}
