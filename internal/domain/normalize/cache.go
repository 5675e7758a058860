package normalize

import (
	"sync"
	"sync/atomic"
)

// lookup is one remembered played-at resolution. resolved is false for games
// that were looked up without finding a timestamp.
type lookup struct {
	epoch    int64
	resolved bool
}

// PlayedAtCache remembers played-at lookups by game token for the lifetime
// of one run. Unresolved lookups are remembered too so a failing game is
// asked for only once. Entries are never evicted.
type PlayedAtCache struct {
	mu   sync.RWMutex
	seen map[string]lookup
	size atomic.Int64
}

// NewPlayedAtCache creates an empty cache.
func NewPlayedAtCache() *PlayedAtCache {
	return &PlayedAtCache{seen: make(map[string]lookup)}
}

// Get returns the remembered lookup for token. found is false when the token
// was never looked up; resolved is false when it was looked up without result.
func (c *PlayedAtCache) Get(token string) (epoch int64, resolved, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, ok := c.seen[token]
	if !ok {
		return 0, false, false
	}
	return l.epoch, l.resolved, true
}

// Record stores the outcome of a lookup. The first recorded outcome for a
// token wins.
func (c *PlayedAtCache) Record(token string, epoch int64, resolved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[token]; ok {
		return
	}
	c.seen[token] = lookup{epoch: epoch, resolved: resolved}
	c.size.Add(1)
}

// Size returns the number of remembered tokens.
func (c *PlayedAtCache) Size() int64 {
	return c.size.Load()
}
