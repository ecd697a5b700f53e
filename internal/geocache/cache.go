// Package geocache memoizes geocoding results per query string for a fixed time.
package geocache

import (
	"context"
	"sync"
	"time"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

// DefaultTTL is how long a cached result stays valid.
const DefaultTTL = 5 * time.Minute

// Cache stores geocoding results keyed by the exact query text.
type Cache interface {
	Get(ctx context.Context, query string) (*models.Place, bool)
	Put(ctx context.Context, query string, place models.Place)
}

type entry struct {
	place     models.Place
	expiresAt time.Time
	timer     *time.Timer
}

// Memory is an in-process cache. Entries are removed by a timer armed on
// Put; the size is never bounded, only the age.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-process cache. Non-positive ttl falls back to DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached result. Keys are case and whitespace sensitive.
func (c *Memory) Get(_ context.Context, query string) (*models.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[query]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.evictLocked(query, e)
		return nil, false
	}

	place := clonePlace(e.place)

	return &place, true
}

// Put stores the result and (re)starts its own expiry timer.
func (c *Memory) Put(_ context.Context, query string, place models.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[query]; ok {
		old.timer.Stop()
	}

	e := &entry{place: clonePlace(place), expiresAt: c.now().Add(c.ttl)}
	e.timer = time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// a newer Put may have replaced this entry
		if cur, ok := c.entries[query]; ok && cur == e {
			delete(c.entries, query)
		}
	})
	c.entries[query] = e
}

// Len returns the number of stored entries, expired or not.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Flush stops every timer and empties the cache.
func (c *Memory) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for query, e := range c.entries {
		c.evictLocked(query, e)
	}
}

func (c *Memory) evictLocked(query string, e *entry) {
	e.timer.Stop()
	delete(c.entries, query)
}

func clonePlace(p models.Place) models.Place {
	if p.Address != nil {
		addr := make(map[string]string, len(p.Address))
		for k, v := range p.Address {
			addr[k] = v
		}
		p.Address = addr
	}

	return p
}
