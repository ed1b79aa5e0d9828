// Package cache is a process-wide TTL cache for sheet reads. It is a
// latency shield in front of a rate-limited remote store, never a
// source of truth: every mutation invalidates the affected keys and a
// restart simply starts cold.
package cache

import (
	"strings"
	"sync"
	"time"
)

const (
	// HeaderPrefix marks keys holding sheet-level metadata that rarely
	// changes; everything else is treated as per-day activity data.
	HeaderPrefix = "headers"

	DefaultHeaderTTL = 10 * time.Minute
	DefaultDayTTL    = 30 * time.Second
)

type entry struct {
	data    any
	touched time.Time
}

// Cache maps string keys to values with a per-key TTL class derived
// from the key's own prefix. Construct with New and pass by handle;
// there is no package-level instance.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]entry
	headerTTL time.Duration
	dayTTL    time.Duration

	now func() time.Time
}

func New() *Cache {
	return NewWithTTL(DefaultHeaderTTL, DefaultDayTTL)
}

func NewWithTTL(headerTTL, dayTTL time.Duration) *Cache {
	return &Cache{
		entries:   make(map[string]entry),
		headerTTL: headerTTL,
		dayTTL:    dayTTL,
		now:       time.Now,
	}
}

// Get returns the cached value for key, or false if the key was never
// set or its TTL has elapsed. An expired entry is evicted on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.touched) >= c.ttlFor(key) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set stores data under key with a fresh timestamp, overwriting any
// prior entry.
func (c *Cache) Set(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, touched: c.now()}
}

// InvalidatePrefix removes every key containing substr. Day keys embed
// a unique day number ("day:3"), so a substring match targets exactly
// one day.
func (c *Cache) InvalidatePrefix(substr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.Contains(k, substr) {
			delete(c.entries, k)
		}
	}
}

// ttlFor couples the TTL class to the key naming convention: header
// keys are long-lived, day keys short-lived.
func (c *Cache) ttlFor(key string) time.Duration {
	if strings.HasPrefix(key, HeaderPrefix) {
		return c.headerTTL
	}
	return c.dayTTL
}
