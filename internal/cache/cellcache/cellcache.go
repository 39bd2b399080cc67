// Package cellcache is an in-memory LRU cellset cache with optional TTL expiry.
package cellcache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/keys"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/observability"
)

const (
	DefaultMaxItems = 1024
	DefaultTTL      = time.Hour
)

// Config bounds the cache. TTL == 0 disables expiry; a negative TTL is rejected.
type Config struct {
	MaxItems int
	TTL      time.Duration
}

type Option func(*Cache)

// WithClock injects the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Expired   uint64
	Evictions uint64
	Entries   int
}

type entry struct {
	members   []string
	createdAt time.Time
	expiresAt time.Time // zero means never
}

// Cache serializes every operation under one mutex; recency is tracked by
// simplelru, expiry is checked lazily on access and in Prune.
type Cache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, entry]
	maxItems int
	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger

	expiring bool
	stats    Stats
}

var _ cache.Interface = (*Cache)(nil)

func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.MaxItems < 1 {
		return nil, apperr.Config("max_items must be >= 1 (got %d)", cfg.MaxItems)
	}
	if cfg.TTL < 0 {
		return nil, apperr.Config("ttl must be > 0 when set (got %s)", cfg.TTL)
	}
	c := &Cache{
		maxItems: cfg.MaxItems,
		ttl:      cfg.TTL,
		now:      time.Now,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	l, err := simplelru.NewLRU[string, entry](cfg.MaxItems, c.onEvict)
	if err != nil {
		return nil, apperr.Config("lru: %v", err)
	}
	c.lru = l
	return c, nil
}

// Put canonicalizes members, stores them under their content handle with a
// fresh TTL window and marks the entry most recently used.
func (c *Cache) Put(members []string) string {
	canonical := slices.Compact(slices.Sorted(slices.Values(members)))
	handle := keys.Handle(canonical)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := entry{members: canonical, createdAt: now}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	c.lru.Add(handle, e)
	observability.SetCellsetEntries(c.lru.Len())
	return handle
}

// Get returns a copy of the canonical members, or false when the handle is
// unknown, evicted or expired.
func (c *Cache) Get(handle string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.evictIfExpired(handle, c.now()) {
		c.stats.Misses++
		observability.ObserveCellsetLookup("expired")
		return nil, false
	}
	e, ok := c.lru.Get(handle)
	if !ok {
		c.stats.Misses++
		observability.ObserveCellsetLookup("miss")
		return nil, false
	}
	c.stats.Hits++
	observability.ObserveCellsetLookup("hit")
	return slices.Clone(e.members), true
}

// Len purges expired entries and reports the live count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeExpired(c.now())
	return c.lru.Len()
}

// Prune purges expired entries, then enforces the size bound.
func (c *Cache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeExpired(c.now())
	for c.lru.Len() > c.maxItems {
		c.lru.RemoveOldest()
	}
	observability.SetCellsetEntries(c.lru.Len())
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeExpired(c.now())
	s := c.stats
	s.Entries = c.lru.Len()
	return s
}

// RunJanitor prunes on every tick until ctx is done.
func (c *Cache) RunJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Prune()
		}
	}
}

// evictIfExpired is the single expiry check; callers hold c.mu.
func (c *Cache) evictIfExpired(handle string, now time.Time) bool {
	e, ok := c.lru.Peek(handle)
	if !ok || e.expiresAt.IsZero() || now.Before(e.expiresAt) {
		return false
	}
	c.expiring = true
	c.lru.Remove(handle)
	c.expiring = false
	c.stats.Expired++
	observability.SetCellsetEntries(c.lru.Len())
	return true
}

func (c *Cache) purgeExpired(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for _, h := range c.lru.Keys() {
		c.evictIfExpired(h, now)
	}
}

// onEvict runs under c.mu for every removal; expiry removals are not evictions.
func (c *Cache) onEvict(handle string, e entry) {
	if c.expiring {
		return
	}
	c.stats.Evictions++
	observability.IncCellsetEvictions()
	c.log.Debug("cellset evicted",
		"handle", handle,
		"members", len(e.members),
		"age", c.now().Sub(e.createdAt).String())
}
