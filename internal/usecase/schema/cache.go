package schema

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/varsearch/internal/domain"
	domschema "github.com/kailas-cloud/varsearch/internal/domain/schema"
	"github.com/kailas-cloud/varsearch/internal/metrics"
)

// DefaultTTL is how long a fetched schema is served without refetching.
const DefaultTTL = 5 * time.Minute

const flightKey = "schema"

// Option configures the Cache.
type Option func(*Cache)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithObserver records fetch outcomes.
func WithObserver(o *metrics.Observer) Option {
	return func(c *Cache) { c.obs = o }
}

// Cache memoizes the field catalog for a freshness window.
// Concurrent loads share one in-flight fetch; failures are not cached.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	obs     *metrics.Observer
	group   singleflight.Group

	mu        sync.RWMutex
	current   domschema.Schema
	fetchedAt time.Time
	valid     bool
}

// New creates a schema cache. A non-positive ttl uses DefaultTTL.
func New(fetcher Fetcher, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{fetcher: fetcher, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load returns the cached schema while fresh, fetching it otherwise.
// On failure it returns an empty schema and an error wrapping
// domain.ErrSchemaUnavailable. Nothing retries automatically.
func (c *Cache) Load(ctx context.Context) (domschema.Schema, error) {
	if s, ok := c.fresh(); ok {
		return s, nil
	}

	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// A flight that finished between fresh() and Do already filled the cache.
		if s, ok := c.fresh(); ok {
			return s, nil
		}
		start := time.Now()
		s, err := c.fetcher.GetSchema(ctx)
		c.obs.Observe(metrics.OpSchema, start, err)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.current = s
		c.fetchedAt = c.now()
		c.valid = true
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return domschema.Empty(), fmt.Errorf("load schema: %w: %w", domain.ErrSchemaUnavailable, err)
	}
	return v.(domschema.Schema), nil
}

// Current returns the last successfully fetched schema, fresh or not.
// The bool is false when nothing was ever fetched.
func (c *Cache) Current() (domschema.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return domschema.Empty(), false
	}
	return c.current, true
}

// Invalidate forces the next Load to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) fresh() (domschema.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || c.fetchedAt.IsZero() || c.now().Sub(c.fetchedAt) >= c.ttl {
		return domschema.Schema{}, false
	}
	return c.current, true
}
