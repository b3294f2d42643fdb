// Package search runs searches asynchronously and guarantees that only the
// response of the latest request becomes visible.
package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/varsearch/internal/domain"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	"github.com/kailas-cloud/varsearch/internal/domain/search/response"
	"github.com/kailas-cloud/varsearch/internal/metrics"
)

// DefaultCacheTTL is how long an identical request is served from memory.
const DefaultCacheTTL = 30 * time.Second

const maxCacheEntries = 64

type cacheEntry struct {
	resp     response.Response
	storedAt time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithCacheTTL sets the response cache lifetime. Zero disables the cache.
func WithCacheTTL(d time.Duration) Option {
	return func(e *Engine) { e.cacheTTL = d }
}

// WithClock overrides time.Now for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithObserver records operation metrics.
func WithObserver(o *metrics.Observer) Option {
	return func(e *Engine) { e.obs = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine is the Idle → Pending → {Success, Error} state machine.
// Every Search bumps a generation counter; a completion is applied only if
// its generation is still current.
type Engine struct {
	api      Searcher
	cacheTTL time.Duration
	now      func() time.Time
	obs      *metrics.Observer
	logger   *zap.Logger

	mu    sync.Mutex
	gen   uint64
	state State
	cache map[string]cacheEntry
}

// New creates an idle engine.
func New(api Searcher, opts ...Option) *Engine {
	e := &Engine{
		api:      api,
		cacheTTL: DefaultCacheTTL,
		now:      time.Now,
		logger:   zap.NewNop(),
		cache:    make(map[string]cacheEntry),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Search makes req the current request and fetches it in the background.
// The returned channel is closed once this request has settled, whether its
// result was applied or discarded. A cache hit settles before Search returns.
func (e *Engine) Search(ctx context.Context, req request.Request) <-chan struct{} {
	done := make(chan struct{})
	key := req.Key()

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.state.Request = req

	if resp, ok := e.cached(key); ok {
		e.apply(resp, nil)
		e.mu.Unlock()
		e.obs.CacheLookup(metrics.OpSearch, true)
		e.logger.Debug("search served from cache", zap.String("key", key))
		close(done)
		return done
	}

	e.state.Status = StatusPending
	e.state.IsFetching = true
	e.state.Err = nil
	e.mu.Unlock()
	e.obs.CacheLookup(metrics.OpSearch, false)

	go func() {
		defer close(done)

		start := time.Now()
		resp, err := e.api.Search(ctx, req)
		e.obs.Observe(metrics.OpSearch, start, err)

		e.mu.Lock()
		defer e.mu.Unlock()

		if err == nil {
			e.store(key, resp)
		}
		if gen != e.gen {
			e.obs.StaleDiscarded(metrics.OpSearch)
			return
		}
		if err != nil {
			e.apply(response.Response{}, &domain.SearchFailedError{Err: err})
			return
		}
		e.apply(resp, nil)
	}()
	return done
}

// Clear returns to Idle and discards any in-flight result.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.gen++
	e.state = State{Status: StatusIdle}
	e.mu.Unlock()
}

// State returns a copy of the visible state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// apply settles the current request. On error the previous response stays.
// Caller holds e.mu.
func (e *Engine) apply(resp response.Response, err error) {
	e.state.IsFetching = false
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = err
		return
	}
	e.state.Status = StatusSuccess
	e.state.Response = resp
	e.state.HasResult = true
	e.state.Err = nil
}

// cached returns a fresh cached response. Caller holds e.mu.
func (e *Engine) cached(key string) (response.Response, bool) {
	if e.cacheTTL <= 0 {
		return response.Response{}, false
	}
	entry, ok := e.cache[key]
	if !ok {
		return response.Response{}, false
	}
	if e.now().Sub(entry.storedAt) >= e.cacheTTL {
		delete(e.cache, key)
		return response.Response{}, false
	}
	return entry.resp, true
}

// store caches resp, evicting expired entries and then the oldest one when
// the cache is full. Caller holds e.mu.
func (e *Engine) store(key string, resp response.Response) {
	if e.cacheTTL <= 0 {
		return
	}
	now := e.now()
	if len(e.cache) >= maxCacheEntries {
		var oldestKey string
		var oldest time.Time
		for k, v := range e.cache {
			if now.Sub(v.storedAt) >= e.cacheTTL {
				delete(e.cache, k)
				continue
			}
			if oldestKey == "" || v.storedAt.Before(oldest) {
				oldestKey, oldest = k, v.storedAt
			}
		}
		if len(e.cache) >= maxCacheEntries {
			delete(e.cache, oldestKey)
		}
	}
	e.cache[key] = cacheEntry{resp: resp, storedAt: now}
}
