// Package savedfilter keeps named filter presets, most recent first, in a
// single key of a key-value backend.
package savedfilter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/varsearch/internal/db"
	"github.com/kailas-cloud/varsearch/internal/domain"
	domsaved "github.com/kailas-cloud/varsearch/internal/domain/savedfilter"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	"github.com/kailas-cloud/varsearch/internal/metrics"
)

// DefaultKey is the storage key holding the whole collection.
const DefaultKey = "codex:saved-filters"

// Option configures the Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for malformed data warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver records persistence metrics.
func WithObserver(o *metrics.Observer) Option {
	return func(s *Store) { s.obs = o }
}

// WithClock overrides time.Now for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides uuid.NewString.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store is the saved filter collection. Every mutation writes the whole
// collection; if the write fails the in-memory change is rolled back.
type Store struct {
	storage Storage
	key     string
	logger  *zap.Logger
	obs     *metrics.Observer
	now     func() time.Time
	newID   func() string

	mu     sync.RWMutex
	items  []domsaved.SavedFilter
	loaded bool
}

// New creates a store over storage. Call Load before reading.
func New(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads the collection from storage. Malformed data is logged and
// replaced by an empty collection; only storage failures are returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) error {
	s.items = nil
	s.loaded = false

	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, db.ErrKeyNotFound) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("load saved filters: %w", err)
	}

	var items []domsaved.SavedFilter
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("malformed saved filters, starting empty",
			zap.String("key", s.key),
			zap.Error(err),
		)
		s.loaded = true
		return nil
	}

	valid := make([]domsaved.SavedFilter, 0, len(items))
	for _, it := range items {
		if it.ID == "" || it.Name == "" {
			s.logger.Warn("skipping saved filter without id or name", zap.String("key", s.key))
			continue
		}
		valid = append(valid, it)
	}
	s.items = valid
	s.loaded = true
	return nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.load(ctx)
}

// List returns copies of all entries, most recent first.
func (s *Store) List() []domsaved.SavedFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domsaved.SavedFilter, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Get returns a copy of the entry with id.
func (s *Store) Get(id string) (domsaved.SavedFilter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return domsaved.SavedFilter{}, fmt.Errorf("saved filter %q: %w", id, domain.ErrNotFound)
	}
	return s.items[i].Clone(), nil
}

// Create prepends a new entry. A blank name is rejected silently:
// created is false and err is nil. A payload with neither a query nor a
// filter fails with domain.ErrEmptyQuery.
func (s *Store) Create(ctx context.Context, name string, payload request.Request) (domsaved.SavedFilter, bool, error) {
	if isBlank(name) {
		return domsaved.SavedFilter{}, false, nil
	}
	if strings.TrimSpace(payload.Query()) == "" && len(payload.Filters()) == 0 {
		return domsaved.SavedFilter{}, false, domain.NewEmptyQuery()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return domsaved.SavedFilter{}, false, err
	}

	sf, err := domsaved.New(s.newID(), name, payload, s.now())
	if err != nil {
		return domsaved.SavedFilter{}, false, &domain.ValidationError{Field: "name", Reason: err.Error()}
	}
	sf = sf.Clone()

	prev := s.items
	s.items = append([]domsaved.SavedFilter{sf}, prev...)
	if err := s.persist(ctx); err != nil {
		s.items = prev
		return domsaved.SavedFilter{}, false, err
	}
	return sf.Clone(), true, nil
}

// Remove deletes the entry with id. Removing a missing id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.index(id)
	if i < 0 {
		return nil
	}
	prev := s.items
	s.items = slices.Delete(slices.Clone(prev), i, i+1)
	if err := s.persist(ctx); err != nil {
		s.items = prev
		return err
	}
	return nil
}

// Update renames the entry with id. Payload and createdAt are untouched.
func (s *Store) Update(ctx context.Context, id, name string) (domsaved.SavedFilter, error) {
	normalized, err := domsaved.NormalizeName(name)
	if err != nil {
		return domsaved.SavedFilter{}, &domain.ValidationError{Field: "name", Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return domsaved.SavedFilter{}, err
	}

	i := s.index(id)
	if i < 0 {
		return domsaved.SavedFilter{}, fmt.Errorf("saved filter %q: %w", id, domain.ErrNotFound)
	}
	prev := s.items
	s.items = slices.Clone(prev)
	s.items[i].Name = normalized
	if err := s.persist(ctx); err != nil {
		s.items = prev
		return domsaved.SavedFilter{}, err
	}
	return s.items[i].Clone(), nil
}

// persist writes the whole collection. Caller holds s.mu.
func (s *Store) persist(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []domsaved.SavedFilter{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode saved filters: %w", err)
	}
	start := time.Now()
	err = s.storage.Set(ctx, s.key, data)
	s.obs.Observe(metrics.OpSave, start, err)
	if err != nil {
		return fmt.Errorf("persist saved filters: %w", err)
	}
	return nil
}

// index returns the position of id or -1. Caller holds s.mu.
func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(it domsaved.SavedFilter) bool { return it.ID == id })
}

func isBlank(name string) bool { return strings.TrimSpace(name) == "" }
