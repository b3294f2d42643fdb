// Package dashboard composes the schema cache, filter state, search and
// export engines and the saved filter store into one interactive session.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/varsearch/internal/domain"
	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	domsaved "github.com/kailas-cloud/varsearch/internal/domain/savedfilter"
	domschema "github.com/kailas-cloud/varsearch/internal/domain/schema"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	exportuc "github.com/kailas-cloud/varsearch/internal/usecase/export"
	"github.com/kailas-cloud/varsearch/internal/usecase/filterstate"
	savedfilteruc "github.com/kailas-cloud/varsearch/internal/usecase/savedfilter"
	schemauc "github.com/kailas-cloud/varsearch/internal/usecase/schema"
	searchuc "github.com/kailas-cloud/varsearch/internal/usecase/search"
)

// Deps are the components a Session drives.
type Deps struct {
	Schema  *schemauc.Cache
	Filters *filterstate.State
	Search  *searchuc.Engine
	Export  *exportuc.Engine
	Saved   *savedfilteruc.Store
	Logger  *zap.Logger
}

// Session implements the dashboard actions.
type Session struct {
	schemas *schemauc.Cache
	filters *filterstate.State
	search  *searchuc.Engine
	exports *exportuc.Engine
	saved   *savedfilteruc.Store
	logger  *zap.Logger

	mu        sync.RWMutex
	schema    domschema.Schema
	schemaErr error
}

// New creates a session. Every dependency except Logger is required.
func New(d Deps) (*Session, error) {
	if d.Schema == nil || d.Filters == nil || d.Search == nil || d.Export == nil || d.Saved == nil {
		return nil, fmt.Errorf("dashboard: missing dependency")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		schemas: d.Schema,
		filters: d.Filters,
		search:  d.Search,
		exports: d.Export,
		saved:   d.Saved,
		logger:  logger,
		schema:  domschema.Empty(),
	}, nil
}

// LoadSchema loads the field catalog. On failure the session keeps working
// with an empty schema and the error is also visible in Snapshot.
func (s *Session) LoadSchema(ctx context.Context) (domschema.Schema, error) {
	sch, err := s.schemas.Load(ctx)
	s.mu.Lock()
	s.schema, s.schemaErr = sch, err
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("schema unavailable", zap.Error(err))
	}
	return sch, err
}

// RetrySchema drops the cached catalog and fetches it again.
func (s *Session) RetrySchema(ctx context.Context) (domschema.Schema, error) {
	s.schemas.Invalidate()
	return s.LoadSchema(ctx)
}

// Schema returns the schema from the last LoadSchema.
func (s *Session) Schema() domschema.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

// SetQuery sets the free-text query.
func (s *Session) SetQuery(q string) { s.filters.SetQuery(q) }

// SetValue sets raw input for a field.
func (s *Session) SetValue(name string, raw any) { s.filters.SetValue(name, raw) }

// SetLimit sets the page size.
func (s *Session) SetLimit(n int) { s.filters.SetLimit(n) }

// Search validates the filter form and starts a search. A validation error
// is returned before anything is sent.
func (s *Session) Search(ctx context.Context) (<-chan struct{}, error) {
	req, err := s.filters.ToRequest(s.Schema(), 0)
	if err != nil {
		return nil, err
	}
	return s.search.Search(ctx, req), nil
}

// Clear resets the filter form and the visible results.
func (s *Session) Clear() {
	s.filters.Clear()
	s.search.Clear()
}

// SaveCurrent stores the current form as a preset. The form must hold a
// query or at least one active filter.
func (s *Session) SaveCurrent(ctx context.Context, name string) (domsaved.SavedFilter, bool, error) {
	req, err := s.filters.ToRequest(s.Schema(), 0)
	if err != nil {
		return domsaved.SavedFilter{}, false, err
	}
	return s.saved.Create(ctx, name, req)
}

// ApplySaved copies a preset into the form and searches with it. Stored
// payloads are revalidated like any form input: the limit is clamped and a
// validation error is returned before anything is sent.
func (s *Session) ApplySaved(ctx context.Context, id string) (<-chan struct{}, error) {
	sf, err := s.saved.Get(id)
	if err != nil {
		return nil, err
	}
	s.filters.Apply(sf.Payload)
	return s.Search(ctx)
}

// RemoveSaved deletes a preset.
func (s *Session) RemoveSaved(ctx context.Context, id string) error {
	return s.saved.Remove(ctx, id)
}

// RenameSaved renames a preset.
func (s *Session) RenameSaved(ctx context.Context, id, name string) (domsaved.SavedFilter, error) {
	return s.saved.Update(ctx, id, name)
}

// LoadSaved reads the persisted presets. Malformed data yields an empty list.
func (s *Session) LoadSaved(ctx context.Context) error {
	return s.saved.Load(ctx)
}

// SavedFilters lists presets, most recent first.
func (s *Session) SavedFilters() []domsaved.SavedFilter { return s.saved.List() }

// Export exports the current form in format f. A prior search is not needed.
func (s *Session) Export(ctx context.Context, f domexport.Format) (domexport.Download, error) {
	req, err := s.filters.ToExportRequest(s.Schema(), f)
	if err != nil {
		return domexport.Download{}, err
	}
	return s.exports.Export(ctx, req)
}

// ExportAll runs one export per format in parallel. Downloads are returned
// in the order of formats. The first failure cancels the others.
func (s *Session) ExportAll(ctx context.Context, formats ...domexport.Format) ([]domexport.Download, error) {
	if len(formats) == 0 {
		formats = domexport.Formats()
	}
	reqs := make([]request.Export, len(formats))
	for i, f := range formats {
		req, err := s.filters.ToExportRequest(s.Schema(), f)
		if err != nil {
			return nil, err
		}
		reqs[i] = req
	}

	out := make([]domexport.Download, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			d, err := s.exports.Export(gctx, req)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	Schema    domschema.Schema
	SchemaErr error
	Form      filterstate.Snapshot
	Search    searchuc.State
	Exporting []domexport.Format
	Saved     []domsaved.SavedFilter
}

// SchemaUnavailable reports whether the last schema load failed.
func (s Snapshot) SchemaUnavailable() bool {
	return errors.Is(s.SchemaErr, domain.ErrSchemaUnavailable)
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	sch, schErr := s.schema, s.schemaErr
	s.mu.RUnlock()
	return Snapshot{
		Schema:    sch,
		SchemaErr: schErr,
		Form:      s.filters.Snapshot(),
		Search:    s.search.State(),
		Exporting: s.exports.PendingFormats(),
		Saved:     s.saved.List(),
	}
}
