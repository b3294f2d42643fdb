// Package export runs exports with independent in-flight tracking per format.
package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/varsearch/internal/domain"
	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	"github.com/kailas-cloud/varsearch/internal/metrics"
)

// Engine tracks one current export per format. A CSV export never affects
// an XLSX one; a newer export of the same format supersedes the older one.
type Engine struct {
	api    Exporter
	obs    *metrics.Observer
	logger *zap.Logger

	mu      sync.Mutex
	gen     map[domexport.Format]uint64
	pending map[domexport.Format]bool
}

// New creates an export engine. obs and logger may be nil.
func New(api Exporter, obs *metrics.Observer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		api:     api,
		obs:     obs,
		logger:  logger,
		gen:     make(map[domexport.Format]uint64),
		pending: make(map[domexport.Format]bool),
	}
}

// Export fetches the payload for req. It blocks until the transport returns.
//
// Errors:
//   - domain.ErrSuperseded if a newer export of the same format started meanwhile
//   - *domain.ExportFailedError carrying the server message on transport failure
func (e *Engine) Export(ctx context.Context, req request.Export) (domexport.Download, error) {
	f := req.Format()
	if !f.IsValid() {
		return domexport.Download{}, fmt.Errorf("export: %w: %q", domain.ErrUnsupportedFormat, f)
	}

	e.mu.Lock()
	e.gen[f]++
	gen := e.gen[f]
	e.pending[f] = true
	e.mu.Unlock()

	start := time.Now()
	d, err := e.api.Export(ctx, req)
	e.obs.Observe(metrics.OpExport, start, err)

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen[f] {
		e.obs.StaleDiscarded(metrics.OpExport)
		return domexport.Download{}, fmt.Errorf("export %s: %w", f, domain.ErrSuperseded)
	}
	e.pending[f] = false

	if err != nil {
		return domexport.Download{}, &domain.ExportFailedError{
			Format:  string(f),
			Message: err.Error(),
			Err:     err,
		}
	}
	e.logger.Debug("export completed",
		zap.String("format", string(f)),
		zap.String("filename", d.Filename),
		zap.Int("bytes", len(d.Data)),
	)
	return d, nil
}

// Pending reports whether the current export of format f is in flight.
func (e *Engine) Pending(f domexport.Format) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[f]
}

// PendingFormats lists the formats with an export in flight.
func (e *Engine) PendingFormats() []domexport.Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domexport.Format
	for _, f := range domexport.Formats() {
		if e.pending[f] {
			out = append(out, f)
		}
	}
	return out
}
