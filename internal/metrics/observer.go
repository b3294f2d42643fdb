package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Operation names used as the "operation" label.
const (
	OpSchema = "schema"
	OpSearch = "search"
	OpExport = "export"
	OpSave   = "saved_filters"
)

const (
	namespace = "varsearch"
	subsystem = "client"
)

// clientMetrics holds the collectors registered for engine operations.
type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	cache      *prometheus.CounterVec
	stale      *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Total engine operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_total",
			Help:      "Response cache lookups by result.",
		}, []string{"operation", "result"}), // "hit" / "miss"
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request superseded them.",
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.cache); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.stale); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metrics: already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("metrics: register: %w", err)
	}
	return nil
}

// Observer records logging and metrics for engine operations.
// A nil *Observer is valid and records nothing.
type Observer struct {
	logger  *zap.Logger
	metrics *clientMetrics
}

// NewObserver creates an Observer. A nil registerer disables metrics,
// a nil logger disables logging.
func NewObserver(logger *zap.Logger, reg prometheus.Registerer) (*Observer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var m *clientMetrics
	if reg != nil {
		var err error
		m, err = newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &Observer{logger: logger, metrics: m}, nil
}

// Observe records the outcome of one operation that started at start.
func (o *Observer) Observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if err != nil {
		o.logger.Warn("operation failed",
			zap.String("op", op),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return
	}
	o.logger.Debug("operation completed",
		zap.String("op", op),
		zap.Duration("duration", dur),
	)
}

// CacheLookup records a response cache hit or miss.
func (o *Observer) CacheLookup(op string, hit bool) {
	if o == nil || o.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	o.metrics.cache.WithLabelValues(op, result).Inc()
}

// StaleDiscarded records a response dropped because a newer one superseded it.
func (o *Observer) StaleDiscarded(op string) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.stale.WithLabelValues(op).Inc()
	}
	o.logger.Debug("stale response discarded", zap.String("op", op))
}
