package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/varsearch/internal/config"
	"github.com/kailas-cloud/varsearch/internal/dashboard"
	"github.com/kailas-cloud/varsearch/internal/db"
	dbFile "github.com/kailas-cloud/varsearch/internal/db/file"
	dbMemory "github.com/kailas-cloud/varsearch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/varsearch/internal/db/redis"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	"github.com/kailas-cloud/varsearch/internal/metrics"
	"github.com/kailas-cloud/varsearch/internal/transport/httpapi"
	exportuc "github.com/kailas-cloud/varsearch/internal/usecase/export"
	"github.com/kailas-cloud/varsearch/internal/usecase/filterstate"
	savedfilteruc "github.com/kailas-cloud/varsearch/internal/usecase/savedfilter"
	schemauc "github.com/kailas-cloud/varsearch/internal/usecase/schema"
	searchuc "github.com/kailas-cloud/varsearch/internal/usecase/search"
)

// app is the composition root of one CLI invocation.
type app struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	store    db.Store
	session  *dashboard.Session
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, reg *prometheus.Registry) (*app, error) {
	obs, err := metrics.NewObserver(logger, reg)
	if err != nil {
		return nil, fmt.Errorf("create observer: %w", err)
	}
	rt, err := metrics.InstrumentTransport(reg, http.DefaultTransport)
	if err != nil {
		return nil, fmt.Errorf("instrument transport: %w", err)
	}

	api := httpapi.New(cfg.API.BaseURL,
		httpapi.WithHTTPClient(&http.Client{Transport: rt}),
		httpapi.WithTimeout(cfg.API.Timeout()),
		httpapi.WithLogger(logger),
		httpapi.WithFilenamePrefix(cfg.Export.FilenamePrefix),
	)
	logger.Debug("api client ready", zap.String("base_url", api.BaseURL()))

	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	readiness := time.Duration(cfg.Storage.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("storage not ready: %w", err)
	}

	limits := request.Limits{Default: cfg.Search.DefaultLimit, Max: cfg.Search.MaxLimit}
	session, err := dashboard.New(dashboard.Deps{
		Schema:  schemauc.New(api, cfg.Schema.TTL(), schemauc.WithObserver(obs)),
		Filters: filterstate.New(limits),
		Search: searchuc.New(api,
			searchuc.WithCacheTTL(cfg.Search.CacheTTL()),
			searchuc.WithObserver(obs),
			searchuc.WithLogger(logger),
		),
		Export: exportuc.New(api, obs, logger),
		Saved: savedfilteruc.New(store,
			savedfilteruc.WithKey(cfg.Storage.Namespace),
			savedfilteruc.WithLogger(logger),
			savedfilteruc.WithObserver(obs),
		),
		Logger: logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		logger:   logger,
		registry: reg,
		store:    store,
		session:  session,
	}, nil
}

// openStore creates the saved filter backend selected by the config.
func openStore(cfg config.StorageConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = dbMemory.NewStore()
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case config.DriverFile, "":
		store, err = dbFile.NewStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}
	return store, nil
}

// Close releases the storage backend and flushes the logger.
func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}
