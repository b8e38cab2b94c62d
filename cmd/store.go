package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/metrics"
	"github.com/sells-group/inventory-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "inventory.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// appEnv holds the wired service and what it owns.
type appEnv struct {
	Store   store.Store
	Service *inventory.Service
	Metrics *metrics.Metrics
}

func (e *appEnv) Close() {
	e.Store.Close() //nolint:errcheck
}

func initService(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	m := metrics.New(prometheus.NewRegistry(), cfg.Metrics.Namespace)
	svc, err := inventory.New(st, cfg, inventory.WithMetrics(m))
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return &appEnv{Store: st, Service: svc, Metrics: m}, nil
}
