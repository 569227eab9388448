// Package app wires configuration, the row source, the schema registry and
// the dashboard service into one application value.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"dashquery/internal/config"
	"dashquery/internal/db"
	"dashquery/internal/metrics"
	"dashquery/internal/schema"
	"dashquery/internal/service/dashboard"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Registry   *schema.Registry
	Source     *db.Source
	Dashboards *dashboard.Service
	Prometheus *prometheus.Registry
}

// New opens the row source, prepares its tables, optionally seeds demo data
// and builds the dashboard service. The caller must Close the App.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger

	registry, err := LoadRegistry(cfg.SchemaDir)
	if err != nil {
		return nil, err
	}
	logger.Info("schema registry loaded", "data_sources", registry.Len(), "schema_dir", cfg.SchemaDir)

	src, err := db.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s database %s: %w", cfg.DBDriver, cfg.DBPath, err)
	}
	if err := db.Prepare(ctx, src.Driver, src.Writer); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("prepare database: %w", err)
	}
	if cfg.SeedDemo {
		seeded, err := db.SeedDemo(ctx, src.Writer)
		if err != nil {
			_ = src.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		if seeded {
			logger.Info("demo marketplace data seeded", "rows", len(db.DemoSales))
		}
	}

	promReg := metrics.NewRegistry()
	svc := dashboard.NewService(registry, src.Reader, logger,
		dashboard.WithMetrics(metrics.NewDashboard(promReg)))

	return &App{
		Registry:   registry,
		Source:     src,
		Dashboards: svc,
		Prometheus: promReg,
	}, nil
}

// LoadRegistry builds the registry from the built-in schemas plus every
// schema found in dir. An empty dir adds nothing.
func LoadRegistry(dir string) (*schema.Registry, error) {
	b := schema.NewBuilder()
	for _, s := range schema.Builtin() {
		if err := b.Register(s); err != nil {
			return nil, fmt.Errorf("register built-in schema: %w", err)
		}
	}
	if dir != "" {
		extra, err := schema.LoadDirectory(dir)
		if err != nil {
			return nil, fmt.Errorf("load schemas: %w", err)
		}
		for _, s := range extra {
			if err := b.Register(s); err != nil {
				return nil, fmt.Errorf("register schema from %s: %w", dir, err)
			}
		}
	}
	return b.Build(), nil
}

// Ping checks that the row source answers.
func (a *App) Ping(ctx context.Context) error {
	return a.Source.Reader.PingContext(ctx)
}

// Close releases the database pools.
func (a *App) Close() error {
	return a.Source.Close()
}
