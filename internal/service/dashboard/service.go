// Package dashboard compiles dashboard configurations into SQL, runs them and
// assembles the flat result into a pivot tree.
package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"dashquery/internal/condition"
	"dashquery/internal/domain"
	"dashquery/internal/schema"
)

// Querier runs a parameterized query. *sql.DB and *sql.Conn satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Recorder observes executed dashboard queries.
type Recorder interface {
	ObserveExecution(dataSourceID, outcome string, elapsed time.Duration, rows int)
}

// Execution outcomes reported to a Recorder.
const (
	OutcomeOK          = "ok"
	OutcomeConfigError = "config_error"
	OutcomeDataError   = "data_error"
	OutcomeCanceled    = "canceled"
)

type nopRecorder struct{}

func (nopRecorder) ObserveExecution(string, string, time.Duration, int) {}

// Service executes dashboards against one row source. It holds no mutable
// state and is safe for concurrent use.
type Service struct {
	registry *schema.Registry
	db       Querier
	logger   *slog.Logger
	now      func() time.Time
	metrics  Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock date presets are resolved against.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics sets the execution recorder.
func WithMetrics(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// NewService creates a dashboard Service.
func NewService(registry *schema.Registry, db Querier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		db:       db,
		logger:   logger.With("component", "dashboard"),
		now:      time.Now,
		metrics:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Explain compiles cfg without touching the database.
func (s *Service) Explain(_ context.Context, cfg domain.DashboardConfig) (*QueryPlan, error) {
	ds, err := s.registry.Resolve(cfg.DataSourceID)
	if err != nil {
		return nil, err
	}
	return BuildQuery(ds, cfg, s.now())
}

// Execute compiles and runs cfg and returns the complete pivot. Driver
// failures are logged with the generated SQL and returned as
// *domain.DataError.
func (s *Service) Execute(ctx context.Context, cfg domain.DashboardConfig) (*domain.PivotResponse, error) {
	start := time.Now()
	plan, err := s.Explain(ctx, cfg)
	if err != nil {
		s.metrics.ObserveExecution(cfg.DataSourceID, OutcomeConfigError, time.Since(start), 0)
		return nil, err
	}

	logger := s.logger.With("data_source_id", plan.DataSourceID)
	rows, err := s.db.QueryContext(ctx, plan.SQL, plan.Params...)
	if err != nil {
		return nil, s.dataError(ctx, logger, plan, "query", err, start)
	}
	defer rows.Close() //nolint:errcheck

	resp, err := AssemblePivot(plan, rows)
	if err != nil {
		return nil, s.dataError(ctx, logger, plan, "scan", err, start)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveExecution(plan.DataSourceID, OutcomeOK, elapsed, len(resp.Groups()))
	logger.Debug("dashboard executed", "rows", len(resp.Rows), "duration", elapsed)
	return resp, nil
}

func (s *Service) dataError(ctx context.Context, logger *slog.Logger, plan *QueryPlan, op string, err error, start time.Time) error {
	outcome := OutcomeDataError
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		outcome = OutcomeCanceled
	}
	s.metrics.ObserveExecution(plan.DataSourceID, outcome, time.Since(start), 0)
	logger.Error("dashboard query failed",
		"op", op, "sql", plan.SQL, "params", plan.Params, "error", err)
	return &domain.DataError{Op: op, Err: err}
}

// DescribeConditions returns the conditions of cfg with regenerated display
// text. Conditions on unknown fields are captioned by their field id.
func (s *Service) DescribeConditions(cfg domain.DashboardConfig) ([]domain.FilterCondition, error) {
	ds, err := s.registry.Resolve(cfg.DataSourceID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FilterCondition, 0, len(cfg.Conditions))
	for _, cond := range cfg.Conditions {
		name := cond.FieldID
		if f, ok := ds.Field(cond.FieldID); ok {
			name = f.Title()
			if cond.ValueType.IsZero() {
				cond.ValueType = f.ValueType
			}
		}
		cond.SQLFragment = nil
		condition.Refresh(&cond, name)
		out = append(out, cond)
	}
	return out, nil
}
