// Package api provides the HTTP handlers of the dashboard query API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dashquery/internal/domain"
	"dashquery/internal/export"
	"dashquery/internal/service/dashboard"
)

const maxRequestBody = 1 << 20

// DashboardService is the dashboard use-case surface the handlers call.
type DashboardService interface {
	Explain(ctx context.Context, cfg domain.DashboardConfig) (*dashboard.QueryPlan, error)
	Execute(ctx context.Context, cfg domain.DashboardConfig) (*domain.PivotResponse, error)
	DescribeConditions(cfg domain.DashboardConfig) ([]domain.FilterCondition, error)
}

// SchemaCatalog lists and resolves data source schemas.
type SchemaCatalog interface {
	List() []domain.DataSourceSchema
	Resolve(dataSourceID string) (domain.DataSourceSchema, error)
}

// Handler serves the /v1 routes.
type Handler struct {
	dashboards   DashboardService
	schemas      SchemaCatalog
	logger       *slog.Logger
	queryTimeout time.Duration
}

// NewHandler creates a Handler. A zero queryTimeout leaves executions bound
// only by the request context.
func NewHandler(dashboards DashboardService, schemas SchemaCatalog, logger *slog.Logger, queryTimeout time.Duration) *Handler {
	return &Handler{
		dashboards:   dashboards,
		schemas:      schemas,
		logger:       logger.With("component", "api"),
		queryTimeout: queryTimeout,
	}
}

type listDataSourcesResponse struct {
	DataSources []domain.DataSourceSchema `json:"data_sources"`
}

type describeConditionsResponse struct {
	Conditions []domain.FilterCondition `json:"conditions"`
}

// ListDataSources handles GET /v1/data-sources.
func (h *Handler) ListDataSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listDataSourcesResponse{DataSources: h.schemas.List()})
}

// GetDataSource handles GET /v1/data-sources/{id}.
func (h *Handler) GetDataSource(w http.ResponseWriter, r *http.Request) {
	ds, err := h.schemas.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// ExplainDashboard handles POST /v1/dashboards/explain.
func (h *Handler) ExplainDashboard(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeConfig(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	plan, err := h.dashboards.Explain(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ExecuteDashboard handles POST /v1/dashboards/execute.
func (h *Handler) ExecuteDashboard(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.execute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportDashboard handles POST /v1/dashboards/export. The CSV is buffered so
// a failure can still be reported as a JSON error.
func (h *Handler) ExportDashboard(w http.ResponseWriter, r *http.Request) {
	opts := export.DefaultCSVOptions()
	switch r.URL.Query().Get("delimiter") {
	case ",":
		opts.Delimiter = ','
	case "tab":
		opts.Delimiter = '\t'
	}

	resp, ok := h.execute(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePivotCSV(&buf, resp, opts); err != nil {
		h.logger.Error("csv export failed", "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"dashboard.csv\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// DescribeConditions handles POST /v1/conditions/describe.
func (h *Handler) DescribeConditions(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeConfig(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	conds, err := h.dashboards.DescribeConditions(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describeConditionsResponse{Conditions: conds})
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) (*domain.PivotResponse, bool) {
	cfg, err := decodeConfig(w, r)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	ctx := r.Context()
	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}
	resp, err := h.dashboards.Execute(ctx, cfg)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return resp, true
}

func decodeConfig(w http.ResponseWriter, r *http.Request) (domain.DashboardConfig, error) {
	var cfg domain.DashboardConfig
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, &requestError{err: fmt.Errorf("decode dashboard config: %w", err)}
	}
	return cfg, nil
}
