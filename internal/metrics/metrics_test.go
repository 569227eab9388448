package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_ObserveExecution(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDashboard(reg)

	d.ObserveExecution("p904_sales_data", "ok", 20*time.Millisecond, 3)
	d.ObserveExecution("p904_sales_data", "ok", 10*time.Millisecond, 1)
	d.ObserveExecution("p904_sales_data", "data_error", time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(d.executions.WithLabelValues("p904_sales_data", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.executions.WithLabelValues("p904_sales_data", "data_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(d.duration))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	NewDashboard(reg).ObserveExecution("a", "ok", time.Millisecond, 1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dashquery_executions_total{data_source="a",outcome="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestDashboard_PivotRowsSkipsEmptyPivots(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDashboard(reg)
	d.ObserveExecution("a", "ok", time.Millisecond, 2)
	d.ObserveExecution("a", "ok", time.Millisecond, 0)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "dashquery_pivot_top_level_rows_count 1\n")
	assert.Contains(t, body, "dashquery_pivot_top_level_rows_sum 2\n")
}
