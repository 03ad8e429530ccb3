package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffing/pkg/metrics"
)

func TestPrometheusController(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "staffing_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	c := metrics.NewPrometheusControllerFor("", reg)
	require.Equal(t, metrics.DefaultPath, c.Key())

	r := mux.NewRouter()
	c.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, metrics.DefaultPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "staffing_test_total 1")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, metrics.DefaultPath, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
