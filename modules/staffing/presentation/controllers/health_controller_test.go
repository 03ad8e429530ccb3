package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func ok(context.Context) error { return nil }

func serve(t *testing.T, c *HealthController) (int, healthResponse) {
	t.Helper()
	r := mux.NewRouter()
	c.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestHealthController(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	slow := func(context.Context) error {
		clock.Advance(time.Second)
		return nil
	}
	failing := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name     string
		database pingFunc
		cache    pingFunc
		code     int
		status   healthStatus
	}{
		{name: "healthy", database: ok, cache: ok, code: http.StatusOK, status: healthStatusHealthy},
		{name: "slow database", database: slow, cache: ok, code: http.StatusOK, status: healthStatusDegraded},
		{name: "cache down", database: ok, cache: failing, code: http.StatusOK, status: healthStatusDegraded},
		{name: "database down", database: failing, cache: ok, code: http.StatusServiceUnavailable, status: healthStatusDown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewHealthController(tc.database, tc.cache, clock).(*HealthController)
			code, body := serve(t, c)
			require.Equal(t, tc.code, code)
			require.Equal(t, tc.status, body.Status)
			require.Contains(t, body.Checks, "database")
			require.Contains(t, body.Checks, "cache")
			require.Equal(t, clock.Now().UTC().Format(time.RFC3339), body.Timestamp)
		})
	}
}

func TestHealthController_WithoutCache(t *testing.T) {
	c := NewHealthController(pingFunc(ok), nil, nil).(*HealthController)
	code, body := serve(t, c)
	require.Equal(t, http.StatusOK, code)
	require.NotContains(t, body.Checks, "cache")
}
