package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/staffing/pkg/application"
	"github.com/iota-uz/staffing/pkg/httpapi"
)

type healthStatus string

const (
	healthStatusHealthy  healthStatus = "healthy"
	healthStatusDegraded healthStatus = "degraded"
	healthStatusDown     healthStatus = "down"
)

const (
	checkTimeout         = 5 * time.Second
	dbDegradedLatency    = 100 * time.Millisecond
	cacheDegradedLatency = 50 * time.Millisecond
)

type healthResponse struct {
	Status    healthStatus               `json:"status"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]componentHealth `json:"checks"`
}

type componentHealth struct {
	Status       healthStatus `json:"status"`
	ResponseTime string       `json:"responseTime,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Pinger is satisfied by *pgxpool.Pool and the aggregate caches.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	database Pinger
	cache    Pinger
	clock    clockwork.Clock
}

// NewHealthController reports the database as down when it cannot be pinged
// and the cache as degraded, since reads fall back to the database.
func NewHealthController(database, cache Pinger, clock clockwork.Clock) application.Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthController{database: database, cache: cache, clock: clock}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Get).Methods(http.MethodGet)
}

func (c *HealthController) Get(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]componentHealth, 2)
	overall := healthStatusHealthy

	db := c.check(r.Context(), c.database, dbDegradedLatency, healthStatusDown)
	checks["database"] = db
	overall = mergeHealthStatus(overall, db.Status)

	if c.cache != nil {
		ch := c.check(r.Context(), c.cache, cacheDegradedLatency, healthStatusDegraded)
		checks["cache"] = ch
		overall = mergeHealthStatus(overall, ch.Status)
	}

	status := http.StatusOK
	if overall == healthStatusDown {
		status = http.StatusServiceUnavailable
	}
	_ = httpapi.WriteJSON(w, status, healthResponse{
		Status:    overall,
		Timestamp: c.clock.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func (c *HealthController) check(ctx context.Context, p Pinger, slow time.Duration, failed healthStatus) componentHealth {
	if p == nil {
		return componentHealth{Status: failed, Error: "not configured"}
	}
	start := c.clock.Now()
	timeoutCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	err := p.Ping(timeoutCtx)
	elapsed := c.clock.Since(start)
	if err != nil {
		return componentHealth{
			Status:       failed,
			ResponseTime: elapsed.String(),
			Error:        fmt.Sprintf("ping failed: %v", err),
		}
	}
	status := healthStatusHealthy
	if elapsed > slow {
		status = healthStatusDegraded
	}
	return componentHealth{Status: status, ResponseTime: elapsed.String()}
}

func mergeHealthStatus(current, next healthStatus) healthStatus {
	if next == healthStatusDown {
		return healthStatusDown
	}
	if next == healthStatusDegraded && current == healthStatusHealthy {
		return healthStatusDegraded
	}
	return current
}
