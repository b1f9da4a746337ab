// Package handler provides HTTP handlers for all API endpoints. Handlers
// validate, call storage and the scheduling engines, and shape responses;
// they own cache fill and invalidation for their routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/cache"
	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/notify"
	"github.com/courtly/leaguecore/internal/officials"
	"github.com/courtly/leaguecore/internal/schedule"
	"github.com/courtly/leaguecore/internal/storage"
	"github.com/courtly/leaguecore/internal/weather"
)

// Deps are the shared dependencies handlers draw on.
type Deps struct {
	Store     storage.Store
	Cache     *cache.Cache
	Config    *config.Config
	Logger    *slog.Logger
	Clock     clock.Clock
	Generator *schedule.Generator
	Detector  *conflict.Detector
	Heat      *weather.Evaluator
	Optimizer *officials.Optimizer
	Events    *notify.Dispatcher
	PingDB    func(context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  storage.Store
	cache  *cache.Cache
	cfg    *config.Config
	logger *slog.Logger
	clk    clock.Clock
	gen    *schedule.Generator
	det    *conflict.Detector
	heat   *weather.Evaluator
	opt    *officials.Optimizer
	events *notify.Dispatcher
	pingDB func(context.Context) error
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Events == nil {
		d.Events = notify.NewDispatcher(0)
	}
	return &Handler{
		store:  d.Store,
		cache:  d.Cache,
		cfg:    d.Config,
		logger: d.Logger,
		clk:    d.Clock,
		gen:    d.Generator,
		det:    d.Detector,
		heat:   d.Heat,
		opt:    d.Optimizer,
		events: d.Events,
		pingDB: d.PingDB,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"name":    "LeagueCore Scheduling API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.clk.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pingDB(r.Context()); err != nil {
		respond.WriteData(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"database": "connected",
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"cache":  h.cache.Stats(),
	})
}

// keys returns the tenant's cache key namespace.
func (h *Handler) keys(tenant string) cache.Keys {
	return cache.Keys{Tenant: tenant}
}

// featureEnabled combines the server-wide flag with a per-tenant override
// from the principal. A tenant override can only disable, never enable a
// flag the server has off.
func featureEnabled(p *auth.Principal, name string, serverOn bool) bool {
	if p == nil {
		return serverOn
	}
	if v, ok := p.FeatureFlags[name]; ok {
		return serverOn && v
	}
	return serverOn
}

func writeFeatureOff(w http.ResponseWriter, feature string) {
	respond.WriteErrorDetail(w, http.StatusForbidden, "FEATURE_OFF",
		"This feature is not enabled for the tenant", feature)
}
