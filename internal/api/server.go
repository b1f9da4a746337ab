// Package api wires the HTTP surface: router, middleware, auth, and rate
// limit buckets.
package api

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/handler"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/domain"
)

//go:embed openapi.json
var openapiSpec []byte

// NewRouter creates and configures the Chi router with all middleware and
// routes.
func NewRouter(h *handler.Handler, resolver auth.TokenResolver, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins: cfg.CORSAllowOrigins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders: []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
	})
	r.Use(c.Handler)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI backed by the embedded spec.
	r.Get("/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(openapiSpec)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// Tenant API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(resolver))
		if cfg.RateLimitEnabled {
			r.Use(TenantRateLimit(cfg.TenantUserRequests, cfg.TenantUserWindow))
		}

		// Seasons
		r.Get("/seasons", h.ListSeasons)
		r.Get("/seasons/{seasonID}", h.GetSeason)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			r.Post("/seasons", h.CreateSeason)
			r.Put("/seasons/{seasonID}", h.UpdateSeason)
			r.Delete("/seasons/{seasonID}", h.DeleteSeason)
		})

		// Divisions
		r.Get("/divisions", h.ListDivisions)
		r.Get("/divisions/{divisionID}", h.GetDivision)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			r.Post("/divisions", h.CreateDivision)
			r.Put("/divisions/{divisionID}", h.UpdateDivision)
			r.Delete("/divisions/{divisionID}", h.DeleteDivision)
		})

		// Venues and availability
		r.Get("/venues", h.ListVenues)
		r.Get("/venues/{venueID}", h.GetVenue)
		r.Get("/venues/{venueID}/availability", h.GetVenueAvailability)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			r.Post("/venues", h.CreateVenue)
			r.Put("/venues/{venueID}", h.UpdateVenue)
			r.Delete("/venues/{venueID}", h.DeleteVenue)
			r.Put("/venues/{venueID}/availability", h.SetVenueAvailability)
		})

		// Blackouts
		r.Get("/seasons/{seasonID}/blackouts", h.ListBlackouts)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			r.Post("/seasons/{seasonID}/blackouts", h.CreateBlackout)
			r.Delete("/seasons/{seasonID}/blackouts/{blackoutID}", h.DeleteBlackout)
		})

		// Schedule generation and publishing
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			if cfg.RateLimitEnabled {
				r.Use(TenantOpRateLimit(cfg.GenerateRequests, cfg.GenerateWindow))
			}
			r.Post("/seasons/{seasonID}/schedule/generate", h.GenerateSchedule)
			r.Post("/seasons/{seasonID}/schedule/preview", h.PreviewSchedule)
			r.Post("/seasons/{seasonID}/schedule/publish", h.PublishSchedule)
		})
		r.Get("/seasons/{seasonID}/schedule/plan", h.GetSchedulePlan)
		r.Get("/seasons/{seasonID}/schedule/runs", h.ListGenerationLogs)

		// Conflict validation
		r.Group(func(r chi.Router) {
			if cfg.RateLimitEnabled {
				r.Use(TenantOpRateLimit(cfg.ConflictRequests, cfg.ConflictWindow))
			}
			r.Get("/seasons/{seasonID}/conflicts", h.ValidateSchedule)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			r.Post("/seasons/{seasonID}/conflicts/resolve", h.ResolveConflict)
		})

		// Games
		r.Get("/games", h.ListGames)
		r.Get("/games/{gameID}", h.GetGame)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			r.Patch("/games/{gameID}", h.UpdateGame)
			r.Post("/games/{gameID}/reschedule", h.RescheduleGame)
			r.Post("/games/{gameID}/cancel", h.CancelGame)
		})

		// Officials, assignments, payroll
		r.Get("/officials", h.ListOfficials)
		r.Get("/officials/{officialID}", h.GetOfficial)
		r.Get("/officials/{officialID}/availability", h.GetOfficialAvailability)
		r.Get("/officials/{officialID}/availability/check", h.CheckOfficialAvailability)
		r.Get("/assignments", h.ListAssignments)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin, domain.RoleScheduler))
			r.Post("/officials", h.CreateOfficial)
			r.Put("/officials/{officialID}", h.UpdateOfficial)
			r.Delete("/officials/{officialID}", h.DeleteOfficial)
			r.Put("/officials/{officialID}/availability", h.SetOfficialAvailability)
			r.Post("/seasons/{seasonID}/officials/optimize", h.OptimizeOfficials)
			r.Post("/assignments/{assignmentID}/status", h.UpdateAssignmentStatus)
			r.Get("/payroll/export", h.ExportPayroll)
		})
	})

	// Public read surface: unauthenticated, IP rate limited, hardened headers.
	r.Route("/public/{orgID}", func(r chi.Router) {
		r.Use(PublicSecurityHeaders)
		if cfg.RateLimitEnabled {
			r.Use(IPRateLimit(cfg.PublicIPRequests, cfg.PublicIPWindow))
		}
		r.Get("/standings", h.PublicStandings)
		r.Get("/schedule", h.PublicSchedule)
		r.Get("/teams/{teamID}", h.PublicTeam)
		r.Get("/games/{gameID}", h.PublicGame)
		r.Get("/calendar.ics", h.PublicCalendar)
	})

	return r
}
