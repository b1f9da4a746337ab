// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/leaguectl.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Scheduling defaults, the single source of truth for slot arithmetic
// --------------------------------------------------------------------------

const (
	DefaultTimezone       = "America/Phoenix"
	DefaultBufferMinutes  = 30
	DefaultGameDuration   = 60
	DefaultMinRestHours   = 12
	DefaultMaxTravelMin   = 45
	DefaultMinutesPerMile = 2.0
	DefaultTravelFloorMin = 15
	DefaultNoGeoTravelMin = 30
	DefaultPlacerWorkers  = 5
	DangerousHoursStart   = 11 // local hour, inclusive
	DangerousHoursEnd     = 18 // local hour, exclusive
	SlowQueryThreshold    = 150 * time.Millisecond
	WeatherCallTimeout    = 5 * time.Second
)

// Cache TTLs per projection class.
const (
	TTLPrivateProjection = 60 * time.Minute
	TTLPublicProjection  = 5 * time.Minute
	TTLCompletedGame     = 60 * time.Minute
	TTLConflicts         = 30 * time.Minute
	TTLSchedulePlan      = 60 * time.Minute
)

// Config is populated from environment variables.
type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    slog.Level

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled   bool
	TenantUserRequests int           // general tenant traffic
	TenantUserWindow   time.Duration // default 15 min
	GenerateRequests   int           // schedule generation per tenant
	GenerateWindow     time.Duration // default 1 h
	ConflictRequests   int           // conflict checks per tenant
	ConflictWindow     time.Duration // default 5 min
	PublicIPRequests   int           // public surface per source IP
	PublicIPWindow     time.Duration // default 1 min

	// Weather provider
	WeatherAPIURL string
	WeatherAPIKey string

	// Identity service for bearer-token introspection. Empty enables the
	// development resolver.
	IdentityURL string

	// Feature flags
	FeatureSchedulingV1      bool
	FeatureConflictDetection bool
	FeatureHeatPolicy        bool

	// Scheduling
	DefaultTZ     string
	BufferMinutes int
	MinRestHours  int
	MaxTravelMin  int
	PlacerWorkers int

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("DB_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(envOr("LOG_LEVEL", "info")),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:   envBool("RATE_LIMIT_ENABLED", true),
		TenantUserRequests: envInt("RATE_LIMIT_TENANT_REQUESTS", 100),
		TenantUserWindow:   time.Duration(envInt("RATE_LIMIT_TENANT_WINDOW_MINUTES", 15)) * time.Minute,
		GenerateRequests:   envInt("RATE_LIMIT_GENERATE_REQUESTS", 10),
		GenerateWindow:     time.Duration(envInt("RATE_LIMIT_GENERATE_WINDOW_MINUTES", 60)) * time.Minute,
		ConflictRequests:   envInt("RATE_LIMIT_CONFLICT_REQUESTS", 50),
		ConflictWindow:     time.Duration(envInt("RATE_LIMIT_CONFLICT_WINDOW_MINUTES", 5)) * time.Minute,
		PublicIPRequests:   envInt("RATE_LIMIT_PUBLIC_REQUESTS", 100),
		PublicIPWindow:     time.Duration(envInt("RATE_LIMIT_PUBLIC_WINDOW_SECONDS", 60)) * time.Second,

		WeatherAPIURL: envOr("WEATHER_API_URL", ""),
		WeatherAPIKey: envOr("WEATHER_API_KEY", ""),

		IdentityURL: envOr("IDENTITY_URL", ""),

		FeatureSchedulingV1:      envBool("FEATURE_SCHEDULING_V1", true),
		FeatureConflictDetection: envBool("FEATURE_CONFLICT_DETECTION", true),
		FeatureHeatPolicy:        envBool("FEATURE_HEAT_POLICY", true),

		DefaultTZ:     envOr("TZ_DEFAULT", DefaultTimezone),
		BufferMinutes: envInt("SCHEDULE_BUFFER_MINUTES", DefaultBufferMinutes),
		MinRestHours:  envInt("SCHEDULE_MIN_REST_HOURS", DefaultMinRestHours),
		MaxTravelMin:  envInt("SCHEDULE_MAX_TRAVEL_MINUTES", DefaultMaxTravelMin),
		PlacerWorkers: envInt("SCHEDULE_PLACER_WORKERS", DefaultPlacerWorkers),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
