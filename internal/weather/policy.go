package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/domain"
)

// WarningLevel classifies heat severity.
type WarningLevel string

const (
	LevelNone    WarningLevel = "NONE"
	LevelCaution WarningLevel = "CAUTION"
	LevelWarning WarningLevel = "WARNING"
	LevelDanger  WarningLevel = "DANGER"
	LevelExtreme WarningLevel = "EXTREME"
)

// PolicyResult is the evaluator's verdict for one venue/time pair.
type PolicyResult struct {
	Allowed               bool         `json:"allowed"`
	Level                 WarningLevel `json:"level"`
	TemperatureF          float64      `json:"temperature_f"`
	HeatIndexF            float64      `json:"heat_index_f"`
	Recommendations       []string     `json:"recommendations,omitempty"`
	Restrictions          []string     `json:"restrictions,omitempty"`
	AutomaticCancellation bool         `json:"automatic_cancellation"`
	Reason                string       `json:"reason,omitempty"`
}

// PolicyConfig holds the tunable thresholds. Defaults follow the Phoenix
// climate model.
type PolicyConfig struct {
	DangerousHourStart int // local hour, inclusive
	DangerousHourEnd   int // local hour, exclusive
	ExtremeIndexF      float64
	DangerIndexF       float64
	CautionIndexF      float64
}

// DefaultPolicyConfig returns the standard thresholds: dangerous hours
// 11:00-18:00, EXTREME >= 115, DANGER >= 105, CAUTION >= 95.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		DangerousHourStart: config.DangerousHoursStart,
		DangerousHourEnd:   config.DangerousHoursEnd,
		ExtremeIndexF:      115,
		DangerIndexF:       105,
		CautionIndexF:      95,
	}
}

// Evaluator applies the heat policy decision table.
type Evaluator struct {
	provider Provider
	cfg      PolicyConfig
	logger   *slog.Logger
}

// NewEvaluator builds an evaluator over a forecast provider.
func NewEvaluator(provider Provider, cfg PolicyConfig, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{provider: provider, cfg: cfg, logger: logger}
}

// InDangerousHours reports whether the local start hour falls in the
// configured window.
func (e *Evaluator) InDangerousHours(localStart time.Time) bool {
	h := localStart.Hour()
	return h >= e.cfg.DangerousHourStart && h < e.cfg.DangerousHourEnd
}

// Evaluate returns the policy outcome for a candidate game start at a venue.
// scheduledStart must already be in the venue's local timezone. A nil reading
// triggers a forecast lookup; provider failure yields a conservative
// disallowed WARNING (pre-scheduling must not gamble on heat).
func (e *Evaluator) Evaluate(ctx context.Context, venue *domain.Venue, scheduledStart time.Time, reading *Reading) PolicyResult {
	if !venue.Outdoor() {
		return PolicyResult{Allowed: true, Level: LevelNone}
	}

	if reading == nil {
		r, err := e.lookup(ctx, venue, scheduledStart)
		if err != nil {
			e.logger.Warn("weather lookup failed, refusing slot conservatively",
				"venue", venue.ID, "error", err)
			return PolicyResult{
				Allowed: false,
				Level:   LevelWarning,
				Reason:  "weather data unavailable; outdoor slot refused conservatively",
			}
		}
		reading = r
	}

	return e.decide(scheduledStart, reading)
}

// EvaluateOngoing is the variant for games already in progress: telemetry
// failure never halts a game.
func (e *Evaluator) EvaluateOngoing(ctx context.Context, venue *domain.Venue, now time.Time) PolicyResult {
	if !venue.Outdoor() {
		return PolicyResult{Allowed: true, Level: LevelNone}
	}
	r, err := e.provider.GetCurrent(ctx, venue.City, venue.State)
	if err != nil {
		e.logger.Warn("weather telemetry failed during game", "venue", venue.ID, "error", err)
		return PolicyResult{
			Allowed: true,
			Level:   LevelWarning,
			Reason:  "weather data unavailable; continuing under observation",
		}
	}
	return e.decide(now, r)
}

func (e *Evaluator) lookup(ctx context.Context, venue *domain.Venue, at time.Time) (*Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, config.WeatherCallTimeout)
	defer cancel()
	return e.provider.GetForecast(ctx, venue.City, venue.State, at)
}

// decide applies the decision table for outdoor venues.
func (e *Evaluator) decide(localStart time.Time, r *Reading) PolicyResult {
	hi := HeatIndexF(r.TemperatureF, r.Humidity)
	dangerous := e.InDangerousHours(localStart)

	res := PolicyResult{
		TemperatureF: r.TemperatureF,
		HeatIndexF:   hi,
	}

	switch {
	case hi >= e.cfg.ExtremeIndexF:
		res.Level = LevelExtreme
		res.Allowed = false
		res.AutomaticCancellation = true
		res.Reason = fmt.Sprintf("heat index %.0fF at or above extreme threshold %.0fF", hi, e.cfg.ExtremeIndexF)
		res.Recommendations = append(res.Recommendations, "reschedule to an indoor venue or evening slot")
	case hi >= e.cfg.DangerIndexF && dangerous:
		res.Level = LevelDanger
		res.Allowed = false
		res.Reason = fmt.Sprintf("heat index %.0fF during dangerous hours", hi)
		res.Recommendations = append(res.Recommendations,
			"move the game outside the 11:00-18:00 window",
			"consider an indoor venue")
	case hi >= e.cfg.DangerIndexF:
		res.Level = LevelWarning
		res.Allowed = true
		res.Restrictions = append(res.Restrictions,
			"mandatory hydration breaks every 10 minutes",
			"shaded rest area required for both benches")
		res.Recommendations = append(res.Recommendations, "monitor conditions before tipoff")
	case hi >= e.cfg.CautionIndexF && dangerous:
		res.Level = LevelWarning
		res.Allowed = true
		res.Restrictions = append(res.Restrictions,
			"mandatory hydration breaks every 15 minutes")
		res.Recommendations = append(res.Recommendations, "monitor conditions before tipoff")
	case hi >= e.cfg.CautionIndexF:
		res.Level = LevelCaution
		res.Allowed = true
		res.Recommendations = append(res.Recommendations, "encourage extra hydration")
	default:
		res.Level = LevelNone
		res.Allowed = true
	}

	return res
}
