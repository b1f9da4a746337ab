package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/cache"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/notify"
	"github.com/courtly/leaguecore/internal/schedule"
)

// generateTimeout bounds one generation run end to end.
const generateTimeout = 60 * time.Second

// GenerateRequest is the schedule generation payload. Teams come from the
// caller because the team directory lives outside this service.
type GenerateRequest struct {
	Params schedule.Params `json:"params"`
	Teams  []domain.Team   `json:"teams"`
}

// GenerateSchedule runs the generator and caches the resulting plan for a
// later publish.
// @Summary Generate a schedule plan
// @Tags schedule
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/seasons/{seasonID}/schedule/generate [post]
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, true)
}

// PreviewSchedule runs the generator without caching or logging, for
// what-if exploration.
// @Summary Preview a schedule plan
// @Tags schedule
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/seasons/{seasonID}/schedule/preview [post]
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, false)
}

func (h *Handler) runGeneration(w http.ResponseWriter, r *http.Request, commit bool) {
	principal := auth.PrincipalFrom(r.Context())
	tenant := principal.TenantID
	seasonID := chi.URLParam(r, "seasonID")

	if !featureEnabled(principal, "scheduling_v1", h.cfg.FeatureSchedulingV1) {
		writeFeatureOff(w, "scheduling_v1")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	if len(req.Teams) == 0 {
		respond.WriteError(w, http.StatusBadRequest, "NO_TEAMS", "At least one team is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	in, err := h.loadInputs(ctx, tenant, seasonID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	if in.Season.Status != domain.SeasonUpcoming && in.Season.Status != domain.SeasonRegistrationOpen {
		respond.WriteErrorDetail(w, http.StatusConflict, "SEASON_STATE",
			"Schedule can only be generated before the season is active",
			string(in.Season.Status))
		return
	}
	in.Teams = req.Teams

	plan, err := h.gen.Generate(ctx, *in, req.Params)
	if err != nil {
		respond.WriteValidationError(w, err)
		return
	}

	if commit {
		data, merr := json.Marshal(plan)
		if merr == nil {
			h.cache.Set(h.keys(tenant).Schedule(seasonID, ""), data, config.TTLSchedulePlan)
		}
		h.writeGenerationLog(r.Context(), tenant, principal.UserID, plan)
	}
	respond.WriteData(w, http.StatusOK, plan)
}

// loadInputs gathers the season, venues, availability, and blackouts one
// generation or validation pass needs.
func (h *Handler) loadInputs(ctx context.Context, tenant, seasonID string) (*schedule.Inputs, error) {
	season, err := h.store.Seasons().Get(ctx, tenant, seasonID)
	if err != nil {
		return nil, err
	}
	venues, err := h.store.Venues().ListActive(ctx, tenant)
	if err != nil {
		return nil, err
	}
	availability := make(map[string][]domain.VenueAvailability, len(venues))
	for _, v := range venues {
		rules, err := h.store.VenueAvailability().ListByVenue(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if len(rules) > 0 {
			availability[v.ID] = rules
		}
	}
	blackouts, err := h.store.Blackouts().ListBySeason(ctx, tenant, seasonID)
	if err != nil {
		return nil, err
	}
	return &schedule.Inputs{
		Season:       season,
		Venues:       venues,
		Availability: availability,
		Blackouts:    blackouts,
	}, nil
}

func (h *Handler) writeGenerationLog(ctx context.Context, tenant, userID string, plan *schedule.Plan) {
	status := domain.GenerationSucceeded
	if !plan.Success {
		status = domain.GenerationPartial
	}
	if plan.Statistics.Scheduled == 0 {
		status = domain.GenerationFailed
	}
	log := &domain.ScheduleGenerationLog{
		ID:               uuid.NewString(),
		OrganizationID:   tenant,
		SeasonID:         plan.SeasonID,
		RequestedBy:      userID,
		Status:           status,
		TotalGames:       plan.Statistics.TotalGames,
		ScheduledGames:   plan.Statistics.Scheduled,
		ConflictCount:    plan.Statistics.WithConflicts,
		HeatWarningCount: plan.Statistics.WithHeatWarnings,
		DurationMillis:   plan.Statistics.GenerationTimeMs,
		Warnings:         plan.Warnings,
		CreatedAt:        h.clk.Now().UTC(),
	}
	if err := h.store.GenerationLogs().Create(ctx, log); err != nil {
		h.logger.Warn("generation log write failed", "season", plan.SeasonID, "error", err)
	}
}

// GetSchedulePlan returns the cached plan from the last generate call.
// @Summary Get the cached schedule plan
// @Tags schedule
// @Produce json
// @Success 200 {object} schedule.Plan
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/seasons/{seasonID}/schedule/plan [get]
func (h *Handler) GetSchedulePlan(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	seasonID := chi.URLParam(r, "seasonID")

	data, etag, ok := h.cache.Get(h.keys(tenant).Schedule(seasonID, ""))
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NO_PLAN",
			"No generated plan; run generate first")
		return
	}
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, config.TTLSchedulePlan, true)
}

// PublishSchedule persists the cached plan atomically and activates the
// season. Refused when no plan is cached, so publish always follows a fresh
// generate.
// @Summary Publish the cached schedule plan
// @Tags schedule
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/seasons/{seasonID}/schedule/publish [post]
func (h *Handler) PublishSchedule(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())
	tenant := principal.TenantID
	seasonID := chi.URLParam(r, "seasonID")

	if !featureEnabled(principal, "scheduling_v1", h.cfg.FeatureSchedulingV1) {
		writeFeatureOff(w, "scheduling_v1")
		return
	}

	data, _, ok := h.cache.Get(h.keys(tenant).Schedule(seasonID, ""))
	if !ok {
		respond.WriteError(w, http.StatusConflict, "NO_PLAN",
			"No generated plan to publish; run generate first")
		return
	}
	var plan schedule.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "BAD_PLAN", "Cached plan is unreadable")
		return
	}

	now := h.clk.Now().UTC()
	games := make([]domain.Game, 0, len(plan.Games))
	for _, sg := range plan.Games {
		games = append(games, domain.Game{
			ID:              sg.ID,
			OrganizationID:  tenant,
			SeasonID:        seasonID,
			DivisionID:      sg.DivisionID,
			HomeTeamID:      sg.HomeTeamID,
			HomeTeamName:    sg.HomeTeamName,
			AwayTeamID:      sg.AwayTeamID,
			AwayTeamName:    sg.AwayTeamName,
			VenueID:         sg.VenueID,
			GameNumber:      sg.GameNumber,
			GameType:        sg.GameType,
			ScheduledStart:  sg.ScheduledStart,
			DurationMinutes: sg.EstimatedDuration,
			Status:          domain.GameScheduled,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if err := h.store.Publish().PublishSchedule(r.Context(), tenant, seasonID, games); err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	keys := h.keys(tenant)
	h.cache.Delete(keys.Schedule(seasonID, ""))
	h.cache.DeletePrefix(keys.PublicPrefix())
	h.events.Dispatch(notify.Event{
		Kind:           notify.SchedulePublished,
		OrganizationID: tenant,
		SeasonID:       seasonID,
		Detail:         map[string]any{"games": len(games)},
	})

	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"season_id": seasonID,
		"published": len(games),
	})
}

// ListGenerationLogs returns the audit trail of generation runs.
// @Summary List schedule generation runs
// @Tags schedule
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/seasons/{seasonID}/schedule/runs [get]
func (h *Handler) ListGenerationLogs(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	logs, err := h.store.GenerationLogs().ListBySeason(r.Context(), tenant, chi.URLParam(r, "seasonID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, logs)
}
