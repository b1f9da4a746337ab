package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/notify"
	"github.com/courtly/leaguecore/internal/storage"
)

// ListGames returns games matching the query filters.
// @Summary List games
// @Tags games
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/games [get]
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	q := r.URL.Query()

	filter := storage.GameFilter{
		SeasonID:   q.Get("season_id"),
		DivisionID: q.Get("division_id"),
		TeamID:     q.Get("team_id"),
		VenueID:    q.Get("venue_id"),
	}
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseGameStatus(s)
		if err != nil {
			respond.WriteValidationError(w, err)
			return
		}
		filter.Status = status
	}
	if from := q.Get("date_from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			respond.WriteValidationError(w, fmt.Errorf("invalid date_from %q", from))
			return
		}
		filter.DateFrom = t
	}
	if to := q.Get("date_to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			respond.WriteValidationError(w, fmt.Errorf("invalid date_to %q", to))
			return
		}
		filter.DateTo = t
	}

	games, err := h.store.Games().List(r.Context(), tenant, filter)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, games)
}

// GetGame returns one game.
// @Summary Get game
// @Tags games
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/games/{gameID} [get]
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	game, err := h.store.Games().Get(r.Context(), tenant, chi.URLParam(r, "gameID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, game)
}

// UpdateGameRequest carries a score or status update.
type UpdateGameRequest struct {
	Status    string `json:"status,omitempty"`
	HomeScore *int   `json:"home_score,omitempty"`
	AwayScore *int   `json:"away_score,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// UpdateGame records scores and status transitions.
// @Summary Update game status or score
// @Tags games
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/games/{gameID} [patch]
func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	game, err := h.store.Games().Get(r.Context(), tenant, chi.URLParam(r, "gameID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	var req UpdateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}

	if req.Status != "" {
		next, err := domain.ParseGameStatus(req.Status)
		if err != nil {
			respond.WriteValidationError(w, err)
			return
		}
		if next != game.Status && !game.Status.CanTransition(next) {
			respond.WriteErrorDetail(w, http.StatusConflict, "BAD_TRANSITION",
				"Game status transition not allowed",
				fmt.Sprintf("%s -> %s", game.Status, next))
			return
		}
		game.Status = next
	}
	if req.HomeScore != nil {
		game.HomeScore = req.HomeScore
	}
	if req.AwayScore != nil {
		game.AwayScore = req.AwayScore
	}
	if req.Notes != "" {
		game.Notes = req.Notes
	}
	game.UpdatedAt = h.clk.Now().UTC()

	if err := h.store.Games().Update(r.Context(), game); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.invalidateGameProjections(tenant, game)
	respond.WriteData(w, http.StatusOK, game)
}

// RescheduleRequest moves a game to a new slot and optionally a new venue.
type RescheduleRequest struct {
	ScheduledStart time.Time `json:"scheduled_start"`
	VenueID        string    `json:"venue_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Force          bool      `json:"force,omitempty"` // override non-critical conflicts
}

// RescheduleGame moves a game after a conflict check against the target slot.
// Detected conflicts return 409 unless force is set; critical conflicts are
// never overridable.
// @Summary Reschedule game
// @Tags games
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/games/{gameID}/reschedule [post]
func (h *Handler) RescheduleGame(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	game, err := h.store.Games().Get(r.Context(), tenant, chi.URLParam(r, "gameID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	if game.Status.Terminal() {
		respond.WriteError(w, http.StatusConflict, "GAME_FINAL",
			"Completed, forfeited, and cancelled games cannot be rescheduled")
		return
	}

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	if req.ScheduledStart.IsZero() {
		respond.WriteError(w, http.StatusBadRequest, "NO_START", "scheduled_start is required")
		return
	}

	venueID := game.VenueID
	if req.VenueID != "" {
		venueID = req.VenueID
	}
	venue, err := h.store.Venues().Get(r.Context(), tenant, venueID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	duration := time.Duration(game.DurationMinutes) * time.Minute
	buffer := time.Duration(h.cfg.BufferMinutes) * time.Minute
	venueGames, err := h.store.Games().FindConflictsAt(r.Context(), tenant, venueID,
		req.ScheduledStart, duration, buffer, game.ID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	var teamGames []domain.Game
	for _, teamID := range []string{game.HomeTeamID, game.AwayTeamID} {
		gs, err := h.store.Games().List(r.Context(), tenant, storage.GameFilter{
			SeasonID: game.SeasonID,
			TeamID:   teamID,
		})
		if err != nil {
			respond.WriteStorageError(w, err)
			return
		}
		teamGames = append(teamGames, gs...)
	}

	conflicts := h.det.DetectGameConflicts(venue, req.ScheduledStart, duration,
		[]string{game.HomeTeamID, game.AwayTeamID}, game.ID, venueGames, teamGames)
	if blocked(conflicts, req.Force) {
		respond.WriteData(w, http.StatusConflict, map[string]interface{}{
			"rescheduled": false,
			"conflicts":   conflicts,
		})
		return
	}

	game.ScheduledStart = req.ScheduledStart.UTC()
	game.VenueID = venueID
	if game.Status == domain.GamePostponed {
		game.Status = domain.GameScheduled
	}
	if req.Reason != "" {
		game.Notes = appendNote(game.Notes, "Rescheduled: "+req.Reason)
	}
	game.UpdatedAt = h.clk.Now().UTC()

	if err := h.store.Publish().RescheduleGame(r.Context(), game, h.cfg.BufferMinutes); err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	h.invalidateGameProjections(tenant, game)
	h.events.Dispatch(notify.Event{
		Kind:           notify.GameRescheduled,
		OrganizationID: tenant,
		SeasonID:       game.SeasonID,
		GameID:         game.ID,
		Detail:         map[string]any{"scheduled_start": game.ScheduledStart, "venue_id": venueID},
	})
	respond.WriteData(w, http.StatusOK, game)
}

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// CancelGame cancels a game with a reason.
// @Summary Cancel game
// @Tags games
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/games/{gameID}/cancel [post]
func (h *Handler) CancelGame(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	game, err := h.store.Games().Get(r.Context(), tenant, chi.URLParam(r, "gameID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	if !game.Status.CanTransition(domain.GameCancelled) {
		respond.WriteErrorDetail(w, http.StatusConflict, "BAD_TRANSITION",
			"Game cannot be cancelled from its current status", string(game.Status))
		return
	}

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	if req.Reason == "" {
		respond.WriteError(w, http.StatusBadRequest, "NO_REASON", "A cancellation reason is required")
		return
	}

	game.Status = domain.GameCancelled
	game.CancelledReason = req.Reason
	game.UpdatedAt = h.clk.Now().UTC()

	if err := h.store.Games().Update(r.Context(), game); err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	h.invalidateGameProjections(tenant, game)
	h.events.Dispatch(notify.Event{
		Kind:           notify.GameCancelled,
		OrganizationID: tenant,
		SeasonID:       game.SeasonID,
		GameID:         game.ID,
		Detail:         map[string]any{"reason": req.Reason},
	})
	respond.WriteData(w, http.StatusOK, game)
}

// blocked reports whether conflicts stop the mutation. Critical always
// blocks; anything else blocks unless the caller forces.
func blocked(conflicts []conflict.Conflict, force bool) bool {
	if len(conflicts) == 0 {
		return false
	}
	if !force {
		return true
	}
	for _, c := range conflicts {
		if c.Severity == conflict.SeverityCritical {
			return true
		}
	}
	return false
}

func appendNote(notes, addition string) string {
	if notes == "" {
		return addition
	}
	return notes + "\n" + addition
}

// invalidateGameProjections drops every cached view a game mutation touches.
func (h *Handler) invalidateGameProjections(tenant string, game *domain.Game) {
	keys := h.keys(tenant)
	h.cache.DeletePrefix(keys.SchedulePrefix(game.SeasonID))
	h.cache.Delete(keys.Conflicts(game.SeasonID))
	h.cache.DeletePrefix(keys.PublicPrefix())
}
