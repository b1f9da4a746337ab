package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/cache"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/storage"
)

// ValidateSchedule runs the conflict detector over a season's published games
// and caches the result. ?severity=CRITICAL narrows the response.
// @Summary Validate a season's schedule
// @Tags conflicts
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/seasons/{seasonID}/conflicts [get]
func (h *Handler) ValidateSchedule(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())
	tenant := principal.TenantID
	seasonID := chi.URLParam(r, "seasonID")

	if !featureEnabled(principal, "conflict_detection", h.cfg.FeatureConflictDetection) {
		writeFeatureOff(w, "conflict_detection")
		return
	}
	key := h.keys(tenant).Conflicts(seasonID)

	if data, etag, ok := h.cache.Get(key); ok && r.URL.Query().Get("severity") == "" {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, config.TTLConflicts, true)
		return
	}

	conflicts, err := h.detectSeasonConflicts(r, tenant, seasonID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	if sev := r.URL.Query().Get("severity"); sev != "" {
		filtered := conflicts[:0:0]
		for _, c := range conflicts {
			if string(c.Severity) == sev {
				filtered = append(filtered, c)
			}
		}
		respond.WriteData(w, http.StatusOK, map[string]interface{}{
			"season_id": seasonID,
			"conflicts": filtered,
			"total":     len(filtered),
		})
		return
	}

	payload := map[string]interface{}{
		"season_id": seasonID,
		"conflicts": conflicts,
		"total":     len(conflicts),
	}
	data, merr := json.Marshal(respond.Envelope{Success: true, Data: payload})
	if merr != nil {
		respond.WriteData(w, http.StatusOK, payload)
		return
	}
	etag := h.cache.Set(key, data, config.TTLConflicts)
	respond.WriteJSON(w, data, etag, config.TTLConflicts, false)
}

// detectSeasonConflicts loads a season's games and ancillary data and runs a
// full detection pass.
func (h *Handler) detectSeasonConflicts(r *http.Request, tenant, seasonID string) ([]conflict.Conflict, error) {
	ctx := r.Context()

	in, err := h.loadInputs(ctx, tenant, seasonID)
	if err != nil {
		return nil, err
	}
	games, err := h.store.Games().List(ctx, tenant, storage.GameFilter{SeasonID: seasonID})
	if err != nil {
		return nil, err
	}
	assignments, err := h.store.Assignments().List(ctx, tenant, storage.AssignmentFilter{})
	if err != nil {
		return nil, err
	}

	return h.det.Detect(ctx, conflict.Input{
		Games:        games,
		Venues:       venuePtrMap(in.Venues),
		Availability: in.Availability,
		Blackouts:    in.Blackouts,
		Assignments:  assignments,
		Location:     in.Season.Location(),
	})
}

// ResolveConflictRequest applies a resolution strategy to the game at the
// center of a detected conflict.
type ResolveConflictRequest struct {
	GameID         string    `json:"game_id"`
	Strategy       string    `json:"strategy"`
	ScheduledStart time.Time `json:"scheduled_start,omitempty"`
	VenueID        string    `json:"venue_id,omitempty"`
	Note           string    `json:"note,omitempty"`
}

// ResolveConflict applies one of the resolution options the detector suggests.
// RESCHEDULE_GAME and CHANGE_VENUE re-run the per-game conflict guard before
// committing; SWAP_HOME_AWAY and MANUAL_RESOLUTION never introduce new
// conflicts and commit directly.
// @Summary Resolve a schedule conflict
// @Tags conflicts
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/seasons/{seasonID}/conflicts/resolve [post]
func (h *Handler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	seasonID := chi.URLParam(r, "seasonID")

	var req ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	if req.GameID == "" {
		respond.WriteError(w, http.StatusBadRequest, "NO_GAME", "game_id is required")
		return
	}

	game, err := h.store.Games().Get(r.Context(), tenant, req.GameID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	if game.SeasonID != seasonID {
		respond.WriteError(w, http.StatusBadRequest, "WRONG_SEASON", "Game does not belong to this season")
		return
	}
	if game.Status.Terminal() {
		respond.WriteError(w, http.StatusConflict, "GAME_FINAL",
			"Completed, forfeited, and cancelled games cannot be modified")
		return
	}

	switch conflict.ResolutionStrategy(req.Strategy) {
	case conflict.ResolveReschedule:
		if req.ScheduledStart.IsZero() {
			respond.WriteError(w, http.StatusBadRequest, "NO_START", "scheduled_start is required for RESCHEDULE_GAME")
			return
		}
		h.applyGameMove(w, r, tenant, game, req.ScheduledStart, req.VenueID, req.Note)
	case conflict.ResolveChangeVenue:
		if req.VenueID == "" {
			respond.WriteError(w, http.StatusBadRequest, "NO_VENUE", "venue_id is required for CHANGE_VENUE")
			return
		}
		h.applyGameMove(w, r, tenant, game, game.ScheduledStart, req.VenueID, req.Note)
	case conflict.ResolveSwapHomeAway:
		game.HomeTeamID, game.AwayTeamID = game.AwayTeamID, game.HomeTeamID
		game.HomeTeamName, game.AwayTeamName = game.AwayTeamName, game.HomeTeamName
		h.commitResolution(w, r, tenant, game, "Swapped home and away", req.Note)
	case conflict.ResolveManual:
		h.commitResolution(w, r, tenant, game, "Marked resolved", req.Note)
	case conflict.ResolveSplitGameTime:
		respond.WriteError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED",
			"SPLIT_GAME_TIME requires manual schedule editing")
	default:
		respond.WriteValidationError(w, fmt.Errorf("invalid resolution strategy %q", req.Strategy))
	}
}

// applyGameMove is the shared guard + commit for resolutions that change the
// game's slot or venue.
func (h *Handler) applyGameMove(w http.ResponseWriter, r *http.Request, tenant string, game *domain.Game, start time.Time, venueID, note string) {
	if venueID == "" {
		venueID = game.VenueID
	}
	venue, err := h.store.Venues().Get(r.Context(), tenant, venueID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	duration := time.Duration(game.DurationMinutes) * time.Minute
	buffer := time.Duration(h.cfg.BufferMinutes) * time.Minute
	venueGames, err := h.store.Games().FindConflictsAt(r.Context(), tenant, venueID,
		start, duration, buffer, game.ID)
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

	conflicts := h.det.DetectGameConflicts(venue, start, duration,
		[]string{game.HomeTeamID, game.AwayTeamID}, game.ID, venueGames, teamGames)
	if len(conflicts) > 0 {
		respond.WriteData(w, http.StatusConflict, map[string]interface{}{
			"resolved":  false,
			"conflicts": conflicts,
		})
		return
	}

	game.ScheduledStart = start.UTC()
	game.VenueID = venueID
	entry := "Conflict resolution: Moved to resolve conflict"
	if note != "" {
		entry += " (" + note + ")"
	}
	game.Notes = appendNote(game.Notes, entry)
	game.UpdatedAt = h.clk.Now().UTC()

	// The move commits through the transactional path so the venue window is
	// re-checked under the venue lock.
	if err := h.store.Publish().RescheduleGame(r.Context(), game, h.cfg.BufferMinutes); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.invalidateGameProjections(tenant, game)
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"resolved": true,
		"game":     game,
	})
}

func (h *Handler) commitResolution(w http.ResponseWriter, r *http.Request, tenant string, game *domain.Game, action, note string) {
	entry := "Conflict resolution: " + action
	if note != "" {
		entry += " (" + note + ")"
	}
	game.Notes = appendNote(game.Notes, entry)
	game.UpdatedAt = h.clk.Now().UTC()

	if err := h.store.Games().Update(r.Context(), game); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.invalidateGameProjections(tenant, game)
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"resolved": true,
		"game":     game,
	})
}

func venuePtrMap(venues []domain.Venue) map[string]*domain.Venue {
	m := make(map[string]*domain.Venue, len(venues))
	for i := range venues {
		m[venues[i].ID] = &venues[i]
	}
	return m
}
