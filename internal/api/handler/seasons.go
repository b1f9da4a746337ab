package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/domain"
)

// ListSeasons returns the tenant's seasons.
// @Summary List seasons
// @Tags seasons
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/seasons [get]
func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	seasons, err := h.store.Seasons().List(r.Context(), tenant)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, seasons)
}

// GetSeason returns one season.
// @Summary Get season
// @Tags seasons
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/seasons/{seasonID} [get]
func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	season, err := h.store.Seasons().Get(r.Context(), tenant, chi.URLParam(r, "seasonID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, season)
}

// CreateSeason creates a season in UPCOMING status.
// @Summary Create season
// @Tags seasons
// @Accept json
// @Produce json
// @Success 201 {object} respond.Envelope
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/seasons [post]
func (h *Handler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var season domain.Season
	if err := json.NewDecoder(r.Body).Decode(&season); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	season.ID = uuid.NewString()
	season.OrganizationID = tenant
	if season.Status == "" {
		season.Status = domain.SeasonUpcoming
	}
	if err := season.Validate(); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Seasons().Create(r.Context(), &season); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusCreated, season)
}

// UpdateSeason updates mutable fields and validates status transitions.
// @Summary Update season
// @Tags seasons
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/seasons/{seasonID} [put]
func (h *Handler) UpdateSeason(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	current, err := h.store.Seasons().Get(r.Context(), tenant, chi.URLParam(r, "seasonID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	var in domain.Season
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	in.ID = current.ID
	in.OrganizationID = tenant
	if in.Status == "" {
		in.Status = current.Status
	}
	if in.Status != current.Status && !current.Status.CanTransition(in.Status) {
		respond.WriteErrorDetail(w, http.StatusConflict, "BAD_TRANSITION",
			"Season status transition not allowed",
			fmt.Sprintf("%s -> %s", current.Status, in.Status))
		return
	}
	if err := in.Validate(); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Seasons().Update(r.Context(), &in); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).SchedulePrefix(in.ID))
	h.cache.DeletePrefix(h.keys(tenant).PublicPrefix())
	respond.WriteData(w, http.StatusOK, in)
}

// DeleteSeason removes a season that has no published games.
// @Summary Delete season
// @Tags seasons
// @Success 204
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/seasons/{seasonID} [delete]
func (h *Handler) DeleteSeason(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "seasonID")
	if err := h.store.Seasons().Delete(r.Context(), tenant, id); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).SchedulePrefix(id))
	h.cache.DeletePrefix(h.keys(tenant).PublicPrefix())
	w.WriteHeader(http.StatusNoContent)
}
