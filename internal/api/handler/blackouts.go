package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/domain"
)

// ListBlackouts returns a season's blackout dates.
// @Summary List blackout dates
// @Tags blackouts
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/seasons/{seasonID}/blackouts [get]
func (h *Handler) ListBlackouts(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	blackouts, err := h.store.Blackouts().ListBySeason(r.Context(), tenant, chi.URLParam(r, "seasonID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, blackouts)
}

// CreateBlackout adds a blackout window to a season.
// @Summary Create blackout date
// @Tags blackouts
// @Accept json
// @Produce json
// @Success 201 {object} respond.Envelope
// @Router /api/v1/seasons/{seasonID}/blackouts [post]
func (h *Handler) CreateBlackout(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	seasonID := chi.URLParam(r, "seasonID")

	if _, err := h.store.Seasons().Get(r.Context(), tenant, seasonID); err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	var b domain.BlackoutDate
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	b.ID = uuid.NewString()
	b.OrganizationID = tenant
	b.SeasonID = seasonID
	if err := b.Validate(); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Blackouts().Create(r.Context(), &b); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).SchedulePrefix(seasonID))
	respond.WriteData(w, http.StatusCreated, b)
}

// DeleteBlackout removes a blackout window.
// @Summary Delete blackout date
// @Tags blackouts
// @Success 204
// @Router /api/v1/seasons/{seasonID}/blackouts/{blackoutID} [delete]
func (h *Handler) DeleteBlackout(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	if err := h.store.Blackouts().Delete(r.Context(), tenant, chi.URLParam(r, "blackoutID")); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).SchedulePrefix(chi.URLParam(r, "seasonID")))
	w.WriteHeader(http.StatusNoContent)
}
