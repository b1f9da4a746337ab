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

// ListDivisions returns the tenant's divisions.
// @Summary List divisions
// @Tags divisions
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/divisions [get]
func (h *Handler) ListDivisions(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	divisions, err := h.store.Divisions().List(r.Context(), tenant)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, divisions)
}

// GetDivision returns one division.
// @Summary Get division
// @Tags divisions
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/divisions/{divisionID} [get]
func (h *Handler) GetDivision(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	division, err := h.store.Divisions().Get(r.Context(), tenant, chi.URLParam(r, "divisionID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, division)
}

// CreateDivision creates a division.
// @Summary Create division
// @Tags divisions
// @Accept json
// @Produce json
// @Success 201 {object} respond.Envelope
// @Router /api/v1/divisions [post]
func (h *Handler) CreateDivision(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var division domain.Division
	if err := json.NewDecoder(r.Body).Decode(&division); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	division.ID = uuid.NewString()
	division.OrganizationID = tenant
	if err := division.Validate(); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Divisions().Create(r.Context(), &division); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusCreated, division)
}

// UpdateDivision updates a division.
// @Summary Update division
// @Tags divisions
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/divisions/{divisionID} [put]
func (h *Handler) UpdateDivision(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var division domain.Division
	if err := json.NewDecoder(r.Body).Decode(&division); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	division.ID = chi.URLParam(r, "divisionID")
	division.OrganizationID = tenant
	if err := division.Validate(); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Divisions().Update(r.Context(), &division); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).PublicPrefix())
	respond.WriteData(w, http.StatusOK, division)
}

// DeleteDivision removes a division.
// @Summary Delete division
// @Tags divisions
// @Success 204
// @Router /api/v1/divisions/{divisionID} [delete]
func (h *Handler) DeleteDivision(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	if err := h.store.Divisions().Delete(r.Context(), tenant, chi.URLParam(r, "divisionID")); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
