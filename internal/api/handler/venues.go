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

// ListVenues returns the tenant's venues. ?active=true narrows to active.
// @Summary List venues
// @Tags venues
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/venues [get]
func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var (
		venues []domain.Venue
		err    error
	)
	if r.URL.Query().Get("active") == "true" {
		venues, err = h.store.Venues().ListActive(r.Context(), tenant)
	} else {
		venues, err = h.store.Venues().List(r.Context(), tenant)
	}
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, venues)
}

// GetVenue returns one venue.
// @Summary Get venue
// @Tags venues
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/venues/{venueID} [get]
func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	venue, err := h.store.Venues().Get(r.Context(), tenant, chi.URLParam(r, "venueID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, venue)
}

// CreateVenue creates a venue.
// @Summary Create venue
// @Tags venues
// @Accept json
// @Produce json
// @Success 201 {object} respond.Envelope
// @Router /api/v1/venues [post]
func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var venue domain.Venue
	if err := json.NewDecoder(r.Body).Decode(&venue); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	venue.ID = uuid.NewString()
	venue.OrganizationID = tenant
	if venue.Type == "" {
		venue.Type = domain.VenueIndoor
	}
	if err := validateVenue(&venue); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Venues().Create(r.Context(), &venue); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusCreated, venue)
}

// UpdateVenue updates a venue.
// @Summary Update venue
// @Tags venues
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/venues/{venueID} [put]
func (h *Handler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var venue domain.Venue
	if err := json.NewDecoder(r.Body).Decode(&venue); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	venue.ID = chi.URLParam(r, "venueID")
	venue.OrganizationID = tenant
	if err := validateVenue(&venue); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Venues().Update(r.Context(), &venue); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).VenuePrefix(venue.ID))
	respond.WriteData(w, http.StatusOK, venue)
}

// DeleteVenue removes a venue. Refused while any non-cancelled game
// references it.
// @Summary Delete venue
// @Tags venues
// @Success 204
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/venues/{venueID} [delete]
func (h *Handler) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "venueID")

	inUse, err := h.store.Games().ExistsForVenue(r.Context(), tenant, id)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	if inUse {
		respond.WriteError(w, http.StatusConflict, "VENUE_IN_USE",
			"Venue has scheduled games; cancel or move them first")
		return
	}
	if err := h.store.Venues().Delete(r.Context(), tenant, id); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).VenuePrefix(id))
	w.WriteHeader(http.StatusNoContent)
}

func validateVenue(v *domain.Venue) error {
	if v.Name == "" {
		return fmt.Errorf("venue name is required")
	}
	if _, err := domain.ParseVenueType(string(v.Type)); err != nil {
		return err
	}
	return nil
}

// GetVenueAvailability returns the venue's recurring availability rules.
// @Summary Get venue availability rules
// @Tags venues
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/venues/{venueID}/availability [get]
func (h *Handler) GetVenueAvailability(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "venueID")

	// Ownership check before touching the unscoped child table.
	if _, err := h.store.Venues().Get(r.Context(), tenant, id); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	rules, err := h.store.VenueAvailability().ListByVenue(r.Context(), id)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, rules)
}

// SetVenueAvailability replaces the venue's availability rules wholesale.
// @Summary Replace venue availability rules
// @Tags venues
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/venues/{venueID}/availability [put]
func (h *Handler) SetVenueAvailability(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "venueID")

	if _, err := h.store.Venues().Get(r.Context(), tenant, id); err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	var rules []domain.VenueAvailability
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	for i := range rules {
		rules[i].ID = uuid.NewString()
		rules[i].VenueID = id
		if err := rules[i].Validate(); err != nil {
			respond.WriteValidationError(w, err)
			return
		}
	}
	if err := h.store.VenueAvailability().Set(r.Context(), id, rules); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.cache.DeletePrefix(h.keys(tenant).VenuePrefix(id))
	respond.WriteData(w, http.StatusOK, rules)
}
