package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/officials"
	"github.com/courtly/leaguecore/internal/storage"
)

// ListOfficials returns the tenant's officials.
// @Summary List officials
// @Tags officials
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/officials [get]
func (h *Handler) ListOfficials(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var (
		out []domain.Official
		err error
	)
	if r.URL.Query().Get("active") == "true" {
		out, err = h.store.Officials().ListActive(r.Context(), tenant)
	} else {
		out, err = h.store.Officials().List(r.Context(), tenant)
	}
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, out)
}

// GetOfficial returns one official.
// @Summary Get official
// @Tags officials
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/officials/{officialID} [get]
func (h *Handler) GetOfficial(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	official, err := h.store.Officials().Get(r.Context(), tenant, chi.URLParam(r, "officialID"))
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, official)
}

// CreateOfficial registers an official.
// @Summary Create official
// @Tags officials
// @Accept json
// @Produce json
// @Success 201 {object} respond.Envelope
// @Router /api/v1/officials [post]
func (h *Handler) CreateOfficial(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var official domain.Official
	if err := json.NewDecoder(r.Body).Decode(&official); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	official.ID = uuid.NewString()
	official.OrganizationID = tenant
	if err := validateOfficial(&official); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Officials().Create(r.Context(), &official); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusCreated, official)
}

// UpdateOfficial updates an official.
// @Summary Update official
// @Tags officials
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/officials/{officialID} [put]
func (h *Handler) UpdateOfficial(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID

	var official domain.Official
	if err := json.NewDecoder(r.Body).Decode(&official); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	official.ID = chi.URLParam(r, "officialID")
	official.OrganizationID = tenant
	if err := validateOfficial(&official); err != nil {
		respond.WriteValidationError(w, err)
		return
	}
	if err := h.store.Officials().Update(r.Context(), &official); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, official)
}

// DeleteOfficial removes an official.
// @Summary Delete official
// @Tags officials
// @Success 204
// @Router /api/v1/officials/{officialID} [delete]
func (h *Handler) DeleteOfficial(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	if err := h.store.Officials().Delete(r.Context(), tenant, chi.URLParam(r, "officialID")); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateOfficial(o *domain.Official) error {
	if o.Name == "" {
		return fmt.Errorf("official name is required")
	}
	if _, err := domain.ParseCertificationLevel(string(o.Certification)); err != nil {
		return err
	}
	for _, s := range o.Specialties {
		if _, err := domain.ParseOfficialRole(string(s)); err != nil {
			return err
		}
	}
	if o.HourlyRate < 0 {
		return fmt.Errorf("hourly rate must not be negative")
	}
	return nil
}

// GetOfficialAvailability returns the official's availability windows.
// @Summary Get official availability
// @Tags officials
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/officials/{officialID}/availability [get]
func (h *Handler) GetOfficialAvailability(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "officialID")

	if _, err := h.store.Officials().Get(r.Context(), tenant, id); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	windows, err := h.store.OfficialAvailability().ListByOfficial(r.Context(), id)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, windows)
}

// CheckOfficialAvailability reports whether an official can work a window.
// Query: at (RFC 3339, required), duration_minutes (default 60).
// @Summary Check official availability for a time window
// @Tags officials
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/officials/{officialID}/availability/check [get]
func (h *Handler) CheckOfficialAvailability(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "officialID")

	at, err := time.Parse(time.RFC3339, r.URL.Query().Get("at"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_TIME", "at must be an RFC 3339 timestamp")
		return
	}
	duration := config.DefaultGameDuration
	if d := r.URL.Query().Get("duration_minutes"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_DURATION", "duration_minutes must be a positive integer")
			return
		}
		duration = n
	}

	if _, err := h.store.Officials().Get(r.Context(), tenant, id); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	windows, err := h.store.OfficialAvailability().ListByOfficial(r.Context(), id)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	loc, err := time.LoadLocation(h.cfg.DefaultTZ)
	if err != nil {
		loc = time.UTC
	}
	end := at.Add(time.Duration(duration) * time.Minute)
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"official_id": id,
		"start":       at,
		"end":         end,
		"available":   officials.AvailableAt(windows, at, end, loc),
	})
}

// SetOfficialAvailability replaces the official's availability windows.
// @Summary Replace official availability
// @Tags officials
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/officials/{officialID}/availability [put]
func (h *Handler) SetOfficialAvailability(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "officialID")

	if _, err := h.store.Officials().Get(r.Context(), tenant, id); err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	var windows []domain.OfficialAvailability
	if err := json.NewDecoder(r.Body).Decode(&windows); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	for i := range windows {
		windows[i].ID = uuid.NewString()
		windows[i].OfficialID = id
		if _, err := domain.ParseOfficialAvailabilityKind(string(windows[i].Kind)); err != nil {
			respond.WriteValidationError(w, err)
			return
		}
	}
	if err := h.store.OfficialAvailability().Set(r.Context(), id, windows); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, windows)
}

// OptimizeRequest tunes an optimization run. Persist writes the resulting
// assignments; otherwise the run is a dry run.
type OptimizeRequest struct {
	Constraints *officials.Constraints `json:"constraints,omitempty"`
	Persist     bool                   `json:"persist,omitempty"`
}

// OptimizeOfficials assigns officials to a season's scheduled games.
// @Summary Optimize officials assignments
// @Tags officials
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/seasons/{seasonID}/officials/optimize [post]
func (h *Handler) OptimizeOfficials(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	seasonID := chi.URLParam(r, "seasonID")
	ctx := r.Context()

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	cons := officials.DefaultConstraints()
	if req.Constraints != nil {
		cons = *req.Constraints
	}

	season, err := h.store.Seasons().Get(ctx, tenant, seasonID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	games, err := h.store.Games().List(ctx, tenant, storage.GameFilter{
		SeasonID: seasonID,
		Status:   domain.GameScheduled,
	})
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	divisions, err := h.store.Divisions().List(ctx, tenant)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	divMap := make(map[string]*domain.Division, len(divisions))
	for i := range divisions {
		divMap[divisions[i].ID] = &divisions[i]
	}
	venues, err := h.store.Venues().List(ctx, tenant)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	pool, err := h.store.Officials().ListActive(ctx, tenant)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	availability := make(map[string][]domain.OfficialAvailability, len(pool))
	for _, off := range pool {
		windows, err := h.store.OfficialAvailability().ListByOfficial(ctx, off.ID)
		if err != nil {
			respond.WriteStorageError(w, err)
			return
		}
		if len(windows) > 0 {
			availability[off.ID] = windows
		}
	}
	existing, err := h.store.Assignments().List(ctx, tenant, storage.AssignmentFilter{})
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	result := h.opt.Optimize(ctx, officials.Input{
		Games:        games,
		Divisions:    divMap,
		Venues:       venuePtrMap(venues),
		Officials:    pool,
		Availability: availability,
		Existing:     existing,
		Location:     season.Location(),
	}, cons)

	if req.Persist && len(result.Assignments) > 0 {
		if err := h.store.Assignments().BulkInsert(ctx, tenant, result.Assignments); err != nil {
			respond.WriteStorageError(w, err)
			return
		}
	}
	respond.WriteData(w, http.StatusOK, result)
}

// ListAssignments returns assignments matching the query filters.
// @Summary List assignments
// @Tags officials
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/assignments [get]
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	q := r.URL.Query()

	filter := storage.AssignmentFilter{
		GameID:     q.Get("game_id"),
		OfficialID: q.Get("official_id"),
	}
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseAssignmentStatus(s)
		if err != nil {
			respond.WriteValidationError(w, err)
			return
		}
		filter.Status = status
	}

	assignments, err := h.store.Assignments().List(r.Context(), tenant, filter)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, assignments)
}

// AssignmentStatusRequest moves an assignment through its lifecycle.
type AssignmentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateAssignmentStatus confirms, declines, or cancels an assignment.
// @Summary Update assignment status
// @Tags officials
// @Accept json
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /api/v1/assignments/{assignmentID}/status [post]
func (h *Handler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	id := chi.URLParam(r, "assignmentID")

	var req AssignmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Malformed request body")
		return
	}
	status, err := domain.ParseAssignmentStatus(req.Status)
	if err != nil {
		respond.WriteValidationError(w, err)
		return
	}

	var confirmedAt *time.Time
	if status == domain.AssignmentConfirmed {
		now := h.clk.Now().UTC()
		confirmedAt = &now
	}
	if err := h.store.Assignments().UpdateStatus(r.Context(), tenant, id, status, confirmedAt); err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"assignment_id": id,
		"status":        status,
	})
}

// ExportPayroll streams a CSV of pay owed for completed games in a window.
// @Summary Export payroll CSV
// @Tags officials
// @Produce text/csv
// @Success 200 {string} string
// @Router /api/v1/payroll/export [get]
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	tenant := auth.PrincipalFrom(r.Context()).TenantID
	q := r.URL.Query()

	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		respond.WriteValidationError(w, fmt.Errorf("invalid or missing from date"))
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		respond.WriteValidationError(w, fmt.Errorf("invalid or missing to date"))
		return
	}
	to = to.AddDate(0, 0, 1) // inclusive end date

	assignments, err := h.store.Assignments().List(r.Context(), tenant, storage.AssignmentFilter{
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	games := make(map[string]domain.Game, len(assignments))
	for _, a := range assignments {
		if _, seen := games[a.GameID]; seen {
			continue
		}
		g, err := h.store.Games().Get(r.Context(), tenant, a.GameID)
		if err != nil {
			respond.WriteStorageError(w, err)
			return
		}
		games[a.GameID] = *g
	}

	loc, _ := time.LoadLocation(h.cfg.DefaultTZ)
	rows := officials.BuildPayroll(assignments, games, from, to, loc)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="payroll_%s_%s.csv"`, q.Get("from"), q.Get("to")))
	if err := officials.WritePayrollCSV(w, rows); err != nil {
		h.logger.Error("payroll export failed", "error", err)
	}
}
