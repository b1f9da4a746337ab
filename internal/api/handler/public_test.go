package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publicRequest carries only the route param; public routes see no principal.
func publicRequest(target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orgID", "org1")
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPublicScheduleFilterParams(t *testing.T) {
	st := newStubStore()
	h := newTestHandler(st)

	w := httptest.NewRecorder()
	h.PublicSchedule(w, publicRequest(
		"/public/org1/schedule?season=s1&division=d1&team=t1&venue=v1&date_from=2026-03-01&date_to=2026-03-31"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f := st.games.lastFilter
	assert.Equal(t, "s1", f.SeasonID)
	assert.Equal(t, "d1", f.DivisionID)
	assert.Equal(t, "t1", f.TeamID)
	assert.Equal(t, "v1", f.VenueID)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), f.DateFrom)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), f.DateTo)
	assert.Equal(t, publicMaxGames, f.Limit)
}

func TestPublicCalendarFilterParams(t *testing.T) {
	st := newStubStore()
	h := newTestHandler(st)

	w := httptest.NewRecorder()
	h.PublicCalendar(w, publicRequest("/public/org1/calendar.ics?team=t1&venue=v2"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	f := st.games.lastFilter
	assert.Equal(t, "t1", f.TeamID)
	assert.Equal(t, "v2", f.VenueID)
	assert.Empty(t, f.SeasonID)
}

func TestPublicScheduleLimitCapped(t *testing.T) {
	st := newStubStore()
	h := newTestHandler(st)

	w := httptest.NewRecorder()
	h.PublicSchedule(w, publicRequest("/public/org1/schedule?limit=25"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, st.games.lastFilter.Limit)

	w = httptest.NewRecorder()
	h.PublicSchedule(w, publicRequest("/public/org1/schedule?limit=9999"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, publicMaxGames, st.games.lastFilter.Limit)
}
