package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/cache"
	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/storage"
)

var phoenix = time.FixedZone("MST", -7*3600)

// Stub repos embed the interface they satisfy so only the methods a test
// exercises need a body.

type stubGames struct {
	storage.GameRepo
	game       domain.Game
	lastFilter storage.GameFilter
}

func (g *stubGames) Get(ctx context.Context, tenant, id string) (*domain.Game, error) {
	gm := g.game
	return &gm, nil
}

func (g *stubGames) List(ctx context.Context, tenant string, f storage.GameFilter) ([]domain.Game, error) {
	g.lastFilter = f
	return nil, nil
}

func (g *stubGames) FindConflictsAt(ctx context.Context, tenant, venueID string, start time.Time, duration, buffer time.Duration, excludeGameID string) ([]domain.Game, error) {
	return nil, nil
}

type stubVenues struct {
	storage.VenueRepo
}

func (v *stubVenues) Get(ctx context.Context, tenant, id string) (*domain.Venue, error) {
	return &domain.Venue{ID: id, OrganizationID: tenant, Name: "Main Gym"}, nil
}

func (v *stubVenues) List(ctx context.Context, tenant string) ([]domain.Venue, error) {
	return nil, nil
}

type stubPublish struct {
	rescheduleErr error
	gotGame       *domain.Game
	gotBuffer     int
}

func (p *stubPublish) PublishSchedule(ctx context.Context, tenant, seasonID string, games []domain.Game) error {
	return nil
}

func (p *stubPublish) RescheduleGame(ctx context.Context, g *domain.Game, bufferMinutes int) error {
	p.gotGame = g
	p.gotBuffer = bufferMinutes
	return p.rescheduleErr
}

type stubStore struct {
	games   *stubGames
	venues  *stubVenues
	publish *stubPublish
}

func (s *stubStore) Seasons() storage.SeasonRepo { return nil }
func (s *stubStore) Divisions() storage.DivisionRepo { return nil }
func (s *stubStore) Venues() storage.VenueRepo { return s.venues }
func (s *stubStore) VenueAvailability() storage.VenueAvailabilityRepo { return nil }
func (s *stubStore) Blackouts() storage.BlackoutRepo { return nil }
func (s *stubStore) Games() storage.GameRepo { return s.games }
func (s *stubStore) Officials() storage.OfficialRepo { return nil }
func (s *stubStore) OfficialAvailability() storage.OfficialAvailabilityRepo { return nil }
func (s *stubStore) Assignments() storage.AssignmentRepo { return nil }
func (s *stubStore) GenerationLogs() storage.GenerationLogRepo { return nil }
func (s *stubStore) Publish() storage.PublishTx { return s.publish }

func newStubStore() *stubStore {
	return &stubStore{
		games: &stubGames{game: domain.Game{
			ID:              "g1",
			OrganizationID:  "org1",
			SeasonID:        "s1",
			VenueID:         "v1",
			HomeTeamID:      "t1",
			AwayTeamID:      "t2",
			GameNumber:      "G001",
			GameType:        domain.GameRegular,
			ScheduledStart:  time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix),
			DurationMinutes: 60,
			Status:          domain.GameScheduled,
		}},
		venues:  &stubVenues{},
		publish: &stubPublish{},
	}
}

func newTestHandler(st *stubStore) *Handler {
	clk := clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, phoenix))
	return New(Deps{
		Store:    st,
		Cache:    cache.New(true, clk),
		Config:   &config.Config{BufferMinutes: 30, DefaultTZ: "America/Phoenix"},
		Clock:    clk,
		Detector: conflict.New(conflict.DefaultConfig(), nil, clk),
	})
}

// tenantRequest builds a request with the route param and an authenticated
// principal, the way the router hands requests to handlers.
func tenantRequest(t *testing.T, method, target, param, value string, body any) *http.Request {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	} else {
		rd = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, rd)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = auth.WithPrincipal(ctx, &auth.Principal{
		TenantID: "org1", UserID: "u1", Roles: []domain.Role{domain.RoleAdmin},
	})
	return r.WithContext(ctx)
}

func TestRescheduleGameCommitsThroughTransaction(t *testing.T) {
	st := newStubStore()
	h := newTestHandler(st)

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, phoenix)
	w := httptest.NewRecorder()
	h.RescheduleGame(w, tenantRequest(t, http.MethodPost, "/api/v1/games/g1/reschedule",
		"gameID", "g1", RescheduleRequest{ScheduledStart: start}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, st.publish.gotGame)
	assert.True(t, st.publish.gotGame.ScheduledStart.Equal(start))
	// The handler forwards its buffer so the in-transaction overlap check
	// uses the same window as the advisory one.
	assert.Equal(t, 30, st.publish.gotBuffer)
}

func TestRescheduleGameVenueTakenUnderLock(t *testing.T) {
	// The advisory conflict check passes (no games at the venue), but the
	// transactional guard loses the venue lock race. The handler must
	// surface that as a 409, not commit the move.
	st := newStubStore()
	st.publish.rescheduleErr = storage.NewError(storage.KindConflict,
		"postgres.RescheduleGame", errors.New("venue v1 already hosts a game overlapping 2026-03-14T10:00:00-07:00"))
	h := newTestHandler(st)

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, phoenix)
	w := httptest.NewRecorder()
	h.RescheduleGame(w, tenantRequest(t, http.MethodPost, "/api/v1/games/g1/reschedule",
		"gameID", "g1", RescheduleRequest{ScheduledStart: start}))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}
