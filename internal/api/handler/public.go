package handler

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/cache"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/ics"
	"github.com/courtly/leaguecore/internal/storage"
)

// publicMaxGames caps one public schedule page.
const publicMaxGames = 200

// Standing is one row of a computed standings table.
type Standing struct {
	TeamID        string  `json:"team_id"`
	TeamName      string  `json:"team_name"`
	Played        int     `json:"played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
	PointDiff     int     `json:"point_diff"`
	WinPct        float64 `json:"win_pct"`
}

// PublicStandings serves the standings table computed from completed games.
// @Summary Public standings
// @Tags public
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /public/{orgID}/standings [get]
func (h *Handler) PublicStandings(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "orgID")
	seasonID := r.URL.Query().Get("season")
	divisionID := r.URL.Query().Get("division")
	key := h.keys(tenant).PublicStandings(seasonID, divisionID)

	if h.servedFromCache(w, r, key, config.TTLPublicProjection) {
		return
	}

	games, err := h.store.Games().List(r.Context(), tenant, storage.GameFilter{
		SeasonID:   seasonID,
		DivisionID: divisionID,
		Status:     domain.GameCompleted,
	})
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	standings := computeStandings(games)
	h.fillAndServe(w, key, standings, config.TTLPublicProjection)
}

// computeStandings folds completed games into per-team records. Win
// percentage counts a tie as half a win; ties break on point differential.
func computeStandings(games []domain.Game) []Standing {
	byTeam := make(map[string]*Standing)
	row := func(id, name string) *Standing {
		s, ok := byTeam[id]
		if !ok {
			s = &Standing{TeamID: id, TeamName: name}
			byTeam[id] = s
		}
		return s
	}

	for _, g := range games {
		if g.HomeScore == nil || g.AwayScore == nil {
			continue
		}
		home := row(g.HomeTeamID, g.HomeTeamName)
		away := row(g.AwayTeamID, g.AwayTeamName)
		hs, as := *g.HomeScore, *g.AwayScore

		home.Played++
		away.Played++
		home.PointsFor += hs
		home.PointsAgainst += as
		away.PointsFor += as
		away.PointsAgainst += hs

		switch {
		case hs > as:
			home.Wins++
			away.Losses++
		case as > hs:
			away.Wins++
			home.Losses++
		default:
			home.Ties++
			away.Ties++
		}
	}

	out := make([]Standing, 0, len(byTeam))
	for _, s := range byTeam {
		s.PointDiff = s.PointsFor - s.PointsAgainst
		played := s.Played
		if played < 1 {
			played = 1
		}
		s.WinPct = (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(played)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinPct != out[j].WinPct {
			return out[i].WinPct > out[j].WinPct
		}
		if out[i].PointDiff != out[j].PointDiff {
			return out[i].PointDiff > out[j].PointDiff
		}
		return out[i].TeamName < out[j].TeamName
	})
	return out
}

// PublicSchedule serves the published schedule with filters.
// @Summary Public schedule
// @Tags public
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /public/{orgID}/schedule [get]
func (h *Handler) PublicSchedule(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "orgID")
	q := r.URL.Query()

	filter := publicGameFilter(q)
	filter.Limit = publicMaxGames
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n < publicMaxGames {
		filter.Limit = n
	}

	key := h.keys(tenant).PublicSchedule(hashFilter(
		filter.SeasonID, filter.DivisionID, filter.TeamID, filter.VenueID,
		q.Get("date_from"), q.Get("date_to"), strconv.Itoa(filter.Limit)))
	if h.servedFromCache(w, r, key, config.TTLPublicProjection) {
		return
	}

	games, err := h.store.Games().List(r.Context(), tenant, filter)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	h.fillAndServe(w, key, games, config.TTLPublicProjection)
}

// TeamSummary is the public team page payload.
type TeamSummary struct {
	TeamID   string        `json:"team_id"`
	Recent   []domain.Game `json:"recent_games"`
	Upcoming []domain.Game `json:"upcoming_games"`
}

// PublicTeam serves a team's last 10 results and next 5 games.
// @Summary Public team summary
// @Tags public
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /public/{orgID}/teams/{teamID} [get]
func (h *Handler) PublicTeam(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "orgID")
	teamID := chi.URLParam(r, "teamID")
	key := h.keys(tenant).PublicTeam(teamID)

	if h.servedFromCache(w, r, key, config.TTLPublicProjection) {
		return
	}

	games, err := h.store.Games().List(r.Context(), tenant, storage.GameFilter{TeamID: teamID})
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	now := h.clk.Now()
	var recent, upcoming []domain.Game
	for _, g := range games {
		switch {
		case g.Status == domain.GameCompleted:
			recent = append(recent, g)
		case g.Status == domain.GameScheduled && g.ScheduledStart.After(now):
			upcoming = append(upcoming, g)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].ScheduledStart.After(recent[j].ScheduledStart)
	})
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledStart.Before(upcoming[j].ScheduledStart)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}
	if len(upcoming) > 5 {
		upcoming = upcoming[:5]
	}

	h.fillAndServe(w, key, TeamSummary{TeamID: teamID, Recent: recent, Upcoming: upcoming},
		config.TTLPublicProjection)
}

// PublicGame serves one game. Completed games cache longer since they can no
// longer change.
// @Summary Public game
// @Tags public
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /public/{orgID}/games/{gameID} [get]
func (h *Handler) PublicGame(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "orgID")
	gameID := chi.URLParam(r, "gameID")
	key := h.keys(tenant).PublicGame(gameID)

	if h.servedFromCache(w, r, key, config.TTLPublicProjection) {
		return
	}

	game, err := h.store.Games().Get(r.Context(), tenant, gameID)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	ttl := config.TTLPublicProjection
	if game.Status == domain.GameCompleted {
		ttl = config.TTLCompletedGame
	}
	h.fillAndServe(w, key, game, ttl)
}

// PublicCalendar serves the schedule as an iCalendar feed.
// @Summary Public calendar feed
// @Tags public
// @Produce text/calendar
// @Success 200 {string} string
// @Router /public/{orgID}/calendar.ics [get]
func (h *Handler) PublicCalendar(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "orgID")
	q := r.URL.Query()

	filter := publicGameFilter(q)
	key := h.keys(tenant).PublicCalendar(hashFilter(
		filter.SeasonID, filter.DivisionID, filter.TeamID, filter.VenueID,
		q.Get("date_from"), q.Get("date_to")))

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		writeCalendar(w, data, etag)
		return
	}

	games, err := h.store.Games().List(r.Context(), tenant, filter)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}
	venues, err := h.store.Venues().List(r.Context(), tenant)
	if err != nil {
		respond.WriteStorageError(w, err)
		return
	}

	loc, lerr := time.LoadLocation(h.cfg.DefaultTZ)
	if lerr != nil {
		loc = time.FixedZone("MST", -7*3600)
	}
	feed := ics.Calendar("League Schedule", games, venuePtrMap(venues), loc)
	data := []byte(feed)
	etag := h.cache.Set(key, data, config.TTLPublicProjection)
	writeCalendar(w, data, etag)
}

func writeCalendar(w http.ResponseWriter, data []byte, etag string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// servedFromCache writes the cached projection (or a 304) when present.
func (h *Handler) servedFromCache(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration) bool {
	data, etag, ok := h.cache.Get(key)
	if !ok {
		return false
	}
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return true
	}
	respond.WriteJSON(w, data, etag, ttl, true)
	return true
}

// fillAndServe serializes v once, caches it, and writes it with cache headers.
func (h *Handler) fillAndServe(w http.ResponseWriter, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(respond.Envelope{
		Success:   true,
		Data:      v,
		Timestamp: h.clk.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Serialization failed")
		return
	}
	etag := h.cache.Set(key, data, ttl)
	respond.WriteJSON(w, data, etag, ttl, false)
}

// publicGameFilter reads the public filter contract: season, division, team,
// venue, date_from, date_to.
func publicGameFilter(q url.Values) storage.GameFilter {
	filter := storage.GameFilter{
		SeasonID:   q.Get("season"),
		DivisionID: q.Get("division"),
		TeamID:     q.Get("team"),
		VenueID:    q.Get("venue"),
	}
	if t, err := time.Parse("2006-01-02", q.Get("date_from")); err == nil {
		filter.DateFrom = t
	}
	if t, err := time.Parse("2006-01-02", q.Get("date_to")); err == nil {
		filter.DateTo = t
	}
	return filter
}

func hashFilter(parts ...string) string {
	joined := ""
	for _, p := range parts {
		joined += p + "|"
	}
	sum := md5.Sum([]byte(joined))
	return fmt.Sprintf("%x", sum[:8])
}
