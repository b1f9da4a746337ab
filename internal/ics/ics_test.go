package ics

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/domain"
)

var phoenix = time.FixedZone("MST", -7*3600)

func sampleGame() domain.Game {
	return domain.Game{
		ID:              "game-1",
		HomeTeamName:    "Suns Juniors",
		AwayTeamName:    "Desert Hawks",
		VenueID:         "v1",
		GameNumber:      "G001",
		GameType:        domain.GameRegular,
		ScheduledStart:  time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix),
		DurationMinutes: 60,
		Status:          domain.GameScheduled,
		UpdatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleVenues() map[string]*domain.Venue {
	return map[string]*domain.Venue{
		"v1": {ID: "v1", Name: "Main Gym", AddressLine: "100 N Central Ave", City: "Phoenix", State: "AZ", PostalCode: "85004"},
	}
}

func TestCalendarStructure(t *testing.T) {
	cal := Calendar("Spring 2026", []domain.Game{sampleGame()}, sampleVenues(), phoenix)

	require.NoError(t, Validate(cal))

	lines := unfold(cal)
	assert.Contains(t, lines, "X-WR-CALNAME:Spring 2026")
	assert.Contains(t, lines, "TZID:America/Phoenix")
	assert.Contains(t, lines, "TZOFFSETTO:-0700")
	assert.Contains(t, lines, "UID:game-1@leaguecore")
	assert.Contains(t, lines, "DTSTART;TZID=America/Phoenix:20260307T090000")
	assert.Contains(t, lines, "DTEND;TZID=America/Phoenix:20260307T100000")
	assert.Contains(t, lines, "SUMMARY:Suns Juniors vs Desert Hawks")
	assert.Contains(t, lines, "TRIGGER:-PT1H")

	// One STANDARD block only; Arizona has no DST transition.
	assert.Equal(t, 1, strings.Count(cal, "BEGIN:STANDARD"))
	assert.NotContains(t, cal, "BEGIN:DAYLIGHT")
}

func TestCalendarCancelledGame(t *testing.T) {
	g := sampleGame()
	g.Status = domain.GameCancelled
	g.CancelledReason = "extreme heat"

	cal := Calendar("", []domain.Game{g}, sampleVenues(), phoenix)
	require.NoError(t, Validate(cal))

	lines := unfold(cal)
	assert.Contains(t, lines, "STATUS:CANCELLED")
	var desc string
	for _, l := range lines {
		if strings.HasPrefix(l, "DESCRIPTION:Game") {
			desc = l
		}
	}
	assert.Contains(t, desc, "CANCELLED: extreme heat")
}

func TestCalendarEscapesText(t *testing.T) {
	g := sampleGame()
	g.HomeTeamName = "Smith, Jones; Co"

	cal := Calendar("", []domain.Game{g}, nil, phoenix)
	assert.Contains(t, cal, "Smith\\, Jones\\; Co")
}

func TestLineFoldingAt75Octets(t *testing.T) {
	g := sampleGame()
	g.HomeTeamName = strings.Repeat("Very Long Team Name ", 8)

	cal := Calendar("", []domain.Game{g}, nil, phoenix)
	for _, l := range strings.Split(cal, "\r\n") {
		assert.LessOrEqual(t, len(l), 76, "line exceeds fold width: %q", l)
	}

	// Unfolding restores the full summary.
	require.NoError(t, Validate(cal))
	var summary string
	for _, l := range unfold(cal) {
		if strings.HasPrefix(l, "SUMMARY:") {
			summary = l
		}
	}
	assert.Contains(t, summary, "vs Desert Hawks")
}

func TestLineFoldingKeepsRunesIntact(t *testing.T) {
	g := sampleGame()
	g.HomeTeamName = strings.Repeat("Ráfagas del Desierto ", 6)
	g.AwayTeamName = strings.Repeat("北极星", 20)

	cal := Calendar("", []domain.Game{g}, nil, phoenix)
	for _, l := range strings.Split(cal, "\r\n") {
		assert.LessOrEqual(t, len(l), 76, "line exceeds fold width: %q", l)
		assert.True(t, utf8.ValidString(l), "fold split a multi-byte character: %q", l)
	}

	// Unfolding restores the summary byte for byte.
	var summary string
	for _, l := range unfold(cal) {
		if strings.HasPrefix(l, "SUMMARY:") {
			summary = l
		}
	}
	assert.Contains(t, summary, escape(g.HomeTeamName))
	assert.Contains(t, summary, escape(g.AwayTeamName))
}

func TestValidateRejectsBrokenCalendars(t *testing.T) {
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("BEGIN:VCALENDAR\r\nVERSION:2.0\r\n"))

	// Missing SUMMARY inside the event.
	broken := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Test//EN",
		"BEGIN:VEVENT",
		"UID:x@y",
		"DTSTART:20260307T090000",
		"DTEND:20260307T100000",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")
	err := Validate(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUMMARY")
}

func TestValidateEmptyCalendarIsFine(t *testing.T) {
	cal := Calendar("Empty", nil, nil, phoenix)
	assert.NoError(t, Validate(cal))
}
