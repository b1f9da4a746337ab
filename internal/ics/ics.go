// Package ics renders game schedules as RFC 5545 calendars. Arizona observes
// no daylight saving, so the VTIMEZONE carries a single STANDARD block.
package ics

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/courtly/leaguecore/internal/domain"
)

const (
	prodID = "-//Courtly//LeagueCore//EN"
	tzid   = "America/Phoenix"
)

// Calendar renders games as one VCALENDAR. Name becomes X-WR-CALNAME; venues
// resolve LOCATION lines and may be nil-sparse.
func Calendar(name string, games []domain.Game, venues map[string]*domain.Venue, loc *time.Location) string {
	var b strings.Builder
	line(&b, "BEGIN:VCALENDAR")
	line(&b, "VERSION:2.0")
	line(&b, "PRODID:"+prodID)
	line(&b, "CALSCALE:GREGORIAN")
	line(&b, "METHOD:PUBLISH")
	if name != "" {
		line(&b, "X-WR-CALNAME:"+escape(name))
	}
	line(&b, "X-WR-TIMEZONE:"+tzid)
	writeTimezone(&b)
	for i := range games {
		writeEvent(&b, &games[i], venues, loc)
	}
	line(&b, "END:VCALENDAR")
	return b.String()
}

// writeTimezone emits the fixed MST definition. UTC-7 year round.
func writeTimezone(b *strings.Builder) {
	line(b, "BEGIN:VTIMEZONE")
	line(b, "TZID:"+tzid)
	line(b, "BEGIN:STANDARD")
	line(b, "DTSTART:19700101T000000")
	line(b, "TZOFFSETFROM:-0700")
	line(b, "TZOFFSETTO:-0700")
	line(b, "TZNAME:MST")
	line(b, "END:STANDARD")
	line(b, "END:VTIMEZONE")
}

func writeEvent(b *strings.Builder, g *domain.Game, venues map[string]*domain.Venue, loc *time.Location) {
	start := g.ScheduledStart.In(loc)
	end := g.End().In(loc)

	line(b, "BEGIN:VEVENT")
	line(b, "UID:"+g.ID+"@leaguecore")
	line(b, "DTSTAMP:"+g.UpdatedAt.UTC().Format("20060102T150405Z"))
	line(b, fmt.Sprintf("DTSTART;TZID=%s:%s", tzid, start.Format("20060102T150405")))
	line(b, fmt.Sprintf("DTEND;TZID=%s:%s", tzid, end.Format("20060102T150405")))
	line(b, "SUMMARY:"+escape(fmt.Sprintf("%s vs %s", g.HomeTeamName, g.AwayTeamName)))

	if v, ok := venues[g.VenueID]; ok && v != nil {
		addr := strings.TrimSpace(fmt.Sprintf("%s, %s, %s %s", v.AddressLine, v.City, v.State, v.PostalCode))
		line(b, "LOCATION:"+escape(v.Name+", "+addr))
	}

	desc := fmt.Sprintf("Game %s (%s)", g.GameNumber, g.GameType)
	if g.Status == domain.GameCancelled {
		desc += " - CANCELLED"
		if g.CancelledReason != "" {
			desc += ": " + g.CancelledReason
		}
		line(b, "STATUS:CANCELLED")
	}
	line(b, "DESCRIPTION:"+escape(desc))

	line(b, "BEGIN:VALARM")
	line(b, "ACTION:DISPLAY")
	line(b, "DESCRIPTION:Game reminder")
	line(b, "TRIGGER:-PT1H")
	line(b, "END:VALARM")
	line(b, "END:VEVENT")
}

// line writes one content line with CRLF and RFC 5545 folding at 75 octets.
// The fold point backs off to a rune boundary so multi-byte characters are
// never split across lines.
func line(b *strings.Builder, s string) {
	for len(s) > 75 {
		cut := 75
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
	}
	b.WriteString(s)
	b.WriteString("\r\n")
}

// escape applies RFC 5545 TEXT escaping.
func escape(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
