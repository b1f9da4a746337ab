package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

// Slot is one candidate (date, time, venue-agnostic) start the placement loop
// considers. Start is in the season's local timezone.
type Slot struct {
	Start time.Time
}

// enumerateSlots walks every date in [start, end] whose weekday appears in
// preferredDays and yields one slot per preferred time, in calendar order.
func enumerateSlots(start, end time.Time, preferredDays []domain.Weekday, preferredTimes []string, loc *time.Location) ([]Slot, error) {
	wanted := make(map[time.Weekday]bool, len(preferredDays))
	for _, d := range preferredDays {
		idx, ok := d.TimeWeekday()
		if !ok {
			return nil, fmt.Errorf("invalid preferred day %q", d)
		}
		wanted[time.Weekday(idx)] = true
	}

	times := make([][2]int, 0, len(preferredTimes))
	for _, t := range preferredTimes {
		hh, mm, err := parseHM(t)
		if err != nil {
			return nil, err
		}
		times = append(times, [2]int{hh, mm})
	}

	var slots []Slot
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	for !day.After(last) {
		if wanted[day.Weekday()] {
			for _, hm := range times {
				slots = append(slots, Slot{
					Start: time.Date(day.Year(), day.Month(), day.Day(), hm[0], hm[1], 0, 0, loc),
				})
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return slots, nil
}

// parseHM parses "HH:MM".
func parseHM(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hh, mm, nil
}
