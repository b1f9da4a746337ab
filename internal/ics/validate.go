package ics

import (
	"fmt"
	"strings"
)

// Validate checks the structural minimum for a usable calendar feed: the
// VCALENDAR envelope with VERSION and PRODID, and per event a UID, DTSTART,
// DTEND, and SUMMARY. It unfolds continuation lines before checking.
func Validate(data string) error {
	lines := unfold(data)
	if len(lines) == 0 {
		return fmt.Errorf("empty calendar")
	}
	if lines[0] != "BEGIN:VCALENDAR" {
		return fmt.Errorf("calendar must open with BEGIN:VCALENDAR")
	}
	if lines[len(lines)-1] != "END:VCALENDAR" {
		return fmt.Errorf("calendar must close with END:VCALENDAR")
	}

	hasVersion, hasProdID := false, false
	var event map[string]bool
	eventNo := 0
	for _, l := range lines[1 : len(lines)-1] {
		switch {
		case strings.HasPrefix(l, "VERSION:"):
			if l != "VERSION:2.0" {
				return fmt.Errorf("unsupported calendar version %q", strings.TrimPrefix(l, "VERSION:"))
			}
			hasVersion = true
		case strings.HasPrefix(l, "PRODID:"):
			hasProdID = true
		case l == "BEGIN:VEVENT":
			if event != nil {
				return fmt.Errorf("event %d: nested BEGIN:VEVENT", eventNo)
			}
			eventNo++
			event = make(map[string]bool)
		case l == "END:VEVENT":
			if event == nil {
				return fmt.Errorf("END:VEVENT without BEGIN:VEVENT")
			}
			for _, want := range []string{"UID", "DTSTART", "DTEND", "SUMMARY"} {
				if !event[want] {
					return fmt.Errorf("event %d: missing %s", eventNo, want)
				}
			}
			event = nil
		default:
			if event != nil {
				name, _, _ := strings.Cut(l, ":")
				name, _, _ = strings.Cut(name, ";")
				event[name] = true
			}
		}
	}
	if event != nil {
		return fmt.Errorf("event %d: unterminated VEVENT", eventNo)
	}
	if !hasVersion {
		return fmt.Errorf("calendar missing VERSION:2.0")
	}
	if !hasProdID {
		return fmt.Errorf("calendar missing PRODID")
	}
	return nil
}

// unfold joins folded continuation lines and drops blanks.
func unfold(data string) []string {
	raw := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	var out []string
	for _, l := range raw {
		if l == "" {
			continue
		}
		if (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) && len(out) > 0 {
			out[len(out)-1] += l[1:]
			continue
		}
		out = append(out, l)
	}
	return out
}
