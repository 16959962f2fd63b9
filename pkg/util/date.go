package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// journalLayouts are tried in order; the PT suffix layouts are wall clock in loc.
var journalLayouts = []string{
	"2006-01-02 15:04:05 PT",
	"2006-01-02 15:04 PT",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseJournalTime parses a journal timestamp into loc. Naive values are taken
// as loc wall clock. When nothing matches, a leading YYYY-MM-DD is read as
// 06:30 that day.
func ParseJournalTime(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "  ", " "))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range journalLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	if len(s) >= 10 {
		if d, err := time.ParseInLocation("2006-01-02", s[:10], loc); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 6, 30, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// InSession reports whether t falls on a weekday inside [start, end) minutes of its own day.
func InSession(t time.Time, start, end int) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= start && m < end
}

// DayBounds returns midnight of t's day and of the next day, in t's zone.
func DayBounds(t time.Time) (time.Time, time.Time) {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return d, d.AddDate(0, 0, 1)
}
