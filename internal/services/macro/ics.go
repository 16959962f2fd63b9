// Package macro reads an economic calendar (ICS) and reports today's
// market-moving releases.
package macro

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"
)

// Keywords are matched case-insensitively against the event SUMMARY.
var Keywords = []string{
	"CPI", "Consumer Price Index", "Core CPI",
	"PPI", "Producer Price Index", "Core PPI",
	"PCE", "Core PCE",
	"Nonfarm", "NFP", "Employment Situation", "Unemployment Rate",
	"FOMC", "Fed Interest Rate", "Federal Funds Rate", "Fed Statement",
	"FOMC Minutes", "Fed Chair", "Powell Press Conference",
	"ISM Services", "ISM Manufacturing",
}

var keywordRE = func() *regexp.Regexp {
	q := make([]string, len(Keywords))
	for i, k := range Keywords {
		q[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile("(?i)" + strings.Join(q, "|"))
}()

// Event is one calendar entry with its start converted to the caller's zone.
type Event struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
}

// Parse reads VEVENTs whose summary matches a keyword. Starts are converted
// to loc; events with an unreadable DTSTART are dropped.
func Parse(r io.Reader, loc *time.Location) ([]Event, error) {
	lines, err := unfold(r)
	if err != nil {
		return nil, err
	}

	var (
		out   []Event
		inEv  bool
		title string
		dt    string
		tzid  string
	)
	for _, ln := range lines {
		switch {
		case ln == "BEGIN:VEVENT":
			inEv, title, dt, tzid = true, "", "", ""
		case ln == "END:VEVENT":
			inEv = false
			if title == "" || !keywordRE.MatchString(title) || dt == "" {
				continue
			}
			start, ok := parseDT(dt, tzid)
			if !ok {
				continue
			}
			out = append(out, Event{Title: title, Start: start.In(loc)})
		case !inEv:
		case strings.HasPrefix(ln, "DTSTART;"):
			params, value, ok := strings.Cut(ln, ":")
			if !ok {
				continue
			}
			dt, tzid = strings.TrimSpace(value), ""
			for _, p := range strings.Split(params, ";")[1:] {
				if k, v, ok := strings.Cut(p, "="); ok && k == "TZID" {
					tzid = v
				}
			}
		case strings.HasPrefix(ln, "DTSTART:"):
			dt, tzid = strings.TrimSpace(ln[len("DTSTART:"):]), ""
		case strings.HasPrefix(ln, "SUMMARY:"):
			title = strings.TrimSpace(ln[len("SUMMARY:"):])
		}
	}
	return out, nil
}

// unfold joins RFC 5545 continuation lines (leading space or tab).
func unfold(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	var out []string
	for sc.Scan() {
		ln := strings.TrimRight(sc.Text(), "\r")
		if (strings.HasPrefix(ln, " ") || strings.HasPrefix(ln, "\t")) && len(out) > 0 {
			out[len(out)-1] += strings.TrimSpace(ln)
			continue
		}
		out = append(out, ln)
	}
	return out, sc.Err()
}

// parseDT handles UTC ("...Z"), TZID-qualified and floating values. Floating
// values are read as UTC.
func parseDT(v, tzid string) (time.Time, bool) {
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t, err == nil
	}
	layout := "20060102T1504"
	if len(v) == 15 {
		layout = "20060102T150405"
	}
	loc := time.UTC
	if tzid != "" {
		l, err := time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, false
		}
		loc = l
	}
	t, err := time.ParseInLocation(layout, v, loc)
	return t, err == nil
}
