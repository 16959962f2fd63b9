package macro

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/pkg/cache"
	xhttp "ICTWatch/pkg/http"
	"ICTWatch/pkg/logger"
)

const feed = "BEGIN:VCALENDAR\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART:20251014T123000Z\r\n" +
	"SUMMARY:US Consumer Price\r\n" +
	"  Index (CPI) YoY\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART;TZID=America/New_York:20251014T140000\r\n" +
	"SUMMARY:FOMC Minutes\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART:20251014T150000Z\r\n" +
	"SUMMARY:Crude Oil Inventories\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART:20251015T123000Z\r\n" +
	"SUMMARY:PPI MoM\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART:garbage\r\n" +
	"SUMMARY:ISM Services PMI\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func pt(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func TestParse(t *testing.T) {
	loc := pt(t)
	evs, err := Parse(strings.NewReader(feed), loc)
	require.NoError(t, err)
	require.Len(t, evs, 3)

	assert.Equal(t, "US Consumer PriceIndex (CPI) YoY", evs[0].Title)
	assert.Equal(t, time.Date(2025, 10, 14, 5, 30, 0, 0, loc), evs[0].Start)
	assert.Equal(t, "FOMC Minutes", evs[1].Title)
	assert.Equal(t, time.Date(2025, 10, 14, 11, 0, 0, 0, loc), evs[1].Start)
	assert.Equal(t, "PPI MoM", evs[2].Title)
}

func TestOnDayAndBlocking(t *testing.T) {
	loc := pt(t)
	evs, err := Parse(strings.NewReader(feed), loc)
	require.NoError(t, err)

	now := time.Date(2025, 10, 14, 6, 0, 0, 0, loc)
	today := OnDay(evs, now)
	require.Len(t, today, 2)

	block := Blocking(today, now, 30*time.Minute)
	require.Len(t, block, 1)
	assert.Equal(t, "US Consumer PriceIndex (CPI) YoY", block[0].Title)

	assert.Empty(t, Blocking(today, now.Add(31*time.Minute), 30*time.Minute))
	assert.Empty(t, Blocking(today, now, 0))
}

func TestHeader(t *testing.T) {
	loc := pt(t)
	assert.Equal(t, "Macro: none", Header(nil, 30*time.Minute, 4))

	evs := []Event{
		{Title: "CPI", Start: time.Date(2025, 10, 14, 5, 30, 0, 0, loc)},
		{Title: "FOMC", Start: time.Date(2025, 10, 14, 11, 0, 0, 0, loc)},
	}
	assert.Equal(t, "Macro: CPI @ 5:30am PT; FOMC @ 11am PT (block ±30m)", Header(evs, 30*time.Minute, 4))
	assert.Equal(t, "Macro: CPI @ 5:30am PT; +1 more", Header(evs, 0, 1))
}

func TestCalendarToday(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	loc := pt(t)
	mem := cache.NewMemoryCache()
	defer mem.Close()
	cal := NewCalendar(Config{URL: srv.URL, BlockMinutes: 30}, xhttp.NewClient(), mem, loc, logger.Nop())

	now := time.Date(2025, 10, 14, 10, 45, 0, 0, loc)
	all, blocking := cal.Today(context.Background(), now)
	assert.Len(t, all, 2)
	require.Len(t, blocking, 1)
	assert.Equal(t, "FOMC Minutes", blocking[0].Title)

	_, _ = cal.Today(context.Background(), now)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCalendarWithoutURL(t *testing.T) {
	cal := NewCalendar(Config{}, xhttp.NewClient(), nil, pt(t), logger.Nop())
	all, blocking := cal.Today(context.Background(), time.Now())
	assert.Nil(t, all)
	assert.Nil(t, blocking)
}
