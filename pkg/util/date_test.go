package util

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func TestParseJournalTime(t *testing.T) {
	loc := pt(t)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-04 06:31:05 PT", time.Date(2025, 3, 4, 6, 31, 5, 0, loc)},
		{"2025-03-04  06:31 PT", time.Date(2025, 3, 4, 6, 31, 0, 0, loc)},
		{"2025-03-04T14:31:00Z", time.Date(2025, 3, 4, 6, 31, 0, 0, loc)},
		{"2025-03-04T09:31-05:00", time.Date(2025, 3, 4, 6, 31, 0, 0, loc)},
		{"2025-03-04T06:31:00", time.Date(2025, 3, 4, 6, 31, 0, 0, loc)},
		{"2025-03-04 garbage", time.Date(2025, 3, 4, 6, 30, 0, 0, loc)},
	}
	for _, tc := range cases {
		got, ok := ParseJournalTime(tc.in, loc)
		require.True(t, ok, tc.in)
		assert.True(t, tc.want.Equal(got), "%s: got %s", tc.in, got)
		assert.Equal(t, loc, got.Location())
	}

	_, ok := ParseJournalTime("yesterday", loc)
	assert.False(t, ok)
	_, ok = ParseJournalTime("", loc)
	assert.False(t, ok)
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestSession(t *testing.T) {
	loc := pt(t)
	start, err := ParseClock("06:30")
	require.NoError(t, err)
	end, err := ParseClock("13:00")
	require.NoError(t, err)
	assert.Equal(t, 390, start)

	assert.True(t, InSession(time.Date(2025, 3, 4, 6, 30, 0, 0, loc), start, end))
	assert.False(t, InSession(time.Date(2025, 3, 4, 13, 0, 0, 0, loc), start, end))
	assert.False(t, InSession(time.Date(2025, 3, 8, 9, 0, 0, 0, loc), start, end))

	_, err = ParseClock("6.30")
	assert.Error(t, err)
}

func TestReadSymbols(t *testing.T) {
	got, err := ReadSymbols(strings.NewReader("spy\n# comment\n\n qqq \nSPY\naapl\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "QQQ", "AAPL"}, got)
	assert.Equal(t, []string{"A", "B"}, Dedupe([]string{"a", " ", "B", "A"}))
}
