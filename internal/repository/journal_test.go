package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/internal/domain/models"
	applogger "ICTWatch/pkg/logger"
)

func row(sym string) models.JournalRow {
	return models.JournalRow{"timestamp_pt": "2025-03-03 06:30:00 PT", "kind": "entry", "symbol": sym, "direction": "long"}
}

func TestCSVJournalAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "journal.csv")
	j := NewCSVJournal(path, applogger.Nop())
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, row("SPY")))
	require.NoError(t, j.Append(ctx, row("QQQ"), row("IWM")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(models.JournalFields, ","), lines[0])
	assert.Equal(t, 1, strings.Count(string(b), "timestamp_pt"))
}

func TestCSVJournalReadLast(t *testing.T) {
	j := NewCSVJournal(filepath.Join(t.TempDir(), "journal.csv"), applogger.Nop())
	ctx := context.Background()

	rows, err := j.ReadLast(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)

	for _, s := range []string{"A", "B", "C", "D"} {
		require.NoError(t, j.Append(ctx, row(s)))
	}

	rows, err = j.ReadLast(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C", rows[0]["symbol"])
	assert.Equal(t, "D", rows[1]["symbol"])

	all, err := j.ReadLast(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCSVJournalSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.csv")
	body := "timestamp_pt,kind,symbol,direction,entry,stop\n" +
		"2025-03-03 06:30:00 PT,entry,SPY,long,500,498\n" +
		"2025-03-03 06:30:00 PT,entry,Q\"QQ,long,400,398\n" +
		"2025-03-03 06:30:00 PT,entry,AAPL,long,200,199\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	rows, err := NewCSVJournal(path, applogger.Nop()).ReadLast(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SPY", rows[0]["symbol"])
	assert.Equal(t, "AAPL", rows[1]["symbol"])
}

func TestCSVJournalRoundTripsSetupRow(t *testing.T) {
	j := NewCSVJournal(filepath.Join(t.TempDir(), "journal.csv"), applogger.Nop())
	s := &models.Setup{Symbol: "NVDA", Direction: models.Short, Entry: 120.5, Stop: 122, Targets: [4]float64{119, 117.5, 116, 114.5}, Score: 92}
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	want := models.BuildJournalRow("entry", s, time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC), loc)
	require.NoError(t, j.Append(context.Background(), want))

	rows, err := j.ReadLast(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-03-03 06:30:00 PT", rows[0]["timestamp_pt"])
	assert.Equal(t, "120.5", rows[0]["entry"])
	assert.Equal(t, "short", rows[0]["direction"])
}

type memJournal struct {
	rows []models.JournalRow
	err  error
}

func (m *memJournal) Append(_ context.Context, rows ...models.JournalRow) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memJournal) ReadLast(_ context.Context, n int) ([]models.JournalRow, error) {
	if n > 0 && n < len(m.rows) {
		return m.rows[len(m.rows)-n:], nil
	}
	return m.rows, nil
}

func TestMultiJournalMirrorsBestEffort(t *testing.T) {
	primary, broken, ok := &memJournal{}, &memJournal{err: errors.New("down")}, &memJournal{}
	m := NewMultiJournal(primary, applogger.Nop(), broken, ok)

	require.NoError(t, m.Append(context.Background(), row("SPY")))
	assert.Len(t, primary.rows, 1)
	assert.Len(t, ok.rows, 1)

	primary.err = errors.New("disk full")
	assert.Error(t, m.Append(context.Background(), row("QQQ")))
}

func TestJournalSchema(t *testing.T) {
	stmts := JournalSchema("ictwatch")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS ictwatch.journal")
	assert.Contains(t, stmts[1], "timestamp_pt String")
	assert.Contains(t, stmts[1], "gex_total String")
}
