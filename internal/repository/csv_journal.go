package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	applogger "ICTWatch/pkg/logger"
)

// CSVJournal is the append-only journal file. The header is written once when
// the file is created; rows are never rewritten.
type CSVJournal struct {
	path string
	mu   sync.Mutex
	l    *applogger.Logger
}

func NewCSVJournal(path string, l *applogger.Logger) *CSVJournal {
	return &CSVJournal{path: path, l: l.With("journal")}
}

// Path returns the journal file location.
func (j *CSVJournal) Path() string { return j.path }

func (j *CSVJournal) Append(_ context.Context, rows ...models.JournalRow) error {
	if len(rows) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("journal dir: %w", err)
		}
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(models.JournalFields); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, r := range rows {
		if err := w.Write(r.Record()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	j.l.Debug("journal append", applogger.Int("rows", len(rows)), applogger.String("path", j.path))
	return nil
}

// ReadLast returns the newest n rows in file order. A missing file is empty.
// n <= 0 returns every row.
func (j *CSVJournal) ReadLast(_ context.Context, n int) ([]models.JournalRow, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	rows, skipped, err := readRows(f, n)
	if skipped > 0 {
		j.l.Warn("journal rows skipped", applogger.Int("rows", skipped), applogger.String("path", j.path))
	}
	return rows, err
}

// readRows keeps the newest n rows. Records the CSV reader cannot parse are
// counted and skipped; the reader resumes on the next line.
func readRows(r io.Reader, n int) ([]models.JournalRow, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	var out []models.JournalRow
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read row: %w", err)
		}
		out = append(out, models.JournalRowFromRecord(header, rec))
		if n > 0 && len(out) > n {
			out = out[1:]
		}
	}
	return out, skipped, nil
}

var _ domrepo.Journal = (*CSVJournal)(nil)
