package repository

import (
	"context"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	applogger "ICTWatch/pkg/logger"
)

// MultiJournal writes to a primary journal and best-effort mirrors. Reads
// come from the primary only.
type MultiJournal struct {
	primary domrepo.Journal
	mirrors []domrepo.Journal
	l       *applogger.Logger
}

func NewMultiJournal(primary domrepo.Journal, l *applogger.Logger, mirrors ...domrepo.Journal) *MultiJournal {
	return &MultiJournal{primary: primary, mirrors: mirrors, l: l}
}

func (m *MultiJournal) Append(ctx context.Context, rows ...models.JournalRow) error {
	if err := m.primary.Append(ctx, rows...); err != nil {
		return err
	}
	for _, mj := range m.mirrors {
		if err := mj.Append(ctx, rows...); err != nil {
			m.l.Warn("journal mirror append failed", applogger.Error(err))
		}
	}
	return nil
}

func (m *MultiJournal) ReadLast(ctx context.Context, n int) ([]models.JournalRow, error) {
	return m.primary.ReadLast(ctx, n)
}

var _ domrepo.Journal = (*MultiJournal)(nil)
