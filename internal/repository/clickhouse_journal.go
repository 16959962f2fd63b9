package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	pkgch "ICTWatch/pkg/clickhouse"
	applogger "ICTWatch/pkg/logger"
)

// ClickHouseJournal mirrors journal rows into <db>.journal. Every schema
// column is stored as a String so rows round-trip exactly as the CSV does.
type ClickHouseJournal struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseJournal(ch *pkgch.Client, database string, l *applogger.Logger) *ClickHouseJournal {
	return &ClickHouseJournal{db: ch.DB(), table: database + ".journal", l: l.With("ch-journal")}
}

// JournalSchema returns the idempotent DDL for the journal table.
func JournalSchema(database string) []string {
	cols := make([]string, 0, len(models.JournalFields))
	for _, f := range models.JournalFields {
		cols = append(cols, fmt.Sprintf("    %s String", f))
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.journal (
    id UUID,
    inserted_at DateTime64(3),
%s
) ENGINE = MergeTree
ORDER BY (inserted_at, id)`, database, strings.Join(cols, ",\n")),
	}
}

func (s *ClickHouseJournal) Append(ctx context.Context, rows ...models.JournalRow) error {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	cols := append([]string{"id", "inserted_at"}, models.JournalFields...)
	ph := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*len(cols))
	for i, r := range rows {
		values = append(values, ph)
		// keep insertion order stable within a batch
		args = append(args, uuid.New(), start.Add(time.Duration(i)*time.Microsecond))
		for _, v := range r.Record() {
			args = append(args, v)
		}
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, strings.Join(cols, ", "), strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.l.Error("clickhouse journal insert error",
			applogger.String("table", s.table),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("insert journal: %w", err)
	}
	s.l.Debug("clickhouse journal insert ok",
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *ClickHouseJournal) ReadLast(ctx context.Context, n int) ([]models.JournalRow, error) {
	if n <= 0 {
		n = 1000
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY inserted_at DESC LIMIT ?", strings.Join(models.JournalFields, ", "), s.table)
	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.JournalRow, 0, n)
	for rows.Next() {
		vals := make([]string, len(models.JournalFields))
		ptrs := make([]interface{}, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		tmp = append(tmp, models.JournalRowFromRecord(models.JournalFields, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to file order
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

var _ domrepo.Journal = (*ClickHouseJournal)(nil)
