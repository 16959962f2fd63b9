package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/pkg/logger"
)

// MacroPost sends the standalone macro and sectors update.
type MacroPost struct {
	macro    MacroSource
	sectors  SectorSource
	notifier domrepo.Notifier
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
}

func NewMacroPost(macroSrc MacroSource, sectors SectorSource, notifier domrepo.Notifier, loc *time.Location, log *logger.Logger) *MacroPost {
	if loc == nil {
		loc = time.UTC
	}
	return &MacroPost{macro: macroSrc, sectors: sectors, notifier: notifier, loc: loc, log: log.With("macro-post"), now: time.Now}
}

func (m *MacroPost) Post(ctx context.Context) error {
	now := m.now()
	all, _ := m.macro.Today(ctx, now)
	title := fmt.Sprintf("Macro Update – %s PT", now.In(m.loc).Format("2006-01-02 15:04"))
	if err := m.notifier.SendMacro(ctx, title, m.macro.Header(all), m.sectors.Line(ctx)); err != nil {
		return fmt.Errorf("post macro: %w", err)
	}
	m.log.Info("macro update posted", logger.Int("events", len(all)))
	return nil
}
