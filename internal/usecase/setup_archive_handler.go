package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	pkgkafka "ICTWatch/pkg/kafka"
)

// SetupArchiveHandler consumes streamed setups and appends them to the
// archive journal.
type SetupArchiveHandler struct {
	topic   string
	archive domrepo.Journal
	loc     *time.Location
	metrics domrepo.Metrics
}

func NewSetupArchiveHandler(topic string, archive domrepo.Journal, loc *time.Location, metrics domrepo.Metrics) *SetupArchiveHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SetupArchiveHandler{topic: topic, archive: archive, loc: loc, metrics: metrics}
}

func (h *SetupArchiveHandler) Topic() string { return h.topic }

func (h *SetupArchiveHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.SetupEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("archive_unmarshal")
		return fmt.Errorf("decode setup event: %w", err)
	}
	if ev.Setup.Symbol == "" {
		h.metrics.RecordError("archive_invalid")
		return fmt.Errorf("setup event %s has no symbol", ev.ID)
	}
	if ev.Kind == "" {
		ev.Kind = KindEntry
	}
	h.metrics.RecordLatency("archive_lag", time.Since(ev.PublishedAt).Seconds())

	start := time.Now()
	err := h.archive.Append(ctx, models.BuildJournalRow(ev.Kind, &ev.Setup, ev.PublishedAt, h.loc))
	h.metrics.RecordLatency("archive_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("archive_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*SetupArchiveHandler)(nil)
