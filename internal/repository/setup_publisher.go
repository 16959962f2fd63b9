package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	pkgkafka "ICTWatch/pkg/kafka"
)

// KafkaSetupPublisher streams accepted setups keyed by symbol.
type KafkaSetupPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	now      func() time.Time
}

func NewKafkaSetupPublisher(producer *pkgkafka.Producer, topic string) *KafkaSetupPublisher {
	return &KafkaSetupPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaSetupPublisher) Publish(ctx context.Context, kind string, s *models.Setup) error {
	ev := models.SetupEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Setup:       *s,
		PublishedAt: p.now().UTC(),
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(s.Symbol), ev); err != nil {
		return fmt.Errorf("publish setup %s: %w", s.Symbol, err)
	}
	return nil
}

func (p *KafkaSetupPublisher) Close() error { return p.producer.Close() }

// NopSetupPublisher drops setups when streaming is disabled.
type NopSetupPublisher struct{}

func (NopSetupPublisher) Publish(context.Context, string, *models.Setup) error { return nil }
func (NopSetupPublisher) Close() error                                         { return nil }

var (
	_ domrepo.SetupPublisher = (*KafkaSetupPublisher)(nil)
	_ domrepo.SetupPublisher = NopSetupPublisher{}
)
