package repository

import (
	"context"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	pkgkafka "github.com/ayush18pop/stockshield.eth-sub001/pkg/kafka"
)

// KafkaEventPublisher emits risk events keyed by pair so each pair's events
// stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) domrepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e *models.RiskEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Pair), e)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, *models.RiskEvent) error { return nil }
func (NoopEventPublisher) Close() error                                     { return nil }

// LogPublisher adapts the Kafka producer to the logger's aggregated error
// log sink.
type LogPublisher struct {
	producer *pkgkafka.Producer
}

func NewLogPublisher(producer *pkgkafka.Producer) *LogPublisher {
	return &LogPublisher{producer: producer}
}

func (p *LogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}
