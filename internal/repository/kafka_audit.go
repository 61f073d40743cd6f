package repository

import (
	"context"

	"PriceQuery/internal/domain/models"
)

// messagePublisher is the part of pkg/kafka.Producer the audit sink needs.
type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaAuditPublisher ships query audit events keyed by query id.
type KafkaAuditPublisher struct {
	producer messagePublisher
	topic    string
}

func NewKafkaAuditPublisher(producer messagePublisher, topic string) *KafkaAuditPublisher {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

func (p *KafkaAuditPublisher) PublishQuery(ctx context.Context, ev models.QueryAudit) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.ID), ev)
}
