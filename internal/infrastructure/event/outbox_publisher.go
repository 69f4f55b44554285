package event

import (
	"context"

	"github.com/ftzops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher persists domain events to the outbox instead of
// dispatching them in process. A background OutboxProcessor drains the
// table and forwards entries to the event bus, so delivery survives a
// crash between the ledger write and the publication.
type OutboxPublisher struct {
	db         *gorm.DB
	serializer *EventSerializer
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(db *gorm.DB, serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		db:         db,
		serializer: serializer,
	}
}

// Publish stores the events as pending outbox entries in one transaction
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p.PublishWithTx(ctx, p.db, events...)
}

// PublishWithTx stores the events within the provided transaction, making
// the outbox write atomic with the aggregate changes that produced them
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// Ensure OutboxPublisher can stand in for the event bus on the write side
var _ shared.EventPublisher = (*OutboxPublisher)(nil)
