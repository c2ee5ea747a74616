package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one engine-emitted event staged for publication.
type OutboxEvent struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}

// EventPublisher delivers staged events to the broadcast backbone.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}

// Store is the slice of the outbox the relay worker drains.
type Store interface {
	FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, ids []uuid.UUID) error
}
