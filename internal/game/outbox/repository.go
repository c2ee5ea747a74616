package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pickten/pickten/internal/game/db"
	"github.com/pickten/pickten/internal/game/events"
)

// Querier defines what the outbox repository needs from the database
// layer.
type Querier interface {
	InsertOutboxEvent(ctx context.Context, arg db.InsertOutboxEventParams) error
	FetchUnsentOutbox(ctx context.Context, limit int32) ([]db.GameOutbox, error)
	MarkOutboxSent(ctx context.Context, ids []uuid.UUID) error
}

// Repository stages engine events for the relay worker. Rows are
// drained in insertion order, which is what preserves the session
// lifecycle event ordering end to end.
type Repository struct {
	queries Querier
}

// NewRepository creates a new outbox repository.
func NewRepository(querier Querier) *Repository {
	return &Repository{queries: querier}
}

// InsertSessionStarted stages a SessionStarted event.
func (r *Repository) InsertSessionStarted(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return r.insert(ctx, sessionID, events.TypeSessionStarted, payload)
}

// InsertCountdownUpdate stages a CountdownUpdate event.
func (r *Repository) InsertCountdownUpdate(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return r.insert(ctx, sessionID, events.TypeCountdownUpdate, payload)
}

// InsertPlayerJoined stages a PlayerJoined event.
func (r *Repository) InsertPlayerJoined(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return r.insert(ctx, sessionID, events.TypePlayerJoined, payload)
}

// InsertSessionEnded stages a SessionEnded event.
func (r *Repository) InsertSessionEnded(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	return r.insert(ctx, sessionID, events.TypeSessionEnded, payload)
}

func (r *Repository) insert(ctx context.Context, sessionID uuid.UUID, eventType string, payload []byte) error {
	err := r.queries.InsertOutboxEvent(ctx, db.InsertOutboxEventParams{
		ID:        uuid.New(),
		SessionID: sessionID,
		EventType: eventType,
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

// FetchUnsent returns up to limit staged events in insertion order.
func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := r.queries.FetchUnsentOutbox(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	result := make([]OutboxEvent, len(rows))
	for i, row := range rows {
		result[i] = OutboxEvent{
			ID:        row.ID,
			SessionID: row.SessionID,
			EventType: row.EventType,
			Payload:   []byte(row.Payload),
			CreatedAt: row.CreatedAt,
		}
	}
	return result, nil
}

// MarkSent flags events as published.
func (r *Repository) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	if err := r.queries.MarkOutboxSent(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark outbox events as sent: %w", err)
	}
	return nil
}
