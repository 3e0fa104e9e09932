package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayhive/hotel-booking-backend/internal/models"
)

// IntentRepository handles the intent outbox: pending external effects
// written by the lifecycle engine, drained by the dispatcher.
type IntentRepository struct {
	db *sqlx.DB
}

// NewIntentRepository creates a new IntentRepository
func NewIntentRepository(db *sqlx.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

// FetchPending returns up to limit pending intents, oldest first
func (r *IntentRepository) FetchPending(ctx context.Context, limit int) ([]*models.Intent, error) {
	var intents []*models.Intent
	query := `
		SELECT id, booking_id, kind, amount, reason, event,
		       status, attempts, last_error, created_at, dispatched_at
		FROM booking_intents
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &intents, query, models.IntentStatusPending, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch pending intents: %w", err)
	}
	return intents, nil
}

// MarkDispatched records a successful delivery
func (r *IntentRepository) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE booking_intents
		SET status = $2, attempts = attempts + 1, dispatched_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, models.IntentStatusDispatched)
	if err != nil {
		return fmt.Errorf("failed to mark intent dispatched: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure. Failed intents stay in the outbox
// for inspection; re-queueing them is an operational decision.
func (r *IntentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE booking_intents
		SET status = $2, attempts = attempts + 1, last_error = $3
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, models.IntentStatusFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark intent failed: %w", err)
	}
	return nil
}
