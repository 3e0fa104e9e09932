package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhive/hotel-booking-backend/internal/models"
)

var intentColumns = []string{
	"id", "booking_id", "kind", "amount", "reason", "event",
	"status", "attempts", "last_error", "created_at", "dispatched_at",
}

func TestFetchPending(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewIntentRepository(db)

	intentID := uuid.New()
	bookingID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM booking_intents").
		WithArgs(models.IntentStatusPending, 100).
		WillReturnRows(sqlmock.NewRows(intentColumns).
			AddRow(intentID.String(), bookingID.String(), string(models.IntentKindCharge), 75.0,
				"late cancellation", "", string(models.IntentStatusPending), 0, nil, time.Now(), nil))

	intents, err := repo.FetchPending(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, intentID, intents[0].ID)
	assert.Equal(t, models.IntentKindCharge, intents[0].Kind)
	assert.Equal(t, 75.0, intents[0].Amount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDispatched(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewIntentRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE booking_intents").
		WithArgs(id, models.IntentStatusDispatched).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkDispatched(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailed(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewIntentRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE booking_intents").
		WithArgs(id, models.IntentStatusFailed, "telegram API error 400: chat not found").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), id, "telegram API error 400: chat not found"))
	require.NoError(t, mock.ExpectationsWereMet())
}
