package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayhive/hotel-booking-backend/internal/models"
)

// BookingRepository handles booking, fee and intent-outbox persistence.
// It implements the lifecycle engine's BookingStore and Inventory
// capabilities on PostgreSQL.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ============================================================================
// BOOKING STORE
// ============================================================================

// GetBooking retrieves a booking with its fees, or nil if it does not exist
func (r *BookingRepository) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking

	query := `
		SELECT id, room_id, guest_id, check_in_date, check_out_date, actual_check_out,
		       status, payment_state, amount_settled, price_per_night,
		       created_at, cancelled_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := r.db.GetContext(ctx, &booking, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	fees, err := r.getFees(ctx, id)
	if err != nil {
		return nil, err
	}
	booking.Fees = fees

	return &booking, nil
}

func (r *BookingRepository) getFees(ctx context.Context, bookingID uuid.UUID) ([]models.Fee, error) {
	var fees []models.Fee
	query := `
		SELECT id, booking_id, kind, amount, reason, created_at
		FROM booking_fees
		WHERE booking_id = $1
		ORDER BY created_at, id`

	if err := r.db.SelectContext(ctx, &fees, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to get booking fees: %w", err)
	}
	return fees, nil
}

// CreateBooking persists a new booking together with any initial intents
func (r *BookingRepository) CreateBooking(ctx context.Context, booking *models.Booking, intents []models.Intent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bookings (
			id, room_id, guest_id, check_in_date, check_out_date,
			status, payment_state, amount_settled, price_per_night,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = tx.ExecContext(ctx, query,
		booking.ID, booking.RoomID, booking.GuestID, booking.CheckInDate, booking.CheckOutDate,
		booking.Status, booking.PaymentState, booking.AmountSettled, booking.PricePerNight,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := insertIntents(ctx, tx, intents); err != nil {
		return err
	}

	return tx.Commit()
}

// ApplyChange atomically commits a booking update, appended fees and
// emitted intents in a single transaction.
func (r *BookingRepository) ApplyChange(ctx context.Context, change *models.BookingChange) error {
	if change == nil || change.Booking == nil {
		return fmt.Errorf("change must carry a booking")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking := change.Booking
	query := `
		UPDATE bookings
		SET status = $2,
		    payment_state = $3,
		    amount_settled = $4,
		    actual_check_out = $5,
		    cancelled_at = $6,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := tx.ExecContext(ctx, query,
		booking.ID, booking.Status, booking.PaymentState, booking.AmountSettled,
		booking.ActualCheckOut, booking.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("booking %s does not exist", booking.ID)
	}

	for _, fee := range change.NewFees {
		feeQuery := `
			INSERT INTO booking_fees (id, booking_id, kind, amount, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, feeQuery,
			fee.ID, fee.BookingID, fee.Kind, fee.Amount, fee.Reason, fee.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert fee: %w", err)
		}
	}

	if err := insertIntents(ctx, tx, change.Intents); err != nil {
		return err
	}

	return tx.Commit()
}

// insertIntents writes outbox rows. The dedup key makes re-delivered
// transitions harmless: an intent with the same booking, kind and amount
// is inserted at most once.
func insertIntents(ctx context.Context, tx *sqlx.Tx, intents []models.Intent) error {
	for _, intent := range intents {
		query := `
			INSERT INTO booking_intents (
				id, booking_id, kind, amount, reason, event,
				status, attempts, dedup_key, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (dedup_key) DO NOTHING`
		if _, err := tx.ExecContext(ctx, query,
			intent.ID, intent.BookingID, intent.Kind, intent.Amount, intent.Reason, intent.Event,
			intent.Status, intent.Attempts, intent.DedupKey(), intent.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert intent: %w", err)
		}
	}
	return nil
}

// ListNoShowCandidates returns confirmed bookings whose check-in date is
// strictly before the cutoff. Fees are not loaded; the sweep re-reads each
// booking under its lock before transitioning it.
func (r *BookingRepository) ListNoShowCandidates(ctx context.Context, cutoff time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := `
		SELECT id, room_id, guest_id, check_in_date, check_out_date, actual_check_out,
		       status, payment_state, amount_settled, price_per_night,
		       created_at, cancelled_at, updated_at
		FROM bookings
		WHERE status = $1 AND check_in_date < $2
		ORDER BY check_in_date`

	if err := r.db.SelectContext(ctx, &bookings, query, models.BookingStatusConfirmed, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list no-show candidates: %w", err)
	}
	return bookings, nil
}

// ============================================================================
// INVENTORY
// ============================================================================

// HasConflict reports whether the room already has a live reservation
// overlapping the requested date range. Cancelled, no-show and completed
// stays do not block new bookings.
func (r *BookingRepository) HasConflict(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE room_id = $1
		  AND status IN ($2, $3, $4)
		  AND check_in_date < $6
		  AND check_out_date > $5`

	err := r.db.GetContext(ctx, &count, query,
		roomID,
		models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusCheckedIn,
		checkIn, checkOut,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check room conflicts: %w", err)
	}
	return count > 0, nil
}

// ============================================================================
// LIST / FILTER (API layer)
// ============================================================================

// ListBookings returns bookings matching the filter, newest first
func (r *BookingRepository) ListBookings(ctx context.Context, filter models.BookingFilter, limit, offset int) ([]*models.Booking, error) {
	conditions := []string{}
	args := []interface{}{}
	argIdx := 1

	if filter.GuestID != nil {
		conditions = append(conditions, fmt.Sprintf("guest_id = $%d", argIdx))
		args = append(args, *filter.GuestID)
		argIdx++
	}
	if filter.RoomID != nil {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", argIdx))
		args = append(args, *filter.RoomID)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("check_in_date >= $%d", argIdx))
		args = append(args, *filter.FromDate)
		argIdx++
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("check_out_date <= $%d", argIdx))
		args = append(args, *filter.ToDate)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, room_id, guest_id, check_in_date, check_out_date, actual_check_out,
		       status, payment_state, amount_settled, price_per_night,
		       created_at, cancelled_at, updated_at
		FROM bookings
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var bookings []*models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}
