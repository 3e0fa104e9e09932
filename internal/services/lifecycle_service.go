package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayhive/hotel-booking-backend/internal/config"
	"github.com/stayhive/hotel-booking-backend/internal/models"
)

// BookingStore is the persistence capability the lifecycle engine is handed.
// The engine is persistence-agnostic: it loads an aggregate, mutates it, and
// commits the whole change (booking + fees + intents) through ApplyChange in
// one transaction.
type BookingStore interface {
	// GetBooking returns the booking with its fees, or nil if it does not exist
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	// CreateBooking persists a new booking together with any initial intents
	CreateBooking(ctx context.Context, booking *models.Booking, intents []models.Intent) error

	// ApplyChange atomically commits a booking update, appended fees and
	// emitted intents. Either everything lands or nothing does.
	ApplyChange(ctx context.Context, change *models.BookingChange) error

	// ListNoShowCandidates returns confirmed bookings whose check-in date is
	// strictly before the cutoff
	ListNoShowCandidates(ctx context.Context, cutoff time.Time) ([]*models.Booking, error)
}

// Inventory is the delegated room-conflict check. The engine does not own
// room data; it only asks whether a conflicting reservation exists.
type Inventory interface {
	HasConflict(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (bool, error)
}

// CreateBookingParams carries the inputs of the create operation
type CreateBookingParams struct {
	RoomID        uuid.UUID
	GuestID       uuid.UUID
	CheckInDate   time.Time
	CheckOutDate  time.Time
	PricePerNight float64
}

// LifecycleService owns the booking state machine, fee computation and the
// intents each transition must emit. It never talks to the payment processor
// or the notification transport directly.
type LifecycleService struct {
	store     BookingStore
	inventory Inventory
	cfg       config.BookingConfig
	logger    *logrus.Logger

	// Per-booking locks: operations on one booking are serialized,
	// operations on different bookings run in parallel.
	locksMu sync.Mutex
	locks   map[uuid.UUID]*bookingLock
}

// bookingLock is a refcounted mutex entry. The count tracks holders and
// waiters so the table entry can be dropped once nobody needs it.
type bookingLock struct {
	mu   sync.Mutex
	refs int
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	store BookingStore,
	inventory Inventory,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *LifecycleService {
	return &LifecycleService{
		store:     store,
		inventory: inventory,
		cfg:       cfg,
		logger:    logger,
		locks:     make(map[uuid.UUID]*bookingLock),
	}
}

// lockBooking acquires the per-booking mutex and returns its unlock func.
// The table entry is removed when the last holder releases it, so the map
// stays proportional to in-flight operations, not bookings ever touched.
func (s *LifecycleService) lockBooking(id uuid.UUID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &bookingLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// getBooking loads a booking or fails with unknown_booking.
func (s *LifecycleService) getBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, models.NewLifecycleError(models.ErrUnknownBooking, "booking %s does not exist", id)
	}
	return booking, nil
}

// ============================================================================
// CREATE BOOKING
// ============================================================================

// CreateBooking validates dates and room availability and creates a new
// booking in pending state. Confirmation happens later, once the payment
// collaborator reports a successful authorization.
func (s *LifecycleService) CreateBooking(ctx context.Context, params CreateBookingParams, now time.Time) (*models.Booking, error) {
	if !params.CheckOutDate.After(params.CheckInDate) {
		return nil, models.NewLifecycleError(models.ErrInvalidDateRange,
			"check-out %s must be after check-in %s",
			params.CheckOutDate.Format("2006-01-02"), params.CheckInDate.Format("2006-01-02"))
	}
	// Dates carry day granularity; bookings starting today are allowed.
	if params.CheckInDate.Before(now.UTC().Truncate(24 * time.Hour)) {
		return nil, models.NewLifecycleError(models.ErrInvalidDateRange,
			"check-in %s is in the past", params.CheckInDate.Format("2006-01-02"))
	}

	conflict, err := s.inventory.HasConflict(ctx, params.RoomID, params.CheckInDate, params.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check room availability: %w", err)
	}
	if conflict {
		return nil, models.NewLifecycleError(models.ErrRoomUnavailable,
			"room %s has a conflicting reservation for %s - %s",
			params.RoomID, params.CheckInDate.Format("2006-01-02"), params.CheckOutDate.Format("2006-01-02"))
	}

	booking := &models.Booking{
		ID:            uuid.New(),
		RoomID:        params.RoomID,
		GuestID:       params.GuestID,
		CheckInDate:   params.CheckInDate,
		CheckOutDate:  params.CheckOutDate,
		Status:        models.BookingStatusPending,
		PaymentState:  models.PaymentStateUnpaid,
		PricePerNight: params.PricePerNight,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateBooking(ctx, booking, nil); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"room_id":    booking.RoomID,
		"guest_id":   booking.GuestID,
		"check_in":   booking.CheckInDate.Format("2006-01-02"),
		"check_out":  booking.CheckOutDate.Format("2006-01-02"),
	}).Info("Booking created")

	return booking, nil
}

// ============================================================================
// CONFIRM BOOKING
// ============================================================================

// ConfirmBooking transitions pending -> confirmed. Invoked once the payment
// collaborator reports a successful authorization. Staff are notified at
// confirmation, not creation: an unpaid pending booking is not actionable.
func (s *LifecycleService) ConfirmBooking(ctx context.Context, id uuid.UUID) (*models.Booking, []models.Intent, error) {
	defer s.lockBooking(id)()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, nil, models.NewInvalidTransition("confirm", booking.Status)
	}

	booking.Status = models.BookingStatusConfirmed
	intents := []models.Intent{
		models.NewNotifyIntent(booking.ID, models.NotifyEventBookingConfirmed),
	}

	if err := s.store.ApplyChange(ctx, &models.BookingChange{Booking: booking, Intents: intents}); err != nil {
		return nil, nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	s.logger.WithField("booking_id", booking.ID).Info("Booking confirmed")
	return booking, intents, nil
}

// ============================================================================
// CANCEL BOOKING
// ============================================================================

// CancelBooking transitions pending|confirmed -> cancelled. A cancellation
// inside the configured notice window appends a cancellation fee equal to
// the configured percentage of the booking's total charge.
func (s *LifecycleService) CancelBooking(ctx context.Context, id uuid.UUID, now time.Time) (*models.Booking, []models.Intent, error) {
	defer s.lockBooking(id)()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusConfirmed {
		return nil, nil, models.NewInvalidTransition("cancel", booking.Status)
	}

	cancelledAt := now
	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = &cancelledAt

	var newFees []models.Fee
	intents := []models.Intent{
		models.NewNotifyIntent(booking.ID, models.NotifyEventBookingCancelled),
	}

	// Late cancellation: now >= checkInDate - notice. The boundary itself
	// counts as late.
	deadline := booking.CheckInDate.Add(-s.cfg.CancellationNotice)
	if !now.Before(deadline) {
		amount := s.cfg.CancellationFeePercent * booking.TotalCharge()
		fee := models.Fee{
			ID:        uuid.New(),
			BookingID: booking.ID,
			Kind:      models.FeeKindCancellation,
			Amount:    amount,
			Reason: fmt.Sprintf("cancelled within %s of check-in %s",
				s.cfg.CancellationNotice, booking.CheckInDate.Format("2006-01-02")),
			CreatedAt: now,
		}
		newFees = append(newFees, fee)
		booking.Fees = append(booking.Fees, fee)
		intents = append(intents, models.NewChargeIntent(booking.ID, amount, fee.Reason))
	}

	change := &models.BookingChange{Booking: booking, NewFees: newFees, Intents: intents}
	if err := s.store.ApplyChange(ctx, change); err != nil {
		return nil, nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"fees":       len(newFees),
	}).Info("Booking cancelled")

	return booking, intents, nil
}

// ============================================================================
// CHECK-IN
// ============================================================================

// CheckIn transitions confirmed -> checked_in. A check-in earlier than the
// configured grace period before the check-in date is rejected.
func (s *LifecycleService) CheckIn(ctx context.Context, id uuid.UUID, now time.Time) (*models.Booking, error) {
	defer s.lockBooking(id)()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, models.NewInvalidTransition("check-in", booking.Status)
	}
	if now.Before(booking.CheckInDate.Add(-s.cfg.CheckInGracePeriod)) {
		return nil, models.NewLifecycleError(models.ErrTooEarly,
			"check-in opens at %s", booking.CheckInDate.Add(-s.cfg.CheckInGracePeriod).Format(time.RFC3339))
	}

	booking.Status = models.BookingStatusCheckedIn
	if err := s.store.ApplyChange(ctx, &models.BookingChange{Booking: booking}); err != nil {
		return nil, fmt.Errorf("failed to check in booking: %w", err)
	}

	s.logger.WithField("booking_id", booking.ID).Info("Guest checked in")
	return booking, nil
}

// ============================================================================
// CHECK-OUT
// ============================================================================

// CheckOut transitions checked_in -> checked_out and records the actual
// check-out time. Checking out past the booked check-out date appends an
// overstay fee proportional to the overstay duration.
func (s *LifecycleService) CheckOut(ctx context.Context, id uuid.UUID, now time.Time) (*models.Booking, []models.Intent, error) {
	defer s.lockBooking(id)()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if booking.Status != models.BookingStatusCheckedIn {
		return nil, nil, models.NewInvalidTransition("check-out", booking.Status)
	}

	actual := now
	booking.Status = models.BookingStatusCheckedOut
	booking.ActualCheckOut = &actual

	var newFees []models.Fee
	var intents []models.Intent

	if now.After(booking.CheckOutDate) {
		overstay := now.Sub(booking.CheckOutDate)
		amount := s.cfg.OverstayDailyRate * booking.PricePerNight * overstay.Hours() / 24
		fee := models.Fee{
			ID:        uuid.New(),
			BookingID: booking.ID,
			Kind:      models.FeeKindOverstay,
			Amount:    amount,
			Reason:    fmt.Sprintf("overstayed %s past check-out %s", overstay, booking.CheckOutDate.Format("2006-01-02")),
			CreatedAt: now,
		}
		newFees = append(newFees, fee)
		booking.Fees = append(booking.Fees, fee)
		intents = append(intents, models.NewChargeIntent(booking.ID, amount, fee.Reason))
	}

	change := &models.BookingChange{Booking: booking, NewFees: newFees, Intents: intents}
	if err := s.store.ApplyChange(ctx, change); err != nil {
		return nil, nil, fmt.Errorf("failed to check out booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"fees":       len(newFees),
	}).Info("Guest checked out")

	return booking, intents, nil
}

// ============================================================================
// NO-SHOW SWEEP
// ============================================================================

// SweepNoShows marks every confirmed booking whose check-in date has passed
// without a check-in as no_show, appending a no-show fee and emitting charge
// and notification intents. Each booking is an isolated unit of work: one
// failure does not abort the sweep. Re-running the sweep is safe because
// idempotence is keyed on status, not on invocation count.
func (s *LifecycleService) SweepNoShows(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	candidates, err := s.store.ListNoShowCandidates(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list no-show candidates: %w", err)
	}

	result := &models.SweepResult{Examined: len(candidates)}
	for _, candidate := range candidates {
		if err := s.markNoShow(ctx, candidate.ID, now); err != nil {
			result.Failed++
			s.logger.WithError(err).WithField("booking_id", candidate.ID).Error("Failed to mark booking as no-show")
			continue
		}
		result.Marked++
	}

	s.logger.WithFields(logrus.Fields{
		"examined": result.Examined,
		"marked":   result.Marked,
		"failed":   result.Failed,
	}).Info("No-show sweep completed")

	return result, nil
}

// markNoShow transitions a single booking to no_show under its own lock.
// The status is re-read after acquiring the lock; a booking that checked in
// or was cancelled between candidate listing and here is skipped.
func (s *LifecycleService) markNoShow(ctx context.Context, id uuid.UUID, now time.Time) error {
	defer s.lockBooking(id)()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingStatusConfirmed || !booking.CheckInDate.Before(now) {
		return nil
	}

	booking.Status = models.BookingStatusNoShow
	amount := s.cfg.NoShowFeePercent * booking.TotalCharge()
	fee := models.Fee{
		ID:        uuid.New(),
		BookingID: booking.ID,
		Kind:      models.FeeKindNoShow,
		Amount:    amount,
		Reason:    fmt.Sprintf("no check-in by %s", booking.CheckInDate.Format("2006-01-02")),
		CreatedAt: now,
	}
	booking.Fees = append(booking.Fees, fee)

	change := &models.BookingChange{
		Booking: booking,
		NewFees: []models.Fee{fee},
		Intents: []models.Intent{
			models.NewChargeIntent(booking.ID, amount, fee.Reason),
			models.NewNotifyIntent(booking.ID, models.NotifyEventNoShow),
		},
	}
	return s.store.ApplyChange(ctx, change)
}

// ============================================================================
// PAYMENT RECONCILIATION
// ============================================================================

// ReconcilePayment updates the payment state of a booking from an external
// payment collaborator's report. It never changes the booking status and
// never guesses payment outcomes locally. A report of a successful payment
// notifies staff; the outbox dedup key keeps repeated reports to one message.
func (s *LifecycleService) ReconcilePayment(ctx context.Context, id uuid.UUID, state models.PaymentState, amountSettled float64) (*models.Booking, error) {
	if !models.ValidPaymentState(state) {
		return nil, fmt.Errorf("unknown payment state %q", state)
	}

	defer s.lockBooking(id)()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	booking.PaymentState = state
	booking.AmountSettled += amountSettled

	var intents []models.Intent
	if state == models.PaymentStatePaid {
		intents = append(intents, models.NewNotifyIntent(booking.ID, models.NotifyEventPaymentSucceeded))
	}

	if err := s.store.ApplyChange(ctx, &models.BookingChange{Booking: booking, Intents: intents}); err != nil {
		return nil, fmt.Errorf("failed to reconcile payment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"payment_state":  state,
		"amount_settled": amountSettled,
	}).Info("Payment reconciled")

	return booking, nil
}
