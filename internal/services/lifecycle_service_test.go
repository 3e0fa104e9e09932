package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhive/hotel-booking-backend/internal/config"
	"github.com/stayhive/hotel-booking-backend/internal/models"
)

// memoryStore is an in-memory BookingStore with the same contract as the
// Postgres repository: copies on read, atomic apply, dedup on intent keys.
type memoryStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
	intents  []models.Intent
	dedup    map[string]bool

	failApplyFor map[uuid.UUID]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bookings:     make(map[uuid.UUID]*models.Booking),
		dedup:        make(map[string]bool),
		failApplyFor: make(map[uuid.UUID]bool),
	}
}

func copyBooking(b *models.Booking) *models.Booking {
	c := *b
	c.Fees = append([]models.Fee(nil), b.Fees...)
	return &c
}

func (m *memoryStore) GetBooking(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(b), nil
}

func (m *memoryStore) CreateBooking(_ context.Context, booking *models.Booking, intents []models.Intent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = copyBooking(booking)
	m.addIntents(intents)
	return nil
}

func (m *memoryStore) ApplyChange(_ context.Context, change *models.BookingChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApplyFor[change.Booking.ID] {
		return assert.AnError
	}
	m.bookings[change.Booking.ID] = copyBooking(change.Booking)
	m.addIntents(change.Intents)
	return nil
}

func (m *memoryStore) addIntents(intents []models.Intent) {
	for _, intent := range intents {
		key := intent.DedupKey()
		if m.dedup[key] {
			continue
		}
		m.dedup[key] = true
		m.intents = append(m.intents, intent)
	}
}

func (m *memoryStore) ListNoShowCandidates(_ context.Context, cutoff time.Time) ([]*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []*models.Booking
	for _, b := range m.bookings {
		if b.Status == models.BookingStatusConfirmed && b.CheckInDate.Before(cutoff) {
			candidates = append(candidates, copyBooking(b))
		}
	}
	return candidates, nil
}

func (m *memoryStore) intentsFor(id uuid.UUID, kind models.IntentKind) []models.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Intent
	for _, intent := range m.intents {
		if intent.BookingID == id && intent.Kind == kind {
			out = append(out, intent)
		}
	}
	return out
}

// stubInventory answers every conflict check the same way
type stubInventory struct {
	conflict bool
}

func (s *stubInventory) HasConflict(_ context.Context, _ uuid.UUID, _, _ time.Time) (bool, error) {
	return s.conflict, nil
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		CancellationFeePercent: 0.25,
		CancellationNotice:     24 * time.Hour,
		CheckInGracePeriod:     3 * time.Hour,
		OverstayDailyRate:      1.5,
		NoShowFeePercent:       0.5,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(store *memoryStore, inventory Inventory) *LifecycleService {
	return NewLifecycleService(store, inventory, testBookingConfig(), testLogger())
}

// day builds a UTC midnight timestamp n days from a fixed base date
func day(n int) time.Time {
	return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func createTestBooking(t *testing.T, svc *LifecycleService, checkIn, checkOut time.Time) *models.Booking {
	t.Helper()
	booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:        uuid.New(),
		GuestID:       uuid.New(),
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		PricePerNight: 100,
	}, day(0))
	require.NoError(t, err)
	return booking
}

func TestCreateBooking_Success(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})

	booking := createTestBooking(t, svc, day(2), day(5))

	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, models.PaymentStateUnpaid, booking.PaymentState)
	assert.Equal(t, 3, booking.Nights())
	assert.Equal(t, 300.0, booking.TotalCharge())

	stored, err := store.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
}

func TestCreateBooking_SameDayAllowed(t *testing.T) {
	svc := newTestService(newMemoryStore(), &stubInventory{})

	booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:        uuid.New(),
		GuestID:       uuid.New(),
		CheckInDate:   day(0),
		CheckOutDate:  day(1),
		PricePerNight: 100,
	}, day(0).Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
}

func TestCreateBooking_InvalidDateRange(t *testing.T) {
	svc := newTestService(newMemoryStore(), &stubInventory{})

	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
	}{
		{"check-out equals check-in", day(2), day(2)},
		{"check-out before check-in", day(5), day(2)},
		{"check-in in the past", day(-1), day(2)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
				RoomID:        uuid.New(),
				GuestID:       uuid.New(),
				CheckInDate:   tc.checkIn,
				CheckOutDate:  tc.checkOut,
				PricePerNight: 100,
			}, day(0))
			require.Error(t, err)
			assert.True(t, models.IsLifecycleError(err, models.ErrInvalidDateRange))
		})
	}
}

func TestCreateBooking_RoomUnavailable(t *testing.T) {
	svc := newTestService(newMemoryStore(), &stubInventory{conflict: true})

	_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
		RoomID:        uuid.New(),
		GuestID:       uuid.New(),
		CheckInDate:   day(2),
		CheckOutDate:  day(5),
		PricePerNight: 100,
	}, day(0))
	require.Error(t, err)
	assert.True(t, models.IsLifecycleError(err, models.ErrRoomUnavailable))
}

func TestConfirmBooking_Success(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	confirmed, intents, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	require.Len(t, intents, 1)
	assert.Equal(t, models.IntentKindNotify, intents[0].Kind)
	assert.Equal(t, models.NotifyEventBookingConfirmed, intents[0].Event)
}

func TestConfirmBooking_AlreadyConfirmed(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	_, _, err = svc.ConfirmBooking(context.Background(), booking.ID)
	require.Error(t, err)
	assert.True(t, models.IsLifecycleError(err, models.ErrInvalidTransition))
}

func TestConfirmBooking_Unknown(t *testing.T) {
	svc := newTestService(newMemoryStore(), &stubInventory{})

	_, _, err := svc.ConfirmBooking(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, models.IsLifecycleError(err, models.ErrUnknownBooking))
}

func TestCancelBooking_EarlyNoFee(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(5), day(8))

	// More than 24h before check-in
	cancelled, intents, err := svc.CancelBooking(context.Background(), booking.ID, day(3))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Empty(t, cancelled.Fees)

	require.Len(t, intents, 1)
	assert.Equal(t, models.IntentKindNotify, intents[0].Kind)
	assert.Equal(t, models.NotifyEventBookingCancelled, intents[0].Event)
}

func TestCancelBooking_LateFee(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(5), day(8))

	// 12h before check-in, inside the 24h notice window
	cancelled, intents, err := svc.CancelBooking(context.Background(), booking.ID, day(5).Add(-12*time.Hour))
	require.NoError(t, err)

	require.Len(t, cancelled.Fees, 1)
	assert.Equal(t, models.FeeKindCancellation, cancelled.Fees[0].Kind)
	assert.InDelta(t, 75.0, cancelled.Fees[0].Amount, 1e-9) // 25% of 300

	charges := store.intentsFor(booking.ID, models.IntentKindCharge)
	require.Len(t, charges, 1)
	assert.InDelta(t, 75.0, charges[0].Amount, 1e-9)
	require.Len(t, intents, 2)
}

func TestCancelBooking_ExactlyAtNoticeBoundary(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(5), day(8))

	// now == checkInDate - notice: the boundary counts as late
	cancelled, _, err := svc.CancelBooking(context.Background(), booking.ID, day(5).Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, cancelled.Fees, 1)
	assert.Equal(t, models.FeeKindCancellation, cancelled.Fees[0].Kind)
}

func TestCancelBooking_JustBeforeNoticeBoundary(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(5), day(8))

	cancelled, _, err := svc.CancelBooking(context.Background(), booking.ID, day(5).Add(-24*time.Hour-time.Second))
	require.NoError(t, err)
	assert.Empty(t, cancelled.Fees)
}

func TestCancelBooking_AfterCheckIn(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), booking.ID, day(2))
	require.NoError(t, err)

	_, _, err = svc.CancelBooking(context.Background(), booking.ID, day(3))
	require.Error(t, err)
	assert.True(t, models.IsLifecycleError(err, models.ErrInvalidTransition))
}

func TestCheckIn_Success(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	checkedIn, err := svc.CheckIn(context.Background(), booking.ID, day(2).Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCheckedIn, checkedIn.Status)
}

func TestCheckIn_WithinGracePeriod(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	// Exactly at checkInDate - grace: allowed
	checkedIn, err := svc.CheckIn(context.Background(), booking.ID, day(2).Add(-3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCheckedIn, checkedIn.Status)
}

func TestCheckIn_TooEarly(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), booking.ID, day(2).Add(-3*time.Hour-time.Minute))
	require.Error(t, err)
	assert.True(t, models.IsLifecycleError(err, models.ErrTooEarly))
}

func TestCheckIn_NotConfirmed(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	_, err := svc.CheckIn(context.Background(), booking.ID, day(2))
	require.Error(t, err)
	assert.True(t, models.IsLifecycleError(err, models.ErrInvalidTransition))
}

func checkInBooking(t *testing.T, svc *LifecycleService, booking *models.Booking, at time.Time) {
	t.Helper()
	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), booking.ID, at)
	require.NoError(t, err)
}

func TestCheckOut_OnTime(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	checkInBooking(t, svc, booking, day(2))

	out := day(5).Add(-2 * time.Hour)
	checkedOut, intents, err := svc.CheckOut(context.Background(), booking.ID, out)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCheckedOut, checkedOut.Status)
	require.NotNil(t, checkedOut.ActualCheckOut)
	assert.Equal(t, out, *checkedOut.ActualCheckOut)
	assert.Empty(t, checkedOut.Fees)
	assert.Empty(t, intents)
}

func TestCheckOut_ExactlyAtBoundary(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	checkInBooking(t, svc, booking, day(2))

	// now == checkOutDate: zero overstay, no fee
	checkedOut, _, err := svc.CheckOut(context.Background(), booking.ID, day(5))
	require.NoError(t, err)
	assert.Empty(t, checkedOut.Fees)
}

func TestCheckOut_OverstayFee(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	checkInBooking(t, svc, booking, day(2))

	// 6h past the booked check-out: 1.5 * 100 * 6/24 = 37.50
	checkedOut, intents, err := svc.CheckOut(context.Background(), booking.ID, day(5).Add(6*time.Hour))
	require.NoError(t, err)

	require.Len(t, checkedOut.Fees, 1)
	assert.Equal(t, models.FeeKindOverstay, checkedOut.Fees[0].Kind)
	assert.InDelta(t, 37.5, checkedOut.Fees[0].Amount, 1e-9)

	require.Len(t, intents, 1)
	assert.Equal(t, models.IntentKindCharge, intents[0].Kind)
	assert.InDelta(t, 37.5, intents[0].Amount, 1e-9)
}

func TestCheckOut_NotCheckedIn(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	_, _, err := svc.CheckOut(context.Background(), booking.ID, day(5))
	require.Error(t, err)
	assert.True(t, models.IsLifecycleError(err, models.ErrInvalidTransition))
}

func TestSweepNoShows_MarksOverdueConfirmed(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	result, err := svc.SweepNoShows(context.Background(), day(3))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Examined)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 0, result.Failed)

	swept, err := store.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusNoShow, swept.Status)
	require.Len(t, swept.Fees, 1)
	assert.Equal(t, models.FeeKindNoShow, swept.Fees[0].Kind)
	assert.InDelta(t, 150.0, swept.Fees[0].Amount, 1e-9) // 50% of 300

	charges := store.intentsFor(booking.ID, models.IntentKindCharge)
	require.Len(t, charges, 1)
	notifies := store.intentsFor(booking.ID, models.IntentKindNotify)
	events := make([]models.NotifyEvent, 0, len(notifies))
	for _, n := range notifies {
		events = append(events, n.Event)
	}
	assert.Contains(t, events, models.NotifyEventNoShow)
}

func TestSweepNoShows_SecondRunIsNoOp(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))
	_, _, err := svc.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = svc.SweepNoShows(context.Background(), day(3))
	require.NoError(t, err)

	result, err := svc.SweepNoShows(context.Background(), day(3))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Examined)
	assert.Equal(t, 0, result.Marked)

	swept, err := store.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Len(t, swept.Fees, 1)
	assert.Len(t, store.intentsFor(booking.ID, models.IntentKindCharge), 1)
}

func TestSweepNoShows_SkipsCheckedInAndFuture(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})

	arrived := createTestBooking(t, svc, day(2), day(5))
	checkInBooking(t, svc, arrived, day(2))

	future := createTestBooking(t, svc, day(9), day(12))
	_, _, err := svc.ConfirmBooking(context.Background(), future.ID)
	require.NoError(t, err)

	result, err := svc.SweepNoShows(context.Background(), day(3))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Examined)
	assert.Equal(t, 0, result.Marked)
}

func TestSweepNoShows_FailureDoesNotAbortSweep(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})

	broken := createTestBooking(t, svc, day(1), day(3))
	healthy := createTestBooking(t, svc, day(2), day(5))
	for _, b := range []*models.Booking{broken, healthy} {
		_, _, err := svc.ConfirmBooking(context.Background(), b.ID)
		require.NoError(t, err)
	}
	store.failApplyFor[broken.ID] = true

	result, err := svc.SweepNoShows(context.Background(), day(3))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 1, result.Failed)

	swept, err := store.GetBooking(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusNoShow, swept.Status)
}

func TestReconcilePayment_UpdatesStateOnly(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	reconciled, err := svc.ReconcilePayment(context.Background(), booking.ID, models.PaymentStatePaid, 300)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatePaid, reconciled.PaymentState)
	assert.Equal(t, 300.0, reconciled.AmountSettled)
	assert.Equal(t, models.BookingStatusPending, reconciled.Status)
}

func TestReconcilePayment_AccumulatesSettledAmount(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	_, err := svc.ReconcilePayment(context.Background(), booking.ID, models.PaymentStatePaid, 200)
	require.NoError(t, err)
	reconciled, err := svc.ReconcilePayment(context.Background(), booking.ID, models.PaymentStatePaid, 100)
	require.NoError(t, err)
	assert.Equal(t, 300.0, reconciled.AmountSettled)
}

func TestReconcilePayment_PaidNotifiesStaff(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	_, err := svc.ReconcilePayment(context.Background(), booking.ID, models.PaymentStatePaid, booking.TotalCharge())
	require.NoError(t, err)

	notifies := store.intentsFor(booking.ID, models.IntentKindNotify)
	require.Len(t, notifies, 1)
	assert.Equal(t, models.NotifyEventPaymentSucceeded, notifies[0].Event)

	// A re-delivered success report dedups to the same notification.
	_, err = svc.ReconcilePayment(context.Background(), booking.ID, models.PaymentStatePaid, 0)
	require.NoError(t, err)
	assert.Len(t, store.intentsFor(booking.ID, models.IntentKindNotify), 1)
}

func TestReconcilePayment_NonPaidStatesDoNotNotify(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	for _, state := range []models.PaymentState{
		models.PaymentStateAuthPending,
		models.PaymentStateRefundPending,
		models.PaymentStateRefunded,
	} {
		_, err := svc.ReconcilePayment(context.Background(), booking.ID, state, 0)
		require.NoError(t, err)
	}
	assert.Empty(t, store.intentsFor(booking.ID, models.IntentKindNotify))
}

func TestReconcilePayment_RejectsUnknownState(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	booking := createTestBooking(t, svc, day(2), day(5))

	_, err := svc.ReconcilePayment(context.Background(), booking.ID, models.PaymentState("settled"), 100)
	require.Error(t, err)
}

func TestLockBooking_DropsEntryWhenIdle(t *testing.T) {
	svc := newTestService(newMemoryStore(), &stubInventory{})
	id := uuid.New()

	unlock := svc.lockBooking(id)

	released := make(chan struct{})
	go func() {
		u := svc.lockBooking(id)
		u()
		close(released)
	}()

	unlock()
	<-released

	svc.locksMu.Lock()
	defer svc.locksMu.Unlock()
	assert.Empty(t, svc.locks)
}

func TestFullLifecycle(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &stubInventory{})
	ctx := context.Background()

	booking := createTestBooking(t, svc, day(2), day(5))

	_, err := svc.ReconcilePayment(ctx, booking.ID, models.PaymentStatePaid, booking.TotalCharge())
	require.NoError(t, err)

	_, _, err = svc.ConfirmBooking(ctx, booking.ID)
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, booking.ID, day(2).Add(time.Hour))
	require.NoError(t, err)

	final, _, err := svc.CheckOut(ctx, booking.ID, day(5).Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusCheckedOut, final.Status)
	assert.Equal(t, models.PaymentStatePaid, final.PaymentState)
	assert.Empty(t, final.Fees)
	assert.True(t, final.Status.IsTerminal())
}
