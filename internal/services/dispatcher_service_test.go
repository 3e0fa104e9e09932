package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhive/hotel-booking-backend/internal/config"
	"github.com/stayhive/hotel-booking-backend/internal/models"
)

// memoryOutbox is an in-memory IntentOutbox that records status changes
type memoryOutbox struct {
	pending    []*models.Intent
	dispatched []uuid.UUID
	failed     map[uuid.UUID]string
}

func newMemoryOutbox(intents ...*models.Intent) *memoryOutbox {
	return &memoryOutbox{pending: intents, failed: make(map[uuid.UUID]string)}
}

func (o *memoryOutbox) FetchPending(_ context.Context, limit int) ([]*models.Intent, error) {
	if len(o.pending) > limit {
		return o.pending[:limit], nil
	}
	return o.pending, nil
}

func (o *memoryOutbox) MarkDispatched(_ context.Context, id uuid.UUID) error {
	o.dispatched = append(o.dispatched, id)
	return nil
}

func (o *memoryOutbox) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	o.failed[id] = reason
	return nil
}

// recordingGateway captures checkout sessions instead of calling Stripe
type recordingGateway struct {
	sessions []CheckoutParams
	err      error
}

func (g *recordingGateway) CreateCheckoutSession(_ context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.sessions = append(g.sessions, params)
	return &CheckoutSession{ID: fmt.Sprintf("cs_%d", len(g.sessions))}, nil
}

// recordingNotifier captures staff messages instead of calling Telegram
type recordingNotifier struct {
	messages []string
	chatIDs  []int64
	err      error
}

func (n *recordingNotifier) SendMessage(chatID int64, text string) error {
	if n.err != nil {
		return n.err
	}
	n.chatIDs = append(n.chatIDs, chatID)
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) GetName() string { return "recording" }

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		NoShowSweepSpec:  "0 0 0 * * *",
		DispatchInterval: time.Minute,
		DispatchBatch:    100,
	}
}

func seedConfirmedBooking(t *testing.T, store *memoryStore) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		ID:            uuid.New(),
		RoomID:        uuid.New(),
		GuestID:       uuid.New(),
		CheckInDate:   day(2),
		CheckOutDate:  day(5),
		Status:        models.BookingStatusConfirmed,
		PaymentState:  models.PaymentStateUnpaid,
		PricePerNight: 100,
	}
	require.NoError(t, store.CreateBooking(context.Background(), booking, nil))
	return booking
}

func TestDispatchPending_DeliversChargeAndNotify(t *testing.T) {
	store := newMemoryStore()
	booking := seedConfirmedBooking(t, store)

	charge := models.NewChargeIntent(booking.ID, 75, "late cancellation")
	notify := models.NewNotifyIntent(booking.ID, models.NotifyEventBookingConfirmed)
	outbox := newMemoryOutbox(&charge, &notify)

	payments := &recordingGateway{}
	notifier := &recordingNotifier{}
	dispatcher := NewDispatcherService(outbox, store, payments, notifier, testSchedulerConfig(), -100123, testLogger())

	delivered, err := dispatcher.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	require.Len(t, payments.sessions, 1)
	assert.Equal(t, booking.ID.String(), payments.sessions[0].BookingID)
	assert.Equal(t, CheckoutPurposeFee, payments.sessions[0].Purpose)
	assert.Equal(t, 75.0, payments.sessions[0].Amount)
	assert.Contains(t, payments.sessions[0].Description, "late cancellation")

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, int64(-100123), notifier.chatIDs[0])
	assert.Contains(t, notifier.messages[0], "booking confirmed")
	assert.Contains(t, notifier.messages[0], booking.ID.String())

	assert.ElementsMatch(t, []uuid.UUID{charge.ID, notify.ID}, outbox.dispatched)
	assert.Empty(t, outbox.failed)
}

func TestDispatchPending_FailureDoesNotAbortBatch(t *testing.T) {
	store := newMemoryStore()
	booking := seedConfirmedBooking(t, store)

	orphan := models.NewNotifyIntent(uuid.New(), models.NotifyEventNoShow)
	notify := models.NewNotifyIntent(booking.ID, models.NotifyEventBookingCancelled)
	outbox := newMemoryOutbox(&orphan, &notify)

	dispatcher := NewDispatcherService(outbox, store, &recordingGateway{}, &recordingNotifier{}, testSchedulerConfig(), 1, testLogger())

	delivered, err := dispatcher.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	assert.Contains(t, outbox.failed[orphan.ID], "not found")
	assert.Equal(t, []uuid.UUID{notify.ID}, outbox.dispatched)
}

func TestDispatchPending_GatewayErrorMarksFailed(t *testing.T) {
	store := newMemoryStore()
	booking := seedConfirmedBooking(t, store)

	charge := models.NewChargeIntent(booking.ID, 150, "no check-in")
	outbox := newMemoryOutbox(&charge)

	payments := &recordingGateway{err: fmt.Errorf("stripe returned status 500")}
	dispatcher := NewDispatcherService(outbox, store, payments, &recordingNotifier{}, testSchedulerConfig(), 1, testLogger())

	delivered, err := dispatcher.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	assert.Contains(t, outbox.failed[charge.ID], "500")
	assert.Empty(t, outbox.dispatched)
}

func TestDispatchPending_RespectsBatchLimit(t *testing.T) {
	store := newMemoryStore()
	booking := seedConfirmedBooking(t, store)

	var intents []*models.Intent
	for _, event := range []models.NotifyEvent{
		models.NotifyEventBookingConfirmed,
		models.NotifyEventBookingCancelled,
		models.NotifyEventNoShow,
	} {
		intent := models.NewNotifyIntent(booking.ID, event)
		intents = append(intents, &intent)
	}
	outbox := newMemoryOutbox(intents...)

	cfg := testSchedulerConfig()
	cfg.DispatchBatch = 2
	dispatcher := NewDispatcherService(outbox, store, &recordingGateway{}, &recordingNotifier{}, cfg, 1, testLogger())

	delivered, err := dispatcher.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
}
