package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// INTENTS
// ============================================================================
//
// The lifecycle engine never calls the payment processor or the staff
// notification transport directly. Every transition that requires an
// external effect emits an Intent; the dispatcher executes it out-of-band
// and reports payment outcomes back through ReconcilePayment.

// IntentKind distinguishes the two external effects
type IntentKind string

const (
	IntentKindCharge IntentKind = "charge"
	IntentKindNotify IntentKind = "notify"
)

// NotifyEvent identifies which staff notification a NotifyIntent carries
type NotifyEvent string

const (
	NotifyEventBookingConfirmed NotifyEvent = "booking_confirmed"
	NotifyEventBookingCancelled NotifyEvent = "booking_cancelled"
	NotifyEventNoShow           NotifyEvent = "no_show"
	NotifyEventPaymentSucceeded NotifyEvent = "payment_succeeded"
)

// IntentStatus tracks dispatch progress in the outbox
type IntentStatus string

const (
	IntentStatusPending    IntentStatus = "pending"
	IntentStatusDispatched IntentStatus = "dispatched"
	IntentStatusFailed     IntentStatus = "failed"
)

// Intent is a persisted request for an external effect. Charge intents
// carry Amount and Reason; notify intents carry Event.
type Intent struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	BookingID    uuid.UUID    `json:"booking_id" db:"booking_id"`
	Kind         IntentKind   `json:"kind" db:"kind"`
	Amount       float64      `json:"amount" db:"amount"`
	Reason       string       `json:"reason" db:"reason"`
	Event        NotifyEvent  `json:"event,omitempty" db:"event"`
	Status       IntentStatus `json:"status" db:"status"`
	Attempts     int          `json:"attempts" db:"attempts"`
	LastError    *string      `json:"last_error,omitempty" db:"last_error"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	DispatchedAt *time.Time   `json:"dispatched_at,omitempty" db:"dispatched_at"`
}

// NewChargeIntent builds a pending charge intent for a booking fee.
func NewChargeIntent(bookingID uuid.UUID, amount float64, reason string) Intent {
	return Intent{
		ID:        uuid.New(),
		BookingID: bookingID,
		Kind:      IntentKindCharge,
		Amount:    amount,
		Reason:    reason,
		Status:    IntentStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// NewNotifyIntent builds a pending staff notification intent.
func NewNotifyIntent(bookingID uuid.UUID, event NotifyEvent) Intent {
	return Intent{
		ID:        uuid.New(),
		BookingID: bookingID,
		Kind:      IntentKindNotify,
		Event:     event,
		Status:    IntentStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// DedupKey is the idempotence key for intent delivery. The dispatcher may
// re-deliver; the outbox deduplicates on this key so a retried cancel or a
// repeated sweep cannot double-charge or double-notify.
func (i Intent) DedupKey() string {
	if i.Kind == IntentKindCharge {
		return fmt.Sprintf("%s|%s|%.2f", i.BookingID, i.Kind, i.Amount)
	}
	return fmt.Sprintf("%s|%s|%s", i.BookingID, i.Kind, i.Event)
}
