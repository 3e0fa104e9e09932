package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// BOOKING STATUSES & PAYMENT STATES (matches DB ENUMs)
// ============================================================================

// BookingStatus represents the lifecycle state of a booking
// Matches PostgreSQL ENUM: booking_status
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"     // Created, waiting for payment authorization
	BookingStatusConfirmed  BookingStatus = "confirmed"   // Payment authorized, reservation held
	BookingStatusCheckedIn  BookingStatus = "checked_in"  // Guest arrived
	BookingStatusCheckedOut BookingStatus = "checked_out" // Stay completed (terminal)
	BookingStatusCancelled  BookingStatus = "cancelled"   // Cancelled by guest or staff (terminal)
	BookingStatusNoShow     BookingStatus = "no_show"     // Guest never arrived, set by sweep only (terminal)
)

// PaymentState represents the externally reconciled payment state of a booking
// Matches PostgreSQL ENUM: payment_state
type PaymentState string

const (
	PaymentStateUnpaid        PaymentState = "unpaid"
	PaymentStateAuthPending   PaymentState = "auth_pending"
	PaymentStatePaid          PaymentState = "paid"
	PaymentStateRefundPending PaymentState = "refund_pending"
	PaymentStateRefunded      PaymentState = "refunded"
)

// ValidPaymentState reports whether s is one of the known payment states.
func ValidPaymentState(s PaymentState) bool {
	switch s {
	case PaymentStateUnpaid, PaymentStateAuthPending, PaymentStatePaid,
		PaymentStateRefundPending, PaymentStateRefunded:
		return true
	}
	return false
}

// bookingTransitions is the complete transition table. Anything not listed
// here is rejected with an invalid_transition error.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCheckedIn, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusCheckedIn: {BookingStatusCheckedOut},
}

// CanTransition reports whether from -> to is a valid lifecycle transition.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// ============================================================================
// FEES
// ============================================================================

// FeeKind represents the type of a charge line item
type FeeKind string

const (
	FeeKindCancellation FeeKind = "cancellation_fee"
	FeeKindNoShow       FeeKind = "no_show_fee"
	FeeKindOverstay     FeeKind = "overstay_fee"
)

// Fee is an immutable charge line item appended to a booking
type Fee struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	Kind      FeeKind   `json:"kind" db:"kind"`
	Amount    float64   `json:"amount" db:"amount"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ============================================================================
// BOOKING
// ============================================================================

// Booking represents one hotel room reservation. Bookings are never deleted;
// cancelled and no-show bookings are kept for audit history.
type Booking struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	RoomID         uuid.UUID     `json:"room_id" db:"room_id"`
	GuestID        uuid.UUID     `json:"guest_id" db:"guest_id"`
	CheckInDate    time.Time     `json:"check_in_date" db:"check_in_date"`
	CheckOutDate   time.Time     `json:"check_out_date" db:"check_out_date"`
	ActualCheckOut *time.Time    `json:"actual_check_out,omitempty" db:"actual_check_out"`
	Status         BookingStatus `json:"status" db:"status"`
	PaymentState   PaymentState  `json:"payment_state" db:"payment_state"`
	AmountSettled  float64       `json:"amount_settled" db:"amount_settled"`
	PricePerNight  float64       `json:"price_per_night" db:"price_per_night"`
	Fees           []Fee         `json:"fees" db:"-"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// Nights returns the booked stay length in whole nights.
func (b *Booking) Nights() int {
	n := int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
	if n < 1 {
		n = 1
	}
	return n
}

// TotalCharge returns the base charge for the stay (nights x nightly rate),
// excluding fees.
func (b *Booking) TotalCharge() float64 {
	return float64(b.Nights()) * b.PricePerNight
}

// TotalOwed returns the sum of all appended fee amounts.
func (b *Booking) TotalOwed() float64 {
	var total float64
	for _, f := range b.Fees {
		total += f.Amount
	}
	return total
}

// HasFee reports whether a fee of the given kind has already been appended.
func (b *Booking) HasFee(kind FeeKind) bool {
	for _, f := range b.Fees {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// ============================================================================
// CHANGES
// ============================================================================

// BookingChange is the unit of work the store commits atomically: the
// updated booking row, any fees appended by the operation, and any intents
// the operation emitted. Either everything lands or nothing does.
type BookingChange struct {
	Booking *Booking
	NewFees []Fee
	Intents []Intent
}

// BookingFilter narrows list queries from the API layer
type BookingFilter struct {
	GuestID  *uuid.UUID
	RoomID   *uuid.UUID
	Status   *BookingStatus
	FromDate *time.Time // check_in_date >= FromDate
	ToDate   *time.Time // check_out_date <= ToDate
}

// SweepResult summarises one no-show sweep run
type SweepResult struct {
	Examined int `json:"examined"`
	Marked   int `json:"marked"`
	Failed   int `json:"failed"`
}
