package services

import (
	"fmt"

	"github.com/stayhive/hotel-booking-backend/internal/models"
)

const dateLayout = "2006-01-02"

// buildNotifyText renders the staff notification text for an intent event
func buildNotifyText(event models.NotifyEvent, booking *models.Booking) string {
	switch event {
	case models.NotifyEventBookingConfirmed:
		return fmt.Sprintf(
			"New booking confirmed\nBooking: %s\nRoom: %s\nGuest: %s\nCheck-in: %s\nCheck-out: %s\nTotal: %.2f",
			booking.ID, booking.RoomID, booking.GuestID,
			booking.CheckInDate.Format(dateLayout),
			booking.CheckOutDate.Format(dateLayout),
			booking.TotalCharge(),
		)
	case models.NotifyEventBookingCancelled:
		text := fmt.Sprintf(
			"Booking cancelled\nBooking: %s\nRoom: %s\nGuest: %s\nCheck-in: %s",
			booking.ID, booking.RoomID, booking.GuestID,
			booking.CheckInDate.Format(dateLayout),
		)
		if booking.HasFee(models.FeeKindCancellation) {
			text += "\nCancellation fee applies"
		}
		return text
	case models.NotifyEventNoShow:
		return fmt.Sprintf(
			"Guest did not arrive\nBooking: %s\nRoom: %s\nGuest: %s\nCheck-in was: %s\nNo-show fee applies",
			booking.ID, booking.RoomID, booking.GuestID,
			booking.CheckInDate.Format(dateLayout),
		)
	case models.NotifyEventPaymentSucceeded:
		return fmt.Sprintf(
			"Payment received\nBooking: %s\nGuest: %s\nSettled so far: %.2f of %.2f",
			booking.ID, booking.GuestID,
			booking.AmountSettled, booking.TotalCharge()+booking.TotalOwed(),
		)
	default:
		return fmt.Sprintf("Booking event %s\nBooking: %s", event, booking.ID)
	}
}

// buildChargeDescription renders the checkout line item description for a
// charge intent
func buildChargeDescription(booking *models.Booking, reason string) string {
	if reason == "" {
		return fmt.Sprintf("Room charge for booking %s", booking.ID)
	}
	return fmt.Sprintf("Booking %s: %s", booking.ID, reason)
}
