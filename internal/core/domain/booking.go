package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the booking lifecycle state.
type BookingStatus string

const (
	BookingRequested BookingStatus = "REQUESTED"
	BookingApproved  BookingStatus = "APPROVED"
	BookingDenied    BookingStatus = "DENIED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// transitions is the lifecycle table: Requested -> {Approved, Denied},
// Approved -> {Completed, Cancelled}. Denied, Completed and Cancelled are
// terminal.
var transitions = map[BookingStatus]map[BookingStatus]bool{
	BookingRequested: {
		BookingApproved: true,
		BookingDenied:   true,
	},
	BookingApproved: {
		BookingCompleted: true,
		BookingCancelled: true,
	},
}

// CanTransition reports whether the lifecycle allows moving from -> to.
func CanTransition(from, to BookingStatus) bool {
	return transitions[from][to]
}

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Active reports whether bookings in this status hold slot capacity.
func (s BookingStatus) Active() bool {
	return s == BookingRequested || s == BookingApproved
}

// Booking ties one household to one time slot for a requested quantity.
// Price is computed by the pricing policy at request time and never
// recomputed. The hold transaction is the debit taken at request time; the
// refund transaction is set only when the booking is denied or cancelled.
type Booking struct {
	BookingID      string          `json:"bookingID"` // Primary Key (UUID)
	HouseholdID    string          `json:"householdID"`
	SlotID         string          `json:"slotID"`
	ReservationID  string          `json:"reservationID"`
	QuantityLiters int64           `json:"quantityLiters"`
	Price          decimal.Decimal `json:"price"`
	Status         BookingStatus   `json:"status"`
	HoldTxnID      string          `json:"holdTxnID"`
	RefundTxnID    *string         `json:"refundTxnID,omitempty"`
	ResolvedAt     *time.Time      `json:"resolvedAt,omitempty"`
	AuditFields
}
