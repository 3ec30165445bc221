package domain

import "time"

// TimeSlot is a bounded dispensing interval belonging to exactly one source.
// ReservedLiters tracks the quantity currently held by bookings in the
// Requested or Approved states; it never exceeds CapacityLiters.
type TimeSlot struct {
	SlotID         string    `json:"slotID"` // Primary Key (UUID)
	SourceID       string    `json:"sourceID"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	CapacityLiters int64     `json:"capacityLiters"`
	ReservedLiters int64     `json:"reservedLiters"`
	AuditFields
}

// AvailableLiters returns the unreserved capacity in the slot.
func (s *TimeSlot) AvailableLiters() int64 {
	return s.CapacityLiters - s.ReservedLiters
}

// Ended reports whether the slot's dispensing interval has passed.
func (s *TimeSlot) Ended(now time.Time) bool {
	return !now.Before(s.EndTime)
}

// SlotReservation is the handle returned by a successful capacity reserve.
// Releasing it a second time is an error; the Released flag guards that.
type SlotReservation struct {
	ReservationID  string    `json:"reservationID"` // Primary Key (UUID)
	SlotID         string    `json:"slotID"`
	QuantityLiters int64     `json:"quantityLiters"`
	Released       bool      `json:"released"`
	CreatedAt      time.Time `json:"createdAt"`
}
