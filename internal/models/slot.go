package models

import "time"

// TimeSlot is the persisted dispensing interval. reserved_liters carries a
// CHECK constraint keeping it within [0, capacity_liters].
type TimeSlot struct {
	SlotID         string    `db:"slot_id"` // Primary Key (UUID)
	SourceID       string    `db:"source_id"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	CapacityLiters int64     `db:"capacity_liters"`
	ReservedLiters int64     `db:"reserved_liters"`
	AuditFields
}

// SlotReservation is the persisted capacity hold backing an active booking.
type SlotReservation struct {
	ReservationID  string    `db:"reservation_id"` // Primary Key (UUID)
	SlotID         string    `db:"slot_id"`
	QuantityLiters int64     `db:"quantity_liters"`
	Released       bool      `db:"released"`
	CreatedAt      time.Time `db:"created_at"`
}
