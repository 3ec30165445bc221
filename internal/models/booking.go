package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus mirrors the domain lifecycle state at the storage layer.
type BookingStatus string

// Booking is the persisted link between a household and a time slot.
// Status transitions are guarded by compare-and-set updates on the status
// column.
type Booking struct {
	BookingID      string          `db:"booking_id"` // Primary Key (UUID)
	HouseholdID    string          `db:"household_id"`
	SlotID         string          `db:"slot_id"`
	ReservationID  string          `db:"reservation_id"`
	QuantityLiters int64           `db:"quantity_liters"`
	Price          decimal.Decimal `db:"price"`
	Status         BookingStatus   `db:"status"`
	HoldTxnID      string          `db:"hold_txn_id"`
	RefundTxnID    *string         `db:"refund_txn_id"`
	ResolvedAt     *time.Time      `db:"resolved_at"`
	AuditFields
}
