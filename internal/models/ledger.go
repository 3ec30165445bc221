package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionReason mirrors the domain reason codes at the storage layer.
type TransactionReason string

// LedgerTransaction is an append-only row; rows are never updated or
// deleted. Amount is signed, debits negative.
type LedgerTransaction struct {
	TransactionID string            `db:"transaction_id"` // Primary Key (UUID)
	HouseholdID   string            `db:"household_id"`
	Amount        decimal.Decimal   `db:"amount"`
	Reason        TransactionReason `db:"reason"`
	BookingID     *string           `db:"booking_id"`
	CreatedAt     time.Time         `db:"created_at"`
	CreatedBy     string            `db:"created_by"`
}
