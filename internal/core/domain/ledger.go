package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionReason classifies why a ledger transaction was recorded.
type TransactionReason string

const (
	ReasonDeposit    TransactionReason = "DEPOSIT"
	ReasonHold       TransactionReason = "HOLD"
	ReasonRefund     TransactionReason = "REFUND"
	ReasonAdjustment TransactionReason = "ADJUSTMENT"
)

// LedgerTransaction is an immutable, append-only record of a balance change.
// Amount is signed: debits are negative, credits positive. A household's
// balance is always the signed sum of its transactions, never a stored field.
type LedgerTransaction struct {
	TransactionID string            `json:"transactionID"` // Primary Key (UUID)
	HouseholdID   string            `json:"householdID"`
	Amount        decimal.Decimal   `json:"amount"`
	Reason        TransactionReason `json:"reason"`
	BookingID     *string           `json:"bookingID,omitempty"` // set for holds and refunds
	CreatedAt     time.Time         `json:"createdAt"`
	CreatedBy     string            `json:"createdBy"`
}

// IsDebit reports whether the transaction reduces the household's balance.
func (t *LedgerTransaction) IsDebit() bool {
	return t.Amount.IsNegative()
}
