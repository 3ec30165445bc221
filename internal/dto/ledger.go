package dto

import (
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionResponse is the API representation of a ledger transaction.
type TransactionResponse struct {
	TransactionID string                   `json:"transactionID"`
	HouseholdID   string                   `json:"householdID"`
	Amount        decimal.Decimal          `json:"amount"`
	Reason        domain.TransactionReason `json:"reason"`
	BookingID     *string                  `json:"bookingID,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
}

// ToTransactionResponse maps a domain transaction to its API representation.
func ToTransactionResponse(t *domain.LedgerTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID,
		HouseholdID:   t.HouseholdID,
		Amount:        t.Amount,
		Reason:        t.Reason,
		BookingID:     t.BookingID,
		CreatedAt:     t.CreatedAt,
	}
}

// ToTransactionResponses maps a slice of domain transactions.
func ToTransactionResponses(txns []domain.LedgerTransaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}

// ListTransactionsParams holds pagination parameters for ledger history.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a chronological page of ledger transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}
