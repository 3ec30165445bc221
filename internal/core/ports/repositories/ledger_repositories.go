package repositories

import (
	"context"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerReader defines read operations for ledger data
type LedgerReader interface {
	// SumByHousehold derives the household's current balance as the signed
	// sum of its transactions.
	SumByHousehold(ctx context.Context, householdID string) (decimal.Decimal, error)

	// ListTransactionsByHousehold retrieves a chronological page of
	// transactions using token-based pagination. It returns the
	// transactions, a token for the next page, and an error.
	ListTransactionsByHousehold(ctx context.Context, householdID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error)

	// ListAllTransactionsByHousehold retrieves the full chronological
	// transaction history, for reporting exports.
	ListAllTransactionsByHousehold(ctx context.Context, householdID string) ([]domain.LedgerTransaction, error)
}

// LedgerWriter defines append operations for ledger data. The ledger is
// append-only; there is no update or delete.
type LedgerWriter interface {
	// AppendCredit durably records a positive-amount transaction.
	AppendCredit(ctx context.Context, txn domain.LedgerTransaction) error

	// AppendDebit durably records a negative-amount transaction. The balance
	// check and the append happen as one atomic operation: if the resulting
	// balance would be negative it fails with ErrInsufficientFunds and no
	// intermediate state is observable.
	AppendDebit(ctx context.Context, txn domain.LedgerTransaction) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
