package services

import (
	"context"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// LedgerReaderSvc defines read operations on household ledgers
type LedgerReaderSvc interface {
	// Balance returns the household's current balance, derived from the
	// transaction log.
	Balance(ctx context.Context, householdID string) (decimal.Decimal, error)

	// History retrieves a chronological, restartable page of the household's
	// transactions.
	History(ctx context.Context, householdID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// LedgerWriterSvc defines append operations on household ledgers
type LedgerWriterSvc interface {
	// Credit appends a positive transaction to the household's ledger.
	Credit(ctx context.Context, actor domain.Actor, householdID string, amount decimal.Decimal, reason domain.TransactionReason, bookingID *string) (*domain.LedgerTransaction, error)

	// Debit appends a negative transaction, failing with ErrInsufficientFunds
	// if the resulting balance would be negative.
	Debit(ctx context.Context, actor domain.Actor, householdID string, amount decimal.Decimal, reason domain.TransactionReason, bookingID *string) (*domain.LedgerTransaction, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
