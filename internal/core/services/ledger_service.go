package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/cwas-project/cwas_backend/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAmountNotPositive = errors.New("transaction amount must be positive")
)

const defaultHistoryLimit = 20

// ledgerService provides the append-only household ledger operations.
type ledgerService struct {
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	householdRepo portsrepo.HouseholdReader
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, householdRepo portsrepo.HouseholdReader) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:    ledgerRepo,
		householdRepo: householdRepo,
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// Credit appends a positive transaction to the household's ledger.
func (s *ledgerService) Credit(ctx context.Context, actor domain.Actor, householdID string, amount decimal.Decimal, reason domain.TransactionReason, bookingID *string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", ErrAmountNotPositive, amount.String())
	}

	if _, err := s.householdRepo.FindHouseholdByID(ctx, householdID); err != nil {
		return nil, fmt.Errorf("failed to find household %s: %w", householdID, err)
	}

	txn := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		HouseholdID:   householdID,
		Amount:        amount,
		Reason:        reason,
		BookingID:     bookingID,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     actor.ID,
	}

	if err := s.ledgerRepo.AppendCredit(ctx, txn); err != nil {
		logger.Error("Failed to append credit", slog.String("error", err.Error()), slog.String("household_id", householdID))
		return nil, fmt.Errorf("failed to append credit: %w", err)
	}

	logger.Info("Ledger credit recorded", slog.String("transaction_id", txn.TransactionID), slog.String("household_id", householdID), slog.String("amount", amount.String()))
	return &txn, nil
}

// Debit appends a negative transaction. The overdraft check and the append
// are one atomic operation inside the repository.
func (s *ledgerService) Debit(ctx context.Context, actor domain.Actor, householdID string, amount decimal.Decimal, reason domain.TransactionReason, bookingID *string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", ErrAmountNotPositive, amount.String())
	}

	if _, err := s.householdRepo.FindHouseholdByID(ctx, householdID); err != nil {
		return nil, fmt.Errorf("failed to find household %s: %w", householdID, err)
	}

	txn := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		HouseholdID:   householdID,
		Amount:        amount.Neg(),
		Reason:        reason,
		BookingID:     bookingID,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     actor.ID,
	}

	if err := s.ledgerRepo.AppendDebit(ctx, txn); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			logger.Warn("Debit rejected, insufficient funds", slog.String("household_id", householdID), slog.String("amount", amount.String()))
			return nil, err
		}
		logger.Error("Failed to append debit", slog.String("error", err.Error()), slog.String("household_id", householdID))
		return nil, fmt.Errorf("failed to append debit: %w", err)
	}

	logger.Info("Ledger debit recorded", slog.String("transaction_id", txn.TransactionID), slog.String("household_id", householdID), slog.String("amount", amount.String()))
	return &txn, nil
}

// Balance derives the household's current balance from its transaction log.
func (s *ledgerService) Balance(ctx context.Context, householdID string) (decimal.Decimal, error) {
	if _, err := s.householdRepo.FindHouseholdByID(ctx, householdID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to find household %s: %w", householdID, err)
	}

	balance, err := s.ledgerRepo.SumByHousehold(ctx, householdID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to derive balance: %w", err)
	}
	return balance, nil
}

// History retrieves a chronological page of the household's transactions.
func (s *ledgerService) History(ctx context.Context, householdID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	txns, nextToken, err := s.ledgerRepo.ListTransactionsByHousehold(ctx, householdID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list ledger transactions", slog.String("error", err.Error()), slog.String("household_id", householdID))
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}
