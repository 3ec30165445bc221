package services

import (
	"context"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/dto"
)

// HouseholdSvcFacade manages the household directory. Creation and deposits
// require the coordinator capability; households may read themselves.
type HouseholdSvcFacade interface {
	// CreateHousehold registers a new household with a priority tier.
	CreateHousehold(ctx context.Context, actor domain.Actor, req dto.CreateHouseholdRequest) (*domain.Household, error)

	// GetHousehold retrieves a household.
	GetHousehold(ctx context.Context, actor domain.Actor, householdID string) (*domain.Household, error)

	// ListHouseholds retrieves registered households.
	ListHouseholds(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Household, error)

	// Deposit credits the household's ledger. Balances are internal ledger
	// entries; there is no external payment processing.
	Deposit(ctx context.Context, actor domain.Actor, householdID string, req dto.DepositRequest) (*domain.LedgerTransaction, error)
}
