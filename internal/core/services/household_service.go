package services

import (
	"context"
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
)

// householdService manages the household directory and deposits.
type householdService struct {
	householdRepo portsrepo.HouseholdRepositoryFacade
	ledgerSvc     portssvc.LedgerWriterSvc
}

// NewHouseholdService creates a new HouseholdService.
func NewHouseholdService(householdRepo portsrepo.HouseholdRepositoryFacade, ledgerSvc portssvc.LedgerWriterSvc) portssvc.HouseholdSvcFacade {
	return &householdService{
		householdRepo: householdRepo,
		ledgerSvc:     ledgerSvc,
	}
}

// Ensure householdService implements the portssvc.HouseholdSvcFacade interface
var _ portssvc.HouseholdSvcFacade = (*householdService)(nil)

// CreateHousehold registers a new household. Coordinator capability required.
func (s *householdService) CreateHousehold(ctx context.Context, actor domain.Actor, req dto.CreateHouseholdRequest) (*domain.Household, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsCoordinator() {
		return nil, fmt.Errorf("%w: only coordinators may register households", apperrors.ErrForbidden)
	}
	if !req.Tier.Valid() {
		return nil, fmt.Errorf("%w: unknown priority tier %q", apperrors.ErrValidation, req.Tier)
	}

	now := time.Now().UTC()
	household := domain.Household{
		HouseholdID: uuid.NewString(),
		Name:        req.Name,
		Tier:        req.Tier,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
		},
	}

	if err := s.householdRepo.SaveHousehold(ctx, household); err != nil {
		logger.Error("Failed to save household", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save household: %w", err)
	}

	logger.Info("Household registered", slog.String("household_id", household.HouseholdID), slog.String("tier", string(household.Tier)))
	return &household, nil
}

// GetHousehold retrieves a household. Households may only read themselves.
func (s *householdService) GetHousehold(ctx context.Context, actor domain.Actor, householdID string) (*domain.Household, error) {
	if !actor.IsCoordinator() && actor.ID != householdID {
		// Obscure existence from other households
		return nil, apperrors.ErrNotFound
	}

	household, err := s.householdRepo.FindHouseholdByID(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to find household %s: %w", householdID, err)
	}
	return household, nil
}

// ListHouseholds retrieves registered households. Coordinator capability required.
func (s *householdService) ListHouseholds(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Household, error) {
	if !actor.IsCoordinator() {
		return nil, fmt.Errorf("%w: only coordinators may list households", apperrors.ErrForbidden)
	}
	if limit <= 0 {
		limit = 50
	}

	households, err := s.householdRepo.ListHouseholds(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	return households, nil
}

// Deposit credits the household's ledger. Coordinator capability required;
// balances stay internal, there is no payment gateway behind this.
func (s *householdService) Deposit(ctx context.Context, actor domain.Actor, householdID string, req dto.DepositRequest) (*domain.LedgerTransaction, error) {
	if !actor.IsCoordinator() {
		return nil, fmt.Errorf("%w: only coordinators may record deposits", apperrors.ErrForbidden)
	}

	return s.ledgerSvc.Credit(ctx, actor, householdID, req.Amount, domain.ReasonDeposit, nil)
}
