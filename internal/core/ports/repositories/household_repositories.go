package repositories

import (
	"context"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
)

// HouseholdReader defines read operations for household data
type HouseholdReader interface {
	// FindHouseholdByID retrieves a household by its unique identifier.
	FindHouseholdByID(ctx context.Context, householdID string) (*domain.Household, error)

	// ListHouseholds retrieves households ordered by creation time.
	ListHouseholds(ctx context.Context, limit int, offset int) ([]domain.Household, error)
}

// HouseholdWriter defines write operations for household data
type HouseholdWriter interface {
	// SaveHousehold persists a new household.
	SaveHousehold(ctx context.Context, household domain.Household) error

	// UpdateHousehold updates mutable household fields (name, tier, active flag).
	UpdateHousehold(ctx context.Context, household domain.Household) error
}

// HouseholdRepositoryFacade combines all household repository interfaces
type HouseholdRepositoryFacade interface {
	HouseholdReader
	HouseholdWriter
}
