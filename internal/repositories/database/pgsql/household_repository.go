package pgsql

import (
	"context"
	"errors"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	"github.com/cwas-project/cwas_backend/internal/models"
	"github.com/cwas-project/cwas_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxHouseholdRepository struct {
	BaseRepository
}

// newPgxHouseholdRepository creates a new repository for household data.
func newPgxHouseholdRepository(pool *pgxpool.Pool) portsrepo.HouseholdRepositoryFacade {
	return &PgxHouseholdRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.HouseholdRepositoryFacade = (*PgxHouseholdRepository)(nil)

// SaveHousehold persists a new household.
func (r *PgxHouseholdRepository) SaveHousehold(ctx context.Context, household domain.Household) error {
	modelHousehold := mapping.ToModelHousehold(household)
	query := `
		INSERT INTO households (
			household_id, name, tier, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelHousehold.HouseholdID,
		modelHousehold.Name,
		modelHousehold.Tier,
		modelHousehold.IsActive,
		modelHousehold.CreatedAt,
		modelHousehold.CreatedBy,
		modelHousehold.LastUpdatedAt,
		modelHousehold.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert household "+modelHousehold.HouseholdID, err)
	}
	return nil
}

// UpdateHousehold updates the mutable household fields.
func (r *PgxHouseholdRepository) UpdateHousehold(ctx context.Context, household domain.Household) error {
	modelHousehold := mapping.ToModelHousehold(household)
	query := `
		UPDATE households
		SET name = $2, tier = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE household_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		modelHousehold.HouseholdID,
		modelHousehold.Name,
		modelHousehold.Tier,
		modelHousehold.IsActive,
		modelHousehold.LastUpdatedAt,
		modelHousehold.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update household "+modelHousehold.HouseholdID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindHouseholdByID retrieves a household by its ID.
func (r *PgxHouseholdRepository) FindHouseholdByID(ctx context.Context, householdID string) (*domain.Household, error) {
	query := `
		SELECT household_id, name, tier, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM households
		WHERE household_id = $1;
	`
	var m models.Household
	err := r.Pool.QueryRow(ctx, query, householdID).Scan(
		&m.HouseholdID,
		&m.Name,
		&m.Tier,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find household by ID "+householdID, err)
	}

	domainHousehold := mapping.ToDomainHousehold(m)
	return &domainHousehold, nil
}

// ListHouseholds retrieves households ordered by creation time.
func (r *PgxHouseholdRepository) ListHouseholds(ctx context.Context, limit, offset int) ([]domain.Household, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT household_id, name, tier, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM households
		ORDER BY created_at, household_id
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query households", err)
	}
	defer rows.Close()

	households := []models.Household{}
	for rows.Next() {
		var m models.Household
		err := rows.Scan(
			&m.HouseholdID,
			&m.Name,
			&m.Tier,
			&m.IsActive,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan household row", err)
		}
		households = append(households, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating household rows", err)
	}

	return mapping.ToDomainHouseholdSlice(households), nil
}
