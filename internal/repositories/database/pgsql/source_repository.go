package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	"github.com/cwas-project/cwas_backend/internal/models"
	"github.com/cwas-project/cwas_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSourceRepository struct {
	BaseRepository
}

// newPgxSourceRepository creates a new repository for water source data.
func newPgxSourceRepository(pool *pgxpool.Pool) portsrepo.SourceRepositoryFacade {
	return &PgxSourceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.SourceRepositoryFacade = (*PgxSourceRepository)(nil)

// SaveSource persists a new water source.
func (r *PgxSourceRepository) SaveSource(ctx context.Context, source domain.WaterSource) error {
	m := mapping.ToModelSource(source)
	query := `
		INSERT INTO water_sources (
			source_id, name, status, price_per_liter, opens_at_minute, closes_at_minute,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.SourceID,
		m.Name,
		m.Status,
		m.PricePerLiter,
		m.OpensAtMinute,
		m.ClosesAtMinute,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert water source "+m.SourceID, err)
	}
	return nil
}

// FindSourceByID retrieves a water source by its ID.
func (r *PgxSourceRepository) FindSourceByID(ctx context.Context, sourceID string) (*domain.WaterSource, error) {
	query := `
		SELECT source_id, name, status, price_per_liter, opens_at_minute, closes_at_minute,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM water_sources
		WHERE source_id = $1;
	`
	var m models.WaterSource
	err := r.Pool.QueryRow(ctx, query, sourceID).Scan(
		&m.SourceID,
		&m.Name,
		&m.Status,
		&m.PricePerLiter,
		&m.OpensAtMinute,
		&m.ClosesAtMinute,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find water source by ID "+sourceID, err)
	}

	domainSource := mapping.ToDomainSource(m)
	return &domainSource, nil
}

// ListSources retrieves all configured water sources, ordered by name.
func (r *PgxSourceRepository) ListSources(ctx context.Context) ([]domain.WaterSource, error) {
	query := `
		SELECT source_id, name, status, price_per_liter, opens_at_minute, closes_at_minute,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM water_sources
		ORDER BY name;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query water sources", err)
	}
	defer rows.Close()

	sources := []models.WaterSource{}
	for rows.Next() {
		var m models.WaterSource
		err := rows.Scan(
			&m.SourceID,
			&m.Name,
			&m.Status,
			&m.PricePerLiter,
			&m.OpensAtMinute,
			&m.ClosesAtMinute,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan water source row", err)
		}
		sources = append(sources, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating water source rows", err)
	}

	return mapping.ToDomainSourceSlice(sources), nil
}

// UpdateSourceStatus flips a source between active and maintenance.
func (r *PgxSourceRepository) UpdateSourceStatus(ctx context.Context, sourceID string, status domain.SourceStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE water_sources
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE source_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, sourceID, models.SourceStatus(status), updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of water source "+sourceID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
