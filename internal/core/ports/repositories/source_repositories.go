package repositories

import (
	"context"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
)

// SourceReader defines read operations for water source data
type SourceReader interface {
	// FindSourceByID retrieves a water source by its unique identifier.
	FindSourceByID(ctx context.Context, sourceID string) (*domain.WaterSource, error)

	// ListSources retrieves all configured water sources.
	ListSources(ctx context.Context) ([]domain.WaterSource, error)
}

// SourceWriter defines write operations for water source data
type SourceWriter interface {
	// SaveSource persists a new water source.
	SaveSource(ctx context.Context, source domain.WaterSource) error

	// UpdateSourceStatus flips a source between active and maintenance.
	UpdateSourceStatus(ctx context.Context, sourceID string, status domain.SourceStatus, updatedBy string, updatedAt time.Time) error
}

// SourceRepositoryFacade combines all source repository interfaces
type SourceRepositoryFacade interface {
	SourceReader
	SourceWriter
}
