package services

import (
	"context"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/dto"
)

// SourceSvcFacade is the configuration-editor boundary: coordinators define
// water sources and their time slots; the booking core only reads them.
type SourceSvcFacade interface {
	// CreateSource registers a water source with operating hours and pricing.
	CreateSource(ctx context.Context, actor domain.Actor, req dto.CreateSourceRequest) (*domain.WaterSource, error)

	// GetSource retrieves a source.
	GetSource(ctx context.Context, sourceID string) (*domain.WaterSource, error)

	// ListSources retrieves all sources.
	ListSources(ctx context.Context) ([]domain.WaterSource, error)

	// SetSourceStatus flips a source between active and maintenance.
	SetSourceStatus(ctx context.Context, actor domain.Actor, sourceID string, status domain.SourceStatus) error

	// CreateSlot defines a time slot against a source. The slot must fall
	// inside the source's operating hours.
	CreateSlot(ctx context.Context, actor domain.Actor, sourceID string, req dto.CreateSlotRequest) (*domain.TimeSlot, error)
}
