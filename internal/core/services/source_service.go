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
	ErrSlotOutsideHours  = errors.New("slot falls outside source operating hours")
	ErrSlotTimesInverted = errors.New("slot end time must be after start time")
)

// sourceService is the configuration-editor boundary for water sources and
// their time slots.
type sourceService struct {
	sourceRepo portsrepo.SourceRepositoryFacade
	slotRepo   portsrepo.SlotWriter
}

// NewSourceService creates a new SourceService.
func NewSourceService(sourceRepo portsrepo.SourceRepositoryFacade, slotRepo portsrepo.SlotWriter) portssvc.SourceSvcFacade {
	return &sourceService{
		sourceRepo: sourceRepo,
		slotRepo:   slotRepo,
	}
}

// Ensure sourceService implements the portssvc.SourceSvcFacade interface
var _ portssvc.SourceSvcFacade = (*sourceService)(nil)

// CreateSource registers a water source. Coordinator capability required.
func (s *sourceService) CreateSource(ctx context.Context, actor domain.Actor, req dto.CreateSourceRequest) (*domain.WaterSource, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsCoordinator() {
		return nil, fmt.Errorf("%w: only coordinators may create sources", apperrors.ErrForbidden)
	}
	if req.PricePerLiter.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: price per liter must not be negative", apperrors.ErrValidation)
	}
	if req.ClosesAtMinute <= req.OpensAtMinute {
		return nil, fmt.Errorf("%w: closing time must be after opening time", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	source := domain.WaterSource{
		SourceID:       uuid.NewString(),
		Name:           req.Name,
		Status:         domain.SourceActive,
		PricePerLiter:  req.PricePerLiter,
		OpensAtMinute:  req.OpensAtMinute,
		ClosesAtMinute: req.ClosesAtMinute,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
		},
	}

	if err := s.sourceRepo.SaveSource(ctx, source); err != nil {
		logger.Error("Failed to save source", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save source: %w", err)
	}

	logger.Info("Water source created", slog.String("source_id", source.SourceID), slog.String("name", source.Name))
	return &source, nil
}

// GetSource retrieves a source.
func (s *sourceService) GetSource(ctx context.Context, sourceID string) (*domain.WaterSource, error) {
	source, err := s.sourceRepo.FindSourceByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find source %s: %w", sourceID, err)
	}
	return source, nil
}

// ListSources retrieves all sources.
func (s *sourceService) ListSources(ctx context.Context) ([]domain.WaterSource, error) {
	sources, err := s.sourceRepo.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// SetSourceStatus flips a source between active and maintenance. New
// bookings are refused while a source is under maintenance; existing
// bookings are untouched.
func (s *sourceService) SetSourceStatus(ctx context.Context, actor domain.Actor, sourceID string, status domain.SourceStatus) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsCoordinator() {
		return fmt.Errorf("%w: only coordinators may change source status", apperrors.ErrForbidden)
	}
	if status != domain.SourceActive && status != domain.SourceUnderMaintenance {
		return fmt.Errorf("%w: unknown source status %q", apperrors.ErrValidation, status)
	}

	if err := s.sourceRepo.UpdateSourceStatus(ctx, sourceID, status, actor.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update source status: %w", err)
	}

	logger.Info("Source status updated", slog.String("source_id", sourceID), slog.String("status", string(status)))
	return nil
}

// CreateSlot defines a time slot against a source. Coordinator capability
// required; the slot must fall inside the source's operating hours.
func (s *sourceService) CreateSlot(ctx context.Context, actor domain.Actor, sourceID string, req dto.CreateSlotRequest) (*domain.TimeSlot, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsCoordinator() {
		return nil, fmt.Errorf("%w: only coordinators may create slots", apperrors.ErrForbidden)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("%w: %s to %s", ErrSlotTimesInverted, req.StartTime, req.EndTime)
	}

	source, err := s.sourceRepo.FindSourceByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find source %s: %w", sourceID, err)
	}
	if !source.WithinOperatingHours(req.StartTime, req.EndTime) {
		return nil, fmt.Errorf("%w: source %s opens %d and closes %d minutes after midnight",
			ErrSlotOutsideHours, sourceID, source.OpensAtMinute, source.ClosesAtMinute)
	}

	now := time.Now().UTC()
	slot := domain.TimeSlot{
		SlotID:         uuid.NewString(),
		SourceID:       sourceID,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		CapacityLiters: req.CapacityLiters,
		ReservedLiters: 0,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
		},
	}

	if err := s.slotRepo.SaveSlot(ctx, slot); err != nil {
		logger.Error("Failed to save slot", slog.String("error", err.Error()), slog.String("source_id", sourceID))
		return nil, fmt.Errorf("failed to save slot: %w", err)
	}

	logger.Info("Time slot created", slog.String("slot_id", slot.SlotID), slog.String("source_id", sourceID), slog.Int64("capacity_liters", slot.CapacityLiters))
	return &slot, nil
}
