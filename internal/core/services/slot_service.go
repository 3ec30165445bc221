package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/cwas-project/cwas_backend/internal/middleware"
)

// slotRegistryService exposes the slot registry: availability snapshots and
// the reserve/release pair. The atomicity of reserve and release lives in
// the repository; this layer adds logging and shaping only.
type slotRegistryService struct {
	slotRepo portsrepo.SlotRepositoryFacade
}

// NewSlotRegistryService creates a new SlotRegistrySvc.
func NewSlotRegistryService(slotRepo portsrepo.SlotRepositoryFacade) portssvc.SlotRegistrySvc {
	return &slotRegistryService{slotRepo: slotRepo}
}

// Ensure slotRegistryService implements the portssvc.SlotRegistrySvc interface
var _ portssvc.SlotRegistrySvc = (*slotRegistryService)(nil)

// GetSlot retrieves a slot with its current reserved quantity.
func (s *slotRegistryService) GetSlot(ctx context.Context, slotID string) (*domain.TimeSlot, error) {
	slot, err := s.slotRepo.FindSlotByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to find slot %s: %w", slotID, err)
	}
	return slot, nil
}

// ListAvailableSlots returns a consistent snapshot of remaining capacity.
func (s *slotRegistryService) ListAvailableSlots(ctx context.Context, sourceID string, from, to time.Time) ([]dto.SlotResponse, error) {
	slots, err := s.slotRepo.ListSlotsBySource(ctx, sourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for source %s: %w", sourceID, err)
	}

	out := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		if slots[i].AvailableLiters() <= 0 {
			continue
		}
		out = append(out, dto.ToSlotResponse(&slots[i]))
	}
	return out, nil
}

// Reserve atomically takes slot capacity and returns the reservation handle.
func (s *slotRegistryService) Reserve(ctx context.Context, slotID string, quantityLiters int64) (*domain.SlotReservation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	reservation, err := s.slotRepo.ReserveCapacity(ctx, slotID, quantityLiters)
	if err != nil {
		return nil, err
	}

	logger.Debug("Slot capacity reserved", slog.String("reservation_id", reservation.ReservationID), slog.String("slot_id", slotID), slog.Int64("quantity_liters", quantityLiters))
	return reservation, nil
}

// Release returns a reservation's capacity exactly once.
func (s *slotRegistryService) Release(ctx context.Context, reservationID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.slotRepo.ReleaseReservation(ctx, reservationID); err != nil {
		return err
	}

	logger.Debug("Slot reservation released", slog.String("reservation_id", reservationID))
	return nil
}
