package services

import (
	"context"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/dto"
)

// SlotRegistrySvc is the slot registry: capacity reservation plus
// availability queries. Reservations are normally taken through the booking
// state machine, which pairs them with ledger holds.
type SlotRegistrySvc interface {
	// GetSlot retrieves a slot with its current reserved quantity.
	GetSlot(ctx context.Context, slotID string) (*domain.TimeSlot, error)

	// ListAvailableSlots returns a consistent snapshot of slots and their
	// remaining capacity for a source in [from, to).
	ListAvailableSlots(ctx context.Context, sourceID string, from, to time.Time) ([]dto.SlotResponse, error)

	// Reserve atomically takes quantityLiters of slot capacity, failing with
	// ErrSlotFull if it does not fit.
	Reserve(ctx context.Context, slotID string, quantityLiters int64) (*domain.SlotReservation, error)

	// Release returns a reservation's capacity exactly once; a second
	// release fails with ErrAlreadyReleased.
	Release(ctx context.Context, reservationID string) error
}
