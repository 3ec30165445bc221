package repositories

import (
	"context"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
)

// SlotReader defines read operations for time slot data
type SlotReader interface {
	// FindSlotByID retrieves a time slot, including its current reserved quantity.
	FindSlotByID(ctx context.Context, slotID string) (*domain.TimeSlot, error)

	// ListSlotsBySource retrieves slots for a source whose start time falls in [from, to).
	// The reserved quantities in the result are a consistent snapshot.
	ListSlotsBySource(ctx context.Context, sourceID string, from, to time.Time) ([]domain.TimeSlot, error)
}

// SlotWriter defines write operations for time slot data
type SlotWriter interface {
	// SaveSlot persists a new time slot.
	SaveSlot(ctx context.Context, slot domain.TimeSlot) error
}

// SlotReserver defines the capacity reservation operations of the slot registry.
// Both operations are atomic with respect to concurrent reservations on the
// same slot: a reserve that would exceed capacity fails with ErrSlotFull and
// changes nothing.
type SlotReserver interface {
	// ReserveCapacity checks reserved+quantity <= capacity and, if it holds,
	// increments the slot's reserved quantity and records a reservation handle.
	ReserveCapacity(ctx context.Context, slotID string, quantityLiters int64) (*domain.SlotReservation, error)

	// ReleaseReservation decrements the slot's reserved quantity by the
	// handle's quantity, exactly once. A second release fails with
	// ErrAlreadyReleased and changes nothing.
	ReleaseReservation(ctx context.Context, reservationID string) error

	// FindReservationByID retrieves a reservation handle.
	FindReservationByID(ctx context.Context, reservationID string) (*domain.SlotReservation, error)
}

// SlotRepositoryFacade combines all slot repository interfaces
type SlotRepositoryFacade interface {
	SlotReader
	SlotWriter
	SlotReserver
}
