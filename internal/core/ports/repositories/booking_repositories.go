package repositories

import (
	"context"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
)

// BookingReader defines read operations for booking data
type BookingReader interface {
	// FindBookingByID retrieves a booking by its unique identifier.
	FindBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error)

	// ListBookingsByHousehold retrieves a paginated list of a household's
	// bookings, newest first, using token-based pagination.
	ListBookingsByHousehold(ctx context.Context, householdID string, limit int, nextToken *string) ([]domain.Booking, *string, error)

	// ListBookingsBySource retrieves bookings against a source whose slot
	// start time falls in [from, to), for reporting exports.
	ListBookingsBySource(ctx context.Context, sourceID string, from, to time.Time) ([]domain.Booking, error)
}

// BookingWriter defines the state-changing operations of the booking store.
// Each method is atomic: either every listed effect persists or none does.
type BookingWriter interface {
	// CreateWithHold persists a new Requested booking together with its slot
	// capacity reservation and its hold debit. The capacity check, the
	// balance check, the reservation, the debit and the booking insert form
	// one atomic unit; ErrSlotFull or ErrInsufficientFunds leave no partial
	// state behind.
	CreateWithHold(ctx context.Context, booking domain.Booking, hold domain.LedgerTransaction) error

	// TransitionStatus moves a booking from one status to another with no
	// fund movement (Approve, Complete). It fails with ErrInvalidTransition
	// if the booking is not currently in the from status.
	TransitionStatus(ctx context.Context, bookingID string, from, to domain.BookingStatus, actorID string, at time.Time) (*domain.Booking, error)

	// ResolveWithRefund moves a booking from one status to a terminal status
	// (Deny, Cancel), releases its slot reservation and appends the
	// compensating refund credit, all atomically. The status guard makes the
	// refund idempotent: a second resolution fails with ErrInvalidTransition
	// and issues nothing.
	ResolveWithRefund(ctx context.Context, bookingID string, from, to domain.BookingStatus, refund domain.LedgerTransaction, actorID string, at time.Time) (*domain.Booking, error)

	// CompleteElapsed transitions every Approved booking whose slot end time
	// is at or before now to Completed, returning the bookings it completed.
	CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error)
}

// BookingRepositoryFacade combines all booking repository interfaces
type BookingRepositoryFacade interface {
	BookingReader
	BookingWriter
}
