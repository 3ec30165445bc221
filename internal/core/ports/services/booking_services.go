package services

import (
	"context"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/dto"
)

// BookingReaderSvc defines read operations for bookings
type BookingReaderSvc interface {
	// GetBooking retrieves a booking. Households may only see their own
	// bookings; coordinators may see any.
	GetBooking(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)

	// ListBookingsByHousehold retrieves a paginated list of a household's bookings.
	ListBookingsByHousehold(ctx context.Context, actor domain.Actor, householdID string, params dto.ListBookingsParams) (*dto.ListBookingsResponse, error)
}

// BookingWriterSvc is the booking state machine. Request creates a booking
// in Requested; Approve/Deny/Cancel/Complete drive it through the lifecycle.
type BookingWriterSvc interface {
	// Request validates the household's tier against the slot's access
	// window, prices the request, and atomically reserves slot capacity and
	// debits the hold. Requires the household capability.
	Request(ctx context.Context, actor domain.Actor, req dto.CreateBookingRequest) (*domain.Booking, error)

	// Approve finalizes the hold. Coordinator capability, Requested only.
	Approve(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)

	// Deny releases the reservation and refunds the hold. Coordinator
	// capability, Requested only.
	Deny(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)

	// Cancel releases the reservation and refunds the hold. Owner household
	// or coordinator, Approved only, strictly before slot start.
	Cancel(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)

	// CompleteElapsed transitions Approved bookings whose slot has ended to
	// Completed. Driven by the sweeper; safe to call at any time.
	CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error)
}

// BookingSvcFacade combines all booking service interfaces
type BookingSvcFacade interface {
	BookingReaderSvc
	BookingWriterSvc
}
