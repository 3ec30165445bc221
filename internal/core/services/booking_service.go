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
)

const defaultBookingsLimit = 20

// bookingService is the booking state machine. It coordinates the slot
// registry and the ledger through the booking repository, whose operations
// are atomic: a failed request leaves neither a reservation nor a hold
// behind, and a denial or cancellation issues its compensating refund
// exactly once.
type bookingService struct {
	bookingRepo   portsrepo.BookingRepositoryFacade
	slotRepo      portsrepo.SlotReader
	sourceRepo    portsrepo.SourceReader
	householdRepo portsrepo.HouseholdReader
	pricing       portssvc.PricingPolicy
	windows       AccessWindowPolicy
	notifier      portssvc.BookingNotifier
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookingRepo portsrepo.BookingRepositoryFacade,
	slotRepo portsrepo.SlotReader,
	sourceRepo portsrepo.SourceReader,
	householdRepo portsrepo.HouseholdReader,
	pricing portssvc.PricingPolicy,
	windows AccessWindowPolicy,
	notifier portssvc.BookingNotifier,
) portssvc.BookingSvcFacade {
	return &bookingService{
		bookingRepo:   bookingRepo,
		slotRepo:      slotRepo,
		sourceRepo:    sourceRepo,
		householdRepo: householdRepo,
		pricing:       pricing,
		windows:       windows,
		notifier:      notifier,
	}
}

// Ensure bookingService implements the portssvc.BookingSvcFacade interface
var _ portssvc.BookingSvcFacade = (*bookingService)(nil)

// Request turns a household's slot request into a Requested booking, or
// rejects it with no partial state.
func (s *bookingService) Request(ctx context.Context, actor domain.Actor, req dto.CreateBookingRequest) (*domain.Booking, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if actor.Role != domain.RoleHousehold {
		return nil, fmt.Errorf("%w: only households may request bookings", apperrors.ErrForbidden)
	}

	household, err := s.householdRepo.FindHouseholdByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find household %s: %w", actor.ID, err)
	}
	if !household.IsActive {
		return nil, fmt.Errorf("%w: household %s is inactive", apperrors.ErrValidation, household.HouseholdID)
	}

	slot, err := s.slotRepo.FindSlotByID(ctx, req.SlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to find slot %s: %w", req.SlotID, err)
	}

	source, err := s.sourceRepo.FindSourceByID(ctx, slot.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find source %s: %w", slot.SourceID, err)
	}
	if !source.AcceptsBookings() {
		return nil, fmt.Errorf("%w: source %s", apperrors.ErrSourceUnderMaintenance, source.SourceID)
	}

	now := time.Now().UTC()
	if !s.windows.Open(household.Tier, slot.StartTime, now) {
		logger.Warn("Booking rejected, priority window closed",
			slog.String("household_id", household.HouseholdID),
			slog.String("tier", string(household.Tier)),
			slog.Time("slot_start", slot.StartTime),
			slog.Time("tier_opens_at", s.windows.OpensAt(household.Tier, slot.StartTime)))
		return nil, fmt.Errorf("%w: tier %s for slot %s", apperrors.ErrPriorityWindowClosed, household.Tier, slot.SlotID)
	}

	// Price is locked into the booking here and never recomputed.
	price := s.pricing.Price(source, req.QuantityLiters, slot)

	bookingID := uuid.NewString()
	hold := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		HouseholdID:   household.HouseholdID,
		Amount:        price.Neg(),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
		CreatedAt:     now,
		CreatedBy:     actor.ID,
	}
	booking := domain.Booking{
		BookingID:      bookingID,
		HouseholdID:    household.HouseholdID,
		SlotID:         slot.SlotID,
		QuantityLiters: req.QuantityLiters,
		Price:          price,
		Status:         domain.BookingRequested,
		HoldTxnID:      hold.TransactionID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
		},
	}

	// Slot reserve and ledger hold succeed or fail together.
	if err := s.bookingRepo.CreateWithHold(ctx, booking, hold); err != nil {
		if errors.Is(err, apperrors.ErrSlotFull) || errors.Is(err, apperrors.ErrInsufficientFunds) {
			logger.Warn("Booking request rejected", slog.String("reason", err.Error()), slog.String("slot_id", slot.SlotID), slog.String("household_id", household.HouseholdID))
			return nil, err
		}
		logger.Error("Failed to create booking", slog.String("error", err.Error()), slog.String("slot_id", slot.SlotID))
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logger.Info("Booking requested",
		slog.String("booking_id", booking.BookingID),
		slog.String("household_id", household.HouseholdID),
		slog.String("slot_id", slot.SlotID),
		slog.String("price", price.String()))

	s.notify(ctx, booking.HouseholdID, booking.BookingID, booking.Status)
	return &booking, nil
}

// Approve finalizes the hold. Valid only from Requested.
func (s *bookingService) Approve(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsCoordinator() {
		return nil, fmt.Errorf("%w: only coordinators may approve bookings", apperrors.ErrForbidden)
	}

	booking, err := s.bookingRepo.TransitionStatus(ctx, bookingID, domain.BookingRequested, domain.BookingApproved, actor.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	logger.Info("Booking approved", slog.String("booking_id", bookingID))
	s.notify(ctx, booking.HouseholdID, booking.BookingID, booking.Status)
	return booking, nil
}

// Deny releases the reservation and refunds the hold. Valid only from Requested.
func (s *bookingService) Deny(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsCoordinator() {
		return nil, fmt.Errorf("%w: only coordinators may deny bookings", apperrors.ErrForbidden)
	}

	booking, err := s.resolveWithRefund(ctx, actor, bookingID, domain.BookingRequested, domain.BookingDenied)
	if err != nil {
		return nil, err
	}

	logger.Info("Booking denied", slog.String("booking_id", bookingID))
	s.notify(ctx, booking.HouseholdID, booking.BookingID, booking.Status)
	return booking, nil
}

// Cancel releases the reservation and refunds the hold. Valid only from
// Approved and strictly before the slot's start time.
func (s *bookingService) Cancel(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking %s: %w", bookingID, err)
	}

	if !actor.IsCoordinator() && actor.ID != booking.HouseholdID {
		return nil, fmt.Errorf("%w: booking belongs to another household", apperrors.ErrForbidden)
	}

	slot, err := s.slotRepo.FindSlotByID(ctx, booking.SlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to find slot %s: %w", booking.SlotID, err)
	}
	if !time.Now().UTC().Before(slot.StartTime) {
		return nil, fmt.Errorf("%w: cannot cancel at or after slot start", apperrors.ErrInvalidTransition)
	}

	resolved, err := s.resolveWithRefund(ctx, actor, bookingID, domain.BookingApproved, domain.BookingCancelled)
	if err != nil {
		return nil, err
	}

	logger.Info("Booking cancelled", slog.String("booking_id", bookingID))
	s.notify(ctx, resolved.HouseholdID, resolved.BookingID, resolved.Status)
	return resolved, nil
}

// resolveWithRefund builds the compensating credit and delegates to the
// repository's atomic resolve. The status guard in the repository keeps the
// refund exactly-once even under concurrent or retried resolution.
func (s *bookingService) resolveWithRefund(ctx context.Context, actor domain.Actor, bookingID string, from, to domain.BookingStatus) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking %s: %w", bookingID, err)
	}

	now := time.Now().UTC()
	refund := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		HouseholdID:   booking.HouseholdID,
		Amount:        booking.Price,
		Reason:        domain.ReasonRefund,
		BookingID:     &booking.BookingID,
		CreatedAt:     now,
		CreatedBy:     actor.ID,
	}

	return s.bookingRepo.ResolveWithRefund(ctx, bookingID, from, to, refund, actor.ID, now)
}

// CompleteElapsed transitions Approved bookings whose slot has ended to
// Completed. No fund movement: the hold is already final.
func (s *bookingService) CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	completed, err := s.bookingRepo.CompleteElapsed(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete elapsed bookings: %w", err)
	}

	for i := range completed {
		logger.Info("Booking completed", slog.String("booking_id", completed[i].BookingID))
		s.notify(ctx, completed[i].HouseholdID, completed[i].BookingID, completed[i].Status)
	}
	return completed, nil
}

// GetBooking retrieves a booking, applying the time-driven Completed
// transition lazily so a caller never observes an Approved booking past its
// slot end.
func (s *bookingService) GetBooking(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking %s: %w", bookingID, err)
	}

	if !actor.IsCoordinator() && actor.ID != booking.HouseholdID {
		// Obscure existence from other households
		return nil, apperrors.ErrNotFound
	}

	if booking.Status == domain.BookingApproved {
		slot, err := s.slotRepo.FindSlotByID(ctx, booking.SlotID)
		if err != nil {
			return nil, fmt.Errorf("failed to find slot %s: %w", booking.SlotID, err)
		}
		now := time.Now().UTC()
		if slot.Ended(now) {
			completed, err := s.bookingRepo.TransitionStatus(ctx, bookingID, domain.BookingApproved, domain.BookingCompleted, domain.SystemActorID, now)
			if err == nil {
				s.notify(ctx, completed.HouseholdID, completed.BookingID, completed.Status)
				return completed, nil
			}
			if !errors.Is(err, apperrors.ErrInvalidTransition) {
				return nil, err
			}
			// Lost the race to the sweeper; re-read below.
			booking, err = s.bookingRepo.FindBookingByID(ctx, bookingID)
			if err != nil {
				return nil, fmt.Errorf("failed to find booking %s: %w", bookingID, err)
			}
		}
	}

	return booking, nil
}

// ListBookingsByHousehold retrieves a paginated list of a household's bookings.
func (s *bookingService) ListBookingsByHousehold(ctx context.Context, actor domain.Actor, householdID string, params dto.ListBookingsParams) (*dto.ListBookingsResponse, error) {
	if !actor.IsCoordinator() && actor.ID != householdID {
		return nil, fmt.Errorf("%w: bookings belong to another household", apperrors.ErrForbidden)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultBookingsLimit
	}

	bookings, nextToken, err := s.bookingRepo.ListBookingsByHousehold(ctx, householdID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}

	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = dto.ToBookingResponse(&bookings[i])
	}
	return &dto.ListBookingsResponse{Bookings: responses, NextToken: nextToken}, nil
}

// notify dispatches a best-effort status notification without blocking the
// calling operation.
func (s *bookingService) notify(ctx context.Context, householdID, bookingID string, status domain.BookingStatus) {
	if s.notifier == nil {
		return
	}
	go s.notifier.NotifyBookingStatus(context.WithoutCancel(ctx), householdID, bookingID, status)
}
