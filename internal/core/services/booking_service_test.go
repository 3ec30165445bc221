package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/core/services"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/cwas-project/cwas_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// The booking service is tested against the in-memory store so the atomic
// reserve-plus-hold paths run for real instead of against mocks.
type BookingServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   portssvc.BookingSvcFacade
	now   time.Time

	coordinator domain.Actor
}

func TestBookingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BookingServiceTestSuite))
}

func (s *BookingServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.now = time.Now().UTC()
	s.coordinator = domain.Actor{ID: "coord-1", Role: domain.RoleCoordinator}

	windows := services.AccessWindowPolicy{
		ReleaseWindow: 48 * time.Hour,
		TierStagger:   4 * time.Hour,
	}
	s.svc = services.NewBookingService(s.store, s.store, s.store, s.store, services.NewLinearPricing(), windows, nil)
}

func (s *BookingServiceTestSuite) seedHousehold(id string, tier domain.PriorityTier, active bool, balance string) domain.Actor {
	err := s.store.SaveHousehold(s.ctx, domain.Household{
		HouseholdID: id,
		Name:        "Household " + id,
		Tier:        tier,
		IsActive:    active,
		AuditFields: domain.AuditFields{CreatedAt: s.now, CreatedBy: "coord-1"},
	})
	s.Require().NoError(err)

	amount := decimal.RequireFromString(balance)
	if amount.IsPositive() {
		err = s.store.AppendCredit(s.ctx, domain.LedgerTransaction{
			TransactionID: "seed-deposit-" + id,
			HouseholdID:   id,
			Amount:        amount,
			Reason:        domain.ReasonDeposit,
			CreatedAt:     s.now,
			CreatedBy:     "coord-1",
		})
		s.Require().NoError(err)
	}
	return domain.Actor{ID: id, Role: domain.RoleHousehold}
}

func (s *BookingServiceTestSuite) seedSource(id string, status domain.SourceStatus, pricePerLiter string) {
	err := s.store.SaveSource(s.ctx, domain.WaterSource{
		SourceID:       id,
		Name:           "Source " + id,
		Status:         status,
		PricePerLiter:  decimal.RequireFromString(pricePerLiter),
		OpensAtMinute:  0,
		ClosesAtMinute: 24 * 60,
		AuditFields:    domain.AuditFields{CreatedAt: s.now, CreatedBy: "coord-1"},
	})
	s.Require().NoError(err)
}

func (s *BookingServiceTestSuite) seedSlot(id, sourceID string, start time.Time, capacity int64) {
	err := s.store.SaveSlot(s.ctx, domain.TimeSlot{
		SlotID:         id,
		SourceID:       sourceID,
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		CapacityLiters: capacity,
		AuditFields:    domain.AuditFields{CreatedAt: s.now, CreatedBy: "coord-1"},
	})
	s.Require().NoError(err)
}

// seedBooking plants a booking with its hold directly in the store, for
// scenarios the request path cannot produce (elapsed slots, approved state).
func (s *BookingServiceTestSuite) seedBooking(id, householdID, slotID string, status domain.BookingStatus, price string) {
	amount := decimal.RequireFromString(price)
	hold := domain.LedgerTransaction{
		TransactionID: "hold-" + id,
		HouseholdID:   householdID,
		Amount:        amount.Neg(),
		Reason:        domain.ReasonHold,
		BookingID:     &id,
		CreatedAt:     s.now,
		CreatedBy:     householdID,
	}
	booking := domain.Booking{
		BookingID:      id,
		HouseholdID:    householdID,
		SlotID:         slotID,
		QuantityLiters: 100,
		Price:          amount,
		Status:         status,
		HoldTxnID:      hold.TransactionID,
		AuditFields:    domain.AuditFields{CreatedAt: s.now, CreatedBy: householdID},
	}
	s.Require().NoError(s.store.CreateWithHold(s.ctx, booking, hold))
}

func (s *BookingServiceTestSuite) balance(householdID string) decimal.Decimal {
	balance, err := s.store.SumByHousehold(s.ctx, householdID)
	s.Require().NoError(err)
	return balance
}

func (s *BookingServiceTestSuite) reserved(slotID string) int64 {
	slot, err := s.store.FindSlotByID(s.ctx, slotID)
	s.Require().NoError(err)
	return slot.ReservedLiters
}

func (s *BookingServiceTestSuite) TestRequest_Success() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})

	s.Require().NoError(err)
	s.Equal(domain.BookingRequested, booking.Status)
	s.True(decimal.RequireFromString("50").Equal(booking.Price))
	s.NotEmpty(booking.HoldTxnID)

	// Hold debited and capacity reserved together.
	s.True(decimal.RequireFromString("50").Equal(s.balance("hh-1")))
	s.Equal(int64(100), s.reserved("slot-1"))

	stored, err := s.store.FindBookingByID(s.ctx, booking.BookingID)
	s.Require().NoError(err)
	s.NotEmpty(stored.ReservationID)
}

func (s *BookingServiceTestSuite) TestRequest_CoordinatorForbidden() {
	_, err := s.svc.Request(s.ctx, s.coordinator, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *BookingServiceTestSuite) TestRequest_InactiveHousehold() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, false, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	_, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BookingServiceTestSuite) TestRequest_UnknownSlot() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")

	_, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "missing", QuantityLiters: 100})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *BookingServiceTestSuite) TestRequest_SourceUnderMaintenance() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceUnderMaintenance, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	_, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.ErrorIs(err, apperrors.ErrSourceUnderMaintenance)
}

func (s *BookingServiceTestSuite) TestRequest_PriorityWindowStaggersTiers() {
	essential := s.seedHousehold("hh-essential", domain.TierEssential, true, "100.00")
	low := s.seedHousehold("hh-low", domain.TierLow, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	// Slot starts in 44h: essential's window opened 4h ago, low's opens in 4h.
	s.seedSlot("slot-1", "src-1", s.now.Add(44*time.Hour), 600)

	_, err := s.svc.Request(s.ctx, low, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.ErrorIs(err, apperrors.ErrPriorityWindowClosed)
	s.True(decimal.RequireFromString("100.00").Equal(s.balance("hh-low")))
	s.Equal(int64(0), s.reserved("slot-1"))

	_, err = s.svc.Request(s.ctx, essential, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.NoError(err)
}

func (s *BookingServiceTestSuite) TestRequest_SlotFull() {
	first := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	second := s.seedHousehold("hh-2", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 100)

	_, err := s.svc.Request(s.ctx, first, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 80})
	s.Require().NoError(err)

	_, err = s.svc.Request(s.ctx, second, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 30})
	s.ErrorIs(err, apperrors.ErrSlotFull)

	// A rejected request leaves no partial state behind.
	s.True(decimal.RequireFromString("100.00").Equal(s.balance("hh-2")))
	s.Equal(int64(80), s.reserved("slot-1"))
}

func (s *BookingServiceTestSuite) TestRequest_InsufficientFunds() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "10.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	_, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	s.True(decimal.RequireFromString("10.00").Equal(s.balance("hh-1")))
	s.Equal(int64(0), s.reserved("slot-1"))
}

func (s *BookingServiceTestSuite) TestApprove() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)

	_, err = s.svc.Approve(s.ctx, actor, booking.BookingID)
	s.ErrorIs(err, apperrors.ErrForbidden)

	approved, err := s.svc.Approve(s.ctx, s.coordinator, booking.BookingID)
	s.Require().NoError(err)
	s.Equal(domain.BookingApproved, approved.Status)
	s.Nil(approved.ResolvedAt)

	// Approval finalizes the hold, no fund movement.
	s.True(decimal.RequireFromString("50").Equal(s.balance("hh-1")))

	_, err = s.svc.Approve(s.ctx, s.coordinator, booking.BookingID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *BookingServiceTestSuite) TestDeny_RefundsExactlyOnce() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)

	denied, err := s.svc.Deny(s.ctx, s.coordinator, booking.BookingID)
	s.Require().NoError(err)
	s.Equal(domain.BookingDenied, denied.Status)
	s.Require().NotNil(denied.RefundTxnID)
	s.NotNil(denied.ResolvedAt)

	// Refund restores the balance and the reservation is released.
	s.True(decimal.RequireFromString("100.00").Equal(s.balance("hh-1")))
	s.Equal(int64(0), s.reserved("slot-1"))

	_, err = s.svc.Deny(s.ctx, s.coordinator, booking.BookingID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	// The repeated deny must not produce a second refund.
	txns, err := s.store.ListAllTransactionsByHousehold(s.ctx, "hh-1")
	s.Require().NoError(err)
	refunds := 0
	for i := range txns {
		if txns[i].Reason == domain.ReasonRefund {
			refunds++
		}
	}
	s.Equal(1, refunds)
	s.True(decimal.RequireFromString("100.00").Equal(s.balance("hh-1")))
}

func (s *BookingServiceTestSuite) TestDeny_ConcurrentRefundsExactlyOnce() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)

	const deniers = 8
	var wg sync.WaitGroup
	errs := make([]error, deniers)
	for i := 0; i < deniers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Deny(s.ctx, s.coordinator, booking.BookingID)
		}(i)
	}
	wg.Wait()

	// Exactly one denial lands; the racing rest lose the status guard.
	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			s.ErrorIs(err, apperrors.ErrInvalidTransition)
		}
	}
	s.Equal(1, successes)

	txns, err := s.store.ListAllTransactionsByHousehold(s.ctx, "hh-1")
	s.Require().NoError(err)
	refunds := 0
	for i := range txns {
		if txns[i].Reason == domain.ReasonRefund {
			refunds++
		}
	}
	s.Equal(1, refunds)
	s.True(decimal.RequireFromString("100.00").Equal(s.balance("hh-1")))
	s.Equal(int64(0), s.reserved("slot-1"))
}

func (s *BookingServiceTestSuite) TestDeny_HouseholdForbidden() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)

	_, err = s.svc.Deny(s.ctx, actor, booking.BookingID)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *BookingServiceTestSuite) TestCancel_OwnerBeforeSlotStart() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)
	_, err = s.svc.Approve(s.ctx, s.coordinator, booking.BookingID)
	s.Require().NoError(err)

	cancelled, err := s.svc.Cancel(s.ctx, actor, booking.BookingID)
	s.Require().NoError(err)
	s.Equal(domain.BookingCancelled, cancelled.Status)
	s.NotNil(cancelled.RefundTxnID)

	s.True(decimal.RequireFromString("100.00").Equal(s.balance("hh-1")))
	s.Equal(int64(0), s.reserved("slot-1"))
}

func (s *BookingServiceTestSuite) TestCancel_OtherHouseholdForbidden() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	other := s.seedHousehold("hh-2", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)

	_, err = s.svc.Cancel(s.ctx, other, booking.BookingID)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *BookingServiceTestSuite) TestCancel_RequestedNotCancellable() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)

	_, err = s.svc.Cancel(s.ctx, actor, booking.BookingID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *BookingServiceTestSuite) TestCancel_AfterSlotStart() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-started", "src-1", s.now.Add(-time.Hour), 600)
	s.seedBooking("bk-1", "hh-1", "slot-started", domain.BookingApproved, "50.00")

	_, err := s.svc.Cancel(s.ctx, actor, "bk-1")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *BookingServiceTestSuite) TestCompleteElapsed() {
	s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-ended", "src-1", s.now.Add(-3*time.Hour), 600)
	s.seedSlot("slot-future", "src-1", s.now.Add(24*time.Hour), 600)
	s.seedBooking("bk-ended", "hh-1", "slot-ended", domain.BookingApproved, "25.00")
	s.seedBooking("bk-future", "hh-1", "slot-future", domain.BookingApproved, "25.00")

	completed, err := s.svc.CompleteElapsed(s.ctx, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().Len(completed, 1)
	s.Equal("bk-ended", completed[0].BookingID)
	s.Equal(domain.BookingCompleted, completed[0].Status)
	s.NotNil(completed[0].ResolvedAt)
	s.Equal(domain.SystemActorID, completed[0].LastUpdatedBy)

	// No fund movement on completion, and the ended slot's capacity is
	// handed back.
	s.True(decimal.RequireFromString("50.00").Equal(s.balance("hh-1")))
	s.Equal(int64(0), s.reserved("slot-ended"))
	s.Equal(int64(100), s.reserved("slot-future"))

	// The sweep is idempotent.
	completed, err = s.svc.CompleteElapsed(s.ctx, time.Now().UTC())
	s.Require().NoError(err)
	s.Empty(completed)
	s.Equal(int64(0), s.reserved("slot-ended"))
}

func (s *BookingServiceTestSuite) TestGetBooking_Visibility() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	other := s.seedHousehold("hh-2", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 600)

	booking, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
	s.Require().NoError(err)

	got, err := s.svc.GetBooking(s.ctx, actor, booking.BookingID)
	s.Require().NoError(err)
	s.Equal(booking.BookingID, got.BookingID)

	got, err = s.svc.GetBooking(s.ctx, s.coordinator, booking.BookingID)
	s.Require().NoError(err)
	s.Equal(booking.BookingID, got.BookingID)

	// Other households cannot learn the booking exists.
	_, err = s.svc.GetBooking(s.ctx, other, booking.BookingID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *BookingServiceTestSuite) TestGetBooking_CompletesLazily() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-ended", "src-1", s.now.Add(-3*time.Hour), 600)
	s.seedBooking("bk-1", "hh-1", "slot-ended", domain.BookingApproved, "50.00")

	got, err := s.svc.GetBooking(s.ctx, actor, "bk-1")
	s.Require().NoError(err)
	s.Equal(domain.BookingCompleted, got.Status)
	s.NotNil(got.ResolvedAt)

	stored, err := s.store.FindBookingByID(s.ctx, "bk-1")
	s.Require().NoError(err)
	s.Equal(domain.BookingCompleted, stored.Status)
	s.Equal(domain.SystemActorID, stored.LastUpdatedBy)
	s.Equal(int64(0), s.reserved("slot-ended"))
}

func (s *BookingServiceTestSuite) TestListBookingsByHousehold() {
	actor := s.seedHousehold("hh-1", domain.TierEssential, true, "1000.00")
	other := s.seedHousehold("hh-2", domain.TierEssential, true, "100.00")
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 6000)

	for i := 0; i < 3; i++ {
		_, err := s.svc.Request(s.ctx, actor, dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
		s.Require().NoError(err)
	}

	page, err := s.svc.ListBookingsByHousehold(s.ctx, actor, "hh-1", dto.ListBookingsParams{Limit: 2})
	s.Require().NoError(err)
	s.Len(page.Bookings, 2)
	s.Require().NotNil(page.NextToken)

	rest, err := s.svc.ListBookingsByHousehold(s.ctx, actor, "hh-1", dto.ListBookingsParams{Limit: 2, NextToken: page.NextToken})
	s.Require().NoError(err)
	s.Len(rest.Bookings, 1)
	s.Nil(rest.NextToken)

	seen := map[string]bool{}
	for _, b := range append(page.Bookings, rest.Bookings...) {
		seen[b.BookingID] = true
	}
	s.Len(seen, 3)

	_, err = s.svc.ListBookingsByHousehold(s.ctx, other, "hh-1", dto.ListBookingsParams{})
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *BookingServiceTestSuite) TestRequest_ConcurrentNeverOversubscribes() {
	s.seedSource("src-1", domain.SourceActive, "0.50")
	s.seedSlot("slot-1", "src-1", s.now.Add(24*time.Hour), 500)

	const requesters = 10
	actors := make([]domain.Actor, requesters)
	for i := 0; i < requesters; i++ {
		actors[i] = s.seedHousehold(fmt.Sprintf("hh-%02d", i), domain.TierEssential, true, "1000.00")
	}

	var wg sync.WaitGroup
	errs := make([]error, requesters)
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Request(s.ctx, actors[i], dto.CreateBookingRequest{SlotID: "slot-1", QuantityLiters: 100})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			s.ErrorIs(err, apperrors.ErrSlotFull)
		}
	}
	s.Equal(5, successes)
	s.Equal(int64(500), s.reserved("slot-1"))
}
