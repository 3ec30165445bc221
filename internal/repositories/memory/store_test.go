package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/repositories/memory"
	"github.com/cwas-project/cwas_backend/internal/utils/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSlot(t *testing.T, store *memory.Store, slotID string, capacity int64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.SaveSlot(context.Background(), domain.TimeSlot{
		SlotID:         slotID,
		SourceID:       "src-1",
		StartTime:      now.Add(24 * time.Hour),
		EndTime:        now.Add(26 * time.Hour),
		CapacityLiters: capacity,
		AuditFields:    domain.AuditFields{CreatedAt: now, CreatedBy: "coord-1"},
	}))
}

func TestStore_ReserveCapacity_ConcurrentNeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSlot(t, store, "slot-1", 500)

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.ReserveCapacity(ctx, "slot-1", 100)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrSlotFull)
		}
	}
	assert.Equal(t, 5, successes)

	slot, err := store.FindSlotByID(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), slot.ReservedLiters)
}

func TestStore_ReleaseReservation_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSlot(t, store, "slot-1", 200)

	reservation, err := store.ReserveCapacity(ctx, "slot-1", 150)
	require.NoError(t, err)

	require.NoError(t, store.ReleaseReservation(ctx, reservation.ReservationID))

	slot, err := store.FindSlotByID(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), slot.ReservedLiters)

	// A second release must not decrement capacity again.
	err = store.ReleaseReservation(ctx, reservation.ReservationID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyReleased)

	slot, err = store.FindSlotByID(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), slot.ReservedLiters)
}

func TestStore_ReleaseReservation_Unknown(t *testing.T) {
	store := memory.NewStore()
	err := store.ReleaseReservation(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_AppendDebit_ConcurrentNeverOverdrafts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(50),
		Reason:        domain.ReasonDeposit,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "coord-1",
	}))

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.AppendDebit(ctx, domain.LedgerTransaction{
				TransactionID: fmt.Sprintf("debit-%02d", i),
				HouseholdID:   "hh-1",
				Amount:        decimal.NewFromInt(-10),
				Reason:        domain.ReasonHold,
				CreatedAt:     time.Now().UTC(),
				CreatedBy:     "hh-1",
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 5, successes)

	balance, err := store.SumByHousehold(ctx, "hh-1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "balance is %s", balance.String())
}

func TestStore_AppendDebit_RejectsNonNegativeAmount(t *testing.T) {
	store := memory.NewStore()
	err := store.AppendDebit(context.Background(), domain.LedgerTransaction{
		TransactionID: "txn-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(10),
		Reason:        domain.ReasonHold,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStore_CreateWithHold_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSlot(t, store, "slot-1", 100)

	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(30),
		Reason:        domain.ReasonDeposit,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "coord-1",
	}))

	bookingID := "bk-1"
	booking := domain.Booking{
		BookingID:      bookingID,
		HouseholdID:    "hh-1",
		SlotID:         "slot-1",
		QuantityLiters: 80,
		Price:          decimal.NewFromInt(40),
		Status:         domain.BookingRequested,
		HoldTxnID:      "hold-1",
	}
	hold := domain.LedgerTransaction{
		TransactionID: "hold-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(-40),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
	}

	// The hold exceeds the balance: the whole operation must refuse,
	// leaving capacity untouched.
	err := store.CreateWithHold(ctx, booking, hold)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	slot, err := store.FindSlotByID(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), slot.ReservedLiters)

	_, err = store.FindBookingByID(ctx, bookingID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	balance, err := store.SumByHousehold(ctx, "hh-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(balance))
}

func TestStore_ResolveWithRefund_StatusGuard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSlot(t, store, "slot-1", 100)

	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(50),
		Reason:        domain.ReasonDeposit,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "coord-1",
	}))

	bookingID := "bk-1"
	require.NoError(t, store.CreateWithHold(ctx, domain.Booking{
		BookingID:      bookingID,
		HouseholdID:    "hh-1",
		SlotID:         "slot-1",
		QuantityLiters: 60,
		Price:          decimal.NewFromInt(30),
		Status:         domain.BookingRequested,
		HoldTxnID:      "hold-1",
	}, domain.LedgerTransaction{
		TransactionID: "hold-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(-30),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
	}))

	refund := domain.LedgerTransaction{
		TransactionID: "refund-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(30),
		Reason:        domain.ReasonRefund,
		BookingID:     &bookingID,
	}
	now := time.Now().UTC()

	resolved, err := store.ResolveWithRefund(ctx, bookingID, domain.BookingRequested, domain.BookingDenied, refund, "coord-1", now)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingDenied, resolved.Status)
	require.NotNil(t, resolved.RefundTxnID)
	assert.Equal(t, "refund-1", *resolved.RefundTxnID)

	// Already terminal: the guard refuses and no second refund lands.
	_, err = store.ResolveWithRefund(ctx, bookingID, domain.BookingRequested, domain.BookingDenied, refund, "coord-1", now)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	balance, err := store.SumByHousehold(ctx, "hh-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(balance))

	slot, err := store.FindSlotByID(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), slot.ReservedLiters)
}

func TestStore_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSlot(t, store, "slot-1", 100)

	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(50),
		Reason:        domain.ReasonDeposit,
	}))
	bookingID := "bk-1"
	require.NoError(t, store.CreateWithHold(ctx, domain.Booking{
		BookingID:   bookingID,
		HouseholdID: "hh-1",
		SlotID:      "slot-1",
		Price:       decimal.NewFromInt(10),
		Status:      domain.BookingRequested,
		HoldTxnID:   "hold-1",
	}, domain.LedgerTransaction{
		TransactionID: "hold-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(-10),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
	}))

	now := time.Now().UTC()
	approved, err := store.TransitionStatus(ctx, bookingID, domain.BookingRequested, domain.BookingApproved, "coord-1", now)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingApproved, approved.Status)
	assert.Nil(t, approved.ResolvedAt)

	// Lifecycle forbids skipping states.
	_, err = store.TransitionStatus(ctx, bookingID, domain.BookingRequested, domain.BookingDenied, "coord-1", now)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	completed, err := store.TransitionStatus(ctx, bookingID, domain.BookingApproved, domain.BookingCompleted, "coord-1", now)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, completed.Status)
	assert.NotNil(t, completed.ResolvedAt)

	_, err = store.TransitionStatus(ctx, "missing", domain.BookingRequested, domain.BookingApproved, "coord-1", now)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_TransitionStatus_CompleteReleasesCapacity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSlot(t, store, "slot-1", 200)

	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(50),
		Reason:        domain.ReasonDeposit,
	}))
	bookingID := "bk-1"
	require.NoError(t, store.CreateWithHold(ctx, domain.Booking{
		BookingID:      bookingID,
		HouseholdID:    "hh-1",
		SlotID:         "slot-1",
		QuantityLiters: 100,
		Price:          decimal.NewFromInt(10),
		Status:         domain.BookingRequested,
		HoldTxnID:      "hold-1",
	}, domain.LedgerTransaction{
		TransactionID: "hold-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(-10),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
	}))

	now := time.Now().UTC()
	_, err := store.TransitionStatus(ctx, bookingID, domain.BookingRequested, domain.BookingApproved, "coord-1", now)
	require.NoError(t, err)

	slot, err := store.FindSlotByID(ctx, "slot-1")
	require.NoError(t, err)
	require.Equal(t, int64(100), slot.ReservedLiters)

	// Completion ends the booking's claim on the slot.
	completed, err := store.TransitionStatus(ctx, bookingID, domain.BookingApproved, domain.BookingCompleted, "coord-1", now)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, completed.Status)

	slot, err = store.FindSlotByID(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), slot.ReservedLiters)

	// The reservation is already gone; a manual release must refuse.
	err = store.ReleaseReservation(ctx, completed.ReservationID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyReleased)
}

func TestStore_CompleteElapsed_ReleasesCapacity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	now := time.Now().UTC()
	require.NoError(t, store.SaveSlot(ctx, domain.TimeSlot{
		SlotID:         "slot-ended",
		SourceID:       "src-1",
		StartTime:      now.Add(-3 * time.Hour),
		EndTime:        now.Add(-1 * time.Hour),
		CapacityLiters: 200,
		AuditFields:    domain.AuditFields{CreatedAt: now.Add(-48 * time.Hour), CreatedBy: "coord-1"},
	}))
	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(50),
		Reason:        domain.ReasonDeposit,
	}))
	bookingID := "bk-1"
	require.NoError(t, store.CreateWithHold(ctx, domain.Booking{
		BookingID:      bookingID,
		HouseholdID:    "hh-1",
		SlotID:         "slot-ended",
		QuantityLiters: 100,
		Price:          decimal.NewFromInt(10),
		Status:         domain.BookingRequested,
		HoldTxnID:      "hold-1",
	}, domain.LedgerTransaction{
		TransactionID: "hold-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(-10),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
	}))
	_, err := store.TransitionStatus(ctx, bookingID, domain.BookingRequested, domain.BookingApproved, "coord-1", now)
	require.NoError(t, err)

	completed, err := store.CompleteElapsed(ctx, now)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, domain.BookingCompleted, completed[0].Status)
	assert.Equal(t, domain.SystemActorID, completed[0].LastUpdatedBy)

	slot, err := store.FindSlotByID(ctx, "slot-ended")
	require.NoError(t, err)
	assert.Equal(t, int64(0), slot.ReservedLiters)

	// A second sweep finds nothing and does not touch the slot again.
	completed, err = store.CompleteElapsed(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, completed)

	slot, err = store.FindSlotByID(ctx, "slot-ended")
	require.NoError(t, err)
	assert.Equal(t, int64(0), slot.ReservedLiters)
}

func TestStore_ListTransactionsByHousehold_Pagination(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	base := time.Now().UTC()
	for i := 0; i < 7; i++ {
		require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
			TransactionID: fmt.Sprintf("txn-%02d", i),
			HouseholdID:   "hh-1",
			Amount:        decimal.NewFromInt(1),
			Reason:        domain.ReasonDeposit,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
			CreatedBy:     "coord-1",
		}))
	}

	collected := make([]string, 0, 7)
	var token *string
	for {
		page, next, err := store.ListTransactionsByHousehold(ctx, "hh-1", 3, token)
		require.NoError(t, err)
		for i := range page {
			collected = append(collected, page[i].TransactionID)
		}
		if next == nil {
			break
		}
		token = next
	}

	require.Len(t, collected, 7)
	for i := 0; i < 7; i++ {
		assert.Equal(t, fmt.Sprintf("txn-%02d", i), collected[i])
	}
}

func TestStore_ListTransactionsByHousehold_BadToken(t *testing.T) {
	store := memory.NewStore()
	bad := "not-a-token"
	_, _, err := store.ListTransactionsByHousehold(context.Background(), "hh-1", 10, &bad)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStore_ListTransactionsByHousehold_StaleToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "txn-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(1),
		Reason:        domain.ReasonDeposit,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "coord-1",
	}))

	// Well-formed token pointing at a transaction that does not exist: the
	// page must not silently restart from the beginning.
	stale := pagination.EncodeMultiFieldToken("id", "txn-gone")
	_, _, err := store.ListTransactionsByHousehold(ctx, "hh-1", 10, &stale)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStore_ListBookingsByHousehold_StaleToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSlot(t, store, "slot-1", 100)
	require.NoError(t, store.AppendCredit(ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(50),
		Reason:        domain.ReasonDeposit,
	}))
	bookingID := "bk-1"
	require.NoError(t, store.CreateWithHold(ctx, domain.Booking{
		BookingID:      bookingID,
		HouseholdID:    "hh-1",
		SlotID:         "slot-1",
		QuantityLiters: 10,
		Price:          decimal.NewFromInt(5),
		Status:         domain.BookingRequested,
		HoldTxnID:      "hold-1",
	}, domain.LedgerTransaction{
		TransactionID: "hold-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.NewFromInt(-5),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
	}))

	stale := pagination.EncodeMultiFieldToken("id", "bk-gone")
	_, _, err := store.ListBookingsByHousehold(ctx, "hh-1", 10, &stale)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStore_SaveHousehold_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	household := domain.Household{HouseholdID: "hh-1", Name: "First", Tier: domain.TierStandard, IsActive: true}
	require.NoError(t, store.SaveHousehold(ctx, household))

	err := store.SaveHousehold(ctx, household)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}
