package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	"github.com/cwas-project/cwas_backend/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// Store is the single-process storage adapter. One RWMutex over the whole
// store is the global serialization point: every check-then-act sequence
// (capacity check + reserve, balance check + debit, status guard + refund)
// runs under the write lock, and readers take the read lock, so no caller
// ever observes a half-applied reserve/debit pair.
type Store struct {
	mu sync.RWMutex

	households   map[string]domain.Household
	sources      map[string]domain.WaterSource
	slots        map[string]domain.TimeSlot
	reservations map[string]domain.SlotReservation
	bookings     map[string]domain.Booking
	ledger       map[string][]domain.LedgerTransaction // per household, append order

	nextID int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		households:   make(map[string]domain.Household),
		sources:      make(map[string]domain.WaterSource),
		slots:        make(map[string]domain.TimeSlot),
		reservations: make(map[string]domain.SlotReservation),
		bookings:     make(map[string]domain.Booking),
		ledger:       make(map[string][]domain.LedgerTransaction),
	}
}

// NewRepositoryProvider wires the store into the repository provider shape
// the service container expects.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		HouseholdRepo: s,
		SourceRepo:    s,
		SlotRepo:      s,
		LedgerRepo:    s,
		BookingRepo:   s,
	}
}

var (
	_ portsrepo.HouseholdRepositoryFacade = (*Store)(nil)
	_ portsrepo.SourceRepositoryFacade    = (*Store)(nil)
	_ portsrepo.SlotRepositoryFacade      = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade    = (*Store)(nil)
	_ portsrepo.BookingRepositoryFacade   = (*Store)(nil)
)

// --- Households ---

func (s *Store) SaveHousehold(_ context.Context, household domain.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.households[household.HouseholdID]; exists {
		return fmt.Errorf("%w: household %s", apperrors.ErrDuplicate, household.HouseholdID)
	}
	s.households[household.HouseholdID] = household
	return nil
}

func (s *Store) UpdateHousehold(_ context.Context, household domain.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.households[household.HouseholdID]; !exists {
		return fmt.Errorf("%w: household %s", apperrors.ErrNotFound, household.HouseholdID)
	}
	s.households[household.HouseholdID] = household
	return nil
}

func (s *Store) FindHouseholdByID(_ context.Context, householdID string) (*domain.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	household, ok := s.households[householdID]
	if !ok {
		return nil, fmt.Errorf("%w: household %s", apperrors.ErrNotFound, householdID)
	}
	return &household, nil
}

func (s *Store) ListHouseholds(_ context.Context, limit, offset int) ([]domain.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Household, 0, len(s.households))
	for _, h := range s.households {
		all = append(all, h)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].HouseholdID < all[j].HouseholdID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []domain.Household{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// --- Sources ---

func (s *Store) SaveSource(_ context.Context, source domain.WaterSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sources[source.SourceID]; exists {
		return fmt.Errorf("%w: source %s", apperrors.ErrDuplicate, source.SourceID)
	}
	s.sources[source.SourceID] = source
	return nil
}

func (s *Store) FindSourceByID(_ context.Context, sourceID string) (*domain.WaterSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: source %s", apperrors.ErrNotFound, sourceID)
	}
	return &source, nil
}

func (s *Store) ListSources(_ context.Context) ([]domain.WaterSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.WaterSource, 0, len(s.sources))
	for _, src := range s.sources {
		all = append(all, src)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (s *Store) UpdateSourceStatus(_ context.Context, sourceID string, status domain.SourceStatus, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.sources[sourceID]
	if !ok {
		return fmt.Errorf("%w: source %s", apperrors.ErrNotFound, sourceID)
	}
	source.Status = status
	source.LastUpdatedBy = updatedBy
	source.LastUpdatedAt = updatedAt
	s.sources[sourceID] = source
	return nil
}

// --- Slots and reservations ---

func (s *Store) SaveSlot(_ context.Context, slot domain.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slots[slot.SlotID]; exists {
		return fmt.Errorf("%w: slot %s", apperrors.ErrDuplicate, slot.SlotID)
	}
	s.slots[slot.SlotID] = slot
	return nil
}

func (s *Store) FindSlotByID(_ context.Context, slotID string) (*domain.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[slotID]
	if !ok {
		return nil, fmt.Errorf("%w: slot %s", apperrors.ErrNotFound, slotID)
	}
	return &slot, nil
}

func (s *Store) ListSlotsBySource(_ context.Context, sourceID string, from, to time.Time) ([]domain.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TimeSlot, 0)
	for _, slot := range s.slots {
		if slot.SourceID != sourceID {
			continue
		}
		if slot.StartTime.Before(from) || !slot.StartTime.Before(to) {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *Store) ReserveCapacity(_ context.Context, slotID string, quantityLiters int64) (*domain.SlotReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reserveLocked(slotID, quantityLiters)
}

// reserveLocked is the capacity check-then-increment; the caller holds the
// write lock.
func (s *Store) reserveLocked(slotID string, quantityLiters int64) (*domain.SlotReservation, error) {
	slot, ok := s.slots[slotID]
	if !ok {
		return nil, fmt.Errorf("%w: slot %s", apperrors.ErrNotFound, slotID)
	}
	if slot.ReservedLiters+quantityLiters > slot.CapacityLiters {
		return nil, fmt.Errorf("%w: slot %s has %d liters free", apperrors.ErrSlotFull, slotID, slot.AvailableLiters())
	}

	slot.ReservedLiters += quantityLiters
	s.slots[slotID] = slot

	s.nextID++
	reservation := domain.SlotReservation{
		ReservationID:  fmt.Sprintf("resv-%06d", s.nextID),
		SlotID:         slotID,
		QuantityLiters: quantityLiters,
		CreatedAt:      time.Now().UTC(),
	}
	s.reservations[reservation.ReservationID] = reservation
	return &reservation, nil
}

func (s *Store) ReleaseReservation(_ context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.releaseLocked(reservationID)
}

// releaseLocked decrements reserved capacity exactly once; the caller holds
// the write lock.
func (s *Store) releaseLocked(reservationID string) error {
	reservation, ok := s.reservations[reservationID]
	if !ok {
		return fmt.Errorf("%w: reservation %s", apperrors.ErrNotFound, reservationID)
	}
	if reservation.Released {
		return fmt.Errorf("%w: reservation %s", apperrors.ErrAlreadyReleased, reservationID)
	}

	slot, ok := s.slots[reservation.SlotID]
	if !ok {
		return apperrors.NewAppError(500, "reservation "+reservationID+" references missing slot "+reservation.SlotID, nil)
	}

	reservation.Released = true
	s.reservations[reservationID] = reservation
	slot.ReservedLiters -= reservation.QuantityLiters
	s.slots[reservation.SlotID] = slot
	return nil
}

func (s *Store) FindReservationByID(_ context.Context, reservationID string) (*domain.SlotReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", apperrors.ErrNotFound, reservationID)
	}
	return &reservation, nil
}

// --- Ledger ---

func (s *Store) AppendCredit(_ context.Context, txn domain.LedgerTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: credit amount must be positive", apperrors.ErrValidation)
	}
	s.ledger[txn.HouseholdID] = append(s.ledger[txn.HouseholdID], txn)
	return nil
}

func (s *Store) AppendDebit(_ context.Context, txn domain.LedgerTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendDebitLocked(txn)
}

// appendDebitLocked is the overdraft check-then-append; the caller holds the
// write lock.
func (s *Store) appendDebitLocked(txn domain.LedgerTransaction) error {
	if !txn.Amount.IsNegative() {
		return fmt.Errorf("%w: debit amount must be negative", apperrors.ErrValidation)
	}
	if s.sumLocked(txn.HouseholdID).Add(txn.Amount).IsNegative() {
		return fmt.Errorf("%w: household %s", apperrors.ErrInsufficientFunds, txn.HouseholdID)
	}
	s.ledger[txn.HouseholdID] = append(s.ledger[txn.HouseholdID], txn)
	return nil
}

func (s *Store) sumLocked(householdID string) decimal.Decimal {
	sum := decimal.Zero
	for _, txn := range s.ledger[householdID] {
		sum = sum.Add(txn.Amount)
	}
	return sum
}

func (s *Store) SumByHousehold(_ context.Context, householdID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumLocked(householdID), nil
}

func (s *Store) ListTransactionsByHousehold(_ context.Context, householdID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns := s.ledger[householdID]

	start := 0
	if nextToken != nil {
		afterID, err := decodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		found := false
		for i := range txns {
			if txns[i].TransactionID == afterID {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("%w: pagination token references unknown transaction", apperrors.ErrValidation)
		}
	}

	end := start + limit
	if end > len(txns) {
		end = len(txns)
	}
	page := make([]domain.LedgerTransaction, end-start)
	copy(page, txns[start:end])

	var token *string
	if end < len(txns) {
		t := encodeCursor(txns[end-1].TransactionID)
		token = &t
	}
	return page, token, nil
}

func (s *Store) ListAllTransactionsByHousehold(_ context.Context, householdID string) ([]domain.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns := s.ledger[householdID]
	out := make([]domain.LedgerTransaction, len(txns))
	copy(out, txns)
	return out, nil
}

// --- Bookings ---

func (s *Store) CreateWithHold(_ context.Context, booking domain.Booking, hold domain.LedgerTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[booking.BookingID]; exists {
		return fmt.Errorf("%w: booking %s", apperrors.ErrDuplicate, booking.BookingID)
	}

	// Capacity and balance are both checked before either side takes
	// effect, so a rejection leaves nothing to roll back.
	slot, ok := s.slots[booking.SlotID]
	if !ok {
		return fmt.Errorf("%w: slot %s", apperrors.ErrNotFound, booking.SlotID)
	}
	if slot.ReservedLiters+booking.QuantityLiters > slot.CapacityLiters {
		return fmt.Errorf("%w: slot %s has %d liters free", apperrors.ErrSlotFull, booking.SlotID, slot.AvailableLiters())
	}
	if s.sumLocked(booking.HouseholdID).Add(hold.Amount).IsNegative() {
		return fmt.Errorf("%w: household %s", apperrors.ErrInsufficientFunds, booking.HouseholdID)
	}

	reservation, err := s.reserveLocked(booking.SlotID, booking.QuantityLiters)
	if err != nil {
		return err
	}
	if err := s.appendDebitLocked(hold); err != nil {
		// Unreachable after the checks above; restore the reservation anyway.
		_ = s.releaseLocked(reservation.ReservationID)
		return err
	}

	booking.ReservationID = reservation.ReservationID
	s.bookings[booking.BookingID] = booking
	return nil
}

func (s *Store) FindBookingByID(_ context.Context, bookingID string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", apperrors.ErrNotFound, bookingID)
	}
	return &booking, nil
}

func (s *Store) TransitionStatus(_ context.Context, bookingID string, from, to domain.BookingStatus, actorID string, at time.Time) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", apperrors.ErrNotFound, bookingID)
	}
	if booking.Status != from || !domain.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: booking %s is %s, cannot move %s -> %s", apperrors.ErrInvalidTransition, bookingID, booking.Status, from, to)
	}

	// Completion ends the booking's claim on the slot: the reserved count
	// only tracks Requested and Approved bookings.
	if to == domain.BookingCompleted {
		if err := s.releaseLocked(booking.ReservationID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to release reservation for booking "+bookingID, err)
		}
	}

	booking.Status = to
	booking.LastUpdatedBy = actorID
	booking.LastUpdatedAt = at
	if to.Terminal() {
		booking.ResolvedAt = &at
	}
	s.bookings[bookingID] = booking
	return &booking, nil
}

func (s *Store) ResolveWithRefund(_ context.Context, bookingID string, from, to domain.BookingStatus, refund domain.LedgerTransaction, actorID string, at time.Time) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", apperrors.ErrNotFound, bookingID)
	}
	// The status guard is what makes the refund exactly-once: a concurrent
	// or repeated resolve finds the booking already terminal and stops here.
	if booking.Status != from || !domain.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: booking %s is %s, cannot move %s -> %s", apperrors.ErrInvalidTransition, bookingID, booking.Status, from, to)
	}

	if err := s.releaseLocked(booking.ReservationID); err != nil {
		return nil, apperrors.NewAppError(500, "failed to release reservation for booking "+bookingID, err)
	}
	s.ledger[refund.HouseholdID] = append(s.ledger[refund.HouseholdID], refund)

	booking.Status = to
	booking.RefundTxnID = &refund.TransactionID
	booking.ResolvedAt = &at
	booking.LastUpdatedBy = actorID
	booking.LastUpdatedAt = at
	s.bookings[bookingID] = booking
	return &booking, nil
}

func (s *Store) CompleteElapsed(_ context.Context, now time.Time) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := make([]domain.Booking, 0)
	for id, booking := range s.bookings {
		if booking.Status != domain.BookingApproved {
			continue
		}
		slot, ok := s.slots[booking.SlotID]
		if !ok || !slot.Ended(now) {
			continue
		}
		if err := s.releaseLocked(booking.ReservationID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to release reservation for booking "+id, err)
		}
		at := now
		booking.Status = domain.BookingCompleted
		booking.ResolvedAt = &at
		booking.LastUpdatedAt = at
		booking.LastUpdatedBy = domain.SystemActorID
		s.bookings[id] = booking
		completed = append(completed, booking)
	}
	sort.Slice(completed, func(i, j int) bool { return completed[i].BookingID < completed[j].BookingID })
	return completed, nil
}

func (s *Store) ListBookingsByHousehold(_ context.Context, householdID string, limit int, nextToken *string) ([]domain.Booking, *string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if b.HouseholdID == householdID {
			all = append(all, b)
		}
	}
	// Newest first, booking ID as the deterministic tie-break.
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].BookingID > all[j].BookingID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := 0
	if nextToken != nil {
		afterID, err := decodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		found := false
		for i := range all {
			if all[i].BookingID == afterID {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("%w: pagination token references unknown booking", apperrors.ErrValidation)
		}
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := all[start:end]

	var token *string
	if end < len(all) {
		t := encodeCursor(all[end-1].BookingID)
		token = &t
	}
	return page, token, nil
}

func (s *Store) ListBookingsBySource(_ context.Context, sourceID string, from, to time.Time) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		slot, ok := s.slots[b.SlotID]
		if !ok || slot.SourceID != sourceID {
			continue
		}
		if slot.StartTime.Before(from) || !slot.StartTime.Before(to) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].BookingID < out[j].BookingID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Cursor helpers. Tokens are opaque to callers; this adapter encodes the
// last-seen entity ID.

func encodeCursor(id string) string {
	return pagination.EncodeMultiFieldToken("id", id)
}

func decodeCursor(token string) (string, error) {
	fields, err := pagination.DecodeMultiFieldToken(token)
	if err != nil {
		return "", err
	}
	if len(fields) != 2 || fields[0] != "id" || strings.TrimSpace(fields[1]) == "" {
		return "", fmt.Errorf("invalid pagination token")
	}
	return fields[1], nil
}
