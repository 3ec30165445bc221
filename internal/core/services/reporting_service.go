package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
)

// reportingService streams read-only CSV exports of ledger history and
// bookings. Exports read committed state only; they never hold up in-flight
// booking or ledger operations.
type reportingService struct {
	ledgerRepo  portsrepo.LedgerReader
	bookingRepo portsrepo.BookingReader
}

// NewReportingService creates a new ReportingService.
func NewReportingService(ledgerRepo portsrepo.LedgerReader, bookingRepo portsrepo.BookingReader) portssvc.ReportingSvc {
	return &reportingService{
		ledgerRepo:  ledgerRepo,
		bookingRepo: bookingRepo,
	}
}

// Ensure reportingService implements the portssvc.ReportingSvc interface
var _ portssvc.ReportingSvc = (*reportingService)(nil)

// WriteLedgerCSV streams a household's full transaction history as CSV.
// Households may export their own ledger; coordinators may export any.
func (s *reportingService) WriteLedgerCSV(ctx context.Context, actor domain.Actor, householdID string, w io.Writer) error {
	if !actor.IsCoordinator() && actor.ID != householdID {
		return fmt.Errorf("%w: ledger belongs to another household", apperrors.ErrForbidden)
	}

	txns, err := s.ledgerRepo.ListAllTransactionsByHousehold(ctx, householdID)
	if err != nil {
		return fmt.Errorf("failed to read ledger for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"transaction_id", "household_id", "amount", "reason", "booking_id", "created_at"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range txns {
		t := &txns[i]
		bookingID := ""
		if t.BookingID != nil {
			bookingID = *t.BookingID
		}
		record := []string{
			t.TransactionID,
			t.HouseholdID,
			t.Amount.StringFixed(2),
			string(t.Reason),
			bookingID,
			t.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBookingsCSV streams bookings against a source in [from, to) as CSV.
// Coordinator capability required.
func (s *reportingService) WriteBookingsCSV(ctx context.Context, actor domain.Actor, sourceID string, from, to time.Time, w io.Writer) error {
	if !actor.IsCoordinator() {
		return fmt.Errorf("%w: only coordinators may export bookings", apperrors.ErrForbidden)
	}

	bookings, err := s.bookingRepo.ListBookingsBySource(ctx, sourceID, from, to)
	if err != nil {
		return fmt.Errorf("failed to read bookings for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"booking_id", "household_id", "slot_id", "quantity_liters", "price", "status", "created_at", "resolved_at"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range bookings {
		b := &bookings[i]
		resolvedAt := ""
		if b.ResolvedAt != nil {
			resolvedAt = b.ResolvedAt.Format(time.RFC3339)
		}
		record := []string{
			b.BookingID,
			b.HouseholdID,
			b.SlotID,
			strconv.FormatInt(b.QuantityLiters, 10),
			b.Price.StringFixed(2),
			string(b.Status),
			b.CreatedAt.Format(time.RFC3339),
			resolvedAt,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
