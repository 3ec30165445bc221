package services_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/core/services"
	"github.com/cwas-project/cwas_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReportingServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   portssvc.ReportingSvc
	now   time.Time

	coordinator domain.Actor
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}

func (s *ReportingServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.svc = services.NewReportingService(s.store, s.store)
	s.now = time.Now().UTC()
	s.coordinator = domain.Actor{ID: "coord-1", Role: domain.RoleCoordinator}
}

func (s *ReportingServiceTestSuite) parseCSV(buf *bytes.Buffer) [][]string {
	records, err := csv.NewReader(buf).ReadAll()
	s.Require().NoError(err)
	return records
}

func (s *ReportingServiceTestSuite) TestWriteLedgerCSV() {
	bookingID := "bk-1"
	s.Require().NoError(s.store.AppendCredit(s.ctx, domain.LedgerTransaction{
		TransactionID: "txn-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.RequireFromString("100.00"),
		Reason:        domain.ReasonDeposit,
		CreatedAt:     s.now,
		CreatedBy:     "coord-1",
	}))
	s.Require().NoError(s.store.AppendDebit(s.ctx, domain.LedgerTransaction{
		TransactionID: "txn-2",
		HouseholdID:   "hh-1",
		Amount:        decimal.RequireFromString("-40.00"),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
		CreatedAt:     s.now.Add(time.Minute),
		CreatedBy:     "hh-1",
	}))

	var buf bytes.Buffer
	owner := domain.Actor{ID: "hh-1", Role: domain.RoleHousehold}
	s.Require().NoError(s.svc.WriteLedgerCSV(s.ctx, owner, "hh-1", &buf))

	records := s.parseCSV(&buf)
	s.Require().Len(records, 3)
	s.Equal([]string{"transaction_id", "household_id", "amount", "reason", "booking_id", "created_at"}, records[0])
	s.Equal("txn-1", records[1][0])
	s.Equal("100.00", records[1][2])
	s.Equal("DEPOSIT", records[1][3])
	s.Equal("", records[1][4])
	s.Equal("txn-2", records[2][0])
	s.Equal("-40.00", records[2][2])
	s.Equal("bk-1", records[2][4])
}

func (s *ReportingServiceTestSuite) TestWriteLedgerCSV_OtherHouseholdForbidden() {
	var buf bytes.Buffer
	stranger := domain.Actor{ID: "hh-2", Role: domain.RoleHousehold}
	err := s.svc.WriteLedgerCSV(s.ctx, stranger, "hh-1", &buf)
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.Zero(buf.Len())
}

func (s *ReportingServiceTestSuite) TestWriteBookingsCSV() {
	start := s.now.Add(24 * time.Hour)
	s.Require().NoError(s.store.SaveSlot(s.ctx, domain.TimeSlot{
		SlotID:         "slot-1",
		SourceID:       "src-1",
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		CapacityLiters: 500,
	}))
	s.Require().NoError(s.store.AppendCredit(s.ctx, domain.LedgerTransaction{
		TransactionID: "seed-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.RequireFromString("100.00"),
		Reason:        domain.ReasonDeposit,
		CreatedAt:     s.now,
	}))
	bookingID := "bk-1"
	s.Require().NoError(s.store.CreateWithHold(s.ctx, domain.Booking{
		BookingID:      bookingID,
		HouseholdID:    "hh-1",
		SlotID:         "slot-1",
		QuantityLiters: 100,
		Price:          decimal.RequireFromString("40.00"),
		Status:         domain.BookingRequested,
		HoldTxnID:      "hold-1",
		AuditFields:    domain.AuditFields{CreatedAt: s.now},
	}, domain.LedgerTransaction{
		TransactionID: "hold-1",
		HouseholdID:   "hh-1",
		Amount:        decimal.RequireFromString("-40.00"),
		Reason:        domain.ReasonHold,
		BookingID:     &bookingID,
		CreatedAt:     s.now,
	}))

	var buf bytes.Buffer
	s.Require().NoError(s.svc.WriteBookingsCSV(s.ctx, s.coordinator, "src-1", s.now, s.now.Add(48*time.Hour), &buf))

	records := s.parseCSV(&buf)
	s.Require().Len(records, 2)
	s.Equal([]string{"booking_id", "household_id", "slot_id", "quantity_liters", "price", "status", "created_at", "resolved_at"}, records[0])
	s.Equal("bk-1", records[1][0])
	s.Equal("100", records[1][3])
	s.Equal("40.00", records[1][4])
	s.Equal("REQUESTED", records[1][5])
	s.Equal("", records[1][7])
}

func (s *ReportingServiceTestSuite) TestWriteBookingsCSV_HouseholdForbidden() {
	var buf bytes.Buffer
	actor := domain.Actor{ID: "hh-1", Role: domain.RoleHousehold}
	err := s.svc.WriteBookingsCSV(s.ctx, actor, "src-1", s.now, s.now.Add(time.Hour), &buf)
	s.ErrorIs(err, apperrors.ErrForbidden)
}
