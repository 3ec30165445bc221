package services_test

import (
	"context"
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

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   portssvc.LedgerSvcFacade

	coordinator domain.Actor
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.svc = services.NewLedgerService(s.store, s.store)
	s.coordinator = domain.Actor{ID: "coord-1", Role: domain.RoleCoordinator}

	err := s.store.SaveHousehold(s.ctx, domain.Household{
		HouseholdID: "hh-1",
		Name:        "Test Household",
		Tier:        domain.TierStandard,
		IsActive:    true,
		AuditFields: domain.AuditFields{CreatedAt: time.Now().UTC(), CreatedBy: "coord-1"},
	})
	s.Require().NoError(err)
}

func (s *LedgerServiceTestSuite) TestCredit() {
	txn, err := s.svc.Credit(s.ctx, s.coordinator, "hh-1", decimal.RequireFromString("25.00"), domain.ReasonDeposit, nil)

	s.Require().NoError(err)
	s.NotEmpty(txn.TransactionID)
	s.Equal("hh-1", txn.HouseholdID)
	s.True(decimal.RequireFromString("25.00").Equal(txn.Amount))
	s.Equal(domain.ReasonDeposit, txn.Reason)
	s.Equal("coord-1", txn.CreatedBy)

	balance, err := s.svc.Balance(s.ctx, "hh-1")
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("25.00").Equal(balance))
}

func (s *LedgerServiceTestSuite) TestCredit_RejectsNonPositiveAmount() {
	_, err := s.svc.Credit(s.ctx, s.coordinator, "hh-1", decimal.Zero, domain.ReasonDeposit, nil)
	s.ErrorIs(err, services.ErrAmountNotPositive)

	_, err = s.svc.Credit(s.ctx, s.coordinator, "hh-1", decimal.RequireFromString("-5"), domain.ReasonDeposit, nil)
	s.ErrorIs(err, services.ErrAmountNotPositive)
}

func (s *LedgerServiceTestSuite) TestCredit_UnknownHousehold() {
	_, err := s.svc.Credit(s.ctx, s.coordinator, "missing", decimal.RequireFromString("25.00"), domain.ReasonDeposit, nil)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestDebit() {
	_, err := s.svc.Credit(s.ctx, s.coordinator, "hh-1", decimal.RequireFromString("40.00"), domain.ReasonDeposit, nil)
	s.Require().NoError(err)

	// Callers pass the magnitude; the service stores the signed amount.
	txn, err := s.svc.Debit(s.ctx, s.coordinator, "hh-1", decimal.RequireFromString("15.00"), domain.ReasonAdjustment, nil)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("-15.00").Equal(txn.Amount))

	balance, err := s.svc.Balance(s.ctx, "hh-1")
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("25.00").Equal(balance))
}

func (s *LedgerServiceTestSuite) TestDebit_NoOverdraft() {
	_, err := s.svc.Credit(s.ctx, s.coordinator, "hh-1", decimal.RequireFromString("10.00"), domain.ReasonDeposit, nil)
	s.Require().NoError(err)

	_, err = s.svc.Debit(s.ctx, s.coordinator, "hh-1", decimal.RequireFromString("10.01"), domain.ReasonAdjustment, nil)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	// A rejected debit leaves the ledger untouched.
	balance, err := s.svc.Balance(s.ctx, "hh-1")
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("10.00").Equal(balance))

	// Debiting to exactly zero is allowed.
	_, err = s.svc.Debit(s.ctx, s.coordinator, "hh-1", decimal.RequireFromString("10.00"), domain.ReasonAdjustment, nil)
	s.NoError(err)
}

func (s *LedgerServiceTestSuite) TestBalance_EmptyLedger() {
	balance, err := s.svc.Balance(s.ctx, "hh-1")
	s.Require().NoError(err)
	s.True(balance.IsZero())
}

func (s *LedgerServiceTestSuite) TestHistory_Paginates() {
	for i := 0; i < 5; i++ {
		_, err := s.svc.Credit(s.ctx, s.coordinator, "hh-1", decimal.NewFromInt(int64(i+1)), domain.ReasonDeposit, nil)
		s.Require().NoError(err)
	}

	page, err := s.svc.History(s.ctx, "hh-1", dto.ListTransactionsParams{Limit: 3})
	s.Require().NoError(err)
	s.Len(page.Transactions, 3)
	s.Require().NotNil(page.NextToken)

	rest, err := s.svc.History(s.ctx, "hh-1", dto.ListTransactionsParams{Limit: 3, NextToken: page.NextToken})
	s.Require().NoError(err)
	s.Len(rest.Transactions, 2)
	s.Nil(rest.NextToken)

	// Chronological and restartable: pages join up with no gap or overlap.
	all := append(page.Transactions, rest.Transactions...)
	s.True(decimal.RequireFromString("1").Equal(all[0].Amount))
	s.True(decimal.RequireFromString("5").Equal(all[4].Amount))
}
