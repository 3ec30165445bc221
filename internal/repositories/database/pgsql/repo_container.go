package pgsql

import (
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	householdRepo := newPgxHouseholdRepository(dbPool)
	sourceRepo := newPgxSourceRepository(dbPool)
	slotRepo := newPgxSlotRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	bookingRepo := newPgxBookingRepository(dbPool)

	return portsrepo.RepositoryProvider{
		HouseholdRepo: householdRepo,
		SourceRepo:    sourceRepo,
		SlotRepo:      slotRepo,
		LedgerRepo:    ledgerRepo,
		BookingRepo:   bookingRepo,
	}
}
