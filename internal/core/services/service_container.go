package services

import (
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
)

// NewServiceContainer wires every service against the given repository
// provider. The same wiring serves both storage adapters.
func NewServiceContainer(
	repos portsrepo.RepositoryProvider,
	windows AccessWindowPolicy,
	notifier portssvc.BookingNotifier,
) *portssvc.ServiceContainer {
	pricing := NewLinearPricing()
	ledgerService := NewLedgerService(repos.LedgerRepo, repos.HouseholdRepo)

	return &portssvc.ServiceContainer{
		Household: NewHouseholdService(repos.HouseholdRepo, ledgerService),
		Source:    NewSourceService(repos.SourceRepo, repos.SlotRepo),
		Slots:     NewSlotRegistryService(repos.SlotRepo),
		Ledger:    ledgerService,
		Booking: NewBookingService(
			repos.BookingRepo,
			repos.SlotRepo,
			repos.SourceRepo,
			repos.HouseholdRepo,
			pricing,
			windows,
			notifier,
		),
		Reporting: NewReportingService(repos.LedgerRepo, repos.BookingRepo),
	}
}
