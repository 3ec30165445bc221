package services

import (
	"context"
	"io"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
)

// ReportingSvc produces read-only CSV exports. Reads never block in-flight
// transactions beyond normal snapshot isolation.
type ReportingSvc interface {
	// WriteLedgerCSV streams a household's full transaction history as CSV.
	WriteLedgerCSV(ctx context.Context, actor domain.Actor, householdID string, w io.Writer) error

	// WriteBookingsCSV streams bookings against a source in [from, to) as CSV.
	WriteBookingsCSV(ctx context.Context, actor domain.Actor, sourceID string, from, to time.Time, w io.Writer) error
}
