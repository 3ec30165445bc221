package services

import (
	"context"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
)

// BookingNotifier is invoked on every booking state transition.
// Delivery is fire-and-forget and best-effort: the core does not retry and
// never fails an operation because a notification could not be sent.
type BookingNotifier interface {
	NotifyBookingStatus(ctx context.Context, householdID, bookingID string, status domain.BookingStatus)
}
