package mapping

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/models"
)

// ToModelBooking converts a domain Booking to a model Booking
func ToModelBooking(d domain.Booking) models.Booking {
	return models.Booking{
		BookingID:      d.BookingID,
		HouseholdID:    d.HouseholdID,
		SlotID:         d.SlotID,
		ReservationID:  d.ReservationID,
		QuantityLiters: d.QuantityLiters,
		Price:          d.Price,
		Status:         models.BookingStatus(d.Status),
		HoldTxnID:      d.HoldTxnID,
		RefundTxnID:    d.RefundTxnID,
		ResolvedAt:     d.ResolvedAt,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBooking converts a model Booking to a domain Booking
func ToDomainBooking(m models.Booking) domain.Booking {
	return domain.Booking{
		BookingID:      m.BookingID,
		HouseholdID:    m.HouseholdID,
		SlotID:         m.SlotID,
		ReservationID:  m.ReservationID,
		QuantityLiters: m.QuantityLiters,
		Price:          m.Price,
		Status:         domain.BookingStatus(m.Status),
		HoldTxnID:      m.HoldTxnID,
		RefundTxnID:    m.RefundTxnID,
		ResolvedAt:     m.ResolvedAt,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBookingSlice converts a slice of model Bookings to domain Bookings
func ToDomainBookingSlice(ms []models.Booking) []domain.Booking {
	ds := make([]domain.Booking, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBooking(m)
	}
	return ds
}
