package mapping

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/models"
)

// ToModelSlot converts a domain TimeSlot to a model TimeSlot
func ToModelSlot(d domain.TimeSlot) models.TimeSlot {
	return models.TimeSlot{
		SlotID:         d.SlotID,
		SourceID:       d.SourceID,
		StartTime:      d.StartTime,
		EndTime:        d.EndTime,
		CapacityLiters: d.CapacityLiters,
		ReservedLiters: d.ReservedLiters,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSlot converts a model TimeSlot to a domain TimeSlot
func ToDomainSlot(m models.TimeSlot) domain.TimeSlot {
	return domain.TimeSlot{
		SlotID:         m.SlotID,
		SourceID:       m.SourceID,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
		CapacityLiters: m.CapacityLiters,
		ReservedLiters: m.ReservedLiters,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainSlotSlice converts a slice of model TimeSlots to domain TimeSlots
func ToDomainSlotSlice(ms []models.TimeSlot) []domain.TimeSlot {
	ds := make([]domain.TimeSlot, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSlot(m)
	}
	return ds
}

// ToDomainReservation converts a model SlotReservation to a domain SlotReservation
func ToDomainReservation(m models.SlotReservation) domain.SlotReservation {
	return domain.SlotReservation{
		ReservationID:  m.ReservationID,
		SlotID:         m.SlotID,
		QuantityLiters: m.QuantityLiters,
		Released:       m.Released,
		CreatedAt:      m.CreatedAt,
	}
}
