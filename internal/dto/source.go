package dto

import (
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateSourceRequest is the payload for registering a water source.
type CreateSourceRequest struct {
	Name           string          `json:"name" binding:"required"`
	PricePerLiter  decimal.Decimal `json:"pricePerLiter" binding:"decimalgte0"`
	OpensAtMinute  int             `json:"opensAtMinute" binding:"min=0,max=1439"`
	ClosesAtMinute int             `json:"closesAtMinute" binding:"required,min=1,max=1440"`
}

// UpdateSourceStatusRequest flips a source's maintenance flag.
type UpdateSourceStatusRequest struct {
	Status domain.SourceStatus `json:"status" binding:"required,oneof=ACTIVE MAINTENANCE"`
}

// CreateSlotRequest defines a new time slot against a source.
type CreateSlotRequest struct {
	StartTime      time.Time `json:"startTime" binding:"required"`
	EndTime        time.Time `json:"endTime" binding:"required"`
	CapacityLiters int64     `json:"capacityLiters" binding:"required,gt=0"`
}

// SourceResponse is the API representation of a water source.
type SourceResponse struct {
	SourceID       string              `json:"sourceID"`
	Name           string              `json:"name"`
	Status         domain.SourceStatus `json:"status"`
	PricePerLiter  decimal.Decimal     `json:"pricePerLiter"`
	OpensAtMinute  int                 `json:"opensAtMinute"`
	ClosesAtMinute int                 `json:"closesAtMinute"`
}

// ToSourceResponse maps a domain source to its API representation.
func ToSourceResponse(s *domain.WaterSource) SourceResponse {
	return SourceResponse{
		SourceID:       s.SourceID,
		Name:           s.Name,
		Status:         s.Status,
		PricePerLiter:  s.PricePerLiter,
		OpensAtMinute:  s.OpensAtMinute,
		ClosesAtMinute: s.ClosesAtMinute,
	}
}

// SlotResponse is the API representation of a time slot and its availability.
type SlotResponse struct {
	SlotID          string    `json:"slotID"`
	SourceID        string    `json:"sourceID"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	CapacityLiters  int64     `json:"capacityLiters"`
	ReservedLiters  int64     `json:"reservedLiters"`
	AvailableLiters int64     `json:"availableLiters"`
}

// ToSlotResponse maps a domain slot to its API representation.
func ToSlotResponse(s *domain.TimeSlot) SlotResponse {
	return SlotResponse{
		SlotID:          s.SlotID,
		SourceID:        s.SourceID,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		CapacityLiters:  s.CapacityLiters,
		ReservedLiters:  s.ReservedLiters,
		AvailableLiters: s.AvailableLiters(),
	}
}
