package services

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PricingPolicy maps (source, quantity, slot) to a price. Implementations
// must be pure and deterministic: the booking state machine evaluates the
// policy exactly once, at request time, and locks the result into the
// booking.
type PricingPolicy interface {
	Price(source *domain.WaterSource, quantityLiters int64, slot *domain.TimeSlot) decimal.Decimal
}
