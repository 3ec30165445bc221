package services

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// linearPricing charges the source's per-liter rate times the requested
// quantity, rounded to cents. It holds no state: the same inputs always
// produce the same price, and the booking state machine evaluates it exactly
// once per request.
type linearPricing struct{}

// NewLinearPricing creates the default pricing policy.
func NewLinearPricing() portssvc.PricingPolicy {
	return &linearPricing{}
}

var _ portssvc.PricingPolicy = (*linearPricing)(nil)

func (p *linearPricing) Price(source *domain.WaterSource, quantityLiters int64, _ *domain.TimeSlot) decimal.Decimal {
	return source.PricePerLiter.Mul(decimal.NewFromInt(quantityLiters)).Round(2)
}
