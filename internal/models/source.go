package models

import "github.com/shopspring/decimal"

// SourceStatus mirrors the domain source status at the storage layer.
type SourceStatus string

// WaterSource is the persisted record of a shared dispensing point.
// Operating hours are stored as minutes from midnight local time.
type WaterSource struct {
	SourceID       string          `db:"source_id"` // Primary Key (UUID)
	Name           string          `db:"name"`
	Status         SourceStatus    `db:"status"`
	PricePerLiter  decimal.Decimal `db:"price_per_liter"`
	OpensAtMinute  int             `db:"opens_at_minute"`
	ClosesAtMinute int             `db:"closes_at_minute"`
	AuditFields
}
