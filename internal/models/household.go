package models

// PriorityTier mirrors the domain tier classification at the storage layer.
type PriorityTier string

// Household is the persisted registration record for a consumer of water
// access. The balance is never a column; it is derived from the ledger.
type Household struct {
	HouseholdID string       `db:"household_id"` // Primary Key (UUID)
	Name        string       `db:"name"`
	Tier        PriorityTier `db:"tier"`
	IsActive    bool         `db:"is_active"`
	AuditFields
}
