package domain

// PriorityTier is the ordered classification of households used to stagger
// access to scarce slot capacity. Higher values gain access earlier.
type PriorityTier string

const (
	TierEssential PriorityTier = "ESSENTIAL"
	TierStandard  PriorityTier = "STANDARD"
	TierLow       PriorityTier = "LOW"
)

// tierRank orders tiers for window calculations. Essential is highest.
var tierRank = map[PriorityTier]int{
	TierEssential: 0,
	TierStandard:  1,
	TierLow:       2,
}

// Rank returns the tier's position in the access ordering, 0 being the
// earliest-admitted tier. Unknown tiers rank after all known ones.
func (t PriorityTier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return len(tierRank)
}

// Valid reports whether t is a known tier.
func (t PriorityTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Household represents a registered consumer of water access.
// Its balance is never stored here: it is always derived from the ledger.
type Household struct {
	HouseholdID string       `json:"householdID"` // Primary Key (UUID)
	Name        string       `json:"name"`
	Tier        PriorityTier `json:"tier"`
	IsActive    bool         `json:"isActive"`
	AuditFields
}
