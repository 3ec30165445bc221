package dto

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateHouseholdRequest is the payload for registering a household.
type CreateHouseholdRequest struct {
	Name string              `json:"name" binding:"required"`
	Tier domain.PriorityTier `json:"tier" binding:"required,oneof=ESSENTIAL STANDARD LOW"`
}

// DepositRequest credits a household's ledger.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimalgt0"`
}

// HouseholdResponse is the API representation of a household.
type HouseholdResponse struct {
	HouseholdID string              `json:"householdID"`
	Name        string              `json:"name"`
	Tier        domain.PriorityTier `json:"tier"`
	IsActive    bool                `json:"isActive"`
}

// ToHouseholdResponse maps a domain household to its API representation.
func ToHouseholdResponse(h *domain.Household) HouseholdResponse {
	return HouseholdResponse{
		HouseholdID: h.HouseholdID,
		Name:        h.Name,
		Tier:        h.Tier,
		IsActive:    h.IsActive,
	}
}

// BalanceResponse reports a household's derived balance.
type BalanceResponse struct {
	HouseholdID string          `json:"householdID"`
	Balance     decimal.Decimal `json:"balance"`
}
