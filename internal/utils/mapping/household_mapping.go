package mapping

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/models"
)

// ToModelHousehold converts a domain Household to a model Household
func ToModelHousehold(d domain.Household) models.Household {
	return models.Household{
		HouseholdID: d.HouseholdID,
		Name:        d.Name,
		Tier:        models.PriorityTier(d.Tier),
		IsActive:    d.IsActive,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainHousehold converts a model Household to a domain Household
func ToDomainHousehold(m models.Household) domain.Household {
	return domain.Household{
		HouseholdID: m.HouseholdID,
		Name:        m.Name,
		Tier:        domain.PriorityTier(m.Tier),
		IsActive:    m.IsActive,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainHouseholdSlice converts a slice of model Households to domain Households
func ToDomainHouseholdSlice(ms []models.Household) []domain.Household {
	ds := make([]domain.Household, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainHousehold(m)
	}
	return ds
}
