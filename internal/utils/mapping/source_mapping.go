package mapping

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/models"
)

// ToModelSource converts a domain WaterSource to a model WaterSource
func ToModelSource(d domain.WaterSource) models.WaterSource {
	return models.WaterSource{
		SourceID:       d.SourceID,
		Name:           d.Name,
		Status:         models.SourceStatus(d.Status),
		PricePerLiter:  d.PricePerLiter,
		OpensAtMinute:  d.OpensAtMinute,
		ClosesAtMinute: d.ClosesAtMinute,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSource converts a model WaterSource to a domain WaterSource
func ToDomainSource(m models.WaterSource) domain.WaterSource {
	return domain.WaterSource{
		SourceID:       m.SourceID,
		Name:           m.Name,
		Status:         domain.SourceStatus(m.Status),
		PricePerLiter:  m.PricePerLiter,
		OpensAtMinute:  m.OpensAtMinute,
		ClosesAtMinute: m.ClosesAtMinute,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainSourceSlice converts a slice of model WaterSources to domain WaterSources
func ToDomainSourceSlice(ms []models.WaterSource) []domain.WaterSource {
	ds := make([]domain.WaterSource, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSource(m)
	}
	return ds
}
