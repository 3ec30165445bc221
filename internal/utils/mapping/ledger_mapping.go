package mapping

import (
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/models"
)

// ToModelTransaction converts a domain LedgerTransaction to a model LedgerTransaction
func ToModelTransaction(d domain.LedgerTransaction) models.LedgerTransaction {
	return models.LedgerTransaction{
		TransactionID: d.TransactionID,
		HouseholdID:   d.HouseholdID,
		Amount:        d.Amount,
		Reason:        models.TransactionReason(d.Reason),
		BookingID:     d.BookingID,
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
	}
}

// ToDomainTransaction converts a model LedgerTransaction to a domain LedgerTransaction
func ToDomainTransaction(m models.LedgerTransaction) domain.LedgerTransaction {
	return domain.LedgerTransaction{
		TransactionID: m.TransactionID,
		HouseholdID:   m.HouseholdID,
		Amount:        m.Amount,
		Reason:        domain.TransactionReason(m.Reason),
		BookingID:     m.BookingID,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// ToDomainTransactionSlice converts a slice of model LedgerTransactions to domain LedgerTransactions
func ToDomainTransactionSlice(ms []models.LedgerTransaction) []domain.LedgerTransaction {
	ds := make([]domain.LedgerTransaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
