package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	"github.com/cwas-project/cwas_backend/internal/models"
	"github.com/cwas-project/cwas_backend/internal/utils/mapping"
	"github.com/cwas-project/cwas_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger transaction data.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// AppendCredit durably records a positive-amount transaction.
func (r *PgxLedgerRepository) AppendCredit(ctx context.Context, txn domain.LedgerTransaction) error {
	if !txn.Amount.IsPositive() {
		return apperrors.NewAppError(400, "credit amount must be positive", apperrors.ErrValidation)
	}
	m := mapping.ToModelTransaction(txn)
	if _, err := r.Pool.Exec(ctx, insertTransactionQuery,
		m.TransactionID, m.HouseholdID, m.Amount, m.Reason, m.BookingID, m.CreatedAt, m.CreatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger transaction "+m.TransactionID, err)
	}
	return nil
}

// AppendDebit records a negative-amount transaction after an overdraft check,
// inside its own transaction.
func (r *PgxLedgerRepository) AppendDebit(ctx context.Context, txn domain.LedgerTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := appendDebitInTx(ctx, tx, txn); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

const insertTransactionQuery = `
	INSERT INTO ledger_transactions (transaction_id, household_id, amount, reason, booking_id, created_at, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

// appendDebitInTx locks the household row, derives the balance and appends
// the debit. The row lock serializes debits per household so two concurrent
// debits cannot both pass the overdraft check.
func appendDebitInTx(ctx context.Context, tx pgx.Tx, txn domain.LedgerTransaction) error {
	if !txn.Amount.IsNegative() {
		return apperrors.NewAppError(400, "debit amount must be negative", apperrors.ErrValidation)
	}

	var householdID string
	err := tx.QueryRow(ctx, `SELECT household_id FROM households WHERE household_id = $1 FOR UPDATE`, txn.HouseholdID).Scan(&householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock household "+txn.HouseholdID, err)
	}

	balance, err := sumInTx(ctx, tx, txn.HouseholdID)
	if err != nil {
		return err
	}
	if balance.Add(txn.Amount).IsNegative() {
		return apperrors.ErrInsufficientFunds
	}

	m := mapping.ToModelTransaction(txn)
	if _, err := tx.Exec(ctx, insertTransactionQuery,
		m.TransactionID, m.HouseholdID, m.Amount, m.Reason, m.BookingID, m.CreatedAt, m.CreatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger transaction "+m.TransactionID, err)
	}
	return nil
}

// insertCreditInTx appends a credit row as part of a larger transaction.
func insertCreditInTx(ctx context.Context, tx pgx.Tx, txn domain.LedgerTransaction) error {
	m := mapping.ToModelTransaction(txn)
	if _, err := tx.Exec(ctx, insertTransactionQuery,
		m.TransactionID, m.HouseholdID, m.Amount, m.Reason, m.BookingID, m.CreatedAt, m.CreatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger transaction "+m.TransactionID, err)
	}
	return nil
}

func sumInTx(ctx context.Context, tx pgx.Tx, householdID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM ledger_transactions WHERE household_id = $1`, householdID).Scan(&balance)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum ledger for household "+householdID, err)
	}
	return balance, nil
}

// SumByHousehold derives the household's balance as the signed sum of its
// transactions.
func (r *PgxLedgerRepository) SumByHousehold(ctx context.Context, householdID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.Pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM ledger_transactions WHERE household_id = $1`, householdID).Scan(&balance)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum ledger for household "+householdID, err)
	}
	return balance, nil
}

// ListTransactionsByHousehold retrieves a chronological page of transactions
// using token-based keyset pagination over (created_at, transaction_id).
func (r *PgxLedgerRepository) ListTransactionsByHousehold(ctx context.Context, householdID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to determine whether there is a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT transaction_id, household_id, amount, reason, booking_id, created_at, created_by
		FROM ledger_transactions
		WHERE household_id = $1
	`
	orderByClause := `ORDER BY created_at, transaction_id`

	args := []interface{}{householdID}
	var rows pgx.Rows
	var err error

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeTimeIDToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND (created_at, transaction_id) > ($2, $3)`
		args = append(args, lastCreatedAt, lastID)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query ledger transactions for household "+householdID, err)
	}
	defer rows.Close()

	transactions := make([]models.LedgerTransaction, 0, fetchLimit)
	for rows.Next() {
		var m models.LedgerTransaction
		err := rows.Scan(
			&m.TransactionID,
			&m.HouseholdID,
			&m.Amount,
			&m.Reason,
			&m.BookingID,
			&m.CreatedAt,
			&m.CreatedBy,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan ledger transaction row for household "+householdID, err)
		}
		transactions = append(transactions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating ledger transaction rows for household "+householdID, err)
	}

	var nextTokenVal *string
	results := transactions
	if len(transactions) > limit {
		lastTxn := transactions[limit-1]
		token := pagination.EncodeTimeIDToken(lastTxn.CreatedAt, lastTxn.TransactionID)
		nextTokenVal = &token
		results = transactions[:limit]
	}

	return mapping.ToDomainTransactionSlice(results), nextTokenVal, nil
}

// ListAllTransactionsByHousehold retrieves the full chronological history,
// for reporting exports.
func (r *PgxLedgerRepository) ListAllTransactionsByHousehold(ctx context.Context, householdID string) ([]domain.LedgerTransaction, error) {
	query := `
		SELECT transaction_id, household_id, amount, reason, booking_id, created_at, created_by
		FROM ledger_transactions
		WHERE household_id = $1
		ORDER BY created_at, transaction_id;
	`
	rows, err := r.Pool.Query(ctx, query, householdID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger transactions for household "+householdID, err)
	}
	defer rows.Close()

	transactions := []models.LedgerTransaction{}
	for rows.Next() {
		var m models.LedgerTransaction
		err := rows.Scan(
			&m.TransactionID,
			&m.HouseholdID,
			&m.Amount,
			&m.Reason,
			&m.BookingID,
			&m.CreatedAt,
			&m.CreatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger transaction row for household "+householdID, err)
		}
		transactions = append(transactions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger transaction rows for household "+householdID, err)
	}

	return mapping.ToDomainTransactionSlice(transactions), nil
}
