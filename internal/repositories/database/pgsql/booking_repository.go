package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	"github.com/cwas-project/cwas_backend/internal/models"
	"github.com/cwas-project/cwas_backend/internal/utils/mapping"
	"github.com/cwas-project/cwas_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxBookingRepository struct {
	BaseRepository
}

// newPgxBookingRepository creates a new repository for booking data.
func newPgxBookingRepository(pool *pgxpool.Pool) portsrepo.BookingRepositoryFacade {
	return &PgxBookingRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.BookingRepositoryFacade = (*PgxBookingRepository)(nil)

const bookingColumns = `
	booking_id, household_id, slot_id, reservation_id, quantity_liters, price,
	status, hold_txn_id, refund_txn_id, resolved_at,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var m models.Booking
	err := row.Scan(
		&m.BookingID,
		&m.HouseholdID,
		&m.SlotID,
		&m.ReservationID,
		&m.QuantityLiters,
		&m.Price,
		&m.Status,
		&m.HoldTxnID,
		&m.RefundTxnID,
		&m.ResolvedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateWithHold persists a Requested booking, its slot reservation and its
// hold debit inside one database transaction. The household row lock
// serializes the overdraft check against concurrent debits; the conditional
// update inside reserveCapacityInTx guards slot capacity. A rejection on
// either side rolls the whole unit back.
func (r *PgxBookingRepository) CreateWithHold(ctx context.Context, booking domain.Booking, hold domain.LedgerTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Lock the household first; every funds-moving path takes this lock
	// before any slot lock, which keeps the lock order consistent.
	var householdID string
	err = tx.QueryRow(ctx, `SELECT household_id FROM households WHERE household_id = $1 FOR UPDATE`, booking.HouseholdID).Scan(&householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock household "+booking.HouseholdID, err)
	}

	reservation, err := reserveCapacityInTx(ctx, tx, booking.SlotID, booking.QuantityLiters)
	if err != nil {
		return err
	}

	balance, err := sumInTx(ctx, tx, booking.HouseholdID)
	if err != nil {
		return err
	}
	if balance.Add(hold.Amount).IsNegative() {
		return apperrors.ErrInsufficientFunds
	}

	m := mapping.ToModelTransaction(hold)
	if _, err := tx.Exec(ctx, insertTransactionQuery,
		m.TransactionID, m.HouseholdID, m.Amount, m.Reason, m.BookingID, m.CreatedAt, m.CreatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to insert hold transaction "+m.TransactionID, err)
	}

	booking.ReservationID = reservation.ReservationID
	modelBooking := mapping.ToModelBooking(booking)
	bookingQuery := `
		INSERT INTO bookings (
			booking_id, household_id, slot_id, reservation_id, quantity_liters, price,
			status, hold_txn_id, refund_txn_id, resolved_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err = tx.Exec(ctx, bookingQuery,
		modelBooking.BookingID,
		modelBooking.HouseholdID,
		modelBooking.SlotID,
		modelBooking.ReservationID,
		modelBooking.QuantityLiters,
		modelBooking.Price,
		modelBooking.Status,
		modelBooking.HoldTxnID,
		modelBooking.RefundTxnID,
		modelBooking.ResolvedAt,
		modelBooking.CreatedAt,
		modelBooking.CreatedBy,
		modelBooking.LastUpdatedAt,
		modelBooking.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert booking "+modelBooking.BookingID, err)
	}

	return r.Commit(ctx, tx)
}

// FindBookingByID retrieves a booking by its ID.
func (r *PgxBookingRepository) FindBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1;`
	m, err := scanBooking(r.Pool.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find booking by ID "+bookingID, err)
	}
	domainBooking := mapping.ToDomainBooking(*m)
	return &domainBooking, nil
}

// TransitionStatus moves a booking between statuses with no fund movement.
// The WHERE status = from clause is the compare-and-set: a booking that is
// no longer in the expected status matches zero rows. Moving to Completed
// also releases the slot reservation, since only Requested and Approved
// bookings count against reserved capacity.
func (r *PgxBookingRepository) TransitionStatus(ctx context.Context, bookingID string, from, to domain.BookingStatus, actorID string, at time.Time) (*domain.Booking, error) {
	if !domain.CanTransition(from, to) {
		return nil, apperrors.ErrInvalidTransition
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE bookings
		SET status = $3, resolved_at = CASE WHEN $4 THEN $5 ELSE resolved_at END,
		    last_updated_at = $5, last_updated_by = $6
		WHERE booking_id = $1 AND status = $2
		RETURNING ` + bookingColumns + `;
	`
	m, err := scanBooking(tx.QueryRow(ctx, query,
		bookingID, models.BookingStatus(from), models.BookingStatus(to), to.Terminal(), at, actorID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMissedTransition(ctx, bookingID)
		}
		return nil, apperrors.NewAppError(500, "failed to transition booking "+bookingID, err)
	}

	if to == domain.BookingCompleted {
		if err := releaseReservationInTx(ctx, tx, m.ReservationID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to release reservation for booking "+bookingID, err)
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	domainBooking := mapping.ToDomainBooking(*m)
	return &domainBooking, nil
}

// ResolveWithRefund moves a booking to a terminal status, releases its slot
// reservation and appends the compensating refund, all in one database
// transaction. The status compare-and-set is what makes the refund
// exactly-once: a concurrent resolver loses the update and fails with
// ErrInvalidTransition before touching funds.
func (r *PgxBookingRepository) ResolveWithRefund(ctx context.Context, bookingID string, from, to domain.BookingStatus, refund domain.LedgerTransaction, actorID string, at time.Time) (*domain.Booking, error) {
	if !domain.CanTransition(from, to) || !to.Terminal() {
		return nil, apperrors.ErrInvalidTransition
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE bookings
		SET status = $3, refund_txn_id = $4, resolved_at = $5,
		    last_updated_at = $5, last_updated_by = $6
		WHERE booking_id = $1 AND status = $2
		RETURNING ` + bookingColumns + `;
	`
	m, err := scanBooking(tx.QueryRow(ctx, query,
		bookingID, models.BookingStatus(from), models.BookingStatus(to), refund.TransactionID, at, actorID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMissedTransition(ctx, bookingID)
		}
		return nil, apperrors.NewAppError(500, "failed to resolve booking "+bookingID, err)
	}

	if err := releaseReservationInTx(ctx, tx, m.ReservationID); err != nil {
		return nil, apperrors.NewAppError(500, "failed to release reservation for booking "+bookingID, err)
	}
	if err := insertCreditInTx(ctx, tx, refund); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	domainBooking := mapping.ToDomainBooking(*m)
	return &domainBooking, nil
}

// classifyMissedTransition distinguishes a missing booking from one whose
// status moved under the caller.
func (r *PgxBookingRepository) classifyMissedTransition(ctx context.Context, bookingID string) error {
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_id = $1)`, bookingID).Scan(&exists); err != nil {
		return apperrors.NewAppError(500, "failed to check booking "+bookingID, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrInvalidTransition
}

// CompleteElapsed transitions every Approved booking whose slot has ended to
// Completed, releasing each booking's slot reservation in the same
// transaction.
func (r *PgxBookingRepository) CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE bookings b
		SET status = $1, resolved_at = $2, last_updated_at = $2, last_updated_by = $4
		FROM time_slots s
		WHERE b.slot_id = s.slot_id AND b.status = $3 AND s.end_time <= $2
		RETURNING b.booking_id, b.household_id, b.slot_id, b.reservation_id, b.quantity_liters, b.price,
		          b.status, b.hold_txn_id, b.refund_txn_id, b.resolved_at,
		          b.created_at, b.created_by, b.last_updated_at, b.last_updated_by;
	`
	rows, err := tx.Query(ctx, query,
		models.BookingStatus(domain.BookingCompleted), now, models.BookingStatus(domain.BookingApproved), domain.SystemActorID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to complete elapsed bookings", err)
	}

	completed := []models.Booking{}
	for rows.Next() {
		m, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, apperrors.NewAppError(500, "failed to scan completed booking row", err)
		}
		completed = append(completed, *m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, apperrors.NewAppError(500, "error iterating completed booking rows", err)
	}
	// Drain the result set before issuing further statements on the
	// transaction; pgx permits one active query at a time.
	rows.Close()

	for i := range completed {
		if err := releaseReservationInTx(ctx, tx, completed[i].ReservationID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to release reservation for booking "+completed[i].BookingID, err)
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return mapping.ToDomainBookingSlice(completed), nil
}

// ListBookingsByHousehold retrieves a newest-first page of a household's
// bookings using token-based keyset pagination over (created_at, booking_id).
func (r *PgxBookingRepository) ListBookingsByHousehold(ctx context.Context, householdID string, limit int, nextToken *string) ([]domain.Booking, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + bookingColumns + ` FROM bookings WHERE household_id = $1`
	orderByClause := `ORDER BY created_at DESC, booking_id DESC`

	args := []interface{}{householdID}
	var rows pgx.Rows
	var err error

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeTimeIDToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND (created_at, booking_id) < ($2, $3)`
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
		return nil, nil, apperrors.NewAppError(500, "failed to query bookings for household "+householdID, err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0, fetchLimit)
	for rows.Next() {
		m, err := scanBooking(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan booking row for household "+householdID, err)
		}
		bookings = append(bookings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating booking rows for household "+householdID, err)
	}

	var nextTokenVal *string
	results := bookings
	if len(bookings) > limit {
		lastBooking := bookings[limit-1]
		token := pagination.EncodeTimeIDToken(lastBooking.CreatedAt, lastBooking.BookingID)
		nextTokenVal = &token
		results = bookings[:limit]
	}

	return mapping.ToDomainBookingSlice(results), nextTokenVal, nil
}

// ListBookingsBySource retrieves bookings against a source whose slot start
// time falls in [from, to), for reporting exports.
func (r *PgxBookingRepository) ListBookingsBySource(ctx context.Context, sourceID string, from, to time.Time) ([]domain.Booking, error) {
	query := `
		SELECT b.booking_id, b.household_id, b.slot_id, b.reservation_id, b.quantity_liters, b.price,
		       b.status, b.hold_txn_id, b.refund_txn_id, b.resolved_at,
		       b.created_at, b.created_by, b.last_updated_at, b.last_updated_by
		FROM bookings b
		JOIN time_slots s ON s.slot_id = b.slot_id
		WHERE s.source_id = $1 AND s.start_time >= $2 AND s.start_time < $3
		ORDER BY b.created_at, b.booking_id;
	`
	rows, err := r.Pool.Query(ctx, query, sourceID, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query bookings for source "+sourceID, err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		m, err := scanBooking(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan booking row for source "+sourceID, err)
		}
		bookings = append(bookings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating booking rows for source "+sourceID, err)
	}

	return mapping.ToDomainBookingSlice(bookings), nil
}
