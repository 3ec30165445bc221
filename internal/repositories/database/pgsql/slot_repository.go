package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/cwas-project/cwas_backend/internal/apperrors"
	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portsrepo "github.com/cwas-project/cwas_backend/internal/core/ports/repositories"
	"github.com/cwas-project/cwas_backend/internal/models"
	"github.com/cwas-project/cwas_backend/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSlotRepository struct {
	BaseRepository
}

// newPgxSlotRepository creates a new repository for time slot and reservation data.
func newPgxSlotRepository(pool *pgxpool.Pool) portsrepo.SlotRepositoryFacade {
	return &PgxSlotRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.SlotRepositoryFacade = (*PgxSlotRepository)(nil)

// SaveSlot persists a new time slot.
func (r *PgxSlotRepository) SaveSlot(ctx context.Context, slot domain.TimeSlot) error {
	m := mapping.ToModelSlot(slot)
	query := `
		INSERT INTO time_slots (
			slot_id, source_id, start_time, end_time, capacity_liters, reserved_liters,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.SlotID,
		m.SourceID,
		m.StartTime,
		m.EndTime,
		m.CapacityLiters,
		m.ReservedLiters,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert time slot "+m.SlotID, err)
	}
	return nil
}

// FindSlotByID retrieves a time slot by its ID.
func (r *PgxSlotRepository) FindSlotByID(ctx context.Context, slotID string) (*domain.TimeSlot, error) {
	query := `
		SELECT slot_id, source_id, start_time, end_time, capacity_liters, reserved_liters,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM time_slots
		WHERE slot_id = $1;
	`
	var m models.TimeSlot
	err := r.Pool.QueryRow(ctx, query, slotID).Scan(
		&m.SlotID,
		&m.SourceID,
		&m.StartTime,
		&m.EndTime,
		&m.CapacityLiters,
		&m.ReservedLiters,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find time slot by ID "+slotID, err)
	}

	domainSlot := mapping.ToDomainSlot(m)
	return &domainSlot, nil
}

// ListSlotsBySource retrieves slots for a source whose start time falls in [from, to).
func (r *PgxSlotRepository) ListSlotsBySource(ctx context.Context, sourceID string, from, to time.Time) ([]domain.TimeSlot, error) {
	query := `
		SELECT slot_id, source_id, start_time, end_time, capacity_liters, reserved_liters,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM time_slots
		WHERE source_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time, slot_id;
	`
	rows, err := r.Pool.Query(ctx, query, sourceID, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query time slots for source "+sourceID, err)
	}
	defer rows.Close()

	slots := []models.TimeSlot{}
	for rows.Next() {
		var m models.TimeSlot
		err := rows.Scan(
			&m.SlotID,
			&m.SourceID,
			&m.StartTime,
			&m.EndTime,
			&m.CapacityLiters,
			&m.ReservedLiters,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan time slot row for source "+sourceID, err)
		}
		slots = append(slots, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating time slot rows for source "+sourceID, err)
	}

	return mapping.ToDomainSlotSlice(slots), nil
}

// ReserveCapacity reserves quantityLiters against a slot inside its own
// transaction.
func (r *PgxSlotRepository) ReserveCapacity(ctx context.Context, slotID string, quantityLiters int64) (*domain.SlotReservation, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	reservation, err := reserveCapacityInTx(ctx, tx, slotID, quantityLiters)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return reservation, nil
}

// reserveCapacityInTx performs the capacity check and the reserve as one
// conditional update. The update matches zero rows either when the slot is
// missing or when the reserve would exceed capacity; the follow-up select
// tells the two apart.
func reserveCapacityInTx(ctx context.Context, tx pgx.Tx, slotID string, quantityLiters int64) (*domain.SlotReservation, error) {
	updateQuery := `
		UPDATE time_slots
		SET reserved_liters = reserved_liters + $2
		WHERE slot_id = $1 AND reserved_liters + $2 <= capacity_liters;
	`
	tag, err := tx.Exec(ctx, updateQuery, slotID, quantityLiters)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to reserve capacity on slot "+slotID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM time_slots WHERE slot_id = $1)`, slotID).Scan(&exists); err != nil {
			return nil, apperrors.NewAppError(500, "failed to check slot "+slotID, err)
		}
		if !exists {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.ErrSlotFull
	}

	reservation := models.SlotReservation{
		ReservationID:  uuid.NewString(),
		SlotID:         slotID,
		QuantityLiters: quantityLiters,
		CreatedAt:      time.Now().UTC(),
	}
	insertQuery := `
		INSERT INTO slot_reservations (reservation_id, slot_id, quantity_liters, released, created_at)
		VALUES ($1, $2, $3, FALSE, $4);
	`
	_, err = tx.Exec(ctx, insertQuery,
		reservation.ReservationID,
		reservation.SlotID,
		reservation.QuantityLiters,
		reservation.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert reservation for slot "+slotID, err)
	}

	domainReservation := mapping.ToDomainReservation(reservation)
	return &domainReservation, nil
}

// ReleaseReservation releases a reservation inside its own transaction.
func (r *PgxSlotRepository) ReleaseReservation(ctx context.Context, reservationID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := releaseReservationInTx(ctx, tx, reservationID); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// releaseReservationInTx flips the released flag exactly once and gives the
// quantity back to the slot. The conditional update on released = FALSE is
// what makes a double release fail instead of double-counting.
func releaseReservationInTx(ctx context.Context, tx pgx.Tx, reservationID string) error {
	releaseQuery := `
		UPDATE slot_reservations
		SET released = TRUE
		WHERE reservation_id = $1 AND released = FALSE
		RETURNING slot_id, quantity_liters;
	`
	var slotID string
	var quantityLiters int64
	err := tx.QueryRow(ctx, releaseQuery, reservationID).Scan(&slotID, &quantityLiters)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slot_reservations WHERE reservation_id = $1)`, reservationID).Scan(&exists); err != nil {
				return apperrors.NewAppError(500, "failed to check reservation "+reservationID, err)
			}
			if !exists {
				return apperrors.ErrNotFound
			}
			return apperrors.ErrAlreadyReleased
		}
		return apperrors.NewAppError(500, "failed to release reservation "+reservationID, err)
	}

	decrementQuery := `
		UPDATE time_slots
		SET reserved_liters = reserved_liters - $2
		WHERE slot_id = $1;
	`
	if _, err := tx.Exec(ctx, decrementQuery, slotID, quantityLiters); err != nil {
		return apperrors.NewAppError(500, "failed to return capacity to slot "+slotID, err)
	}
	return nil
}

// FindReservationByID retrieves a reservation handle.
func (r *PgxSlotRepository) FindReservationByID(ctx context.Context, reservationID string) (*domain.SlotReservation, error) {
	query := `
		SELECT reservation_id, slot_id, quantity_liters, released, created_at
		FROM slot_reservations
		WHERE reservation_id = $1;
	`
	var m models.SlotReservation
	err := r.Pool.QueryRow(ctx, query, reservationID).Scan(
		&m.ReservationID,
		&m.SlotID,
		&m.QuantityLiters,
		&m.Released,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reservation by ID "+reservationID, err)
	}

	domainReservation := mapping.ToDomainReservation(m)
	return &domainReservation, nil
}
