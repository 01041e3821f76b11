package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
	mysqlinfra "pharmastock/internal/infrastructure/mysql"
)

type MySQLReservationRepository struct {
	db     *sql.DB
	runner *mysqlinfra.TxRunner
}

func NewMySQLReservationRepository(db *sql.DB, runner *mysqlinfra.TxRunner) *MySQLReservationRepository {
	return &MySQLReservationRepository{db: db, runner: runner}
}

// Create stores the reservation header and its lines together.
func (r *MySQLReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	return r.runner.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO Reservations (id, productId, warehouseId, quantity, status, expiresAt) VALUES (?, ?, ?, ?, ?, ?)`,
			res.ID, res.ProductID, res.WarehouseID, res.Quantity, string(res.Status), nullTime(res.ExpiresAt),
		)
		if err != nil {
			return fmt.Errorf("inserting reservation: %w", err)
		}

		for i, line := range res.Lines {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ReservationLines (reservationId, position, batchId, quantity) VALUES (?, ?, ?, ?)`,
				res.ID, i, line.BatchID, line.Quantity,
			)
			if err != nil {
				return fmt.Errorf("inserting reservation line: %w", err)
			}
		}

		return nil
	})
}

func (r *MySQLReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `
		SELECT id, productId, warehouseId, quantity, status, expiresAt, createdAt, updatedAt
		FROM Reservations
		WHERE id = ?
	`

	var (
		res       domain.Reservation
		status    string
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.ProductID, &res.WarehouseID, &res.Quantity, &status, &expiresAt,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewInventoryError(errors.KindPlanNotFound, "reservation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation by id: %w", err)
	}

	res.Status = domain.ReservationStatus(status)
	if expiresAt.Valid {
		t := expiresAt.Time
		res.ExpiresAt = &t
	}

	lines, err := r.findLines(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Lines = lines

	return &res, nil
}

func (r *MySQLReservationRepository) findLines(ctx context.Context, reservationID string) ([]domain.PlanLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT batchId, quantity FROM ReservationLines WHERE reservationId = ? ORDER BY position`,
		reservationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying reservation lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.PlanLine
	for rows.Next() {
		var l domain.PlanLine
		if err := rows.Scan(&l.BatchID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scanning reservation line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservation lines: %w", err)
	}

	return lines, nil
}

// Transition moves the reservation from one status to another only if it is
// still in the expected status. It reports whether this call made the move.
func (r *MySQLReservationRepository) Transition(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error) {
	query := `UPDATE Reservations SET status = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("updating reservation status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// FindExpiredIDs lists committed reservations whose hold lapsed at or
// before now, oldest first.
func (r *MySQLReservationRepository) FindExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT id
		FROM Reservations
		WHERE status = ?
		  AND expiresAt IS NOT NULL
		  AND expiresAt <= ?
		ORDER BY expiresAt, id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(domain.ReservationCommitted), now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying expired reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning reservation id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservation ids: %w", err)
	}

	return ids, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
