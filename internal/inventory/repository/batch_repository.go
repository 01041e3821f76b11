package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
	mysqlinfra "pharmastock/internal/infrastructure/mysql"
)

const batchColumns = `id, productId, warehouseId, batchNumber, expiryDate, unitPrice,
		       stockOnHand, stockReserved, createdAt, updatedAt`

type rowScanner interface {
	Scan(dest ...any) error
}

// MySQLBatchRepository is the batch ledger backed by the Batches table.
// Every mutation runs in its own transaction holding the batch row lock.
type MySQLBatchRepository struct {
	db     *sql.DB
	runner *mysqlinfra.TxRunner
	newID  func() string
}

func NewMySQLBatchRepository(db *sql.DB, runner *mysqlinfra.TxRunner) *MySQLBatchRepository {
	return &MySQLBatchRepository{
		db:     db,
		runner: runner,
		newID:  uuid.NewString,
	}
}

// Upsert adds the intake quantity to the batch matching its triple, creating
// the batch when none exists. Expiry and price of an existing batch are kept.
func (r *MySQLBatchRepository) Upsert(ctx context.Context, in domain.Intake) (*domain.Batch, bool, error) {
	query := `
		INSERT INTO Batches (id, productId, warehouseId, batchNumber, expiryDate, unitPrice, stockOnHand, stockReserved)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON DUPLICATE KEY UPDATE stockOnHand = stockOnHand + VALUES(stockOnHand)
	`

	var (
		batch   *domain.Batch
		created bool
	)
	err := r.runner.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			r.newID(), in.ProductID, in.WarehouseID, in.BatchNumber,
			domain.DateOf(in.ExpiryDate), in.UnitPrice, in.Quantity,
		)
		if err != nil {
			return fmt.Errorf("upserting batch: %w", err)
		}

		// MySQL reports 1 for a fresh insert and 2 for an update.
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("getting rows affected: %w", err)
		}
		created = rowsAffected == 1

		row := tx.QueryRowContext(ctx,
			`SELECT `+batchColumns+` FROM Batches WHERE productId = ? AND warehouseId = ? AND batchNumber = ?`,
			in.ProductID, in.WarehouseID, in.BatchNumber,
		)
		batch, err = scanBatch(row)
		if err != nil {
			return fmt.Errorf("reading upserted batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return batch, created, nil
}

func (r *MySQLBatchRepository) FindByID(ctx context.Context, id string) (*domain.Batch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM Batches WHERE id = ?`, id)

	batch, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewInventoryError(errors.KindBatchNotFound, "batch %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying batch by id: %w", err)
	}

	return batch, nil
}

func (r *MySQLBatchRepository) ListByProductWarehouse(ctx context.Context, productID, warehouseID int) ([]domain.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM Batches
		WHERE productId = ? AND warehouseId = ?
		ORDER BY createdAt, id
	`

	rows, err := r.db.QueryContext(ctx, query, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch row: %w", err)
		}
		batches = append(batches, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}

	return batches, nil
}

func (r *MySQLBatchRepository) Reserve(ctx context.Context, batchID string, quantity int) error {
	return r.mutate(ctx, batchID, func(b *domain.Batch) error { return b.Reserve(quantity) })
}

func (r *MySQLBatchRepository) Release(ctx context.Context, batchID string, quantity int) error {
	return r.mutate(ctx, batchID, func(b *domain.Batch) error { return b.Release(quantity) })
}

func (r *MySQLBatchRepository) Consume(ctx context.Context, batchID string, quantity int) error {
	return r.mutate(ctx, batchID, func(b *domain.Batch) error { return b.Consume(quantity) })
}

// mutate locks one batch row, applies fn to the locked copy and writes the
// resulting quantities back. Nothing is written when fn fails.
func (r *MySQLBatchRepository) mutate(ctx context.Context, batchID string, fn func(b *domain.Batch) error) error {
	return r.runner.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		batch, err := r.findByIDForUpdate(ctx, tx, batchID)
		if err != nil {
			return err
		}

		if err := fn(batch); err != nil {
			return err
		}

		return r.updateStock(ctx, tx, batch)
	})
}

func (r *MySQLBatchRepository) findByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Batch, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM Batches WHERE id = ? FOR UPDATE`, id)

	batch, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewInventoryError(errors.KindBatchNotFound, "batch %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking batch: %w", err)
	}

	return batch, nil
}

func (r *MySQLBatchRepository) updateStock(ctx context.Context, tx *sql.Tx, b *domain.Batch) error {
	query := `UPDATE Batches SET stockOnHand = ?, stockReserved = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, b.StockOnHand, b.StockReserved, b.ID)
	if err != nil {
		return fmt.Errorf("updating batch stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewInventoryError(errors.KindBatchNotFound, "batch %s not found", b.ID)
	}

	return nil
}

func scanBatch(row rowScanner) (*domain.Batch, error) {
	var b domain.Batch
	err := row.Scan(
		&b.ID, &b.ProductID, &b.WarehouseID, &b.BatchNumber, &b.ExpiryDate, &b.UnitPrice,
		&b.StockOnHand, &b.StockReserved, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ExpiryDate = domain.DateOf(b.ExpiryDate)
	return &b, nil
}
