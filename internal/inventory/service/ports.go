package service

import (
	"context"
	"time"

	"pharmastock/internal/domain"
)

// BatchRepository is the batch ledger. Reserve, Release and Consume are each
// atomic on one batch and re-check their precondition under the batch lock.
type BatchRepository interface {
	Upsert(ctx context.Context, in domain.Intake) (batch *domain.Batch, created bool, err error)
	FindByID(ctx context.Context, id string) (*domain.Batch, error)
	ListByProductWarehouse(ctx context.Context, productID, warehouseID int) ([]domain.Batch, error)
	Reserve(ctx context.Context, batchID string, quantity int) error
	Release(ctx context.Context, batchID string, quantity int) error
	Consume(ctx context.Context, batchID string, quantity int) error
}

type ReservationRepository interface {
	Create(ctx context.Context, res domain.Reservation) error
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	Transition(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error)
	FindExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type Metrics interface {
	ObserveCommit(result string, elapsed time.Duration)
	AddIntakeUnits(units int)
	AddExpiredReleased(n int)
}
