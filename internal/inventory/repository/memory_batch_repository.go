package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
)

// batchEntry guards a single batch. Mutations on different batches never
// contend with each other.
type batchEntry struct {
	mu    sync.Mutex
	batch domain.Batch
}

type ledgerKey struct {
	productID   int
	warehouseID int
}

// MemoryBatchRepository is an in-process batch ledger with one mutex per
// batch. It backs STORAGE_DRIVER=memory and the service tests.
type MemoryBatchRepository struct {
	mu      sync.RWMutex
	byID    map[string]*batchEntry
	byKey   map[domain.BatchKey]*batchEntry
	byOwner map[ledgerKey][]*batchEntry
	newID   func() string
	now     func() time.Time
}

func NewMemoryBatchRepository() *MemoryBatchRepository {
	return &MemoryBatchRepository{
		byID:    make(map[string]*batchEntry),
		byKey:   make(map[domain.BatchKey]*batchEntry),
		byOwner: make(map[ledgerKey][]*batchEntry),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (r *MemoryBatchRepository) Upsert(ctx context.Context, in domain.Intake) (*domain.Batch, bool, error) {
	now := r.now()

	r.mu.Lock()
	e, exists := r.byKey[in.Key()]
	if !exists {
		e = &batchEntry{batch: domain.Batch{
			ID:          r.newID(),
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			BatchNumber: in.BatchNumber,
			ExpiryDate:  domain.DateOf(in.ExpiryDate),
			UnitPrice:   in.UnitPrice,
			StockOnHand: in.Quantity,
			CreatedAt:   now,
			UpdatedAt:   now,
		}}
		r.byID[e.batch.ID] = e
		r.byKey[in.Key()] = e
		owner := ledgerKey{in.ProductID, in.WarehouseID}
		r.byOwner[owner] = append(r.byOwner[owner], e)
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if exists {
		e.batch.StockOnHand += in.Quantity
		e.batch.UpdatedAt = now
	}

	b := e.batch
	return &b, !exists, nil
}

func (r *MemoryBatchRepository) FindByID(ctx context.Context, id string) (*domain.Batch, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.batch
	return &b, nil
}

func (r *MemoryBatchRepository) ListByProductWarehouse(ctx context.Context, productID, warehouseID int) ([]domain.Batch, error) {
	r.mu.RLock()
	entries := append([]*batchEntry(nil), r.byOwner[ledgerKey{productID, warehouseID}]...)
	r.mu.RUnlock()

	batches := make([]domain.Batch, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		batches = append(batches, e.batch)
		e.mu.Unlock()
	}

	return batches, nil
}

func (r *MemoryBatchRepository) Reserve(ctx context.Context, batchID string, quantity int) error {
	return r.mutate(batchID, func(b *domain.Batch) error { return b.Reserve(quantity) })
}

func (r *MemoryBatchRepository) Release(ctx context.Context, batchID string, quantity int) error {
	return r.mutate(batchID, func(b *domain.Batch) error { return b.Release(quantity) })
}

func (r *MemoryBatchRepository) Consume(ctx context.Context, batchID string, quantity int) error {
	return r.mutate(batchID, func(b *domain.Batch) error { return b.Consume(quantity) })
}

// mutate applies fn to a scratch copy under the batch lock and keeps the
// result only when fn succeeds.
func (r *MemoryBatchRepository) mutate(batchID string, fn func(b *domain.Batch) error) error {
	e, err := r.entry(batchID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.batch
	if err := fn(&next); err != nil {
		return err
	}
	next.UpdatedAt = r.now()
	e.batch = next

	return nil
}

func (r *MemoryBatchRepository) entry(id string) (*batchEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, errors.NewInventoryError(errors.KindBatchNotFound, "batch %s not found", id)
	}
	return e, nil
}
