package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
)

func seedBatch(t *testing.T, repo *MemoryBatchRepository, batchNumber string, quantity int) domain.Batch {
	t.Helper()
	b, _, err := repo.Upsert(context.Background(), domain.Intake{
		ProductID:   1,
		WarehouseID: 1,
		BatchNumber: batchNumber,
		ExpiryDate:  time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		UnitPrice:   decimal.NewFromInt(2),
		Quantity:    quantity,
	})
	require.NoError(t, err)
	return *b
}

func TestMemoryBatchRepository_UpsertSameTripleIsAdditive(t *testing.T) {
	repo := NewMemoryBatchRepository()

	first := seedBatch(t, repo, "L-1", 10)
	second, created, err := repo.Upsert(context.Background(), domain.Intake{
		ProductID: 1, WarehouseID: 1, BatchNumber: "L-1",
		ExpiryDate: time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), UnitPrice: decimal.NewFromInt(9), Quantity: 5,
	})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 15, second.StockOnHand)
	assert.Equal(t, first.ExpiryDate, second.ExpiryDate)
	assert.True(t, first.UnitPrice.Equal(second.UnitPrice))

	batches, err := repo.ListByProductWarehouse(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestMemoryBatchRepository_ListScopedToProductWarehouse(t *testing.T) {
	repo := NewMemoryBatchRepository()
	seedBatch(t, repo, "L-1", 10)
	_, _, err := repo.Upsert(context.Background(), domain.Intake{ProductID: 1, WarehouseID: 2, BatchNumber: "L-1", Quantity: 3})
	require.NoError(t, err)

	batches, err := repo.ListByProductWarehouse(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 3, batches[0].StockOnHand)

	none, err := repo.ListByProductWarehouse(context.Background(), 9, 9)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryBatchRepository_FailedMutationLeavesBatchUntouched(t *testing.T) {
	repo := NewMemoryBatchRepository()
	b := seedBatch(t, repo, "L-1", 10)
	ctx := context.Background()

	require.NoError(t, repo.Reserve(ctx, b.ID, 4))
	assert.True(t, errors.HasKind(repo.Reserve(ctx, b.ID, 7), errors.KindInsufficientStock))
	assert.True(t, errors.HasKind(repo.Release(ctx, b.ID, 5), errors.KindOverRelease))
	assert.True(t, errors.HasKind(repo.Consume(ctx, b.ID, 5), errors.KindOverConsume))

	after, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.StockOnHand)
	assert.Equal(t, 4, after.StockReserved)
}

func TestMemoryBatchRepository_UnknownBatch(t *testing.T) {
	repo := NewMemoryBatchRepository()

	_, err := repo.FindByID(context.Background(), "nope")
	assert.True(t, errors.HasKind(err, errors.KindBatchNotFound))
	assert.True(t, errors.HasKind(repo.Reserve(context.Background(), "nope", 1), errors.KindBatchNotFound))
}

func TestMemoryBatchRepository_ConcurrentReserveNeverOversells(t *testing.T) {
	repo := NewMemoryBatchRepository()
	b := seedBatch(t, repo, "L-1", 10)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Reserve(context.Background(), b.ID, 6)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, errors.HasKind(err, errors.KindInsufficientStock))
	}
	assert.Equal(t, 1, successes)

	after, err := repo.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, after.StockReserved)
}

func TestMemoryBatchRepository_InvariantUnderContention(t *testing.T) {
	repo := NewMemoryBatchRepository()
	b := seedBatch(t, repo, "L-1", 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.Reserve(ctx, b.ID, 3) == nil {
				_ = repo.Release(ctx, b.ID, 1)
			}
		}()
	}
	wg.Wait()

	after, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.StockReserved, 0)
	assert.LessOrEqual(t, after.StockReserved, after.StockOnHand)
}
