package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pharmastock/internal/domain"
	"pharmastock/internal/inventory/repository"
)

var testNow = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mockBatchRepository delegates to an in-memory ledger unless a Func
// override is set.
type mockBatchRepository struct {
	*repository.MemoryBatchRepository
	ReserveFunc func(ctx context.Context, batchID string, quantity int) error
	ReleaseFunc func(ctx context.Context, batchID string, quantity int) error
	ConsumeFunc func(ctx context.Context, batchID string, quantity int) error
}

func newMockBatchRepository() *mockBatchRepository {
	return &mockBatchRepository{MemoryBatchRepository: repository.NewMemoryBatchRepository()}
}

func (m *mockBatchRepository) Reserve(ctx context.Context, batchID string, quantity int) error {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, batchID, quantity)
	}
	return m.MemoryBatchRepository.Reserve(ctx, batchID, quantity)
}

func (m *mockBatchRepository) Release(ctx context.Context, batchID string, quantity int) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, batchID, quantity)
	}
	return m.MemoryBatchRepository.Release(ctx, batchID, quantity)
}

func (m *mockBatchRepository) Consume(ctx context.Context, batchID string, quantity int) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, batchID, quantity)
	}
	return m.MemoryBatchRepository.Consume(ctx, batchID, quantity)
}

type mockReservationRepository struct {
	*repository.MemoryReservationRepository
	CreateFunc     func(ctx context.Context, res domain.Reservation) error
	TransitionFunc func(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error)
}

func newMockReservationRepository() *mockReservationRepository {
	return &mockReservationRepository{MemoryReservationRepository: repository.NewMemoryReservationRepository()}
}

func (m *mockReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, res)
	}
	return m.MemoryReservationRepository.Create(ctx, res)
}

func (m *mockReservationRepository) Transition(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, id, from, to)
	}
	return m.MemoryReservationRepository.Transition(ctx, id, from, to)
}

type fakeMetrics struct {
	mu          sync.Mutex
	commits     map[string]int
	intakeUnits int
	expired     int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{commits: make(map[string]int)}
}

func (f *fakeMetrics) ObserveCommit(result string, elapsed time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits[result]++
}

func (f *fakeMetrics) AddIntakeUnits(units int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intakeUnits += units
}

func (f *fakeMetrics) AddExpiredReleased(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired += n
}

func seed(t *testing.T, repo BatchRepository, batchNumber string, expiry time.Time, quantity int) domain.Batch {
	t.Helper()
	b, _, err := repo.Upsert(context.Background(), domain.Intake{
		ProductID:   1,
		WarehouseID: 1,
		BatchNumber: batchNumber,
		ExpiryDate:  expiry,
		UnitPrice:   decimal.NewFromInt(1),
		Quantity:    quantity,
	})
	require.NoError(t, err)
	return *b
}

func mustBatch(t *testing.T, repo BatchRepository, id string) domain.Batch {
	t.Helper()
	b, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return *b
}
