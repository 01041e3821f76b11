package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pharmastock/internal/domain"
	apperrors "pharmastock/internal/errors"
)

type Ledger interface {
	UpsertIntake(ctx context.Context, in domain.Intake) (*domain.Batch, bool, error)
	ListBatches(ctx context.Context, productID, warehouseID int) ([]domain.Batch, error)
}

type Planner interface {
	Plan(ctx context.Context, productID, warehouseID, quantity int) (*domain.Plan, error)
}

type ReservationManager interface {
	Commit(ctx context.Context, plan domain.Plan) (*domain.Reservation, error)
	Cancel(ctx context.Context, id string) (*domain.Reservation, error)
	Fulfill(ctx context.Context, id string) (*domain.Reservation, error)
	Get(ctx context.Context, id string) (*domain.Reservation, error)
}

type ProductCatalog interface {
	FindByID(ctx context.Context, id int) (*domain.Product, error)
}

// BatchSummary is a batch together with its classifications as of today.
type BatchSummary struct {
	Batch           domain.Batch
	ExpiryStatus    domain.ExpiryStatus
	DaysUntilExpiry int
	StockStatus     domain.StockStatus
}

type BatchListing struct {
	ProductID   int
	WarehouseID int
	ProductName string
	Batches     []BatchSummary
}

type InventoryUseCase struct {
	ledger       Ledger
	planner      Planner
	reservations ReservationManager
	catalog      ProductCatalog
	clock        domain.Clock
	logger       *zap.Logger
}

func NewInventoryUseCase(
	ledger Ledger,
	planner Planner,
	reservations ReservationManager,
	catalog ProductCatalog,
	clock domain.Clock,
	logger *zap.Logger,
) *InventoryUseCase {
	return &InventoryUseCase{
		ledger:       ledger,
		planner:      planner,
		reservations: reservations,
		catalog:      catalog,
		clock:        clock,
		logger:       logger,
	}
}

// Reserve plans the request against the current ledger and commits the plan.
// A commit that loses a race surfaces INSUFFICIENT_STOCK; re-planning is
// left to the caller.
func (uc *InventoryUseCase) Reserve(ctx context.Context, productID, warehouseID, quantity int) (*domain.Reservation, error) {
	uc.logger.Info("reserve started", zap.Int("productId", productID), zap.Int("warehouseId", warehouseID), zap.Int("quantity", quantity))

	plan, err := uc.planner.Plan(ctx, productID, warehouseID, quantity)
	if err != nil {
		return nil, err
	}

	return uc.reservations.Commit(ctx, *plan)
}

func (uc *InventoryUseCase) PreviewPlan(ctx context.Context, productID, warehouseID, quantity int) (*domain.Plan, error) {
	return uc.planner.Plan(ctx, productID, warehouseID, quantity)
}

func (uc *InventoryUseCase) Cancel(ctx context.Context, planID string) (*domain.Reservation, error) {
	return uc.reservations.Cancel(ctx, planID)
}

func (uc *InventoryUseCase) Fulfill(ctx context.Context, planID string) (*domain.Reservation, error) {
	return uc.reservations.Fulfill(ctx, planID)
}

func (uc *InventoryUseCase) GetReservation(ctx context.Context, planID string) (*domain.Reservation, error) {
	return uc.reservations.Get(ctx, planID)
}

func (uc *InventoryUseCase) Intake(ctx context.Context, in domain.Intake) (*BatchSummary, bool, error) {
	batch, created, err := uc.ledger.UpsertIntake(ctx, in)
	if err != nil {
		return nil, false, err
	}

	summary := summarize(*batch, uc.clock.Today())
	return &summary, created, nil
}

// ListBatches returns every batch of the product in the warehouse, soonest
// expiry first, with expiry and stock classifications.
func (uc *InventoryUseCase) ListBatches(ctx context.Context, productID, warehouseID int) (*BatchListing, error) {
	batches, err := uc.ledger.ListBatches(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	domain.SortFEFO(batches)

	today := uc.clock.Today()
	listing := &BatchListing{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Batches:     make([]BatchSummary, len(batches)),
	}
	for i, b := range batches {
		listing.Batches[i] = summarize(b, today)
	}

	if uc.catalog != nil {
		listing.ProductName = uc.productName(ctx, productID)
	}

	return listing, nil
}

// productName is best effort; listing stock never fails on the catalog.
func (uc *InventoryUseCase) productName(ctx context.Context, productID int) string {
	product, err := uc.catalog.FindByID(ctx, productID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			uc.logger.Warn("catalog lookup failed", zap.Int("productId", productID), zap.Error(err))
		}
		return ""
	}
	return product.Name
}

func summarize(b domain.Batch, today time.Time) BatchSummary {
	status, days := domain.ClassifyExpiry(b.ExpiryDate, today)
	return BatchSummary{
		Batch:           b,
		ExpiryStatus:    status,
		DaysUntilExpiry: days,
		StockStatus:     domain.ClassifyStock(b.AvailableStock()),
	}
}
