package service

import (
	"context"

	"go.uber.org/zap"

	"pharmastock/internal/domain"
)

type BatchLister interface {
	ListByProductWarehouse(ctx context.Context, productID, warehouseID int) ([]domain.Batch, error)
}

// Planner proposes FEFO plans from a snapshot of the ledger. It never locks
// or mutates anything, so a plan may be stale by the time it is committed.
type Planner struct {
	batches BatchLister
	clock   domain.Clock
	logger  *zap.Logger
}

func NewPlanner(batches BatchLister, clock domain.Clock, logger *zap.Logger) *Planner {
	return &Planner{batches: batches, clock: clock, logger: logger}
}

func (p *Planner) Plan(ctx context.Context, productID, warehouseID, quantity int) (*domain.Plan, error) {
	batches, err := p.batches.ListByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	lines, err := domain.AllocateFEFO(batches, p.clock.Today(), quantity)
	if err != nil {
		p.logger.Debug("no plan",
			zap.Int("productId", productID),
			zap.Int("warehouseId", warehouseID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.Plan{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		Lines:       lines,
	}, nil
}
