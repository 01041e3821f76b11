package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
)

// LedgerService validates stock intake before it reaches the ledger and
// serves batch reads.
type LedgerService struct {
	batches       BatchRepository
	clock         domain.Clock
	rejectExpired bool
	metrics       Metrics
	logger        *zap.Logger
}

func NewLedgerService(batches BatchRepository, clock domain.Clock, rejectExpired bool, metrics Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		batches:       batches,
		clock:         clock,
		rejectExpired: rejectExpired,
		metrics:       metrics,
		logger:        logger,
	}
}

// UpsertIntake adds stock to the batch keyed by the intake triple, creating
// it when missing. A batch that expires today is still accepted.
func (s *LedgerService) UpsertIntake(ctx context.Context, in domain.Intake) (*domain.Batch, bool, error) {
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	if err := s.validateIntake(in); err != nil {
		s.logger.Warn("intake rejected",
			zap.Int("productId", in.ProductID),
			zap.Int("warehouseId", in.WarehouseID),
			zap.String("batchNumber", in.BatchNumber),
			zap.Error(err),
		)
		return nil, false, err
	}
	in.ExpiryDate = domain.DateOf(in.ExpiryDate)

	batch, created, err := s.batches.Upsert(ctx, in)
	if err != nil {
		s.logger.Error("intake failed", zap.String("batchNumber", in.BatchNumber), zap.Error(err))
		return nil, false, err
	}

	if !created && !batch.ExpiryDate.Equal(in.ExpiryDate) {
		s.logger.Warn("intake expiry differs from existing batch, keeping existing",
			zap.String("batchId", batch.ID),
			zap.String("existingExpiry", domain.FormatDate(batch.ExpiryDate)),
			zap.String("intakeExpiry", domain.FormatDate(in.ExpiryDate)),
		)
	}

	s.metrics.AddIntakeUnits(in.Quantity)
	s.logger.Info("stock intake recorded",
		zap.String("batchId", batch.ID),
		zap.Int("productId", batch.ProductID),
		zap.Int("warehouseId", batch.WarehouseID),
		zap.Int("quantity", in.Quantity),
		zap.Int("stockOnHand", batch.StockOnHand),
		zap.Bool("created", created),
	)

	return batch, created, nil
}

func (s *LedgerService) validateIntake(in domain.Intake) error {
	if in.BatchNumber == "" {
		return errors.NewValidationError("invalid intake", errors.ValidationDetail{
			Field: "batchNumber", Message: "is required",
		})
	}
	if in.Quantity <= 0 {
		return errors.NewInventoryError(errors.KindInvalidQuantity, "intake quantity must be positive, got %d", in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return errors.NewInventoryError(errors.KindInvalidPrice, "unit price must not be negative, got %s", in.UnitPrice)
	}
	if in.ExpiryDate.IsZero() {
		return errors.NewInventoryError(errors.KindInvalidExpiry, "expiry date is required")
	}
	if s.rejectExpired {
		today := s.clock.Today()
		if domain.DaysBetween(today, in.ExpiryDate) < 0 {
			return errors.NewInventoryError(errors.KindInvalidExpiry,
				"batch %s expired on %s", in.BatchNumber, domain.FormatDate(in.ExpiryDate))
		}
	}
	return nil
}

func (s *LedgerService) ListBatches(ctx context.Context, productID, warehouseID int) ([]domain.Batch, error) {
	batches, err := s.batches.ListByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		s.logger.Error("listing batches failed", zap.Int("productId", productID), zap.Int("warehouseId", warehouseID), zap.Error(err))
		return nil, err
	}
	return batches, nil
}

func (s *LedgerService) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	return s.batches.FindByID(ctx, id)
}
